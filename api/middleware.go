package api

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsdeck/field-ops-api/databases"
	"github.com/opsdeck/field-ops-api/models"
)

const refreshTokenTTL = 7 * 24 * time.Hour

// MiddlewareDB is a struct that holds the employee database for credential checks
type MiddlewareDB struct {
	DB databases.EmployeeDatabase
}

var authenticator auth.Authenticator
var tokenCache store.Cache

// Middleware adds bearer token authentication around accessing the routes
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user, err := authenticator.Authenticate(r)
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugf("employee %s authenticated\n", user.UserName())
		next.ServeHTTP(w, r)
	})
}

// CreateToken exchanges basic auth credentials for a bearer token and a
// signed refresh token
func (m MiddlewareDB) CreateToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	username, _, ok := r.BasicAuth()
	if !ok {
		http.Error(w, "basic auth failed", http.StatusUnauthorized)
		return
	}

	// Fetch employee details from the database
	dbResp, err := m.DB.Find(context.Background(), bson.M{"username": username})
	if err != nil || len(dbResp) == 0 {
		http.Error(w, "failed to get employee by username", http.StatusUnauthorized)
		return
	}

	employee := dbResp[0]
	token := uuid.New().String()
	authUser := auth.NewDefaultUser(username, employee.ID.Hex(), nil, nil)
	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	auth.Append(tokenStrategy, token, authUser, r)

	refresh, err := signRefreshToken(employee.ID.Hex(), username)
	if err != nil {
		http.Error(w, "failed to sign refresh token", http.StatusInternalServerError)
		return
	}

	responseBody, err := json.Marshal(models.TokenResponse{
		Token:        token,
		RefreshToken: refresh,
		EmployeeID:   employee.ID.Hex(),
	})
	if err != nil {
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	w.Write(responseBody)
}

// RefreshToken exchanges a valid refresh token for a fresh bearer token
func (m MiddlewareDB) RefreshToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "failed to decode request body", http.StatusBadRequest)
		return
	}

	parsed, err := jwt.Parse(body.RefreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(os.Getenv("SECRET_KEY")), nil
	})
	if err != nil || !parsed.Valid {
		http.Error(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		http.Error(w, "invalid refresh token claims", http.StatusUnauthorized)
		return
	}
	employeeID, _ := claims.GetSubject()
	username, _ := claims["username"].(string)

	token := uuid.New().String()
	authUser := auth.NewDefaultUser(username, employeeID, nil, nil)
	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	auth.Append(tokenStrategy, token, authUser, r)

	responseBody, err := json.Marshal(models.TokenResponse{
		Token:      token,
		EmployeeID: employeeID,
	})
	if err != nil {
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	w.Write(responseBody)
}

// SetupGoGuardian sets up the go-guardian middleware
func (m MiddlewareDB) SetupGoGuardian() {
	authenticator = auth.New()
	tokenCache = store.NewFIFO(context.Background(), 24*time.Hour)
	basicStrategy := basic.New(m.ValidateUser, tokenCache)
	tokenStrategy := bearer.New(bearer.NoOpAuthenticate, tokenCache)

	authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// ValidateUser validates an employee's basic auth credentials
func (m MiddlewareDB) ValidateUser(ctx context.Context, r *http.Request, username, password string) (auth.Info, error) {
	usernameHash := sha256.Sum256([]byte(username))

	dbResp, err := m.DB.Find(context.Background(), bson.M{"username": username})
	if err != nil {
		return nil, fmt.Errorf("failed to get employee by username")
	}
	if len(dbResp) == 0 {
		return nil, fmt.Errorf("no matching username found")
	}
	if !dbResp[0].Active {
		return nil, fmt.Errorf("employee is deactivated")
	}

	expectedUsernameHash := sha256.Sum256([]byte(dbResp[0].Username))
	usernameMatch := subtle.ConstantTimeCompare(usernameHash[:], expectedUsernameHash[:]) == 1

	err = bcrypt.CompareHashAndPassword([]byte(dbResp[0].PasswordHash), []byte(password))
	if err != nil {
		return nil, fmt.Errorf("failed to compare password")
	}

	if usernameMatch {
		return auth.NewDefaultUser(username, dbResp[0].ID.Hex(), nil, nil), nil
	}
	return nil, fmt.Errorf("invalid credentials")
}

// UsernameFromRequest resolves the authenticated username for audit fields.
// The bearer token is cached so this is a second cheap lookup, not a second
// credential check. Unauthenticated requests resolve to "system".
func UsernameFromRequest(r *http.Request) string {
	if authenticator == nil {
		return "system"
	}
	user, err := authenticator.Authenticate(r)
	if err != nil {
		return "system"
	}
	return user.UserName()
}

// RevokeToken revokes a token
func RevokeToken(w http.ResponseWriter, r *http.Request) {
	reqToken := r.Header.Get("Authorization")
	splitToken := strings.Split(reqToken, "Bearer ")
	if len(splitToken) < 2 {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "missing bearer token"}`))
		return
	}
	reqToken = splitToken[1]

	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	auth.Revoke(tokenStrategy, reqToken, r)
	body := fmt.Sprintf(`{"revoked token": "%s"}`, reqToken)
	w.Write([]byte(body))
}

func signRefreshToken(employeeID, username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      employeeID,
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(refreshTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("SECRET_KEY")))
}
