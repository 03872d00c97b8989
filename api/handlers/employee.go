package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsdeck/field-ops-api/cache"
	"github.com/opsdeck/field-ops-api/config"
	"github.com/opsdeck/field-ops-api/databases"
	"github.com/opsdeck/field-ops-api/models"
)

// Page holds the current page number for paginated list endpoints
var Page = 0

// Employee exported for testing purposes
type Employee struct {
	DB    databases.EmployeeDatabase
	Cache *cache.Cache
}

// RegisterEmployeeHandler creates a new employee with a hashed password
func (e Employee) RegisterEmployeeHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		config.ErrorStatus("failed to validate request body", http.StatusBadRequest, w, err)
		return
	}

	// duplicate usernames are rejected with a pre-write check; there is no
	// unique index behind this, concurrent registrations can race
	count, err := e.DB.CountDocuments(context.Background(), bson.M{"username": req.Username})
	if err != nil {
		config.ErrorStatus("failed to check username", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("username already taken", http.StatusConflict, w, fmt.Errorf("duplicate username: %s", req.Username))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	employee := models.Employee{
		ID:            primitive.NewObjectID(),
		Username:      req.Username,
		PasswordHash:  string(hash),
		FullName:      req.FullName,
		Email:         req.Email,
		Role:          req.Role,
		DepartmentID:  req.DepartmentID,
		Active:        true,
		MissionStatus: models.EmployeeAvailable,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err = e.DB.InsertOne(context.Background(), employee)
	if err != nil {
		config.ErrorStatus("failed to create employee", http.StatusInternalServerError, w, err)
		return
	}
	e.Cache.Invalidate("employees")

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Employee registered successfully",
		"id":      employee.ID.Hex(),
	})
}

// CheckUsernameHandler reports whether a username is still available
func (e Employee) CheckUsernameHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	count, err := e.DB.CountDocuments(context.Background(), bson.M{"username": req.Username})
	if err != nil {
		config.ErrorStatus("failed to check username", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"available": count == 0,
	})
}

// EmployeeHandler returns all employees
func (e Employee) EmployeeHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)

	cacheKey := fmt.Sprintf("employees:list:%d:%d", Limit, Page)
	if cached, ok := e.Cache.Get(cacheKey); ok {
		b, err := json.Marshal(cached)
		if err == nil {
			w.WriteHeader(http.StatusOK)
			w.Write(b)
			return
		}
	}

	dbResp, err := e.DB.Find(context.TODO(), bson.D{}, &options.FindOptions{Limit: &limit64, Skip: &skip64})
	if err != nil {
		config.ErrorStatus("failed to get employees", http.StatusNotFound, w, err)
		return
	}
	// Because the frontend requires that the data elements inside models.Employees exist, if
	// len == 0 then we will just return an empty data object
	if len(dbResp) == 0 {
		dbResp = []models.Employee{}
	}
	e.Cache.Set(cacheKey, dbResp, cache.DefaultTTL)

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// EmployeeByIDHandler returns an employee by ID
func (e Employee) EmployeeByIDHandler(w http.ResponseWriter, r *http.Request) {
	empID := mux.Vars(r)["employee_id"]

	zap.S().Debugf("employee_id: %v", empID)

	eID, err := primitive.ObjectIDFromHex(empID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	cacheKey := fmt.Sprintf("employees:id:%s", empID)
	if cached, ok := e.Cache.Get(cacheKey); ok {
		b, err := json.Marshal(cached)
		if err == nil {
			w.WriteHeader(http.StatusOK)
			w.Write(b)
			return
		}
	}

	dbResp, err := e.DB.FindOne(context.Background(), bson.M{"_id": eID})
	if err != nil {
		config.ErrorStatus("failed to get employee by ID", http.StatusNotFound, w, err)
		return
	}
	e.Cache.Set(cacheKey, dbResp, cache.DefaultTTL)

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// EmployeesByDepartmentIDHandler returns all employees in the given department
func (e Employee) EmployeesByDepartmentIDHandler(w http.ResponseWriter, r *http.Request) {
	departmentID := mux.Vars(r)["department_id"]

	zap.S().Debugf("department_id: '%v'", departmentID)

	dbResp, err := e.DB.Find(context.TODO(), bson.M{"departmentID": departmentID})
	if err != nil {
		config.ErrorStatus("failed to get employees by department id", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Employee{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateEmployeeHandler updates an employee's profile fields
func (e Employee) UpdateEmployeeHandler(w http.ResponseWriter, r *http.Request) {
	empID := mux.Vars(r)["employee_id"]

	eID, err := primitive.ObjectIDFromHex(empID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		FullName     string `json:"fullName"`
		Email        string `json:"email"`
		Role         string `json:"role"`
		DepartmentID string `json:"departmentID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"updatedAt": primitive.NewDateTimeFromTime(time.Now())}
	if req.FullName != "" {
		set["fullName"] = req.FullName
	}
	if req.Email != "" {
		set["email"] = req.Email
	}
	if req.Role != "" {
		set["role"] = req.Role
	}
	if req.DepartmentID != "" {
		set["departmentID"] = req.DepartmentID
	}

	err = e.DB.UpdateOne(context.Background(), bson.M{"_id": eID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update employee", http.StatusInternalServerError, w, err)
		return
	}
	e.Cache.Invalidate("employees")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Employee updated successfully",
	})
}

// DeactivateEmployeeHandler flips the active flag instead of hard deleting,
// mission history keeps referencing the employee id
func (e Employee) DeactivateEmployeeHandler(w http.ResponseWriter, r *http.Request) {
	empID := mux.Vars(r)["employee_id"]

	eID, err := primitive.ObjectIDFromHex(empID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	err = e.DB.UpdateOne(context.Background(), bson.M{"_id": eID}, bson.M{"$set": bson.M{
		"active":    false,
		"updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}})
	if err != nil {
		config.ErrorStatus("failed to deactivate employee", http.StatusInternalServerError, w, err)
		return
	}
	e.Cache.Invalidate("employees")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Employee deactivated successfully",
	})
}

func getPage(Page int, r *http.Request) int {
	if r.URL.Query().Get("page") == "" {
		zap.S().Warnf("page not set, using default of %v", Page)
	} else {
		var err error
		Page, err = strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			zap.S().Errorf(fmt.Sprintf("error parsing page number: %v", err))
		}
		if Page < 0 {
			zap.S().Warnf(fmt.Sprintf("cannot process page number less than 1. Got: %v", Page))
			return 0
		}
	}
	return Page
}
