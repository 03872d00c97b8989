package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/opsdeck/field-ops-api/config"
	"github.com/opsdeck/field-ops-api/databases"
	"github.com/opsdeck/field-ops-api/models"
)

// Activity exported for testing purposes
type Activity struct {
	DB databases.ActivityLogDatabase
}

// ActivityHandler returns the activity log, newest first, optionally
// filtered by user id and activity type
func (a Activity) ActivityHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	Page = getPage(Page, r)

	filter := bson.M{}
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		filter["userID"] = userID
	}
	if activityType := r.URL.Query().Get("type"); activityType != "" {
		filter["activityType"] = activityType
	}

	dbResp, err := a.DB.FindPaginated(context.TODO(), filter, Limit, Page)
	if err != nil {
		config.ErrorStatus("failed to get activity log", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.ActivityLog{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
