package handlers

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/opsdeck/field-ops-api/api"
	"github.com/opsdeck/field-ops-api/cache"
	"github.com/opsdeck/field-ops-api/config"
	"github.com/opsdeck/field-ops-api/databases"
	"github.com/opsdeck/field-ops-api/models"
)

// Dashboard exported for testing purposes
type Dashboard struct {
	EDB   databases.EmployeeDatabase
	VDB   databases.VehicleDatabase
	TDB   databases.ToolDatabase
	MDB   databases.MissionDatabase
	Cache *cache.Cache
}

// StatsHandler returns aggregate counts across the collections. The result
// is cached with a short TTL, the dashboard polls this endpoint.
func (d Dashboard) StatsHandler(w http.ResponseWriter, r *http.Request) {
	cacheKey := "dashboard:stats"
	if cached, ok := d.Cache.Get(cacheKey); ok {
		b, err := json.Marshal(cached)
		if err == nil {
			w.WriteHeader(http.StatusOK)
			w.Write(b)
			return
		}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	stats := models.DashboardStats{
		MissionsByStatus: make(map[string]int64),
		VehiclesByStatus: make(map[string]int64),
	}

	var err error
	stats.ActiveEmployees, err = d.EDB.CountDocuments(ctx, bson.M{"active": true})
	if err != nil {
		config.ErrorStatus("failed to count employees", http.StatusInternalServerError, w, err)
		return
	}
	stats.EmployeesInMission, err = d.EDB.CountDocuments(ctx, bson.M{"missionStatus": models.EmployeeInMission})
	if err != nil {
		config.ErrorStatus("failed to count employees in mission", http.StatusInternalServerError, w, err)
		return
	}
	stats.ToolsTracked, err = d.TDB.CountDocuments(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to count tools", http.StatusInternalServerError, w, err)
		return
	}

	for _, status := range []string{models.MissionPending, models.MissionInProgress, models.MissionCompleted, models.MissionCancelled} {
		count, err := d.MDB.CountDocuments(ctx, bson.M{"status": status})
		if err != nil {
			zap.S().Errorw("failed to count missions", "status", status, "error", err)
			continue
		}
		stats.MissionsByStatus[status] = count
	}
	for _, status := range []string{models.VehicleAvailable, models.VehicleInUse, models.VehicleMaintenance} {
		count, err := d.VDB.CountDocuments(ctx, bson.M{"status": status})
		if err != nil {
			zap.S().Errorw("failed to count vehicles", "status", status, "error", err)
			continue
		}
		stats.VehiclesByStatus[status] = count
	}

	d.Cache.Set(cacheKey, stats, cache.DashboardTTL)

	b, err := json.Marshal(stats)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
