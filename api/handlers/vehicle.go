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

	"github.com/opsdeck/field-ops-api/cache"
	"github.com/opsdeck/field-ops-api/config"
	"github.com/opsdeck/field-ops-api/databases"
	"github.com/opsdeck/field-ops-api/models"
)

// Vehicle exported for testing purposes
type Vehicle struct {
	DB    databases.VehicleDatabase
	Cache *cache.Cache
}

// VehicleHandler returns all vehicles
func (v Vehicle) VehicleHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)

	cacheKey := fmt.Sprintf("vehicles:list:%d:%d", Limit, Page)
	if cached, ok := v.Cache.Get(cacheKey); ok {
		b, err := json.Marshal(cached)
		if err == nil {
			w.WriteHeader(http.StatusOK)
			w.Write(b)
			return
		}
	}

	dbResp, err := v.DB.Find(context.TODO(), bson.D{}, &options.FindOptions{Limit: &limit64, Skip: &skip64})
	if err != nil {
		config.ErrorStatus("failed to get vehicles", http.StatusNotFound, w, err)
		return
	}
	// Because the frontend requires that the data elements inside models.Vehicles exist, if
	// len == 0 then we will just return an empty data object
	if len(dbResp) == 0 {
		dbResp = []models.Vehicle{}
	}
	v.Cache.Set(cacheKey, dbResp, cache.DefaultTTL)

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// VehicleByIDHandler returns a vehicle by ID
func (v Vehicle) VehicleByIDHandler(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]

	zap.S().Debugf("vehicle_id: %v", vehicleID)

	vID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := v.DB.FindOne(context.Background(), bson.M{"_id": vID})
	if err != nil {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// VehiclesByStatusHandler returns all vehicles with the given status
func (v Vehicle) VehiclesByStatusHandler(w http.ResponseWriter, r *http.Request) {
	status := mux.Vars(r)["status"]

	zap.S().Debugf("status: '%v'", status)

	cacheKey := fmt.Sprintf("vehicles:status:%s", status)
	if cached, ok := v.Cache.Get(cacheKey); ok {
		b, err := json.Marshal(cached)
		if err == nil {
			w.WriteHeader(http.StatusOK)
			w.Write(b)
			return
		}
	}

	dbResp, err := v.DB.Find(context.TODO(), bson.M{"status": status})
	if err != nil {
		config.ErrorStatus("failed to get vehicles by status", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Vehicle{}
	}
	v.Cache.Set(cacheKey, dbResp, cache.DefaultTTL)

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// VehiclesByPlateSearchHandler returns vehicles that match the given plate
func (v Vehicle) VehiclesByPlateSearchHandler(w http.ResponseWriter, r *http.Request) {
	plate := r.URL.Query().Get("plate")

	zap.S().Debugf("plate: '%v'", plate)

	dbResp, err := v.DB.Find(context.TODO(), bson.M{"plateNumber": plate})
	if err != nil {
		config.ErrorStatus("failed to get vehicle plate search", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Vehicle{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateVehicleHandler creates a vehicle
func (v Vehicle) CreateVehicleHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		config.ErrorStatus("failed to validate request body", http.StatusBadRequest, w, err)
		return
	}

	count, err := v.DB.CountDocuments(context.Background(), bson.M{"plateNumber": req.PlateNumber})
	if err != nil {
		config.ErrorStatus("failed to check plate number", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("plate number already registered", http.StatusConflict, w, fmt.Errorf("duplicate plate: %s", req.PlateNumber))
		return
	}

	status := req.Status
	if status == "" {
		status = models.VehicleAvailable
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	vehicle := models.Vehicle{
		ID:          primitive.NewObjectID(),
		PlateNumber: req.PlateNumber,
		Model:       req.Model,
		Status:      status,
		Location:    req.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.NextServiceAt != "" {
		if ts, err := time.Parse(time.RFC3339, req.NextServiceAt); err == nil {
			dt := primitive.NewDateTimeFromTime(ts)
			vehicle.NextServiceAt = &dt
		}
	}

	_, err = v.DB.InsertOne(context.Background(), vehicle)
	if err != nil {
		config.ErrorStatus("failed to create vehicle", http.StatusInternalServerError, w, err)
		return
	}
	v.Cache.Invalidate("vehicles")

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Vehicle created successfully",
		"id":      vehicle.ID.Hex(),
	})
}

// UpdateVehicleStatusHandler transitions a vehicle's status. No legality
// check on the transition itself, the storage layer is a plain setter.
func (v Vehicle) UpdateVehicleStatusHandler(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]

	var req models.VehicleStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		config.ErrorStatus("failed to validate request body", http.StatusBadRequest, w, err)
		return
	}

	err := v.DB.SetStatus(context.Background(), vehicleID, req.Status, req.Location)
	if err != nil {
		config.ErrorStatus("failed to update vehicle status", http.StatusInternalServerError, w, err)
		return
	}
	v.Cache.Invalidate("vehicles")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Vehicle status updated successfully",
	})
}

// UpdateVehicleHandler updates a vehicle's details
func (v Vehicle) UpdateVehicleHandler(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]

	vID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		Model         string           `json:"model"`
		Location      *models.Location `json:"location"`
		NextServiceAt string           `json:"nextServiceAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"updatedAt": primitive.NewDateTimeFromTime(time.Now())}
	if req.Model != "" {
		set["model"] = req.Model
	}
	if req.Location != nil {
		set["location"] = req.Location
	}
	if req.NextServiceAt != "" {
		if ts, err := time.Parse(time.RFC3339, req.NextServiceAt); err == nil {
			set["nextServiceAt"] = primitive.NewDateTimeFromTime(ts)
		}
	}

	err = v.DB.UpdateOne(context.Background(), bson.M{"_id": vID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update vehicle", http.StatusInternalServerError, w, err)
		return
	}
	v.Cache.Invalidate("vehicles")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Vehicle updated successfully",
	})
}

// DeleteVehicleHandler deletes a vehicle by ID
func (v Vehicle) DeleteVehicleHandler(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]

	vID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	err = v.DB.DeleteOne(context.Background(), bson.M{"_id": vID})
	if err != nil {
		config.ErrorStatus("failed to delete vehicle", http.StatusInternalServerError, w, err)
		return
	}
	v.Cache.Invalidate("vehicles")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Vehicle deleted successfully",
	})
}
