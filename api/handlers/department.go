package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/opsdeck/field-ops-api/cache"
	"github.com/opsdeck/field-ops-api/config"
	"github.com/opsdeck/field-ops-api/databases"
	"github.com/opsdeck/field-ops-api/models"
)

// Department exported for testing purposes
type Department struct {
	DB    databases.DepartmentDatabase
	Cache *cache.Cache
}

// DepartmentHandler returns all departments
func (d Department) DepartmentHandler(w http.ResponseWriter, r *http.Request) {
	cacheKey := "departments:list"
	if cached, ok := d.Cache.Get(cacheKey); ok {
		b, err := json.Marshal(cached)
		if err == nil {
			w.WriteHeader(http.StatusOK)
			w.Write(b)
			return
		}
	}

	dbResp, err := d.DB.Find(context.TODO(), bson.D{})
	if err != nil {
		config.ErrorStatus("failed to get departments", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Department{}
	}
	d.Cache.Set(cacheKey, dbResp, cache.DefaultTTL)

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DepartmentByIDHandler returns a department by ID
func (d Department) DepartmentByIDHandler(w http.ResponseWriter, r *http.Request) {
	departmentID := mux.Vars(r)["department_id"]

	dID, err := primitive.ObjectIDFromHex(departmentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := d.DB.FindOne(context.Background(), bson.M{"_id": dID})
	if err != nil {
		config.ErrorStatus("failed to get department by ID", http.StatusNotFound, w, err)
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

// CreateDepartmentHandler creates a department
func (d Department) CreateDepartmentHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		config.ErrorStatus("failed to validate request body", http.StatusBadRequest, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	department := models.Department{
		ID:          primitive.NewObjectID(),
		Name:        req.Name,
		Description: req.Description,
		ManagerID:   req.ManagerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := d.DB.InsertOne(context.Background(), department)
	if err != nil {
		config.ErrorStatus("failed to create department", http.StatusInternalServerError, w, err)
		return
	}
	d.Cache.Invalidate("departments")

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Department created successfully",
		"id":      department.ID.Hex(),
	})
}

// UpdateDepartmentHandler updates a department's details
func (d Department) UpdateDepartmentHandler(w http.ResponseWriter, r *http.Request) {
	departmentID := mux.Vars(r)["department_id"]

	dID, err := primitive.ObjectIDFromHex(departmentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		ManagerID   string `json:"managerID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"updatedAt": primitive.NewDateTimeFromTime(time.Now())}
	if req.Name != "" {
		set["name"] = req.Name
	}
	if req.Description != "" {
		set["description"] = req.Description
	}
	if req.ManagerID != "" {
		set["managerID"] = req.ManagerID
	}

	err = d.DB.UpdateOne(context.Background(), bson.M{"_id": dID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update department", http.StatusInternalServerError, w, err)
		return
	}
	d.Cache.Invalidate("departments")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Department updated successfully",
	})
}

// DeleteDepartmentHandler deletes a department by ID
func (d Department) DeleteDepartmentHandler(w http.ResponseWriter, r *http.Request) {
	departmentID := mux.Vars(r)["department_id"]

	dID, err := primitive.ObjectIDFromHex(departmentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	err = d.DB.DeleteOne(context.Background(), bson.M{"_id": dID})
	if err != nil {
		config.ErrorStatus("failed to delete department", http.StatusInternalServerError, w, err)
		return
	}
	d.Cache.Invalidate("departments")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Department deleted successfully",
	})
}
