package handlers

import (
	"context"
	"encoding/json"
	"errors"
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

// Tool exported for testing purposes
type Tool struct {
	DB    databases.ToolDatabase
	Cache *cache.Cache
}

// ToolHandler returns all tools
func (t Tool) ToolHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)

	cacheKey := fmt.Sprintf("tools:list:%d:%d", Limit, Page)
	if cached, ok := t.Cache.Get(cacheKey); ok {
		b, err := json.Marshal(cached)
		if err == nil {
			w.WriteHeader(http.StatusOK)
			w.Write(b)
			return
		}
	}

	dbResp, err := t.DB.Find(context.TODO(), bson.D{}, &options.FindOptions{Limit: &limit64, Skip: &skip64})
	if err != nil {
		config.ErrorStatus("failed to get tools", http.StatusNotFound, w, err)
		return
	}
	// Because the frontend requires that the data elements inside models.Tools exist, if
	// len == 0 then we will just return an empty data object
	if len(dbResp) == 0 {
		dbResp = []models.Tool{}
	}
	t.Cache.Set(cacheKey, dbResp, cache.DefaultTTL)

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ToolByIDHandler returns a tool by ID
func (t Tool) ToolByIDHandler(w http.ResponseWriter, r *http.Request) {
	toolID := mux.Vars(r)["tool_id"]

	zap.S().Debugf("tool_id: %v", toolID)

	tID, err := primitive.ObjectIDFromHex(toolID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := t.DB.FindOne(context.Background(), bson.M{"_id": tID})
	if err != nil {
		config.ErrorStatus("failed to get tool by ID", http.StatusNotFound, w, err)
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

// CreateToolHandler creates a tool with the full quantity available
func (t Tool) CreateToolHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		config.ErrorStatus("failed to validate request body", http.StatusBadRequest, w, err)
		return
	}

	count, err := t.DB.CountDocuments(context.Background(), bson.M{"serialNumber": req.SerialNumber})
	if err != nil {
		config.ErrorStatus("failed to check serial number", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("serial number already registered", http.StatusConflict, w, fmt.Errorf("duplicate serial number: %s", req.SerialNumber))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	tool := models.Tool{
		ID:                primitive.NewObjectID(),
		SerialNumber:      req.SerialNumber,
		Name:              req.Name,
		TotalQuantity:     req.TotalQuantity,
		AvailableQuantity: req.TotalQuantity,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	_, err = t.DB.InsertOne(context.Background(), tool)
	if err != nil {
		config.ErrorStatus("failed to create tool", http.StatusInternalServerError, w, err)
		return
	}
	t.Cache.Invalidate("tools")

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Tool created successfully",
		"id":      tool.ID.Hex(),
	})
}

// AdjustToolHandler moves stock in or out of the available pool. Assigning
// more than is available returns a 409 and leaves the tool untouched.
func (t Tool) AdjustToolHandler(w http.ResponseWriter, r *http.Request) {
	toolID := mux.Vars(r)["tool_id"]

	var req models.AdjustToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		config.ErrorStatus("failed to validate request body", http.StatusBadRequest, w, err)
		return
	}

	tool, err := t.DB.AdjustQuantity(context.Background(), toolID, req.Quantity, models.AdjustDirection(req.Direction))
	if err != nil {
		if errors.Is(err, models.ErrInsufficientQuantity) {
			config.ErrorStatus("insufficient available quantity", http.StatusConflict, w, err)
			return
		}
		config.ErrorStatus("failed to adjust tool quantity", http.StatusInternalServerError, w, err)
		return
	}
	t.Cache.Invalidate("tools")

	b, err := json.Marshal(tool)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateToolHandler updates a tool's details
func (t Tool) UpdateToolHandler(w http.ResponseWriter, r *http.Request) {
	toolID := mux.Vars(r)["tool_id"]

	tID, err := primitive.ObjectIDFromHex(toolID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		Name          string `json:"name"`
		TotalQuantity *int   `json:"totalQuantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"updatedAt": primitive.NewDateTimeFromTime(time.Now())}
	if req.Name != "" {
		set["name"] = req.Name
	}
	if req.TotalQuantity != nil {
		if *req.TotalQuantity < 0 {
			config.ErrorStatus("total quantity cannot be negative", http.StatusBadRequest, w, fmt.Errorf("got: %d", *req.TotalQuantity))
			return
		}
		// shrinking total below what is already out in the field would break
		// the 0 <= available <= total invariant
		tool, err := t.DB.FindOne(context.Background(), bson.M{"_id": tID})
		if err != nil {
			config.ErrorStatus("failed to get tool by ID", http.StatusNotFound, w, err)
			return
		}
		if *req.TotalQuantity < tool.AvailableQuantity {
			config.ErrorStatus("total quantity cannot drop below available quantity", http.StatusConflict, w, fmt.Errorf("available: %d, requested total: %d", tool.AvailableQuantity, *req.TotalQuantity))
			return
		}
		set["totalQuantity"] = *req.TotalQuantity
	}

	err = t.DB.UpdateOne(context.Background(), bson.M{"_id": tID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update tool", http.StatusInternalServerError, w, err)
		return
	}
	t.Cache.Invalidate("tools")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Tool updated successfully",
	})
}

// DeleteToolHandler deletes a tool by ID
func (t Tool) DeleteToolHandler(w http.ResponseWriter, r *http.Request) {
	toolID := mux.Vars(r)["tool_id"]

	tID, err := primitive.ObjectIDFromHex(toolID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	err = t.DB.DeleteOne(context.Background(), bson.M{"_id": tID})
	if err != nil {
		config.ErrorStatus("failed to delete tool", http.StatusInternalServerError, w, err)
		return
	}
	t.Cache.Invalidate("tools")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Tool deleted successfully",
	})
}
