package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/opsdeck/field-ops-api/api"
	"github.com/opsdeck/field-ops-api/cache"
	"github.com/opsdeck/field-ops-api/config"
	"github.com/opsdeck/field-ops-api/databases"
	"github.com/opsdeck/field-ops-api/models"
)

// Mission exported for testing purposes
type Mission struct {
	DB    databases.MissionDatabase
	EDB   databases.EmployeeDatabase
	VDB   databases.VehicleDatabase
	TDB   databases.ToolDatabase
	TADB  databases.ToolAssignmentDatabase
	VADB  databases.VehicleAssignmentDatabase
	LDB   databases.ActivityLogDatabase
	Cache *cache.Cache
	Hub   *api.EventHub

	// ReleaseOnCancel makes a CANCELLED mission release its resources the
	// same way COMPLETED does. Off by default, cancelled missions keep
	// their holds until someone releases them by hand.
	ReleaseOnCancel bool
}

// CreateMissionHandler creates a mission and fans the assignment out to every
// resource it references: each team member goes IN_MISSION, the vehicle goes
// IN_USE with a durable assignment record, and one unit of every required
// tool is taken from the pool.
//
// The fan-out is sequential with no rollback. A failure partway leaves the
// earlier writes in place and surfaces the error, the same way a crash
// partway would.
func (m Mission) CreateMissionHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		config.ErrorStatus("failed to validate request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	status := req.Status
	if status == "" {
		status = models.MissionPending
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	mission := models.Mission{
		ID:               primitive.NewObjectID(),
		Title:            req.Title,
		Details:          req.Details,
		Status:           status,
		AssignedTeam:     req.AssignedTeam,
		AssignedPersonID: req.AssignedPersonID,
		TeamLeaderID:     req.TeamLeaderID,
		VehicleID:        req.VehicleID,
		RequiredTools:    req.RequiredTools,
		Notes:            []models.MissionNote{},
		Attachments:      []string{},
		CreatedByID:      api.UsernameFromRequest(r),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.DueAt != "" {
		ts, err := time.Parse(time.RFC3339, req.DueAt)
		if err != nil {
			config.ErrorStatus("failed to parse dueAt", http.StatusBadRequest, w, err)
			return
		}
		dt := primitive.NewDateTimeFromTime(ts)
		mission.DueAt = &dt
	}

	_, err := m.DB.InsertOne(ctx, mission)
	if err != nil {
		config.ErrorStatus("failed to create mission", http.StatusInternalServerError, w, err)
		return
	}

	missionID := mission.ID.Hex()

	// every unique team member goes in-mission, the legacy singular
	// assignee and the team leader included
	for _, employeeID := range mission.TeamSet() {
		if err := m.EDB.SetMissionStatus(ctx, employeeID, models.EmployeeInMission); err != nil {
			zap.S().Errorw("failed to set employee mission status",
				"missionID", missionID, "employeeID", employeeID, "error", err)
			config.ErrorStatus("failed to assign employee", http.StatusInternalServerError, w, err)
			return
		}
	}

	if mission.VehicleID != "" {
		if err := m.VDB.SetStatus(ctx, mission.VehicleID, models.VehicleInUse, nil); err != nil {
			zap.S().Errorw("failed to set vehicle status",
				"missionID", missionID, "vehicleID", mission.VehicleID, "error", err)
			config.ErrorStatus("failed to assign vehicle", http.StatusInternalServerError, w, err)
			return
		}
		_, err = m.VADB.InsertOne(ctx, models.VehicleAssignment{
			ID:         primitive.NewObjectID(),
			MissionID:  missionID,
			VehicleID:  mission.VehicleID,
			Status:     models.AssignmentAssigned,
			AssignedAt: now,
		})
		if err != nil {
			config.ErrorStatus("failed to record vehicle assignment", http.StatusInternalServerError, w, err)
			return
		}
	}

	// one unit per required tool
	for _, toolID := range mission.RequiredTools {
		_, err := m.TDB.AdjustQuantity(ctx, toolID, 1, models.DirectionAssign)
		if err != nil {
			if errors.Is(err, models.ErrInsufficientQuantity) {
				config.ErrorStatus("insufficient tool quantity", http.StatusConflict, w,
					fmt.Errorf("tool %s: %w", toolID, err))
				return
			}
			config.ErrorStatus("failed to assign tool", http.StatusInternalServerError, w, err)
			return
		}
		_, err = m.TADB.InsertOne(ctx, models.ToolAssignment{
			ID:         primitive.NewObjectID(),
			MissionID:  missionID,
			ToolID:     toolID,
			Quantity:   1,
			Status:     models.AssignmentAssigned,
			AssignedAt: now,
		})
		if err != nil {
			config.ErrorStatus("failed to record tool assignment", http.StatusInternalServerError, w, err)
			return
		}
	}

	if err := m.LDB.Append(ctx, models.ActivityMissionCreated, map[string]interface{}{
		"missionID": missionID,
		"title":     mission.Title,
		"status":    mission.Status,
	}, mission.CreatedByID); err != nil {
		zap.S().Errorw("failed to append activity log", "missionID", missionID, "error", err)
	}

	m.Cache.Invalidate("missions")
	m.Cache.Invalidate("dashboard")
	broadcast(m.Hub, "mission_created", missionID, mission.Status)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Mission created successfully",
		"id":      missionID,
	})
}

// MissionHandler returns all missions, optionally filtered by status
func (m Mission) MissionHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)

	filter := bson.M{}
	status := r.URL.Query().Get("status")
	if status != "" {
		filter["status"] = status
	}

	cacheKey := fmt.Sprintf("missions:list:%s:%d:%d", status, Limit, Page)
	if cached, ok := m.Cache.Get(cacheKey); ok {
		b, err := json.Marshal(cached)
		if err == nil {
			w.WriteHeader(http.StatusOK)
			w.Write(b)
			return
		}
	}

	dbResp, err := m.DB.Find(context.TODO(), filter, &options.FindOptions{Limit: &limit64, Skip: &skip64})
	if err != nil {
		config.ErrorStatus("failed to get missions", http.StatusNotFound, w, err)
		return
	}
	// Because the frontend requires that the data elements inside models.Missions exist, if
	// len == 0 then we will just return an empty data object
	if len(dbResp) == 0 {
		dbResp = []models.Mission{}
	}
	m.Cache.Set(cacheKey, dbResp, cache.DefaultTTL)

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MissionByIDHandler returns a mission by ID
func (m Mission) MissionByIDHandler(w http.ResponseWriter, r *http.Request) {
	missionID := mux.Vars(r)["mission_id"]

	zap.S().Debugf("mission_id: %v", missionID)

	mID, err := primitive.ObjectIDFromHex(missionID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := m.DB.FindOne(context.Background(), bson.M{"_id": mID})
	if err != nil {
		config.ErrorStatus("failed to get mission by ID", http.StatusNotFound, w, err)
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

// MissionsByEmployeeIDHandler returns every mission the employee appears on,
// whether through the team list, the legacy singular assignee field or as
// team leader
func (m Mission) MissionsByEmployeeIDHandler(w http.ResponseWriter, r *http.Request) {
	employeeID := mux.Vars(r)["employee_id"]

	zap.S().Debugf("employee_id: '%v'", employeeID)

	dbResp, err := m.DB.Find(context.TODO(), bson.M{"$or": []bson.M{
		{"assignedTeam": employeeID},
		{"assignedPersonID": employeeID},
		{"teamLeaderID": employeeID},
	}})
	if err != nil {
		config.ErrorStatus("failed to get missions by employee id", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Mission{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateMissionStatusHandler transitions a mission's status. Terminal
// missions reject any further transition with a 409. Completing a mission
// releases everything it holds; cancelling does the same only when the
// service runs with RELEASE_ON_CANCEL.
func (m Mission) UpdateMissionStatusHandler(w http.ResponseWriter, r *http.Request) {
	missionID := mux.Vars(r)["mission_id"]

	var req models.MissionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		config.ErrorStatus("failed to validate request body", http.StatusBadRequest, w, err)
		return
	}

	mID, err := primitive.ObjectIDFromHex(missionID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	mission, err := m.DB.FindOne(ctx, bson.M{"_id": mID})
	if err != nil {
		config.ErrorStatus("failed to get mission by ID", http.StatusNotFound, w, err)
		return
	}
	if mission.Terminal() {
		config.ErrorStatus("mission is already terminal", http.StatusConflict, w,
			fmt.Errorf("%w: %s", models.ErrTerminalMission, mission.Status))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	set := bson.M{
		"status":    req.Status,
		"updatedAt": now,
	}
	if req.Status == models.MissionCompleted {
		set["completedAt"] = now
	}

	update := bson.M{"$set": set}
	if req.Notes != "" {
		update["$push"] = bson.M{"notes": models.MissionNote{
			ID:        uuid.New().String(),
			Note:      req.Notes,
			CreatedBy: api.UsernameFromRequest(r),
			CreatedAt: now,
		}}
	}

	updated, err := m.DB.UpdateOne(ctx, bson.M{"_id": mID}, update)
	if err != nil {
		config.ErrorStatus("failed to update mission status", http.StatusInternalServerError, w, err)
		return
	}

	if req.Status == models.MissionCompleted || (req.Status == models.MissionCancelled && m.ReleaseOnCancel) {
		m.releaseMissionResources(ctx, updated)
	}

	if err := m.LDB.Append(ctx, models.ActivityMissionStatusUpdated, map[string]interface{}{
		"missionID": missionID,
		"from":      mission.Status,
		"to":        req.Status,
	}, api.UsernameFromRequest(r)); err != nil {
		zap.S().Errorw("failed to append activity log", "missionID", missionID, "error", err)
	}

	m.Cache.Invalidate("missions")
	m.Cache.Invalidate("dashboard")
	broadcast(m.Hub, "mission_status_updated", missionID, req.Status)

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// releaseMissionResources puts everything a mission holds back into the
// pool: the team goes AVAILABLE, the vehicle (both the direct reference and
// anything in the assignment records) goes AVAILABLE, and tool holds are
// returned with the available quantity clamped at the total.
//
// Each release is independent. A failure on one resource is logged and the
// rest still go through, so a dead employee record cannot strand a vehicle.
func (m Mission) releaseMissionResources(ctx context.Context, mission *models.Mission) {
	missionID := mission.ID.Hex()
	now := primitive.NewDateTimeFromTime(time.Now())

	for _, employeeID := range mission.TeamSet() {
		if err := m.EDB.SetMissionStatus(ctx, employeeID, models.EmployeeAvailable); err != nil {
			zap.S().Errorw("failed to release employee",
				"missionID", missionID, "employeeID", employeeID, "error", err)
		}
	}

	// release the vehicle referenced on the mission document itself, then
	// sweep the assignment records; old documents can disagree with them
	released := make(map[string]struct{})
	if mission.VehicleID != "" {
		if err := m.VDB.SetStatus(ctx, mission.VehicleID, models.VehicleAvailable, nil); err != nil {
			zap.S().Errorw("failed to release vehicle",
				"missionID", missionID, "vehicleID", mission.VehicleID, "error", err)
		} else {
			released[mission.VehicleID] = struct{}{}
		}
	}

	vehicleAssignments, err := m.VADB.Find(ctx, bson.M{"missionID": missionID, "status": models.AssignmentAssigned})
	if err != nil {
		zap.S().Errorw("failed to find vehicle assignments", "missionID", missionID, "error", err)
	}
	for _, va := range vehicleAssignments {
		if _, ok := released[va.VehicleID]; ok {
			continue
		}
		if err := m.VDB.SetStatus(ctx, va.VehicleID, models.VehicleAvailable, nil); err != nil {
			zap.S().Errorw("failed to release vehicle",
				"missionID", missionID, "vehicleID", va.VehicleID, "error", err)
		}
	}
	if _, err := m.VADB.UpdateMany(ctx,
		bson.M{"missionID": missionID, "status": models.AssignmentAssigned},
		bson.M{"$set": bson.M{"status": models.AssignmentReleased, "releasedAt": now}},
	); err != nil {
		zap.S().Errorw("failed to close vehicle assignments", "missionID", missionID, "error", err)
	}

	toolAssignments, err := m.TADB.Find(ctx, bson.M{"missionID": missionID, "status": models.AssignmentAssigned})
	if err != nil {
		zap.S().Errorw("failed to find tool assignments", "missionID", missionID, "error", err)
	}
	for _, ta := range toolAssignments {
		if _, err := m.TDB.AdjustQuantity(ctx, ta.ToolID, ta.Quantity, models.DirectionReturn); err != nil {
			zap.S().Errorw("failed to return tool",
				"missionID", missionID, "toolID", ta.ToolID, "error", err)
		}
	}
	if _, err := m.TADB.UpdateMany(ctx,
		bson.M{"missionID": missionID, "status": models.AssignmentAssigned},
		bson.M{"$set": bson.M{"status": models.AssignmentReturned, "returnedAt": now}},
	); err != nil {
		zap.S().Errorw("failed to close tool assignments", "missionID", missionID, "error", err)
	}

	m.Cache.Invalidate("vehicles")
	m.Cache.Invalidate("tools")
	m.Cache.Invalidate("employees")
}

// MissionAssignmentsHandler returns the tool and vehicle assignment records
// for a mission
func (m Mission) MissionAssignmentsHandler(w http.ResponseWriter, r *http.Request) {
	missionID := mux.Vars(r)["mission_id"]

	toolAssignments, err := m.TADB.Find(context.TODO(), bson.M{"missionID": missionID})
	if err != nil {
		config.ErrorStatus("failed to get tool assignments", http.StatusNotFound, w, err)
		return
	}
	vehicleAssignments, err := m.VADB.Find(context.TODO(), bson.M{"missionID": missionID})
	if err != nil {
		config.ErrorStatus("failed to get vehicle assignments", http.StatusNotFound, w, err)
		return
	}

	if len(toolAssignments) == 0 {
		toolAssignments = []models.ToolAssignment{}
	}
	if len(vehicleAssignments) == 0 {
		vehicleAssignments = []models.VehicleAssignment{}
	}

	b, err := json.Marshal(map[string]interface{}{
		"toolAssignments":    toolAssignments,
		"vehicleAssignments": vehicleAssignments,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AddMissionNoteHandler appends a note to a mission
func (m Mission) AddMissionNoteHandler(w http.ResponseWriter, r *http.Request) {
	missionID := mux.Vars(r)["mission_id"]

	mID, err := primitive.ObjectIDFromHex(missionID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Note == "" {
		config.ErrorStatus("note cannot be empty", http.StatusBadRequest, w, fmt.Errorf("empty note"))
		return
	}

	note := models.MissionNote{
		ID:        uuid.New().String(),
		Note:      req.Note,
		CreatedBy: api.UsernameFromRequest(r),
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}

	_, err = m.DB.UpdateOne(context.Background(), bson.M{"_id": mID}, bson.M{"$push": bson.M{"notes": note}})
	if err != nil {
		config.ErrorStatus("failed to add mission note", http.StatusInternalServerError, w, err)
		return
	}
	m.Cache.Invalidate("missions")

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Note added successfully",
		"id":      note.ID,
	})
}

// EditMissionNoteHandler updates the text of an existing note
func (m Mission) EditMissionNoteHandler(w http.ResponseWriter, r *http.Request) {
	missionID := mux.Vars(r)["mission_id"]
	noteID := mux.Vars(r)["note_id"]

	mID, err := primitive.ObjectIDFromHex(missionID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Note == "" {
		config.ErrorStatus("note cannot be empty", http.StatusBadRequest, w, fmt.Errorf("empty note"))
		return
	}

	_, err = m.DB.UpdateOne(context.Background(),
		bson.M{"_id": mID, "notes._id": noteID},
		bson.M{"$set": bson.M{
			"notes.$.note":      req.Note,
			"notes.$.updatedBy": api.UsernameFromRequest(r),
			"notes.$.updatedAt": primitive.NewDateTimeFromTime(time.Now()),
		}})
	if err != nil {
		config.ErrorStatus("failed to edit mission note", http.StatusInternalServerError, w, err)
		return
	}
	m.Cache.Invalidate("missions")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Note updated successfully",
	})
}

// DeleteMissionNoteHandler removes a note from a mission
func (m Mission) DeleteMissionNoteHandler(w http.ResponseWriter, r *http.Request) {
	missionID := mux.Vars(r)["mission_id"]
	noteID := mux.Vars(r)["note_id"]

	mID, err := primitive.ObjectIDFromHex(missionID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	_, err = m.DB.UpdateOne(context.Background(),
		bson.M{"_id": mID},
		bson.M{"$pull": bson.M{"notes": bson.M{"_id": noteID}}})
	if err != nil {
		config.ErrorStatus("failed to delete mission note", http.StatusInternalServerError, w, err)
		return
	}
	m.Cache.Invalidate("missions")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Note deleted successfully",
	})
}
