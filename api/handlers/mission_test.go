package handlers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/opsdeck/field-ops-api/api/handlers"
	"github.com/opsdeck/field-ops-api/cache"
	"github.com/opsdeck/field-ops-api/databases"
	"github.com/opsdeck/field-ops-api/databases/mocks"
	"github.com/opsdeck/field-ops-api/models"
)

// missionMocks wires one CollectionHelper mock per collection touched by the
// mission lifecycle so tests can assert which resources were written.
type missionMocks struct {
	missions           *mocks.CollectionHelper
	employees          *mocks.CollectionHelper
	vehicles           *mocks.CollectionHelper
	tools              *mocks.CollectionHelper
	toolAssignments    *mocks.CollectionHelper
	vehicleAssignments *mocks.CollectionHelper
	activityLogs       *mocks.CollectionHelper
}

func newMissionHandler(releaseOnCancel bool) (handlers.Mission, *missionMocks) {
	m := &missionMocks{
		missions:           &mocks.CollectionHelper{},
		employees:          &mocks.CollectionHelper{},
		vehicles:           &mocks.CollectionHelper{},
		tools:              &mocks.CollectionHelper{},
		toolAssignments:    &mocks.CollectionHelper{},
		vehicleAssignments: &mocks.CollectionHelper{},
		activityLogs:       &mocks.CollectionHelper{},
	}

	db := &MockDatabaseHelper{}
	db.On("Collection", "missions").Return(m.missions)
	db.On("Collection", "employees").Return(m.employees)
	db.On("Collection", "vehicles").Return(m.vehicles)
	db.On("Collection", "tools").Return(m.tools)
	db.On("Collection", "tool_assignments").Return(m.toolAssignments)
	db.On("Collection", "vehicle_assignments").Return(m.vehicleAssignments)
	db.On("Collection", "activity_logs").Return(m.activityLogs)

	h := handlers.Mission{
		DB:              databases.NewMissionDatabase(db),
		EDB:             databases.NewEmployeeDatabase(db),
		VDB:             databases.NewVehicleDatabase(db),
		TDB:             databases.NewToolDatabase(db),
		TADB:            databases.NewToolAssignmentDatabase(db),
		VADB:            databases.NewVehicleAssignmentDatabase(db),
		LDB:             databases.NewActivityLogDatabase(db),
		Cache:           cache.New(),
		ReleaseOnCancel: releaseOnCancel,
	}
	return h, m
}

const (
	testEmployee1 = "5fc51f58c72ff10004dca001"
	testEmployee2 = "5fc51f58c72ff10004dca002"
	testLeader    = "5fc51f58c72ff10004dca003"
	testVehicle   = "5fc51f58c72ff10004dca010"
	testTool      = "5fc51f58c72ff10004dca020"
	testMission   = "5fc51f58c72ff10004dca030"
)

func TestMission_CreateMissionHandlerFanOut(t *testing.T) {
	h, m := newMissionHandler(false)

	m.missions.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}, nil)
	m.employees.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	m.vehicles.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	m.vehicleAssignments.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}, nil)
	m.toolAssignments.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}, nil)
	m.activityLogs.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}, nil)

	toolResult := &mocks.SingleResultHelper{}
	toolResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Tool)
		(*arg).TotalQuantity = 5
		(*arg).AvailableQuantity = 3
	})
	m.tools.On("FindOne", mock.Anything, mock.Anything).Return(toolResult)
	m.tools.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	// employee2 appears both on the team and as the legacy singular
	// assignee; they should only be assigned once
	body := fmt.Sprintf(`{
		"title": "Transformer inspection",
		"assignedTeam": [%q, %q],
		"assignedPersonID": %q,
		"teamLeaderID": %q,
		"vehicleID": %q,
		"requiredTools": [%q]
	}`, testEmployee1, testEmployee2, testEmployee2, testLeader, testVehicle, testTool)

	req, err := http.NewRequest("POST", "/api/v1/missions", jsonBody(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer abc123")

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(h.CreateMissionHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusCreated {
		t.Errorf("handler returned wrong status code: got %v want %v, body: %s", status, http.StatusCreated, rr.Body.String())
	}

	// three unique people despite four references in the payload
	m.employees.AssertNumberOfCalls(t, "UpdateOne", 3)
	m.vehicles.AssertNumberOfCalls(t, "UpdateOne", 1)
	m.vehicleAssignments.AssertNumberOfCalls(t, "InsertOne", 1)
	m.tools.AssertNumberOfCalls(t, "UpdateOne", 1)
	m.toolAssignments.AssertNumberOfCalls(t, "InsertOne", 1)
	m.activityLogs.AssertNumberOfCalls(t, "InsertOne", 1)
}

func TestMission_CreateMissionHandlerInsufficientTool(t *testing.T) {
	h, m := newMissionHandler(false)

	m.missions.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}, nil)
	m.employees.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	toolResult := &mocks.SingleResultHelper{}
	toolResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Tool)
		(*arg).TotalQuantity = 5
		(*arg).AvailableQuantity = 0
	})
	m.tools.On("FindOne", mock.Anything, mock.Anything).Return(toolResult)

	body := fmt.Sprintf(`{
		"title": "Transformer inspection",
		"assignedTeam": [%q],
		"requiredTools": [%q]
	}`, testEmployee1, testTool)

	req, err := http.NewRequest("POST", "/api/v1/missions", jsonBody(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer abc123")

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(h.CreateMissionHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusConflict {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusConflict)
	}

	// no rollback: the mission document and the employee status write
	// from before the failure stay in place
	m.missions.AssertNumberOfCalls(t, "InsertOne", 1)
	m.employees.AssertNumberOfCalls(t, "UpdateOne", 1)
	m.tools.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	m.toolAssignments.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func missionStatusRequest(t *testing.T, status string) *http.Request {
	req, err := http.NewRequest("PUT", "/api/v1/mission/"+testMission+"/status",
		jsonBody(fmt.Sprintf(`{"status":%q}`, status)))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"mission_id": testMission})
	req.Header.Set("Authorization", "Bearer abc123")
	return req
}

func TestMission_UpdateMissionStatusHandlerCompleteReleasesResources(t *testing.T) {
	h, m := newMissionHandler(false)

	missionResult := &mocks.SingleResultHelper{}
	missionResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Mission)
		(*arg).Status = models.MissionInProgress
		(*arg).AssignedTeam = []string{testEmployee1}
		(*arg).TeamLeaderID = testLeader
		(*arg).VehicleID = testVehicle
	})
	m.missions.On("FindOne", mock.Anything, mock.Anything).Return(missionResult)
	m.missions.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	m.employees.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	m.vehicles.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	emptyCursor := &mocks.CursorHelper{}
	emptyCursor.On("Decode", mock.Anything).Return(nil)
	m.vehicleAssignments.On("Find", mock.Anything, mock.Anything).Return(emptyCursor, nil)
	m.vehicleAssignments.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{}, nil)

	toolAssignmentCursor := &mocks.CursorHelper{}
	toolAssignmentCursor.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.ToolAssignment)
		*arg = []models.ToolAssignment{
			{MissionID: testMission, ToolID: testTool, Quantity: 1, Status: models.AssignmentAssigned},
		}
	})
	m.toolAssignments.On("Find", mock.Anything, mock.Anything).Return(toolAssignmentCursor, nil)
	m.toolAssignments.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{}, nil)

	toolResult := &mocks.SingleResultHelper{}
	toolResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Tool)
		(*arg).TotalQuantity = 5
		(*arg).AvailableQuantity = 4
	})
	m.tools.On("FindOne", mock.Anything, mock.Anything).Return(toolResult)
	m.tools.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	m.activityLogs.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}, nil)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(h.UpdateMissionStatusHandler)

	handler.ServeHTTP(rr, missionStatusRequest(t, models.MissionCompleted))

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v, body: %s", status, http.StatusOK, rr.Body.String())
	}

	// team member and leader both released
	m.employees.AssertNumberOfCalls(t, "UpdateOne", 2)
	m.vehicles.AssertNumberOfCalls(t, "UpdateOne", 1)
	m.vehicleAssignments.AssertNumberOfCalls(t, "UpdateMany", 1)
	m.tools.AssertNumberOfCalls(t, "UpdateOne", 1)
	m.toolAssignments.AssertNumberOfCalls(t, "UpdateMany", 1)
}

func TestMission_UpdateMissionStatusHandlerTerminalRejected(t *testing.T) {
	h, m := newMissionHandler(false)

	missionResult := &mocks.SingleResultHelper{}
	missionResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Mission)
		(*arg).Status = models.MissionCompleted
	})
	m.missions.On("FindOne", mock.Anything, mock.Anything).Return(missionResult)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(h.UpdateMissionStatusHandler)

	handler.ServeHTTP(rr, missionStatusRequest(t, models.MissionInProgress))

	if status := rr.Code; status != http.StatusConflict {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusConflict)
	}

	// completing twice must not double-return resources
	m.missions.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	m.employees.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	m.tools.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestMission_UpdateMissionStatusHandlerCancelKeepsResources(t *testing.T) {
	h, m := newMissionHandler(false)

	missionResult := &mocks.SingleResultHelper{}
	missionResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Mission)
		(*arg).Status = models.MissionInProgress
		(*arg).AssignedTeam = []string{testEmployee1}
		(*arg).VehicleID = testVehicle
	})
	m.missions.On("FindOne", mock.Anything, mock.Anything).Return(missionResult)
	m.missions.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	m.activityLogs.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}, nil)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(h.UpdateMissionStatusHandler)

	handler.ServeHTTP(rr, missionStatusRequest(t, models.MissionCancelled))

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	// default behaviour: cancellation holds on to everything
	m.employees.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	m.vehicles.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	m.toolAssignments.AssertNotCalled(t, "UpdateMany", mock.Anything, mock.Anything, mock.Anything)
}

func TestMission_UpdateMissionStatusHandlerCancelReleasesWhenConfigured(t *testing.T) {
	h, m := newMissionHandler(true)

	missionResult := &mocks.SingleResultHelper{}
	missionResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Mission)
		(*arg).Status = models.MissionInProgress
		(*arg).AssignedTeam = []string{testEmployee1}
	})
	m.missions.On("FindOne", mock.Anything, mock.Anything).Return(missionResult)
	m.missions.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	m.employees.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	emptyCursor := &mocks.CursorHelper{}
	emptyCursor.On("Decode", mock.Anything).Return(nil)
	m.vehicleAssignments.On("Find", mock.Anything, mock.Anything).Return(emptyCursor, nil)
	m.vehicleAssignments.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{}, nil)
	m.toolAssignments.On("Find", mock.Anything, mock.Anything).Return(emptyCursor, nil)
	m.toolAssignments.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{}, nil)

	m.activityLogs.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}, nil)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(h.UpdateMissionStatusHandler)

	handler.ServeHTTP(rr, missionStatusRequest(t, models.MissionCancelled))

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	m.employees.AssertNumberOfCalls(t, "UpdateOne", 1)
}

func TestMission_MissionByIDHandlerBadHex(t *testing.T) {
	h, _ := newMissionHandler(false)

	req, err := http.NewRequest("GET", "/api/v1/mission/1234", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"mission_id": "1234"})
	req.Header.Set("Authorization", "Bearer abc123")

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(h.MissionByIDHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
