package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/opsdeck/field-ops-api/api/handlers"
	"github.com/opsdeck/field-ops-api/cache"
	"github.com/opsdeck/field-ops-api/databases"
	"github.com/opsdeck/field-ops-api/databases/mocks"
	"github.com/opsdeck/field-ops-api/models"
)

func TestVehicle_VehicleByIDHandlerBadHex(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/vehicle/1234", nil)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"vehicle_id": "1234"})
	req.Header.Set("Authorization", "Bearer abc123")

	db := &MockDatabaseHelper{}

	vehicleDatabase := databases.NewVehicleDatabase(db)
	u := handlers.Vehicle{
		DB:    vehicleDatabase,
		Cache: cache.New(),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.VehicleByIDHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "failed to get objectID from Hex", Error: "the provided hex string is not a valid ObjectID"}}
	b, _ := json.Marshal(expected)
	if rr.Body.String() != string(b) {
		t.Errorf("handler returned unexpected body: \ngot: %v \nwant: %v", rr.Body.String(), expected)
	}
}

func TestVehicle_VehicleByIDHandlerFailedToFindOne(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/vehicle/5fc51f58c72ff10004dca999", nil)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"vehicle_id": "5fc51f58c72ff10004dca999"})
	req.Header.Set("Authorization", "Bearer abc123")

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "vehicles").Return(conn)

	vehicleDatabase := databases.NewVehicleDatabase(db)
	u := handlers.Vehicle{
		DB:    vehicleDatabase,
		Cache: cache.New(),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.VehicleByIDHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusNotFound {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusNotFound)
	}
}

func TestVehicle_UpdateVehicleStatusHandler(t *testing.T) {
	req, err := http.NewRequest("PUT", "/api/v1/vehicle/5fc51f58c72ff10004dca382/status", jsonBody(`{"status":"MAINTENANCE"}`))
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"vehicle_id": "5fc51f58c72ff10004dca382"})
	req.Header.Set("Authorization", "Bearer abc123")

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	db.On("Collection", "vehicles").Return(conn)

	vehicleDatabase := databases.NewVehicleDatabase(db)
	u := handlers.Vehicle{
		DB:    vehicleDatabase,
		Cache: cache.New(),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.UpdateVehicleStatusHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	conn.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestVehicle_UpdateVehicleStatusHandlerInvalidStatus(t *testing.T) {
	req, err := http.NewRequest("PUT", "/api/v1/vehicle/5fc51f58c72ff10004dca382/status", jsonBody(`{"status":"PARKED"}`))
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"vehicle_id": "5fc51f58c72ff10004dca382"})
	req.Header.Set("Authorization", "Bearer abc123")

	db := &MockDatabaseHelper{}

	vehicleDatabase := databases.NewVehicleDatabase(db)
	u := handlers.Vehicle{
		DB:    vehicleDatabase,
		Cache: cache.New(),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.UpdateVehicleStatusHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
}
