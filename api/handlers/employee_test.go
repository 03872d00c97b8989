package handlers_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/mock"

	"github.com/opsdeck/field-ops-api/api/handlers"
	"github.com/opsdeck/field-ops-api/cache"
	"github.com/opsdeck/field-ops-api/databases"
	"github.com/opsdeck/field-ops-api/databases/mocks"
	"github.com/opsdeck/field-ops-api/models"
)

type MockDatabaseHelper struct {
	mock.Mock
}

// Client provides a mock function.
func (_m *MockDatabaseHelper) Client() databases.ClientHelper {
	ret := _m.Called()

	var r0 databases.ClientHelper
	if rf, ok := ret.Get(0).(func() databases.ClientHelper); ok {
		r0 = rf()
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.ClientHelper)
		}
	}

	return r0
}

// Collection provides a mock function.
func (_m *MockDatabaseHelper) Collection(name string) databases.CollectionHelper {
	ret := _m.Called(name)

	var r0 databases.CollectionHelper
	if rf, ok := ret.Get(0).(func(string) databases.CollectionHelper); ok {
		r0 = rf(name)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.CollectionHelper)
		}
	}

	return r0
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func TestEmployee_EmployeeByIDHandlerBadHex(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/employee/1234", nil)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"employee_id": "1234"})
	req.Header.Set("Authorization", "Bearer abc123")

	db := &MockDatabaseHelper{}

	employeeDatabase := databases.NewEmployeeDatabase(db)
	e := handlers.Employee{
		DB:    employeeDatabase,
		Cache: cache.New(),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(e.EmployeeByIDHandler)

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

func TestEmployee_EmployeeByIDHandlerFailedToFindOne(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/employee/5fc51f58c72ff10004dca999", nil)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"employee_id": "5fc51f58c72ff10004dca999"})
	req.Header.Set("Authorization", "Bearer abc123")

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "employees").Return(conn)

	employeeDatabase := databases.NewEmployeeDatabase(db)
	e := handlers.Employee{
		DB:    employeeDatabase,
		Cache: cache.New(),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(e.EmployeeByIDHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusNotFound {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusNotFound)
	}
}

func TestEmployee_RegisterEmployeeHandlerDuplicateUsername(t *testing.T) {
	body := `{"username":"jdoe","password":"hunter22","fullName":"Jane Doe","email":"jdoe@example.com"}`
	req, err := http.NewRequest("POST", "/api/v1/employee/register", jsonBody(body))
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)
	db.On("Collection", "employees").Return(conn)

	employeeDatabase := databases.NewEmployeeDatabase(db)
	e := handlers.Employee{
		DB:    employeeDatabase,
		Cache: cache.New(),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(e.RegisterEmployeeHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusConflict {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusConflict)
	}
	conn.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestEmployee_RegisterEmployeeHandlerMissingFields(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/employee/register", jsonBody(`{"username":"jdoe"}`))
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}

	employeeDatabase := databases.NewEmployeeDatabase(db)
	e := handlers.Employee{
		DB:    employeeDatabase,
		Cache: cache.New(),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(e.RegisterEmployeeHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
}
