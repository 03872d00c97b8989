package handlers_test

import (
	"encoding/json"
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

func newToolHandler(conn *mocks.CollectionHelper) handlers.Tool {
	db := &MockDatabaseHelper{}
	db.On("Collection", "tools").Return(conn)
	return handlers.Tool{
		DB:    databases.NewToolDatabase(db),
		Cache: cache.New(),
	}
}

func adjustRequest(t *testing.T, toolID, body string) *http.Request {
	req, err := http.NewRequest("PUT", "/api/v1/tool/"+toolID+"/adjust", jsonBody(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"tool_id": toolID})
	req.Header.Set("Authorization", "Bearer abc123")
	return req
}

func TestTool_AdjustToolHandlerAssign(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Tool)
		(*arg).TotalQuantity = 5
		(*arg).AvailableQuantity = 4
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{}, nil)

	u := newToolHandler(conn)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.AdjustToolHandler)

	handler.ServeHTTP(rr, adjustRequest(t, "5fc51f58c72ff10004dca382", `{"quantity":3,"direction":"assign"}`))

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var tool models.Tool
	json.Unmarshal(rr.Body.Bytes(), &tool)
	assert.Equal(t, 1, tool.AvailableQuantity)
}

func TestTool_AdjustToolHandlerAssignInsufficient(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Tool)
		(*arg).TotalQuantity = 5
		(*arg).AvailableQuantity = 1
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	u := newToolHandler(conn)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.AdjustToolHandler)

	handler.ServeHTTP(rr, adjustRequest(t, "5fc51f58c72ff10004dca382", `{"quantity":2,"direction":"assign"}`))

	if status := rr.Code; status != http.StatusConflict {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusConflict)
	}

	// a failed assign must leave the tool untouched
	conn.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestTool_AdjustToolHandlerReturnClampsToTotal(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Tool)
		(*arg).TotalQuantity = 5
		(*arg).AvailableQuantity = 4
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{}, nil)

	u := newToolHandler(conn)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.AdjustToolHandler)

	handler.ServeHTTP(rr, adjustRequest(t, "5fc51f58c72ff10004dca382", `{"quantity":3,"direction":"return"}`))

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var tool models.Tool
	json.Unmarshal(rr.Body.Bytes(), &tool)
	assert.Equal(t, 5, tool.AvailableQuantity)
}

func updateRequest(t *testing.T, toolID, body string) *http.Request {
	req, err := http.NewRequest("PUT", "/api/v1/tool/"+toolID, jsonBody(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"tool_id": toolID})
	req.Header.Set("Authorization", "Bearer abc123")
	return req
}

func TestTool_UpdateToolHandlerShrinkBelowAvailable(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Tool)
		(*arg).TotalQuantity = 5
		(*arg).AvailableQuantity = 5
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	u := newToolHandler(conn)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.UpdateToolHandler)

	handler.ServeHTTP(rr, updateRequest(t, "5fc51f58c72ff10004dca382", `{"totalQuantity":2}`))

	if status := rr.Code; status != http.StatusConflict {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusConflict)
	}

	// shrinking total below available would break 0 <= available <= total
	conn.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestTool_UpdateToolHandlerShrinkToAvailable(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Tool)
		(*arg).TotalQuantity = 5
		(*arg).AvailableQuantity = 3
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{}, nil)

	u := newToolHandler(conn)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.UpdateToolHandler)

	handler.ServeHTTP(rr, updateRequest(t, "5fc51f58c72ff10004dca382", `{"totalQuantity":3}`))

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	conn.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestTool_CreateToolHandlerZeroQuantity(t *testing.T) {
	conn := &mocks.CollectionHelper{}

	conn.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	conn.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	u := newToolHandler(conn)

	req, err := http.NewRequest("POST", "/api/v1/tool", jsonBody(`{"serialNumber":"SN-0","name":"Spare radio","totalQuantity":0}`))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer abc123")

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.CreateToolHandler)

	handler.ServeHTTP(rr, req)

	// a tool with nothing in stock yet is still a valid tool
	if status := rr.Code; status != http.StatusCreated {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusCreated)
	}
}

func TestTool_AdjustToolHandlerBadDirection(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	u := newToolHandler(conn)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.AdjustToolHandler)

	handler.ServeHTTP(rr, adjustRequest(t, "5fc51f58c72ff10004dca382", `{"quantity":1,"direction":"sideways"}`))

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
}
