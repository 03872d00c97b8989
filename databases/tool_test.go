package databases_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/opsdeck/field-ops-api/config"
	"github.com/opsdeck/field-ops-api/databases"
	"github.com/opsdeck/field-ops-api/databases/mocks"
	"github.com/opsdeck/field-ops-api/models"
)

const testToolID = "5fc51f58c72ff10004dca382"

func TestNewToolDatabase(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	toolDB := databases.NewToolDatabase(db)

	assert.NotEmpty(t, toolDB)
}

func newMockedToolDatabase(available, total int) (databases.ToolDatabase, *mocks.CollectionHelper) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	srHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Tool)
		(*arg).AvailableQuantity = available
		(*arg).TotalQuantity = total
	})
	collectionHelper.On("FindOne", mock.Anything, mock.Anything).Return(srHelper)
	dbHelper.On("Collection", "tools").Return(collectionHelper)

	return databases.NewToolDatabase(dbHelper), collectionHelper
}

func TestToolDatabase_AdjustQuantityAssign(t *testing.T) {
	toolDba, collectionHelper := newMockedToolDatabase(3, 5)
	collectionHelper.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	tool, err := toolDba.AdjustQuantity(context.Background(), testToolID, 2, models.DirectionAssign)

	assert.NoError(t, err)
	assert.Equal(t, 1, tool.AvailableQuantity)
}

func TestToolDatabase_AdjustQuantityAssignInsufficient(t *testing.T) {
	toolDba, collectionHelper := newMockedToolDatabase(1, 5)

	tool, err := toolDba.AdjustQuantity(context.Background(), testToolID, 2, models.DirectionAssign)

	assert.Nil(t, tool)
	assert.ErrorIs(t, err, models.ErrInsufficientQuantity)
	// validation failures must not write anything
	collectionHelper.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestToolDatabase_AdjustQuantityReturnClampsToTotal(t *testing.T) {
	toolDba, collectionHelper := newMockedToolDatabase(4, 5)
	collectionHelper.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	tool, err := toolDba.AdjustQuantity(context.Background(), testToolID, 3, models.DirectionReturn)

	assert.NoError(t, err)
	assert.Equal(t, 5, tool.AvailableQuantity)
}

func TestToolDatabase_AdjustQuantityBadHex(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	toolDba := databases.NewToolDatabase(dbHelper)

	tool, err := toolDba.AdjustQuantity(context.Background(), "not-a-hex", 1, models.DirectionAssign)

	assert.Nil(t, tool)
	assert.Error(t, err)
}

func TestToolDatabase_AdjustQuantityFindOneError(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	srHelper.On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	collectionHelper.On("FindOne", mock.Anything, mock.Anything).Return(srHelper)
	dbHelper.On("Collection", "tools").Return(collectionHelper)

	toolDba := databases.NewToolDatabase(dbHelper)

	tool, err := toolDba.AdjustQuantity(context.Background(), testToolID, 1, models.DirectionAssign)

	assert.Nil(t, tool)
	assert.EqualError(t, err, "mocked-error")
}
