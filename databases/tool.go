package databases

// go generate: mockery --name ToolDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opsdeck/field-ops-api/models"
)

const toolName = "tools"

// ToolDatabase contains the methods to use with the tool database
type ToolDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Tool, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Tool, error)
	InsertOne(ctx context.Context, tool models.Tool) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteOne(ctx context.Context, filter interface{}) error
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	AdjustQuantity(ctx context.Context, toolID string, quantity int, direction models.AdjustDirection) (*models.Tool, error)
}

type toolDatabase struct {
	db DatabaseHelper
}

// NewToolDatabase initializes a new instance of tool database with the provided db connection
func NewToolDatabase(db DatabaseHelper) ToolDatabase {
	return &toolDatabase{
		db: db,
	}
}

func (t *toolDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Tool, error) {
	tool := &models.Tool{}
	err := t.db.Collection(toolName).FindOne(ctx, filter).Decode(&tool)
	if err != nil {
		return nil, err
	}
	return tool, nil
}

func (t *toolDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Tool, error) {
	var tools []models.Tool
	cr, err := t.db.Collection(toolName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&tools)
	if err != nil {
		return nil, err
	}
	return tools, nil
}

func (t *toolDatabase) InsertOne(ctx context.Context, tool models.Tool) (InsertOneResultHelper, error) {
	return t.db.Collection(toolName).InsertOne(ctx, tool)
}

func (t *toolDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	_, err := t.db.Collection(toolName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (t *toolDatabase) DeleteOne(ctx context.Context, filter interface{}) error {
	return t.db.Collection(toolName).DeleteOne(ctx, filter)
}

func (t *toolDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return t.db.Collection(toolName).CountDocuments(ctx, filter, opts...)
}

// AdjustQuantity moves tool stock in or out of the available pool.
//
// assign: the new available quantity must not go negative, otherwise
// models.ErrInsufficientQuantity is returned and nothing is written. The
// read-validate-write sequence is not atomic, two concurrent assigns can
// both pass the check.
//
// return: the new available quantity is clamped to the total so a release
// can never overshoot capacity, even if callers report more than was taken.
func (t *toolDatabase) AdjustQuantity(ctx context.Context, toolID string, quantity int, direction models.AdjustDirection) (*models.Tool, error) {
	tID, err := primitive.ObjectIDFromHex(toolID)
	if err != nil {
		return nil, err
	}

	tool, err := t.FindOne(ctx, bson.M{"_id": tID})
	if err != nil {
		return nil, err
	}

	newAvailable := tool.AvailableQuantity
	switch direction {
	case models.DirectionAssign:
		newAvailable = tool.AvailableQuantity - quantity
		if newAvailable < 0 {
			return nil, models.ErrInsufficientQuantity
		}
	case models.DirectionReturn:
		newAvailable = tool.AvailableQuantity + quantity
		if newAvailable > tool.TotalQuantity {
			newAvailable = tool.TotalQuantity
		}
	}

	_, err = t.db.Collection(toolName).UpdateOne(ctx, bson.M{"_id": tID}, bson.M{"$set": bson.M{
		"availableQuantity": newAvailable,
		"updatedAt":         primitive.NewDateTimeFromTime(time.Now()),
	}})
	if err != nil {
		return nil, err
	}

	tool.AvailableQuantity = newAvailable
	return tool, nil
}
