package databases

// go generate: mockery --name ToolAssignmentDatabase
// go generate: mockery --name VehicleAssignmentDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opsdeck/field-ops-api/models"
)

const (
	toolAssignmentName    = "tool_assignments"
	vehicleAssignmentName = "vehicle_assignments"
)

// ToolAssignmentDatabase contains the methods to use with the tool assignment database
type ToolAssignmentDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ToolAssignment, error)
	InsertOne(ctx context.Context, assignment models.ToolAssignment) (InsertOneResultHelper, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type toolAssignmentDatabase struct {
	db DatabaseHelper
}

// NewToolAssignmentDatabase initializes a new instance of tool assignment database with the provided db connection
func NewToolAssignmentDatabase(db DatabaseHelper) ToolAssignmentDatabase {
	return &toolAssignmentDatabase{
		db: db,
	}
}

func (t *toolAssignmentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ToolAssignment, error) {
	var assignments []models.ToolAssignment
	cr, err := t.db.Collection(toolAssignmentName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&assignments)
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (t *toolAssignmentDatabase) InsertOne(ctx context.Context, assignment models.ToolAssignment) (InsertOneResultHelper, error) {
	return t.db.Collection(toolAssignmentName).InsertOne(ctx, assignment)
}

func (t *toolAssignmentDatabase) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return t.db.Collection(toolAssignmentName).UpdateMany(ctx, filter, update, opts...)
}

// VehicleAssignmentDatabase contains the methods to use with the vehicle assignment database
type VehicleAssignmentDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.VehicleAssignment, error)
	InsertOne(ctx context.Context, assignment models.VehicleAssignment) (InsertOneResultHelper, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type vehicleAssignmentDatabase struct {
	db DatabaseHelper
}

// NewVehicleAssignmentDatabase initializes a new instance of vehicle assignment database with the provided db connection
func NewVehicleAssignmentDatabase(db DatabaseHelper) VehicleAssignmentDatabase {
	return &vehicleAssignmentDatabase{
		db: db,
	}
}

func (v *vehicleAssignmentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.VehicleAssignment, error) {
	var assignments []models.VehicleAssignment
	cr, err := v.db.Collection(vehicleAssignmentName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&assignments)
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (v *vehicleAssignmentDatabase) InsertOne(ctx context.Context, assignment models.VehicleAssignment) (InsertOneResultHelper, error) {
	return v.db.Collection(vehicleAssignmentName).InsertOne(ctx, assignment)
}

func (v *vehicleAssignmentDatabase) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return v.db.Collection(vehicleAssignmentName).UpdateMany(ctx, filter, update, opts...)
}
