package databases

// go generate: mockery --name VehicleDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opsdeck/field-ops-api/models"
)

const vehicleName = "vehicles"

// VehicleDatabase contains the methods to use with the vehicle database
type VehicleDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Vehicle, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Vehicle, error)
	InsertOne(ctx context.Context, vehicle models.Vehicle) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteOne(ctx context.Context, filter interface{}) error
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	SetStatus(ctx context.Context, vehicleID string, status string, location *models.Location) error
}

type vehicleDatabase struct {
	db DatabaseHelper
}

// NewVehicleDatabase initializes a new instance of vehicle database with the provided db connection
func NewVehicleDatabase(db DatabaseHelper) VehicleDatabase {
	return &vehicleDatabase{
		db: db,
	}
}

func (v *vehicleDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{}
	err := v.db.Collection(vehicleName).FindOne(ctx, filter).Decode(&vehicle)
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (v *vehicleDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	cr, err := v.db.Collection(vehicleName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&vehicles)
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (v *vehicleDatabase) InsertOne(ctx context.Context, vehicle models.Vehicle) (InsertOneResultHelper, error) {
	return v.db.Collection(vehicleName).InsertOne(ctx, vehicle)
}

func (v *vehicleDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	_, err := v.db.Collection(vehicleName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (v *vehicleDatabase) DeleteOne(ctx context.Context, filter interface{}) error {
	return v.db.Collection(vehicleName).DeleteOne(ctx, filter)
}

func (v *vehicleDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return v.db.Collection(vehicleName).CountDocuments(ctx, filter, opts...)
}

// SetStatus writes the vehicle status unconditionally, plus the location if
// one is given. This is a plain setter, not a validated state machine, a
// MAINTENANCE vehicle can be flipped straight to IN_USE.
func (v *vehicleDatabase) SetStatus(ctx context.Context, vehicleID string, status string, location *models.Location) error {
	vID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		return err
	}
	set := bson.M{
		"status":    status,
		"updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}
	if location != nil {
		set["location"] = location
	}
	_, err = v.db.Collection(vehicleName).UpdateOne(ctx, bson.M{"_id": vID}, bson.M{"$set": set})
	return err
}
