package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Vehicle status values. Transitions are unvalidated, the status field is a
// plain setter at the storage layer.
const (
	VehicleAvailable   = "AVAILABLE"
	VehicleInUse       = "IN_USE"
	VehicleMaintenance = "MAINTENANCE"
)

// Vehicle holds the structure for the vehicles collection in mongo
type Vehicle struct {
	ID            primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	PlateNumber   string              `json:"plateNumber" bson:"plateNumber"`
	Model         string              `json:"model" bson:"model"`
	Status        string              `json:"status" bson:"status"`
	Location      *Location           `json:"location,omitempty" bson:"location,omitempty"`
	NextServiceAt *primitive.DateTime `json:"nextServiceAt,omitempty" bson:"nextServiceAt,omitempty"`
	CreatedAt     primitive.DateTime  `json:"createdAt" bson:"createdAt"`
	UpdatedAt     primitive.DateTime  `json:"updatedAt" bson:"updatedAt"`
}

// Location is a named point attached to vehicles and status updates.
type Location struct {
	Name string  `json:"name" bson:"name"`
	Lat  float64 `json:"lat" bson:"lat"`
	Lon  float64 `json:"lon" bson:"lon"`
}

// CreateVehicleRequest is the payload accepted by the create endpoint.
type CreateVehicleRequest struct {
	PlateNumber   string    `json:"plateNumber" validate:"required"`
	Model         string    `json:"model" validate:"required"`
	Status        string    `json:"status" validate:"omitempty,oneof=AVAILABLE IN_USE MAINTENANCE"`
	Location      *Location `json:"location,omitempty"`
	NextServiceAt string    `json:"nextServiceAt,omitempty"`
}

// VehicleStatusRequest is the payload for the status update endpoint.
type VehicleStatusRequest struct {
	Status   string    `json:"status" validate:"required,oneof=AVAILABLE IN_USE MAINTENANCE"`
	Location *Location `json:"location,omitempty"`
}
