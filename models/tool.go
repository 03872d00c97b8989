package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// AdjustDirection selects whether a tool quantity adjustment takes stock out
// of the pool or puts it back.
type AdjustDirection string

// Adjustment directions.
const (
	DirectionAssign AdjustDirection = "assign"
	DirectionReturn AdjustDirection = "return"
)

// Tool holds the structure for the tools collection in mongo.
// Invariant: 0 <= availableQuantity <= totalQuantity.
type Tool struct {
	ID                primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	SerialNumber      string             `json:"serialNumber" bson:"serialNumber"`
	Name              string             `json:"name" bson:"name"`
	TotalQuantity     int                `json:"totalQuantity" bson:"totalQuantity"`
	AvailableQuantity int                `json:"availableQuantity" bson:"availableQuantity"`
	CreatedAt         primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt         primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// CreateToolRequest is the payload accepted by the create endpoint.
type CreateToolRequest struct {
	SerialNumber  string `json:"serialNumber" validate:"required"`
	Name          string `json:"name" validate:"required"`
	TotalQuantity int    `json:"totalQuantity" validate:"min=0"`
}

// AdjustToolRequest is the payload for the quantity adjustment endpoint.
type AdjustToolRequest struct {
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Direction string `json:"direction" validate:"required,oneof=assign return"`
}
