package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Department holds the structure for the departments collection in mongo
type Department struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	ManagerID   string             `json:"managerID" bson:"managerID"`
	CreatedAt   primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt   primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// CreateDepartmentRequest is the payload accepted by the create endpoint.
type CreateDepartmentRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	ManagerID   string `json:"managerID"`
}
