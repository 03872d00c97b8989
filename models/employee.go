package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Employee mission status values.
const (
	EmployeeAvailable = "AVAILABLE"
	EmployeeInMission = "IN_MISSION"
)

// Employee holds the structure for the employees collection in mongo
type Employee struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Username      string             `json:"username" bson:"username"`
	PasswordHash  string             `json:"-" bson:"passwordHash"`
	FullName      string             `json:"fullName" bson:"fullName"`
	Email         string             `json:"email" bson:"email"`
	Role          string             `json:"role" bson:"role"`
	DepartmentID  string             `json:"departmentID" bson:"departmentID"`
	Active        bool               `json:"active" bson:"active"`
	MissionStatus string             `json:"missionStatus" bson:"missionStatus"`
	CreatedAt     primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt     primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// RegisterEmployeeRequest is the payload accepted by the register endpoint.
type RegisterEmployeeRequest struct {
	Username     string `json:"username" validate:"required,min=3"`
	Password     string `json:"password" validate:"required,min=8"`
	FullName     string `json:"fullName" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Role         string `json:"role"`
	DepartmentID string `json:"departmentID"`
}
