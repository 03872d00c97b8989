package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Assignment status values.
const (
	AssignmentAssigned = "ASSIGNED"
	AssignmentReturned = "RETURNED"
	AssignmentReleased = "RELEASED"
)

// ToolAssignment is the durable record that a tool quantity is held by a
// mission, used to reverse the hold on release.
type ToolAssignment struct {
	ID         primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	MissionID  string              `json:"missionID" bson:"missionID"`
	ToolID     string              `json:"toolID" bson:"toolID"`
	Quantity   int                 `json:"quantity" bson:"quantity"`
	Status     string              `json:"status" bson:"status"`
	AssignedAt primitive.DateTime  `json:"assignedAt" bson:"assignedAt"`
	ReturnedAt *primitive.DateTime `json:"returnedAt,omitempty" bson:"returnedAt,omitempty"`
}

// VehicleAssignment is the durable record that a vehicle is held by a mission.
type VehicleAssignment struct {
	ID         primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	MissionID  string              `json:"missionID" bson:"missionID"`
	VehicleID  string              `json:"vehicleID" bson:"vehicleID"`
	Status     string              `json:"status" bson:"status"`
	AssignedAt primitive.DateTime  `json:"assignedAt" bson:"assignedAt"`
	ReleasedAt *primitive.DateTime `json:"releasedAt,omitempty" bson:"releasedAt,omitempty"`
}
