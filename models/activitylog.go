package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Activity types written by the mission lifecycle and the scheduler.
const (
	ActivityMissionCreated       = "mission_created"
	ActivityMissionStatusUpdated = "mission_status_updated"
	ActivityMissionOverdue       = "mission_overdue"
	ActivityVehicleMaintenance   = "vehicle_maintenance_scheduled"
)

// ActivityLog holds the structure for the append-only activity_logs
// collection in mongo. Entries are never mutated or deleted.
type ActivityLog struct {
	ID           primitive.ObjectID     `json:"_id" bson:"_id,omitempty"`
	ActivityType string                 `json:"activityType" bson:"activityType"`
	ActivityData map[string]interface{} `json:"activityData" bson:"activityData"`
	UserID       string                 `json:"userID" bson:"userID"`
	Timestamp    primitive.DateTime     `json:"timestamp" bson:"timestamp"`
}
