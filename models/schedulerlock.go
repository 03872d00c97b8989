package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// SchedulerLock is the mongo-backed mutual exclusion record for cron jobs
// running across multiple instances.
type SchedulerLock struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	JobName    string             `json:"jobName" bson:"jobName"`
	InstanceID string             `json:"instanceID" bson:"instanceID"`
	ExpiresAt  primitive.DateTime `json:"expiresAt" bson:"expiresAt"`
}
