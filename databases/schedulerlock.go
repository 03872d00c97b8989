package databases

// go generate: mockery --name SchedulerLockDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const schedulerLockName = "scheduler_locks"

// SchedulerLockDatabase provides mongo-backed mutual exclusion for cron jobs
// running across multiple instances.
type SchedulerLockDatabase interface {
	TryAcquireLock(ctx context.Context, jobName, instanceID string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, jobName, instanceID string) error
}

type schedulerLockDatabase struct {
	db DatabaseHelper
}

// NewSchedulerLockDatabase initializes a new instance of scheduler lock database with the provided db connection
func NewSchedulerLockDatabase(db DatabaseHelper) SchedulerLockDatabase {
	return &schedulerLockDatabase{
		db: db,
	}
}

// TryAcquireLock attempts to take the named lock for ttl. Returns false when
// another instance holds an unexpired lock. The check and the upsert are two
// round-trips, so two instances racing at the same instant can both win;
// jobs tolerate the duplicate run.
func (s *schedulerLockDatabase) TryAcquireLock(ctx context.Context, jobName, instanceID string, ttl time.Duration) (bool, error) {
	now := time.Now()

	held, err := s.db.Collection(schedulerLockName).CountDocuments(ctx, bson.M{
		"jobName":    jobName,
		"instanceID": bson.M{"$ne": instanceID},
		"expiresAt":  bson.M{"$gt": primitive.NewDateTimeFromTime(now)},
	})
	if err != nil {
		return false, err
	}
	if held > 0 {
		return false, nil
	}

	upsert := true
	_, err = s.db.Collection(schedulerLockName).UpdateOne(ctx,
		bson.M{"jobName": jobName},
		bson.M{"$set": bson.M{
			"instanceID": instanceID,
			"expiresAt":  primitive.NewDateTimeFromTime(now.Add(ttl)),
		}},
		&options.UpdateOptions{Upsert: &upsert},
	)
	if err != nil {
		return false, err
	}
	return true, nil
}

// ReleaseLock expires the named lock if this instance still holds it.
func (s *schedulerLockDatabase) ReleaseLock(ctx context.Context, jobName, instanceID string) error {
	_, err := s.db.Collection(schedulerLockName).UpdateOne(ctx,
		bson.M{"jobName": jobName, "instanceID": instanceID},
		bson.M{"$set": bson.M{"expiresAt": primitive.NewDateTimeFromTime(time.Now())}},
	)
	return err
}
