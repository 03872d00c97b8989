package databases

// go generate: mockery --name ActivityLogDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opsdeck/field-ops-api/models"
)

const activityLogName = "activity_logs"

// ActivityLogDatabase contains the methods to use with the activity log
// database. The collection is append-only, there are no update or delete
// operations.
type ActivityLogDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ActivityLog, error)
	FindPaginated(ctx context.Context, filter interface{}, limit, page int) ([]models.ActivityLog, error)
	Append(ctx context.Context, activityType string, activityData map[string]interface{}, userID string) error
}

type activityLogDatabase struct {
	db DatabaseHelper
}

// NewActivityLogDatabase initializes a new instance of activity log database with the provided db connection
func NewActivityLogDatabase(db DatabaseHelper) ActivityLogDatabase {
	return &activityLogDatabase{
		db: db,
	}
}

func (a *activityLogDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	cr, err := a.db.Collection(activityLogName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&logs)
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (a *activityLogDatabase) FindPaginated(ctx context.Context, filter interface{}, limit, page int) ([]models.ActivityLog, error) {
	opts := newMongoPaginate(limit, page).getPaginatedOpts()
	opts.SetSort(bson.D{{Key: "timestamp", Value: -1}})
	return a.Find(ctx, filter, opts)
}

func (a *activityLogDatabase) Append(ctx context.Context, activityType string, activityData map[string]interface{}, userID string) error {
	_, err := a.db.Collection(activityLogName).InsertOne(ctx, models.ActivityLog{
		ID:           primitive.NewObjectID(),
		ActivityType: activityType,
		ActivityData: activityData,
		UserID:       userID,
		Timestamp:    primitive.NewDateTimeFromTime(time.Now()),
	})
	return err
}
