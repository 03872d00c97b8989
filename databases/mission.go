package databases

// go generate: mockery --name MissionDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opsdeck/field-ops-api/models"
)

const missionName = "missions"

// MissionDatabase contains the methods to use with the mission database
type MissionDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Mission, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Mission, error)
	InsertOne(ctx context.Context, mission models.Mission) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*models.Mission, error)
	DeleteOne(ctx context.Context, filter interface{}) error
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type missionDatabase struct {
	db DatabaseHelper
}

// NewMissionDatabase initializes a new instance of mission database with the provided db connection
func NewMissionDatabase(db DatabaseHelper) MissionDatabase {
	return &missionDatabase{
		db: db,
	}
}

func (m *missionDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Mission, error) {
	mission := &models.Mission{}
	err := m.db.Collection(missionName).FindOne(ctx, filter, opts...).Decode(&mission)
	if err != nil {
		return nil, err
	}
	return mission, nil
}

func (m *missionDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Mission, error) {
	var missions []models.Mission
	cr, err := m.db.Collection(missionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&missions)
	if err != nil {
		return nil, err
	}
	return missions, nil
}

func (m *missionDatabase) InsertOne(ctx context.Context, mission models.Mission) (InsertOneResultHelper, error) {
	return m.db.Collection(missionName).InsertOne(ctx, mission)
}

func (m *missionDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*models.Mission, error) {
	_, err := m.db.Collection(missionName).UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return nil, err
	}
	mission := &models.Mission{}
	err = m.db.Collection(missionName).FindOne(ctx, filter).Decode(&mission)
	if err != nil {
		return nil, err
	}
	return mission, nil
}

func (m *missionDatabase) DeleteOne(ctx context.Context, filter interface{}) error {
	return m.db.Collection(missionName).DeleteOne(ctx, filter)
}

func (m *missionDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return m.db.Collection(missionName).CountDocuments(ctx, filter, opts...)
}
