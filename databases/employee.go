package databases

// go generate: mockery --name EmployeeDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opsdeck/field-ops-api/models"
)

const employeeName = "employees"

// EmployeeDatabase contains the methods to use with the employee database
type EmployeeDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Employee, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Employee, error)
	InsertOne(ctx context.Context, employee models.Employee) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	SetMissionStatus(ctx context.Context, employeeID string, status string) error
}

type employeeDatabase struct {
	db DatabaseHelper
}

// NewEmployeeDatabase initializes a new instance of employee database with the provided db connection
func NewEmployeeDatabase(db DatabaseHelper) EmployeeDatabase {
	return &employeeDatabase{
		db: db,
	}
}

func (e *employeeDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Employee, error) {
	employee := &models.Employee{}
	err := e.db.Collection(employeeName).FindOne(ctx, filter).Decode(&employee)
	if err != nil {
		return nil, err
	}
	return employee, nil
}

func (e *employeeDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Employee, error) {
	var employees []models.Employee
	cr, err := e.db.Collection(employeeName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&employees)
	if err != nil {
		return nil, err
	}
	return employees, nil
}

func (e *employeeDatabase) InsertOne(ctx context.Context, employee models.Employee) (InsertOneResultHelper, error) {
	return e.db.Collection(employeeName).InsertOne(ctx, employee)
}

func (e *employeeDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	_, err := e.db.Collection(employeeName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (e *employeeDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return e.db.Collection(employeeName).CountDocuments(ctx, filter, opts...)
}

// SetMissionStatus writes the employee mission status field directly. There
// is no validation of the prior state, assignment and release both funnel
// through here.
func (e *employeeDatabase) SetMissionStatus(ctx context.Context, employeeID string, status string) error {
	eID, err := primitive.ObjectIDFromHex(employeeID)
	if err != nil {
		return err
	}
	_, err = e.db.Collection(employeeName).UpdateOne(ctx, bson.M{"_id": eID}, bson.M{"$set": bson.M{
		"missionStatus": status,
		"updatedAt":     primitive.NewDateTimeFromTime(time.Now()),
	}})
	return err
}
