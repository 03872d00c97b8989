package databases

// go generate: mockery --name DepartmentDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opsdeck/field-ops-api/models"
)

const departmentName = "departments"

// DepartmentDatabase contains the methods to use with the department database
type DepartmentDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Department, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Department, error)
	InsertOne(ctx context.Context, department models.Department) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteOne(ctx context.Context, filter interface{}) error
}

type departmentDatabase struct {
	db DatabaseHelper
}

// NewDepartmentDatabase initializes a new instance of department database with the provided db connection
func NewDepartmentDatabase(db DatabaseHelper) DepartmentDatabase {
	return &departmentDatabase{
		db: db,
	}
}

func (d *departmentDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Department, error) {
	department := &models.Department{}
	err := d.db.Collection(departmentName).FindOne(ctx, filter).Decode(&department)
	if err != nil {
		return nil, err
	}
	return department, nil
}

func (d *departmentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Department, error) {
	var departments []models.Department
	cr, err := d.db.Collection(departmentName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&departments)
	if err != nil {
		return nil, err
	}
	return departments, nil
}

func (d *departmentDatabase) InsertOne(ctx context.Context, department models.Department) (InsertOneResultHelper, error) {
	return d.db.Collection(departmentName).InsertOne(ctx, department)
}

func (d *departmentDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	_, err := d.db.Collection(departmentName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (d *departmentDatabase) DeleteOne(ctx context.Context, filter interface{}) error {
	return d.db.Collection(departmentName).DeleteOne(ctx, filter)
}
