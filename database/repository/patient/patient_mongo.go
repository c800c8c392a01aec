package patientRepo

import (
	"context"
	"fmt"
	"time"

	"clinq/database"
	"clinq/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoPatientRepo implements PatientRepository using MongoDB.
type MongoPatientRepo struct {
	coll *mongo.Collection
}

// NewMongoPatientRepo constructs a new instance of MongoPatientRepo.
func NewMongoPatientRepo() PatientRepository {
	db := database.MongoClient.Database(database.DBName)
	return &MongoPatientRepo{coll: db.Collection("patients")}
}

func (repo *MongoPatientRepo) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var patient models.Patient
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&patient); err != nil {
		return nil, fmt.Errorf("error fetching patient with id %s: %w", id, err)
	}
	return &patient, nil
}

func (repo *MongoPatientRepo) GetByPhone(ctx context.Context, phone string) (*models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var patient models.Patient
	if err := repo.coll.FindOne(ctx, bson.M{"phone": phone}).Decode(&patient); err != nil {
		return nil, fmt.Errorf("error fetching patient with phone %s: %w", phone, err)
	}
	return &patient, nil
}
