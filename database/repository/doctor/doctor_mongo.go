package doctorRepo

import (
	"context"
	"fmt"
	"time"

	"clinq/database"
	"clinq/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDoctorRepo implements DoctorRepository using MongoDB.
type MongoDoctorRepo struct {
	coll *mongo.Collection
}

// NewMongoDoctorRepo constructs a new instance of MongoDoctorRepo.
func NewMongoDoctorRepo() DoctorRepository {
	db := database.MongoClient.Database(database.DBName)
	return &MongoDoctorRepo{coll: db.Collection("doctors")}
}

func (repo *MongoDoctorRepo) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doctor models.Doctor
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doctor); err != nil {
		return nil, fmt.Errorf("error fetching doctor with id %s: %w", id, err)
	}
	return &doctor, nil
}

func (repo *MongoDoctorRepo) ListByClinic(ctx context.Context, clinicID string) ([]models.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := repo.coll.Find(ctx, bson.M{"clinicId": clinicID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing doctors for clinic %s: %w", clinicID, err)
	}
	defer cursor.Close(ctx)

	var doctors []models.Doctor
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("error decoding doctors: %w", err)
	}
	return doctors, nil
}

func (repo *MongoDoctorRepo) SetConsultationStatus(ctx context.Context, id, status string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"consultationStatus": status}}
	res, err := repo.coll.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("error updating consultation status for doctor %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("doctor %s not found", id)
	}
	return nil
}
