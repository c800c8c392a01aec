package clinicRepo

import (
	"context"
	"fmt"
	"time"

	"clinq/database"
	"clinq/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoClinicRepo implements ClinicRepository using MongoDB.
type MongoClinicRepo struct {
	coll *mongo.Collection
}

// NewMongoClinicRepo constructs a new instance of MongoClinicRepo.
func NewMongoClinicRepo() ClinicRepository {
	db := database.MongoClient.Database(database.DBName)
	return &MongoClinicRepo{coll: db.Collection("clinics")}
}

func (repo *MongoClinicRepo) GetByID(ctx context.Context, id string) (*models.Clinic, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var clinic models.Clinic
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&clinic); err != nil {
		return nil, fmt.Errorf("error fetching clinic with id %s: %w", id, err)
	}
	return &clinic, nil
}

func (repo *MongoClinicRepo) GetByShortCode(ctx context.Context, code string) (*models.Clinic, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var clinic models.Clinic
	if err := repo.coll.FindOne(ctx, bson.M{"shortCode": code}).Decode(&clinic); err != nil {
		return nil, fmt.Errorf("error fetching clinic with code %s: %w", code, err)
	}
	return &clinic, nil
}

func (repo *MongoClinicRepo) UpdateNotificationSettings(ctx context.Context, id string, settings map[string]models.ChannelSetting) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"notificationSettings": settings}}
	if _, err := repo.coll.UpdateByID(ctx, id, update); err != nil {
		return fmt.Errorf("error updating notification settings for clinic %s: %w", id, err)
	}
	return nil
}
