package notifyRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinq/database"
	"clinq/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoNotifyRepo implements NotifyRepository using MongoDB.
type MongoNotifyRepo struct {
	sessionColl  *mongo.Collection
	campaignColl *mongo.Collection
}

// NewMongoNotifyRepo constructs a new instance of MongoNotifyRepo.
func NewMongoNotifyRepo() NotifyRepository {
	db := database.MongoClient.Database(database.DBName)
	return &MongoNotifyRepo{
		sessionColl:  db.Collection("whatsapp_sessions"),
		campaignColl: db.Collection("campaign_sends"),
	}
}

func (repo *MongoNotifyRepo) GetWhatsAppSession(ctx context.Context, phone string) (*models.WhatsAppSession, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var sess models.WhatsAppSession
	err := repo.sessionColl.FindOne(ctx, bson.M{"_id": phone}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching whatsapp session for %s: %w", phone, err)
	}
	return &sess, nil
}

func (repo *MongoNotifyRepo) TouchWhatsAppSession(ctx context.Context, phone string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"lastUserMessageAt": at, "updatedAt": time.Now()}}
	opts := options.Update().SetUpsert(true)
	if _, err := repo.sessionColl.UpdateByID(ctx, phone, update, opts); err != nil {
		return fmt.Errorf("error touching whatsapp session for %s: %w", phone, err)
	}
	return nil
}

func (repo *MongoNotifyRepo) SetBookingState(ctx context.Context, phone, state string, data map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"bookingState": state, "bookingData": data, "updatedAt": time.Now()}}
	opts := options.Update().SetUpsert(true)
	if _, err := repo.sessionColl.UpdateByID(ctx, phone, update, opts); err != nil {
		return fmt.Errorf("error setting booking state for %s: %w", phone, err)
	}
	return nil
}

func (repo *MongoNotifyRepo) LogCampaignSend(ctx context.Context, send *models.CampaignSend) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.campaignColl.InsertOne(ctx, send); err != nil {
		return fmt.Errorf("error logging campaign send: %w", err)
	}
	return nil
}
