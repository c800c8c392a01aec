package schedulerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinq/database"
	"clinq/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoSchedulerRepo implements SchedulerRepository using MongoDB.
type MongoSchedulerRepo struct {
	appointmentColl *mongo.Collection
	reservationColl *mongo.Collection
	counterColl     *mongo.Collection
	doctorColl      *mongo.Collection
	patientColl     *mongo.Collection
}

// NewMongoSchedulerRepo constructs a new instance of MongoSchedulerRepo.
func NewMongoSchedulerRepo() SchedulerRepository {
	db := database.MongoClient.Database(database.DBName)
	return &MongoSchedulerRepo{
		appointmentColl: db.Collection("appointments"),
		reservationColl: db.Collection("reservations"),
		counterColl:     db.Collection("counters"),
		doctorColl:      db.Collection("doctors"),
		patientColl:     db.Collection("patients"),
	}
}

func (repo *MongoSchedulerRepo) CleanupStaleReservations(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":     models.ReservationReserved,
		"reservedAt": bson.M{"$lt": cutoff},
	}
	res, err := repo.reservationColl.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("cleanup stale reservations: %w", err)
	}
	return res.DeletedCount, nil
}

func (repo *MongoSchedulerRepo) CounterValue(ctx context.Context, id string) (int64, error) {
	var c models.TokenCounter
	err := repo.counterColl.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", id, err)
	}
	return c.Count, nil
}
