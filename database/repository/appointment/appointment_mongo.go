package appointmentRepo

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

// Reminder window names accepted by MarkReminderSent.
const (
	WindowEvening = "evening"
	WindowMorning = "morning"
)

// MongoAppointmentRepo implements AppointmentRepository using MongoDB.
type MongoAppointmentRepo struct {
	coll *mongo.Collection
}

// NewMongoAppointmentRepo constructs a new instance of MongoAppointmentRepo.
func NewMongoAppointmentRepo() AppointmentRepository {
	db := database.MongoClient.Database(database.DBName)
	return &MongoAppointmentRepo{coll: db.Collection("appointments")}
}

func (repo *MongoAppointmentRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var appt models.Appointment
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&appt); err != nil {
		return nil, fmt.Errorf("error fetching appointment with id %s: %w", id, err)
	}
	return &appt, nil
}

func (repo *MongoAppointmentRepo) ListDay(ctx context.Context, clinicID, doctorID, date string) ([]models.Appointment, error) {
	filter := bson.M{"clinicId": clinicID, "doctorId": doctorID, "date": date}
	return repo.list(ctx, filter)
}

func (repo *MongoAppointmentRepo) ListSession(ctx context.Context, clinicID, doctorID, date string, sessionIndex int) ([]models.Appointment, error) {
	filter := bson.M{
		"clinicId":     clinicID,
		"doctorId":     doctorID,
		"date":         date,
		"sessionIndex": sessionIndex,
	}
	return repo.list(ctx, filter)
}

func (repo *MongoAppointmentRepo) ListByDateAndStatus(ctx context.Context, date string, statuses []string) ([]models.Appointment, error) {
	filter := bson.M{"date": date, "status": bson.M{"$in": statuses}}
	return repo.list(ctx, filter)
}

func (repo *MongoAppointmentRepo) list(ctx context.Context, filter bson.M) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "slotIndex", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appts []models.Appointment
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("error decoding appointments: %w", err)
	}
	return appts, nil
}

func (repo *MongoAppointmentRepo) MarkReminderSent(ctx context.Context, id, window string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	field := "reminderEveningSent"
	if window == WindowMorning {
		field = "reminderMorningSent"
	}
	update := bson.M{"$set": bson.M{field: true, "updatedAt": time.Now()}}
	if _, err := repo.coll.UpdateByID(ctx, id, update); err != nil {
		return fmt.Errorf("error marking %s reminder for appointment %s: %w", window, id, err)
	}
	return nil
}

func (repo *MongoAppointmentRepo) MarkBookedNotified(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"bookedNotified": true, "updatedAt": time.Now()}}
	if _, err := repo.coll.UpdateByID(ctx, id, update); err != nil {
		return fmt.Errorf("error marking booked notification for appointment %s: %w", id, err)
	}
	return nil
}
