package schedulerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinq/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RunBookingTxn runs fn inside one MongoDB multi-document transaction.
// Write conflicts and duplicate reservation inserts come back as
// ErrTxnConflict so the booking engine can retry against fresh state.
func (repo *MongoSchedulerRepo) RunBookingTxn(ctx context.Context, fn func(tx BookingTxn) error) error {
	client := repo.appointmentColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return fmt.Errorf("start transaction: %w", err)
		}
		if err := fn(&mongoTxn{sc: sc, repo: repo}); err != nil {
			_ = sc.AbortTransaction(sc)
			return classifyTxnErr(err)
		}
		if err := sc.CommitTransaction(sc); err != nil {
			return classifyTxnErr(err)
		}
		return nil
	})
}

// classifyTxnErr maps driver errors onto the repository sentinels.
func classifyTxnErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrTxnConflict, err)
	}
	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) {
		switch {
		case srvErr.HasErrorLabel("TransientTransactionError"),
			srvErr.HasErrorCode(112): // WriteConflict
			return fmt.Errorf("%w: %v", ErrTxnConflict, err)
		case srvErr.HasErrorCode(13): // Unauthorized
			return fmt.Errorf("%w: %v", ErrPermission, err)
		}
	}
	return err
}

// mongoTxn implements BookingTxn over a session context.
type mongoTxn struct {
	sc   mongo.SessionContext
	repo *MongoSchedulerRepo
}

func (m *mongoTxn) GetReservation(id string) (*models.SlotReservation, error) {
	var res models.SlotReservation
	err := m.repo.reservationColl.FindOne(m.sc, bson.M{"_id": id}).Decode(&res)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read reservation %s: %w", id, err)
	}
	return &res, nil
}

func (m *mongoTxn) PutReservation(res *models.SlotReservation) error {
	if _, err := m.repo.reservationColl.InsertOne(m.sc, res); err != nil {
		return fmt.Errorf("insert reservation %s: %w", res.ID, err)
	}
	return nil
}

func (m *mongoTxn) DeleteReservation(id string) error {
	if _, err := m.repo.reservationColl.DeleteOne(m.sc, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete reservation %s: %w", id, err)
	}
	return nil
}

func (m *mongoTxn) ListDayReservations(clinicID, doctorID, date string) ([]models.SlotReservation, error) {
	filter := bson.M{"clinicId": clinicID, "doctorId": doctorID, "date": date}
	cursor, err := m.repo.reservationColl.Find(m.sc, filter)
	if err != nil {
		return nil, fmt.Errorf("list day reservations: %w", err)
	}
	defer cursor.Close(m.sc)

	var out []models.SlotReservation
	if err := cursor.All(m.sc, &out); err != nil {
		return nil, fmt.Errorf("decode day reservations: %w", err)
	}
	return out, nil
}

func (m *mongoTxn) GetCounter(id string) (int64, error) {
	var c models.TokenCounter
	err := m.repo.counterColl.FindOne(m.sc, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", id, err)
	}
	return c.Count, nil
}

func (m *mongoTxn) SetCounter(id string, value int64) error {
	update := bson.M{"$set": bson.M{"count": value, "updatedAt": time.Now()}}
	opts := options.Update().SetUpsert(true)
	if _, err := m.repo.counterColl.UpdateByID(m.sc, id, update, opts); err != nil {
		return fmt.Errorf("set counter %s: %w", id, err)
	}
	return nil
}

func (m *mongoTxn) ListDayAppointments(clinicID, doctorID, date string) ([]models.Appointment, error) {
	filter := bson.M{"clinicId": clinicID, "doctorId": doctorID, "date": date}
	opts := options.Find().SetSort(bson.D{{Key: "slotIndex", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := m.repo.appointmentColl.Find(m.sc, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list day appointments: %w", err)
	}
	defer cursor.Close(m.sc)

	var appts []models.Appointment
	if err := cursor.All(m.sc, &appts); err != nil {
		return nil, fmt.Errorf("decode day appointments: %w", err)
	}
	return appts, nil
}

func (m *mongoTxn) InsertAppointment(appt *models.Appointment) error {
	if _, err := m.repo.appointmentColl.InsertOne(m.sc, appt); err != nil {
		return fmt.Errorf("insert appointment %s: %w", appt.ID, err)
	}
	return nil
}

func (m *mongoTxn) ApplySlotUpdate(upd models.AppointmentUpdate) error {
	set := bson.M{
		"slotIndex":    upd.SlotIndex,
		"sessionIndex": upd.SessionIndex,
		"time":         upd.Time,
		"updatedAt":    time.Now(),
	}
	if upd.ArriveByTime != "" {
		set["arriveByTime"] = upd.ArriveByTime
	}
	if upd.CutOffTime != "" {
		set["cutOffTime"] = upd.CutOffTime
	}
	if upd.NoShowTime != "" {
		set["noShowTime"] = upd.NoShowTime
	}
	if _, err := m.repo.appointmentColl.UpdateByID(m.sc, upd.AppointmentID, bson.M{"$set": set}); err != nil {
		return fmt.Errorf("apply slot update %s: %w", upd.AppointmentID, err)
	}
	return nil
}

func (m *mongoTxn) SetAppointmentStatus(id, status string) error {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}}
	if _, err := m.repo.appointmentColl.UpdateByID(m.sc, id, update); err != nil {
		return fmt.Errorf("set appointment %s status: %w", id, err)
	}
	return nil
}

func (m *mongoTxn) SetInBuffer(id string, inBuffer bool) error {
	update := bson.M{"$set": bson.M{"isInBuffer": inBuffer, "updatedAt": time.Now()}}
	if _, err := m.repo.appointmentColl.UpdateByID(m.sc, id, update); err != nil {
		return fmt.Errorf("set appointment %s buffer flag: %w", id, err)
	}
	return nil
}

func (m *mongoTxn) DeleteAppointment(id string) error {
	if _, err := m.repo.appointmentColl.DeleteOne(m.sc, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete appointment %s: %w", id, err)
	}
	return nil
}

func (m *mongoTxn) SetDoctorBreaks(doctorID, date string, breaks []models.BreakPeriod) error {
	update := bson.M{"$set": bson.M{"breakPeriods." + date: breaks}}
	if _, err := m.repo.doctorColl.UpdateByID(m.sc, doctorID, update); err != nil {
		return fmt.Errorf("set doctor %s breaks: %w", doctorID, err)
	}
	return nil
}

func (m *mongoTxn) SetDoctorExtension(doctorID, date string, sessionIndex int, ext models.SessionExtension) error {
	field := fmt.Sprintf("availabilityExtensions.%s.sessions.%s", date, models.SessionKey(sessionIndex))
	update := bson.M{"$set": bson.M{field: ext}}
	if _, err := m.repo.doctorColl.UpdateByID(m.sc, doctorID, update); err != nil {
		return fmt.Errorf("set doctor %s extension: %w", doctorID, err)
	}
	return nil
}

func (m *mongoTxn) RecordVisit(patientID string, visit models.PatientVisit) error {
	update := bson.M{
		"$inc":      bson.M{"totalVisits": 1},
		"$addToSet": bson.M{"clinicIds": visit.ClinicID},
		"$push":     bson.M{"visitHistory": visit},
	}
	if _, err := m.repo.patientColl.UpdateByID(m.sc, patientID, update); err != nil {
		return fmt.Errorf("record visit for patient %s: %w", patientID, err)
	}
	return nil
}
