package booking

import (
	"context"

	schedulerRepo "clinq/database/repository/scheduler"
	"clinq/models"
	"clinq/utils"

	"go.uber.org/zap"
)

// RebalanceWalkIns re-runs the scheduler over every session of the day and
// persists any row whose slot can tighten. Called after cancellations,
// status flips and break edits; a no-op when nothing moved.
func (s *DefaultBookingService) RebalanceWalkIns(ctx context.Context, clinicID, doctorID, date string) (*models.RebalanceResult, error) {
	bc, err := s.preload(ctx, clinicID, doctorID, "", date)
	if err != nil {
		return nil, err
	}
	spacing := bc.clinic.Spacing()

	result := &models.RebalanceResult{}
	err = s.runWithRetry(ctx, func(tx schedulerRepo.BookingTxn) error {
		now := s.Clock.Now()
		appts, err := tx.ListDayAppointments(clinicID, doctorID, date)
		if err != nil {
			return err
		}
		reservations, err := tx.ListDayReservations(clinicID, doctorID, date)
		if err != nil {
			return err
		}

		result.Updated = result.Updated[:0]
		for _, w := range bc.schedule.Sessions {
			candidates := sessionWalkInCandidates(appts, w.Index)
			occupants := sessionOccupants(appts, reservations, w, now, false)
			if len(candidates) == 0 && len(occupants) == 0 {
				continue
			}
			res, err := ScheduleWalkIns(ScheduleRequest{
				Slots:      bc.schedule.SessionSlots(w.Index),
				Step:       bc.schedule.Step,
				Now:        now,
				Spacing:    spacing,
				Occupants:  occupants,
				Candidates: candidates,
			})
			if err != nil {
				return err
			}
			updates := shiftUpdates(bc.schedule, w, res.Shifts)
			updates = append(updates, walkInMoveUpdates(bc.schedule, w, appts, res, "")...)
			for _, upd := range updates {
				if err := tx.ApplySlotUpdate(upd); err != nil {
					return err
				}
			}
			result.Updated = append(result.Updated, updates...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.Updated) > 0 {
		utils.GetLogger().Info("queue rebalanced",
			zap.String("clinic", clinicID),
			zap.String("doctor", doctorID),
			zap.String("date", date),
			zap.Int("moved", len(result.Updated)))
	}
	return result, nil
}
