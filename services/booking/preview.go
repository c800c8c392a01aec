package booking

import (
	"context"
	"encoding/json"
	"time"

	"clinq/models"
	"clinq/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// previewTTL is how long a cached placement preview stays valid.
const previewTTL = 10 * time.Minute

const previewKeyPrefix = "walkin-preview:"

// PreviewWalkIn runs the scheduler dry against current state and reports
// where the token would land, without writing anything. The placement is
// cached so the confirmation screen and the confirm call agree.
func (s *DefaultBookingService) PreviewWalkIn(ctx context.Context, req models.BookWalkInRequest) (*models.WalkInPlacement, error) {
	date := utils.FormatISODate(s.Clock.Now())
	bc, err := s.preload(ctx, req.ClinicID, req.DoctorID, req.PatientID, date)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	w, err := s.resolveWalkInSession(bc.schedule, now, req)
	if err != nil {
		return nil, err
	}
	if hasActiveAppointment(bc.appointments, req.PatientID) {
		return nil, NewBookingError(KindDuplicate, "patient %s already holds a token for this doctor today", req.PatientID)
	}

	// Token number is an estimate; the transaction re-reads the counter.
	walkInCount := 0
	for i := range bc.appointments {
		if bc.appointments[i].IsWalkIn() {
			walkInCount++
		}
	}
	placeholderID := "preview-" + uuid.New().String()
	candidates := append(sessionWalkInCandidates(bc.appointments, w.Index), WalkInCandidate{
		ID:               placeholderID,
		NumericToken:     len(bc.schedule.Slots) + walkInCount + 1 + walkInTokenBase,
		CreatedAt:        now,
		CurrentSlotIndex: -1,
	})
	res, err := ScheduleWalkIns(ScheduleRequest{
		Slots:      bc.schedule.SessionSlots(w.Index),
		Step:       bc.schedule.Step,
		Now:        now,
		Spacing:    bc.clinic.Spacing(),
		Occupants:  sessionOccupants(bc.appointments, nil, w, now, false),
		Candidates: candidates,
	})
	if err != nil {
		return nil, err
	}
	assignment, ok := res.Assignments[placeholderID]
	if !ok {
		return nil, NewBookingError(KindNoCandidate, "scheduler returned no placement")
	}

	placement := &models.WalkInPlacement{
		PreviewID:     placeholderID,
		SlotIndex:     remapOverflow(bc.schedule, w, assignment.SlotIndex),
		SessionIndex:  w.Index,
		EstimatedTime: utils.FormatTime(assignment.Time),
		PatientsAhead: assignment.PatientsAhead,
		Overflow:      assignment.Overflow,
		AdvanceShifts: shiftUpdates(bc.schedule, w, res.Shifts),
	}
	placement.WalkInAssignments = make(map[string]int, len(res.Assignments)-1)
	for id, asg := range res.Assignments {
		if id == placeholderID {
			continue
		}
		placement.WalkInAssignments[id] = remapOverflow(bc.schedule, w, asg.SlotIndex)
	}

	if s.CacheClient != nil {
		if data, err := json.Marshal(placement); err == nil {
			if err := s.CacheClient.Set(ctx, previewKeyPrefix+placeholderID, data, previewTTL).Err(); err != nil {
				utils.GetLogger().Warn("could not cache walk-in preview", zap.Error(err))
			}
		}
	}
	return placement, nil
}
