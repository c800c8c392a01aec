package booking

import (
	"math"
	"time"

	"clinq/models"
)

// AdvanceShare is the advance fraction of each session's future slots.
const AdvanceShare = 0.85

// SessionCapacity is the advance/walk-in split of one session, computed
// against current wall time: only slots that have not started yet count,
// so the reserved band shrinks as the session runs.
type SessionCapacity struct {
	SessionIndex    int          `json:"sessionIndex"`
	FutureSlots     int          `json:"futureSlots"`
	AdvanceCapacity int          `json:"advanceCapacity"`
	WalkInCapacity  int          `json:"walkInCapacity"`
	ReservedIndices map[int]bool `json:"-"` // absolute indices held back for walk-ins
}

// Reserved reports whether an absolute slot index is in the walk-in band.
func (sc SessionCapacity) Reserved(absoluteIndex int) bool {
	return sc.ReservedIndices[absoluteIndex]
}

// splitAdvance returns the advance share of n future slots: the integer
// closest to 85% of n (tie goes to the floor), always leaving at least one
// walk-in slot when any future slot exists.
func splitAdvance(n int) int {
	if n <= 0 {
		return 0
	}
	exact := AdvanceShare * float64(n)
	lo := math.Floor(exact)
	hi := math.Ceil(exact)
	adv := int(lo)
	if hi-exact < exact-lo {
		adv = int(hi)
	}
	if n-adv < 1 {
		adv = n - 1
	}
	return adv
}

// ComputeSessionCapacity splits one session's future slots and marks the
// last 15% of them reserved for walk-ins.
func ComputeSessionCapacity(ds *models.DaySchedule, sessionIndex int, now time.Time) SessionCapacity {
	sc := SessionCapacity{SessionIndex: sessionIndex, ReservedIndices: map[int]bool{}}
	var future []int
	for _, slot := range ds.SessionSlots(sessionIndex) {
		if !slot.Time.Before(now) {
			future = append(future, slot.AbsoluteIndex)
		}
	}
	sc.FutureSlots = len(future)
	sc.AdvanceCapacity = splitAdvance(sc.FutureSlots)
	sc.WalkInCapacity = sc.FutureSlots - sc.AdvanceCapacity
	for _, idx := range future[len(future)-sc.WalkInCapacity:] {
		sc.ReservedIndices[idx] = true
	}
	return sc
}

// ComputeDayCapacity splits every session for the date.
func ComputeDayCapacity(ds *models.DaySchedule, now time.Time) []SessionCapacity {
	out := make([]SessionCapacity, 0, len(ds.Sessions))
	for _, w := range ds.Sessions {
		out = append(out, ComputeSessionCapacity(ds, w.Index, now))
	}
	return out
}

// DayAdvanceCapacity is the whole-day advance cap: the sum of the
// per-session advance capacities.
func DayAdvanceCapacity(ds *models.DaySchedule, now time.Time) int {
	total := 0
	for _, sc := range ComputeDayCapacity(ds, now) {
		total += sc.AdvanceCapacity
	}
	return total
}

// ReservedWalkInIndices is the union of every session's reserved band.
func ReservedWalkInIndices(ds *models.DaySchedule, now time.Time) map[int]bool {
	out := map[int]bool{}
	for _, sc := range ComputeDayCapacity(ds, now) {
		for idx := range sc.ReservedIndices {
			out[idx] = true
		}
	}
	return out
}
