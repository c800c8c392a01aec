package booking

import (
	"testing"
	"time"

	"clinq/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSlots(base int, start time.Time, n, stepMin int) []models.PhysicalSlot {
	slots := make([]models.PhysicalSlot, n)
	for i := range slots {
		slots[i] = models.PhysicalSlot{
			AbsoluteIndex: base + i,
			SessionIndex:  0,
			Time:          start.Add(time.Duration(i*stepMin) * time.Minute),
		}
	}
	return slots
}

func TestScheduleWalkInsEmptySession(t *testing.T) {
	SetWalkInDebug(false)
	start := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC)
	req := ScheduleRequest{
		Slots:      makeSlots(0, start, 12, 15),
		Step:       15,
		Now:        start,
		Spacing:    5,
		Candidates: []WalkInCandidate{{ID: "w1", NumericToken: 101, CurrentSlotIndex: -1}},
	}

	res, err := ScheduleWalkIns(req)
	require.NoError(t, err)
	a := res.Assignments["w1"]
	assert.Equal(t, 0, a.SlotIndex)
	assert.False(t, a.Overflow)
	assert.Equal(t, 0, a.PatientsAhead)
	assert.Empty(t, res.Shifts)
}

func TestScheduleWalkInsSpacingShiftsAdvances(t *testing.T) {
	start := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC)
	req := ScheduleRequest{
		Slots:   makeSlots(0, start, 12, 15),
		Step:    15,
		Now:     start.Add(-time.Hour),
		Spacing: 2,
		Occupants: []SlotOccupant{
			{ID: "a0", Kind: OccupantShiftable, SlotIndex: 0},
			{ID: "a1", Kind: OccupantShiftable, SlotIndex: 1},
			{ID: "a2", Kind: OccupantShiftable, SlotIndex: 2},
			{ID: "a3", Kind: OccupantShiftable, SlotIndex: 3},
		},
		Candidates: []WalkInCandidate{{ID: "w1", NumericToken: 101, CurrentSlotIndex: -1}},
	}

	res, err := ScheduleWalkIns(req)
	require.NoError(t, err)

	// Two advances stay ahead of the walk-in; the rest slide one step right.
	a := res.Assignments["w1"]
	assert.Equal(t, 2, a.SlotIndex)
	assert.Equal(t, 2, a.PatientsAhead)
	require.Len(t, res.Shifts, 2)
	moved := map[string][2]int{}
	for _, sh := range res.Shifts {
		moved[sh.ID] = [2]int{sh.FromIndex, sh.ToIndex}
	}
	assert.Equal(t, [2]int{2, 3}, moved["a2"])
	assert.Equal(t, [2]int{3, 4}, moved["a3"])
}

func TestScheduleWalkInsGapFill(t *testing.T) {
	start := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC)
	req := ScheduleRequest{
		Slots:   makeSlots(0, start, 8, 15),
		Step:    15,
		Now:     start,
		Spacing: 5,
		Occupants: []SlotOccupant{
			{ID: "a0", Kind: OccupantShiftable, SlotIndex: 0},
			// slot 1 freed by a cancellation
			{ID: "a2", Kind: OccupantShiftable, SlotIndex: 2},
			{ID: "a3", Kind: OccupantShiftable, SlotIndex: 3},
		},
		Candidates: []WalkInCandidate{{ID: "w1", NumericToken: 101, CurrentSlotIndex: -1}},
	}

	res, err := ScheduleWalkIns(req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Assignments["w1"].SlotIndex)
	assert.Empty(t, res.Shifts, "gap-fill must not move anyone")
}

func TestScheduleWalkInsPinnedNeverMove(t *testing.T) {
	start := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC)
	req := ScheduleRequest{
		Slots:   makeSlots(0, start, 8, 15),
		Step:    15,
		Now:     start.Add(-time.Hour),
		Spacing: 1,
		Occupants: []SlotOccupant{
			{ID: "a0", Kind: OccupantShiftable, SlotIndex: 0},
			{ID: "done", Kind: OccupantBlocked, SlotIndex: 1},
			{ID: "held", Kind: OccupantReserved, SlotIndex: 2},
		},
		Candidates: []WalkInCandidate{{ID: "w1", NumericToken: 101, CurrentSlotIndex: -1}},
	}

	res, err := ScheduleWalkIns(req)
	require.NoError(t, err)

	// Spacing lands on slot 1, but both 1 and 2 are pinned; the walk-in goes
	// past them and no shift touches the pinned rows.
	assert.Equal(t, 3, res.Assignments["w1"].SlotIndex)
	for _, sh := range res.Shifts {
		assert.NotEqual(t, "done", sh.ID)
		assert.NotEqual(t, "held", sh.ID)
	}
}

func TestScheduleWalkInsPreferredRetention(t *testing.T) {
	start := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC)
	req := ScheduleRequest{
		Slots:   makeSlots(0, start, 8, 15),
		Step:    15,
		Now:     start,
		Spacing: 5,
		Occupants: []SlotOccupant{
			{ID: "a0", Kind: OccupantShiftable, SlotIndex: 0},
			{ID: "a1", Kind: OccupantShiftable, SlotIndex: 1},
			{ID: "a2", Kind: OccupantShiftable, SlotIndex: 2},
			{ID: "a3", Kind: OccupantShiftable, SlotIndex: 3},
			{ID: "a4", Kind: OccupantShiftable, SlotIndex: 4},
			{ID: "a5", Kind: OccupantShiftable, SlotIndex: 5},
			{ID: "a6", Kind: OccupantShiftable, SlotIndex: 6},
			{ID: "a7", Kind: OccupantShiftable, SlotIndex: 7},
		},
		Candidates: []WalkInCandidate{{ID: "w1", NumericToken: 101, CurrentSlotIndex: 5}},
	}

	res, err := ScheduleWalkIns(req)
	require.NoError(t, err)
	// Rebalance resubmits the walk-in with its old position; a full session
	// keeps it exactly there.
	assert.Equal(t, 5, res.Assignments["w1"].SlotIndex)
}

func TestScheduleWalkInsOverflow(t *testing.T) {
	start := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC)
	occ := make([]SlotOccupant, 4)
	for i := range occ {
		occ[i] = SlotOccupant{ID: "done" + string(rune('0'+i)), Kind: OccupantBlocked, SlotIndex: i}
	}
	req := ScheduleRequest{
		Slots:      makeSlots(0, start, 4, 15),
		Step:       15,
		Now:        start.Add(time.Hour), // session over, all slots blocked
		Spacing:    5,
		Occupants:  occ,
		Candidates: []WalkInCandidate{{ID: "w1", NumericToken: 101, CurrentSlotIndex: -1}},
	}

	res, err := ScheduleWalkIns(req)
	require.NoError(t, err)
	a := res.Assignments["w1"]
	assert.True(t, a.Overflow)
	assert.GreaterOrEqual(t, a.SlotIndex, 4)
	// Overflow times extrapolate in D-minute steps past the last slot.
	assert.True(t, a.Time.After(start.Add(45*time.Minute)))
}

func TestScheduleWalkInsDeterministic(t *testing.T) {
	start := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC)
	req := ScheduleRequest{
		Slots:   makeSlots(0, start, 10, 15),
		Step:    15,
		Now:     start,
		Spacing: 3,
		Occupants: []SlotOccupant{
			{ID: "a0", Kind: OccupantShiftable, SlotIndex: 0},
			{ID: "a1", Kind: OccupantShiftable, SlotIndex: 2},
			{ID: "a2", Kind: OccupantShiftable, SlotIndex: 4},
		},
		Candidates: []WalkInCandidate{
			{ID: "w2", NumericToken: 102, CurrentSlotIndex: -1},
			{ID: "w1", NumericToken: 101, CurrentSlotIndex: -1},
		},
	}

	first, err := ScheduleWalkIns(req)
	require.NoError(t, err)
	second, err := ScheduleWalkIns(req)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Lower numeric tokens place first regardless of input order.
	assert.Less(t, first.Assignments["w1"].SlotIndex, first.Assignments["w2"].SlotIndex)
}

func TestScheduleWalkInsNoSlots(t *testing.T) {
	_, err := ScheduleWalkIns(ScheduleRequest{})
	require.Error(t, err)
	assert.Equal(t, KindNoWalkInSlots, KindOf(err))
}
