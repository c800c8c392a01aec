package booking

import (
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"clinq/models"
	"clinq/utils"

	"go.uber.org/zap"
)

// Occupancy cell tags. A cell holds "" (empty), a tagged advance /
// blocked / break / reservation id, or a bare walk-in id.
const (
	tagShiftable = "__shiftable_"
	tagBlocked   = "__blocked_"
	tagBreak     = "__break_"
	tagReserved  = "__reserved_"
)

// overflowMargin is how many virtual slots are synthesised past the last
// physical (or occupied) index so shifts always have room to push.
const overflowMargin = 10

// gapFillWindow bounds how far ahead a hole or empty slot may be for the
// gap-fill and always-fill passes.
const gapFillWindow = 60 * time.Minute

// OccupantKind says how the scheduler treats an existing row.
type OccupantKind int

const (
	OccupantShiftable OccupantKind = iota // active advance; may slide later
	OccupantBlocked                       // completed or no-show; pinned
	OccupantBreak                         // break block; pinned, invisible to spacing
	OccupantReserved                      // in-flight slot reservation; pinned
	OccupantWalkIn                        // already-placed walk-in
)

// SlotOccupant pins an existing row onto the occupancy array. SlotIndex is
// the occupancy index, overflow band already stripped by the caller.
type SlotOccupant struct {
	ID        string
	Kind      OccupantKind
	SlotIndex int
}

// WalkInCandidate is a walk-in to place. CurrentSlotIndex carries the
// position an existing walk-in held before a rebalance, -1 for new ones.
type WalkInCandidate struct {
	ID               string
	NumericToken     int
	CreatedAt        time.Time
	CurrentSlotIndex int
}

// ScheduleRequest is the pure scheduler's whole world: one session's slots
// (absolute day indices preserved), the rows already on them, and the
// candidates to place.
type ScheduleRequest struct {
	Slots      []models.PhysicalSlot
	Step       int // D minutes, used to extrapolate overflow times
	Now        time.Time
	Spacing    int // advances kept between consecutive walk-ins (S)
	Occupants  []SlotOccupant
	Candidates []WalkInCandidate
}

// SlotAssignment is where one candidate landed.
type SlotAssignment struct {
	SlotIndex     int       `json:"slotIndex"` // absolute day index
	Time          time.Time `json:"time"`
	Overflow      bool      `json:"overflow"` // past the session's physical slots
	PatientsAhead int       `json:"patientsAhead"`
}

// AdvanceShift records a row pushed to a later slot to make room.
type AdvanceShift struct {
	ID        string    `json:"id"`
	FromIndex int       `json:"fromIndex"`
	ToIndex   int       `json:"toIndex"`
	Time      time.Time `json:"time"`
}

// ScheduleResult is deterministic: identical requests produce identical
// assignments and shifts.
type ScheduleResult struct {
	Assignments map[string]SlotAssignment `json:"assignments"`
	Shifts      []AdvanceShift            `json:"shifts"`
}

var walkInDebug struct {
	once sync.Once
	on   bool
}

func walkInDebugEnabled() bool {
	walkInDebug.once.Do(func() {
		v := os.Getenv("DEBUG_WALK_IN")
		walkInDebug.on = v == "1" || strings.EqualFold(v, "true")
	})
	return walkInDebug.on
}

// SetWalkInDebug overrides the env flag; tests use it to silence or force
// the verbose placement trace.
func SetWalkInDebug(on bool) {
	walkInDebug.once.Do(func() {})
	walkInDebug.on = on
}

// ScheduleWalkIns places every candidate onto the session's occupancy,
// shifting advance rows later where needed. Pinned occupants (blocked,
// break, reserved) never move. Fails only when even the synthesised
// overflow cannot absorb a candidate.
func ScheduleWalkIns(req ScheduleRequest) (*ScheduleResult, error) {
	if len(req.Slots) == 0 {
		return nil, NewBookingError(KindNoWalkInSlots, "session has no slots")
	}
	s, err := newOccupancy(req)
	if err != nil {
		return nil, err
	}

	cands := make([]WalkInCandidate, len(req.Candidates))
	copy(cands, req.Candidates)
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].NumericToken != cands[j].NumericToken {
			return cands[i].NumericToken < cands[j].NumericToken
		}
		if !cands[i].CreatedAt.Equal(cands[j].CreatedAt) {
			return cands[i].CreatedAt.Before(cands[j].CreatedAt)
		}
		return cands[i].ID < cands[j].ID
	})

	res := &ScheduleResult{Assignments: make(map[string]SlotAssignment, len(cands))}
	for _, c := range cands {
		rel, err := s.place(c)
		if err != nil {
			return nil, err
		}
		s.cells[rel] = c.ID
		res.Assignments[c.ID] = SlotAssignment{
			SlotIndex:     s.base + rel,
			Time:          s.timeAt(rel),
			Overflow:      rel >= s.physical,
			PatientsAhead: s.patientsAhead(rel),
		}
		if walkInDebugEnabled() {
			utils.GetLogger().Debug("walk-in placed",
				zap.String("candidate", c.ID),
				zap.Int("slot", s.base+rel),
				zap.Bool("overflow", rel >= s.physical))
		}
	}
	res.Shifts = s.finalShifts()
	return res, nil
}

// occupancy is the session view the passes operate on. All indices inside
// are relative to base (the session's first absolute slot index).
type occupancy struct {
	base     int
	physical int // number of physical cells; the rest are overflow
	step     time.Duration
	now      time.Time
	spacing  int
	cells    []string
	times    []time.Time
	origin   map[string]int // shiftable id -> input cell, for the final diff
}

func newOccupancy(req ScheduleRequest) (*occupancy, error) {
	base := req.Slots[0].AbsoluteIndex
	step := req.Step
	if step <= 0 {
		step = models.DefaultConsultationMinutes
	}

	maxRel := len(req.Slots) - 1
	for _, occ := range req.Occupants {
		if rel := occ.SlotIndex - base; rel > maxRel {
			maxRel = rel
		}
	}
	size := maxRel + 1 + overflowMargin

	s := &occupancy{
		base:     base,
		physical: len(req.Slots),
		step:     time.Duration(step) * time.Minute,
		now:      req.Now,
		spacing:  req.Spacing,
		cells:    make([]string, size),
		times:    make([]time.Time, size),
		origin:   make(map[string]int),
	}
	for i, slot := range req.Slots {
		s.times[i] = slot.Time
	}
	last := req.Slots[len(req.Slots)-1].Time
	for i := len(req.Slots); i < size; i++ {
		s.times[i] = last.Add(time.Duration(i-len(req.Slots)+1) * s.step)
	}

	// Pinned rows first, then advances that still own their cell, then
	// displaced advances scanning right in ascending order. Keeps every
	// undisturbed row where it is and appends the displaced ones after.
	var advances []SlotOccupant
	for _, occ := range req.Occupants {
		rel := occ.SlotIndex - base
		if rel < 0 || rel >= size {
			continue
		}
		switch occ.Kind {
		case OccupantBlocked:
			s.cells[rel] = tagBlocked + occ.ID
		case OccupantBreak:
			s.cells[rel] = tagBreak + occ.ID
		case OccupantReserved:
			s.cells[rel] = tagReserved + occ.ID
		default:
			advances = append(advances, occ)
		}
	}
	sort.SliceStable(advances, func(i, j int) bool {
		if advances[i].SlotIndex != advances[j].SlotIndex {
			return advances[i].SlotIndex < advances[j].SlotIndex
		}
		return advances[i].ID < advances[j].ID
	})
	var displaced []SlotOccupant
	for _, occ := range advances {
		rel := occ.SlotIndex - base
		if s.cells[rel] == "" {
			s.set(rel, occ)
			continue
		}
		displaced = append(displaced, occ)
	}
	for _, occ := range displaced {
		placed := false
		for rel := occ.SlotIndex - base; rel < size; rel++ {
			if s.cells[rel] == "" {
				s.set(rel, occ)
				placed = true
				break
			}
		}
		if !placed {
			return nil, NewBookingError(KindNoCandidate, "occupancy exhausted placing %s", occ.ID)
		}
	}
	return s, nil
}

func (s *occupancy) set(rel int, occ SlotOccupant) {
	if occ.Kind == OccupantWalkIn {
		s.cells[rel] = occ.ID
	} else {
		s.cells[rel] = tagShiftable + occ.ID
	}
	s.origin[occ.ID] = occ.SlotIndex - s.base
}

func (s *occupancy) timeAt(rel int) time.Time { return s.times[rel] }

func (s *occupancy) isShiftable(rel int) bool {
	return strings.HasPrefix(s.cells[rel], tagShiftable)
}

func (s *occupancy) isPinned(rel int) bool {
	c := s.cells[rel]
	return strings.HasPrefix(c, tagBlocked) ||
		strings.HasPrefix(c, tagBreak) ||
		strings.HasPrefix(c, tagReserved)
}

func (s *occupancy) isWalkIn(rel int) bool {
	c := s.cells[rel]
	return c != "" && !strings.HasPrefix(c, "__")
}

// place runs the pass cascade for one candidate and returns the freed cell.
func (s *occupancy) place(c WalkInCandidate) (int, error) {
	// 1. Gap-fill: the earliest hole within the hour left by a cancellation.
	for rel := range s.cells {
		if s.cells[rel] != "" || !s.inWindow(rel) {
			continue
		}
		if s.hasOccupantAfter(rel) {
			return s.makeSpace(rel)
		}
	}

	// 2. Preferred retention: keep an existing walk-in where it was, or
	// tighten it up against the previous walk-in.
	if c.CurrentSlotIndex >= 0 {
		pref := c.CurrentSlotIndex - s.base
		if pref >= 0 && pref < len(s.cells) {
			if l := s.lastWalkIn(); l >= 0 {
				for rel := l + 1; rel < pref; rel++ {
					if s.cells[rel] == "" && !s.timeAt(rel).Before(s.now) {
						return s.makeSpace(rel)
					}
				}
			}
			return s.makeSpace(pref)
		}
	}

	// 3. Spacing: one past the S-th shiftable advance after the anchor,
	// or past the last one when fewer than S remain.
	anchor := s.anchor()
	target := -1
	seen := 0
	lastAdv := -1
	for rel := anchor + 1; rel < len(s.cells); rel++ {
		if !s.isShiftable(rel) {
			continue
		}
		seen++
		lastAdv = rel
		if s.spacing > 0 && seen == s.spacing {
			target = rel + 1
			break
		}
	}
	if target < 0 && lastAdv >= 0 {
		target = lastAdv + 1
	}
	if target >= 0 && target < len(s.cells) {
		return s.makeSpace(target)
	}

	// 4. No spacing target: take any empty slot within the hour.
	for rel := range s.cells {
		if s.cells[rel] == "" && s.inWindow(rel) {
			return s.makeSpace(rel)
		}
	}

	// 6. Final fallback: the first empty future slot anywhere.
	for rel := range s.cells {
		if s.cells[rel] == "" && !s.timeAt(rel).Before(s.now) {
			return s.makeSpace(rel)
		}
	}
	return 0, NewBookingError(KindNoCandidate, "no slot for walk-in %s", c.ID)
}

// makeSpace walks right from target: pinned cells and placed walk-ins push
// the target beyond them; a run of shiftable advances slides one step right
// into the next empty cell. Returns the freed cell.
func (s *occupancy) makeSpace(target int) (int, error) {
	t := target
	for {
		for t < len(s.cells) && (s.isPinned(t) || s.isWalkIn(t)) {
			t++
		}
		if t >= len(s.cells) {
			return 0, NewBookingError(KindNoCandidate, "occupancy exhausted at slot %d", s.base+target)
		}
		if s.cells[t] == "" {
			return t, nil
		}
		// cells[t] starts a run of shiftable advances
		j := t
		for j < len(s.cells) && s.isShiftable(j) {
			j++
		}
		if j < len(s.cells) && s.cells[j] == "" {
			copy(s.cells[t+1:j+1], s.cells[t:j])
			s.cells[t] = ""
			return t, nil
		}
		if j >= len(s.cells) {
			return 0, NewBookingError(KindNoCandidate, "occupancy exhausted at slot %d", s.base+target)
		}
		t = j // blocked by a pinned cell or walk-in; restart past it
	}
}

// anchor is the cell spacing counts from: the last placed walk-in or, when
// none exists, the slot currently in progress (-1 before session start).
func (s *occupancy) anchor() int {
	inProgress := -1
	for rel := range s.cells {
		if s.timeAt(rel).After(s.now) {
			break
		}
		inProgress = rel
	}
	if l := s.lastWalkIn(); l > inProgress {
		return l
	}
	return inProgress
}

func (s *occupancy) lastWalkIn() int {
	for rel := len(s.cells) - 1; rel >= 0; rel-- {
		if s.isWalkIn(rel) {
			return rel
		}
	}
	return -1
}

func (s *occupancy) inWindow(rel int) bool {
	t := s.timeAt(rel)
	return !t.Before(s.now) && !t.After(s.now.Add(gapFillWindow))
}

func (s *occupancy) hasOccupantAfter(rel int) bool {
	for r := rel + 1; r < len(s.cells); r++ {
		if s.cells[r] != "" {
			return true
		}
	}
	return false
}

// patientsAhead counts waiting rows (advances and walk-ins) between the
// in-progress slot and rel.
func (s *occupancy) patientsAhead(rel int) int {
	start := -1
	for r := range s.cells {
		if s.timeAt(r).After(s.now) {
			break
		}
		start = r
	}
	n := 0
	for r := start + 1; r < rel && r < len(s.cells); r++ {
		if s.isShiftable(r) || s.isWalkIn(r) {
			n++
		}
	}
	return n
}

// finalShifts diffs every occupant that entered with a cell of its own
// against where it ended up. Covers slid advances and the rare walk-in
// displaced by a fresh break.
func (s *occupancy) finalShifts() []AdvanceShift {
	var shifts []AdvanceShift
	for rel, cell := range s.cells {
		if cell == "" || s.isPinned(rel) {
			continue
		}
		id := strings.TrimPrefix(cell, tagShiftable)
		orig, ok := s.origin[id]
		if !ok || orig == rel {
			continue
		}
		shifts = append(shifts, AdvanceShift{
			ID:        id,
			FromIndex: s.base + orig,
			ToIndex:   s.base + rel,
			Time:      s.timeAt(rel),
		})
	}
	return shifts
}
