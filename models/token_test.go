package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenFormats(t *testing.T) {
	assert.Equal(t, "A1-004", FormatAdvanceToken(0, 4))
	assert.Equal(t, "A2-012", FormatAdvanceToken(1, 12))
	assert.Equal(t, "W1-105", FormatWalkInToken(0, 105))
	assert.Equal(t, "007", FormatClassicToken(7))
	assert.Equal(t, "123", FormatClassicToken(123))
}

func TestValidToken(t *testing.T) {
	for _, ok := range []string{"A1-004", "W2-105", "A10-999"} {
		assert.True(t, ValidToken(ok), ok)
	}
	for _, bad := range []string{"", "A0-004", "B1-004", "A1-04", "007", "A1_004"} {
		assert.False(t, ValidToken(bad), bad)
	}
}

func TestTokenSession(t *testing.T) {
	assert.Equal(t, 1, TokenSession("A1-004"))
	assert.Equal(t, 2, TokenSession("W2-105"))
	assert.Equal(t, 0, TokenSession("garbage"))
}

func TestDisplayTokenAdvancedMode(t *testing.T) {
	a := &Appointment{TokenNumber: "A1-004", ClassicTokenNumber: "007"}
	assert.Equal(t, "A1-004", DisplayToken(a, TokenModeAdvanced))
}

func TestDisplayTokenClassicMode(t *testing.T) {
	withClassic := &Appointment{TokenNumber: "A1-004", ClassicTokenNumber: "007"}
	assert.Equal(t, "007", DisplayToken(withClassic, TokenModeClassic))

	// A classic clinic's walk-in without a running number shows its W token.
	walkIn := &Appointment{TokenNumber: "W1-105", BookedVia: BookedViaWalkIn}
	assert.Equal(t, "W1-105", DisplayToken(walkIn, TokenModeClassic))

	// An advance without a running number shows nothing.
	advance := &Appointment{TokenNumber: "A1-004", BookedVia: BookedViaAdvance}
	assert.Equal(t, "", DisplayToken(advance, TokenModeClassic))
}

func TestOccupancyIndexStripsOverflowBand(t *testing.T) {
	assert.Equal(t, 5, (&Appointment{SlotIndex: 5}).OccupancyIndex())
	assert.Equal(t, 7, (&Appointment{SlotIndex: OverflowBase + 7}).OccupancyIndex())
}

func TestQueueOrdering(t *testing.T) {
	bySlot := []*Appointment{
		{ID: "b", SessionIndex: 0, SlotIndex: 4, NumericToken: 5},
		{ID: "a", SessionIndex: 0, SlotIndex: 2, NumericToken: 3},
	}
	assert.True(t, TokenModeAdvanced.Less(bySlot[1], bySlot[0]))
	assert.False(t, TokenModeAdvanced.Less(bySlot[0], bySlot[1]))

	classic := []*Appointment{
		{ID: "x", ClassicTokenNumber: "012", SlotIndex: 1},
		{ID: "y", ClassicTokenNumber: "003", SlotIndex: 9},
	}
	assert.True(t, TokenModeClassic.Less(classic[1], classic[0]))
}

func TestCounterDocIDs(t *testing.T) {
	assert.Equal(t, "c1_Dr_Menon_20260104_W", CounterWalkIn.DocID("c1", "Dr Menon", "2026-01-04", 0))
	assert.Equal(t, "c1_Dr_Menon_20260104_1", CounterClassic.DocID("c1", "Dr Menon", "2026-01-04", 1))
	assert.Equal(t, "c1_Dr_Menon_20260104_C0", CounterConsultation.DocID("c1", "Dr Menon", "2026-01-04", 0))
}

func TestReservationDocID(t *testing.T) {
	id := ReservationDocID("c1", "Dr. Menon", "2026-01-04", 3)
	assert.Equal(t, "c1_Dr_Menon_20260104_slot_3", id)
}
