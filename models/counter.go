package models

import (
	"fmt"
	"strconv"
	"time"
)

// CounterKind identifies which monotonic counter a transaction is bumping.
type CounterKind int

const (
	CounterWalkIn       CounterKind = iota // per (clinic, doctor, date); feeds walk-in numeric tokens
	CounterClassic                         // per session; feeds the padded classic token
	CounterConsultation                    // per session; bumped on every Completed
)

// DocID builds the counter document id. The base is
// clinicId_doctorName_date; walk-in counters add _W, classic counters the
// session index, consultation counters _C{session}.
func (k CounterKind) DocID(clinicID, doctorName, date string, sessionIndex int) string {
	base := SanitizeDocID(fmt.Sprintf("%s_%s_%s", clinicID, doctorName, date))
	switch k {
	case CounterWalkIn:
		return base + "_W"
	case CounterClassic:
		return base + "_" + strconv.Itoa(sessionIndex)
	case CounterConsultation:
		return base + "_C" + strconv.Itoa(sessionIndex)
	}
	return base
}

func (k CounterKind) String() string {
	switch k {
	case CounterWalkIn:
		return "walk-in"
	case CounterClassic:
		return "classic"
	case CounterConsultation:
		return "consultation"
	}
	return "unknown"
}

// TokenCounter is the stored counter document.
type TokenCounter struct {
	ID        string    `bson:"_id" json:"id"`
	Count     int64     `bson:"count" json:"count"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// SessionKey renders a session index as the string key used inside
// availabilityExtensions documents.
func SessionKey(sessionIndex int) string {
	return strconv.Itoa(sessionIndex)
}
