package models

// QueueState is the live view the staff app polls: who has arrived, who is
// in the buffer next to the door, who was skipped, and who is inside.
type QueueState struct {
	ArrivedQueue             []Appointment `json:"arrivedQueue"`
	BufferQueue              []Appointment `json:"bufferQueue"`
	SkippedQueue             []Appointment `json:"skippedQueue"`
	CurrentConsultation      *Appointment  `json:"currentConsultation,omitempty"`
	ConsultationCount        int           `json:"consultationCount"`
	NextBreakDurationMinutes *int          `json:"nextBreakDurationMinutes,omitempty"` // only while the doctor is Out
}
