package handlers

import (
	clinicRepoPkg "clinq/database/repository/clinic"
	"clinq/services/booking"
	"clinq/services/breaks"
	"clinq/services/notification"
	"clinq/services/queue"
)

// HandlerBundle groups every endpoint's dependencies into one struct so
// routes wire against a single value.
type HandlerBundle struct {
	Booking    booking.BookingService
	Queue      queue.QueueService
	Breaks     breaks.BreakService
	Dispatcher notification.Dispatcher
	ClinicRepo clinicRepoPkg.ClinicRepository
}
