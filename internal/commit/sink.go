package commit

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/hackgods/branch-appointment-booking/internal/booking"
)

const (
	EventBookingConfirmed = "BOOKING_CONFIRMED"
	EventBookingRejected  = "BOOKING_REJECTED"
)

var (
	ErrSlotTaken       = errors.New("slot already has a confirmed booking at this branch")
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
)

// Sink durably records finalized bookings.
type Sink interface {
	Commit(ctx context.Context, rec booking.BookingRecord) error
}

// LogSink only logs the booking. It is used when no database is configured.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSink{log: log}
}

func (s *LogSink) Commit(_ context.Context, rec booking.BookingRecord) error {
	s.log.Info("booking committed",
		zap.String("confirmation_id", rec.ConfirmationID),
		zap.String("appointment_type", string(rec.AppointmentType)),
		zap.String("branch_id", rec.Branch.ID),
		zap.String("slot_date", rec.TimeSlot.Date),
		zap.String("slot_time", rec.TimeSlot.Time),
	)
	return nil
}
