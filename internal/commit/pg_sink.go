package commit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/hackgods/branch-appointment-booking/internal/booking"
	"github.com/hackgods/branch-appointment-booking/internal/db"
	redisclient "github.com/hackgods/branch-appointment-booking/internal/redis"
)

const uniqueViolation = "23505"

type EventLog struct {
	EventType      string
	ConfirmationID string
	Payload        []byte
	CreatedAt      time.Time
}

type PgSink struct {
	q      db.Querier
	locker redisclient.Locker
	log    *zap.Logger
}

func NewPgSink(q db.Querier, locker redisclient.Locker, log *zap.Logger) *PgSink {
	if locker == nil {
		locker = redisclient.NoopLocker{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PgSink{q: q, locker: locker, log: log}
}

// Commit stores rec unless another booking already holds its slot at the
// same branch. The check and insert run under the slot lock.
func (s *PgSink) Commit(ctx context.Context, rec booking.BookingRecord) error {
	slotKey := redisclient.SlotKey(rec.Branch.ID, rec.TimeSlot.Date, rec.TimeSlot.Time)

	err := s.locker.WithSlotLock(ctx, slotKey, func(lockCtx context.Context) error {
		existing, err := s.confirmedForSlot(lockCtx, rec)
		if err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if existing != "" {
			s.logEvent(lockCtx, rec.ConfirmationID, EventBookingRejected, map[string]any{
				"reason":    "slot_taken",
				"held_by":   existing,
				"branch_id": rec.Branch.ID,
				"slot_date": rec.TimeSlot.Date,
				"slot_time": rec.TimeSlot.Time,
			})
			return ErrSlotTaken
		}

		if err := s.insertBooking(lockCtx, rec); err != nil {
			return err
		}

		s.logEvent(lockCtx, rec.ConfirmationID, EventBookingConfirmed, map[string]any{
			"appointment_type": rec.AppointmentType,
			"branch_id":        rec.Branch.ID,
			"slot_date":        rec.TimeSlot.Date,
			"slot_time":        rec.TimeSlot.Time,
		})
		return nil
	})

	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrSlotBeingBooked
	}
	return err
}

func (s *PgSink) confirmedForSlot(ctx context.Context, rec booking.BookingRecord) (string, error) {
	var id string
	err := s.q.QueryRow(ctx, `
		SELECT confirmation_id
		FROM bookings
		WHERE branch_id = $1 AND slot_date = $2 AND slot_time = $3
	`, rec.Branch.ID, rec.TimeSlot.Date, rec.TimeSlot.Time).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return id, nil
}

func (s *PgSink) insertBooking(ctx context.Context, rec booking.BookingRecord) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO bookings (confirmation_id, appointment_type, branch_id, slot_date, slot_time,
		                      contact_name, contact_email, contact_phone, issued_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
	`,
		rec.ConfirmationID,
		string(rec.AppointmentType),
		rec.Branch.ID,
		rec.TimeSlot.Date,
		rec.TimeSlot.Time,
		rec.Contact.Name,
		rec.Contact.Email,
		booking.PhoneDigits(rec.Contact.Phone),
		rec.IssuedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSlotTaken
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (s *PgSink) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO event_logs (event_type, confirmation_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.ConfirmationID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func (s *PgSink) logEvent(ctx context.Context, confirmationID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("failed to marshal event payload", zap.String("event_type", eventType), zap.Error(err))
		data = nil
	}

	ev := EventLog{
		EventType:      eventType,
		ConfirmationID: confirmationID,
		Payload:        data,
		CreatedAt:      time.Now(),
	}

	if err := s.InsertEvent(ctx, ev); err != nil {
		s.log.Warn("failed to insert event log",
			zap.String("event_type", eventType),
			zap.String("confirmation_id", confirmationID),
			zap.Error(err),
		)
	}
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
