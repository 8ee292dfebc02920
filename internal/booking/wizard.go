package booking

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrBookingComplete = errors.New("booking already confirmed, reset to start a new one")
	ErrSlotNotFound    = errors.New("slot not found")
	ErrSlotHeld        = errors.New("slot is not available")
)

// Wizard is the booking state machine for one session. It is not safe for
// concurrent use; callers serialize events per session.
type Wizard struct {
	step     Step
	draft    Draft
	calendar *Calendar
	record   *BookingRecord

	issuer *Issuer
	now    func() time.Time
	rng    RandomSource
}

type Option func(*Wizard)

// WithClock sets the reference time used when the calendar is generated.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

func WithRandomSource(rng RandomSource) Option {
	return func(w *Wizard) { w.rng = rng }
}

func NewWizard(issuer *Issuer, opts ...Option) *Wizard {
	w := &Wizard{
		step:   StepTypeAndLocation,
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.issuer == nil {
		w.issuer = NewIssuer()
	}
	return w
}

func (w *Wizard) Step() Step {
	return w.step
}

// Draft returns a copy of the current selections.
func (w *Wizard) Draft() Draft {
	return w.draft.Clone()
}

// Record returns the booking issued on the Review to Done transition.
func (w *Wizard) Record() (BookingRecord, bool) {
	if w.record == nil {
		return BookingRecord{}, false
	}
	return *w.record, true
}

// Calendar returns the session's slot calendar, generating it on first use.
func (w *Wizard) Calendar() *Calendar {
	if w.calendar == nil {
		w.calendar = GenerateCalendar(w.now(), w.rng)
	}
	return w.calendar
}

func (w *Wizard) SetAppointmentType(t AppointmentType) error {
	if w.step == StepDone {
		return ErrBookingComplete
	}
	w.draft.SetAppointmentType(t)
	return nil
}

func (w *Wizard) SetPostalCode(code string) error {
	if w.step == StepDone {
		return ErrBookingComplete
	}
	w.draft.SetPostalCode(code)
	return nil
}

func (w *Wizard) SetBranch(b Branch) error {
	if w.step == StepDone {
		return ErrBookingComplete
	}
	w.draft.SetBranch(b)
	return nil
}

func (w *Wizard) SetContactInfo(c ContactInfo) error {
	if w.step == StepDone {
		return ErrBookingComplete
	}
	w.draft.SetContactInfo(c)
	return nil
}

// SelectTimeSlot picks the calendar slot at date and label. Unknown and held
// slots are rejected and leave the current selection untouched.
func (w *Wizard) SelectTimeSlot(date, label string) error {
	if w.step == StepDone {
		return ErrBookingComplete
	}
	slot, ok := w.Calendar().Lookup(date, label)
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrSlotNotFound, date, label)
	}
	if IsHeld(slot) {
		return fmt.Errorf("%w: %s %s", ErrSlotHeld, date, label)
	}
	w.draft.SetTimeSlot(slot)
	return nil
}

// CanAdvance reports whether Next would move forward from the current step.
func (w *Wizard) CanAdvance() bool {
	_, ok := forward[w.step]
	return ok && w.draft.IsValidForStep(w.step)
}

// Next moves one step forward when the current step's input is valid and
// reports whether it moved. Review to Done issues the booking record; an
// issuing failure leaves the wizard on Review.
func (w *Wizard) Next() (bool, error) {
	return w.NextWithCommit(nil)
}

// NextWithCommit is Next with a commit step: on Review to Done the issued
// record is passed to commit before the wizard enters Done. A commit error
// leaves the wizard on Review with no record.
func (w *Wizard) NextWithCommit(commit func(BookingRecord) error) (bool, error) {
	to, ok := forward[w.step]
	if !ok || !w.draft.IsValidForStep(w.step) {
		return false, nil
	}

	if to == StepDone {
		rec, err := w.issuer.Issue(w.draft)
		if err != nil {
			return false, fmt.Errorf("issue booking: %w", err)
		}
		if commit != nil {
			if err := commit(rec); err != nil {
				return false, fmt.Errorf("commit booking %s: %w", rec.ConfirmationID, err)
			}
		}
		w.record = &rec
	}

	w.step = to
	return true, nil
}

// Back moves to the previous step without touching the draft. It reports
// false on the first step and once the booking is done.
func (w *Wizard) Back() bool {
	to, ok := backward[w.step]
	if !ok {
		return false
	}
	w.step = to
	return true
}

// Reset starts a new booking: first step, empty draft, no record. The next
// calendar query generates a fresh calendar. Records handed out before the
// reset keep their values.
func (w *Wizard) Reset() {
	w.step = StepTypeAndLocation
	w.draft.Reset()
	w.calendar = nil
	w.record = nil
}
