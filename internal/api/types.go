package api

import (
	"time"

	"github.com/hackgods/branch-appointment-booking/internal/booking"
)

type AppointmentRequest struct {
	AppointmentType string `json:"appointment_type"`
	PostalCode      string `json:"postal_code"`
}

type BranchRequest struct {
	BranchID string `json:"branch_id"`
}

type SlotRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type ContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type AppointmentTypesResponse struct {
	AppointmentTypes []booking.AppointmentType `json:"appointment_types"`
}

type ContactValidity struct {
	Name  bool `json:"name"`
	Email bool `json:"email"`
	Phone bool `json:"phone"`
}

type DraftResponse struct {
	AppointmentType booking.AppointmentType `json:"appointment_type,omitempty"`
	PostalCode      string                  `json:"postal_code,omitempty"`
	Branch          *booking.Branch         `json:"branch,omitempty"`
	TimeSlot        *booking.TimeSlot       `json:"time_slot,omitempty"`
	DateLabel       string                  `json:"date_label,omitempty"`
	Contact         booking.ContactInfo     `json:"contact"`
	ContactValid    ContactValidity         `json:"contact_valid"`
}

type ConfirmationResponse struct {
	ConfirmationID  string                  `json:"confirmation_id"`
	AppointmentType booking.AppointmentType `json:"appointment_type"`
	Branch          booking.Branch          `json:"branch"`
	TimeSlot        booking.TimeSlot        `json:"time_slot"`
	DateLabel       string                  `json:"date_label"`
	Contact         booking.ContactInfo     `json:"contact"`
	IssuedAt        time.Time               `json:"issued_at"`
}

type SessionResponse struct {
	Step         string                `json:"step"`
	Title        string                `json:"title"`
	CanAdvance   bool                  `json:"can_advance"`
	Progress     []booking.StepStatus  `json:"progress"`
	Draft        DraftResponse         `json:"draft"`
	Confirmation *ConfirmationResponse `json:"confirmation,omitempty"`
}

type TransitionResponse struct {
	Moved   bool            `json:"moved"`
	Session SessionResponse `json:"session"`
}

type BranchesResponse struct {
	PostalCode string           `json:"postal_code"`
	Branches   []booking.Branch `json:"branches"`
}

type DateResponse struct {
	Date      string `json:"date"`
	Label     string `json:"label"`
	LongLabel string `json:"long_label"`
}

type DateWindowResponse struct {
	// Reference is the day the bookable window counts from.
	Reference string         `json:"reference"`
	Dates     []DateResponse `json:"dates"`
	Start     int            `json:"start"`
	PrevStart int            `json:"prev_start"`
	NextStart int            `json:"next_start"`
	HasPrev   bool           `json:"has_prev"`
	HasNext   bool           `json:"has_next"`
}

type SlotsResponse struct {
	Date      string             `json:"date"`
	LongLabel string             `json:"long_label"`
	Slots     []booking.TimeSlot `json:"slots"`
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func newSessionResponse(w *booking.Wizard) SessionResponse {
	d := w.Draft()
	resp := SessionResponse{
		Step:       w.Step().String(),
		Title:      w.Step().Title(),
		CanAdvance: w.CanAdvance(),
		Progress:   booking.Progress(w.Step()),
		Draft: DraftResponse{
			AppointmentType: d.AppointmentType,
			PostalCode:      d.PostalCode,
			Branch:          d.Branch,
			TimeSlot:        d.TimeSlot,
			Contact:         d.Contact,
			ContactValid: ContactValidity{
				Name:  d.Contact.NameValid(),
				Email: d.Contact.EmailValid(),
				Phone: d.Contact.PhoneValid(),
			},
		},
	}
	if d.TimeSlot != nil {
		resp.Draft.DateLabel = booking.LongDate(d.TimeSlot.Date)
	}
	if rec, ok := w.Record(); ok {
		resp.Confirmation = &ConfirmationResponse{
			ConfirmationID:  rec.ConfirmationID,
			AppointmentType: rec.AppointmentType,
			Branch:          rec.Branch,
			TimeSlot:        rec.TimeSlot,
			DateLabel:       booking.LongDate(rec.TimeSlot.Date),
			Contact:         rec.Contact,
			IssuedAt:        rec.IssuedAt,
		}
	}
	return resp
}

func newDateWindowResponse(cal *booking.Calendar, start int) DateWindowResponse {
	win := cal.Window(start)
	dates := make([]DateResponse, 0, len(win.Dates))
	for _, d := range win.Dates {
		dates = append(dates, DateResponse{Date: d, Label: booking.ShortDate(d), LongLabel: booking.LongDate(d)})
	}
	return DateWindowResponse{
		Reference: cal.Reference(),
		Dates:     dates,
		Start:     win.Start,
		PrevStart: win.PrevStart,
		NextStart: win.NextStart,
		HasPrev:   win.HasPrev,
		HasNext:   win.HasNext,
	}
}
