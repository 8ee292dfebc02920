package booking

import (
	"time"
)

type AppointmentType string

const (
	TypeNewAccountOpening     AppointmentType = "New Account Opening"
	TypeLoanConsultation      AppointmentType = "Loan Consultation"
	TypeMortgageDiscussion    AppointmentType = "Mortgage Discussion"
	TypeFinancialPlanning     AppointmentType = "Financial Planning"
	TypeCreditCardApplication AppointmentType = "Credit Card Application"
	TypeInvestmentServices    AppointmentType = "Investment Services"
	TypeBusinessBanking       AppointmentType = "Business Banking"
	TypeGeneralInquiry        AppointmentType = "General Inquiry"
)

// AppointmentTypes lists the closed set in display order.
var AppointmentTypes = []AppointmentType{
	TypeNewAccountOpening,
	TypeLoanConsultation,
	TypeMortgageDiscussion,
	TypeFinancialPlanning,
	TypeCreditCardApplication,
	TypeInvestmentServices,
	TypeBusinessBanking,
	TypeGeneralInquiry,
}

func (t AppointmentType) Valid() bool {
	for _, known := range AppointmentTypes {
		if t == known {
			return true
		}
	}
	return false
}

func ParseAppointmentType(s string) (AppointmentType, bool) {
	t := AppointmentType(s)
	if !t.Valid() {
		return "", false
	}
	return t, true
}

const DefaultBranchHours = "Mon-Fri: 9AM - 5PM"

type Branch struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
	Distance   string `json:"distance"`
	Hours      string `json:"hours,omitempty"`
}

// TimeSlot is a value object; two slots are the same slot when Date and Time match.
type TimeSlot struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

func (s TimeSlot) Equal(o TimeSlot) bool {
	return s.Date == o.Date && s.Time == o.Time
}

// BookingRecord is the frozen result of a confirmed draft.
type BookingRecord struct {
	ConfirmationID  string          `json:"confirmation_id"`
	AppointmentType AppointmentType `json:"appointment_type"`
	Branch          Branch          `json:"branch"`
	TimeSlot        TimeSlot        `json:"time_slot"`
	Contact         ContactInfo     `json:"contact"`
	IssuedAt        time.Time       `json:"issued_at"`
}
