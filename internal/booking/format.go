package booking

import (
	"fmt"
	"strings"
	"time"
)

// LongDate renders YYYY-MM-DD as "Monday, October 19, 2026". Unparseable
// input is returned unchanged.
func LongDate(date string) string {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return d.Format("Monday, January 2, 2006")
}

// ShortDate renders YYYY-MM-DD as "Mon, Oct 19".
func ShortDate(date string) string {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return d.Format("Mon, Jan 2")
}

// Text renders the record as a plain-text confirmation for download.
func (r BookingRecord) Text() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Appointment Confirmed\n")
	fmt.Fprintf(&b, "Confirmation Number: %s\n\n", r.ConfirmationID)

	fmt.Fprintf(&b, "Appointment Type: %s\n", r.AppointmentType)
	fmt.Fprintf(&b, "Date: %s\n", LongDate(r.TimeSlot.Date))
	fmt.Fprintf(&b, "Time: %s\n\n", r.TimeSlot.Time)

	fmt.Fprintf(&b, "Branch: %s\n", r.Branch.Name)
	fmt.Fprintf(&b, "Address: %s, %s, %s %s\n", r.Branch.Address, r.Branch.City, r.Branch.Region, r.Branch.PostalCode)
	fmt.Fprintf(&b, "Phone: %s\n", r.Branch.Phone)
	if r.Branch.Hours != "" {
		fmt.Fprintf(&b, "Hours: %s\n", r.Branch.Hours)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Name: %s\n", strings.TrimSpace(r.Contact.Name))
	fmt.Fprintf(&b, "Email: %s\n", r.Contact.Email)
	fmt.Fprintf(&b, "Phone: %s\n\n", FormatPhone(r.Contact.Phone))

	b.WriteString("Please arrive 5 minutes early and bring a valid ID.\n")
	fmt.Fprintf(&b, "If you need to reschedule, please call us at %s.\n", r.Branch.Phone)

	return b.String()
}
