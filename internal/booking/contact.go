package booking

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (c ContactInfo) NameValid() bool {
	return strings.TrimSpace(c.Name) != ""
}

func (c ContactInfo) EmailValid() bool {
	return emailPattern.MatchString(c.Email)
}

func (c ContactInfo) PhoneValid() bool {
	return len(PhoneDigits(c.Phone)) == 10
}

func (c ContactInfo) Valid() bool {
	return c.NameValid() && c.EmailValid() && c.PhoneValid()
}

// PhoneDigits strips everything but ASCII digits.
func PhoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone renders as much of (XXX) XXX-XXXX as the input allows, so it
// can be applied to partial input while the user is still typing. Digits
// past the tenth are dropped.
func FormatPhone(phone string) string {
	d := PhoneDigits(phone)
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return "(" + d[:3] + ") " + d[3:]
	case len(d) > 10:
		d = d[:10]
	}
	return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
}

// ValidPostalCode reports whether code is exactly five ASCII digits.
func ValidPostalCode(code string) bool {
	if len(code) != 5 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
