package booking

import (
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var confirmationPattern = regexp.MustCompile(`^BNK-[0-9A-Z]{7}$`)

func TestIssueMirrorsDraft(t *testing.T) {
	issuedAt := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	i := NewIssuer()
	i.now = func() time.Time { return issuedAt }

	d := completeDraft()
	before := d.Clone()

	rec, err := i.Issue(d)
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ConfirmationID)
	assert.Regexp(t, confirmationPattern, rec.ConfirmationID)
	assert.Equal(t, d.AppointmentType, rec.AppointmentType)
	assert.Equal(t, *d.Branch, rec.Branch)
	assert.Equal(t, *d.TimeSlot, rec.TimeSlot)
	assert.Equal(t, d.Contact, rec.Contact)
	assert.Equal(t, issuedAt, rec.IssuedAt)

	assert.Equal(t, before, d, "issuing must not mutate the draft")
}

func TestIssueRejectsIncompleteDraft(t *testing.T) {
	i := NewIssuer()

	d := completeDraft()
	d.SetContactInfo(ContactInfo{Name: "Jane Doe", Email: "jane@x.com", Phone: "555123456"})

	rec, err := i.Issue(d)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDraftIncomplete))
	assert.Contains(t, err.Error(), "contact")
	assert.Equal(t, BookingRecord{}, rec)

	_, err = i.Issue(Draft{})
	assert.ErrorIs(t, err, ErrDraftIncomplete)
	assert.Contains(t, err.Error(), "type_and_location")
}

func TestIssueRecordIsIndependentOfDraft(t *testing.T) {
	i := NewIssuer()
	d := completeDraft()

	rec, err := i.Issue(d)
	require.NoError(t, err)

	d.Branch.Name = "renamed"
	d.TimeSlot.Time = "4:00 PM"
	d.Reset()

	assert.Equal(t, "Downtown Financial Center", rec.Branch.Name)
	assert.Equal(t, "10:00 AM", rec.TimeSlot.Time)
	assert.Equal(t, "Jane Doe", rec.Contact.Name)
}

func TestIssuerRerollsCollisions(t *testing.T) {
	codes := []string{"AAAAAAA", "AAAAAAA", "BBBBBBB"}
	i := NewIssuer()
	i.newCode = func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	}

	first, err := i.Issue(completeDraft())
	require.NoError(t, err)
	second, err := i.Issue(completeDraft())
	require.NoError(t, err)

	assert.Equal(t, "BNK-AAAAAAA", first.ConfirmationID)
	assert.Equal(t, "BNK-BBBBBBB", second.ConfirmationID)
}

func TestIssuerGivesUpWhenCodesRepeat(t *testing.T) {
	i := NewIssuer()
	i.newCode = func() string { return "SAMECOD" }

	_, err := i.Issue(completeDraft())
	require.NoError(t, err)

	_, err = i.Issue(completeDraft())
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
}

func TestIssuerUniqueUnderConcurrency(t *testing.T) {
	i := NewIssuer()

	const n = 500
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := i.Issue(completeDraft())
			if err == nil {
				ids <- rec.ConfirmationID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	for id := range ids {
		assert.Regexp(t, confirmationPattern, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestRecordText(t *testing.T) {
	rec := BookingRecord{
		ConfirmationID:  "BNK-ABC1234",
		AppointmentType: TypeLoanConsultation,
		Branch:          testBranch,
		TimeSlot:        TimeSlot{Date: "2026-10-20", Time: "10:00 AM", Available: true},
		Contact:         testContact,
	}

	text := rec.Text()
	assert.Contains(t, text, "Confirmation Number: BNK-ABC1234")
	assert.Contains(t, text, "Date: Tuesday, October 20, 2026")
	assert.Contains(t, text, "Time: 10:00 AM")
	assert.Contains(t, text, "1200 Main Street, Kansas City, MO 64105")
	assert.Contains(t, text, "Phone: (555) 123-4567")
	assert.Contains(t, text, "call us at (816) 555-4567")
}

func TestDateLabels(t *testing.T) {
	assert.Equal(t, "Monday, October 19, 2026", LongDate("2026-10-19"))
	assert.Equal(t, "Mon, Oct 19", ShortDate("2026-10-19"))
	assert.Equal(t, "garbage", LongDate("garbage"))
}
