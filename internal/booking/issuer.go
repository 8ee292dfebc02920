package booking

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	ConfirmationPrefix = "BNK-"
	confirmationLength = 7
	maxCodeAttempts    = 16
)

var (
	ErrDraftIncomplete    = errors.New("draft is not complete")
	ErrCodeSpaceExhausted = errors.New("could not mint a unique confirmation id")
)

// Issuer freezes completed drafts into booking records. One Issuer may be
// shared by many sessions; ids it mints never repeat.
type Issuer struct {
	mu      sync.Mutex
	issued  map[string]struct{}
	newCode func() string
	now     func() time.Time
}

func NewIssuer() *Issuer {
	return &Issuer{
		issued:  make(map[string]struct{}),
		newCode: randomCode,
		now:     time.Now,
	}
}

// Issue returns a record mirroring d. A draft that is not valid for review
// is a caller bug and yields ErrDraftIncomplete instead of a record.
func (i *Issuer) Issue(d Draft) (BookingRecord, error) {
	if step, bad := d.firstInvalidStep(); bad {
		return BookingRecord{}, fmt.Errorf("%w: %s step", ErrDraftIncomplete, step)
	}

	id, err := i.mint()
	if err != nil {
		return BookingRecord{}, err
	}

	return BookingRecord{
		ConfirmationID:  id,
		AppointmentType: d.AppointmentType,
		Branch:          *d.Branch,
		TimeSlot:        *d.TimeSlot,
		Contact:         d.Contact,
		IssuedAt:        i.now(),
	}, nil
}

func (i *Issuer) mint() (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		id := ConfirmationPrefix + i.newCode()
		if _, dup := i.issued[id]; dup {
			continue
		}
		i.issued[id] = struct{}{}
		return id, nil
	}
	return "", ErrCodeSpaceExhausted
}

// randomCode renders the low base-36 digits of 64 random UUID bits in upper case.
func randomCode() string {
	id := uuid.New()
	code := strings.ToUpper(strconv.FormatUint(binary.BigEndian.Uint64(id[:8]), 36))
	if len(code) < confirmationLength {
		code = strings.Repeat("0", confirmationLength-len(code)) + code
	}
	return code[len(code)-confirmationLength:]
}
