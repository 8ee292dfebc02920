package branch

import (
	"context"
	"errors"

	"github.com/hackgods/branch-appointment-booking/internal/booking"
)

var ErrInvalidPostalCode = errors.New("postal code must be 5 digits")

// Directory finds the branches serving a postal code, nearest first.
// Implementations return fresh slices; callers may keep or modify them.
type Directory interface {
	Lookup(ctx context.Context, postalCode string) ([]booking.Branch, error)
}

// DefaultBranches is the built-in Kansas City area directory.
var DefaultBranches = []booking.Branch{
	{
		ID:         "1",
		Name:       "Downtown Financial Center",
		Address:    "1200 Main Street",
		City:       "Kansas City",
		Region:     "MO",
		PostalCode: "64105",
		Phone:      "(816) 555-4567",
		Distance:   "0.5 miles",
		Hours:      booking.DefaultBranchHours,
	},
	{
		ID:         "2",
		Name:       "Country Club Plaza Branch",
		Address:    "4740 Broadway Boulevard",
		City:       "Kansas City",
		Region:     "MO",
		PostalCode: "64112",
		Phone:      "(816) 555-5678",
		Distance:   "1.2 miles",
		Hours:      booking.DefaultBranchHours,
	},
	{
		ID:         "3",
		Name:       "Northland Office",
		Address:    "8551 N Oak Trafficway",
		City:       "Kansas City",
		Region:     "MO",
		PostalCode: "64155",
		Phone:      "(816) 555-6789",
		Distance:   "2.8 miles",
		Hours:      booking.DefaultBranchHours,
	},
	{
		ID:         "4",
		Name:       "Overland Park Branch",
		Address:    "11920 Metcalf Avenue",
		City:       "Overland Park",
		Region:     "KS",
		PostalCode: "66213",
		Phone:      "(913) 555-7890",
		Distance:   "3.5 miles",
		Hours:      booking.DefaultBranchHours,
	},
}

// StaticDirectory serves the same ranked list for every postal code.
type StaticDirectory struct {
	branches []booking.Branch
}

func NewStaticDirectory(branches []booking.Branch) *StaticDirectory {
	if branches == nil {
		branches = DefaultBranches
	}
	return &StaticDirectory{branches: append([]booking.Branch(nil), branches...)}
}

func (d *StaticDirectory) Lookup(_ context.Context, postalCode string) ([]booking.Branch, error) {
	if !booking.ValidPostalCode(postalCode) {
		return nil, ErrInvalidPostalCode
	}
	return append([]booking.Branch(nil), d.branches...), nil
}

// Find returns the branch with id from a lookup result.
func Find(branches []booking.Branch, id string) (booking.Branch, bool) {
	for _, b := range branches {
		if b.ID == id {
			return b, true
		}
	}
	return booking.Branch{}, false
}
