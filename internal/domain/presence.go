package domain

import (
	"context"
	"time"
)

// PeriodLayout is the storage format of a presence period
const PeriodLayout = "2006-01-02"

// Location represents where someone works on a given day
type Location string

const (
	LocationOffice    Location = "office"
	LocationHome      Location = "home"
	LocationCoworking Location = "coworking"
)

// Locations lists every known location in display order
var Locations = []Location{LocationOffice, LocationHome, LocationCoworking}

// Valid reports whether l is one of the known locations
func (l Location) Valid() bool {
	for _, known := range Locations {
		if l == known {
			return true
		}
	}
	return false
}

// PresenceRecord says where a user works on one day
type PresenceRecord struct {
	ID        string
	UserID    string
	UserName  string
	Location  Location
	Period    time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PresenceFilter selects presence records. Zero-valued fields match everything.
type PresenceFilter struct {
	UserID   string
	Location Location
	Period   *time.Time
}

// PresenceRepository defines the interface for presence storage
type PresenceRepository interface {
	// Find returns all records matching the filter, ordered by period then user name
	Find(ctx context.Context, filter PresenceFilter) ([]*PresenceRecord, error)
	// Upsert stores the record, replacing the location of an existing (user, period) record
	Upsert(ctx context.Context, record *PresenceRecord) error
}

// DateOf returns the calendar day of t, in t's own location, as UTC midnight.
// Periods never carry a zone so that days stay 24 hours long across DST changes.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatPeriod renders a period in PeriodLayout
func FormatPeriod(t time.Time) string {
	return DateOf(t).Format(PeriodLayout)
}

// ParsePeriod reads a period stored in PeriodLayout
func ParsePeriod(s string) (time.Time, error) {
	return time.Parse(PeriodLayout, s)
}
