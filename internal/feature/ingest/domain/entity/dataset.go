package entity

import "time"

// Dataset is an uploaded, parsed file held for the lifetime of a viewing session.
type Dataset struct {
	ID             string
	FileName       string
	CreatedAt      time.Time
	ExpiresAt      time.Time
	MissingColumns []string
	Outcome        Outcome
}

// Expired reports whether the dataset is past its expiry at the given instant.
func (d Dataset) Expired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

// DefaultSymbol returns the symbol a chart opens on: the first one discovered.
func (d Dataset) DefaultSymbol() string {
	if len(d.Outcome.Symbols) == 0 {
		return ""
	}
	return d.Outcome.Symbols[0]
}
