// Package rates fetches daily mortgage rates from the SBS regulator feed and
// resolves them against the static bank catalog into effective per-bank
// configurations with rate provenance.
package rates

import (
	"cloud.google.com/go/civil"
)

// Snapshot is one dated, per-currency view of the feed's mortgage rates.
// Rates are keyed by the feed's bank display name and carry the feed's
// percent form (7.53 means 7.53%); normalization to decimals happens at
// resolution time. A snapshot is immutable once built: a fetch either fully
// replaces the previous one or fails and leaves it intact.
type Snapshot struct {
	Date     civil.Date
	Currency string
	Rates    map[string]float64
	Note     string
}

// Rate returns the feed's percent rate for a bank display name.
func (s *Snapshot) Rate(feedName string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	r, ok := s.Rates[feedName]
	return r, ok
}
