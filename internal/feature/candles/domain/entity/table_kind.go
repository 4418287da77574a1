package entity

import (
	"fmt"
	"time"
)

// Session is the trading session axis of the candle tables.
type Session int

const (
	// SessionClassic covers regular exchange trading days and hours.
	SessionClassic Session = iota
	// SessionWeekend covers the off-hours / weekend trading venue.
	SessionWeekend
)

func (s Session) String() string {
	if s == SessionWeekend {
		return "weekend"
	}
	return "classic"
}

// ParseSession maps the external names ("classic", "weekend") to a Session.
func ParseSession(v string) (Session, error) {
	switch v {
	case "classic":
		return SessionClassic, nil
	case "weekend":
		return SessionWeekend, nil
	}
	return SessionClassic, fmt.Errorf("unknown session %q (want classic or weekend)", v)
}

// Granularity is the bucket-width axis of the candle tables. Hourly candles
// are fetched from the provider independently, not aggregated from base ones.
type Granularity int

const (
	// GranularityBase is the base 10-minute interval.
	GranularityBase Granularity = iota
	// GranularityHourly is the hourly interval.
	GranularityHourly
)

func (g Granularity) String() string {
	if g == GranularityHourly {
		return "hourly"
	}
	return "base"
}

// ParseGranularity maps the external names ("base", "hourly") to a Granularity.
func ParseGranularity(v string) (Granularity, error) {
	switch v {
	case "base":
		return GranularityBase, nil
	case "hourly":
		return GranularityHourly, nil
	}
	return GranularityBase, fmt.Errorf("unknown granularity %q (want base or hourly)", v)
}

// BucketWidth returns the duration of one candle bucket.
func (g Granularity) BucketWidth() time.Duration {
	if g == GranularityHourly {
		return time.Hour
	}
	return 10 * time.Minute
}

// TableKind selects one of the four candle tables by its two independent axes.
type TableKind struct {
	Session     Session
	Granularity Granularity
}

// TableName returns the concrete table a kind routes to.
func (k TableKind) TableName() string {
	name := "classic_stocks"
	if k.Session == SessionWeekend {
		name = "weekend_stocks"
	}
	if k.Granularity == GranularityHourly {
		name += "_hourly"
	}
	return name
}

// AllTableKinds enumerates every (session, granularity) combination.
func AllTableKinds() []TableKind {
	return []TableKind{
		{SessionClassic, GranularityBase},
		{SessionClassic, GranularityHourly},
		{SessionWeekend, GranularityBase},
		{SessionWeekend, GranularityHourly},
	}
}
