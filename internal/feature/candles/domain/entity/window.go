package entity

import "time"

// Window is a half-open fetch interval [Begin, End).
type Window struct {
	Begin time.Time
	End   time.Time
}

// Duration returns the span of the window.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Begin)
}
