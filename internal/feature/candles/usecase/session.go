package usecase

import (
	"time"

	"stock_ingest/internal/feature/candles/domain/entity"
)

// Exchange calendar: regular trading runs on weekdays between these local
// hours; everything else belongs to the weekend venue.
const (
	exchangeOpenHour  = 10
	exchangeCloseHour = 23
)

// SessionClassifier maps a fetch window to its trading session. It is a
// total, side-effect-free function: every window classifies to exactly one
// session, decided by the window's begin time alone, so a window straddling
// a session boundary is never split.
type SessionClassifier struct {
	loc *time.Location
}

// NewSessionClassifier creates a classifier using the exchange timezone.
func NewSessionClassifier() *SessionClassifier {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		// tzdata may be absent in minimal containers; MSK has no DST.
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return &SessionClassifier{loc: loc}
}

// Classify returns SessionClassic when the window begins within regular
// exchange trading days and hours, SessionWeekend otherwise.
func (s *SessionClassifier) Classify(w entity.Window) entity.Session {
	begin := w.Begin.In(s.loc)
	wd := begin.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return entity.SessionWeekend
	}
	if h := begin.Hour(); h < exchangeOpenHour || h >= exchangeCloseHour {
		return entity.SessionWeekend
	}
	return entity.SessionClassic
}
