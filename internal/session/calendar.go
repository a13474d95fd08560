package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// Market wraps an exchange calendar (ISO 10383 MIC) for trading-day
// checks and the session timezone.
type Market struct {
	cal *calendar.Calendar
	loc *time.Location
}

// NewMarket looks up the calendar for a MIC code (e.g. "xnys", "xbom").
func NewMarket(mic string) (*Market, error) {
	cal := calendar.GetCalendar(strings.ToLower(mic))
	if cal == nil {
		return nil, fmt.Errorf("unknown market calendar %q", mic)
	}
	return &Market{cal: cal, loc: cal.Loc}, nil
}

// Location returns the session timezone.
func (m *Market) Location() *time.Location {
	return m.loc
}

// IsTradingDay reports whether t falls on a business day.
func (m *Market) IsTradingDay(t time.Time) bool {
	return m.cal.IsBusinessDay(t.In(m.loc))
}

// TradingDay returns midnight of the trading date containing t, or an
// error on holidays and weekends.
func (m *Market) TradingDay(t time.Time) (time.Time, error) {
	local := t.In(m.loc)
	if !m.cal.IsBusinessDay(local) {
		return time.Time{}, fmt.Errorf("%s is not a trading day", local.Format("2006-01-02"))
	}
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, m.loc), nil
}
