package session

import (
	"fmt"
	"time"
)

// CheckpointTimes are the five session-local wall-clock checkpoints,
// "HH:MM:SS", in session order.
type CheckpointTimes struct {
	LockPrevDay string `yaml:"lock_prev_day"` // T1: PrevDayContext locks
	LockOpen    string `yaml:"lock_open"`     // T2: OpenLocation locks
	LockTrend   string `yaml:"lock_trend"`    // T3: OT + FirstCandle + Range lock, picker runs
	Arm         string `yaml:"arm"`           // plan armed (after the 5th bar should exist)
	Flatten     string `yaml:"flatten"`       // forced end-of-day exit
}

// Validate checks presence, format and strict ordering.
func (c CheckpointTimes) Validate() error {
	names := []string{"lock_prev_day", "lock_open", "lock_trend", "arm", "flatten"}
	values := []string{c.LockPrevDay, c.LockOpen, c.LockTrend, c.Arm, c.Flatten}

	var prev time.Duration
	for i, v := range values {
		if v == "" {
			return fmt.Errorf("checkpoint %s missing", names[i])
		}
		d, err := parseClock(v)
		if err != nil {
			return fmt.Errorf("checkpoint %s: %w", names[i], err)
		}
		if i > 0 && d <= prev {
			return fmt.Errorf("checkpoint %s (%s) must be after %s", names[i], v, names[i-1])
		}
		prev = d
	}
	return nil
}

// Schedule holds the checkpoints resolved onto one trading date.
type Schedule struct {
	Day         time.Time // midnight of the trading date, session timezone
	LockPrevDay time.Time
	LockOpen    time.Time
	LockTrend   time.Time
	Arm         time.Time
	Flatten     time.Time
}

// DayString returns the trading date as YYYY-MM-DD.
func (s Schedule) DayString() string {
	return s.Day.Format("2006-01-02")
}

// Resolve places the checkpoint times onto the given trading date in
// the given location.
func Resolve(day time.Time, loc *time.Location, c CheckpointTimes) (Schedule, error) {
	if err := c.Validate(); err != nil {
		return Schedule{}, err
	}
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

	at := func(v string) time.Time {
		d, _ := parseClock(v) // validated above
		return midnight.Add(d)
	}
	return Schedule{
		Day:         midnight,
		LockPrevDay: at(c.LockPrevDay),
		LockOpen:    at(c.LockOpen),
		LockTrend:   at(c.LockTrend),
		Arm:         at(c.Arm),
		Flatten:     at(c.Flatten),
	}, nil
}

func parseClock(v string) (time.Duration, error) {
	var h, m, s int
	if _, err := fmt.Sscanf(v, "%d:%d:%d", &h, &m, &s); err != nil {
		return 0, fmt.Errorf("malformed clock time %q (want HH:MM:SS)", v)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || s < 0 || s > 59 {
		return 0, fmt.Errorf("clock time %q out of range", v)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second, nil
}
