// Package daykey converts instants to canonical calendar-day keys.
//
// A key is the UTC calendar date of an instant in YYYY-MM-DD form. Keys of the
// server clock are used for every user: there is no per-user timezone.
package daykey

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const Layout = "2006-01-02"

var ErrInvalidKey = errors.New("invalid day key")

// Key returns the UTC calendar date of t.
func Key(t time.Time) string {
	return t.UTC().Format(Layout)
}

// KeyIn returns the calendar date of t in loc. A nil loc means UTC.
func KeyIn(t time.Time, loc *time.Location) string {
	if loc == nil {
		return Key(t)
	}
	return t.In(loc).Format(Layout)
}

// Parse returns midnight UTC of the day identified by key.
func Parse(key string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return t, nil
}

func Valid(key string) bool {
	_, err := Parse(key)
	return err == nil
}

// AddDays shifts key by n calendar days.
func AddDays(key string, n int) (string, error) {
	t, err := Parse(key)
	if err != nil {
		return "", err
	}
	return Key(t.AddDate(0, 0, n)), nil
}

// Between returns the number of days from a to b (negative if b is before a).
func Between(a, b string) (int, error) {
	ta, err := Parse(a)
	if err != nil {
		return 0, err
	}
	tb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}

// Window returns n consecutive keys ending with today, oldest first.
func Window(today string, n int) ([]string, error) {
	end, err := Parse(today)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return []string{}, nil
	}
	days := make([]string, n)
	for i := range n {
		days[i] = Key(end.AddDate(0, 0, i-n+1))
	}
	return days, nil
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock is a manually driven clock for tests and simulations.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FixedClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Today is shorthand for Key(clock.Now()).
func Today(clock Clock) string {
	return Key(clock.Now())
}
