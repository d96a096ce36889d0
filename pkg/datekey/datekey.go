// Package datekey implements the canonical YYYY-MM-DD calendar day identifier
// used to index the planner calendar.
package datekey

import (
	"fmt"
	"time"
)

const (
	// Layout is the only accepted textual form of a Key.
	Layout = "2006-01-02"

	layoutShort = "1/2"
)

// Key identifies a calendar day. It carries no timezone: it is interpreted in
// the user's local calendar.
type Key string

// Parse validates s and returns it as a Key.
func Parse(s string) (Key, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return "", fmt.Errorf("datekey: invalid date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// ParseLoose accepts either the canonical layout or a short "M/D" form which
// resolves to the year of now.
func ParseLoose(s string, now time.Time) (Key, error) {
	if k, err := Parse(s); err == nil {
		return k, nil
	}
	t, err := time.Parse(layoutShort, s)
	if err != nil {
		return "", fmt.Errorf("datekey: invalid date %q, want YYYY-MM-DD or M/D", s)
	}
	return FromTime(time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)), nil
}

// MustParse is Parse that panics. Intended for tests and constants.
func MustParse(s string) Key {
	k, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return k
}

// FromTime returns the Key of the calendar day t falls on in t's location.
func FromTime(t time.Time) Key {
	return Key(t.Format(Layout))
}

// Today returns the current day in loc. A nil loc means time.Local.
func Today(loc *time.Location) Key {
	if loc == nil {
		loc = time.Local
	}
	return FromTime(time.Now().In(loc))
}

// Valid reports whether k is a well formed key.
func (k Key) Valid() bool {
	_, err := time.Parse(Layout, string(k))
	return err == nil
}

// Time returns midnight UTC of the day. UTC keeps day arithmetic free of DST
// jumps; callers wanting a local instant should use In.
func (k Key) Time() time.Time {
	t, err := time.Parse(Layout, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

// In returns midnight of the day in loc.
func (k Key) In(loc *time.Location) time.Time {
	t := k.Time()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func (k Key) String() string {
	return string(k)
}

// Weekday returns 0 (Sunday) through 6 (Saturday).
func (k Key) Weekday() time.Weekday {
	return k.Time().Weekday()
}

// AddDays moves the key n days; n may be negative.
func (k Key) AddDays(n int) Key {
	return FromTime(k.Time().AddDate(0, 0, n))
}

// EndOfMonth returns the last day of k's month.
func (k Key) EndOfMonth() Key {
	t := k.Time()
	return FromTime(time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC))
}

// StartOfMonth returns the first day of k's month.
func (k Key) StartOfMonth() Key {
	t := k.Time()
	return FromTime(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC))
}

// IsEndOfMonth reports whether k is the last day of its month.
func (k Key) IsEndOfMonth() bool {
	return k == k.EndOfMonth()
}

// SameMonth reports whether both keys fall in the same month of the same year.
func (k Key) SameMonth(o Key) bool {
	a, b := k.Time(), o.Time()
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// Before reports whether k is strictly earlier than o. The layout sorts
// lexically, so a string compare is enough.
func (k Key) Before(o Key) bool {
	return k < o
}

// After reports whether k is strictly later than o.
func (k Key) After(o Key) bool {
	return k > o
}

// DaysBetween returns the number of calendar days from a to b (b - a).
func DaysBetween(a, b Key) int {
	return int(b.Time().Sub(a.Time()).Hours() / 24)
}

// Range returns every key in [from, to]. It returns nil when to is before from.
func Range(from, to Key) []Key {
	if to.Before(from) {
		return nil
	}
	out := make([]Key, 0, DaysBetween(from, to)+1)
	for k := from; !k.After(to); k = k.AddDays(1) {
		out = append(out, k)
	}
	return out
}
