// Package recurrence models how a task or commitment repeats.
//
// A Rule is a closed variant: None, Weekly on a single weekday, or Daily.
// The weekday is only reachable through Weekly, so a daily or one-off item can
// never carry one.
package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Kind names the variant of a Rule. The string values are the document
// encoding of recurrenceType.
type Kind string

const (
	KindNone   Kind = "none"
	KindWeekly Kind = "weekly"
	KindDaily  Kind = "daily"
)

// Rule is the recurrence of an item. The zero value is None.
type Rule struct {
	kind Kind
	day  time.Weekday
}

// None is a one-off item.
func None() Rule { return Rule{} }

// Weekly repeats on every given weekday, indefinitely.
func Weekly(day time.Weekday) Rule {
	if day < time.Sunday || day > time.Saturday {
		return None()
	}
	return Rule{kind: KindWeekly, day: day}
}

// Daily repeats every day until the end of the month it was added in.
func Daily() Rule { return Rule{kind: KindDaily} }

// Kind returns the variant, treating the zero value as KindNone.
func (r Rule) Kind() Kind {
	if r.kind == "" {
		return KindNone
	}
	return r.kind
}

// Day returns the weekday of a Weekly rule. ok is false for other kinds.
func (r Rule) Day() (day time.Weekday, ok bool) {
	if r.kind != KindWeekly {
		return 0, false
	}
	return r.day, true
}

func (r Rule) IsWeekly() bool { return r.kind == KindWeekly }
func (r Rule) IsDaily() bool  { return r.kind == KindDaily }
func (r Rule) IsNone() bool   { return r.Kind() == KindNone }

// Matches reports whether a weekly rule falls on d.
func (r Rule) Matches(d time.Weekday) bool {
	return r.kind == KindWeekly && r.day == d
}

func (r Rule) String() string {
	if day, ok := r.Day(); ok {
		return fmt.Sprintf("weekly on %s", day)
	}
	return string(r.Kind())
}

// Parse builds a Rule from its kind name and, for weekly rules, the weekday.
func Parse(kind string, day time.Weekday) (Rule, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case "", KindNone:
		return None(), nil
	case KindDaily:
		return Daily(), nil
	case KindWeekly:
		if day < time.Sunday || day > time.Saturday {
			return None(), fmt.Errorf("recurrence: weekday %d out of range", day)
		}
		return Weekly(day), nil
	default:
		return None(), fmt.Errorf("recurrence: unknown kind %q", kind)
	}
}

var isoCodes = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// ISOCode returns the two letter RFC 5545 code of d (SU..SA).
func ISOCode(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return ""
	}
	return isoCodes[d]
}

// ParseWeekday accepts an index (0-6), an English name or prefix ("mon",
// "monday") or an RFC 5545 code ("MO").
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("recurrence: empty weekday")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("recurrence: weekday %d out of range", n)
		}
		return time.Weekday(n), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == strings.ToLower(isoCodes[d]) || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("recurrence: unknown weekday %q", s)
}

var rruleWeekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Option returns the rrule option equivalent to r. ok is false for None.
func (r Rule) Option() (opt rrule.ROption, ok bool) {
	switch r.Kind() {
	case KindWeekly:
		return rrule.ROption{Freq: rrule.WEEKLY, Byweekday: []rrule.Weekday{rruleWeekdays[r.day]}}, true
	case KindDaily:
		return rrule.ROption{Freq: rrule.DAILY}, true
	default:
		return rrule.ROption{}, false
	}
}

// RRule renders r as an RFC 5545 recurrence line, e.g.
// "RRULE:FREQ=WEEKLY;BYDAY=MO". It returns "" for None.
func (r Rule) RRule() string {
	opt, ok := r.Option()
	if !ok {
		return ""
	}
	return "RRULE:" + opt.RRuleString()
}
