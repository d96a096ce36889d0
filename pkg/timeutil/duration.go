package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tableflip.dev/studyplan/pkg/datekey"
)

const (
	// DefaultWindow is the fallback report window used when none is provided.
	DefaultWindow = "1w"
)

var (
	segmentPattern = regexp.MustCompile(`^\s*(\d+)\s*([a-z]+)`)
	dayUnits       = map[string]int{
		"d":     1,
		"day":   1,
		"days":  1,
		"w":     7,
		"wk":    7,
		"wks":   7,
		"week":  7,
		"weeks": 7,
	}
	minuteUnits = map[string]int{
		"m":       1,
		"min":     1,
		"mins":    1,
		"minute":  1,
		"minutes": 1,
		"h":       60,
		"hr":      60,
		"hrs":     60,
		"hour":    60,
		"hours":   60,
	}
)

// ParseWindow parses a day window such as "1w", "3d" or "1w2d" and returns
// the number of days along with a canonical, compact label. When the input is
// empty, the default window of one week is used.
func ParseWindow(input string) (int, string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		trimmed = DefaultWindow
	}
	days, err := sumSegments(trimmed, dayUnits)
	if err != nil {
		return 0, "", err
	}
	if days <= 0 {
		return 0, "", fmt.Errorf("window must be greater than zero")
	}
	return days, FormatWindow(days), nil
}

// FormatWindow renders a day count using week and day tokens.
func FormatWindow(days int) string {
	if days <= 0 {
		return "0d"
	}
	var b strings.Builder
	if w := days / 7; w > 0 {
		fmt.Fprintf(&b, "%dw", w)
	}
	if d := days % 7; d > 0 {
		fmt.Fprintf(&b, "%dd", d)
	}
	return b.String()
}

// Window returns the inclusive date range of the days ending on today.
func Window(today datekey.Key, days int) (from, to datekey.Key) {
	if days < 1 {
		days = 1
	}
	return today.AddDays(-(days - 1)), today
}

// ParseMinutes parses a signed study time delta: a bare number of minutes
// ("25", "-10") or hour/minute segments ("1h30m", "+2h").
func ParseMinutes(input string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return 0, fmt.Errorf("empty minutes")
	}
	sign := 1
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return 0, fmt.Errorf("invalid minutes %q", input)
	}
	if n, err := strconv.Atoi(s); err == nil {
		return sign * n, nil
	}
	total, err := sumSegments(s, minuteUnits)
	if err != nil {
		return 0, err
	}
	return sign * total, nil
}

// FormatMinutes renders minutes as "1h30m", "45m" or "0m".
func FormatMinutes(minutes int) string {
	if minutes <= 0 {
		return "0m"
	}
	d := time.Duration(minutes) * time.Minute
	h := int(d / time.Hour)
	m := minutes - h*60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%dm", h, m)
	}
}

func sumSegments(input string, units map[string]int) (int, error) {
	remaining := strings.ToLower(input)
	total := 0
	for len(strings.TrimSpace(remaining)) > 0 {
		matches := segmentPattern.FindStringSubmatch(remaining)
		if len(matches) != 3 {
			return 0, fmt.Errorf("invalid segment %q", strings.TrimSpace(remaining))
		}
		value, err := strconv.Atoi(matches[1])
		if err != nil {
			return 0, fmt.Errorf("invalid value %q: %w", matches[1], err)
		}
		base, ok := units[matches[2]]
		if !ok {
			return 0, fmt.Errorf("unsupported unit %q", matches[2])
		}
		total += value * base
		remaining = remaining[len(matches[0]):]
	}
	return total, nil
}
