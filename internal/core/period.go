package core

import (
	"strconv"
	"strings"
	"time"
)

// Period identifies a calendar month as a (year, month) pair.
//
// Its text form is "<year>-<month>" with the month unpadded (e.g. "2025-8"),
// the same key format the ledger uses to tag months. The zero Period means
// "unset".
type Period struct {
	Year  int
	Month int // 1-12
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// ParsePeriod parses the "<year>-<month>" key form.
func ParsePeriod(s string) (Period, error) {
	y, m, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Period{}, ErrInvalidPeriod
	}
	year, err := strconv.Atoi(y)
	if err != nil || year < 1 {
		return Period{}, ErrInvalidPeriod
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Year: year, Month: month}, nil
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool { return p.Year == 0 && p.Month == 0 }

func (p Period) String() string {
	if p.IsZero() {
		return ""
	}
	return strconv.Itoa(p.Year) + "-" + strconv.Itoa(p.Month)
}

// AddMonths advances the period by n months, rolling the year as needed.
// Round-trips exactly: advancing "2025-12" by 1 yields "2026-1".
func (p Period) AddMonths(n int) Period {
	total := p.Year*12 + (p.Month - 1) + n
	return Period{Year: total / 12, Month: total%12 + 1}
}

// Before reports whether p is strictly earlier than o in calendar time.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// Label returns the human display form, e.g. "August 2025".
func (p Period) Label() string {
	if p.IsZero() {
		return ""
	}
	return time.Month(p.Month).String() + " " + strconv.Itoa(p.Year)
}

// MarshalText implements encoding.TextMarshaler using the key form.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts the key form; empty input yields the zero Period.
func (p *Period) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*p = Period{}
		return nil
	}
	parsed, err := ParsePeriod(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
