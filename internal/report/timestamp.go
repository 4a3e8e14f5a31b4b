package report

import (
	"fmt"
	"strings"
	"time"

	"farmacia-data/internal/domain"
)

// 历史流水的日期格式不统一，按顺序尝试；日-月顺序的写法不支持（月在前）
var timestampLayouts = []string{
	domain.TimestampLayout, // 2006-01-02 15:04
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
	"2006-01-02",
	"2006-1-2 15:04",
	"2006-1-2 15:04:05",
	"2006-1-2",
	"2006/01/02 15:04",
	"2006/01/02",
	"01/02/2006 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006",
}

// ParseTimestamp parses a stored movement timestamp.
// Returns domain.ErrMalformedTimestamp when no known layout matches.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s != "" {
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", domain.ErrMalformedTimestamp, s)
}

// Date 日历日（不含时间和时区）
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD query parameter.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", domain.ErrInvalidInput, s)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) Before(o Date) bool { return d.key() < o.key() }

func (d Date) After(o Date) bool { return d.key() > o.key() }

func (d Date) key() int { return d.Year*10000 + int(d.Month)*100 + d.Day }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Display 报表上显示的日期格式
func (d Date) Display() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}
