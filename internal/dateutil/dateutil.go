// Package dateutil formats dates for test input using moment-style tokens
// (DD/MM/YYYY, HH:mm:ss, MMMM, A, ...). Text inside [brackets] is literal.
package dateutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"
)

const (
	DefaultDateFormat = "DD/MM/YYYY"
	DefaultTimeFormat = "HH:mm:ss"
)

var monthsShort = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// tokens is ordered so longer tokens win.
var tokens = []struct{ moment, strftime string }{
	{"YYYY", "%Y"},
	{"MMMM", "%B"},
	{"dddd", "%A"},
	{"MMM", "%b"},
	{"ddd", "%a"},
	{"YY", "%y"},
	{"MM", "%m"},
	{"DD", "%d"},
	{"HH", "%H"},
	{"hh", "%I"},
	{"mm", "%M"},
	{"ss", "%S"},
	{"A", "%p"},
}

// toStrftime converts a moment-style format to a strftime format.
func toStrftime(format string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(format); {
		if format[i] == '[' {
			end := strings.IndexByte(format[i:], ']')
			if end < 0 {
				return "", fmt.Errorf("unterminated literal in format %q", format)
			}
			b.WriteString(strings.ReplaceAll(format[i+1:i+end], "%", "%%"))
			i += end + 1
			continue
		}
		matched := false
		for _, tok := range tokens {
			if strings.HasPrefix(format[i:], tok.moment) {
				b.WriteString(tok.strftime)
				i += len(tok.moment)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		switch c := format[i]; {
		case c == '%':
			b.WriteString("%%")
		case strings.IndexByte("DMHhmsYd", c) >= 0:
			return "", fmt.Errorf("unsupported token %q in format %q", string(c), format)
		default:
			b.WriteByte(c)
		}
		i++
	}
	return b.String(), nil
}

// Format renders t with a moment-style format.
func Format(t time.Time, format string) (string, error) {
	f, err := toStrftime(format)
	if err != nil {
		return "", err
	}
	return timefmt.Format(t, f), nil
}

// Util computes dates relative to its clock.
type Util struct {
	now func() time.Time
}

// New returns a Util reading the time from now. A nil now uses time.Now.
func New(now func() time.Time) *Util {
	if now == nil {
		now = time.Now
	}
	return &Util{now: now}
}

func orDefault(format, def string) string {
	if format == "" {
		return def
	}
	return format
}

// Date returns today's date, DD/MM/YYYY by default.
func (u *Util) Date(format string) (string, error) {
	return Format(u.now(), orDefault(format, DefaultDateFormat))
}

func (u *Util) Month(format string) (string, error) {
	return Format(u.now(), orDefault(format, "MM"))
}

func (u *Util) Year(format string) (string, error) {
	return Format(u.now(), orDefault(format, "YYYY"))
}

// Time returns the current time, HH:mm:ss by default.
func (u *Util) Time(format string) (string, error) {
	return Format(u.now(), orDefault(format, DefaultTimeFormat))
}

func (u *Util) Hours(format string) (string, error) {
	return Format(u.now(), orDefault(format, "HH"))
}

func (u *Util) Minutes(format string) (string, error) {
	return Format(u.now(), orDefault(format, "mm"))
}

// ISOString returns the current instant with millisecond precision. With
// utc the time is converted to UTC and ends in Z. Otherwise local time is
// used and the offset is kept only when withZone is set.
func (u *Util) ISOString(utc, withZone bool) string {
	now := u.now()
	if utc {
		return now.UTC().Format("2006-01-02T15:04:05.000Z")
	}
	if withZone {
		return now.Format("2006-01-02T15:04:05.000-07:00")
	}
	return now.Format("2006-01-02T15:04:05.000")
}

// DateFromToday returns the date days away from today. days may be negative.
func (u *Util) DateFromToday(days int, format string) (string, error) {
	return Format(u.now().AddDate(0, 0, days), orDefault(format, DefaultDateFormat))
}

// MonthsFromToday returns the date months away from today. The day is
// clamped to the last day of the target month.
func (u *Util) MonthsFromToday(months int, format string) (string, error) {
	return Format(addMonths(u.now(), months), orDefault(format, DefaultDateFormat))
}

func addMonths(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, months, 0)
	last := target.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return target.AddDate(0, 0, day-1)
}

// TimeFromNow shifts the current time by diff units (hours, minutes, seconds
// or days) and formats it, HH:mm:ss by default.
func (u *Util) TimeFromNow(diff int, unit, format string) (string, error) {
	var step time.Duration
	switch strings.ToLower(unit) {
	case "", "hours", "hour", "h":
		step = time.Hour
	case "minutes", "minute", "m":
		step = time.Minute
	case "seconds", "second", "s":
		step = time.Second
	case "days", "day", "d":
		return Format(u.now().AddDate(0, 0, diff), orDefault(format, DefaultTimeFormat))
	default:
		return "", fmt.Errorf("unsupported time unit %q", unit)
	}
	return Format(u.now().Add(time.Duration(diff)*step), orDefault(format, DefaultTimeFormat))
}

// MonthShort returns "Jan" for 1 through "Dec" for 12, "" otherwise.
func MonthShort(n int) string {
	if n < 1 || n > 12 {
		return ""
	}
	return monthsShort[n-1]
}

// MonthLong returns "January" for 1 through "December" for 12, "" otherwise.
func MonthLong(n int) string {
	if n < 1 || n > 12 {
		return ""
	}
	return time.Month(n).String()
}

// FormatDate re-renders value from inFormat to outFormat.
func FormatDate(value, inFormat, outFormat string) (string, error) {
	in, err := toStrftime(inFormat)
	if err != nil {
		return "", err
	}
	t, err := timefmt.Parse(value, in)
	if err != nil {
		return "", fmt.Errorf("parse %q as %q: %w", value, inFormat, err)
	}
	return Format(t, outFormat)
}

// FormatDuration renders d as HH:mm:ss, wrapping at 24 hours.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d/time.Second) % (24 * 60 * 60)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

// FormatDateUS renders an RFC 3339 timestamp or a YYYY-MM-DD date as
// "Jan 02, 2006, 03:04 PM".
func FormatDateUS(value string) (string, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("Jan 02, 2006, 03:04 PM"), nil
		}
	}
	return "", fmt.Errorf("unrecognised date %q", value)
}

// DayOfDate returns the weekday of year-month-day as a number ("0" is
// Sunday) or, with output "text", as its English name.
func DayOfDate(year, month, day, output string) (string, error) {
	t, err := time.Parse("2006-1-2", year+"-"+month+"-"+day)
	if err != nil {
		return "", fmt.Errorf("invalid date %s-%s-%s: %w", year, month, day, err)
	}
	switch output {
	case "", "number":
		return strconv.Itoa(int(t.Weekday())), nil
	case "text":
		return t.Weekday().String(), nil
	default:
		return "", fmt.Errorf("please specify a valid output format, got %q", output)
	}
}

// DayOfMonth describes today as a monthly recurrence, e.g.
// "Monthly on second Tuesday".
func (u *Util) DayOfMonth() string {
	now := u.now()
	weeks := []string{"first", "second", "third", "fourth", "fifth"}
	idx := (now.Day() - 1) / 7
	if idx >= len(weeks) {
		idx = len(weeks) - 1
	}
	return fmt.Sprintf("Monthly on %s %s", weeks[idx], now.Weekday())
}
