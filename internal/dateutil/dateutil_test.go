package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func fixed(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDefaultFormats(t *testing.T) {
	u := New(fixed(time.Date(2024, time.March, 5, 14, 7, 9, 0, ist)))

	got, err := u.Date("")
	require.NoError(t, err)
	assert.Equal(t, "05/03/2024", got)

	got, err = u.Time("")
	require.NoError(t, err)
	assert.Equal(t, "14:07:09", got)

	got, err = u.Date("DD MMMM YYYY, dddd")
	require.NoError(t, err)
	assert.Equal(t, "05 March 2024, Tuesday", got)

	got, err = u.Time("hh:mm A")
	require.NoError(t, err)
	assert.Equal(t, "02:07 PM", got)

	got, err = u.Month("MMM")
	require.NoError(t, err)
	assert.Equal(t, "Mar", got)
}

func TestLiteralsAndUnsupportedTokens(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

	got, err := Format(ts, "[Day] DD [at 100%]")
	require.NoError(t, err)
	assert.Equal(t, "Day 05 at 100%", got)

	_, err = Format(ts, "D/M/YYYY")
	assert.Error(t, err)
	_, err = Format(ts, "[open")
	assert.Error(t, err)
}

func TestISOString(t *testing.T) {
	u := New(fixed(time.Date(2024, time.March, 5, 14, 7, 9, 123e6, ist)))

	assert.Equal(t, "2024-03-05T08:37:09.123Z", u.ISOString(true, false))
	assert.Equal(t, "2024-03-05T14:07:09.123+05:30", u.ISOString(false, true))
	assert.Equal(t, "2024-03-05T14:07:09.123", u.ISOString(false, false))
}

func TestRelativeDates(t *testing.T) {
	u := New(fixed(time.Date(2024, time.January, 31, 23, 30, 0, 0, time.UTC)))

	got, err := u.DateFromToday(1, "")
	require.NoError(t, err)
	assert.Equal(t, "01/02/2024", got)

	got, err = u.DateFromToday(-31, "YYYY-MM-DD")
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", got)

	got, err = u.MonthsFromToday(1, "")
	require.NoError(t, err)
	assert.Equal(t, "29/02/2024", got)

	got, err = u.MonthsFromToday(-2, "")
	require.NoError(t, err)
	assert.Equal(t, "30/11/2023", got)

	got, err = u.TimeFromNow(45, "minutes", "")
	require.NoError(t, err)
	assert.Equal(t, "00:15:00", got)

	got, err = u.TimeFromNow(-2, "", "")
	require.NoError(t, err)
	assert.Equal(t, "21:30:00", got)

	_, err = u.TimeFromNow(1, "fortnight", "")
	assert.Error(t, err)
}

func TestMonthNames(t *testing.T) {
	assert.Equal(t, "Jan", MonthShort(1))
	assert.Equal(t, "December", MonthLong(12))
	assert.Equal(t, "", MonthShort(13))
	assert.Equal(t, "", MonthLong(0))
}

func TestFormatDate(t *testing.T) {
	got, err := FormatDate("05/03/2024 02:07:09 PM", "DD/MM/YYYY hh:mm:ss A", "YYYY-MM-DD HH:mm")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05 14:07", got)

	_, err = FormatDate("not a date", "DD/MM/YYYY", "YYYY")
	assert.Error(t, err)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatDuration(0))
	assert.Equal(t, "00:01:05", FormatDuration(65*time.Second+400*time.Millisecond))
	assert.Equal(t, "02:03:04", FormatDuration(2*time.Hour+3*time.Minute+4*time.Second))
	assert.Equal(t, "01:00:00", FormatDuration(25*time.Hour))
}

func TestFormatDateUS(t *testing.T) {
	got, err := FormatDateUS("2024-03-05T14:07:09Z")
	require.NoError(t, err)
	assert.Equal(t, "Mar 05, 2024, 02:07 PM", got)

	got, err = FormatDateUS("2024-12-25")
	require.NoError(t, err)
	assert.Equal(t, "Dec 25, 2024, 12:00 AM", got)

	_, err = FormatDateUS("yesterday")
	assert.Error(t, err)
}

func TestDayOfDate(t *testing.T) {
	got, err := DayOfDate("2024", "03", "05", "number")
	require.NoError(t, err)
	assert.Equal(t, "2", got)

	got, err = DayOfDate("2024", "03", "10", "text")
	require.NoError(t, err)
	assert.Equal(t, "Sunday", got)

	_, err = DayOfDate("2024", "03", "05", "roman")
	assert.Error(t, err)
	_, err = DayOfDate("2024", "13", "05", "number")
	assert.Error(t, err)
}

func TestDayOfMonth(t *testing.T) {
	assert.Equal(t, "Monthly on first Tuesday", New(fixed(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC))).DayOfMonth())
	assert.Equal(t, "Monthly on second Tuesday", New(fixed(time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC))).DayOfMonth())
	assert.Equal(t, "Monthly on fifth Friday", New(fixed(time.Date(2024, time.March, 29, 0, 0, 0, 0, time.UTC))).DayOfMonth())
}
