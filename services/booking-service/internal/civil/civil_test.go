package civil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateAndWeekday(t *testing.T) {
	d, err := ParseDate("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, "2026-03-03", d.AddDays(1).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.Before(d))

	_, err = ParseDate("02/03/2026")
	assert.Error(t, err)
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, NewClock(9, 30), c)
	assert.Equal(t, "09:30", c.String())

	c, err = ParseClock("12:00:00")
	require.NoError(t, err)
	assert.Equal(t, NewClock(12, 0), c)

	c, err = ParseClock("24:00")
	require.NoError(t, err)
	assert.Equal(t, EndOfDay, c)

	for _, bad := range []string{"9h", "12:00:30", "25:00", ""} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestAtKeepsWallClockInLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	d := Date{Year: 2026, Month: time.March, Day: 2}
	got := d.At(NewClock(10, 0), loc)
	assert.Equal(t, 10, got.Hour())
	assert.Equal(t, "2026-03-02T10:00", FormatLocal(got, loc))
	assert.Equal(t, 13, got.UTC().Hour())
}

func TestWallRoundTrip(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	local := time.Date(2026, 3, 2, 10, 0, 0, 0, loc)
	wall := Wall(local)
	assert.Equal(t, time.UTC, wall.Location())
	assert.Equal(t, 10, wall.Hour(), "wall clock must not shift")
	assert.True(t, FromWall(wall, loc).Equal(local))
}

func TestParseDateTime(t *testing.T) {
	dt, err := ParseDateTime("2026-03-02T12:15")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2026, Month: time.March, Day: 2}, dt.Date)
	assert.Equal(t, NewClock(12, 15), dt.Clock)
	assert.Equal(t, "2026-03-02T12:15", dt.String())

	_, err = ParseDateTime("2026-03-02T12:15:00Z")
	assert.Error(t, err)
}

func TestBoundsAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	start, end := Date{Year: 2026, Month: time.March, Day: 8}.Bounds(loc)
	assert.Equal(t, 23*time.Hour, end.Sub(start))

	ms, me := Date{Year: 2026, Month: time.December, Day: 15}.MonthBounds(loc)
	assert.Equal(t, "2026-12-01T00:00", FormatLocal(ms, loc))
	assert.Equal(t, "2027-01-01T00:00", FormatLocal(me, loc))
}
