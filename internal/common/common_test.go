package common

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"
)

func TestDayNextRollsOverYear(t *testing.T) {
	assert.Equal(t, Day{Year: 2024, Day: 366}, Day{Year: 2024, Day: 365}.Next())
	assert.Equal(t, Day{Year: 2025, Day: 1}, Day{Year: 2024, Day: 366}.Next())
	assert.Equal(t, Day{Year: 2026, Day: 1}, Day{Year: 2025, Day: 365}.Next())
}

func TestDayOrderingAndLastDay(t *testing.T) {
	assert.Equal(t, true, Day{Year: 2024, Day: 10}.Before(Day{Year: 2024, Day: 11}))
	assert.Equal(t, true, Day{Year: 2024, Day: 366}.Before(Day{Year: 2025, Day: 1}))
	assert.Equal(t, false, Day{Year: 2025, Day: 3}.Before(Day{Year: 2025, Day: 3}))

	assert.Equal(t, true, Day{Year: 2024, Day: 366}.IsLastOfYear())
	assert.Equal(t, false, Day{Year: 2024, Day: 365}.IsLastOfYear())
	assert.Equal(t, true, Day{Year: 2025, Day: 365}.IsLastOfYear())
}

func TestDayDateRoundTrip(t *testing.T) {
	d := Day{Year: 2025, Day: 60}
	date := d.Date(time.UTC)
	assert.Equal(t, time.March, date.Month())
	assert.Equal(t, 1, date.Day())
	assert.Equal(t, d, DayOf(date))
}

func TestPluralizeCoins(t *testing.T) {
	cases := map[int64]string{
		1:   "койн",
		3:   "койна",
		5:   "койнов",
		11:  "койнов",
		21:  "койн",
		112: "койнов",
		-2:  "койна",
	}
	for n, want := range cases {
		if got := PluralizeCoins(n); got != want {
			t.Fatalf("PluralizeCoins(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "2 350", FormatNumber(2350))
	assert.Equal(t, "1 000 000", FormatNumber(1000000))
	assert.Equal(t, "-15", FormatNumber(-15))
	assert.Equal(t, "+4 койна", FormatCoinsAmount(4))
}
