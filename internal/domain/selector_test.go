package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { SetClock(nil) })
}

func TestParseInterval(t *testing.T) {
	iv, err := ParseInterval("all_week")
	require.NoError(t, err)
	assert.Equal(t, IntervalWeek, iv)

	iv, err = ParseInterval(" HOUR ")
	require.NoError(t, err)
	assert.Equal(t, IntervalHour, iv)

	_, err = ParseInterval("year")
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("4.5")
	require.NoError(t, err)
	assert.Equal(t, Level45, l)

	_, err = ParseLevel("3.0")
	require.Error(t, err)
}

func TestSelector_Validate(t *testing.T) {
	tests := []struct {
		name    string
		sel     Selector
		wantErr string
	}{
		{"default", DefaultSelector(), ""},
		{"interval without level", Selector{Mode: ModeInterval, Interval: IntervalMonth}, ""},
		{"bad interval", Selector{Mode: ModeInterval, Interval: "year"}, "interval"},
		{"bad level", Selector{Mode: ModeInterval, Interval: IntervalDay, Level: "7.0"}, "level"},
		{"days ok", Selector{Mode: ModeDays, Days: 7}, ""},
		{"days zero", Selector{Mode: ModeDays, Days: 0}, "days must be"},
		{"days too many", Selector{Mode: ModeDays, Days: 31}, "days must be"},
		{"range open", Selector{Mode: ModeRange}, ""},
		{"range start only", Selector{Mode: ModeRange, Start: "2024-04-01"}, ""},
		{"range ok", Selector{Mode: ModeRange, Start: "2024-04-01", End: "2024-04-26"}, ""},
		{"range same day", Selector{Mode: ModeRange, Start: "2024-04-26", End: "2024-04-26"}, ""},
		{"range inverted", Selector{Mode: ModeRange, Start: "2024-04-27", End: "2024-04-26"}, "after end"},
		{"range bad date", Selector{Mode: ModeRange, Start: "04/01/2024"}, "YYYY-MM-DD"},
		{"unknown mode", Selector{Mode: "radius"}, "unknown search mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sel.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSelector_DateBounds(t *testing.T) {
	freezeClock(t, time.Date(2024, time.April, 26, 23, 30, 0, 0, time.UTC))

	start, end := Selector{Mode: ModeDays, Days: 3}.DateBounds()
	assert.Equal(t, "2024-04-23", start)
	assert.Equal(t, "2024-04-26", end)

	start, end = Selector{Mode: ModeRange, Start: " 2024-01-01 "}.DateBounds()
	assert.Equal(t, "2024-01-01", start)
	assert.Empty(t, end)

	start, end = DefaultSelector().DateBounds()
	assert.Empty(t, start)
	assert.Empty(t, end)
}

func TestSelector_Key(t *testing.T) {
	freezeClock(t, time.Date(2024, time.April, 26, 12, 0, 0, 0, time.UTC))

	assert.Equal(t, "interval:all_day", DefaultSelector().Key())
	assert.Equal(t, "interval:all_hour", Selector{Mode: ModeInterval, Interval: IntervalHour}.Key())
	assert.Equal(t, "days:2024-04-25..2024-04-26", Selector{Mode: ModeDays, Days: 1}.Key())
	assert.Equal(t, "range:2024-04-01..", Selector{Mode: ModeRange, Start: "2024-04-01"}.Key())
}

func TestSelector_String(t *testing.T) {
	assert.Equal(t, "all · past day", DefaultSelector().String())
	assert.Equal(t, "past 1 day", Selector{Mode: ModeDays, Days: 1}.String())
	assert.Equal(t, "past 7 days", Selector{Mode: ModeDays, Days: 7}.String())
	assert.Equal(t, "… → 2024-04-26", Selector{Mode: ModeRange, End: "2024-04-26"}.String())
}

func TestPalette(t *testing.T) {
	assert.Equal(t, MagnitudePalette[0].Color, PaletteColor(-1))
	assert.Equal(t, MagnitudePalette[0].Color, MarkerColor(Feature{}))
	assert.Equal(t, "#facc15", PaletteColor(3.2))
	assert.Equal(t, "#a21caf", PaletteColor(8.0))
	assert.Equal(t, BucketColors[0], BucketColor(5))
	assert.Equal(t, 3.0, MarkerRadius(Feature{}))
	assert.Greater(t, MarkerRadius(Feature{Magnitude: Float(6)}), MarkerRadius(Feature{Magnitude: Float(2)}))
}
