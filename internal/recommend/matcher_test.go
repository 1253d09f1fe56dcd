package recommend

import (
	"testing"
	"time"

	"github.com/rbacarra/cliweather/internal/models"
)

func reading(temp, rain, wind float64, hour int) models.WeatherReading {
	return models.WeatherReading{
		Timestamp:   time.Date(2026, 8, 26, hour, 0, 0, 0, time.UTC),
		Temperature: temp,
		Rain:        models.Float(rain),
		WindSpeed:   wind,
	}
}

// TestMatches_NoCriteria verifies the degenerate "always recommend" case:
// criteria with no bounds at all match every reading.
func TestMatches_NoCriteria(t *testing.T) {
	readings := []models.WeatherReading{
		reading(-10, 50, 90, 3),
		reading(45, 0, 0, 23),
		{}, // zero-valued reading, no rain figure
	}
	for i, r := range readings {
		if !Matches(r, models.Criteria{}) {
			t.Errorf("Matches(reading %d, empty criteria) = false, want true", i)
		}
	}
}

// TestMatches_TemperatureBounds verifies two-sided and one-sided temperature
// bounds.
func TestMatches_TemperatureBounds(t *testing.T) {
	tests := []struct {
		name string
		temp float64
		c    models.Criteria
		want bool
	}{
		{"within both bounds", 20, models.Criteria{TempMin: models.Float(15), TempMax: models.Float(25)}, true},
		{"below min", 10, models.Criteria{TempMin: models.Float(15), TempMax: models.Float(25)}, false},
		{"above max", 30, models.Criteria{TempMin: models.Float(15), TempMax: models.Float(25)}, false},
		{"only min set, above", 30, models.Criteria{TempMin: models.Float(15)}, true},
		{"only max set, below", -5, models.Criteria{TempMax: models.Float(25)}, true},
		{"at min boundary", 15, models.Criteria{TempMin: models.Float(15)}, true},
		{"at max boundary", 25, models.Criteria{TempMax: models.Float(25)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(reading(tt.temp, 0, 0, 12), tt.c); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestMatches_TempAboveMaxOverridesRest verifies that a failed temperature
// bound rejects the reading regardless of every other field.
func TestMatches_TempAboveMaxOverridesRest(t *testing.T) {
	c := models.Criteria{
		TempMax: models.Float(25),
		RainMax: models.Float(100),
		WindMax: models.Float(100),
	}
	if Matches(reading(26, 0, 0, 12), c) {
		t.Error("Matches() = true for temp above max, want false")
	}
}

// TestMatches_Rain verifies the rainfall cap.
func TestMatches_Rain(t *testing.T) {
	c := models.Criteria{RainMax: models.Float(1)}
	if !Matches(reading(20, 1, 0, 12), c) {
		t.Error("Matches() = false for rain at cap, want true")
	}
	if Matches(reading(20, 1.5, 0, 12), c) {
		t.Error("Matches() = true for rain above cap, want false")
	}
}

// TestMatches_MissingFieldWithBoundSet verifies the chosen policy for absent
// data: a rain bound against a reading with no rain figure is a non-match,
// while the same reading passes when the bound is unset.
func TestMatches_MissingFieldWithBoundSet(t *testing.T) {
	r := models.WeatherReading{
		Timestamp:   time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
		Temperature: 20,
	}
	if Matches(r, models.Criteria{RainMax: models.Float(5)}) {
		t.Error("Matches() = true for missing rain with bound set, want false")
	}
	if !Matches(r, models.Criteria{TempMax: models.Float(25)}) {
		t.Error("Matches() = false for missing rain with no rain bound, want true")
	}
}

// TestMatches_Wind verifies wind bounds behave like temperature bounds.
func TestMatches_Wind(t *testing.T) {
	c := models.Criteria{WindMin: models.Float(5), WindMax: models.Float(20)}
	if !Matches(reading(20, 0, 10, 12), c) {
		t.Error("Matches() = false for wind within bounds, want true")
	}
	if Matches(reading(20, 0, 3, 12), c) {
		t.Error("Matches() = true for wind below min, want false")
	}
	if Matches(reading(20, 0, 25, 12), c) {
		t.Error("Matches() = true for wind above max, want false")
	}
}

// TestMatches_TimeWindow verifies the [start, end) window, including the
// exclusive end bound.
func TestMatches_TimeWindow(t *testing.T) {
	c := models.Criteria{TimeStart: "06:00", TimeEnd: "12:00"}
	if !Matches(reading(20, 0, 0, 6), c) {
		t.Error("Matches() = false at window start, want true (inclusive)")
	}
	if Matches(reading(20, 0, 0, 12), c) {
		t.Error("Matches() = true at window end, want false (exclusive)")
	}
	if Matches(reading(20, 0, 0, 3), c) {
		t.Error("Matches() = true before window, want false")
	}
}

// TestMatches_TimeWindowWrapsMidnight verifies that end < start wraps the
// window past midnight.
func TestMatches_TimeWindowWrapsMidnight(t *testing.T) {
	c := models.Criteria{TimeStart: "22:00", TimeEnd: "06:00"}
	if !Matches(reading(20, 0, 0, 23), c) {
		t.Error("Matches() = false at 23:00 in 22:00-06:00 window, want true")
	}
	if !Matches(reading(20, 0, 0, 2), c) {
		t.Error("Matches() = false at 02:00 in 22:00-06:00 window, want true")
	}
	if Matches(reading(20, 0, 0, 12), c) {
		t.Error("Matches() = true at noon in 22:00-06:00 window, want false")
	}
}

// TestMatches_ZeroTimestampSkipsWindow verifies a reading without a clock
// time skips the time criterion instead of failing it.
func TestMatches_ZeroTimestampSkipsWindow(t *testing.T) {
	r := models.WeatherReading{Temperature: 20, Rain: models.Float(0)}
	c := models.Criteria{TimeStart: "06:00", TimeEnd: "12:00"}
	if !Matches(r, c) {
		t.Error("Matches() = false for zero timestamp with time window, want true")
	}
}
