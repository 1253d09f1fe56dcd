package recommend

import (
	"sort"
	"time"

	"github.com/rbacarra/cliweather/internal/models"
)

// Recommend returns the subsequence of series matching the criteria, in the
// original ascending-timestamp order. No re-ranking: "best days" means every
// day that passes the filter, chronologically. An empty result is a valid
// answer, not an error.
func Recommend(series models.ForecastSeries, c models.Criteria) models.ForecastSeries {
	out := make(models.ForecastSeries, 0, len(series))
	for _, r := range series {
		if Matches(r, c) {
			out = append(out, r)
		}
	}
	return out
}

// RecommendWindowed evaluates time-of-day-restricted activities. Hourly
// readings inside the window are grouped per calendar day and collapsed into
// one aggregate reading (mean temperature, summed rain, min/max wind); days
// whose aggregate satisfies the remaining criteria are returned in
// chronological order.
func RecommendWindowed(hourly models.ForecastSeries, c models.Criteria) models.ForecastSeries {
	if !c.HasTimeWindow() {
		return Recommend(hourly, c)
	}

	byDay := make(map[string][]models.WeatherReading)
	for _, r := range hourly {
		if r.Timestamp.IsZero() || !clockWithin(r.Timestamp, c.TimeStart, c.TimeEnd) {
			continue
		}
		day := r.Timestamp.Format("2006-01-02")
		byDay[day] = append(byDay[day], r)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	out := make(models.ForecastSeries, 0, len(days))
	for _, day := range days {
		agg := aggregateDay(byDay[day])
		if matchesAggregate(agg, c) {
			out = append(out, agg.reading())
		}
	}
	return out
}

// dayAggregate summarizes the in-window hours of one day. TotalRain is nil
// when any member hour has no rain figure; an unknown part makes the whole
// unknown.
type dayAggregate struct {
	date      time.Time
	avgTemp   float64
	totalRain *float64
	minWind   float64
	maxWind   float64
}

func aggregateDay(hours []models.WeatherReading) dayAggregate {
	first := hours[0].Timestamp
	agg := dayAggregate{
		date:    time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, first.Location()),
		minWind: hours[0].WindSpeed,
		maxWind: hours[0].WindSpeed,
	}

	var tempSum, rainSum float64
	rainKnown := true
	for _, h := range hours {
		tempSum += h.Temperature
		if h.Rain == nil {
			rainKnown = false
		} else if rainKnown {
			rainSum += *h.Rain
		}
		if h.WindSpeed < agg.minWind {
			agg.minWind = h.WindSpeed
		}
		if h.WindSpeed > agg.maxWind {
			agg.maxWind = h.WindSpeed
		}
	}
	agg.avgTemp = tempSum / float64(len(hours))
	if rainKnown {
		agg.totalRain = &rainSum
	}
	return agg
}

// matchesAggregate applies the non-time criteria to a day summary: mean
// temperature within bounds, summed rain under the cap, and the whole wind
// range inside [min, max].
func matchesAggregate(a dayAggregate, c models.Criteria) bool {
	if c.TempMin != nil && a.avgTemp < *c.TempMin {
		return false
	}
	if c.TempMax != nil && a.avgTemp > *c.TempMax {
		return false
	}
	if c.RainMax != nil {
		if a.totalRain == nil || *a.totalRain > *c.RainMax {
			return false
		}
	}
	if c.WindMin != nil && a.minWind < *c.WindMin {
		return false
	}
	if c.WindMax != nil && a.maxWind > *c.WindMax {
		return false
	}
	return true
}

func (a dayAggregate) reading() models.WeatherReading {
	return models.WeatherReading{
		Timestamp:   a.date,
		Temperature: a.avgTemp,
		Rain:        a.totalRain,
		WindSpeed:   (a.minWind + a.maxWind) / 2,
	}
}
