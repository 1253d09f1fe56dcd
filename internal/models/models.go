package models

import (
	"fmt"
	"time"
)

// QueryKind identifies the granularity of a weather query. It is part of the
// cache key, so values must stay stable across releases.
type QueryKind string

const (
	QueryCurrent QueryKind = "current"
	QueryHourly  QueryKind = "hourly"
	QueryDaily   QueryKind = "daily"
)

// Location is a named geographic point. Locations are immutable once saved;
// the user deletes and re-adds to change coordinates.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Address   string  `json:"address,omitempty"`
}

// CoordString renders the location as "lat, lon", the format used for
// display and for free-form coordinate input.
func (l Location) CoordString() string {
	return fmt.Sprintf("%g, %g", l.Latitude, l.Longitude)
}

// WeatherReading is one normalized observation or forecast slot. Depending on
// the query kind a reading covers one forecast interval or one day.
//
// Rain is a pointer so that "no figure available" is distinguishable from
// "0 mm". The OpenWeatherMap mapper always sets it (the API omitting the rain
// object means no rain); nil only occurs for payloads from other sources.
type WeatherReading struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"` // °C
	Rain        *float64  `json:"rain,omitempty"` // mm
	WindSpeed   float64   `json:"windSpeed"` // km/h
	Conditions  string    `json:"conditions"`
}

// ForecastSeries is an ordered sequence of readings, ascending by timestamp.
type ForecastSeries []WeatherReading

// Alert is an active weather warning from the upstream provider.
type Alert struct {
	Event       string    `json:"event"`
	Sender      string    `json:"sender,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags,omitempty"`
}

// Criteria holds the weather thresholds an activity defines. Every field is
// optional; an absent field means that criterion is skipped during matching.
// Bounds use pointers so presence is explicit rather than inferred from zero
// values (0 °C is a perfectly good lower bound).
type Criteria struct {
	TempMin *float64 `json:"tempMin,omitempty"` // °C
	TempMax *float64 `json:"tempMax,omitempty"` // °C
	RainMax *float64 `json:"rainMax,omitempty" validate:"omitempty,gte=0"` // mm
	WindMin *float64 `json:"windMin,omitempty" validate:"omitempty,gte=0"` // km/h
	WindMax *float64 `json:"windMax,omitempty" validate:"omitempty,gte=0"` // km/h

	// TimeStart/TimeEnd bound the time-of-day window in "HH:MM" format.
	// The window is [start, end) and wraps past midnight when end < start.
	TimeStart string `json:"timeStart,omitempty"`
	TimeEnd   string `json:"timeEnd,omitempty"`
}

// HasTimeWindow reports whether the criteria restrict the time of day.
func (c Criteria) HasTimeWindow() bool {
	return c.TimeStart != "" && c.TimeEnd != ""
}

// Empty reports whether no criterion at all is defined. Empty criteria match
// every reading.
func (c Criteria) Empty() bool {
	return c.TempMin == nil && c.TempMax == nil && c.RainMax == nil &&
		c.WindMin == nil && c.WindMax == nil && !c.HasTimeWindow()
}

// Activity is a named set of criteria the user wants weather recommendations
// for.
type Activity struct {
	Name     string   `json:"name"`
	Criteria Criteria `json:"criteria"`
}

// Float returns a pointer to v. Convenience for building Criteria literals.
func Float(v float64) *float64 {
	return &v
}
