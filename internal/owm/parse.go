package owm

import (
	"time"

	"github.com/rbacarra/cliweather/internal/models"
)

// mpsToKmh converts the API's metric wind speed (m/s) to km/h.
const mpsToKmh = 3.6

type weatherDesc struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type rainVolume struct {
	OneHour   *float64 `json:"1h"`
	ThreeHour *float64 `json:"3h"`
}

type currentResponse struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []weatherDesc `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain *rainVolume `json:"rain"`
}

type forecastSlot struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []weatherDesc `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain *rainVolume `json:"rain"`
}

type forecastResponse struct {
	List []forecastSlot `json:"list"`
}

type oneCallResponse struct {
	Alerts []struct {
		SenderName  string   `json:"sender_name"`
		Event       string   `json:"event"`
		Start       int64    `json:"start"`
		End         int64    `json:"end"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	} `json:"alerts"`
}

// rainAmount extracts the precipitation figure. The API omits the rain object
// entirely when there is no rain, so absence maps to 0 rather than unknown.
func rainAmount(r *rainVolume) *float64 {
	v := 0.0
	if r != nil {
		switch {
		case r.OneHour != nil:
			v = *r.OneHour
		case r.ThreeHour != nil:
			v = *r.ThreeHour
		}
	}
	return &v
}

func conditions(ws []weatherDesc) string {
	if len(ws) == 0 {
		return ""
	}
	if ws[0].Description != "" {
		return ws[0].Description
	}
	return ws[0].Main
}

func mapCurrent(resp currentResponse, tz *time.Location) models.WeatherReading {
	return models.WeatherReading{
		Timestamp:   time.Unix(resp.Dt, 0).In(tz),
		Temperature: resp.Main.Temp,
		Rain:        rainAmount(resp.Rain),
		WindSpeed:   resp.Wind.Speed * mpsToKmh,
		Conditions:  conditions(resp.Weather),
	}
}

func mapSlot(slot forecastSlot, tz *time.Location) models.WeatherReading {
	return models.WeatherReading{
		Timestamp:   time.Unix(slot.Dt, 0).In(tz),
		Temperature: slot.Main.Temp,
		Rain:        rainAmount(slot.Rain),
		WindSpeed:   slot.Wind.Speed * mpsToKmh,
		Conditions:  conditions(slot.Weather),
	}
}

func mapHourly(resp forecastResponse, max int, tz *time.Location) models.ForecastSeries {
	n := len(resp.List)
	if n > max {
		n = max
	}
	series := make(models.ForecastSeries, 0, n)
	for _, slot := range resp.List[:n] {
		series = append(series, mapSlot(slot, tz))
	}
	return series
}

// mapDaily samples one slot per day from the 3-hourly forecast list.
func mapDaily(resp forecastResponse, tz *time.Location) models.ForecastSeries {
	series := make(models.ForecastSeries, 0, dailyCount)
	for i := 0; i < len(resp.List) && len(series) < dailyCount; i += dailyStep {
		series = append(series, mapSlot(resp.List[i], tz))
	}
	return series
}

func mapAlerts(resp oneCallResponse, tz *time.Location) []models.Alert {
	alerts := make([]models.Alert, 0, len(resp.Alerts))
	for _, a := range resp.Alerts {
		alerts = append(alerts, models.Alert{
			Event:       a.Event,
			Sender:      a.SenderName,
			Start:       time.Unix(a.Start, 0).In(tz),
			End:         time.Unix(a.End, 0).In(tz),
			Description: a.Description,
			Tags:        a.Tags,
		})
	}
	return alerts
}
