package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rbacarra/cliweather/internal/models"
)

func printHeader(w io.Writer, title string, loc models.Location, stale bool) {
	fmt.Fprintf(w, "%s for %s (%s)\n", title, loc.Name, loc.CoordString())
	if stale {
		fmt.Fprintln(w, "Warning: weather service unreachable, showing cached data")
	}
}

func printReading(w io.Writer, r models.WeatherReading, withTime bool) {
	layout := "2006-01-02"
	if withTime {
		layout = "2006-01-02 15:04"
	}
	rain := "n/a"
	if r.Rain != nil {
		rain = fmt.Sprintf("%.1f mm", *r.Rain)
	}
	fmt.Fprintf(w, "%s  %.1f°C  %s  wind %.1f km/h  rain %s\n",
		r.Timestamp.Format(layout), r.Temperature, r.Conditions, r.WindSpeed, rain)
}

func printSeries(w io.Writer, series models.ForecastSeries, withTime bool) {
	layout := "2006-01-02"
	if withTime {
		layout = "2006-01-02 15:04"
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tTEMP\tCONDITIONS\tWIND\tRAIN")
	for _, r := range series {
		rain := "n/a"
		if r.Rain != nil {
			rain = fmt.Sprintf("%.1f mm", *r.Rain)
		}
		fmt.Fprintf(tw, "%s\t%.1f°C\t%s\t%.1f km/h\t%s\n",
			r.Timestamp.Format(layout), r.Temperature, r.Conditions, r.WindSpeed, rain)
	}
	tw.Flush()
}

func printAlerts(w io.Writer, loc models.Location, alerts []models.Alert) {
	if len(alerts) == 0 {
		fmt.Fprintf(w, "No active alerts for %s\n", loc.Name)
		return
	}
	fmt.Fprintf(w, "%d active alert(s) for %s:\n", len(alerts), loc.Name)
	for _, al := range alerts {
		fmt.Fprintf(w, "\n%s", al.Event)
		if al.Sender != "" {
			fmt.Fprintf(w, " (%s)", al.Sender)
		}
		fmt.Fprintf(w, "\n  %s to %s\n", al.Start.Format("2006-01-02 15:04"), al.End.Format("2006-01-02 15:04"))
		if al.Description != "" {
			fmt.Fprintf(w, "  %s\n", al.Description)
		}
	}
}

func printRecommendation(w io.Writer, act models.Activity, loc models.Location, slots models.ForecastSeries, stale bool) {
	if stale {
		fmt.Fprintln(w, "Warning: weather service unreachable, judging cached data")
	}
	if len(slots) == 0 {
		fmt.Fprintf(w, "No days in the forecast window suit %s at %s\n", act.Name, loc.Name)
		return
	}
	fmt.Fprintf(w, "Good slots for %s at %s:\n", act.Name, loc.Name)
	printSeries(w, slots, act.Criteria.HasTimeWindow())
}

func printLocations(w io.Writer, locations []models.Location) {
	if len(locations) == 0 {
		fmt.Fprintln(w, "No saved locations")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCOORDINATES\tADDRESS")
	for _, loc := range locations {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", loc.Name, loc.CoordString(), loc.Address)
	}
	tw.Flush()
}

func printActivities(w io.Writer, activities []models.Activity) {
	if len(activities) == 0 {
		fmt.Fprintln(w, "No saved activities")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTEMP\tRAIN\tWIND\tTIME")
	for _, act := range activities {
		c := act.Criteria
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			act.Name,
			rangeString(c.TempMin, c.TempMax, "°C"),
			maxString(c.RainMax, "mm"),
			rangeString(c.WindMin, c.WindMax, "km/h"),
			windowString(c))
	}
	tw.Flush()
}

func rangeString(min, max *float64, unit string) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("%g-%g %s", *min, *max, unit)
	case min != nil:
		return fmt.Sprintf(">=%g %s", *min, unit)
	case max != nil:
		return fmt.Sprintf("<=%g %s", *max, unit)
	}
	return "any"
}

func maxString(max *float64, unit string) string {
	if max == nil {
		return "any"
	}
	return fmt.Sprintf("<=%g %s", *max, unit)
}

func windowString(c models.Criteria) string {
	if !c.HasTimeWindow() {
		return "all day"
	}
	return fmt.Sprintf("%s-%s", c.TimeStart, c.TimeEnd)
}
