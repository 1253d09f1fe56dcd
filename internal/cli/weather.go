package cli

import (
	"github.com/spf13/cobra"
)

func newCurrentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "current [location]",
		Short: "Show current conditions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			loc, err := a.resolveLocation(ctx, optionalArg(args))
			if err != nil {
				return err
			}
			svc, err := a.weatherService()
			if err != nil {
				return err
			}
			reading, stale, err := svc.Current(ctx, loc)
			if err != nil {
				return err
			}
			printHeader(cmd.OutOrStdout(), "Current conditions", loc, stale)
			printReading(cmd.OutOrStdout(), reading, true)
			return nil
		},
	}
}

func newHourlyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hourly [location]",
		Short: "Show the hourly forecast",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			loc, err := a.resolveLocation(ctx, optionalArg(args))
			if err != nil {
				return err
			}
			svc, err := a.weatherService()
			if err != nil {
				return err
			}
			series, stale, err := svc.Hourly(ctx, loc)
			if err != nil {
				return err
			}
			printHeader(cmd.OutOrStdout(), "Hourly forecast", loc, stale)
			printSeries(cmd.OutOrStdout(), series, true)
			return nil
		},
	}
}

func newForecastCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "forecast [location]",
		Aliases: []string{"daily"},
		Short:   "Show the 5-day forecast",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			loc, err := a.resolveLocation(ctx, optionalArg(args))
			if err != nil {
				return err
			}
			svc, err := a.weatherService()
			if err != nil {
				return err
			}
			series, stale, err := svc.Daily(ctx, loc)
			if err != nil {
				return err
			}
			printHeader(cmd.OutOrStdout(), "5-day forecast", loc, stale)
			printSeries(cmd.OutOrStdout(), series, false)
			return nil
		},
	}
}

func newAlertsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts [location]",
		Short: "Show active weather alerts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			loc, err := a.resolveLocation(ctx, optionalArg(args))
			if err != nil {
				return err
			}
			svc, err := a.weatherService()
			if err != nil {
				return err
			}
			alerts, err := svc.Alerts(ctx, loc)
			if err != nil {
				return err
			}
			printAlerts(cmd.OutOrStdout(), loc, alerts)
			return nil
		},
	}
}

func newRecommendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend <activity> [location]",
		Short: "Recommend days for an activity",
		Long: `Recommend lists the forecast slots that satisfy every criterion the
activity defines, in chronological order. Activities with a time-of-day
window are judged on their in-window hours aggregated per day.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			act, err := a.store.Activity(args[0])
			if err != nil {
				return err
			}
			loc, err := a.resolveLocation(ctx, optionalArg(args[1:]))
			if err != nil {
				return err
			}
			svc, err := a.weatherService()
			if err != nil {
				return err
			}
			slots, stale, err := svc.Recommend(ctx, loc, act)
			if err != nil {
				return err
			}
			printRecommendation(cmd.OutOrStdout(), act, loc, slots, stale)
			return nil
		},
	}
}
