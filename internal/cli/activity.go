package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rbacarra/cliweather/internal/models"
)

func newActivityCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Manage activities and their weather criteria",
	}
	cmd.AddCommand(
		newActivityAddCmd(a),
		newActivityListCmd(a),
		newActivityRemoveCmd(a),
		newActivityEditCmd(a),
	)
	return cmd
}

// criteriaFlags binds the criterion flags for add/edit. Only flags the user
// actually set end up as defined criteria; everything else stays absent.
type criteriaFlags struct {
	tempMin, tempMax float64
	rainMax          float64
	windMin, windMax float64
	timeStart        string
	timeEnd          string
}

func (f *criteriaFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.tempMin, "temp-min", 0, "minimum temperature in °C")
	cmd.Flags().Float64Var(&f.tempMax, "temp-max", 0, "maximum temperature in °C")
	cmd.Flags().Float64Var(&f.rainMax, "rain-max", 0, "maximum rainfall in mm")
	cmd.Flags().Float64Var(&f.windMin, "wind-min", 0, "minimum wind speed in km/h")
	cmd.Flags().Float64Var(&f.windMax, "wind-max", 0, "maximum wind speed in km/h")
	cmd.Flags().StringVar(&f.timeStart, "from", "", "time-of-day window start as HH:MM")
	cmd.Flags().StringVar(&f.timeEnd, "to", "", "time-of-day window end as HH:MM")
}

// apply copies the flags the user set onto c, leaving the rest untouched so
// edit only changes what was given.
func (f *criteriaFlags) apply(cmd *cobra.Command, c *models.Criteria) {
	if cmd.Flags().Changed("temp-min") {
		c.TempMin = models.Float(f.tempMin)
	}
	if cmd.Flags().Changed("temp-max") {
		c.TempMax = models.Float(f.tempMax)
	}
	if cmd.Flags().Changed("rain-max") {
		c.RainMax = models.Float(f.rainMax)
	}
	if cmd.Flags().Changed("wind-min") {
		c.WindMin = models.Float(f.windMin)
	}
	if cmd.Flags().Changed("wind-max") {
		c.WindMax = models.Float(f.windMax)
	}
	if cmd.Flags().Changed("from") {
		c.TimeStart = f.timeStart
	}
	if cmd.Flags().Changed("to") {
		c.TimeEnd = f.timeEnd
	}
}

func newActivityAddCmd(a *app) *cobra.Command {
	var flags criteriaFlags
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Define an activity",
		Long: `Define an activity with weather criteria. Every criterion is optional;
an activity with no criteria matches every forecast slot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := models.ValidateName(args[0])
			if err != nil {
				return err
			}
			act := models.Activity{Name: name}
			flags.apply(cmd, &act.Criteria)
			if err := a.store.SaveActivity(act); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved activity %s\n", act.Name)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newActivityEditCmd(a *app) *cobra.Command {
	var flags criteriaFlags
	cmd := &cobra.Command{
		Use:   "edit <name>",
		Short: "Change an activity's criteria",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			act, err := a.store.Activity(args[0])
			if err != nil {
				return err
			}
			flags.apply(cmd, &act.Criteria)
			if err := a.store.SaveActivity(act); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s\n", act.Name)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newActivityListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List activities and their criteria",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			activities, err := a.store.Activities()
			if err != nil {
				return err
			}
			printActivities(cmd.OutOrStdout(), activities)
			return nil
		},
	}
}

func newActivityRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.DeleteActivity(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}
