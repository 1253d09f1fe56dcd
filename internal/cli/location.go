package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rbacarra/cliweather/internal/models"
)

func newLocationCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Manage saved locations",
	}
	cmd.AddCommand(
		newLocationAddCmd(a),
		newLocationListCmd(a),
		newLocationRemoveCmd(a),
		newLocationHereCmd(a),
		newLocationSearchCmd(a),
	)
	return cmd
}

func newLocationAddCmd(a *app) *cobra.Command {
	var coords string
	cmd := &cobra.Command{
		Use:   "add <name> [address]",
		Short: "Save a location by address or coordinates",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := models.ValidateName(args[0])
			if err != nil {
				return err
			}

			var loc models.Location
			switch {
			case coords != "":
				lat, lon, ok := parseCoords(coords)
				if !ok {
					return fmt.Errorf("invalid coordinates %q, expected \"lat,lon\"", coords)
				}
				loc = models.Location{Name: name, Latitude: lat, Longitude: lon}
			case len(args) == 2:
				found, err := a.geo.Geocode(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				loc = models.Location{Name: name, Latitude: found.Latitude, Longitude: found.Longitude, Address: found.Address}
			default:
				return fmt.Errorf("give an address argument or --coords")
			}

			if err := a.store.SaveLocation(loc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", loc.Name, loc.CoordString())
			return nil
		},
	}
	cmd.Flags().StringVar(&coords, "coords", "", "coordinates as \"lat,lon\" instead of geocoding an address")
	return cmd
}

func newLocationListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			locations, err := a.store.Locations()
			if err != nil {
				return err
			}
			printLocations(cmd.OutOrStdout(), locations)
			return nil
		},
	}
}

func newLocationRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a saved location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.DeleteLocation(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func newLocationHereCmd(a *app) *cobra.Command {
	var save string
	cmd := &cobra.Command{
		Use:   "here",
		Short: "Show the current location from your public IP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.geo.Current(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", loc.Address, loc.CoordString())
			if save != "" {
				loc.Name = save
				if err := a.store.SaveLocation(loc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved as %s\n", save)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&save, "save", "", "save the resolved location under this name")
	return cmd
}

func newLocationSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search for locations matching a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]
			for _, extra := range args[1:] {
				query += " " + extra
			}
			matches, err := a.geo.Search(cmd.Context(), query, 5)
			if err != nil {
				return err
			}
			for _, m := range matches {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", m.Address, m.CoordString())
			}
			return nil
		},
	}
}
