package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rbacarra/cliweather/internal/cache"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local forecast cache",
	}
	cmd.AddCommand(
		newCacheClearCmd(a),
		newCachePruneCmd(a),
		newCacheStatsCmd(a),
		newCacheWarmCmd(a),
	)
	return cmd
}

func newCacheClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached forecast",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.cache.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries\n", n)
			return nil
		},
	}
}

func newCachePruneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove only expired cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := a.cache.(cache.Maintainer)
			if !ok {
				return fmt.Errorf("the %s backend cannot enumerate entries; use cache clear", a.cfg.Cache.Backend)
			}
			n, err := m.Prune(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired entries\n", n)
			return nil
		},
	}
}

func newCacheStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := a.cache.(cache.Maintainer)
			if !ok {
				return fmt.Errorf("the %s backend cannot enumerate entries", a.cfg.Cache.Backend)
			}
			st, err := m.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entries: %d (%d fresh, %d stale)\n", st.Total, st.Fresh, st.Stale)
			return nil
		},
	}
}

func newCacheWarmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "warm",
		Short: "Prefetch forecasts for every saved location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			locations, err := a.store.Locations()
			if err != nil {
				return err
			}
			if len(locations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved locations to warm")
				return nil
			}
			svc, err := a.weatherService()
			if err != nil {
				return err
			}
			if err := svc.Warm(cmd.Context(), locations); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Warmed cache for %d locations\n", len(locations))
			return nil
		},
	}
}
