package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rbacarra/cliweather/internal/cache"
	"github.com/rbacarra/cliweather/internal/config"
	"github.com/rbacarra/cliweather/internal/geocode"
	"github.com/rbacarra/cliweather/internal/models"
	"github.com/rbacarra/cliweather/internal/observability"
	"github.com/rbacarra/cliweather/internal/owm"
	"github.com/rbacarra/cliweather/internal/service"
	"github.com/rbacarra/cliweather/internal/store"
)

// app holds the collaborators built once per invocation and passed to every
// command. There are no package-level service singletons.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	cache  cache.Store
	geo    *geocode.Client

	memcached *cache.MemcachedStore

	cfgFile  string
	debug    bool
	location string
}

// New builds the root command tree.
func New() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "cliweather",
		Short: "Weather companion for the command line",
		Long: `cliweather shows current conditions, forecasts, and weather alerts for
your saved locations, and recommends days for your activities based on
the weather criteria you define.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "settings file path")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "debug logging and end-of-run metrics dump")
	root.PersistentFlags().StringVar(&a.location, "location", "", "default location for this invocation")

	root.AddCommand(
		newCurrentCmd(a),
		newHourlyCmd(a),
		newForecastCmd(a),
		newAlertsCmd(a),
		newRecommendCmd(a),
		newLocationCmd(a),
		newActivityCmd(a),
		newCacheCmd(a),
	)
	return root
}

// init wires the app after flags are parsed. The weather client itself is
// built lazily (see weatherService) so that commands that never hit the API
// work without an API key.
func (a *app) init() error {
	logger, err := observability.NewLogger(a.debug)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.logger = logger.With(zap.String("correlation_id", uuid.New().String()))

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.store = store.New(cfg.DataFile)
	a.geo = geocode.New(cfg.Fetch.Timeout)

	switch cfg.Cache.Backend {
	case "memcached":
		mc, err := cache.NewMemcachedStore(cfg.Cache.MemcachedAddrs, cfg.Cache.MemcachedTimeout, cfg.Cache.MemcachedMaxIdleConns)
		if err != nil {
			return fmt.Errorf("memcached cache: %w", err)
		}
		a.memcached = mc
		a.cache = mc
		a.logger.Debug("cache backend: memcached", zap.String("addrs", cfg.Cache.MemcachedAddrs))
	default:
		fs, err := cache.NewFileStore(cfg.Cache.Dir)
		if err != nil {
			return fmt.Errorf("file cache: %w", err)
		}
		a.cache = fs
		a.logger.Debug("cache backend: file", zap.String("dir", cfg.Cache.Dir))
	}
	return nil
}

func (a *app) close() {
	if a.memcached != nil {
		if err := a.memcached.Close(); err != nil {
			a.logger.Warn("memcached close", zap.Error(err))
		}
	}
	if a.debug {
		observability.DumpMetrics(a.logger)
	}
	_ = a.logger.Sync()
}

// weatherService builds the API client and service on first use.
func (a *app) weatherService() (*service.WeatherService, error) {
	client, err := owm.NewClient(owm.Config{
		APIKey:         a.cfg.APIKey,
		BaseURL:        a.cfg.BaseURL,
		Timezone:       a.cfg.Location(),
		Timeout:        a.cfg.Fetch.Timeout,
		RetryAttempts:  a.cfg.Fetch.RetryAttempts,
		RetryBaseDelay: a.cfg.Fetch.RetryBaseDelay,
		RetryMaxDelay:  a.cfg.Fetch.RetryMaxDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("weather client: %w (set OWM_API_KEY or api_key in the settings file)", err)
	}
	return service.NewWeatherService(client, a.cache, a.logger), nil
}

// resolveLocation turns a command argument into a location. The argument may
// be a saved name, bare "lat,lon" coordinates, or a free-form address that
// gets geocoded. An empty argument falls back to the configured default.
func (a *app) resolveLocation(ctx context.Context, arg string) (models.Location, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		arg = a.location
	}
	if arg == "" {
		arg = a.cfg.DefaultLocation
	}
	if arg == "" {
		return models.Location{}, fmt.Errorf("no location given and no default_location configured")
	}

	if loc, err := a.store.Location(arg); err == nil {
		return loc, nil
	}

	if lat, lon, ok := parseCoords(arg); ok {
		return models.Location{Name: arg, Latitude: lat, Longitude: lon}, nil
	}

	a.logger.Debug("geocoding location argument", zap.String("query", arg))
	loc, err := a.geo.Geocode(ctx, arg)
	if err != nil {
		return models.Location{}, fmt.Errorf("resolve location %q: %w", arg, err)
	}
	return loc, nil
}

// parseCoords parses "lat,lon" with range validation.
func parseCoords(s string) (float64, float64, bool) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if latErr != nil || lonErr != nil {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lat, lon, true
}

func optionalArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
