package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rbacarra/cliweather/internal/cache"
	"github.com/rbacarra/cliweather/internal/models"
	"github.com/rbacarra/cliweather/internal/observability"
	"github.com/rbacarra/cliweather/internal/owm"
	"github.com/rbacarra/cliweather/internal/recommend"
)

// WeatherService orchestrates weather data retrieval using cache-aside with
// stale fallback: a fresh cache hit is served directly; a stale hit triggers
// a refetch, and if the upstream fails the stale payload is served flagged as
// stale; a miss with an upstream failure surfaces the fetch error.
type WeatherService struct {
	fetcher owm.Fetcher
	cache   cache.Store
	logger  *zap.Logger
	now     func() time.Time
}

// NewWeatherService builds the service. All collaborators are passed
// explicitly; nothing here is a package-level singleton.
func NewWeatherService(fetcher owm.Fetcher, store cache.Store, logger *zap.Logger) *WeatherService {
	return &WeatherService{
		fetcher: fetcher,
		cache:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// Current returns current conditions for the location. stale is true when the
// upstream was unreachable and an expired cache entry was served instead.
func (s *WeatherService) Current(ctx context.Context, loc models.Location) (models.WeatherReading, bool, error) {
	series, stale, err := s.forecast(ctx, loc, models.QueryCurrent)
	if err != nil {
		return models.WeatherReading{}, false, err
	}
	if len(series) == 0 {
		return models.WeatherReading{}, false, fmt.Errorf("empty current payload for %s", loc.Name)
	}
	return series[0], stale, nil
}

// Hourly returns the forecast at the upstream's native slot granularity,
// up to 24 readings.
func (s *WeatherService) Hourly(ctx context.Context, loc models.Location) (models.ForecastSeries, bool, error) {
	return s.forecast(ctx, loc, models.QueryHourly)
}

// Daily returns one reading per day over the 5-day window.
func (s *WeatherService) Daily(ctx context.Context, loc models.Location) (models.ForecastSeries, bool, error) {
	return s.forecast(ctx, loc, models.QueryDaily)
}

// Alerts returns active alerts. Alerts are time-critical and never cached.
func (s *WeatherService) Alerts(ctx context.Context, loc models.Location) ([]models.Alert, error) {
	alerts, err := s.fetcher.FetchAlerts(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return nil, fmt.Errorf("fetch alerts for %s: %w", loc.Name, err)
	}
	return alerts, nil
}

// Recommend returns the qualifying slots for an activity over the forecast
// window, in chronological order. Activities with a time-of-day window are
// evaluated against hourly readings aggregated per day; the rest against the
// daily series.
func (s *WeatherService) Recommend(ctx context.Context, loc models.Location, act models.Activity) (models.ForecastSeries, bool, error) {
	if act.Criteria.HasTimeWindow() {
		hourly, stale, err := s.Hourly(ctx, loc)
		if err != nil {
			return nil, false, err
		}
		return recommend.RecommendWindowed(hourly, act.Criteria), stale, nil
	}

	daily, stale, err := s.Daily(ctx, loc)
	if err != nil {
		return nil, false, err
	}
	return recommend.Recommend(daily, act.Criteria), stale, nil
}

// Warm prefetches the hourly and daily forecasts for each location so that
// subsequent invocations hit a fresh cache. Failures are logged and skipped;
// warming is best-effort.
func (s *WeatherService) Warm(ctx context.Context, locations []models.Location) error {
	var warmed, failed int
	for _, loc := range locations {
		for _, kind := range []models.QueryKind{models.QueryHourly, models.QueryDaily} {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, _, err := s.forecast(ctx, loc, kind); err != nil {
				failed++
				s.logger.Warn("cache warm failed",
					zap.String("location", loc.Name),
					zap.String("kind", string(kind)),
					zap.Error(err))
				continue
			}
			warmed++
		}
	}
	s.logger.Info("cache warm complete", zap.Int("warmed", warmed), zap.Int("failed", failed))
	if warmed == 0 && failed > 0 {
		return fmt.Errorf("cache warm: all %d fetches failed", failed)
	}
	return nil
}

// forecast is the cache-aside core shared by every query kind.
func (s *WeatherService) forecast(ctx context.Context, loc models.Location, kind models.QueryKind) (models.ForecastSeries, bool, error) {
	key := cache.NewKey(loc.Latitude, loc.Longitude, kind)
	kindLabel := string(kind)

	cached, fresh, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		// Persistence failures degrade to a miss; the live fetch below
		// is the recovery path.
		if errors.Is(err, cache.ErrPersistence) {
			s.logger.Warn("cache read failed, treating as miss", zap.String("key", key.String()), zap.Error(err))
			ok = false
		} else {
			return nil, false, err
		}
	}
	if ok && fresh {
		observability.CacheHitsTotal.WithLabelValues(kindLabel).Inc()
		s.logger.Debug("cache hit", zap.String("key", key.String()))
		return cached, false, nil
	}
	if !ok {
		observability.CacheMissesTotal.WithLabelValues(kindLabel).Inc()
	}
	s.logger.Debug("cache miss or stale, fetching upstream", zap.String("key", key.String()), zap.Bool("had_stale", ok))

	data, fetchErr := s.fetch(ctx, loc, kind)
	if fetchErr != nil {
		if ok {
			// Stale-serve tradeoff: old data beats no data when the
			// upstream is down.
			observability.StaleServesTotal.WithLabelValues(kindLabel).Inc()
			s.logger.Info("serving stale cache",
				zap.String("key", key.String()),
				zap.Error(fetchErr))
			return cached, true, nil
		}
		return nil, false, fmt.Errorf("fetch %s for %s: %w", kind, loc.Name, fetchErr)
	}

	if putErr := s.cache.Put(ctx, key, data, s.now()); putErr != nil {
		s.logger.Warn("cache write failed", zap.String("key", key.String()), zap.Error(putErr))
	}
	return data, false, nil
}

func (s *WeatherService) fetch(ctx context.Context, loc models.Location, kind models.QueryKind) (models.ForecastSeries, error) {
	switch kind {
	case models.QueryCurrent:
		reading, err := s.fetcher.FetchCurrent(ctx, loc.Latitude, loc.Longitude)
		if err != nil {
			return nil, err
		}
		return models.ForecastSeries{reading}, nil
	case models.QueryHourly:
		return s.fetcher.FetchHourly(ctx, loc.Latitude, loc.Longitude)
	case models.QueryDaily:
		return s.fetcher.FetchDaily(ctx, loc.Latitude, loc.Longitude)
	}
	return nil, fmt.Errorf("unknown query kind %q", kind)
}
