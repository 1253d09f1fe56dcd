package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rbacarra/cliweather/internal/cache"
	"github.com/rbacarra/cliweather/internal/models"
)

type mockFetcher struct {
	current models.WeatherReading
	hourly  models.ForecastSeries
	daily   models.ForecastSeries
	alerts  []models.Alert
	err     error

	calls int
}

func (m *mockFetcher) FetchCurrent(ctx context.Context, lat, lon float64) (models.WeatherReading, error) {
	m.calls++
	return m.current, m.err
}

func (m *mockFetcher) FetchHourly(ctx context.Context, lat, lon float64) (models.ForecastSeries, error) {
	m.calls++
	return m.hourly, m.err
}

func (m *mockFetcher) FetchDaily(ctx context.Context, lat, lon float64) (models.ForecastSeries, error) {
	m.calls++
	return m.daily, m.err
}

func (m *mockFetcher) FetchAlerts(ctx context.Context, lat, lon float64) ([]models.Alert, error) {
	m.calls++
	return m.alerts, m.err
}

type mockEntry struct {
	payload models.ForecastSeries
	fresh   bool
}

type mockCache struct {
	data   map[cache.Key]mockEntry
	getErr error
	putErr error

	puts int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[cache.Key]mockEntry)}
}

func (m *mockCache) Get(ctx context.Context, key cache.Key) (models.ForecastSeries, bool, bool, error) {
	if m.getErr != nil {
		return nil, false, false, m.getErr
	}
	e, ok := m.data[key]
	return e.payload, e.fresh, ok, nil
}

func (m *mockCache) Put(ctx context.Context, key cache.Key, payload models.ForecastSeries, fetchedAt time.Time) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.data[key] = mockEntry{payload: payload, fresh: true}
	return nil
}

func (m *mockCache) Remove(ctx context.Context, key cache.Key) error {
	delete(m.data, key)
	return nil
}

func (m *mockCache) Clear(ctx context.Context) (int, error) {
	n := len(m.data)
	m.data = make(map[cache.Key]mockEntry)
	return n, nil
}

var testLoc = models.Location{Name: "manila", Latitude: 14.5988, Longitude: 120.9834}

func series(temps ...float64) models.ForecastSeries {
	out := make(models.ForecastSeries, len(temps))
	for i, temp := range temps {
		out[i] = models.WeatherReading{
			Timestamp:   time.Date(2026, 8, 26+i, 12, 0, 0, 0, time.UTC),
			Temperature: temp,
			Rain:        models.Float(0),
		}
	}
	return out
}

// TestDaily_FreshHitSkipsFetch verifies a fresh cache hit is served without
// touching the upstream.
func TestDaily_FreshHitSkipsFetch(t *testing.T) {
	fetcher := &mockFetcher{daily: series(99)}
	c := newMockCache()
	key := cache.NewKey(testLoc.Latitude, testLoc.Longitude, models.QueryDaily)
	c.data[key] = mockEntry{payload: series(20), fresh: true}

	svc := NewWeatherService(fetcher, c, zap.NewNop())
	got, stale, err := svc.Daily(context.Background(), testLoc)
	if err != nil {
		t.Fatalf("Daily() error = %v", err)
	}
	if stale {
		t.Error("Daily() stale = true for fresh hit, want false")
	}
	if got[0].Temperature != 20 {
		t.Errorf("Daily() served temperature %g, want cached 20", got[0].Temperature)
	}
	if fetcher.calls != 0 {
		t.Errorf("upstream called %d times on fresh hit, want 0", fetcher.calls)
	}
}

// TestDaily_MissFetchesAndCaches verifies a miss fetches upstream and
// populates the cache.
func TestDaily_MissFetchesAndCaches(t *testing.T) {
	fetcher := &mockFetcher{daily: series(25)}
	c := newMockCache()

	svc := NewWeatherService(fetcher, c, zap.NewNop())
	got, stale, err := svc.Daily(context.Background(), testLoc)
	if err != nil {
		t.Fatalf("Daily() error = %v", err)
	}
	if stale {
		t.Error("Daily() stale = true for live fetch, want false")
	}
	if got[0].Temperature != 25 {
		t.Errorf("Daily() temperature = %g, want 25", got[0].Temperature)
	}
	if c.puts != 1 {
		t.Errorf("cache Put called %d times, want 1", c.puts)
	}
}

// TestDaily_StaleServedOnUpstreamFailure verifies the stale fallback: an
// expired entry is served flagged stale when the fetch fails.
func TestDaily_StaleServedOnUpstreamFailure(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("upstream down")}
	c := newMockCache()
	key := cache.NewKey(testLoc.Latitude, testLoc.Longitude, models.QueryDaily)
	c.data[key] = mockEntry{payload: series(17), fresh: false}

	svc := NewWeatherService(fetcher, c, zap.NewNop())
	got, stale, err := svc.Daily(context.Background(), testLoc)
	if err != nil {
		t.Fatalf("Daily() error = %v, want stale fallback", err)
	}
	if !stale {
		t.Error("Daily() stale = false, want true")
	}
	if got[0].Temperature != 17 {
		t.Errorf("Daily() temperature = %g, want stale 17", got[0].Temperature)
	}
}

// TestDaily_StaleTriggersRefetch verifies an expired entry still triggers an
// upstream fetch, and the fresh result wins over the stale payload.
func TestDaily_StaleTriggersRefetch(t *testing.T) {
	fetcher := &mockFetcher{daily: series(30)}
	c := newMockCache()
	key := cache.NewKey(testLoc.Latitude, testLoc.Longitude, models.QueryDaily)
	c.data[key] = mockEntry{payload: series(17), fresh: false}

	svc := NewWeatherService(fetcher, c, zap.NewNop())
	got, stale, err := svc.Daily(context.Background(), testLoc)
	if err != nil {
		t.Fatalf("Daily() error = %v", err)
	}
	if stale {
		t.Error("Daily() stale = true after successful refetch, want false")
	}
	if got[0].Temperature != 30 {
		t.Errorf("Daily() temperature = %g, want refetched 30", got[0].Temperature)
	}
	if fetcher.calls != 1 {
		t.Errorf("upstream called %d times, want 1", fetcher.calls)
	}
}

// TestDaily_MissAndUpstreamFailureSurfacesError verifies "no data at all"
// propagates the fetch error.
func TestDaily_MissAndUpstreamFailureSurfacesError(t *testing.T) {
	upstreamErr := errors.New("upstream down")
	fetcher := &mockFetcher{err: upstreamErr}
	svc := NewWeatherService(fetcher, newMockCache(), zap.NewNop())

	_, _, err := svc.Daily(context.Background(), testLoc)
	if !errors.Is(err, upstreamErr) {
		t.Errorf("Daily() error = %v, want wrapped upstream error", err)
	}
}

// TestDaily_PersistenceErrorDegradesToMiss verifies a cache read failure
// falls back to a live fetch instead of failing the request.
func TestDaily_PersistenceErrorDegradesToMiss(t *testing.T) {
	fetcher := &mockFetcher{daily: series(21)}
	c := newMockCache()
	c.getErr = fmt.Errorf("%w: disk on fire", cache.ErrPersistence)

	svc := NewWeatherService(fetcher, c, zap.NewNop())
	got, stale, err := svc.Daily(context.Background(), testLoc)
	if err != nil {
		t.Fatalf("Daily() error = %v, want live-fetch recovery", err)
	}
	if stale {
		t.Error("Daily() stale = true, want false")
	}
	if got[0].Temperature != 21 {
		t.Errorf("Daily() temperature = %g, want 21", got[0].Temperature)
	}
}

// TestDaily_PutFailureStillServes verifies a cache write failure does not
// fail the request; the fetched data is served anyway.
func TestDaily_PutFailureStillServes(t *testing.T) {
	fetcher := &mockFetcher{daily: series(23)}
	c := newMockCache()
	c.putErr = fmt.Errorf("%w: disk full", cache.ErrPersistence)

	svc := NewWeatherService(fetcher, c, zap.NewNop())
	got, _, err := svc.Daily(context.Background(), testLoc)
	if err != nil {
		t.Fatalf("Daily() error = %v, want success despite put failure", err)
	}
	if got[0].Temperature != 23 {
		t.Errorf("Daily() temperature = %g, want 23", got[0].Temperature)
	}
}

// TestCurrent_WrapsSingleReading verifies current conditions round-trip
// through the one-element series representation.
func TestCurrent_WrapsSingleReading(t *testing.T) {
	fetcher := &mockFetcher{current: models.WeatherReading{Temperature: 31, Rain: models.Float(0)}}
	svc := NewWeatherService(fetcher, newMockCache(), zap.NewNop())

	got, _, err := svc.Current(context.Background(), testLoc)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if got.Temperature != 31 {
		t.Errorf("Current() temperature = %g, want 31", got.Temperature)
	}
}

// TestRecommend_UsesDailyWithoutWindow verifies a plain activity is judged
// against the daily series.
func TestRecommend_UsesDailyWithoutWindow(t *testing.T) {
	fetcher := &mockFetcher{daily: series(10, 18, 30)}
	svc := NewWeatherService(fetcher, newMockCache(), zap.NewNop())

	act := models.Activity{
		Name: "walking",
		Criteria: models.Criteria{
			TempMin: models.Float(15),
			TempMax: models.Float(25),
		},
	}
	got, _, err := svc.Recommend(context.Background(), testLoc, act)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) != 1 || got[0].Temperature != 18 {
		t.Errorf("Recommend() = %+v, want the single 18°C day", got)
	}
}

// TestRecommend_UsesHourlyWithWindow verifies a time-windowed activity is
// judged against aggregated hourly readings.
func TestRecommend_UsesHourlyWithWindow(t *testing.T) {
	hourly := models.ForecastSeries{
		{Timestamp: time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC), Temperature: 20, Rain: models.Float(0)},
		{Timestamp: time.Date(2026, 8, 26, 21, 0, 0, 0, time.UTC), Temperature: 40, Rain: models.Float(0)},
	}
	fetcher := &mockFetcher{hourly: hourly}
	svc := NewWeatherService(fetcher, newMockCache(), zap.NewNop())

	act := models.Activity{
		Name: "morning run",
		Criteria: models.Criteria{
			TempMax:   models.Float(25),
			TimeStart: "06:00",
			TimeEnd:   "12:00",
		},
	}
	got, _, err := svc.Recommend(context.Background(), testLoc, act)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Recommend() returned %d slots, want 1", len(got))
	}
	if got[0].Temperature != 20 {
		t.Errorf("Recommend() aggregate temperature = %g, want 20 (evening hour excluded)", got[0].Temperature)
	}
}

// TestAlerts_NeverCached verifies alerts bypass the cache entirely.
func TestAlerts_NeverCached(t *testing.T) {
	fetcher := &mockFetcher{alerts: []models.Alert{{Event: "Typhoon Warning"}}}
	c := newMockCache()
	svc := NewWeatherService(fetcher, c, zap.NewNop())

	for i := 0; i < 2; i++ {
		alerts, err := svc.Alerts(context.Background(), testLoc)
		if err != nil {
			t.Fatalf("Alerts() error = %v", err)
		}
		if len(alerts) != 1 || alerts[0].Event != "Typhoon Warning" {
			t.Errorf("Alerts() = %+v", alerts)
		}
	}
	if fetcher.calls != 2 {
		t.Errorf("upstream called %d times, want 2 (no caching)", fetcher.calls)
	}
	if c.puts != 0 {
		t.Errorf("cache Put called %d times for alerts, want 0", c.puts)
	}
}

// TestWarm_PrefetchesBothKinds verifies warming fetches hourly and daily per
// location and reports total failure only when nothing succeeded.
func TestWarm_PrefetchesBothKinds(t *testing.T) {
	fetcher := &mockFetcher{hourly: series(20), daily: series(20)}
	c := newMockCache()
	svc := NewWeatherService(fetcher, c, zap.NewNop())

	if err := svc.Warm(context.Background(), []models.Location{testLoc}); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	if fetcher.calls != 2 {
		t.Errorf("upstream called %d times, want 2", fetcher.calls)
	}
	if c.puts != 2 {
		t.Errorf("cache Put called %d times, want 2", c.puts)
	}

	broken := &mockFetcher{err: errors.New("down")}
	svc = NewWeatherService(broken, newMockCache(), zap.NewNop())
	if err := svc.Warm(context.Background(), []models.Location{testLoc}); err == nil {
		t.Error("Warm() error = nil when every fetch failed, want error")
	}
}
