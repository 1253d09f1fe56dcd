package cache

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rbacarra/cliweather/internal/models"
)

// Freshness is how long a cached payload counts as fresh. Entries older than
// this are still served (callers decide whether to refetch), never silently
// dropped.
const Freshness = 30 * time.Minute

// coordPrecision rounds coordinates for cache keys so that near-identical
// geocoder results share an entry. 4 decimals is roughly 11 meters.
const coordPrecision = 1e4

// ErrPersistence marks local storage read/write failures. Callers recover by
// treating the result as a miss and fetching live.
var ErrPersistence = errors.New("cache persistence failure")

// Key identifies a cached payload by rounded coordinates and query kind.
type Key struct {
	Latitude  float64          `json:"lat"`
	Longitude float64          `json:"lon"`
	Kind      models.QueryKind `json:"kind"`
}

// NewKey builds a key with coordinates rounded to the fixed precision.
func NewKey(lat, lon float64, kind models.QueryKind) Key {
	return Key{
		Latitude:  math.Round(lat*coordPrecision) / coordPrecision,
		Longitude: math.Round(lon*coordPrecision) / coordPrecision,
		Kind:      kind,
	}
}

// String renders the key in a stable form used to derive storage names.
func (k Key) String() string {
	return fmt.Sprintf("%.4f_%.4f_%s", k.Latitude, k.Longitude, k.Kind)
}

// Entry is the persisted cache record. A current-conditions payload is stored
// as a one-element series.
type Entry struct {
	Key       Key                   `json:"key"`
	FetchedAt time.Time             `json:"fetchedAt"`
	Payload   models.ForecastSeries `json:"payload"`
}

// Fresh reports whether the entry is within the freshness window at now.
func (e Entry) Fresh(now time.Time) bool {
	return now.Sub(e.FetchedAt) < Freshness
}

// Stats summarizes the state of a cache backend.
type Stats struct {
	Total int
	Fresh int
	Stale int
}

// Store is the cache contract. Get returns the payload, whether it is still
// fresh, and whether an entry existed at all; a stale entry is returned with
// fresh=false rather than dropped. Persistence failures surface as errors
// wrapping ErrPersistence alongside ok=false so callers degrade to a miss.
type Store interface {
	Get(ctx context.Context, key Key) (payload models.ForecastSeries, fresh bool, ok bool, err error)
	Put(ctx context.Context, key Key, payload models.ForecastSeries, fetchedAt time.Time) error
	Remove(ctx context.Context, key Key) error
	Clear(ctx context.Context) (int, error)
}

// Maintainer is implemented by backends that can enumerate their entries.
type Maintainer interface {
	Prune(ctx context.Context) (int, error)
	Stats(ctx context.Context) (Stats, error)
}
