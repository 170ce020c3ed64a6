// Package cache holds the four independent TTL stores backing the weather
// pipeline. Entries are validated against their TTL on read and replaced
// wholesale on refresh; a stale entry is simply superseded by the next
// successful fetch. Two concurrent misses for the same key may both fetch and
// both write; the second write wins.
package cache

import (
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kenassistant/weather-chat-api/internal/model"
)

// Fixed TTLs per tier.
const (
	GeoTTL      = 24 * time.Hour
	CurrentTTL  = 5 * time.Minute
	ForecastTTL = 10 * time.Minute
	AirTTL      = time.Hour

	cleanupInterval = time.Hour
)

// Tiers groups the four stores. Construct one per process with NewTiers and
// pass it explicitly; there is no package-level instance.
type Tiers struct {
	geo      *gocache.Cache
	current  *gocache.Cache
	forecast *gocache.Cache
	air      *gocache.Cache
}

func NewTiers() *Tiers {
	return NewTiersWithTTL(GeoTTL, CurrentTTL, ForecastTTL, AirTTL)
}

// NewTiersWithTTL builds tiers with explicit TTLs. Used by tests that need
// fast expiry.
func NewTiersWithTTL(geo, current, forecast, air time.Duration) *Tiers {
	return &Tiers{
		geo:      gocache.New(geo, cleanupInterval),
		current:  gocache.New(current, cleanupInterval),
		forecast: gocache.New(forecast, cleanupInterval),
		air:      gocache.New(air, cleanupInterval),
	}
}

// GeoKey normalizes a location string into a geocode cache key.
func GeoKey(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}

// CoordKey builds a cache key from a coordinate rounded to 4 decimal places.
func CoordKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}

// ForecastKey extends CoordKey with the requested day count, which affects the
// cached aggregation result.
func ForecastKey(lat, lon float64, days int) string {
	return fmt.Sprintf("%.4f,%.4f:%d", lat, lon, days)
}

func (t *Tiers) Geo(key string) (*model.GeoResult, bool) {
	v, ok := t.geo.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*model.GeoResult), true
}

func (t *Tiers) PutGeo(key string, v *model.GeoResult) {
	t.geo.Set(key, v, gocache.DefaultExpiration)
}

func (t *Tiers) Current(key string) (*model.CurrentConditions, bool) {
	v, ok := t.current.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*model.CurrentConditions), true
}

func (t *Tiers) PutCurrent(key string, v *model.CurrentConditions) {
	t.current.Set(key, v, gocache.DefaultExpiration)
}

func (t *Tiers) Forecast(key string) ([]model.DailyForecast, bool) {
	v, ok := t.forecast.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]model.DailyForecast), true
}

func (t *Tiers) PutForecast(key string, v []model.DailyForecast) {
	t.forecast.Set(key, v, gocache.DefaultExpiration)
}

func (t *Tiers) Air(key string) (*model.AirQuality, bool) {
	v, ok := t.air.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*model.AirQuality), true
}

func (t *Tiers) PutAir(key string, v *model.AirQuality) {
	t.air.Set(key, v, gocache.DefaultExpiration)
}
