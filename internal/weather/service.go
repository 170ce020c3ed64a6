package weather

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kenassistant/weather-chat-api/internal/cache"
	"github.com/kenassistant/weather-chat-api/internal/model"
	"github.com/kenassistant/weather-chat-api/internal/observability"
)

// Provider is the upstream weather API surface the service depends on.
type Provider interface {
	Geocode(ctx context.Context, location string) (*model.GeoResult, error)
	Current(ctx context.Context, lat, lon float64) (*model.CurrentConditions, error)
	Forecast(ctx context.Context, lat, lon float64) ([]model.ForecastSample, error)
	AirQuality(ctx context.Context, lat, lon float64) (*model.AirQuality, error)
}

// Service assembles weather packets, consulting the cache tiers before the
// provider. Each sub-fetch fails independently; a missing piece degrades to a
// nil field rather than failing the packet.
type Service struct {
	provider Provider
	tiers    *cache.Tiers
	logger   *zap.SugaredLogger
}

func NewService(provider Provider, tiers *cache.Tiers, logger *zap.SugaredLogger) *Service {
	return &Service{provider: provider, tiers: tiers, logger: logger}
}

// BuildPacket resolves the location to coordinates and gathers current
// conditions, the daily forecast and air quality concurrently. It returns nil
// only when geocoding yields no coordinate; any other partial failure still
// produces a packet.
func (s *Service) BuildPacket(ctx context.Context, location string, days int) *model.WeatherPacket {
	if location == "" {
		return nil
	}

	geo := s.geocode(ctx, location)
	if geo == nil {
		return nil
	}

	var (
		current  *model.CurrentConditions
		forecast []model.DailyForecast
		air      *model.AirQuality
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		current = s.current(gctx, geo.Lat, geo.Lon)
		return nil
	})
	g.Go(func() error {
		forecast = s.forecast(gctx, geo.Lat, geo.Lon, days)
		return nil
	})
	g.Go(func() error {
		air = s.air(gctx, geo.Lat, geo.Lon)
		return nil
	})
	_ = g.Wait()

	name := geo.Name
	if name == "" {
		name = location
	}
	return &model.WeatherPacket{
		Location:  name,
		Country:   geo.Country,
		State:     geo.State,
		Lat:       geo.Lat,
		Lon:       geo.Lon,
		Current:   current,
		Forecast:  forecast,
		AQI:       air,
		FetchedAt: time.Now().UTC(),
	}
}

func (s *Service) geocode(ctx context.Context, location string) *model.GeoResult {
	key := cache.GeoKey(location)
	if geo, ok := s.tiers.Geo(key); ok {
		observability.CacheHitsTotal.WithLabelValues("geo").Inc()
		return geo
	}
	observability.CacheMissesTotal.WithLabelValues("geo").Inc()

	geo, err := s.provider.Geocode(ctx, location)
	if err != nil {
		observability.ProviderErrorsTotal.WithLabelValues("geocode").Inc()
		s.logger.Warnw("geocoding failed", "location", location, "error", err)
		return nil
	}
	if geo == nil {
		s.logger.Infow("location not found by geocoder", "location", location)
		return nil
	}
	s.tiers.PutGeo(key, geo)
	return geo
}

func (s *Service) current(ctx context.Context, lat, lon float64) *model.CurrentConditions {
	key := cache.CoordKey(lat, lon)
	if cur, ok := s.tiers.Current(key); ok {
		observability.CacheHitsTotal.WithLabelValues("current").Inc()
		return cur
	}
	observability.CacheMissesTotal.WithLabelValues("current").Inc()

	cur, err := s.provider.Current(ctx, lat, lon)
	if err != nil {
		observability.ProviderErrorsTotal.WithLabelValues("current").Inc()
		s.logger.Warnw("current conditions fetch failed", "lat", lat, "lon", lon, "error", err)
		return nil
	}
	s.tiers.PutCurrent(key, cur)
	return cur
}

func (s *Service) forecast(ctx context.Context, lat, lon float64, days int) []model.DailyForecast {
	key := cache.ForecastKey(lat, lon, days)
	if fc, ok := s.tiers.Forecast(key); ok {
		observability.CacheHitsTotal.WithLabelValues("forecast").Inc()
		return fc
	}
	observability.CacheMissesTotal.WithLabelValues("forecast").Inc()

	samples, err := s.provider.Forecast(ctx, lat, lon)
	if err != nil {
		observability.ProviderErrorsTotal.WithLabelValues("forecast").Inc()
		s.logger.Warnw("forecast fetch failed", "lat", lat, "lon", lon, "error", err)
		return nil
	}
	if len(samples) == 0 {
		return nil
	}
	fc := AggregateDaily(samples, days)
	s.tiers.PutForecast(key, fc)
	return fc
}

func (s *Service) air(ctx context.Context, lat, lon float64) *model.AirQuality {
	key := cache.CoordKey(lat, lon)
	if aqi, ok := s.tiers.Air(key); ok {
		observability.CacheHitsTotal.WithLabelValues("air").Inc()
		return aqi
	}
	observability.CacheMissesTotal.WithLabelValues("air").Inc()

	aqi, err := s.provider.AirQuality(ctx, lat, lon)
	if err != nil {
		observability.ProviderErrorsTotal.WithLabelValues("air").Inc()
		s.logger.Warnw("air quality fetch failed", "lat", lat, "lon", lon, "error", err)
		return nil
	}
	if aqi == nil {
		return nil
	}
	s.tiers.PutAir(key, aqi)
	return aqi
}
