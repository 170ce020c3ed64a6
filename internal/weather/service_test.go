package weather

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kenassistant/weather-chat-api/internal/cache"
	"github.com/kenassistant/weather-chat-api/internal/model"
)

type mockProvider struct {
	mu sync.Mutex

	geo      *model.GeoResult
	geoErr   error
	current  *model.CurrentConditions
	curErr   error
	samples  []model.ForecastSample
	fcErr    error
	air      *model.AirQuality
	airErr   error
	calls    map[string]int
}

func newMockProvider() *mockProvider {
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return &mockProvider{
		geo:     &model.GeoResult{Name: "Goa", Lat: 15.2993, Lon: 74.124, Country: "IN"},
		current: &model.CurrentConditions{TempC: fp(31.5), Description: sp("clear sky")},
		samples: []model.ForecastSample{sampleAt(day, 28, "few clouds")},
		air:     &model.AirQuality{AQIIndex: 2},
		calls:   make(map[string]int),
	}
}

func (m *mockProvider) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++
}

func (m *mockProvider) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockProvider) Geocode(_ context.Context, _ string) (*model.GeoResult, error) {
	m.record("geocode")
	return m.geo, m.geoErr
}

func (m *mockProvider) Current(_ context.Context, _, _ float64) (*model.CurrentConditions, error) {
	m.record("current")
	return m.current, m.curErr
}

func (m *mockProvider) Forecast(_ context.Context, _, _ float64) ([]model.ForecastSample, error) {
	m.record("forecast")
	return m.samples, m.fcErr
}

func (m *mockProvider) AirQuality(_ context.Context, _, _ float64) (*model.AirQuality, error) {
	m.record("air")
	return m.air, m.airErr
}

func newTestService(p Provider) *Service {
	return NewService(p, cache.NewTiers(), zap.NewNop().Sugar())
}

func TestBuildPacket(t *testing.T) {
	p := newMockProvider()
	svc := newTestService(p)

	packet := svc.BuildPacket(context.Background(), "Goa", 5)
	require.NotNil(t, packet)
	assert.Equal(t, "Goa", packet.Location)
	assert.Equal(t, "IN", packet.Country)
	assert.Equal(t, 15.2993, packet.Lat)
	assert.Equal(t, "clear sky", *packet.Current.Description)
	require.Len(t, packet.Forecast, 1)
	assert.Equal(t, "2026-03-10", packet.Forecast[0].Date)
	assert.Equal(t, 2, packet.AQI.AQIIndex)
	assert.False(t, packet.FetchedAt.IsZero())
}

func TestBuildPacket_UnknownLocation(t *testing.T) {
	p := newMockProvider()
	p.geo = nil
	svc := newTestService(p)

	assert.Nil(t, svc.BuildPacket(context.Background(), "Nowhereville", 5))
	assert.Equal(t, 0, p.count("current"))
}

func TestBuildPacket_EmptyLocation(t *testing.T) {
	p := newMockProvider()
	svc := newTestService(p)

	assert.Nil(t, svc.BuildPacket(context.Background(), "", 5))
	assert.Equal(t, 0, p.count("geocode"))
}

func TestBuildPacket_PartialFailure(t *testing.T) {
	p := newMockProvider()
	p.curErr = errors.New("boom")
	p.airErr = errors.New("boom")
	svc := newTestService(p)

	packet := svc.BuildPacket(context.Background(), "Goa", 5)
	require.NotNil(t, packet)
	assert.Nil(t, packet.Current)
	assert.Nil(t, packet.AQI)
	assert.NotEmpty(t, packet.Forecast)
}

func TestBuildPacket_CacheSkipsProvider(t *testing.T) {
	p := newMockProvider()
	svc := newTestService(p)

	svc.BuildPacket(context.Background(), "Goa", 5)
	svc.BuildPacket(context.Background(), "goa  ", 5)

	for _, endpoint := range []string{"geocode", "current", "forecast", "air"} {
		assert.Equal(t, 1, p.count(endpoint), "endpoint %s should be served from cache", endpoint)
	}
}

func TestBuildPacket_FailureNotCached(t *testing.T) {
	p := newMockProvider()
	p.curErr = errors.New("boom")
	svc := newTestService(p)

	svc.BuildPacket(context.Background(), "Goa", 5)
	p.curErr = nil
	packet := svc.BuildPacket(context.Background(), "Goa", 5)

	require.NotNil(t, packet)
	assert.NotNil(t, packet.Current)
	assert.Equal(t, 2, p.count("current"))
}

func TestBuildPacket_NameFallsBackToQuery(t *testing.T) {
	p := newMockProvider()
	p.geo = &model.GeoResult{Lat: 1, Lon: 2}
	svc := newTestService(p)

	packet := svc.BuildPacket(context.Background(), "Somewhere", 5)
	require.NotNil(t, packet)
	assert.Equal(t, "Somewhere", packet.Location)
}
