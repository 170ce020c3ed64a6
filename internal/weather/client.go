package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kenassistant/weather-chat-api/internal/config"
	"github.com/kenassistant/weather-chat-api/internal/model"
)

// Custom error types
var (
	ErrAPIKeyMissing = errors.New("API key missing")
	ErrExternalAPI   = errors.New("external API error")
)

const userAgent = "ken-assistant-weather/1.0"

// Client talks to OpenWeatherMap. All calls carry a short fixed timeout and
// return an error rather than retrying; the caller decides how to degrade.
type Client struct {
	apiKey         string
	baseURL        string
	geoURL         string
	httpClient     *http.Client
	forecastClient *http.Client
}

// NewClient creates a provider client. An empty apiKey is allowed; every call
// then fails with ErrAPIKeyMissing and the weather feature is disabled cleanly.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:         apiKey,
		baseURL:        config.GetOpenWeatherApiUrl(),
		geoURL:         config.GetOpenWeatherGeoUrl(),
		httpClient:     &http.Client{Timeout: 8 * time.Second},
		forecastClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) getJSON(ctx context.Context, client *http.Client, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExternalAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrExternalAPI, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// Geocode resolves a location name to its first geocoding result. A location
// unknown to the provider yields (nil, nil).
func (c *Client) Geocode(ctx context.Context, location string) (*model.GeoResult, error) {
	if c.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	params := url.Values{}
	params.Set("q", location)
	params.Set("limit", "1")
	params.Set("appid", c.apiKey)

	var results []model.OWMGeocodeResult
	if err := c.getJSON(ctx, c.httpClient, c.geoURL+"/direct?"+params.Encode(), &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	top := results[0]
	if top.Lat == nil || top.Lon == nil {
		return nil, nil
	}
	return &model.GeoResult{
		Name:    top.Name,
		Lat:     *top.Lat,
		Lon:     *top.Lon,
		Country: top.Country,
		State:   top.State,
	}, nil
}

func (c *Client) coordParams(lat, lon float64) url.Values {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	params.Set("appid", c.apiKey)
	return params
}

// Current fetches the latest conditions for a coordinate. Fields the provider
// omits stay nil.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*model.CurrentConditions, error) {
	if c.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	params := c.coordParams(lat, lon)
	params.Set("units", "metric")

	var data model.OWMCurrentResponse
	if err := c.getJSON(ctx, c.httpClient, c.baseURL+"/weather?"+params.Encode(), &data); err != nil {
		return nil, err
	}

	cur := &model.CurrentConditions{
		TempC:       data.Main.Temp,
		FeelsLikeC:  data.Main.FeelsLike,
		Humidity:    data.Main.Humidity,
		Pressure:    data.Main.Pressure,
		WindSpeedMS: data.Wind.Speed,
		CloudsPct:   data.Clouds.All,
	}
	if len(data.Weather) > 0 && data.Weather[0].Description != "" {
		desc := data.Weather[0].Description
		cur.Description = &desc
	}
	return cur, nil
}

// Forecast fetches the raw time-ordered 3-hour samples for a coordinate.
// Aggregation into daily buckets happens in the caller.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) ([]model.ForecastSample, error) {
	if c.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	params := c.coordParams(lat, lon)
	params.Set("units", "metric")

	var data model.OWMForecastResponse
	if err := c.getJSON(ctx, c.forecastClient, c.baseURL+"/forecast?"+params.Encode(), &data); err != nil {
		return nil, err
	}

	samples := make([]model.ForecastSample, 0, len(data.List))
	for _, entry := range data.List {
		sample := model.ForecastSample{
			Timestamp:   time.Unix(entry.Dt, 0).UTC(),
			TempC:       entry.Main.Temp,
			Humidity:    entry.Main.Humidity,
			WindSpeedMS: entry.Wind.Speed,
		}
		if len(entry.Weather) > 0 && entry.Weather[0].Description != "" {
			desc := entry.Weather[0].Description
			sample.Description = &desc
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

// AirQuality fetches the air pollution index for a coordinate. An empty
// provider list yields (nil, nil).
func (c *Client) AirQuality(ctx context.Context, lat, lon float64) (*model.AirQuality, error) {
	if c.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	var data model.OWMAirResponse
	if err := c.getJSON(ctx, c.httpClient, c.baseURL+"/air_pollution?"+c.coordParams(lat, lon).Encode(), &data); err != nil {
		return nil, err
	}
	if len(data.List) == 0 {
		return nil, nil
	}

	el := data.List[0]
	return &model.AirQuality{
		AQIIndex:   el.Main.AQI,
		Components: el.Components,
	}, nil
}
