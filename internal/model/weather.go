package model

import "time"

// GeoResult is a canonical resolved location. Lat and Lon are always both
// present; an unresolvable location is represented by a nil *GeoResult.
type GeoResult struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country,omitempty"`
	State   string  `json:"state,omitempty"`
}

// CurrentConditions holds the latest observation for a coordinate. Every field
// is optional: a nil pointer means the provider omitted the value, and it must
// stay absent in any serialized output rather than defaulting to zero.
type CurrentConditions struct {
	Description *string  `json:"description,omitempty"`
	TempC       *float64 `json:"temp_c,omitempty"`
	FeelsLikeC  *float64 `json:"feels_like_c,omitempty"`
	Humidity    *int     `json:"humidity,omitempty"`
	Pressure    *int     `json:"pressure,omitempty"`
	WindSpeedMS *float64 `json:"wind_speed_m_s,omitempty"`
	CloudsPct   *int     `json:"clouds_pct,omitempty"`
}

// ForecastSample is one raw 3-hourly provider entry, before daily aggregation.
type ForecastSample struct {
	Timestamp   time.Time
	TempC       *float64
	Description *string
	WindSpeedMS *float64
	Humidity    *int
}

// DailyForecast is a derived per-day summary, recomputed on every aggregation
// and never persisted on its own. A day with zero valid samples for a field
// reports that field as nil, not zero.
type DailyForecast struct {
	Date              string   `json:"date"` // YYYY-MM-DD, UTC
	TempMinC          *float64 `json:"temp_min_c,omitempty"`
	TempMaxC          *float64 `json:"temp_max_c,omitempty"`
	TempAvgC          *float64 `json:"temp_avg_c,omitempty"`
	CommonDescription *string  `json:"common_description,omitempty"`
	WindAvgMS         *float64 `json:"wind_avg_m_s,omitempty"`
	HumidityAvg       *float64 `json:"humidity_avg,omitempty"`
}

// AirQuality holds the provider's 1..5 index plus pollutant concentrations.
type AirQuality struct {
	AQIIndex   int                `json:"aqi_index"`
	Components map[string]float64 `json:"components,omitempty"`
}

// WeatherPacket is the single immutable unit handed to prompt assembly: one
// location, one point in time. Built once per chat turn, never cached itself.
type WeatherPacket struct {
	Location  string             `json:"location"`
	Country   string             `json:"country,omitempty"`
	State     string             `json:"state,omitempty"`
	Lat       float64            `json:"lat"`
	Lon       float64            `json:"lon"`
	Current   *CurrentConditions `json:"current,omitempty"`
	Forecast  []DailyForecast    `json:"forecast,omitempty"`
	AQI       *AirQuality        `json:"aqi,omitempty"`
	FetchedAt time.Time          `json:"fetched_at"`
}
