package model

// OWMGeocodeResult is one entry from the geo/1.0/direct endpoint.
type OWMGeocodeResult struct {
	Name    string   `json:"name"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	Country string   `json:"country"`
	State   string   `json:"state"`
}

// OWMCurrentResponse is the data/2.5/weather payload. Numeric fields decode
// into pointers so omitted values stay distinguishable from zero.
type OWMCurrentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Pressure  *int     `json:"pressure"`
		Humidity  *int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All *int `json:"all"`
	} `json:"clouds"`
}

// OWMForecastResponse is the data/2.5/forecast payload: time-ordered 3-hour samples.
type OWMForecastResponse struct {
	List []OWMForecastEntry `json:"list"`
}

type OWMForecastEntry struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     *float64 `json:"temp"`
		Humidity *int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}

// OWMAirResponse is the data/2.5/air_pollution payload.
type OWMAirResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components map[string]float64 `json:"components"`
	} `json:"list"`
}
