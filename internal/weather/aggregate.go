package weather

import (
	"sort"

	"github.com/kenassistant/weather-chat-api/internal/model"
)

type dayBucket struct {
	temps []float64
	descs []string
	winds []float64
	hums  []float64
}

// AggregateDaily groups raw 3-hourly samples by UTC calendar day and derives
// per-day summaries: min/max/mean temperature, mean wind and humidity, and the
// most common description (first-encountered wins a tie). Days are emitted in
// ascending date order, truncated to the first `days` entries. A field with no
// valid samples for a day stays nil.
func AggregateDaily(samples []model.ForecastSample, days int) []model.DailyForecast {
	if len(samples) == 0 {
		return nil
	}

	buckets := make(map[string]*dayBucket)
	for _, s := range samples {
		day := s.Timestamp.UTC().Format("2006-01-02")
		b, ok := buckets[day]
		if !ok {
			b = &dayBucket{}
			buckets[day] = b
		}
		if s.TempC != nil {
			b.temps = append(b.temps, *s.TempC)
		}
		if s.Description != nil {
			b.descs = append(b.descs, *s.Description)
		}
		if s.WindSpeedMS != nil {
			b.winds = append(b.winds, *s.WindSpeedMS)
		}
		if s.Humidity != nil {
			b.hums = append(b.hums, float64(*s.Humidity))
		}
	}

	dates := make([]string, 0, len(buckets))
	for day := range buckets {
		dates = append(dates, day)
	}
	sort.Strings(dates)
	if days > 0 && len(dates) > days {
		dates = dates[:days]
	}

	result := make([]model.DailyForecast, 0, len(dates))
	for _, day := range dates {
		b := buckets[day]
		entry := model.DailyForecast{
			Date:              day,
			CommonDescription: modeOf(b.descs),
			WindAvgMS:         mean(b.winds),
			HumidityAvg:       mean(b.hums),
		}
		entry.TempMinC, entry.TempMaxC, entry.TempAvgC = minMaxAvg(b.temps)
		result = append(result, entry)
	}
	return result
}

// modeOf returns the most frequent value; ties break toward the value seen
// first. Empty input yields nil.
func modeOf(values []string) *string {
	if len(values) == 0 {
		return nil
	}
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best := values[0]
	bestCount := counts[best]
	for _, v := range values {
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return &best
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}

func minMaxAvg(values []float64) (*float64, *float64, *float64) {
	if len(values) == 0 {
		return nil, nil, nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return &lo, &hi, mean(values)
}
