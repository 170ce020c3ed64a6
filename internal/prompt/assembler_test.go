package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenassistant/weather-chat-api/internal/model"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }
func sp(v string) *string   { return &v }

func testPacket() *model.WeatherPacket {
	return &model.WeatherPacket{
		Location: "Goa",
		Country:  "IN",
		Lat:      15.2993,
		Lon:      74.124,
		Current: &model.CurrentConditions{
			Description: sp("clear sky"),
			TempC:       fp(31.5),
			FeelsLikeC:  fp(34.0),
			Humidity:    ip(70),
			WindSpeedMS: fp(4.2),
			CloudsPct:   ip(10),
		},
		Forecast: []model.DailyForecast{
			{Date: "2026-03-10", CommonDescription: sp("clear sky"), TempMinC: fp(24), TempMaxC: fp(32)},
			{Date: "2026-03-11", CommonDescription: sp("few clouds"), TempMinC: fp(25), TempMaxC: fp(31)},
			{Date: "2026-03-12", CommonDescription: sp("light rain"), TempMinC: fp(23), TempMaxC: fp(29)},
			{Date: "2026-03-13", CommonDescription: sp("light rain"), TempMinC: fp(23), TempMaxC: fp(28)},
		},
		AQI:       &model.AirQuality{AQIIndex: 2},
		FetchedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestAssemble_SlotOrder(t *testing.T) {
	history := []model.ChatMessage{
		{Role: model.RoleUser, Content: "weather in goa"},
		{Role: model.RoleAssistant, Content: "It is sunny."},
	}

	got := Assemble(history, "what about tomorrow", testPacket())
	require.Len(t, got, 6)

	assert.Equal(t, model.RoleSystem, got[0].Role)
	assert.Contains(t, got[0].Content, "Never fabricate")

	assert.Equal(t, model.RoleSystem, got[1].Role)
	assert.Contains(t, got[1].Content, "Current weather for Goa, IN")

	assert.Equal(t, model.RoleSystem, got[2].Role)
	assert.True(t, strings.HasPrefix(got[2].Content, "WEATHER_PACKET_JSON:\n```json\n"))
	assert.True(t, strings.HasSuffix(got[2].Content, "\n```"))

	assert.Equal(t, history[0], got[3])
	assert.Equal(t, history[1], got[4])

	assert.Equal(t, model.ChatMessage{Role: model.RoleUser, Content: "what about tomorrow"}, got[5])
}

func TestAssemble_NoPacket(t *testing.T) {
	got := Assemble(nil, "tell me a joke", nil)
	require.Len(t, got, 2)
	assert.Equal(t, model.RoleSystem, got[0].Role)
	assert.Equal(t, model.ChatMessage{Role: model.RoleUser, Content: "tell me a joke"}, got[1])
}

func TestAssemble_DoesNotMutateHistory(t *testing.T) {
	history := []model.ChatMessage{{Role: model.RoleUser, Content: "hi"}}
	Assemble(history, "weather in goa", testPacket())
	require.Len(t, history, 1)
	assert.Equal(t, "hi", history[0].Content)
}

func TestSummary(t *testing.T) {
	got := Summary(testPacket())

	assert.Contains(t, got, "Current weather for Goa, IN")
	assert.Contains(t, got, "Condition: clear sky")
	assert.Contains(t, got, "Temperature: 31.5 C (feels like 34.0 C)")
	assert.Contains(t, got, "Humidity: 70%")
	assert.Contains(t, got, "Clouds: 10%")
	assert.Contains(t, got, "Air quality: Fair (index 2)")
	assert.Contains(t, got, "2026-03-12: light rain, 23.0 to 29.0 C")
	// Forecast is capped at three days.
	assert.NotContains(t, got, "2026-03-13")
}

func TestSummary_MissingFields(t *testing.T) {
	packet := &model.WeatherPacket{
		Location: "Goa",
		Current:  &model.CurrentConditions{TempC: fp(30)},
	}

	got := Summary(packet)
	assert.Contains(t, got, "Condition: N/A")
	assert.Contains(t, got, "Temperature: 30.0 C (feels like N/A C)")
	assert.Contains(t, got, "Humidity: N/A%")
	assert.Contains(t, got, "Clouds: N/A%")
	assert.NotContains(t, got, "Air quality")
}

func TestSummary_NoCurrentConditions(t *testing.T) {
	packet := &model.WeatherPacket{Location: "Goa"}
	assert.Contains(t, Summary(packet), "Current conditions unavailable")
}
