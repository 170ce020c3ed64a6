// Package prompt builds the message sequence sent to the language model. The
// slot order is fixed: system instruction, weather summary, weather packet
// JSON, prior history, then the user's message last.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kenassistant/weather-chat-api/internal/model"
)

const systemInstruction = `You are a helpful weather assistant. When a WEATHER_PACKET_JSON block is present, answer weather questions using that data exclusively. Never fabricate weather values. If the data needed to answer is missing from the packet, say "Weather data unavailable" for that part. Format your answers in Markdown.`

var aqiLabels = map[int]string{
	1: "Good",
	2: "Fair",
	3: "Moderate",
	4: "Poor",
	5: "Very Poor",
}

// Assemble produces the full model input. A nil packet omits both weather
// slots, leaving instruction, history and user message.
func Assemble(history []model.ChatMessage, userMessage string, packet *model.WeatherPacket) []model.ChatMessage {
	messages := make([]model.ChatMessage, 0, len(history)+4)
	messages = append(messages, model.ChatMessage{Role: model.RoleSystem, Content: systemInstruction})

	if packet != nil {
		messages = append(messages, model.ChatMessage{Role: model.RoleSystem, Content: Summary(packet)})
		if raw, err := json.MarshalIndent(packet, "", "  "); err == nil {
			messages = append(messages, model.ChatMessage{
				Role:    model.RoleSystem,
				Content: "WEATHER_PACKET_JSON:\n```json\n" + string(raw) + "\n```",
			})
		}
	}

	messages = append(messages, history...)
	messages = append(messages, model.ChatMessage{Role: model.RoleUser, Content: userMessage})
	return messages
}

// Summary renders a compact human-readable digest of the packet for the model
// to lean on before parsing the JSON block. Missing fields render as N/A.
func Summary(packet *model.WeatherPacket) string {
	var b strings.Builder

	place := packet.Location
	if packet.Country != "" {
		place += ", " + packet.Country
	}
	fmt.Fprintf(&b, "Current weather for %s:\n", place)

	if packet.Current != nil {
		cur := packet.Current
		fmt.Fprintf(&b, "- Condition: %s\n", orNA(cur.Description))
		fmt.Fprintf(&b, "- Temperature: %s C (feels like %s C)\n", numOrNA(cur.TempC), numOrNA(cur.FeelsLikeC))
		fmt.Fprintf(&b, "- Humidity: %s%%\n", intOrNA(cur.Humidity))
		fmt.Fprintf(&b, "- Wind: %s m/s\n", numOrNA(cur.WindSpeedMS))
		fmt.Fprintf(&b, "- Clouds: %s%%\n", intOrNA(cur.CloudsPct))
	} else {
		b.WriteString("- Current conditions unavailable\n")
	}

	if packet.AQI != nil {
		label, ok := aqiLabels[packet.AQI.AQIIndex]
		if !ok {
			label = "Unknown"
		}
		fmt.Fprintf(&b, "- Air quality: %s (index %d)\n", label, packet.AQI.AQIIndex)
	}

	if len(packet.Forecast) > 0 {
		b.WriteString("Forecast:\n")
		days := packet.Forecast
		if len(days) > 3 {
			days = days[:3]
		}
		for _, d := range days {
			fmt.Fprintf(&b, "- %s: %s, %s to %s C\n",
				d.Date, orNA(d.CommonDescription), numOrNA(d.TempMinC), numOrNA(d.TempMaxC))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func orNA(v *string) string {
	if v == nil {
		return "N/A"
	}
	return *v
}

func numOrNA(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", *v)
}

func intOrNA(v *int) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *v)
}
