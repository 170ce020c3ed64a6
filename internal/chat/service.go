// Package chat orchestrates a conversation turn: location resolution, weather
// acquisition, prompt assembly, streaming and persistence.
package chat

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kenassistant/weather-chat-api/internal/location"
	"github.com/kenassistant/weather-chat-api/internal/model"
	"github.com/kenassistant/weather-chat-api/internal/prompt"
	"github.com/kenassistant/weather-chat-api/internal/relay"
	"github.com/kenassistant/weather-chat-api/internal/session"
)

const (
	titleWordLimit = 4
	titleCharLimit = 30
	defaultTitle   = "New Chat"
)

// WeatherBuilder produces a weather packet for a location, or nil when the
// location cannot be grounded.
type WeatherBuilder interface {
	BuildPacket(ctx context.Context, location string, days int) *model.WeatherPacket
}

// Streamer relays assembled messages to the model backend.
type Streamer interface {
	Stream(ctx context.Context, messages []model.ChatMessage, sink relay.TokenSink) relay.Result
}

// Service ties the pipeline together for a single chat turn.
type Service struct {
	store        session.Store
	weather      WeatherBuilder
	relay        Streamer
	forecastDays int
	logger       *zap.SugaredLogger
}

func NewService(store session.Store, weather WeatherBuilder, streamer Streamer, forecastDays int, logger *zap.SugaredLogger) *Service {
	return &Service{
		store:        store,
		weather:      weather,
		relay:        streamer,
		forecastDays: forecastDays,
		logger:       logger,
	}
}

// GenerateTitle derives a chat title from the first user message: the first
// four words, title-cased, capped at 30 characters.
func GenerateTitle(message string) string {
	words := strings.Fields(message)
	if len(words) == 0 {
		return defaultTitle
	}
	if len(words) > titleWordLimit {
		words = words[:titleWordLimit]
	}
	title := cases.Title(language.English).String(strings.Join(words, " "))
	if runes := []rune(title); len(runes) > titleCharLimit {
		title = string(runes[:titleCharLimit-3]) + "..."
	}
	return title
}

// StreamTurn runs one conversation turn. The assistant reply is persisted only
// when the stream completes; cancelled and failed streams leave the history
// with just the user message.
func (s *Service) StreamTurn(ctx context.Context, chatID, message string, sink relay.TokenSink) relay.Result {
	// History must be read before the user message is persisted so the
	// current message does not appear twice in the prompt.
	history, err := s.store.History(ctx, chatID)
	if err != nil {
		s.logger.Warnw("loading history failed, continuing without it", "chat_id", chatID, "error", err)
		history = nil
	}

	if len(history) == 0 {
		if err := s.store.SetTitle(ctx, chatID, GenerateTitle(message)); err != nil {
			s.logger.Warnw("setting chat title failed", "chat_id", chatID, "error", err)
		}
	}

	if err := s.store.AppendMessage(ctx, chatID, model.ChatMessage{Role: model.RoleUser, Content: message}); err != nil {
		s.logger.Warnw("persisting user message failed", "chat_id", chatID, "error", err)
	}

	packet := s.resolveWeather(ctx, chatID, message)
	messages := prompt.Assemble(history, message, packet)

	res := s.relay.Stream(ctx, messages, sink)
	if res.State == relay.Completed && res.Text != "" {
		if err := s.store.AppendMessage(ctx, chatID, model.ChatMessage{Role: model.RoleAssistant, Content: res.Text}); err != nil {
			s.logger.Warnw("persisting assistant reply failed", "chat_id", chatID, "error", err)
		}
	}
	return res
}

// resolveWeather extracts a location from the query and builds its weather
// packet. The resolved location is remembered for the session even when the
// packet itself cannot be built, so follow-ups keep working through provider
// outages.
func (s *Service) resolveWeather(ctx context.Context, chatID, query string) *model.WeatherPacket {
	lastLocation, err := s.store.LastLocation(ctx, chatID)
	if err != nil {
		s.logger.Warnw("loading last location failed", "chat_id", chatID, "error", err)
		lastLocation = ""
	}

	loc, ok := location.Resolve(query, location.IsFollowup(query), lastLocation)
	if !ok {
		return nil
	}

	if loc != lastLocation {
		if err := s.store.SetLastLocation(ctx, chatID, loc); err != nil {
			s.logger.Warnw("persisting last location failed", "chat_id", chatID, "error", err)
		}
	}

	return s.weather.BuildPacket(ctx, loc, s.forecastDays)
}

// Detail loads the stored title and history for a chat.
func (s *Service) Detail(ctx context.Context, chatID string) (*model.ChatDetail, error) {
	title, err := s.store.Title(ctx, chatID)
	if err != nil {
		return nil, err
	}
	history, err := s.store.History(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = defaultTitle
	}
	return &model.ChatDetail{Title: title, Messages: history}, nil
}

// Rename updates the chat title.
func (s *Service) Rename(ctx context.Context, chatID, title string) error {
	return s.store.SetTitle(ctx, chatID, title)
}

// Delete removes all stored state for a chat.
func (s *Service) Delete(ctx context.Context, chatID string) error {
	return s.store.Delete(ctx, chatID)
}
