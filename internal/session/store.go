// Package session persists per-chat state in Redis: the rolling message
// history, the chat title and the last successfully resolved location.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/kenassistant/weather-chat-api/internal/model"
)

// Store is the persistence surface the chat service depends on.
type Store interface {
	LastLocation(ctx context.Context, chatID string) (string, error)
	SetLastLocation(ctx context.Context, chatID, location string) error
	History(ctx context.Context, chatID string) ([]model.ChatMessage, error)
	AppendMessage(ctx context.Context, chatID string, msg model.ChatMessage) error
	Title(ctx context.Context, chatID string) (string, error)
	SetTitle(ctx context.Context, chatID, title string) error
	Delete(ctx context.Context, chatID string) error
}

// RedisStore implements Store on a shared Redis client.
type RedisStore struct {
	client *redisv9.Client
}

func NewRedisStore(client *redisv9.Client) *RedisStore {
	return &RedisStore{client: client}
}

func locationKey(chatID string) string { return fmt.Sprintf("chat:%s:location", chatID) }
func historyKey(chatID string) string  { return fmt.Sprintf("chat:%s:history", chatID) }
func titleKey(chatID string) string    { return fmt.Sprintf("chat:%s:title", chatID) }

// LastLocation returns the stored location, or "" when none is set.
func (s *RedisStore) LastLocation(ctx context.Context, chatID string) (string, error) {
	loc, err := s.client.Get(ctx, locationKey(chatID)).Result()
	if err == redisv9.Nil {
		return "", nil
	}
	return loc, err
}

func (s *RedisStore) SetLastLocation(ctx context.Context, chatID, location string) error {
	return s.client.Set(ctx, locationKey(chatID), location, 0).Err()
}

// History returns the full message list in insertion order. A chat with no
// history yields an empty slice.
func (s *RedisStore) History(ctx context.Context, chatID string) ([]model.ChatMessage, error) {
	raw, err := s.client.LRange(ctx, historyKey(chatID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]model.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg model.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("corrupt history entry for chat %s: %w", chatID, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (s *RedisStore) AppendMessage(ctx context.Context, chatID string, msg model.ChatMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.client.RPush(ctx, historyKey(chatID), raw).Err()
}

// Title returns the chat title, or "" when none is set.
func (s *RedisStore) Title(ctx context.Context, chatID string) (string, error) {
	title, err := s.client.Get(ctx, titleKey(chatID)).Result()
	if err == redisv9.Nil {
		return "", nil
	}
	return title, err
}

func (s *RedisStore) SetTitle(ctx context.Context, chatID, title string) error {
	return s.client.Set(ctx, titleKey(chatID), title, 0).Err()
}

// Delete removes all keys belonging to the chat.
func (s *RedisStore) Delete(ctx context.Context, chatID string) error {
	return s.client.Del(ctx, historyKey(chatID), titleKey(chatID), locationKey(chatID)).Err()
}
