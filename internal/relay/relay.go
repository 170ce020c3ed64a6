// Package relay streams model output from the backend to a caller-supplied
// sink token by token, tracking the lifecycle of each stream explicitly.
package relay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kenassistant/weather-chat-api/internal/model"
	"github.com/kenassistant/weather-chat-api/internal/observability"
)

// State is the lifecycle of a single stream.
type State int

const (
	Idle State = iota
	Streaming
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// TokenSink receives each token as it arrives. Returning an error means the
// downstream consumer is gone and the stream should stop.
type TokenSink func(token string) error

// Result is the terminal outcome of a stream. Text carries the accumulated
// reply only when State is Completed; a cancelled or failed stream discards
// its partial text.
type Result struct {
	Text  string
	State State
}

type chatRequest struct {
	Model    string              `json:"model"`
	Messages []model.ChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
}

type chatChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Relay forwards chat requests to the model backend and relays the NDJSON
// response stream.
type Relay struct {
	url        string
	model      string
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// New builds a relay for the given backend. The HTTP client carries no
// timeout; generation is open-ended and lifetime is governed by the request
// context.
func New(url, modelName string, logger *zap.SugaredLogger) *Relay {
	return &Relay{
		url:        url,
		model:      modelName,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Stream sends the messages to the backend and forwards each content token to
// sink. Backend failures surface to the consumer as a single error token and a
// Failed result. Cancellation, from the context or from the sink, yields a
// Cancelled result with the partial text discarded.
func (r *Relay) Stream(ctx context.Context, messages []model.ChatMessage, sink TokenSink) Result {
	streamID := uuid.NewString()

	body, err := json.Marshal(chatRequest{Model: r.model, Messages: messages, Stream: true})
	if err != nil {
		r.logger.Errorw("marshaling chat request failed", "stream_id", streamID, "error", err)
		return r.finish(streamID, Result{State: Failed})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		r.logger.Errorw("building chat request failed", "stream_id", streamID, "error", err)
		return r.finish(streamID, Result{State: Failed})
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return r.finish(streamID, Result{State: Cancelled})
		}
		r.logger.Warnw("model backend unreachable", "stream_id", streamID, "url", r.url, "error", err)
		_ = sink("Error: could not reach the language model.")
		return r.finish(streamID, Result{State: Failed})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		r.logger.Warnw("model backend rejected request", "stream_id", streamID, "status", resp.StatusCode, "body", string(detail))
		token := "Error: model backend returned status " + resp.Status + "."
		if text := strings.TrimSpace(string(detail)); text != "" {
			token = text
		}
		_ = sink(token)
		return r.finish(streamID, Result{State: Failed})
	}

	r.logger.Infow("stream started", "stream_id", streamID, "model", r.model, "messages", len(messages))

	var acc strings.Builder
	reader := bufio.NewReader(resp.Body)
	for {
		select {
		case <-ctx.Done():
			return r.finish(streamID, Result{State: Cancelled})
		default:
		}

		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			token, ok := decodeLine(line)
			if ok && token != "" {
				acc.WriteString(token)
				observability.RelayTokensTotal.Inc()
				if sinkErr := sink(token); sinkErr != nil {
					r.logger.Infow("consumer disconnected", "stream_id", streamID, "error", sinkErr)
					return r.finish(streamID, Result{State: Cancelled})
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				return r.finish(streamID, Result{Text: acc.String(), State: Completed})
			}
			if ctx.Err() != nil {
				return r.finish(streamID, Result{State: Cancelled})
			}
			r.logger.Warnw("stream read failed", "stream_id", streamID, "error", err)
			return r.finish(streamID, Result{State: Failed})
		}
	}
}

// decodeLine extracts the content token from an NDJSON chunk. Lines that are
// not valid JSON pass through verbatim so backend error text reaches the
// consumer. Blank lines yield no token.
func decodeLine(line []byte) (string, bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return "", false
	}
	var chunk chatChunk
	if err := json.Unmarshal(trimmed, &chunk); err != nil {
		return string(trimmed), true
	}
	return chunk.Message.Content, true
}

func (r *Relay) finish(streamID string, res Result) Result {
	observability.RelayStreamsTotal.WithLabelValues(res.State.String()).Inc()
	r.logger.Infow("stream finished", "stream_id", streamID, "state", res.State.String(), "chars", len(res.Text))
	return res
}
