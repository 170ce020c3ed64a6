package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kenassistant/weather-chat-api/internal/model"
)

func newTestRelay(url string) *Relay {
	return New(url, "test-model", zap.NewNop().Sugar())
}

func ndjsonServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		for _, line := range lines {
			fmt.Fprintln(w, line)
			flusher.Flush()
		}
	}))
}

func userMessages(content string) []model.ChatMessage {
	return []model.ChatMessage{{Role: model.RoleUser, Content: content}}
}

func TestStream_Completed(t *testing.T) {
	srv := ndjsonServer(t, []string{
		`{"message":{"content":"It "},"done":false}`,
		`{"message":{"content":"is "},"done":false}`,
		`{"message":{"content":"sunny."},"done":false}`,
		`{"message":{"content":""},"done":true}`,
	})
	defer srv.Close()

	var tokens []string
	res := newTestRelay(srv.URL).Stream(context.Background(), userMessages("weather in goa"), func(token string) error {
		tokens = append(tokens, token)
		return nil
	})

	assert.Equal(t, Completed, res.State)
	assert.Equal(t, "It is sunny.", res.Text)
	assert.Equal(t, []string{"It ", "is ", "sunny."}, tokens)
}

func TestStream_EmptyTokensSkipped(t *testing.T) {
	srv := ndjsonServer(t, []string{
		`{"message":{"content":""},"done":false}`,
		``,
		`{"message":{"content":"hi"},"done":true}`,
	})
	defer srv.Close()

	var tokens []string
	res := newTestRelay(srv.URL).Stream(context.Background(), userMessages("hello"), func(token string) error {
		tokens = append(tokens, token)
		return nil
	})

	assert.Equal(t, Completed, res.State)
	assert.Equal(t, []string{"hi"}, tokens)
}

func TestStream_NonJSONLinePassesThrough(t *testing.T) {
	srv := ndjsonServer(t, []string{`model not found`})
	defer srv.Close()

	var tokens []string
	res := newTestRelay(srv.URL).Stream(context.Background(), userMessages("hello"), func(token string) error {
		tokens = append(tokens, token)
		return nil
	})

	assert.Equal(t, Completed, res.State)
	assert.Equal(t, []string{"model not found"}, tokens)
}

func TestStream_CancelDiscardsPartialText(t *testing.T) {
	firstToken := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprintln(w, `{"message":{"content":"partial "},"done":false}`)
		flusher.Flush()
		close(firstToken)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-firstToken
		cancel()
	}()

	var tokens []string
	res := newTestRelay(srv.URL).Stream(ctx, userMessages("weather in goa"), func(token string) error {
		tokens = append(tokens, token)
		return nil
	})

	assert.Equal(t, Cancelled, res.State)
	assert.Empty(t, res.Text)
	assert.Equal(t, []string{"partial "}, tokens)
}

func TestStream_SinkErrorCancels(t *testing.T) {
	srv := ndjsonServer(t, []string{
		`{"message":{"content":"a"},"done":false}`,
		`{"message":{"content":"b"},"done":false}`,
	})
	defer srv.Close()

	res := newTestRelay(srv.URL).Stream(context.Background(), userMessages("hello"), func(token string) error {
		return errors.New("client gone")
	})

	assert.Equal(t, Cancelled, res.State)
	assert.Empty(t, res.Text)
}

func TestStream_BackendErrorSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model 'gemma3:12b' not found, try pulling it first"}`)
	}))
	defer srv.Close()

	var tokens []string
	res := newTestRelay(srv.URL).Stream(context.Background(), userMessages("hello"), func(token string) error {
		tokens = append(tokens, token)
		return nil
	})

	assert.Equal(t, Failed, res.State)
	require.Len(t, tokens, 1)
	assert.Equal(t, `{"error":"model 'gemma3:12b' not found, try pulling it first"}`, tokens[0])
}

func TestStream_BackendErrorEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var tokens []string
	res := newTestRelay(srv.URL).Stream(context.Background(), userMessages("hello"), func(token string) error {
		tokens = append(tokens, token)
		return nil
	})

	assert.Equal(t, Failed, res.State)
	require.Len(t, tokens, 1)
	assert.Contains(t, tokens[0], "500")
}

func TestStream_BackendUnreachable(t *testing.T) {
	var tokens []string
	res := newTestRelay("http://127.0.0.1:1/api/chat").Stream(context.Background(), userMessages("hello"), func(token string) error {
		tokens = append(tokens, token)
		return nil
	})

	assert.Equal(t, Failed, res.State)
	require.Len(t, tokens, 1)
	assert.Contains(t, tokens[0], "could not reach")
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Idle, "idle"},
		{Streaming, "streaming"},
		{Completed, "completed"},
		{Cancelled, "cancelled"},
		{Failed, "failed"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestStream_RequestCancelledBeforeStart(t *testing.T) {
	srv := ndjsonServer(t, []string{`{"message":{"content":"hi"},"done":true}`})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	res := newTestRelay(srv.URL).Stream(ctx, userMessages("hello"), func(string) error { return nil })
	assert.Equal(t, Cancelled, res.State)
}
