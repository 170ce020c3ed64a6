package integrationtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"

	"github.com/kenassistant/weather-chat-api/internal/cache"
	"github.com/kenassistant/weather-chat-api/internal/chat"
	"github.com/kenassistant/weather-chat-api/internal/config"
	"github.com/kenassistant/weather-chat-api/internal/handler"
	"github.com/kenassistant/weather-chat-api/internal/middleware"
	"github.com/kenassistant/weather-chat-api/internal/relay"
	"github.com/kenassistant/weather-chat-api/internal/session"
	"github.com/kenassistant/weather-chat-api/internal/weather"
)

var miniRedisMock *miniredis.Miniredis

func createMockRedisServer() {
	miniRedisMock = miniredis.NewMiniRedis()
	if err := miniRedisMock.StartAddr(":16379"); err != nil {
		panic(err)
	}
}

// mockOWMApi serves canned OpenWeatherMap responses for every endpoint the
// weather client touches.
func mockOWMApi() *httptest.Server {
	m := http.NewServeMux()
	m.HandleFunc("/direct", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "Nowhereville" {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, `[{"name":"Goa","lat":15.2993,"lon":74.124,"country":"IN","state":"Goa"}]`)
	})
	m.HandleFunc("/weather", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"weather":[{"description":"clear sky"}],
			"main":{"temp":31.5,"feels_like":34.0,"humidity":70,"pressure":1008},
			"wind":{"speed":4.2},
			"clouds":{"all":10}
		}`)
	})
	m.HandleFunc("/forecast", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"list":[
			{"dt":1770800400,"main":{"temp":28.0,"humidity":65},"weather":[{"description":"few clouds"}],"wind":{"speed":3.1}},
			{"dt":1770811200,"main":{"temp":30.0,"humidity":60},"weather":[{"description":"few clouds"}],"wind":{"speed":2.8}}
		]}`)
	})
	m.HandleFunc("/air_pollution", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"list":[{"main":{"aqi":2},"components":{"pm2_5":12.4}}]}`)
	})
	return httptest.NewServer(m)
}

// mockLLM is a swappable NDJSON backend. Tests change the handler to exercise
// completion and mid-stream disconnects.
type mockLLM struct {
	mu      sync.Mutex
	handler http.HandlerFunc
	server  *httptest.Server
}

func newMockLLM() *mockLLM {
	m := &mockLLM{}
	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		h := m.handler
		m.mu.Unlock()
		if h == nil {
			http.Error(w, "no handler installed", http.StatusInternalServerError)
			return
		}
		h(w, r)
	}))
	return m
}

func (m *mockLLM) setHandler(h http.HandlerFunc) {
	m.mu.Lock()
	m.handler = h
	m.mu.Unlock()
}

func setupIntegrationTestServer() *httptest.Server {
	logger := config.GetLogger()

	store := session.NewRedisStore(session.GetClient())
	provider := weather.NewClient(config.GetOpenWeatherMapAPIKey())
	weatherSvc := weather.NewService(provider, cache.NewTiers(), logger)
	streamer := relay.New(config.GetLLMUrl(), config.GetLLMModel(), logger)
	chatSvc := chat.NewService(store, weatherSvc, streamer, config.GetForecastDays(), logger)
	h := handler.NewChatHandler(chatSvc, logger)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)
	api := r.PathPrefix("/chat").Subrouter()
	api.Use(middleware.RateLimitMiddleware)
	api.HandleFunc("/{chatID}/stream", h.HandleStream).Methods(http.MethodPost)
	api.HandleFunc("/{chatID}/rename", h.HandleRename).Methods(http.MethodPost)
	api.HandleFunc("/{chatID}", h.HandleGetChat).Methods(http.MethodGet)
	api.HandleFunc("/{chatID}", h.HandleDelete).Methods(http.MethodDelete)

	return httptest.NewServer(r)
}
