package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/kenassistant/weather-chat-api/internal/cache"
	"github.com/kenassistant/weather-chat-api/internal/chat"
	"github.com/kenassistant/weather-chat-api/internal/config"
	"github.com/kenassistant/weather-chat-api/internal/handler"
	"github.com/kenassistant/weather-chat-api/internal/middleware"
	"github.com/kenassistant/weather-chat-api/internal/observability"
	"github.com/kenassistant/weather-chat-api/internal/relay"
	"github.com/kenassistant/weather-chat-api/internal/session"
	"github.com/kenassistant/weather-chat-api/internal/weather"
)

func newRouter(h *handler.ChatHandler) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/chat").Subrouter()
	api.Use(middleware.RateLimitMiddleware)
	api.HandleFunc("/{chatID}/stream", h.HandleStream).Methods(http.MethodPost)
	api.HandleFunc("/{chatID}/rename", h.HandleRename).Methods(http.MethodPost)
	api.HandleFunc("/{chatID}", h.HandleGetChat).Methods(http.MethodGet)
	api.HandleFunc("/{chatID}", h.HandleDelete).Methods(http.MethodDelete)
	return r
}

func main() {
	logger := config.GetLogger()

	store := session.NewRedisStore(session.GetClient())
	provider := weather.NewClient(config.GetOpenWeatherMapAPIKey())
	weatherSvc := weather.NewService(provider, cache.NewTiers(), logger)
	streamer := relay.New(config.GetLLMUrl(), config.GetLLMModel(), logger)
	chatSvc := chat.NewService(store, weatherSvc, streamer, config.GetForecastDays(), logger)
	h := handler.NewChatHandler(chatSvc, logger)

	middleware.StartRateLimiterCleanup()

	port := os.Getenv("PORT")
	if port == "" {
		port = config.GetServerPort()
	}

	// No write timeout: /chat/{chatID}/stream holds the response open for the
	// lifetime of generation.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           newRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Infow("weather chat server running", "port", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalw("server stopped", "error", err)
	}
}
