package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/kenassistant/weather-chat-api/internal/config"
	"github.com/kenassistant/weather-chat-api/internal/model"
	"github.com/kenassistant/weather-chat-api/internal/observability"
)

// the visitor holds the rate limiter and last seen time for a specific IP address.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// chatVisitor holds the rate limiter and last seen time for a specific IP and chat.
type chatVisitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	// globalVisitors maps IP addresses to their corresponding visitor struct for global rate limiting.
	globalVisitors = make(map[string]*visitor) // key: ip
	// chatVisitors maps IP addresses and chat IDs to their corresponding chatVisitor struct for per-chat rate limiting.
	chatVisitors = make(map[string]map[string]*chatVisitor) // key: ip -> chatID -> visitor
	muGlobal     sync.Mutex
	muChat       sync.Mutex
)

// getGlobalLimiter returns the rate limiter for the given IP address, creating one if it does not exist.
func getGlobalLimiter(ip string) *rate.Limiter {
	muGlobal.Lock()
	defer muGlobal.Unlock()
	v, exists := globalVisitors[ip]
	if !exists {
		r, burst := config.GetGlobalRateLimiterConfig()
		limiter := rate.NewLimiter(rate.Limit(r/60.0), burst)
		globalVisitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// getChatLimiter returns the rate limiter for the given IP address and chat ID, creating one if it does not exist.
func getChatLimiter(ip, chatID string) *rate.Limiter {
	muChat.Lock()
	defer muChat.Unlock()
	if _, ok := chatVisitors[ip]; !ok {
		chatVisitors[ip] = make(map[string]*chatVisitor)
	}
	v, exists := chatVisitors[ip][chatID]
	if !exists {
		r, burst := config.GetChatRateLimiterConfig()
		limiter := rate.NewLimiter(rate.Limit(r/60.0), burst)
		chatVisitors[ip][chatID] = &chatVisitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// cleanupGlobalVisitors periodically removes globalVisitors entries that have not been seen recently.
func cleanupGlobalVisitors() {
	timeout := config.GetRateLimiterCleanupTimeout()
	for {
		time.Sleep(time.Minute)
		muGlobal.Lock()
		for ip, v := range globalVisitors {
			if time.Since(v.lastSeen) > timeout {
				delete(globalVisitors, ip)
			}
		}
		muGlobal.Unlock()
	}
}

// cleanupChatVisitors periodically removes chatVisitors entries that have not been seen recently.
func cleanupChatVisitors() {
	timeout := config.GetRateLimiterCleanupTimeout()
	for {
		time.Sleep(time.Minute)
		muChat.Lock()
		for ip, chatMap := range chatVisitors {
			for chatID, v := range chatMap {
				if time.Since(v.lastSeen) > timeout {
					delete(chatMap, chatID)
				}
			}
			if len(chatMap) == 0 {
				delete(chatVisitors, ip)
			}
		}
		muChat.Unlock()
	}
}

// StartRateLimiterCleanup starts background goroutines to clean up stale visitors for both limiters.
func StartRateLimiterCleanup() {
	go cleanupGlobalVisitors()
	go cleanupChatVisitors()
}

// ResetVisitors clears all visitor states for both limiters. Used primarily for testing.
func ResetVisitors() {
	muGlobal.Lock()
	for k := range globalVisitors {
		delete(globalVisitors, k)
	}
	muGlobal.Unlock()
	muChat.Lock()
	for k := range chatVisitors {
		delete(chatVisitors, k)
	}
	muChat.Unlock()
}

// getIP extracts the client's IP address from the HTTP request, considering X-Forwarded-For headers.
func getIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr // fallback
	}
	return ip
}

func writeRateLimited(w http.ResponseWriter, errMsg, message string) {
	observability.RateLimitDeniedTotal.Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	resp := model.Response{
		Error:   &errMsg,
		Message: message,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// RateLimitMiddleware returns an HTTP middleware that enforces global and per-chat rate limiting.
// If the rate limit is exceeded, it responds with a 429 status and a JSON error message.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getIP(r)
		chatID := mux.Vars(r)["chatID"]
		if chatID == "" {
			// Routes without a chat ID share a single bucket per IP.
			chatID = "__none__"
		}
		if !getGlobalLimiter(ip).Allow() {
			writeRateLimited(w, "Rate limit exceeded for this user/IP", "Too Many Requests (global limit)")
			return
		}
		if !getChatLimiter(ip, chatID).Allow() {
			writeRateLimited(w, "Rate limit exceeded for this chat", "Too Many Requests (per-chat limit)")
			return
		}
		next.ServeHTTP(w, r)
	})
}
