package middleware

import (
	"net/http"
	"os"
	"strconv"

	"pickcoin/pkg/ratelimit"
)

// apiLimiter ограничивает частоту запросов к API.
// Настройка через API_RATE_LIMIT (запросов в секунду, по умолчанию 50).
var apiLimiter = initLimiter()

func initLimiter() *ratelimit.RateLimiter {
	rate := 50.0
	if raw := os.Getenv("API_RATE_LIMIT"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			rate = parsed
		}
	}
	return ratelimit.NewRateLimiter(rate, rate*2)
}

// RateLimit - middleware ограничения частоты запросов (token bucket)
//
// Неблокирующий: при исчерпании токенов возвращает 429, не выстраивая
// очередь из запросов перед леджером.
func RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !apiLimiter.Allow() {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
