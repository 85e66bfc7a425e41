package middleware

import (
	"net/http"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"complianceanalyzer/internal/cache"
	"complianceanalyzer/internal/log"
	"complianceanalyzer/internal/util"
	"complianceanalyzer/pkg/response"
)

// RateLimit allows rps requests per second per client IP with the given
// burst. Idle clients are forgotten after cache.DefaultExpiration.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	return RateLimitWithStore(cache.New(cache.DefaultExpiration, cache.CleanupInterval), rps, burst)
}

func RateLimitWithStore(clients *gocache.Cache, rps float64, burst int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := util.GetClientIPAddress(r)

			limiter := cache.GetOrCreate(clients, ip, func() *rate.Limiter {
				return rate.NewLimiter(rate.Limit(rps), burst)
			})

			if !limiter.Allow() {
				log.Logger.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", r.URL.Path))
				response.Error(w, http.StatusTooManyRequests, "Too many requests", "Rate limit exceeded, retry later", "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
