package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"storefront-gateway/internal/core/domain"
	"storefront-gateway/internal/core/ports"
	"storefront-gateway/internal/observability"
	"storefront-gateway/internal/ratelimit"
)

// RateLimitMiddleware applies per-client request budgets to route groups.
type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
	sink    ports.SecurityEventSink
	logger  *slog.Logger
}

func NewRateLimitMiddleware(limiter *ratelimit.Limiter, sink ports.SecurityEventSink, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		sink:    sink,
		logger:  logger,
	}
}

// Limit enforces cfg for one operation class. Authenticated requests are
// keyed by subject, anonymous ones by client IP.
func (m *RateLimitMiddleware) Limit(class string, cfg ratelimit.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := UserID(r.Context())
			if identifier == "" {
				identifier = ClientIdentifier(r)
			}

			result := m.limiter.Check(r.Context(), identifier, cfg)
			observability.ObserveRateLimitDecision(class, result.Allowed)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.Unix(), 10))

			if !result.Allowed {
				m.logger.Warn("rate limit exceeded",
					"class", class, "identifier", identifier, "path", r.URL.Path)
				if err := m.sink.Record(r.Context(), domain.SecurityEvent{
					Type:     domain.EventRateLimitExceeded,
					Severity: domain.SeverityMedium,
					IP:       ClientIdentifier(r),
					Subject:  UserID(r.Context()),
					Detail:   class + " " + r.URL.Path,
				}); err != nil {
					m.logger.Error("failed to record security event", "error", err)
				}
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				writeJSONError(w, "Too many requests, please try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIdentifier extracts the client address for rate limiting. Proxy
// headers are checked in order of trust; a request with none of them falls
// into a shared "unknown" bucket.
func ClientIdentifier(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("Cf-Connecting-Ip")); ip != "" {
		return ip
	}
	return "unknown"
}
