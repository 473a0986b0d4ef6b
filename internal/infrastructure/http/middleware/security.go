package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/mrops-br/catalog-api/internal/infrastructure/http/response"
	"github.com/unrolled/secure"
)

var errRateLimited = errors.New("rate limit exceeded")

// SecureHeaders sets the usual hardening headers for a JSON API.
// SSL redirects are only enforced in production.
func SecureHeaders(logger *slog.Logger, production bool) func(next http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLRedirect:           production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := secureMiddleware.Process(w, r); err != nil {
				logger.WarnContext(r.Context(), "Secure headers blocked request",
					slog.String("error", err.Error()),
				)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP allows requestsPerMinute requests per client IP.
// A non-positive limit disables limiting.
func RateLimitByIP(requestsPerMinute int) func(next http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(requestsPerMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			response.Error(w, http.StatusTooManyRequests, errRateLimited)
		}),
	)
}
