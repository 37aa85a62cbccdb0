package middleware

import (
	"net/http"
	"time"
)

// RequestObserver receives one observation per completed request.
type RequestObserver interface {
	ObserveHTTPRequest(method string, status int, duration time.Duration)
}

func RequestMetrics(observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			observer.ObserveHTTPRequest(r.Method, wrapped.statusCode, time.Since(start))
		})
	}
}
