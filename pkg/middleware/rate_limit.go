package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"

	"contactcleaner/pkg/logger"
)

// KeyExtractor identifies the client a request is counted against. An empty key is never limited.
type KeyExtractor func(r *http.Request) string

// ClientRateLimiter gives every client its own token bucket refilled at
// limit tokens per window. Buckets of clients idle for a whole window are evicted.
type ClientRateLimiter struct {
	limiters     *ttlcache.Cache[string, *rate.Limiter]
	every        rate.Limit
	burst        int
	retryAfter   time.Duration
	keyExtractor KeyExtractor
	log          *logger.Logger
	now          func() time.Time
}

func NewClientRateLimiter(limit int, window time.Duration, extractor KeyExtractor, log *logger.Logger) *ClientRateLimiter {
	if extractor == nil {
		extractor = ClientIP
	}

	interval := window / time.Duration(limit)
	limiters := ttlcache.New[string, *rate.Limiter](
		ttlcache.WithTTL[string, *rate.Limiter](window),
	)
	go limiters.Start()

	return &ClientRateLimiter{
		limiters:     limiters,
		every:        rate.Every(interval),
		burst:        limit,
		retryAfter:   interval,
		keyExtractor: extractor,
		log:          log,
		now:          time.Now,
	}
}

func (rl *ClientRateLimiter) Stop() {
	rl.limiters.Stop()
}

func (rl *ClientRateLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	item, _ := rl.limiters.GetOrSetFunc(key, func() *rate.Limiter {
		return rate.NewLimiter(rl.every, rl.burst)
	})
	return item.Value().AllowN(rl.now(), 1)
}

func RateLimit(limiter *ClientRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiter.keyExtractor(r)

			if !limiter.Allow(key) {
				rejectRateLimited(w, limiter, r, key)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectRateLimited(w http.ResponseWriter, limiter *ClientRateLimiter, r *http.Request, key string) {
	limiter.log.Warn("Rate limit exceeded",
		"request_id", RequestIDFromContext(r.Context()),
		"client", key,
		"path", r.URL.Path,
	)

	seconds := max(1, int(math.Ceil(limiter.retryAfter.Seconds())))
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	writeJSONError(w, http.StatusTooManyRequests, "Rate limit exceeded")
}

// ClientIP returns the host of the connection's remote address. Forwarding
// headers are ignored; use ClientIPResolver behind a reverse proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientIPResolver honors X-Forwarded-For only when the request arrives from a trusted proxy.
type ClientIPResolver struct {
	trusted []*net.IPNet
}

// NewClientIPResolver accepts IPs and CIDRs. With no entries it behaves like ClientIP.
func NewClientIPResolver(proxies []string) (*ClientIPResolver, error) {
	resolver := &ClientIPResolver{}
	for _, proxy := range proxies {
		if !strings.Contains(proxy, "/") {
			ip := net.ParseIP(proxy)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", proxy)
			}
			bits := 8 * len(ip.To16())
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			resolver.trusted = append(resolver.trusted, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}

		_, network, err := net.ParseCIDR(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", proxy, err)
		}
		resolver.trusted = append(resolver.trusted, network)
	}
	return resolver, nil
}

func (cr *ClientIPResolver) isTrusted(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, network := range cr.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP walks X-Forwarded-For from the nearest hop and returns the first
// address that is not a trusted proxy.
func (cr *ClientIPResolver) ClientIP(r *http.Request) string {
	remote := ClientIP(r)
	if !cr.isTrusted(remote) {
		return remote
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !cr.isTrusted(hop) {
			return hop
		}
	}
	return remote
}
