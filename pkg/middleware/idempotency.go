package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const (
	DefaultIdempotencyHeader = "Idempotency-Key"
	ReplayedHeader           = "Idempotent-Replayed"
)

type IdempotencyStore interface {
	Get(key string) (*CachedResponse, bool)
	Set(key string, response *CachedResponse)
	Stop()
}

type CachedResponse struct {
	// Fingerprint is a digest of the request body the response was produced for.
	Fingerprint string
	StatusCode  int
	Headers     http.Header
	Body        []byte
}

// InMemoryIdempotencyStore keeps replayable responses until ttl after they were stored.
type InMemoryIdempotencyStore struct {
	entries *ttlcache.Cache[string, *CachedResponse]
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	entries := ttlcache.New[string, *CachedResponse](
		ttlcache.WithTTL[string, *CachedResponse](ttl),
		ttlcache.WithDisableTouchOnHit[string, *CachedResponse](),
	)
	go entries.Start()
	return &InMemoryIdempotencyStore{entries: entries}
}

func (s *InMemoryIdempotencyStore) Get(key string) (*CachedResponse, bool) {
	item := s.entries.Get(key)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (s *InMemoryIdempotencyStore) Set(key string, response *CachedResponse) {
	s.entries.Set(key, response, ttlcache.DefaultTTL)
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.entries.Stop()
}

// IdempotencyConfig configures Idempotency. Scope identifies the caller a key
// belongs to; keys from different callers never share a cached response.
type IdempotencyConfig struct {
	Header string
	Scope  KeyExtractor
}

// SessionScope scopes keys to the session cookie named cookieName, falling
// back to fallback for callers without one.
func SessionScope(cookieName string, fallback KeyExtractor) KeyExtractor {
	if fallback == nil {
		fallback = ClientIP
	}
	return func(r *http.Request) string {
		if cookieName != "" {
			if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
				return "session:" + digest([]byte(c.Value))
			}
		}
		return "client:" + fallback(r)
	}
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

// Idempotency replays the first successful response for a repeated
// Idempotency-Key from the same caller on the same method and path. Reusing a
// key with a different request body is rejected with 422. Requests without
// the header pass through.
func Idempotency(store IdempotencyStore, cfg IdempotencyConfig) func(http.Handler) http.Handler {
	if cfg.Header == "" {
		cfg.Header = DefaultIdempotencyHeader
	}
	if cfg.Scope == nil {
		cfg.Scope = ClientIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := r.Header.Get(cfg.Header)

			if idempotencyKey == "" || !isMutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				// Let the handler report the read failure, e.g. an oversized body.
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), errReader{err}))
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := scopedKey(r, cfg.Scope(r), idempotencyKey)
			fingerprint := digest(body)

			if cached, found := store.Get(key); found {
				if cached.Fingerprint != fingerprint {
					writeJSONError(w, http.StatusUnprocessableEntity, "Idempotency key was already used with a different request")
					return
				}
				replayCachedResponse(w, cached)
				return
			}

			capture := captureResponse(w)
			next.ServeHTTP(capture, r)
			cacheSuccessfulResponse(store, key, fingerprint, capture, w)
		})
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func scopedKey(r *http.Request, scope, key string) string {
	return scope + " " + r.Method + " " + r.URL.Path + " " + key
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func replayCachedResponse(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}

func captureResponse(w http.ResponseWriter) *responseCapture {
	return &responseCapture{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		body:           &bytes.Buffer{},
	}
}

func cacheSuccessfulResponse(store IdempotencyStore, key, fingerprint string, capture *responseCapture, w http.ResponseWriter) {
	if capture.statusCode < 200 || capture.statusCode >= 300 {
		return
	}

	store.Set(key, &CachedResponse{
		Fingerprint: fingerprint,
		StatusCode:  capture.statusCode,
		Headers:     w.Header().Clone(),
		Body:        bytes.Clone(capture.body.Bytes()),
	})
}
