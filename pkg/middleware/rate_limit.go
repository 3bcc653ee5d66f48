package middleware

import (
	"net/http"
	"sync"
	"time"

	apperrors "creatorclub/pkg/errors"
	apphttp "creatorclub/pkg/http"
	"creatorclub/pkg/logger"
)

type HolderExtractor func(r *http.Request) string

// HolderRateLimiter is a sliding-window limiter keyed by caller identity.
type HolderRateLimiter struct {
	mu        sync.Mutex
	requests  map[string][]time.Time
	limit     int
	window    time.Duration
	extractor HolderExtractor
	log       *logger.Logger
	stopCh    chan struct{}
	stopOnce  sync.Once
	now       func() time.Time
}

func NewHolderRateLimiter(limit int, window time.Duration, extractor HolderExtractor, log *logger.Logger) *HolderRateLimiter {
	if extractor == nil {
		extractor = DefaultHolderExtractor
	}
	limiter := &HolderRateLimiter{
		requests:  make(map[string][]time.Time),
		limit:     limit,
		window:    window,
		extractor: extractor,
		log:       log,
		stopCh:    make(chan struct{}),
		now:       time.Now,
	}

	go limiter.cleanup()

	return limiter
}

func (rl *HolderRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := rl.now()
			rl.mu.Lock()
			for holder, timestamps := range rl.requests {
				if len(timestamps) == 0 || now.Sub(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, holder)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *HolderRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *HolderRateLimiter) Allow(holder string) bool {
	if holder == "" {
		return true
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	timestamps := rl.requests[holder]
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[holder] = valid
		return false
	}

	rl.requests[holder] = append(valid, now)
	return true
}

// HolderRateLimit must run after Authenticate so the holder is already in the context.
func HolderRateLimit(limiter *HolderRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			holder := limiter.extractor(r)

			if !limiter.Allow(holder) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestIDFromContext(r.Context()),
					"holder_id", holder,
					"path", r.URL.Path,
				)
				apphttp.WriteError(w, apperrors.RateLimited())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func DefaultHolderExtractor(r *http.Request) string {
	return HolderFromContext(r.Context())
}
