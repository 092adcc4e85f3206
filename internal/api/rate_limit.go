package api

import (
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	limiterIdleExpiration = 10 * time.Minute
	limiterCleanup        = time.Minute
)

// ipRateLimiter keeps one token bucket per client address. Buckets idle for
// limiterIdleExpiration are dropped.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters *gocache.Cache
	limit    rate.Limit
	burst    int
}

// newIPRateLimiter allows perMinute requests per address; zero disables it.
func newIPRateLimiter(perMinute float64) *ipRateLimiter {
	if perMinute <= 0 {
		return &ipRateLimiter{limit: rate.Inf}
	}

	burst := int(perMinute)
	if burst < 1 {
		burst = 1
	}

	return &ipRateLimiter{
		limiters: gocache.New(limiterIdleExpiration, limiterCleanup),
		limit:    rate.Limit(perMinute / 60),
		burst:    burst,
	}
}

func (l *ipRateLimiter) Allow(ip string) bool {
	if l.limit == rate.Inf {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var limiter *rate.Limiter
	if value, found := l.limiters.Get(ip); found {
		limiter = value.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(l.limit, l.burst)
	}
	l.limiters.SetDefault(ip, limiter)

	return limiter.Allow()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
