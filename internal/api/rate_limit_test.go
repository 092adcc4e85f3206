package api

import (
	"github.com/stretchr/testify/assert"
	"net/http/httptest"
	"testing"
)

func Test_IPRateLimiter_ShouldTrackAddressesSeparately(t *testing.T) {

	limiter := newIPRateLimiter(2)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))
}

func Test_IPRateLimiter_WhenDisabled_ShouldAllowAll(t *testing.T) {

	limiter := newIPRateLimiter(0)

	for i := 0; i < 100; i++ {
		assert.True(t, limiter.Allow("10.0.0.1"))
	}
}

func Test_ClientIP_ShouldStripPort(t *testing.T) {

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.7:5555"
	assert.Equal(t, "192.168.1.7", clientIP(req))

	req.RemoteAddr = "unix"
	assert.Equal(t, "unix", clientIP(req))
}
