package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"
)

func TestRateLimit_Redis(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, needs docker")
	}
	ctx := context.Background()

	ctr, err := tcredis.Run(ctx, "redis:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := rateLimitConfig()
	cfg.Capacity = 3
	cfg.RefillTokens = 1
	cfg.RefillInterval = time.Hour

	h := RateLimit(cfg, rdb, zap.NewNop())(okHandler)
	hit := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/seats/hold", nil)
		req.RemoteAddr = ip + ":4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < cfg.Capacity; i++ {
		assert.Equal(t, http.StatusOK, hit("10.1.1.1").Code, "request %d", i+1)
	}

	rec := hit("10.1.1.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// buckets are per client
	assert.Equal(t, http.StatusOK, hit("10.1.1.2").Code)

	ttl, err := rdb.TTL(ctx, "rl:ip:10.1.1.1:route:POST /seats/hold").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
