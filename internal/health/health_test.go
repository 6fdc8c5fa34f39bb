package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCheckBasic(t *testing.T) {
	t.Parallel()

	ok := NewHealthChecker(pingFunc(func(context.Context) error { return nil }))
	require.Equal(t, StatusHealthy, ok.CheckBasic(context.Background()).Status)

	down := NewHealthChecker(pingFunc(func(context.Context) error { return errors.New("refused") }))
	status := down.CheckBasic(context.Background())
	require.Equal(t, StatusUnhealthy, status.Status)
	require.Equal(t, "refused", status.Database.Error)
}

func TestCheckDetailed_RedisDoesNotFailOverall(t *testing.T) {
	t.Parallel()

	h := NewHealthChecker(pingFunc(func(context.Context) error { return nil }))
	require.Equal(t, StatusDisabled, h.CheckDetailed(context.Background()).Redis.Status)

	h.SetRedisCheck(func(context.Context) error { return errors.New("no redis") })
	status := h.CheckDetailed(context.Background())
	require.Equal(t, StatusHealthy, status.Status)
	require.Equal(t, StatusUnhealthy, status.Redis.Status)
	require.Positive(t, status.Host.Goroutines)
}

func TestFormatting(t *testing.T) {
	t.Parallel()

	require.Equal(t, "512.0 MB", formatBytes(512*1024*1024))
	require.Equal(t, "2.0 GB", formatBytes(2*1024*1024*1024))
	require.Equal(t, "5m", formatUptime(300))
	require.Equal(t, "2h 5m", formatUptime(7500))
	require.Equal(t, "1d 1h", formatUptime(90000))
}
