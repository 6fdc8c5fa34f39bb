package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Alarm cache keys
const (
	AlarmListKey  = "alarms:list"
	AlarmCountKey = "alarms:count"
)

var client *redis.Client

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Init initializes the Redis connection. On failure the package keeps working
// with caching disabled.
func Init(ctx context.Context, opts Options) error {
	c := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		_ = c.Close()
		client = nil
		return err
	}
	client = c
	return nil
}

// SetClient replaces the Redis client. A nil client disables caching.
func SetClient(c *redis.Client) {
	client = c
}

// GetClient returns the Redis client
func GetClient() *redis.Client {
	return client
}

// Close releases the Redis connection.
func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}

// Ping reports whether Redis is reachable. A disabled cache returns redis.Nil.
func Ping(ctx context.Context) error {
	if client == nil {
		return redis.Nil
	}
	return client.Ping(ctx).Err()
}

// AlarmCache stores the encoded alarm list and its size for TTL.
type AlarmCache struct {
	TTL time.Duration
}

func NewAlarmCache(ttl time.Duration) *AlarmCache {
	return &AlarmCache{TTL: ttl}
}

// GetAlarms returns the cached alarm list if available
func (a *AlarmCache) GetAlarms(ctx context.Context) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, AlarmListKey).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetAlarms caches the encoded alarm list together with its count.
func (a *AlarmCache) SetAlarms(ctx context.Context, data []byte, count int) {
	if client == nil {
		return
	}
	pipe := client.TxPipeline()
	pipe.Set(ctx, AlarmListKey, data, a.TTL)
	pipe.Set(ctx, AlarmCountKey, count, a.TTL)
	_, _ = pipe.Exec(ctx)
}

// GetCount returns the cached number of cases in alarm.
func (a *AlarmCache) GetCount(ctx context.Context) (int, bool) {
	if client == nil {
		return 0, false
	}
	n, err := client.Get(ctx, AlarmCountKey).Int()
	if err != nil {
		return 0, false
	}
	return n, true
}

// Invalidate drops every cached alarm entry. Called after a status change.
func (a *AlarmCache) Invalidate(ctx context.Context) {
	if client == nil {
		return
	}
	client.Del(ctx, AlarmListKey, AlarmCountKey)
}
