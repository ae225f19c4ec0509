package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection settings. URL options are overridden by the
// non-zero fields.
type Config struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Client wraps the go-redis client with health checking capabilities.
type Client struct {
	*redis.Client
}

// New creates a Redis client from cfg and verifies the connection.
func New(ctx context.Context, cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// RegisterPoolMetrics exposes connection pool statistics on reg. Values are
// read from the pool at scrape time.
func (c *Client) RegisterPoolMetrics(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "crp_redis_pool_total_conns",
			Help: "Number of total connections in the pool",
		}, func() float64 { return float64(c.PoolStats().TotalConns) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "crp_redis_pool_idle_conns",
			Help: "Number of idle connections in the pool",
		}, func() float64 { return float64(c.PoolStats().IdleConns) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "crp_redis_pool_hits_total",
			Help: "Number of times a connection was found in the pool",
		}, func() float64 { return float64(c.PoolStats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "crp_redis_pool_misses_total",
			Help: "Number of times a connection was not found in the pool",
		}, func() float64 { return float64(c.PoolStats().Misses) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "crp_redis_pool_timeouts_total",
			Help: "Number of times a connection was not obtained due to timeout",
		}, func() float64 { return float64(c.PoolStats().Timeouts) }),
	}
	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			return fmt.Errorf("register redis pool metric: %w", err)
		}
	}
	return nil
}
