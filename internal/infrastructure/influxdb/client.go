package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/irlogic/irlogic-core/internal/infrastructure/config"
)

const (
	pingTimeout = 5 * time.Second

	// Fallbacks when the telemetry section leaves batching unset.
	defaultBatchSize     = 100
	defaultFlushInterval = 10 // seconds
)

// Client writes IR telemetry points: signal rates per receiver, key
// event rates per remote, and receiver uptime. Writes go through the
// library's non-blocking batched API, so recording a point never stalls
// the translate path; batch failures surface through SetOnError.
type Client struct {
	influx influxdb2.Client
	writes api.WriteAPI
	cfg    config.InfluxDBConfig

	mu      sync.RWMutex
	open    bool
	onError func(err error)
}

// writeOptions maps the telemetry config onto client options, filling
// in batching defaults.
func writeOptions(cfg config.InfluxDBConfig) *influxdb2.Options {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	flush := cfg.FlushInterval
	if flush <= 0 {
		flush = defaultFlushInterval
	}
	// #nosec G115 -- both values forced positive above
	return influxdb2.DefaultOptions().
		SetBatchSize(uint(batch)).
		SetFlushInterval(uint(flush) * 1000) // library takes milliseconds
}

// Connect builds the telemetry client and pings the server before
// returning. Telemetry is optional; when the config section is
// disabled this returns ErrDisabled and the caller runs without it.
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	influx := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, writeOptions(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	healthy, err := influx.Ping(ctx)
	if err != nil {
		influx.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		influx.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	c := &Client{
		influx: influx,
		writes: influx.WriteAPI(cfg.Org, cfg.Bucket),
		cfg:    cfg,
		open:   true,
	}
	go c.drainWriteErrors(c.writes.Errors())

	return c, nil
}

// drainWriteErrors forwards async batch failures to the error callback.
// The channel closes when the client does.
func (c *Client) drainWriteErrors(errs <-chan error) {
	for err := range errs {
		c.mu.RLock()
		callback := c.onError
		c.mu.RUnlock()
		if callback != nil {
			callback(err)
		}
	}
}

// Close flushes buffered points and shuts the client down.
func (c *Client) Close() error {
	if c == nil || c.influx == nil {
		return nil
	}

	c.mu.Lock()
	c.open = false
	c.mu.Unlock()

	c.writes.Flush()
	c.influx.Close()
	return nil
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	healthy, err := c.influx.Ping(pingCtx)
	if err != nil {
		return fmt.Errorf("influxdb health check failed: %w", err)
	}
	if !healthy {
		return fmt.Errorf("influxdb health check failed: server not healthy")
	}
	return nil
}

// IsConnected reports whether the client is open. It does not ping;
// use HealthCheck to reach the server.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// SetOnError registers a callback for asynchronous batch write
// failures. Without one, failed batches are dropped silently.
func (c *Client) SetOnError(callback func(err error)) {
	c.mu.Lock()
	c.onError = callback
	c.mu.Unlock()
}

// Flush pushes buffered points out now. Used before shutdown; a no-op
// once closed.
func (c *Client) Flush() {
	if c.writes == nil || !c.IsConnected() {
		return
	}
	c.writes.Flush()
}
