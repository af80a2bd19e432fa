package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSignal records a decoded IR signal observation.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - receiver: Identifier of the bridge that decoded the signal
//   - protocol: Decoded IR protocol identifier
//   - matched: Whether the signal resolved against a keymap
//
// Example:
//
//	client.WriteSignal("lirc-living", 5, true)
func (c *Client) WriteSignal(receiver string, protocol int32, matched bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"ir_signals",
		map[string]string{
			"receiver": receiver,
			"protocol": strconv.FormatInt(int64(protocol), 10),
			"matched":  strconv.FormatBool(matched),
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writes.WritePoint(point)
}

// WriteKeyEvent records a translated key press for a remote.
//
// Parameters:
//   - remote: Remote group name
//   - keycode: Linux input key code emitted
func (c *Client) WriteKeyEvent(remote string, keycode int32) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"key_events",
		map[string]string{
			"remote": remote,
		},
		map[string]interface{}{
			"keycode": int64(keycode),
			"count":   1,
		},
		time.Now(),
	)

	c.writes.WritePoint(point)
}

// WriteReceiverHealth records a receiver bridge health observation.
//
// Parameters:
//   - receiver: Receiver bridge identifier
//   - online: Whether the bridge reports healthy
func (c *Client) WriteReceiverHealth(receiver string, online bool) {
	if !c.IsConnected() {
		return
	}

	value := 0
	if online {
		value = 1
	}

	point := write.NewPoint(
		"receiver_health",
		map[string]string{
			"receiver": receiver,
		},
		map[string]interface{}{
			"online": value,
		},
		time.Now(),
	)

	c.writes.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "core-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writes.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writes.WritePoint(point)
}
