package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/irlogic/irlogic-core/internal/infrastructure/config"
)

// Client is the daemon's single MQTT session. Receiver bridges publish
// decoded signals through it and translated key events flow back out.
//
// All methods are safe for concurrent use. Subscriptions registered
// through Subscribe survive reconnects: the client tracks them and
// replays them whenever the session comes back up.
type Client struct {
	paho pahomqtt.Client
	cfg  config.MQTTConfig

	// subs is the replay set for reconnection.
	subs  map[string]subscription
	subMu sync.RWMutex

	// mu guards connection state, callbacks and the logger.
	mu           sync.RWMutex
	connected    bool
	onConnect    func()
	onDisconnect func(err error)
	log          Logger
}

// Logger is the slice of logging.Logger the client needs for handler
// failures. Satisfied by *logging.Logger and *slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

type subscription struct {
	qos     byte
	handler MessageHandler
}

// MessageHandler receives one inbound message. The paho library invokes
// handlers on its own goroutines, so a handler must not block for long;
// a returned error is logged and the message is still acknowledged.
type MessageHandler func(topic string, payload []byte) error

// Connect dials the broker and announces the daemon online.
//
// The session carries a retained last-will on irlogic/system/status, so
// consumers can tell a crashed daemon from a gracefully stopped one:
// the broker publishes the will only when the connection dies without a
// clean disconnect.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	c := &Client{
		cfg:  cfg,
		subs: make(map[string]subscription),
	}

	opts := newClientOptions(cfg)
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) { c.connectionUp() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.connectionDown(err) })

	c.paho = pahomqtt.NewClient(opts)
	token := c.paho.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The OnConnect handler runs asynchronously; mark connected here so
	// IsConnected holds immediately after Connect returns.
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	return c, nil
}

// connectionUp runs on every (re)connect: replay subscriptions, retract
// any earlier offline status, then notify the owner.
func (c *Client) connectionUp() {
	c.mu.Lock()
	c.connected = true
	callback := c.onConnect
	c.mu.Unlock()

	c.subMu.RLock()
	for topic, sub := range c.subs {
		c.paho.Subscribe(topic, sub.qos, c.dispatch(sub.handler))
	}
	c.subMu.RUnlock()

	c.announce(statusOnline, "")

	if callback != nil {
		callback()
	}
}

func (c *Client) connectionDown(err error) {
	c.mu.Lock()
	c.connected = false
	callback := c.onDisconnect
	c.mu.Unlock()

	if callback != nil {
		callback(err)
	}
}

// announce publishes a retained status document so late subscribers see
// the daemon's current state.
func (c *Client) announce(status, reason string) {
	payload := statusJSON(c.cfg.Broker.ClientID, status, reason)
	c.paho.Publish(Topics{}.SystemStatus(), byte(c.cfg.QoS), true, payload)
}

// Close announces a graceful shutdown and disconnects. The explicit
// offline status carries reason "graceful_shutdown", distinct from the
// last-will the broker would publish on a crash. Safe on a nil client.
func (c *Client) Close() error {
	if c == nil || c.paho == nil {
		return nil
	}

	if c.IsConnected() {
		token := c.paho.Publish(Topics{}.SystemStatus(), byte(c.cfg.QoS), true,
			statusJSON(c.cfg.Broker.ClientID, statusOffline, "graceful_shutdown"))
		token.WaitTimeout(opTimeout)
	}

	c.paho.Disconnect(disconnectQuiesceMs)

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	return nil
}

// HealthCheck reports whether the session is currently up.
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports the last known session state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.paho != nil && c.paho.IsConnected()
}

// SetOnConnect registers a callback invoked on initial connect and
// every reconnect.
func (c *Client) SetOnConnect(callback func()) {
	c.mu.Lock()
	c.onConnect = callback
	c.mu.Unlock()
}

// SetOnDisconnect registers a callback invoked when the session drops.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.mu.Lock()
	c.onDisconnect = callback
	c.mu.Unlock()
}

// SetLogger wires a logger for handler panics and errors. Without one
// those failures are dropped.
func (c *Client) SetLogger(logger Logger) {
	c.mu.Lock()
	c.log = logger
	c.mu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.log
}

// dispatch adapts a MessageHandler to paho's callback shape. A panic in
// a handler is contained here so one bad signal payload cannot take
// down the session.
func (c *Client) dispatch(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if log := c.getLogger(); log != nil {
					log.Error("mqtt handler panic recovered", "topic", msg.Topic(), "panic", r)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			if log := c.getLogger(); log != nil {
				log.Warn("mqtt handler failed", "topic", msg.Topic(), "error", err)
			}
		}
	}
}
