package irrecv

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/irlogic/irlogic-core/internal/history"
	"github.com/irlogic/irlogic-core/internal/infrastructure/mqtt"
	"github.com/irlogic/irlogic-core/internal/input"
	"github.com/irlogic/irlogic-core/internal/keymap"
)

// Bridge operation constants.
const (
	// decodedTopicParts is the segment count of irlogic/ir/{receiver}/decoded.
	decodedTopicParts = 4

	// historyWriteTimeout bounds each history insert so a slow disk
	// cannot stall signal processing.
	historyWriteTimeout = 2 * time.Second

	// maxReceiverName bounds the receiver segment taken from the topic.
	maxReceiverName = 64
)

// MQTTClient is the subset of the MQTT client used by the bridge.
// Declared as an interface so tests can substitute a mock.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// Unsubscribe removes a subscription.
	Unsubscribe(topic string) error
}

// Broadcaster fans events out to WebSocket subscribers.
// Satisfied by *api.Hub. Optional.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Telemetry records signal metrics. Satisfied by *influxdb.Client.
// Optional.
type Telemetry interface {
	WriteSignal(receiver string, protocol int32, matched bool)
	WriteKeyEvent(remote string, keycode int32)
	WriteReceiverHealth(receiver string, online bool)
}

// Logger is the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Deps holds the dependencies required by the bridge.
type Deps struct {
	Tree      *keymap.Tree
	MQTT      MQTTClient
	Backend   input.Backend      // registers per-receiver echo devices
	History   history.Repository // optional
	Hub       Broadcaster        // optional
	Telemetry Telemetry          // optional
	Logger    Logger
	QoS       byte
}

// Bridge consumes decoded IR signals from MQTT and drives the keymap
// tree. One virtual input device is registered per receiver the first
// time it publishes; the raw triple is echoed on that device before
// translation.
//
// Thread Safety: All methods are safe for concurrent use. MQTT handlers
// may run on multiple paho router goroutines.
type Bridge struct {
	tree      *keymap.Tree
	mqtt      MQTTClient
	backend   input.Backend
	history   history.Repository
	hub       Broadcaster
	telemetry Telemetry
	logger    Logger
	qos       byte

	receivers map[string]input.Device
	mu        sync.Mutex

	ctx       context.Context
	ctxCancel context.CancelFunc
	stopOnce  sync.Once
}

// New creates a bridge. Tree, MQTT, Backend and Logger are required.
func New(deps Deps) (*Bridge, error) {
	if deps.Tree == nil {
		return nil, fmt.Errorf("irrecv: keymap tree is required")
	}
	if deps.MQTT == nil {
		return nil, fmt.Errorf("irrecv: mqtt client is required")
	}
	if deps.Backend == nil {
		return nil, fmt.Errorf("irrecv: input backend is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("irrecv: logger is required")
	}

	return &Bridge{
		tree:      deps.Tree,
		mqtt:      deps.MQTT,
		backend:   deps.Backend,
		history:   deps.History,
		hub:       deps.Hub,
		telemetry: deps.Telemetry,
		logger:    deps.Logger,
		qos:       deps.QoS,
		receivers: make(map[string]input.Device),
	}, nil
}

// Start subscribes to receiver topics. The bridge processes messages
// until Stop is called.
func (b *Bridge) Start(ctx context.Context) error {
	b.ctx, b.ctxCancel = context.WithCancel(ctx)

	topics := mqtt.Topics{}
	if err := b.mqtt.Subscribe(topics.AllIRDecoded(), b.qos, b.handleDecoded); err != nil {
		return fmt.Errorf("subscribing to decoded signals: %w", err)
	}
	if err := b.mqtt.Subscribe(topics.AllIRHealth(), b.qos, b.handleHealth); err != nil {
		return fmt.Errorf("subscribing to receiver health: %w", err)
	}

	b.logger.Info("IR receiver bridge started",
		"decoded_topic", topics.AllIRDecoded(),
		"health_topic", topics.AllIRHealth(),
	)
	return nil
}

// Stop unsubscribes and closes all receiver echo devices. Safe to call
// more than once.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		if b.ctxCancel != nil {
			b.ctxCancel()
		}

		topics := mqtt.Topics{}
		if err := b.mqtt.Unsubscribe(topics.AllIRDecoded()); err != nil {
			b.logger.Warn("unsubscribing decoded topic", "error", err)
		}
		if err := b.mqtt.Unsubscribe(topics.AllIRHealth()); err != nil {
			b.logger.Warn("unsubscribing health topic", "error", err)
		}

		b.mu.Lock()
		devices := make([]input.Device, 0, len(b.receivers))
		for name, dev := range b.receivers {
			devices = append(devices, dev)
			delete(b.receivers, name)
		}
		b.mu.Unlock()

		for _, dev := range devices {
			if err := dev.Close(); err != nil {
				b.logger.Warn("closing receiver device", "device", dev.Name(), "error", err)
			}
		}

		b.logger.Info("IR receiver bridge stopped")
	})
}

// ReceiverCount returns the number of receivers seen so far.
func (b *Bridge) ReceiverCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.receivers)
}

// handleDecoded processes one decoded signal message.
func (b *Bridge) handleDecoded(topic string, payload []byte) error {
	receiver, err := receiverFromTopic(topic, "decoded")
	if err != nil {
		return err
	}

	var msg DecodedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("irrecv: malformed decoded payload on %s: %w", topic, err)
	}

	source, err := b.receiverDevice(receiver)
	if err != nil {
		// Translation still works without the echo device.
		b.logger.Warn("registering receiver device", "receiver", receiver, "error", err)
	}

	matches := b.tree.Translate(source, msg.Protocol, msg.Device, msg.Command)

	b.logger.Debug("signal received",
		"receiver", receiver,
		"protocol", msg.Protocol,
		"device", msg.Device,
		"command", msg.Command,
		"matches", len(matches),
	)

	b.recordSignal(receiver, msg, matches)
	b.publishMatches(receiver, matches)

	if b.telemetry != nil {
		b.telemetry.WriteSignal(receiver, msg.Protocol, len(matches) > 0)
	}
	if b.hub != nil {
		b.hub.Broadcast("ir.signal", SignalEvent{
			Receiver: receiver,
			Protocol: msg.Protocol,
			Device:   msg.Device,
			Command:  msg.Command,
			Matches:  len(matches),
		})
	}
	return nil
}

// handleHealth processes one receiver health message.
func (b *Bridge) handleHealth(topic string, payload []byte) error {
	receiver, err := receiverFromTopic(topic, "health")
	if err != nil {
		return err
	}

	var msg HealthMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("irrecv: malformed health payload on %s: %w", topic, err)
	}

	b.logger.Info("receiver health", "receiver", receiver, "online", msg.Online)

	if b.telemetry != nil {
		b.telemetry.WriteReceiverHealth(receiver, msg.Online)
	}
	if b.hub != nil {
		b.hub.Broadcast("receiver.health", ReceiverHealthEvent{
			Receiver: receiver,
			Online:   msg.Online,
			Firmware: msg.Firmware,
		})
	}
	return nil
}

// receiverDevice returns the echo device for a receiver, registering it
// on first sight.
func (b *Bridge) receiverDevice(receiver string) (input.Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if dev, ok := b.receivers[receiver]; ok {
		return dev, nil
	}

	dev, err := b.backend.Register(input.DeviceInfo{
		Name: "irlogic-receiver-" + receiver,
		Phys: "receivers/" + receiver,
		Bus:  input.BusVirtual,
	})
	if err != nil {
		return nil, err
	}

	b.receivers[receiver] = dev
	b.logger.Info("receiver registered", "receiver", receiver, "device", dev.Path())
	return dev, nil
}

// recordSignal persists the signal to history. One row per match, or a
// single unmatched row when nothing matched.
func (b *Bridge) recordSignal(receiver string, msg DecodedMessage, matches []keymap.Match) {
	if b.history == nil {
		return
	}

	parent := b.ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, historyWriteTimeout)
	defer cancel()

	if len(matches) == 0 {
		event := history.Event{
			Receiver: receiver,
			Protocol: msg.Protocol,
			Device:   msg.Device,
			Command:  msg.Command,
		}
		if err := b.history.Record(ctx, event); err != nil {
			b.logger.Warn("recording signal", "receiver", receiver, "error", err)
		}
		return
	}

	for _, m := range matches {
		event := history.Event{
			Receiver: receiver,
			Protocol: msg.Protocol,
			Device:   msg.Device,
			Command:  msg.Command,
			Remote:   m.Remote,
			Keymap:   m.Keymap,
			Keycode:  m.Keycode,
			Matched:  true,
		}
		if err := b.history.Record(ctx, event); err != nil {
			b.logger.Warn("recording match", "receiver", receiver, "remote", m.Remote, "error", err)
		}
	}
}

// publishMatches emits one key event message per match, plus a WebSocket
// broadcast on the key.event channel.
func (b *Bridge) publishMatches(receiver string, matches []keymap.Match) {
	topics := mqtt.Topics{}
	now := time.Now().UTC().Format(time.RFC3339)

	for _, m := range matches {
		event := KeyEventMessage{
			Remote:    m.Remote,
			Keymap:    m.Keymap,
			Keycode:   m.Keycode,
			KeyName:   m.KeyName,
			Receiver:  receiver,
			Timestamp: now,
		}

		raw, err := json.Marshal(event)
		if err != nil {
			b.logger.Error("marshalling key event", "remote", m.Remote, "error", err)
			continue
		}
		if err := b.mqtt.Publish(topics.KeyEvent(m.Remote), raw, b.qos, false); err != nil {
			b.logger.Warn("publishing key event", "remote", m.Remote, "error", err)
		}

		if b.telemetry != nil {
			b.telemetry.WriteKeyEvent(m.Remote, m.Keycode)
		}
		if b.hub != nil {
			b.hub.Broadcast("key.event", event)
		}
	}
}

// receiverFromTopic extracts and validates the receiver segment of
// irlogic/ir/{receiver}/{leaf}.
func receiverFromTopic(topic, leaf string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != decodedTopicParts || parts[0] != "irlogic" || parts[1] != "ir" || parts[3] != leaf {
		return "", fmt.Errorf("irrecv: unexpected topic %q", topic)
	}

	receiver := parts[2]
	if receiver == "" || receiver == "+" || len(receiver) > maxReceiverName {
		return "", fmt.Errorf("irrecv: invalid receiver in topic %q", topic)
	}
	return receiver, nil
}
