package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/irlogic/irlogic-core/internal/infrastructure/config"
)

const (
	// connectTimeout bounds the initial broker dial.
	connectTimeout = 10 * time.Second

	// opTimeout bounds publish, subscribe and unsubscribe waits.
	opTimeout = 5 * time.Second

	// disconnectQuiesceMs is how long Close waits for in-flight
	// messages, in milliseconds.
	disconnectQuiesceMs = 1000

	keepAlive = 60 * time.Second

	maxQoS = 2
)

// Status values announced on irlogic/system/status.
const (
	statusOnline  = "online"
	statusOffline = "offline"
)

// statusAnnouncement is the retained document on the system status
// topic. Receiver bridges and dashboards watch it to decide whether key
// events are flowing.
type statusAnnouncement struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// statusJSON encodes a status announcement. Reason is empty for online
// announcements.
func statusJSON(clientID, status, reason string) string {
	doc := statusAnnouncement{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	out, err := json.Marshal(doc)
	if err != nil {
		// Marshalling a flat string struct cannot fail.
		return `{"status":"` + status + `"}`
	}
	return string(out)
}

// newClientOptions maps our broker config onto paho options, including
// the last-will that flags an unclean death of the daemon.
func newClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))
	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// No persistent broker session; the replay set in Client restores
	// subscriptions after a reconnect.
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(keepAlive)

	// Published by the broker only if the connection dies without a
	// clean disconnect.
	opts.SetWill(Topics{}.SystemStatus(),
		statusJSON(cfg.Broker.ClientID, statusOffline, "unexpected_disconnect"), 1, true)

	return opts
}
