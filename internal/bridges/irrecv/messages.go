package irrecv

// DecodedMessage is the payload published by a receiver on
// irlogic/ir/{receiver}/decoded for every successfully decoded signal.
//
// Example:
//
//	{"protocol": 1, "device": 5, "command": 21, "timestamp": "2026-08-30T10:15:00Z"}
type DecodedMessage struct {
	Protocol  int32  `json:"protocol"`
	Device    int32  `json:"device"`
	Command   int32  `json:"command"`
	Timestamp string `json:"timestamp,omitempty"`
}

// HealthMessage is the payload published by a receiver on
// irlogic/ir/{receiver}/health, typically retained.
type HealthMessage struct {
	Online    bool   `json:"online"`
	Firmware  string `json:"firmware,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// KeyEventMessage is published on irlogic/key/{remote} for every keymap
// match. Consumers (automation rules, media daemons) act on the keycode
// without needing input device access.
type KeyEventMessage struct {
	Remote    string `json:"remote"`
	Keymap    string `json:"keymap"`
	Keycode   int32  `json:"keycode"`
	KeyName   string `json:"key_name,omitempty"`
	Receiver  string `json:"receiver"`
	Timestamp string `json:"timestamp"`
}

// SignalEvent is broadcast to WebSocket subscribers of the ir.signal
// channel for every decoded signal, matched or not.
type SignalEvent struct {
	Receiver string `json:"receiver"`
	Protocol int32  `json:"protocol"`
	Device   int32  `json:"device"`
	Command  int32  `json:"command"`
	Matches  int    `json:"matches"`
}

// ReceiverHealthEvent is broadcast to WebSocket subscribers of the
// receiver.health channel.
type ReceiverHealthEvent struct {
	Receiver string `json:"receiver"`
	Online   bool   `json:"online"`
	Firmware string `json:"firmware,omitempty"`
}
