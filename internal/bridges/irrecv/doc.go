// Package irrecv bridges IR receiver hardware to the keymap tree over MQTT.
//
// Receiver firmware (or a host-side decoder daemon) publishes decoded
// signals to irlogic/ir/{receiver}/decoded. The bridge subscribes to all
// receivers, registers a virtual input device per receiver for raw signal
// echo, and feeds each decoded triple through the keymap tree. Matches
// become key presses on the owning remote's sink, key event publications
// on irlogic/key/{remote}, WebSocket broadcasts, and history records.
//
// The bridge is passive with respect to receiver lifecycle: a receiver
// exists from the moment its first message arrives. Health messages on
// irlogic/ir/{receiver}/health are forwarded to telemetry and WebSocket
// subscribers but do not gate signal processing.
package irrecv
