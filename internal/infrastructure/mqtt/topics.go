package mqtt

import "fmt"

// Topic prefixes for the IRLogic MQTT bus.
//
// Receiver bridges publish under the flat scheme: irlogic/ir/{receiver}/{kind}
// Core publishes translated key events under: irlogic/key/{remote}
const (
	// TopicPrefix is the base for all IRLogic topics.
	TopicPrefix = "irlogic"

	// TopicPrefixIR is the base for receiver bridge topics.
	// Flat scheme: irlogic/ir/{receiver_id}/{kind}
	TopicPrefixIR = "irlogic/ir"

	// TopicPrefixKey is the base for translated key event topics.
	TopicPrefixKey = "irlogic/key"

	// TopicPrefixCore is the base for core event topics.
	TopicPrefixCore = "irlogic/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "irlogic/system"
)

// Topics provides builders for IRLogic MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	decoded := topics.IRDecoded("lirc-living")
//	// Returns: "irlogic/ir/lirc-living/decoded"
type Topics struct{}

// =============================================================================
// Receiver Bridge Topics
// =============================================================================

// IRDecoded returns the topic a receiver bridge publishes decoded signals to.
//
// Example: irlogic/ir/lirc-living/decoded
func (Topics) IRDecoded(receiverID string) string {
	return fmt.Sprintf("%s/%s/decoded", TopicPrefixIR, receiverID)
}

// IRRaw returns the topic a receiver bridge publishes raw pulse trains to.
//
// Example: irlogic/ir/lirc-living/raw
func (Topics) IRRaw(receiverID string) string {
	return fmt.Sprintf("%s/%s/raw", TopicPrefixIR, receiverID)
}

// IRHealth returns the topic for receiver bridge health status.
//
// Example: irlogic/ir/lirc-living/health
func (Topics) IRHealth(receiverID string) string {
	return fmt.Sprintf("%s/%s/health", TopicPrefixIR, receiverID)
}

// =============================================================================
// Key Event Topics
// =============================================================================

// KeyEvent returns the topic Core publishes translated key presses to.
//
// Example: irlogic/key/living-room-tv
func (Topics) KeyEvent(remote string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixKey, remote)
}

// =============================================================================
// Core Topics
// =============================================================================

// CoreEvent returns the topic for core lifecycle events.
//
// Example: irlogic/core/event/remote_created
func (Topics) CoreEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixCore, eventType)
}

// CoreRemoteState returns the topic for remote configuration snapshots.
//
// Example: irlogic/core/remote/living-room-tv/state
func (Topics) CoreRemoteState(remote string) string {
	return fmt.Sprintf("%s/remote/%s/state", TopicPrefixCore, remote)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic.
// Also used as the LWT topic for offline detection.
//
// Example: irlogic/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemShutdown returns the shutdown signal topic.
//
// Example: irlogic/system/shutdown
func (Topics) SystemShutdown() string {
	return fmt.Sprintf("%s/shutdown", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllIRDecoded returns a pattern matching decoded signals from every receiver.
//
// Pattern: irlogic/ir/+/decoded
func (Topics) AllIRDecoded() string {
	return fmt.Sprintf("%s/+/decoded", TopicPrefixIR)
}

// AllIRRaw returns a pattern matching raw pulse trains from every receiver.
//
// Pattern: irlogic/ir/+/raw
func (Topics) AllIRRaw() string {
	return fmt.Sprintf("%s/+/raw", TopicPrefixIR)
}

// AllIRHealth returns a pattern matching health updates from every receiver.
//
// Pattern: irlogic/ir/+/health
func (Topics) AllIRHealth() string {
	return fmt.Sprintf("%s/+/health", TopicPrefixIR)
}

// AllKeyEvents returns a pattern matching key events for every remote.
//
// Pattern: irlogic/key/+
func (Topics) AllKeyEvents() string {
	return fmt.Sprintf("%s/+", TopicPrefixKey)
}

// AllCoreEvents returns a pattern matching all core events.
//
// Pattern: irlogic/core/event/+
func (Topics) AllCoreEvents() string {
	return fmt.Sprintf("%s/event/+", TopicPrefixCore)
}

// AllTopics returns a pattern matching all IRLogic topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: irlogic/#
func (Topics) AllTopics() string {
	return "irlogic/#"
}
