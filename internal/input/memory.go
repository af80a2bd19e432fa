package input

import (
	"fmt"
	"sync"
)

// MemoryBackend registers in-process sinks that record every reported
// event. It is the backend for tests and for running the daemon on
// machines without /dev/uinput (dev mode).
type MemoryBackend struct {
	mu      sync.Mutex
	nextNum int
}

// NewMemoryBackend creates an in-process sink backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Register creates a new memory device. Registration never fails; error
// injection for tests is available via FailingBackend.
func (b *MemoryBackend) Register(info DeviceInfo) (Device, error) {
	b.mu.Lock()
	num := b.nextNum
	b.nextNum++
	b.mu.Unlock()

	return &MemoryDevice{
		info: info,
		path: fmt.Sprintf("/devices/virtual/input/input%d", num),
	}, nil
}

// Event is one recorded input event on a MemoryDevice.
type Event struct {
	Type  uint16
	Code  uint16
	Value int32
}

// MemoryDevice is an in-process sink. It records reported events and
// the number of Sync calls so tests can assert on exact emission order.
type MemoryDevice struct {
	mu      sync.Mutex
	info    DeviceInfo
	path    string
	keys    keyBitmap
	pending []Event
	events  []Event
	syncs   int
	closed  bool
}

// Name returns the registered device name.
func (d *MemoryDevice) Name() string { return d.info.Name }

// Path returns the synthetic device path.
func (d *MemoryDevice) Path() string { return d.path }

// EnableKey claims a keycode in the capability mask.
func (d *MemoryDevice) EnableKey(code uint16) error {
	if code >= KeyMax {
		return ErrKeycodeRange
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	d.keys.set(code)
	return nil
}

// DisableKey releases a keycode from the capability mask.
func (d *MemoryDevice) DisableKey(code uint16) error {
	if code >= KeyMax {
		return ErrKeycodeRange
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	d.keys.clear(code)
	return nil
}

// KeyEnabled reports whether a keycode is claimed.
func (d *MemoryDevice) KeyEnabled(code uint16) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.keys.get(code)
}

// Report queues a single event until the next Sync.
func (d *MemoryDevice) Report(typ, code uint16, value int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	d.pending = append(d.pending, Event{Type: typ, Code: code, Value: value})
	return nil
}

// Sync flushes queued events into the recorded stream, terminated with
// an EvSyn marker like the kernel delivers to readers.
func (d *MemoryDevice) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	d.events = append(d.events, d.pending...)
	d.events = append(d.events, Event{Type: EvSyn, Code: SynReport})
	d.pending = nil
	d.syncs++
	return nil
}

// Close marks the device freed. Further operations fail with
// ErrDeviceClosed.
func (d *MemoryDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	d.closed = true
	return nil
}

// Events returns a copy of all synced events in emission order.
func (d *MemoryDevice) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Event, len(d.events))
	copy(out, d.events)
	return out
}

// KeyEvents returns only the EvKey events from the synced stream.
func (d *MemoryDevice) KeyEvents() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Event
	for _, ev := range d.events {
		if ev.Type == EvKey {
			out = append(out, ev)
		}
	}
	return out
}

// SyncCount returns the number of completed Sync calls.
func (d *MemoryDevice) SyncCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.syncs
}

// EnabledKeyCount returns the number of claimed keycodes.
func (d *MemoryDevice) EnabledKeyCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.keys.count()
}

// Closed reports whether Close has been called.
func (d *MemoryDevice) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// FailingBackend is a Backend whose registrations always fail. Tests use
// it to exercise the partial-construction cleanup path of remote
// creation.
type FailingBackend struct{}

// Register always returns ErrRegistration.
func (FailingBackend) Register(DeviceInfo) (Device, error) {
	return nil, ErrRegistration
}
