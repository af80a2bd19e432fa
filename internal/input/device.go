package input

// Linux input event types carried by sinks.
//
// EvIR is the event type used to echo raw decoded IR triples on a
// receiver's own device before translation. It occupies the event type
// slot proposed for IR transport in the kernel input layer.
const (
	EvSyn uint16 = 0x00
	EvKey uint16 = 0x01
	EvIR  uint16 = 0x06
)

// Event codes for EvIR events.
const (
	IRProtocol uint16 = 0x00
	IRDevice   uint16 = 0x01
	IRCommand  uint16 = 0x02
)

// SynReport is the EvSyn code marking the end of an event packet.
const SynReport uint16 = 0x00

// KeyMax is the upper bound of the key-code space. A keycode is valid
// for a sink only while strictly below KeyMax.
const KeyMax = 0x2ff

// BusVirtual is the bus type reported for sinks with no physical
// transport behind them.
const BusVirtual uint16 = 0x06

// DeviceInfo describes a sink at registration time.
type DeviceInfo struct {
	// Name is the human-readable device name, shown by the kernel in
	// /proc/bus/input/devices for uinput sinks.
	Name string

	// Phys is the physical location label.
	Phys string

	// Bus is the reported bus type, normally BusVirtual.
	Bus uint16
}

// Device is a registered input sink.
//
// Implementations are safe for concurrent use. Report and Sync follow
// the kernel input model: events accumulate until a Sync flushes the
// packet to consumers.
type Device interface {
	// Name returns the name the device was registered with.
	Name() string

	// Path returns the device's location string, derived from where the
	// backend placed it (for uinput, the sysfs path of the created node).
	Path() string

	// EnableKey claims a keycode in the device's capability mask.
	EnableKey(code uint16) error

	// DisableKey releases a keycode from the capability mask.
	DisableKey(code uint16) error

	// KeyEnabled reports whether a keycode is currently claimed.
	KeyEnabled(code uint16) bool

	// Report queues a single input event.
	Report(typ, code uint16, value int32) error

	// Sync flushes queued events as one packet.
	Sync() error

	// Close unregisters the device and releases its resources.
	Close() error
}

// Backend creates sinks. The keymap tree registers one sink per remote
// through a Backend and never constructs devices directly.
type Backend interface {
	Register(info DeviceInfo) (Device, error)
}

// bitmapWords is the size of the claimed-key bitmap in 64-bit words.
const bitmapWords = (KeyMax + 63) / 64

// keyBitmap tracks claimed keycodes. Callers must hold their own lock;
// the bitmap itself is not synchronised.
type keyBitmap [bitmapWords]uint64

func (b *keyBitmap) set(code uint16)   { b[code/64] |= 1 << (code % 64) }
func (b *keyBitmap) clear(code uint16) { b[code/64] &^= 1 << (code % 64) }

func (b *keyBitmap) get(code uint16) bool {
	return b[code/64]&(1<<(code%64)) != 0
}

// count returns the number of claimed keycodes.
func (b *keyBitmap) count() int {
	n := 0
	for _, w := range b {
		for ; w != 0; w &= w - 1 {
			n++
		}
	}
	return n
}
