package keymap

import "github.com/irlogic/irlogic-core/internal/input"

// RootDescription is the read-only description attribute of the tree root.
const RootDescription = "This subsystem allows the creation of IR remote control maps.\n" +
	"Maps allow IR signals to be mapped into key strokes or mouse events.\n"

// RemoteDescription is the read-only description attribute of every remote.
const RemoteDescription = "Map for a specific remote\n" +
	"Remote signals matching this map will be translated into keyboard/mouse events\n"

// remotePhys is the physical-location label reported for every remote's sink.
const remotePhys = "remotes"

// maxNodeName bounds remote and keymap names.
const maxNodeName = 64

// Field identifies one of the four writable keymap attributes.
type Field string

// The closed set of keymap attribute fields.
const (
	FieldProtocol Field = "protocol"
	FieldDevice   Field = "device"
	FieldCommand  Field = "command"
	FieldKeycode  Field = "keycode"
)

// Fields lists all keymap attribute fields in namespace order.
var Fields = []Field{FieldProtocol, FieldDevice, FieldCommand, FieldKeycode}

// Keymap is one signal-to-keycode mapping. All fields are
// zero-initialised at creation and mutated only through the owning
// Tree, under the tree lock. A keymap holds no reference to its parent;
// the Tree resolves ownership by name on each operation.
type Keymap struct {
	name     string
	protocol int32
	device   int32
	command  int32
	keycode  int32
}

// fieldAccessor reads or writes one Keymap field. The accessor table
// replaces attribute-identity dispatch with an explicit closed mapping.
type fieldAccessor struct {
	get func(*Keymap) int32
	set func(*Keymap, int32)
}

var fieldAccessors = map[Field]fieldAccessor{
	FieldProtocol: {
		get: func(k *Keymap) int32 { return k.protocol },
		set: func(k *Keymap, v int32) { k.protocol = v },
	},
	FieldDevice: {
		get: func(k *Keymap) int32 { return k.device },
		set: func(k *Keymap, v int32) { k.device = v },
	},
	FieldCommand: {
		get: func(k *Keymap) int32 { return k.command },
		set: func(k *Keymap, v int32) { k.command = v },
	},
	FieldKeycode: {
		get: func(k *Keymap) int32 { return k.keycode },
		set: func(k *Keymap, v int32) { k.keycode = v },
	},
}

// Remote is a named group of keymaps sharing one registered input sink.
// The sink is registered when the remote is created and closed when the
// remote is destroyed; it is owned exclusively for the remote's whole
// lifetime.
type Remote struct {
	name    string
	sink    input.Device
	keymaps []*Keymap // insertion order, scanned by the translator
	index   map[string]*Keymap
}

// Match describes one key press emitted by a translation scan.
type Match struct {
	Remote  string `json:"remote"`
	Keymap  string `json:"keymap"`
	Keycode int32  `json:"keycode"`
	KeyName string `json:"key_name,omitempty"`
}

// RemoteSummary is the read model of a remote for the API.
type RemoteSummary struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Keymaps     int    `json:"keymaps"`
	ClaimedKeys int    `json:"claimed_keys"`
}

// KeymapSummary is the read model of a keymap for the API.
type KeymapSummary struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
	Device   int32  `json:"device"`
	Command  int32  `json:"command"`
	Keycode  int32  `json:"keycode"`
	KeyName  string `json:"key_name,omitempty"`
}

// Stats holds tree counters for monitoring.
type Stats struct {
	Remotes     int `json:"remotes"`
	Keymaps     int `json:"keymaps"`
	ClaimedKeys int `json:"claimed_keys"`
}

// Logger defines the logging interface used by the Tree.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
