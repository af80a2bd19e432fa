// Package keymap provides the IR remote keymap tree for IRLogic Core.
//
// The tree is the runtime configuration of the whole system: a
// hierarchy of remotes, each owning keymaps that map one decoded IR
// signal (protocol/device/command triple) to an output keycode, and
// each owning one registered virtual input sink that matching key
// presses are emitted on.
//
// # Architecture
//
//	tree root                        (description)
//	├── livingroom                   remote: one input sink
//	│   ├── volume-up                keymap: protocol/device/command/keycode
//	│   ├── volume-down
//	│   └── power
//	└── bedroom
//	    └── power
//
// Remotes and keymaps are created and destroyed at runtime through the
// HTTP namespace; the translator walks the same tree for every decoded
// signal. One tree-wide mutex serialises all of it: node creation, node
// destruction, attribute writes, and full-tree translation scans. No
// lookup can observe a remote or keymap mid-construction.
//
// # Key Types
//
//   - Tree: the root. All operations go through it; child nodes carry
//     no back references and are resolved by name on each use.
//   - Remote: a named group of keymaps sharing one input sink.
//   - Keymap: one signal-to-keycode mapping with four integer
//     attributes addressed by Field.
//
// # Usage
//
//	tree := keymap.NewTree(backend)
//	tree.SetLogger(log)
//
//	if err := tree.CreateRemote("livingroom"); err != nil {
//	    return err
//	}
//	if err := tree.CreateKeymap("livingroom", "volume-up"); err != nil {
//	    return err
//	}
//	tree.WriteAttr("livingroom", "volume-up", keymap.FieldProtocol, "1")
//	tree.WriteAttr("livingroom", "volume-up", keymap.FieldDevice, "2")
//	tree.WriteAttr("livingroom", "volume-up", keymap.FieldCommand, "3")
//	tree.WriteAttr("livingroom", "volume-up", keymap.FieldKeycode, "115")
//
//	// Decode path: echoes the triple on source, emits KEY presses on
//	// every matching remote's sink.
//	matches := tree.Translate(source, 1, 2, 3)
//
// # Attribute semantics
//
// Attribute text is a base-10 non-negative integer with at most one
// trailing newline. Values above the signed 32-bit maximum are rejected
// with ErrOutOfRange. The keycode field carries two deliberate quirks
// inherited from the original subsystem, preserved because downstream
// behaviour depends on them:
//
//   - An out-of-range keycode (>= input.KeyMax) is accepted silently
//     and changes nothing.
//   - Overwriting an in-range keycode claims the new key bit on the
//     remote's sink without releasing the old one. Bits are only
//     released when the keymap is destroyed.
//
// # Thread Safety
//
// All Tree methods are safe for concurrent use. Nothing blocks while
// the tree mutex is held; all work under it is bounded by tree size.
package keymap
