// Package input provides virtual input device sinks for IRLogic Core.
//
// A sink is a virtual keyboard-like device that key events are reported
// on. Each remote in the keymap tree owns exactly one sink for its whole
// lifetime; the translator reports key presses on it when a decoded IR
// signal matches one of the remote's keymaps.
//
// Two backends implement the Backend interface:
//
//   - UinputBackend creates real kernel devices through /dev/uinput.
//     Events reported on them are delivered to the rest of the system
//     exactly like keystrokes from physical hardware.
//   - MemoryBackend keeps devices entirely in process and records every
//     reported event. It backs tests and dev mode.
//
// Every device tracks a claimed-key bitmap (the capability mask). The
// keymap tree claims a bit when a keycode attribute is written and
// releases it when the keymap is destroyed.
//
// # Usage
//
//	backend := input.NewMemoryBackend()
//	dev, err := backend.Register(input.DeviceInfo{
//	    Name: "livingroom",
//	    Phys: "remotes",
//	    Bus:  input.BusVirtual,
//	})
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
//	dev.EnableKey(input.KeyA)
//	dev.Report(input.EvKey, input.KeyA, 1)
//	dev.Sync()
package input
