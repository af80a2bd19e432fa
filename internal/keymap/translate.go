package keymap

import "github.com/irlogic/irlogic-core/internal/input"

// Translate is the hot-path entry point invoked by the decode layer for
// every received IR signal.
//
// The raw triple is first echoed on source as EvIR events and synced;
// this happens unconditionally, whether or not anything matches. The
// tree is then scanned under the tree lock: every remote in insertion
// order, every keymap in insertion order. Each keymap whose stored
// triple equals the input triple emits one key press (value 1, no
// release) of its stored keycode on its remote's sink, followed by a
// sync of that sink. Multiple matches each emit independently; there is
// no short-circuit and no deduplication.
//
// An unmatched signal is the normal case, not an error: the returned
// match list is empty and no key event is emitted. An empty tree
// behaves the same way.
func (t *Tree) Translate(source input.Device, protocol, device, command int32) []Match {
	t.echoSignal(source, protocol, device, command)

	t.mu.Lock()
	defer t.mu.Unlock()

	var matches []Match
	for _, remote := range t.remotes {
		for _, k := range remote.keymaps {
			if k.protocol != protocol || k.device != device || k.command != command {
				continue
			}

			if err := remote.sink.Report(input.EvKey, uint16(k.keycode), 1); err != nil {
				t.logger.Error("reporting key press",
					"remote", remote.name,
					"keymap", k.name,
					"keycode", k.keycode,
					"error", err,
				)
				continue
			}
			if err := remote.sink.Sync(); err != nil {
				t.logger.Error("syncing sink", "remote", remote.name, "error", err)
			}

			matches = append(matches, Match{
				Remote:  remote.name,
				Keymap:  k.name,
				Keycode: k.keycode,
				KeyName: keyNameFor(k.keycode),
			})
		}
	}

	if len(matches) > 0 {
		t.logger.Debug("signal translated",
			"protocol", protocol,
			"device", device,
			"command", command,
			"matches", len(matches),
		)
	}
	return matches
}

// echoSignal reports the raw decoded triple on the receiver's own
// device. Echo failures are logged but never stop translation.
func (t *Tree) echoSignal(source input.Device, protocol, device, command int32) {
	if source == nil {
		return
	}
	if err := source.Report(input.EvIR, input.IRProtocol, protocol); err != nil {
		t.logger.Warn("echoing signal", "error", err)
		return
	}
	_ = source.Report(input.EvIR, input.IRDevice, device)
	_ = source.Report(input.EvIR, input.IRCommand, command)
	if err := source.Sync(); err != nil {
		t.logger.Warn("syncing source", "error", err)
	}
}
