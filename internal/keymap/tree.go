package keymap

import (
	"fmt"
	"strings"
	"sync"

	"github.com/irlogic/irlogic-core/internal/input"
)

// Tree is the root of the keymap hierarchy.
//
// One Tree exists per process, constructed at startup and torn down at
// shutdown. A single mutex guards the remote collection, every remote's
// keymap collection, every keymap's fields, and every sink's claimed-key
// mask. All mutation and every translation scan run under it for their
// whole duration.
type Tree struct {
	mu      sync.Mutex
	backend input.Backend
	remotes []*Remote // insertion order, scanned by the translator
	index   map[string]*Remote
	logger  Logger
}

// NewTree creates an empty keymap tree. Sinks for new remotes are
// registered through the given backend.
func NewTree(backend input.Backend) *Tree {
	return &Tree{
		backend: backend,
		index:   make(map[string]*Remote),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the tree.
func (t *Tree) SetLogger(logger Logger) {
	t.logger = logger
}

// Description returns the read-only description attribute of the root.
func (t *Tree) Description() string {
	return RootDescription
}

// CreateRemote creates a remote and registers its input sink.
//
// The sink is registered key-capable with no keys claimed. If
// registration fails the remote is fully released before the error is
// returned; no partial state is ever visible to lookups.
func (t *Tree) CreateRemote(name string) error {
	if err := validateNodeName(name); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.index[name]; exists {
		return ErrRemoteExists
	}

	sink, err := t.backend.Register(input.DeviceInfo{
		Name: name,
		Phys: remotePhys,
		Bus:  input.BusVirtual,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSinkRegistration, err)
	}

	remote := &Remote{
		name:  name,
		sink:  sink,
		index: make(map[string]*Keymap),
	}
	t.remotes = append(t.remotes, remote)
	t.index[name] = remote

	t.logger.Info("remote created", "remote", name, "sink", sink.Path())
	return nil
}

// DeleteRemote destroys a remote, its keymaps, and its sink.
//
// Keymaps are destroyed first so each releases its claimed key bit
// while the sink is still registered; only then is the sink closed.
func (t *Tree) DeleteRemote(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	remote, ok := t.index[name]
	if !ok {
		return ErrRemoteNotFound
	}

	for _, k := range remote.keymaps {
		t.releaseKeymap(remote, k)
	}
	remote.keymaps = nil
	remote.index = make(map[string]*Keymap)

	if err := remote.sink.Close(); err != nil {
		t.logger.Warn("closing sink", "remote", name, "error", err)
	}

	delete(t.index, name)
	for i, r := range t.remotes {
		if r == remote {
			t.remotes = append(t.remotes[:i], t.remotes[i+1:]...)
			break
		}
	}

	t.logger.Info("remote deleted", "remote", name)
	return nil
}

// CreateKeymap creates a keymap with all fields zero under a remote.
func (t *Tree) CreateKeymap(remoteName, name string) error {
	if err := validateNodeName(name); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	remote, ok := t.index[remoteName]
	if !ok {
		return ErrRemoteNotFound
	}
	if _, exists := remote.index[name]; exists {
		return ErrKeymapExists
	}

	k := &Keymap{name: name}
	remote.keymaps = append(remote.keymaps, k)
	remote.index[name] = k

	t.logger.Debug("keymap created", "remote", remoteName, "keymap", name)
	return nil
}

// DeleteKeymap destroys one keymap, releasing its claimed key bit on
// the remote's sink before the keymap is removed.
func (t *Tree) DeleteKeymap(remoteName, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	remote, ok := t.index[remoteName]
	if !ok {
		return ErrRemoteNotFound
	}
	k, ok := remote.index[name]
	if !ok {
		return ErrKeymapNotFound
	}

	t.releaseKeymap(remote, k)

	delete(remote.index, name)
	for i, cur := range remote.keymaps {
		if cur == k {
			remote.keymaps = append(remote.keymaps[:i], remote.keymaps[i+1:]...)
			break
		}
	}

	t.logger.Debug("keymap deleted", "remote", remoteName, "keymap", name)
	return nil
}

// releaseKeymap applies a keymap's destroy side effect: the bit for its
// stored keycode is cleared from the owning sink's mask. The bit is
// released even if a sibling keymap stores the same keycode; only a
// fresh keycode write claims it again. Caller holds the tree lock and
// guarantees the sink is still registered.
func (t *Tree) releaseKeymap(remote *Remote, k *Keymap) {
	if k.keycode >= 0 && k.keycode < input.KeyMax {
		if err := remote.sink.DisableKey(uint16(k.keycode)); err != nil {
			t.logger.Warn("releasing key bit",
				"remote", remote.name,
				"keymap", k.name,
				"keycode", k.keycode,
				"error", err,
			)
		}
	}
}

// ListRemotes returns summaries of all remotes in insertion order.
func (t *Tree) ListRemotes() []RemoteSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]RemoteSummary, 0, len(t.remotes))
	for _, r := range t.remotes {
		out = append(out, t.summarizeRemote(r))
	}
	return out
}

// GetRemote returns the summary of one remote.
func (t *Tree) GetRemote(name string) (RemoteSummary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	remote, ok := t.index[name]
	if !ok {
		return RemoteSummary{}, ErrRemoteNotFound
	}
	return t.summarizeRemote(remote), nil
}

func (t *Tree) summarizeRemote(r *Remote) RemoteSummary {
	claimed := 0
	seen := make(map[int32]struct{}, len(r.keymaps))
	for _, k := range r.keymaps {
		if k.keycode >= 0 && k.keycode < input.KeyMax && r.sink.KeyEnabled(uint16(k.keycode)) {
			if _, dup := seen[k.keycode]; !dup {
				seen[k.keycode] = struct{}{}
				claimed++
			}
		}
	}
	return RemoteSummary{
		Name:        r.name,
		Path:        r.sink.Path(),
		Keymaps:     len(r.keymaps),
		ClaimedKeys: claimed,
	}
}

// RemoteAttr reads one of a remote's read-only attributes.
//
// "description" is static text; "path" is derived on demand from the
// sink's current device location.
func (t *Tree) RemoteAttr(name, attr string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	remote, ok := t.index[name]
	if !ok {
		return "", ErrRemoteNotFound
	}

	switch attr {
	case "description":
		return RemoteDescription, nil
	case "path":
		return remote.sink.Path(), nil
	default:
		return "", ErrUnknownAttribute
	}
}

// ListKeymaps returns summaries of a remote's keymaps in insertion order.
func (t *Tree) ListKeymaps(remoteName string) ([]KeymapSummary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	remote, ok := t.index[remoteName]
	if !ok {
		return nil, ErrRemoteNotFound
	}

	out := make([]KeymapSummary, 0, len(remote.keymaps))
	for _, k := range remote.keymaps {
		out = append(out, KeymapSummary{
			Name:     k.name,
			Protocol: k.protocol,
			Device:   k.device,
			Command:  k.command,
			Keycode:  k.keycode,
			KeyName:  keyNameFor(k.keycode),
		})
	}
	return out, nil
}

// Stats returns current tree counters.
func (t *Tree) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := Stats{Remotes: len(t.remotes)}
	for _, r := range t.remotes {
		stats.Keymaps += len(r.keymaps)
		stats.ClaimedKeys += t.summarizeRemote(r).ClaimedKeys
	}
	return stats
}

// Close tears the tree down, destroying every remote. Called once at
// process shutdown.
func (t *Tree) Close() {
	t.mu.Lock()
	names := make([]string, 0, len(t.remotes))
	for _, r := range t.remotes {
		names = append(names, r.name)
	}
	t.mu.Unlock()

	for _, name := range names {
		if err := t.DeleteRemote(name); err != nil {
			t.logger.Warn("tearing down remote", "remote", name, "error", err)
		}
	}
}

// validateNodeName checks a user-supplied remote or keymap name.
func validateNodeName(name string) error {
	if name == "" || len(name) > maxNodeName {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, "/\x00") || name == "." || name == ".." {
		return ErrInvalidName
	}
	return nil
}

func keyNameFor(code int32) string {
	if code < 0 || code >= input.KeyMax {
		return ""
	}
	return input.KeyName(uint16(code))
}
