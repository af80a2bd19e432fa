package keymap

import (
	"math"
	"strconv"
	"strings"

	"github.com/irlogic/irlogic-core/internal/input"
)

// ReadAttr returns the current value of one keymap field.
func (t *Tree) ReadAttr(remoteName, keymapName string, field Field) (int32, error) {
	accessor, ok := fieldAccessors[field]
	if !ok {
		return 0, ErrUnknownField
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	remote, ok := t.index[remoteName]
	if !ok {
		return 0, ErrRemoteNotFound
	}
	k, ok := remote.index[keymapName]
	if !ok {
		return 0, ErrKeymapNotFound
	}

	return accessor.get(k), nil
}

// WriteAttr parses attribute text and stores it into one keymap field.
//
// Text must be a base-10 non-negative integer followed by at most one
// trailing newline; anything else fails with ErrInvalidArgument and
// leaves the field unchanged. Parsed values above the signed 32-bit
// maximum fail with ErrOutOfRange.
//
// protocol, device and command store the parsed value verbatim. keycode
// has its own policy: a value below input.KeyMax claims that key bit on
// the remote's sink and is stored, without releasing the bit of the
// value it replaces; a value at or above input.KeyMax is accepted
// silently with no effect at all.
func (t *Tree) WriteAttr(remoteName, keymapName string, field Field, text string) error {
	accessor, ok := fieldAccessors[field]
	if !ok {
		return ErrUnknownField
	}

	value, err := parseAttrValue(text)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	remote, ok := t.index[remoteName]
	if !ok {
		return ErrRemoteNotFound
	}
	k, ok := remote.index[keymapName]
	if !ok {
		return ErrKeymapNotFound
	}

	if field != FieldKeycode {
		accessor.set(k, value)
		return nil
	}

	// Out-of-range keycodes are swallowed, not rejected. Downstream
	// consumers depend on the write reporting success either way.
	if value >= input.KeyMax {
		t.logger.Debug("keycode above range ignored",
			"remote", remoteName,
			"keymap", keymapName,
			"keycode", value,
		)
		return nil
	}

	if err := remote.sink.EnableKey(uint16(value)); err != nil {
		return err
	}
	accessor.set(k, value)

	t.logger.Debug("keycode set",
		"remote", remoteName,
		"keymap", keymapName,
		"keycode", value,
	)
	return nil
}

// parseAttrValue parses attribute text into an int32.
//
// Accepted form: one or more ASCII digits, optionally followed by a
// single '\n'. No sign, no whitespace, no other trailing content.
func parseAttrValue(text string) (int32, error) {
	s, _ := strings.CutSuffix(text, "\n")
	if s == "" {
		return 0, ErrInvalidArgument
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, ErrInvalidArgument
		}
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		// Digits-only input can only fail ParseUint by exceeding uint64.
		return 0, ErrOutOfRange
	}
	if v > math.MaxInt32 {
		return 0, ErrOutOfRange
	}
	return int32(v), nil
}
