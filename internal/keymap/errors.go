package keymap

import "errors"

// Domain errors for the keymap package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, keymap.ErrRemoteNotFound) {
//	    // handle not found case
//	}
var (
	// ErrInvalidArgument is returned when attribute text is not a
	// non-negative base-10 integer with at most one trailing newline.
	ErrInvalidArgument = errors.New("keymap: invalid argument")

	// ErrOutOfRange is returned when an attribute value exceeds the
	// signed 32-bit maximum.
	ErrOutOfRange = errors.New("keymap: value out of range")

	// ErrInvalidName is returned when a node name is empty, too long,
	// or contains a path separator.
	ErrInvalidName = errors.New("keymap: invalid name")

	// ErrRemoteExists is returned when creating a remote whose name is
	// already taken.
	ErrRemoteExists = errors.New("keymap: remote already exists")

	// ErrRemoteNotFound is returned when a remote name does not exist.
	ErrRemoteNotFound = errors.New("keymap: remote not found")

	// ErrKeymapExists is returned when creating a keymap whose name is
	// already taken within its remote.
	ErrKeymapExists = errors.New("keymap: keymap already exists")

	// ErrKeymapNotFound is returned when a keymap name does not exist
	// within its remote.
	ErrKeymapNotFound = errors.New("keymap: keymap not found")

	// ErrUnknownField is returned when an attribute name is not one of
	// protocol, device, command, keycode.
	ErrUnknownField = errors.New("keymap: unknown field")

	// ErrUnknownAttribute is returned when a remote attribute name is
	// not one of description, path.
	ErrUnknownAttribute = errors.New("keymap: unknown attribute")

	// ErrSinkRegistration is returned when the input backend cannot
	// register a sink during remote creation. The partially constructed
	// remote is fully released before this is returned.
	ErrSinkRegistration = errors.New("keymap: input sink registration failed")
)
