package keymap

import (
	"errors"
	"testing"

	"github.com/irlogic/irlogic-core/internal/input"
)

// newTestTree returns a tree backed by in-memory sinks with one remote
// and one keymap already created.
func newTestTree(t *testing.T) *Tree {
	t.Helper()
	tree := NewTree(input.NewMemoryBackend())
	if err := tree.CreateRemote("livingroom"); err != nil {
		t.Fatalf("CreateRemote: %v", err)
	}
	if err := tree.CreateKeymap("livingroom", "power"); err != nil {
		t.Fatalf("CreateKeymap: %v", err)
	}
	return tree
}

// sinkOf returns the memory device backing a remote's sink.
func sinkOf(t *testing.T, tree *Tree, remote string) *input.MemoryDevice {
	t.Helper()
	r, ok := tree.index[remote]
	if !ok {
		t.Fatalf("remote %q not found", remote)
	}
	dev, ok := r.sink.(*input.MemoryDevice)
	if !ok {
		t.Fatalf("sink is %T, want *input.MemoryDevice", r.sink)
	}
	return dev
}

func TestParseAttrValue(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    int32
		wantErr error
	}{
		{name: "plain integer", text: "123", want: 123},
		{name: "zero", text: "0", want: 0},
		{name: "trailing newline", text: "42\n", want: 42},
		{name: "max int32", text: "2147483647", want: 2147483647},
		{name: "max int32 newline", text: "2147483647\n", want: 2147483647},
		{name: "above int32", text: "2147483648", wantErr: ErrOutOfRange},
		{name: "uint32 max", text: "4294967295\n", wantErr: ErrOutOfRange},
		{name: "above uint64", text: "99999999999999999999", wantErr: ErrOutOfRange},
		{name: "empty", text: "", wantErr: ErrInvalidArgument},
		{name: "newline only", text: "\n", wantErr: ErrInvalidArgument},
		{name: "letters", text: "abc", wantErr: ErrInvalidArgument},
		{name: "trailing garbage", text: "12x", wantErr: ErrInvalidArgument},
		{name: "double newline", text: "12\n\n", wantErr: ErrInvalidArgument},
		{name: "content after newline", text: "12\nx", wantErr: ErrInvalidArgument},
		{name: "negative", text: "-1", wantErr: ErrInvalidArgument},
		{name: "leading space", text: " 12", wantErr: ErrInvalidArgument},
		{name: "leading plus", text: "+12", wantErr: ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAttrValue(tt.text)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("parseAttrValue(%q) error = %v, want %v", tt.text, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseAttrValue(%q) unexpected error: %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("parseAttrValue(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestWriteAttrRoundTrip(t *testing.T) {
	tree := newTestTree(t)

	for _, field := range []Field{FieldProtocol, FieldDevice, FieldCommand} {
		if err := tree.WriteAttr("livingroom", "power", field, "123\n"); err != nil {
			t.Fatalf("WriteAttr(%s): %v", field, err)
		}
		got, err := tree.ReadAttr("livingroom", "power", field)
		if err != nil {
			t.Fatalf("ReadAttr(%s): %v", field, err)
		}
		if got != 123 {
			t.Errorf("ReadAttr(%s) = %d, want 123", field, got)
		}
	}
}

func TestWriteAttrMalformedLeavesFieldUnchanged(t *testing.T) {
	tree := newTestTree(t)

	if err := tree.WriteAttr("livingroom", "power", FieldProtocol, "7"); err != nil {
		t.Fatalf("WriteAttr: %v", err)
	}

	for _, text := range []string{"abc", "12x", "", "4294967295"} {
		err := tree.WriteAttr("livingroom", "power", FieldProtocol, text)
		if err == nil {
			t.Fatalf("WriteAttr(%q) succeeded, want error", text)
		}
		got, readErr := tree.ReadAttr("livingroom", "power", FieldProtocol)
		if readErr != nil {
			t.Fatalf("ReadAttr: %v", readErr)
		}
		if got != 7 {
			t.Errorf("after WriteAttr(%q): protocol = %d, want 7 (unchanged)", text, got)
		}
	}
}

func TestWriteKeycodeClaimsKeyBit(t *testing.T) {
	tree := newTestTree(t)
	sink := sinkOf(t, tree, "livingroom")

	if err := tree.WriteAttr("livingroom", "power", FieldKeycode, "116\n"); err != nil {
		t.Fatalf("WriteAttr(keycode): %v", err)
	}

	if got, _ := tree.ReadAttr("livingroom", "power", FieldKeycode); got != 116 {
		t.Errorf("keycode = %d, want 116", got)
	}
	if !sink.KeyEnabled(116) {
		t.Error("key bit 116 not claimed on sink")
	}
}

func TestWriteKeycodeAboveRangeIsSilentNoOp(t *testing.T) {
	tree := newTestTree(t)
	sink := sinkOf(t, tree, "livingroom")

	if err := tree.WriteAttr("livingroom", "power", FieldKeycode, "30"); err != nil {
		t.Fatalf("WriteAttr(keycode): %v", err)
	}

	// Well above KeyMax but below MaxInt32: accepted, nothing changes.
	if err := tree.WriteAttr("livingroom", "power", FieldKeycode, "9999999"); err != nil {
		t.Fatalf("WriteAttr(out-of-range keycode) = %v, want nil", err)
	}

	if got, _ := tree.ReadAttr("livingroom", "power", FieldKeycode); got != 30 {
		t.Errorf("keycode = %d, want 30 (unchanged)", got)
	}
	if !sink.KeyEnabled(30) {
		t.Error("key bit 30 lost after out-of-range write")
	}
	if sink.EnabledKeyCount() != 1 {
		t.Errorf("claimed keys = %d, want 1", sink.EnabledKeyCount())
	}
}

func TestKeycodeOverwriteKeepsOldBit(t *testing.T) {
	tree := newTestTree(t)
	sink := sinkOf(t, tree, "livingroom")

	if err := tree.WriteAttr("livingroom", "power", FieldKeycode, "30"); err != nil {
		t.Fatalf("WriteAttr: %v", err)
	}
	if err := tree.WriteAttr("livingroom", "power", FieldKeycode, "31"); err != nil {
		t.Fatalf("WriteAttr: %v", err)
	}

	// The old bit stays claimed until the keymap is destroyed.
	if !sink.KeyEnabled(30) {
		t.Error("bit 30 released on overwrite; it is only released on destroy")
	}
	if !sink.KeyEnabled(31) {
		t.Error("bit 31 not claimed")
	}
	if got, _ := tree.ReadAttr("livingroom", "power", FieldKeycode); got != 31 {
		t.Errorf("keycode = %d, want 31", got)
	}
}

func TestDeleteKeymapReleasesKeyBit(t *testing.T) {
	tree := newTestTree(t)
	sink := sinkOf(t, tree, "livingroom")

	if err := tree.WriteAttr("livingroom", "power", FieldKeycode, "116"); err != nil {
		t.Fatalf("WriteAttr: %v", err)
	}
	if !sink.KeyEnabled(116) {
		t.Fatal("key bit 116 not claimed")
	}

	if err := tree.DeleteKeymap("livingroom", "power"); err != nil {
		t.Fatalf("DeleteKeymap: %v", err)
	}
	if sink.KeyEnabled(116) {
		t.Error("key bit 116 still claimed after keymap destroy")
	}
}

func TestReadAttrUnknownField(t *testing.T) {
	tree := newTestTree(t)

	if _, err := tree.ReadAttr("livingroom", "power", Field("bogus")); !errors.Is(err, ErrUnknownField) {
		t.Errorf("ReadAttr(bogus) error = %v, want ErrUnknownField", err)
	}
	if err := tree.WriteAttr("livingroom", "power", Field("bogus"), "1"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("WriteAttr(bogus) error = %v, want ErrUnknownField", err)
	}
}

func TestAttrOpsOnMissingNodes(t *testing.T) {
	tree := newTestTree(t)

	if _, err := tree.ReadAttr("attic", "power", FieldProtocol); !errors.Is(err, ErrRemoteNotFound) {
		t.Errorf("ReadAttr(missing remote) error = %v, want ErrRemoteNotFound", err)
	}
	if err := tree.WriteAttr("livingroom", "mute", FieldProtocol, "1"); !errors.Is(err, ErrKeymapNotFound) {
		t.Errorf("WriteAttr(missing keymap) error = %v, want ErrKeymapNotFound", err)
	}
}
