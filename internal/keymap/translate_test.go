package keymap

import (
	"sync"
	"testing"

	"github.com/irlogic/irlogic-core/internal/input"
)

// newEchoSink registers a standalone memory device to act as the
// decode-side source that raw triples are echoed on.
func newEchoSink(t *testing.T) *input.MemoryDevice {
	t.Helper()
	dev, err := input.NewMemoryBackend().Register(input.DeviceInfo{
		Name: "ir-receiver",
		Phys: "receivers",
		Bus:  input.BusVirtual,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return dev.(*input.MemoryDevice)
}

// mapSignal creates remote/keymap and programs the full triple plus keycode.
func mapSignal(t *testing.T, tree *Tree, remote, name string, p, d, c, code int32) {
	t.Helper()
	if _, ok := tree.index[remote]; !ok {
		if err := tree.CreateRemote(remote); err != nil {
			t.Fatalf("CreateRemote(%s): %v", remote, err)
		}
	}
	if err := tree.CreateKeymap(remote, name); err != nil {
		t.Fatalf("CreateKeymap(%s): %v", name, err)
	}
	writes := []struct {
		field Field
		value int32
	}{
		{FieldProtocol, p},
		{FieldDevice, d},
		{FieldCommand, c},
		{FieldKeycode, code},
	}
	for _, w := range writes {
		if err := tree.WriteAttr(remote, name, w.field, itoa(w.value)); err != nil {
			t.Fatalf("WriteAttr(%s): %v", w.field, err)
		}
	}
}

func itoa(v int32) string {
	// Small positive values only; avoids importing strconv in half the tests.
	if v == 0 {
		return "0"
	}
	var buf [12]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

func TestTranslateEmptyTree(t *testing.T) {
	tree := NewTree(input.NewMemoryBackend())
	echo := newEchoSink(t)

	matches := tree.Translate(echo, 1, 2, 3)
	if len(matches) != 0 {
		t.Errorf("matches = %d on empty tree, want 0", len(matches))
	}
	// The raw triple is still echoed and synced.
	assertEchoed(t, echo, 1, 2, 3)
}

func TestTranslateSingleMatch(t *testing.T) {
	tree := NewTree(input.NewMemoryBackend())
	echo := newEchoSink(t)
	mapSignal(t, tree, "livingroom", "a", 1, 2, 3, int32(input.KeyA))
	sink := sinkOf(t, tree, "livingroom")

	matches := tree.Translate(echo, 1, 2, 3)

	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	if matches[0].Remote != "livingroom" || matches[0].Keycode != int32(input.KeyA) {
		t.Errorf("match = %+v, want livingroom/KEY_A", matches[0])
	}

	keys := sink.KeyEvents()
	if len(keys) != 1 {
		t.Fatalf("key events = %d, want exactly one press", len(keys))
	}
	if keys[0].Code != input.KeyA || keys[0].Value != 1 {
		t.Errorf("key event = %+v, want code %d value 1 (press, no release)", keys[0], input.KeyA)
	}
	assertEchoed(t, echo, 1, 2, 3)
}

func TestTranslateNoMatchStillEchoes(t *testing.T) {
	tree := NewTree(input.NewMemoryBackend())
	echo := newEchoSink(t)
	mapSignal(t, tree, "livingroom", "a", 1, 2, 3, int32(input.KeyA))
	sink := sinkOf(t, tree, "livingroom")

	matches := tree.Translate(echo, 9, 9, 9)
	if len(matches) != 0 {
		t.Errorf("matches = %d, want 0", len(matches))
	}
	if got := len(sink.KeyEvents()); got != 0 {
		t.Errorf("key events = %d on unmatched signal, want 0", got)
	}
	assertEchoed(t, echo, 9, 9, 9)
}

func TestTranslateMultipleMatchesAcrossRemotes(t *testing.T) {
	tree := NewTree(input.NewMemoryBackend())
	echo := newEchoSink(t)

	// Same triple in two remotes with different keycodes, plus a
	// duplicate within the first remote. All three fire, in child
	// iteration order, independently.
	mapSignal(t, tree, "livingroom", "first", 1, 2, 3, int32(input.KeyA))
	mapSignal(t, tree, "livingroom", "second", 1, 2, 3, int32(input.KeyS))
	mapSignal(t, tree, "bedroom", "only", 1, 2, 3, int32(input.KeyD))

	matches := tree.Translate(echo, 1, 2, 3)
	if len(matches) != 3 {
		t.Fatalf("matches = %d, want 3", len(matches))
	}

	want := []Match{
		{Remote: "livingroom", Keymap: "first", Keycode: int32(input.KeyA), KeyName: "KEY_A"},
		{Remote: "livingroom", Keymap: "second", Keycode: int32(input.KeyS), KeyName: "KEY_S"},
		{Remote: "bedroom", Keymap: "only", Keycode: int32(input.KeyD), KeyName: "KEY_D"},
	}
	for i, m := range matches {
		if m != want[i] {
			t.Errorf("matches[%d] = %+v, want %+v", i, m, want[i])
		}
	}

	living := sinkOf(t, tree, "livingroom")
	if got := len(living.KeyEvents()); got != 2 {
		t.Errorf("livingroom key events = %d, want 2", got)
	}
	bedroom := sinkOf(t, tree, "bedroom")
	if got := len(bedroom.KeyEvents()); got != 1 {
		t.Errorf("bedroom key events = %d, want 1", got)
	}
}

func TestTranslateNilSource(t *testing.T) {
	tree := NewTree(input.NewMemoryBackend())
	mapSignal(t, tree, "livingroom", "a", 1, 2, 3, int32(input.KeyA))

	// Translation without an echo device still scans and emits.
	matches := tree.Translate(nil, 1, 2, 3)
	if len(matches) != 1 {
		t.Errorf("matches = %d, want 1", len(matches))
	}
}

func TestTranslateConcurrentWithMutation(t *testing.T) {
	tree := NewTree(input.NewMemoryBackend())
	echo := newEchoSink(t)
	mapSignal(t, tree, "livingroom", "seed", 1, 2, 3, int32(input.KeyA))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			name := "extra-" + itoa(int32(i%8))
			_ = tree.CreateKeymap("livingroom", name)
			_ = tree.WriteAttr("livingroom", name, FieldKeycode, "31")
			_ = tree.DeleteKeymap("livingroom", name)
		}
	}()

	for i := 0; i < 200; i++ {
		tree.Translate(echo, 1, 2, 3)
	}
	close(stop)
	wg.Wait()

	// The seed mapping fired on every scan regardless of concurrent
	// sibling churn.
	sink := sinkOf(t, tree, "livingroom")
	seedPresses := 0
	for _, ev := range sink.KeyEvents() {
		if ev.Code == input.KeyA {
			seedPresses++
		}
	}
	if seedPresses != 200 {
		t.Errorf("seed presses = %d, want 200", seedPresses)
	}
}

// assertEchoed verifies the raw triple was reported as EvIR events and
// synced on the source device.
func assertEchoed(t *testing.T, echo *input.MemoryDevice, p, d, c int32) {
	t.Helper()
	events := echo.Events()
	var ir []input.Event
	for _, ev := range events {
		if ev.Type == input.EvIR {
			ir = append(ir, ev)
		}
	}
	if len(ir) < 3 {
		t.Fatalf("EvIR events = %d, want at least 3", len(ir))
	}
	last := ir[len(ir)-3:]
	want := []input.Event{
		{Type: input.EvIR, Code: input.IRProtocol, Value: p},
		{Type: input.EvIR, Code: input.IRDevice, Value: d},
		{Type: input.EvIR, Code: input.IRCommand, Value: c},
	}
	for i, ev := range last {
		if ev != want[i] {
			t.Errorf("echo[%d] = %+v, want %+v", i, ev, want[i])
		}
	}
	if echo.SyncCount() == 0 {
		t.Error("source device never synced")
	}
}
