//go:build linux

package input

// uinput plumbing:
// - ioctl request encoding (Linux _IOC macro)
// - device setup with the full key range claimed at create time
// - input_event encoding for the 64-bit event struct layout

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// uinputPath is the character device used to create kernel input devices.
const uinputPath = "/dev/uinput"

// ioctl request encoding constants.
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocNone  = 0
	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uint32) uintptr {
	return uintptr((dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift))
}

// uinput ioctl requests ('U' ioctl namespace).
func uiSetEvBit() uintptr  { return ioc(iocWrite, 'U', 100, 4) }
func uiSetKeyBit() uintptr { return ioc(iocWrite, 'U', 101, 4) }
func uiDevCreate() uintptr { return ioc(iocNone, 'U', 1, 0) }
func uiDevDestroy() uintptr {
	return ioc(iocNone, 'U', 2, 0)
}

func uiDevSetup() uintptr {
	return ioc(iocWrite, 'U', 3, uint32(unsafe.Sizeof(uinputSetup{})))
}

func uiGetSysname(size uint32) uintptr {
	return ioc(iocRead, 'U', 44, size)
}

// uinputSetup mirrors struct uinput_setup from <linux/uinput.h>.
type uinputSetup struct {
	id           inputID
	name         [80]byte
	ffEffectsMax uint32
}

// inputID mirrors struct input_id from <linux/input.h>.
type inputID struct {
	bustype uint16
	vendor  uint16
	product uint16
	version uint16
}

// inputEventSize is the size of struct input_event with 64-bit timevals.
const inputEventSize = 24

func devIoctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// UinputBackend registers kernel input devices through /dev/uinput.
type UinputBackend struct{}

// NewUinputBackend creates the uinput-backed sink backend. It verifies
// /dev/uinput is openable so misconfiguration fails at startup rather
// than on the first remote creation.
func NewUinputBackend() (*UinputBackend, error) {
	fd, err := unix.Open(uinputPath, unix.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrRegistration, uinputPath, err)
	}
	_ = unix.Close(fd)
	return &UinputBackend{}, nil
}

// Register creates a kernel input device for a sink.
//
// uinput fixes a device's capabilities at UI_DEV_CREATE time, so the
// device is created with the entire key range enabled; the claimed mask
// the keymap tree manages lives in the wrapper and EnableKey/DisableKey
// operate on that mask only.
func (b *UinputBackend) Register(info DeviceInfo) (Device, error) {
	fd, err := unix.Open(uinputPath, unix.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrRegistration, uinputPath, err)
	}

	if err := b.setup(fd, info); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: %w", ErrRegistration, err)
	}

	sysname := readSysname(fd)

	return &uinputDevice{
		fd:      fd,
		info:    info,
		sysname: sysname,
	}, nil
}

func (b *UinputBackend) setup(fd int, info DeviceInfo) error {
	evKey := int32(EvKey)
	if err := devIoctl(fd, uiSetEvBit(), unsafe.Pointer(&evKey)); err != nil {
		return fmt.Errorf("UI_SET_EVBIT: %w", err)
	}
	for code := int32(0); code < KeyMax; code++ {
		c := code
		if err := devIoctl(fd, uiSetKeyBit(), unsafe.Pointer(&c)); err != nil {
			return fmt.Errorf("UI_SET_KEYBIT %d: %w", code, err)
		}
	}

	setup := uinputSetup{
		id: inputID{bustype: info.Bus},
	}
	copy(setup.name[:len(setup.name)-1], info.Name)
	if err := devIoctl(fd, uiDevSetup(), unsafe.Pointer(&setup)); err != nil {
		return fmt.Errorf("UI_DEV_SETUP: %w", err)
	}

	if err := devIoctl(fd, uiDevCreate(), nil); err != nil {
		return fmt.Errorf("UI_DEV_CREATE: %w", err)
	}
	return nil
}

// readSysname queries the kernel for the created device's sysfs name
// (e.g. "input17"). Best effort: an empty string degrades Path() but
// does not fail registration.
func readSysname(fd int) string {
	var buf [64]byte
	if err := devIoctl(fd, uiGetSysname(uint32(len(buf))), unsafe.Pointer(&buf[0])); err != nil {
		return ""
	}
	for i, c := range buf {
		if c == 0 {
			return string(buf[:i])
		}
	}
	return string(buf[:])
}

// uinputDevice is a kernel-backed sink.
type uinputDevice struct {
	mu      sync.Mutex
	fd      int
	info    DeviceInfo
	sysname string
	keys    keyBitmap
	pending []byte
	closed  bool
}

func (d *uinputDevice) Name() string { return d.info.Name }

// Path returns the sysfs path of the created input node.
func (d *uinputDevice) Path() string {
	if d.sysname == "" {
		return "/sys/devices/virtual/input"
	}
	return "/sys/devices/virtual/input/" + d.sysname
}

func (d *uinputDevice) EnableKey(code uint16) error {
	if code >= KeyMax {
		return ErrKeycodeRange
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	d.keys.set(code)
	return nil
}

func (d *uinputDevice) DisableKey(code uint16) error {
	if code >= KeyMax {
		return ErrKeycodeRange
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	d.keys.clear(code)
	return nil
}

func (d *uinputDevice) KeyEnabled(code uint16) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.keys.get(code)
}

// Report queues one encoded input_event. Events are written to the
// kernel in a single write on Sync so a packet is never split.
func (d *uinputDevice) Report(typ, code uint16, value int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	d.pending = appendEvent(d.pending, typ, code, value)
	return nil
}

func (d *uinputDevice) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	buf := appendEvent(d.pending, EvSyn, SynReport, 0)
	d.pending = nil
	if _, err := unix.Write(d.fd, buf); err != nil {
		return fmt.Errorf("writing input events: %w", err)
	}
	return nil
}

func (d *uinputDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	d.closed = true
	_ = devIoctl(d.fd, uiDevDestroy(), nil)
	return unix.Close(d.fd)
}

// appendEvent encodes one struct input_event (64-bit layout) into buf.
func appendEvent(buf []byte, typ, code uint16, value int32) []byte {
	now := time.Now()
	var ev [inputEventSize]byte
	binary.LittleEndian.PutUint64(ev[0:8], uint64(now.Unix()))
	binary.LittleEndian.PutUint64(ev[8:16], uint64(now.UnixMicro()%1e6))
	binary.LittleEndian.PutUint16(ev[16:18], typ)
	binary.LittleEndian.PutUint16(ev[18:20], code)
	binary.LittleEndian.PutUint32(ev[20:24], uint32(value))
	return append(buf, ev[:]...)
}
