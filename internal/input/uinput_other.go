//go:build !linux

package input

import "fmt"

// UinputBackend is only available on Linux.
type UinputBackend struct{}

// NewUinputBackend always fails on non-Linux platforms. Use
// MemoryBackend instead.
func NewUinputBackend() (*UinputBackend, error) {
	return nil, fmt.Errorf("%w: uinput requires linux", ErrRegistration)
}

// Register is never reachable off Linux; NewUinputBackend fails first.
func (b *UinputBackend) Register(DeviceInfo) (Device, error) {
	return nil, fmt.Errorf("%w: uinput requires linux", ErrRegistration)
}
