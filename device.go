package gonet

import (
	"fmt"
	"sync"
)

// AddressFamily tags an Interface's protocol family.
type AddressFamily uint16

const (
	FamilyIPv4 AddressFamily = iota
	FamilyIPv6
)

// DeviceOps is the vtable every device driver must supply. Transmit is
// required; Open and Close are optional and detected via the Opener and
// Closer interfaces below, mirroring the "open?, close?, transmit"
// capability vtable.
type DeviceOps interface {
	// Transmit sends data of the given link-layer type toward dst. A
	// non-nil error is treated as driver failure; the device's UP bit is
	// left unchanged.
	Transmit(protocolType uint16, data []byte, dst []byte) error
}

// Opener is an optional DeviceOps capability invoked by Open.
type Opener interface {
	Open() error
}

// Closer is an optional DeviceOps capability invoked by Close.
type Closer interface {
	Close() error
}

// Interface is a logical per-address-family endpoint attached to a Device.
// At most one Interface per (device, family) pair may exist.
type Interface struct {
	Family  AddressFamily
	Address string
	device  *Device
}

// Device is traffic endpoint with an index, printable name, MTU, and
// operations vtable. Devices are never freed once registered.
type Device struct {
	Index     int
	Name      string
	MTU       int
	HeaderLen int
	AddrLen   int
	HWAddr    []byte

	ops DeviceOps

	mu     sync.Mutex
	up     bool
	ifaces []*Interface
}

// NewDevice allocates a device with the given ops and MTU. Equivalent to
// device_alloc followed by the driver populating its fields; index and name
// are assigned later by the registry's Register.
func NewDevice(ops DeviceOps, mtu int) *Device {
	if mtu <= 0 {
		mtu = DefaultMTU
	}
	return &Device{MTU: mtu, ops: ops}
}

// IsUp reports whether the device is currently UP.
func (d *Device) IsUp() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.up
}

// AddIface attaches iface to the device. Fails if an interface for the same
// family is already attached.
func (d *Device) AddIface(iface *Interface) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.ifaces {
		if existing.Family == iface.Family {
			return NewDeviceError("AddIface", d.Name, ErrCodeInvalidParameters,
				fmt.Sprintf("interface already bound for family %d", iface.Family))
		}
	}
	iface.device = d
	d.ifaces = append(d.ifaces, iface)
	return nil
}

// GetIface returns the first interface bound to family, or nil if none.
func (d *Device) GetIface(family AddressFamily) *Interface {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, iface := range d.ifaces {
		if iface.Family == family {
			return iface
		}
	}
	return nil
}

// Registry holds the ordered list of registered devices and drives their
// Open/Close lifecycle and Output.
type Registry struct {
	mu      sync.Mutex
	devices []*Device
	byName  map[string]*Device
	logger  loggerFacade
}

// loggerFacade is satisfied by internal/logging.Logger without importing
// it into the public API surface directly; Stack supplies the concrete
// implementation.
type loggerFacade interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NewRegistry creates an empty device registry.
func NewRegistry(logger loggerFacade) *Registry {
	return &Registry{byName: make(map[string]*Device), logger: logger}
}

// Register appends dev to the registry, assigning it the next monotonic
// index and the name "net" + index.
func (r *Registry) Register(dev *Device) *Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev.Index = len(r.devices)
	dev.Name = fmt.Sprintf("net%d", dev.Index)
	r.devices = append(r.devices, dev)
	r.byName[dev.Name] = dev
	if r.logger != nil {
		r.logger.Infof("device registered: name=%s mtu=%d", dev.Name, dev.MTU)
	}
	return dev
}

// Get returns the device with the given name, or nil.
func (r *Registry) Get(name string) *Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byName[name]
}

// All returns a snapshot of every registered device in registration order.
func (r *Registry) All() []*Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Device, len(r.devices))
	copy(out, r.devices)
	return out
}

// Open transitions dev DOWN to UP, invoking ops.Open if present. Fails, and
// leaves the UP bit unchanged, if dev is already UP or the hook errors.
func (r *Registry) Open(dev *Device) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.up {
		return NewDeviceError("Open", dev.Name, ErrCodeDeviceBusy, "device already up")
	}
	if opener, ok := dev.ops.(Opener); ok {
		if err := opener.Open(); err != nil {
			return WrapError("Open", ErrCodeDeviceOpenFailed, err)
		}
	}
	dev.up = true
	if r.logger != nil {
		r.logger.Infof("device up: name=%s", dev.Name)
	}
	return nil
}

// Close transitions dev UP to DOWN, invoking ops.Close if present. Fails,
// and leaves the UP bit unchanged, if dev is already DOWN or the hook
// errors.
func (r *Registry) Close(dev *Device) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if !dev.up {
		return NewDeviceError("Close", dev.Name, ErrCodeInvalidParameters, "device already down")
	}
	if closer, ok := dev.ops.(Closer); ok {
		if err := closer.Close(); err != nil {
			return WrapError("Close", ErrCodeDeviceOpenFailed, err)
		}
	}
	dev.up = false
	if r.logger != nil {
		r.logger.Infof("device down: name=%s", dev.Name)
	}
	return nil
}

// Output transmits data of protocolType toward dst through dev. Requires
// dev to be UP and len(data) <= dev.MTU; MTU adjustment is the caller's
// responsibility, not this layer's.
func (r *Registry) Output(dev *Device, protocolType uint16, data []byte, dst []byte) error {
	dev.mu.Lock()
	up := dev.up
	mtu := dev.MTU
	dev.mu.Unlock()

	if !up {
		return NewDeviceError("Output", dev.Name, ErrCodeInvalidParameters, "device is down")
	}
	if len(data) > mtu {
		return NewDeviceError("Output", dev.Name, ErrCodeInvalidParameters,
			fmt.Sprintf("payload length %d exceeds mtu %d", len(data), mtu))
	}
	if r.logger != nil {
		r.logger.Debugf("transmit: dev=%s type=0x%04x len=%d", dev.Name, protocolType, len(data))
	}
	if err := dev.ops.Transmit(protocolType, data, dst); err != nil {
		return WrapError("Output", ErrCodeDeviceOpenFailed, err)
	}
	return nil
}
