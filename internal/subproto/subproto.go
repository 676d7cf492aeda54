// Package subproto provides the minimal self-registering stand-ins for the
// stack's upper-layer protocols (ARP, IP, ICMP, UDP). Their state machines
// are out of scope for this module; only the registration boundary
// net_init() depends on is exercised: each Init function registers its
// protocol type with the stack's protocol registry and returns.
package subproto

import (
	"github.com/netstackgo/gonet/internal/interfaces"
	"github.com/netstackgo/gonet/internal/queue"
)

// Protocol type tags. ARP and IPv4 are real EtherTypes; ICMP and UDP use
// their IP protocol numbers (1 and 17) even though in a full stack they
// would demultiplex beneath IP rather than sit in the same flat registry;
// that nesting is exactly the internal logic this module leaves out of
// scope, while still giving each protocol a distinct, realistic tag.
const (
	TypeARP  uint16 = 0x0806
	TypeIPv4 uint16 = 0x0800
	TypeICMP uint16 = 0x0001
	TypeUDP  uint16 = 0x0011
)

// counter is shared handler state for a stub protocol: it just counts
// hits, standing in for the real protocol logic (ARP cache lookup, IP
// reassembly, ICMP/UDP socket delivery) that lives outside this module's
// scope. Registry.Enqueue already reports ObserveFrameIn at the point a
// frame matches this protocol, so handle does not observe again.
type counter struct {
	received int
	logger   interfaces.Logger
	name     string
	ptype    uint16
}

func (c *counter) handle(data []byte, dev any) {
	c.received++
	if c.logger != nil {
		c.logger.Debugf("%s: received frame, len=%d", c.name, len(data))
	}
}

// InitARP registers the ARP protocol type. observer is accepted for
// signature symmetry with the other Init functions and stack.go's call
// site; this stub has nothing to observe beyond what Enqueue already
// reports.
func InitARP(reg *queue.Registry, logger interfaces.Logger, observer interfaces.Observer) error {
	c := &counter{name: "arp", ptype: TypeARP, logger: logger}
	return reg.RegisterProtocol(TypeARP, c.handle)
}

// InitIP registers the IPv4 protocol type.
func InitIP(reg *queue.Registry, logger interfaces.Logger, observer interfaces.Observer) error {
	c := &counter{name: "ip", ptype: TypeIPv4, logger: logger}
	return reg.RegisterProtocol(TypeIPv4, c.handle)
}

// InitICMP registers the ICMP protocol type.
func InitICMP(reg *queue.Registry, logger interfaces.Logger, observer interfaces.Observer) error {
	c := &counter{name: "icmp", ptype: TypeICMP, logger: logger}
	return reg.RegisterProtocol(TypeICMP, c.handle)
}

// InitUDP registers the UDP protocol type.
func InitUDP(reg *queue.Registry, logger interfaces.Logger, observer interfaces.Observer) error {
	c := &counter{name: "udp", ptype: TypeUDP, logger: logger}
	return reg.RegisterProtocol(TypeUDP, c.handle)
}
