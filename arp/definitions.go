// Package arp provides a zero-copy view over the 28-byte ARP-over-Ethernet
// wire format used to resolve IPv4 addresses to MAC addresses (RFC 826).
// Only the Ethernet hardware type and IPv4 protocol type are supported, the
// only combination this stack needs.
package arp

import "errors"

const (
	sizeHeader = 8
	// sizeHeaderIPv4 is the full size of an ARP packet resolving IPv4
	// addresses over Ethernet: the 8-byte fixed header plus two hardware
	// addresses (6 bytes) and two protocol addresses (4 bytes).
	sizeHeaderIPv4 = sizeHeader + 2*6 + 2*4

	// HardwareTypeEthernet is the ARP hardware type for Ethernet.
	HardwareTypeEthernet uint16 = 1
)

var (
	errShortARP = errors.New("arp: packet too short")
	errBadARP   = errors.New("arp: unexpected hardware/protocol type or length")
)

// Operation identifies whether an ARP packet is a request or a reply.
type Operation uint16

const (
	OpRequest Operation = 1 // request
	OpReply   Operation = 2 // reply
)

func (op Operation) String() string {
	switch op {
	case OpRequest:
		return "request"
	case OpReply:
		return "reply"
	default:
		return "Operation(unknown)"
	}
}
