// Package netlab implements the shared wire-format primitives used by the
// ARP, IPv4 and UDP protocol packages: protocol numbers, frame size
// constants and the running-checksum/validation helpers every frame view
// in this module is built on top of.
package netlab

const (
	sizeHeaderIPv4  = 20
	sizeHeaderEth   = 14
	sizeHeaderUDP   = 8
	sizeHeaderARPv4 = 28

	// MACLen is the byte length of an Ethernet hardware address.
	MACLen = 6
	// IPLen is the byte length of an IPv4 address.
	IPLen = 4
	// MTU is the link MTU assumed for IPv4 fragmentation (§4.2).
	MTU = 1500
	// IPDefaultTTL is the TTL written into outbound IPv4 datagrams.
	IPDefaultTTL = 64
	// IPFlagMoreFragments is bit 13 of the packed flags+fragment-offset header word.
	IPFlagMoreFragments = 0x2000
	// IPFlagDontFragment is bit 14 of the packed flags+fragment-offset header word.
	IPFlagDontFragment = 0x4000
)

// IPProto represents the IP protocol number carried in the IPv4 header's
// Protocol field.
type IPProto uint8

// IP protocol numbers relevant to this stack. The full IANA registry is not
// reproduced; only the numbers this module's dispatch logic compares against
// are named.
const (
	IPProtoICMP IPProto = 1  // ICMP
	IPProtoIPv4 IPProto = 4  // IPv4-in-IPv4
	IPProtoTCP  IPProto = 6  // TCP
	IPProtoUDP  IPProto = 17 // UDP
)

func (p IPProto) String() string {
	switch p {
	case IPProtoICMP:
		return "ICMP"
	case IPProtoIPv4:
		return "IPv4"
	case IPProtoTCP:
		return "TCP"
	case IPProtoUDP:
		return "UDP"
	default:
		return "IPProto(unknown)"
	}
}

// ARPOp represents the type of ARP packet, either request or reply.
type ARPOp uint16

const (
	ARPRequest ARPOp = 1 // request
	ARPReply   ARPOp = 2 // reply
)

func (op ARPOp) String() string {
	switch op {
	case ARPRequest:
		return "request"
	case ARPReply:
		return "reply"
	default:
		return "ARPOp(unknown)"
	}
}
