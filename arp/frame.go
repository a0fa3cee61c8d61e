package arp

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"

	"github.com/nilab/netlab"
	"github.com/nilab/netlab/ethernet"
)

// NewFrame returns a Frame viewing buf. An error is returned if buf is
// shorter than the fixed 28-byte ARP-over-Ethernet-IPv4 header.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeaderIPv4 {
		return Frame{}, errShortARP
	}
	return Frame{buf: buf[:sizeHeaderIPv4]}, nil
}

// Frame is a zero-copy view over an ARP packet resolving an IPv4 address to
// an Ethernet MAC address. See RFC 826.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice the frame views.
func (f Frame) RawData() []byte { return f.buf }

// Init writes the fixed (never-varying) header fields: hardware type
// Ethernet, protocol type IPv4, and the corresponding address lengths. This
// lets a caller build a template packet once and reuse it for every
// request/reply instead of rewriting the constant fields each time.
func (f Frame) Init() {
	binary.BigEndian.PutUint16(f.buf[0:2], HardwareTypeEthernet)
	binary.BigEndian.PutUint16(f.buf[2:4], uint16(ethernet.TypeIPv4))
	f.buf[4] = netlab.MACLen
	f.buf[5] = netlab.IPLen
}

// HardwareType returns the ARP hardware type field (1 for Ethernet).
func (f Frame) HardwareType() uint16 { return binary.BigEndian.Uint16(f.buf[0:2]) }

// ProtocolType returns the ARP protocol type field, an EtherType (0x0800
// for IPv4).
func (f Frame) ProtocolType() ethernet.Type {
	return ethernet.Type(binary.BigEndian.Uint16(f.buf[2:4]))
}

// HardwareLen returns the hardware address length field.
func (f Frame) HardwareLen() uint8 { return f.buf[4] }

// ProtocolLen returns the protocol address length field.
func (f Frame) ProtocolLen() uint8 { return f.buf[5] }

// Operation returns the ARP operation field.
func (f Frame) Operation() Operation { return Operation(binary.BigEndian.Uint16(f.buf[6:8])) }

// SetOperation sets the ARP operation field.
func (f Frame) SetOperation(op Operation) { binary.BigEndian.PutUint16(f.buf[6:8], uint16(op)) }

// SenderHardwareAddr returns the sender's MAC address field.
func (f Frame) SenderHardwareAddr() *[6]byte { return (*[6]byte)(f.buf[8:14]) }

// SenderProtoAddr returns the sender's IPv4 address field.
func (f Frame) SenderProtoAddr() *[4]byte { return (*[4]byte)(f.buf[14:18]) }

// TargetHardwareAddr returns the target's MAC address field.
func (f Frame) TargetHardwareAddr() *[6]byte { return (*[6]byte)(f.buf[18:24]) }

// TargetProtoAddr returns the target's IPv4 address field.
func (f Frame) TargetProtoAddr() *[4]byte { return (*[4]byte)(f.buf[24:28]) }

// ClearHeader zeros out the fixed (non address) header contents.
func (f Frame) ClearHeader() {
	for i := range f.buf[:sizeHeader] {
		f.buf[i] = 0
	}
}

// ValidateSize checks the frame's hardware/protocol type and length fields
// against the Ethernet+IPv4 combination this package supports.
func (f Frame) ValidateSize(v *netlab.Validator) {
	if len(f.buf) < sizeHeaderIPv4 {
		v.AddError(errShortARP)
		return
	}
	if f.HardwareType() != HardwareTypeEthernet || f.ProtocolType() != ethernet.TypeIPv4 ||
		f.HardwareLen() != netlab.MACLen || f.ProtocolLen() != netlab.IPLen {
		v.AddError(errBadARP)
	}
}

func (f Frame) String() string {
	sender, _ := netip.AddrFromSlice(f.SenderProtoAddr()[:])
	target, _ := netip.AddrFromSlice(f.TargetProtoAddr()[:])
	return fmt.Sprintf("ARP %s SENDER=(%s,%s) TARGET=(%s,%s)",
		f.Operation(),
		net.HardwareAddr(f.SenderHardwareAddr()[:]), sender,
		net.HardwareAddr(f.TargetHardwareAddr()[:]), target)
}
