package commands

import (
	"encoding/binary"

	"github.com/nilab/netlab/ethernet"
	"github.com/nilab/netlab/stack"
)

// sentFrame is one Ethernet frame the harness captured on its way to the
// (simulated) link.
type sentFrame struct {
	Dst       [6]byte
	EtherType ethernet.Type
	Payload   []byte // the buf passed to EthernetOut, unprepended
}

// loopbackDriver is the CLI test harness's link-driver implementation. It
// does not touch a real NIC; it records every outbound frame so a scenario
// command can inspect it, and exposes Inject so a scenario can feed a
// constructed frame back into the stack as if it had arrived from the wire.
type loopbackDriver struct {
	localMAC [6]byte
	sent     []sentFrame
	stk      *stack.Stack // set post-construction, since Stack needs the driver first
}

func newLoopbackDriver(localMAC [6]byte) *loopbackDriver {
	return &loopbackDriver{localMAC: localMAC}
}

// EthernetOut implements stack.Driver: it prepends nothing (the frame
// buffer already holds only the IP/ARP payload), simply records the send.
// A real driver would prepend a 14-byte Ethernet header and hand the frame
// to a NIC; the harness only needs the record.
func (d *loopbackDriver) EthernetOut(buf []byte, dst [6]byte, ethertype ethernet.Type) error {
	cp := append([]byte(nil), buf...)
	d.sent = append(d.sent, sentFrame{Dst: dst, EtherType: ethertype, Payload: cp})
	return nil
}

// Reset discards every recorded frame, so a scenario can inspect only the
// sends it triggered.
func (d *loopbackDriver) Reset() { d.sent = d.sent[:0] }

// Last returns the most recently sent frame. It panics if nothing has been
// sent, which is always a harness bug (a scenario asserting on an empty
// send list should check len first).
func (d *loopbackDriver) Last() sentFrame { return d.sent[len(d.sent)-1] }

// Inject feeds an Ethernet-payload buf (an ARP or IPv4 packet, no Ethernet
// header) into the stack as if it had just arrived from srcMAC, dispatching
// on ethertype the way a real frame-input pump would after stripping the
// Ethernet header.
func (d *loopbackDriver) Inject(et ethernet.Type, buf []byte, srcMAC [6]byte) {
	switch et {
	case ethernet.TypeARP:
		d.stk.ARPIn(buf, srcMAC)
	case ethernet.TypeIPv4:
		d.stk.IPIn(buf, srcMAC)
	}
}

// buildARPPacket is a small helper shared by the scenario commands: it
// constructs a raw 28-byte ARP-over-Ethernet-IPv4 packet with the given
// fields, ready to be handed to Inject.
func buildARPPacket(op uint16, senderMAC [6]byte, senderIP [4]byte, targetMAC [6]byte, targetIP [4]byte) []byte {
	buf := make([]byte, 28)
	binary.BigEndian.PutUint16(buf[0:2], 1)      // hardware type ethernet
	binary.BigEndian.PutUint16(buf[2:4], 0x0800) // protocol type IPv4
	buf[4] = 6
	buf[5] = 4
	binary.BigEndian.PutUint16(buf[6:8], op)
	copy(buf[8:14], senderMAC[:])
	copy(buf[14:18], senderIP[:])
	copy(buf[18:24], targetMAC[:])
	copy(buf[24:28], targetIP[:])
	return buf
}
