package ethernet

import (
	"encoding/binary"
	"errors"

	"github.com/nilab/netlab"
)

var errShort = errors.New("ethernet: frame shorter than header")

// NewFrame returns a Frame viewing buf. An error is returned if buf is
// shorter than the 14-byte Ethernet header.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame is a zero-copy view over an untagged Ethernet II frame: 6 bytes
// destination address, 6 bytes source address, 2 bytes EtherType, followed
// by payload. See IEEE 802.3.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice the frame views.
func (f Frame) RawData() []byte { return f.buf }

// HeaderLength returns the fixed 14-byte Ethernet header length.
func (f Frame) HeaderLength() int { return sizeHeader }

// Payload returns the frame's payload, i.e. everything after the header.
func (f Frame) Payload() []byte { return f.buf[sizeHeader:] }

// DestinationHardwareAddr returns the destination MAC address field.
func (f Frame) DestinationHardwareAddr() *[6]byte { return (*[6]byte)(f.buf[0:6]) }

// SourceHardwareAddr returns the source MAC address field.
func (f Frame) SourceHardwareAddr() *[6]byte { return (*[6]byte)(f.buf[6:12]) }

// IsBroadcast reports whether the destination address is the broadcast
// address ff:ff:ff:ff:ff:ff.
func (f Frame) IsBroadcast() bool {
	d := f.DestinationHardwareAddr()
	return *d == BroadcastAddr()
}

// EtherType returns the EtherType field.
func (f Frame) EtherType() Type {
	return Type(binary.BigEndian.Uint16(f.buf[12:14]))
}

// SetEtherType sets the EtherType field.
func (f Frame) SetEtherType(t Type) {
	binary.BigEndian.PutUint16(f.buf[12:14], uint16(t))
}

// ClearHeader zeros out the fixed header contents.
func (f Frame) ClearHeader() {
	for i := range f.buf[:sizeHeader] {
		f.buf[i] = 0
	}
}

// ValidateSize checks that the buffer is at least as long as the fixed
// header. Payload length is validated by the encapsulated protocol.
func (f Frame) ValidateSize(v *netlab.Validator) {
	if len(f.buf) < sizeHeader {
		v.AddError(errShort)
	}
}
