package udp

import (
	"encoding/binary"
	"errors"

	"github.com/nilab/netlab"
)

var (
	errShort  = errors.New("udp: buffer shorter than 8-byte header")
	errBadLen = errors.New("udp: length field smaller than 8")
	errTrunc  = errors.New("udp: length field exceeds buffer")
)

// NewFrame returns a Frame viewing buf. An error is returned if buf is
// shorter than the fixed 8-byte UDP header.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame is a zero-copy view over a UDP datagram. See RFC 768.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice the frame views.
func (f Frame) RawData() []byte { return f.buf }

// SourcePort returns the sending port.
func (f Frame) SourcePort() uint16 { return binary.BigEndian.Uint16(f.buf[0:2]) }

// SetSourcePort sets the sending port.
func (f Frame) SetSourcePort(p uint16) { binary.BigEndian.PutUint16(f.buf[0:2], p) }

// DestinationPort returns the receiving port.
func (f Frame) DestinationPort() uint16 { return binary.BigEndian.Uint16(f.buf[2:4]) }

// SetDestinationPort sets the receiving port.
func (f Frame) SetDestinationPort(p uint16) { binary.BigEndian.PutUint16(f.buf[2:4], p) }

// Length returns the UDP length field: header plus payload, in bytes.
func (f Frame) Length() uint16 { return binary.BigEndian.Uint16(f.buf[4:6]) }

// SetLength sets the UDP length field.
func (f Frame) SetLength(length uint16) { binary.BigEndian.PutUint16(f.buf[4:6], length) }

// CRC returns the checksum field.
func (f Frame) CRC() uint16 { return binary.BigEndian.Uint16(f.buf[6:8]) }

// SetCRC sets the checksum field.
func (f Frame) SetCRC(checksum uint16) { binary.BigEndian.PutUint16(f.buf[6:8], checksum) }

// Payload returns the datagram payload, bounded by the Length field. Call
// ValidateSize first to avoid a panic on a corrupt length field.
func (f Frame) Payload() []byte { return f.buf[sizeHeader:f.Length()] }

// ClearHeader zeros out the fixed 8-byte header.
func (f Frame) ClearHeader() {
	for i := range f.buf[:sizeHeader] {
		f.buf[i] = 0
	}
}

// ValidateSize checks the Length field against the fixed header size and
// the actual buffer length.
func (f Frame) ValidateSize(v *netlab.Validator) {
	ul := f.Length()
	if ul < sizeHeader {
		v.AddError(errBadLen)
	}
	if int(ul) > len(f.buf) {
		v.AddError(errTrunc)
	}
}

// CRCWriteIPv4Pseudo computes the UDP checksum over the IPv4 pseudo-header
// (already folded into crc by ipv4.Frame.CRCWriteUDPPseudo), the UDP
// length field (counted twice per RFC 768: once as the pseudo-header UDP
// length, once as part of the UDP header itself) and the full UDP
// datagram, treating the checksum field as zero. The datagram octets are
// folded into a copy of crc, so the caller's pseudo-header seed is left
// intact. The caller is responsible for calling NonzeroChecksum on the
// result before writing it to the wire, since UDP reserves an all-zero
// checksum to mean "none computed".
func (f Frame) CRCWriteIPv4Pseudo(crc *netlab.Checksum) uint16 {
	saved := f.CRC()
	f.SetCRC(0)
	sub := *crc
	sub.Add16(f.Length())
	sub.Write(f.buf[:f.Length()])
	f.SetCRC(saved)
	return sub.Fold()
}
