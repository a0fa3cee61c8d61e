package ipv4

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"

	"github.com/nilab/netlab"
)

var (
	errShort      = errors.New("ipv4: buffer shorter than header")
	errBadTL      = errors.New("ipv4: total length smaller than header")
	errTruncated  = errors.New("ipv4: total length exceeds buffer")
	errBadIHL     = errors.New("ipv4: IHL field less than 5")
	errBadVersion = errors.New("ipv4: version field is not 4")
)

// NewFrame returns a Frame viewing buf. An error is returned if buf is
// shorter than the 20-byte fixed IPv4 header.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame is a zero-copy view over an IPv4 datagram. See RFC 791.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice the frame views.
func (f Frame) RawData() []byte { return f.buf }

// HeaderLength returns the header length in bytes, computed from the IHL field.
func (f Frame) HeaderLength() int { return int(f.ihl()) * 4 }

func (f Frame) ihl() uint8     { return f.buf[0] & 0xf }
func (f Frame) version() uint8 { return f.buf[0] >> 4 }

// SetVersionAndIHL sets the version (should always be 4) and IHL fields.
func (f Frame) SetVersionAndIHL(version, ihl uint8) { f.buf[0] = version<<4 | ihl&0xf }

// ToS returns the Type of Service field.
func (f Frame) ToS() ToS { return ToS(f.buf[1]) }

// SetToS sets the Type of Service field.
func (f Frame) SetToS(tos ToS) { f.buf[1] = byte(tos) }

// TotalLength returns the entire datagram size in bytes, header included.
func (f Frame) TotalLength() uint16 { return binary.BigEndian.Uint16(f.buf[2:4]) }

// SetTotalLength sets the TotalLength field.
func (f Frame) SetTotalLength(tl uint16) { binary.BigEndian.PutUint16(f.buf[2:4], tl) }

// ID returns the identification field used to group the fragments of a
// single datagram.
func (f Frame) ID() uint16 { return binary.BigEndian.Uint16(f.buf[4:6]) }

// SetID sets the identification field.
func (f Frame) SetID(id uint16) { binary.BigEndian.PutUint16(f.buf[4:6], id) }

// Flags returns the packed flags/fragment-offset field.
func (f Frame) Flags() Flags { return Flags(binary.BigEndian.Uint16(f.buf[6:8])) }

// SetFlags sets the packed flags/fragment-offset field.
func (f Frame) SetFlags(flags Flags) { binary.BigEndian.PutUint16(f.buf[6:8], uint16(flags)) }

// TTL returns the time-to-live field.
func (f Frame) TTL() uint8 { return f.buf[8] }

// SetTTL sets the time-to-live field.
func (f Frame) SetTTL(ttl uint8) { f.buf[8] = ttl }

// Protocol returns the upper-layer protocol number.
func (f Frame) Protocol() netlab.IPProto { return netlab.IPProto(f.buf[9]) }

// SetProtocol sets the upper-layer protocol number.
func (f Frame) SetProtocol(proto netlab.IPProto) { f.buf[9] = uint8(proto) }

// CRC returns the header checksum field.
func (f Frame) CRC() uint16 { return binary.BigEndian.Uint16(f.buf[10:12]) }

// SetCRC sets the header checksum field.
func (f Frame) SetCRC(cs uint16) { binary.BigEndian.PutUint16(f.buf[10:12], cs) }

// CalculateHeaderCRC computes the header checksum over the fixed 20-byte
// header, treating the checksum field itself as zero.
func (f Frame) CalculateHeaderCRC() uint16 {
	var crc netlab.Checksum
	crc.Write(f.buf[0:10])
	crc.Write(f.buf[12:20])
	return crc.Fold()
}

// CRCWriteUDPPseudo folds the IPv4 pseudo-header (source, destination,
// zero, protocol) used by UDP's checksum into crc. The UDP length word is
// added separately by the udp package, since it must come from the UDP
// header rather than the IP header.
func (f Frame) CRCWriteUDPPseudo(crc *netlab.Checksum) {
	crc.Write(f.SourceAddr()[:])
	crc.Write(f.DestinationAddr()[:])
	crc.Add16(uint16(f.Protocol()))
}

// SourceAddr returns the source IPv4 address field.
func (f Frame) SourceAddr() *[4]byte { return (*[4]byte)(f.buf[12:16]) }

// DestinationAddr returns the destination IPv4 address field.
func (f Frame) DestinationAddr() *[4]byte { return (*[4]byte)(f.buf[16:20]) }

// Payload returns the datagram payload, bounded by TotalLength. Call
// ValidateSize first to avoid a panic on a corrupt length field.
func (f Frame) Payload() []byte {
	off := f.HeaderLength()
	return f.buf[off:f.TotalLength()]
}

// Options returns the header's options bytes, possibly zero length.
func (f Frame) Options() []byte {
	off := f.HeaderLength()
	return f.buf[sizeHeader:off]
}

// ClearHeader zeros out the fixed 20-byte header.
func (f Frame) ClearHeader() {
	for i := range f.buf[:sizeHeader] {
		f.buf[i] = 0
	}
}

// ValidateSize checks the header length and total length fields against the
// actual buffer size.
func (f Frame) ValidateSize(v *netlab.Validator) {
	ihl := f.ihl()
	if ihl < 5 {
		v.AddBitPosErr(4, 4, errBadIHL)
		return
	}
	tl := f.TotalLength()
	if int(tl) < f.HeaderLength() {
		v.AddError(errBadTL)
	}
	if int(tl) > len(f.buf) {
		v.AddError(errTruncated)
	}
}

// ValidateExceptCRC runs ValidateSize and additionally checks the version
// field, but does not verify the header checksum (callers compare CRC()
// against CalculateHeaderCRC() themselves, since a mismatch there is a
// distinct, separately logged failure mode).
func (f Frame) ValidateExceptCRC(v *netlab.Validator) {
	f.ValidateSize(v)
	if f.version() != 4 {
		v.AddBitPosErr(0, 4, errBadVersion)
	}
}

func (f Frame) String() string {
	dst := netip.AddrFrom4(*f.DestinationAddr())
	src := netip.AddrFrom4(*f.SourceAddr())
	hl := f.HeaderLength()
	tl := int(f.TotalLength())
	return fmt.Sprintf("IP %s SRC=%s DST=%s LEN=%d OPT=%d TTL=%d ID=%d",
		f.Protocol(), src, dst, tl, tl-hl, f.TTL(), f.ID())
}
