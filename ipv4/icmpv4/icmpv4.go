// Package icmpv4 provides the ICMP types this stack generates: destination
// unreachable messages sent in response to an IPv4 datagram whose protocol
// or UDP port has no registered handler. This package implements the wire
// format and names the standard type and destination-unreachable code
// values; the stack's ip/udp layers produce only the protocol-unreachable
// and port-unreachable codes.
package icmpv4

import (
	"encoding/binary"
	"errors"

	"github.com/nilab/netlab"
)

type Type uint8

const (
	TypeEchoReply              Type = 0  // echo reply
	TypeDestinationUnreachable Type = 3  // destination unreachable
	TypeSourceQuench           Type = 4  // source quench
	TypeRedirect               Type = 5  // redirect
	TypeEcho                   Type = 8  // echo
	TypeTimeExceeded           Type = 11 // time exceeded
	TypeParameterProblem       Type = 12 // parameter problem
)

// CodeDestinationUnreachable is the Code field of a TypeDestinationUnreachable message.
type CodeDestinationUnreachable uint8

const (
	CodeNetUnreachable     CodeDestinationUnreachable = 0 // net unreachable
	CodeHostUnreachable    CodeDestinationUnreachable = 1 // host unreachable
	CodeProtoUnreachable   CodeDestinationUnreachable = 2 // protocol unreachable
	CodePortUnreachable    CodeDestinationUnreachable = 3 // port unreachable
	CodeFragNeededAndDFSet CodeDestinationUnreachable = 4 // fragmentation needed and DF set
	CodeSourceRouteFailed  CodeDestinationUnreachable = 5 // source route failed
)

var errShortFrame = errors.New("icmpv4: buffer shorter than 8-byte header")

// NewFrame returns a Frame viewing buf. An error is returned if buf is
// shorter than the fixed 8-byte ICMP header.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < 8 {
		return Frame{}, errShortFrame
	}
	return Frame{buf: buf}, nil
}

// Frame is a zero-copy view over an ICMPv4 message (RFC 792): type, code,
// checksum, a 4-byte type-specific header field, and a variable payload.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice the frame views.
func (f Frame) RawData() []byte { return f.buf }

func (f Frame) Type() Type     { return Type(f.buf[0]) }
func (f Frame) SetType(t Type) { f.buf[0] = uint8(t) }

func (f Frame) Code() uint8        { return f.buf[1] }
func (f Frame) SetCode(code uint8) { f.buf[1] = code }

// CRC returns the checksum field.
func (f Frame) CRC() uint16 { return binary.BigEndian.Uint16(f.buf[2:4]) }

// SetCRC sets the checksum field.
func (f Frame) SetCRC(crc uint16) { binary.BigEndian.PutUint16(f.buf[2:4], crc) }

// CRCWrite folds the whole ICMP message into crc, treating the checksum
// field itself as zero per RFC 792.
func (f Frame) CRCWrite(crc *netlab.Checksum) {
	crc.Write(f.buf[0:2])
	crc.Write(f.buf[4:])
}

// Payload returns everything past the 8-byte header (type, code, checksum
// and the 4-byte type-specific field).
func (f Frame) Payload() []byte { return f.buf[8:] }

// FrameDestinationUnreachable is an ICMP type-3 message. Its 4-byte
// type-specific field is unused (must be zero) and its payload carries the
// offending IP header plus the first 8 bytes of its payload.
type FrameDestinationUnreachable struct {
	Frame
}

// NewFrameDestinationUnreachable builds a FrameDestinationUnreachable over
// buf, writing type 3 and zeroing the unused field.
func NewFrameDestinationUnreachable(buf []byte, code CodeDestinationUnreachable) (FrameDestinationUnreachable, error) {
	f, err := NewFrame(buf)
	if err != nil {
		return FrameDestinationUnreachable{}, err
	}
	f.SetType(TypeDestinationUnreachable)
	binary.BigEndian.PutUint32(f.buf[4:8], 0)
	d := FrameDestinationUnreachable{Frame: f}
	d.SetCode(code)
	return d, nil
}

func (f FrameDestinationUnreachable) Code() CodeDestinationUnreachable {
	return CodeDestinationUnreachable(f.Frame.Code())
}

func (f FrameDestinationUnreachable) SetCode(code CodeDestinationUnreachable) {
	f.Frame.SetCode(uint8(code))
}
