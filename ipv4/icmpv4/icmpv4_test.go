package icmpv4

import (
	"testing"

	"github.com/nilab/netlab"
)

func TestFrameDestinationUnreachable(t *testing.T) {
	buf := make([]byte, 8+28) // header + offending IP header (no options) + its first 8 payload bytes
	d, err := NewFrameDestinationUnreachable(buf, CodePortUnreachable)
	if err != nil {
		t.Fatal(err)
	}
	if d.Type() != TypeDestinationUnreachable {
		t.Errorf("got type %d want %d", d.Type(), TypeDestinationUnreachable)
	}
	if d.Code() != CodePortUnreachable {
		t.Errorf("got code %d want %d", d.Code(), CodePortUnreachable)
	}
	var crc netlab.Checksum
	d.CRCWrite(&crc)
	d.SetCRC(crc.Fold())
	if d.CRC() == 0 {
		t.Errorf("checksum should not be zero for a message with nonzero type and code")
	}
}

func TestNewFrameTooShort(t *testing.T) {
	_, err := NewFrame(make([]byte, 4))
	if err == nil {
		t.Fatal("expected error for short buffer")
	}
}
