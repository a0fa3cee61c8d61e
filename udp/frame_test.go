package udp

import (
	"testing"

	"github.com/nilab/netlab"
	"github.com/nilab/netlab/ipv4"
)

func TestFrameFields(t *testing.T) {
	buf := make([]byte, 16)
	f, err := NewFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	f.SetSourcePort(1234)
	f.SetDestinationPort(53)
	f.SetLength(16)
	if f.SourcePort() != 1234 || f.DestinationPort() != 53 || f.Length() != 16 {
		t.Fatal("field roundtrip mismatch")
	}
	var v netlab.Validator
	f.ValidateSize(&v)
	if v.HasError() {
		t.Fatalf("unexpected validation error: %s", v.ErrPop())
	}
}

func TestCRCWriteIPv4Pseudo(t *testing.T) {
	ipbuf := make([]byte, 20)
	ifrm, _ := ipv4.NewFrame(ipbuf)
	*ifrm.SourceAddr() = [4]byte{192, 168, 1, 1}
	*ifrm.DestinationAddr() = [4]byte{192, 168, 1, 2}
	ifrm.SetProtocol(netlab.IPProtoUDP)

	udpbuf := make([]byte, 12)
	f, _ := NewFrame(udpbuf)
	f.SetSourcePort(1)
	f.SetDestinationPort(2)
	f.SetLength(12)
	copy(f.Payload(), []byte{1, 2, 3, 4})

	var crc netlab.Checksum
	ifrm.CRCWriteUDPPseudo(&crc)
	sum := f.CRCWriteIPv4Pseudo(&crc)
	f.SetCRC(NonzeroChecksum(sum))
	if f.CRC() == 0 {
		t.Fatal("checksum must never be the reserved zero value")
	}
}

func TestNonzeroChecksum(t *testing.T) {
	if got := NonzeroChecksum(0); got != 0xffff {
		t.Fatalf("got %#04x, want 0xffff", got)
	}
	if got := NonzeroChecksum(0x1234); got != 0x1234 {
		t.Fatalf("got %#04x, want value passed through", got)
	}
}

func TestValidateSizeRejectsShortLength(t *testing.T) {
	buf := make([]byte, 16)
	f, _ := NewFrame(buf)
	f.SetLength(4)
	var v netlab.Validator
	f.ValidateSize(&v)
	if !v.HasError() {
		t.Fatal("expected length below header size to fail validation")
	}
}
