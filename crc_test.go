package netlab

import "testing"

// RFC 1071's worked example: the ones' complement sum of
// 0x0001 0xf203 0xf4f5 0xf6f7 is 0xddf2, so the checksum is its
// complement 0x220d.
func TestChecksumKnownVector(t *testing.T) {
	var c Checksum
	c.Write([]byte{0x00, 0x01, 0xf2, 0x03, 0xf4, 0xf5, 0xf6, 0xf7})
	if got := c.Fold(); got != 0x220d {
		t.Fatalf("got checksum %#04x, want 0x220d", got)
	}
}

// The sum must not depend on how the octet stream is chunked, even when
// individual chunks have odd lengths.
func TestChecksumChunkingInvariant(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x23, 0x45}
	var whole Checksum
	whole.Write(data)

	var pieces Checksum
	pieces.Write(data[:1])
	pieces.Write(data[1:4])
	pieces.Write(data[4:])
	if whole.Fold() != pieces.Fold() {
		t.Fatalf("got %#04x and %#04x, want chunking not to matter", whole.Fold(), pieces.Fold())
	}
}

// Add16 after an odd-length Write must pair the dangling octet with the
// word's high byte, exactly as if the word had arrived as two octets.
func TestChecksumAdd16PairsDanglingOctet(t *testing.T) {
	var a Checksum
	a.Write([]byte{0x01})
	a.Add16(0x2345)

	var b Checksum
	b.Write([]byte{0x01, 0x23, 0x45})
	if a.Fold() != b.Fold() {
		t.Fatalf("got %#04x and %#04x, want equal sums", a.Fold(), b.Fold())
	}
}

func TestChecksumAdd32MatchesWrite(t *testing.T) {
	var a Checksum
	a.Add32(0x1234abcd)
	var b Checksum
	b.Write([]byte{0x12, 0x34, 0xab, 0xcd})
	if a.Fold() != b.Fold() {
		t.Fatalf("got %#04x and %#04x, want equal sums", a.Fold(), b.Fold())
	}
}

// A dangling octet is padded with a zero LSB for the final word.
func TestChecksumFoldPadsDanglingOctet(t *testing.T) {
	var odd Checksum
	odd.Write([]byte{0xab, 0xcd, 0xef})
	var even Checksum
	even.Write([]byte{0xab, 0xcd, 0xef, 0x00})
	if odd.Fold() != even.Fold() {
		t.Fatalf("got %#04x and %#04x, want odd stream zero-padded", odd.Fold(), even.Fold())
	}
}

func TestChecksumFoldDoesNotConsume(t *testing.T) {
	var c Checksum
	c.Add32(0xdeadbeef)
	first := c.Fold()
	if c.Fold() != first {
		t.Fatal("Fold should be repeatable without mutating the accumulator")
	}
	c.Reset()
	if got := c.Fold(); got != 0xffff {
		t.Fatalf("got %#04x after reset, want 0xffff (complement of zero)", got)
	}
}
