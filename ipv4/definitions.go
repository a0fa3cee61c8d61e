// Package ipv4 provides a zero-copy view over an IPv4 header (RFC 791):
// field accessors, header checksum calculation, and the validation needed
// before trusting header length fields.
package ipv4

const sizeHeader = 20

// ToS represents the Traffic Class (Type of Service): 6 MSB are
// Differentiated Services, 2 LSB are Explicit Congestion Notification.
type ToS uint8

func (tos ToS) DS() uint8  { return uint8(tos) >> 2 }
func (tos ToS) ECN() uint8 { return uint8(tos & 0b11) }

// Flags holds the packed flags + fragment-offset field of the IPv4 header.
type Flags uint16

// DontFragment reports whether fragmentation of this datagram is forbidden.
func (f Flags) DontFragment() bool { return f&0x4000 != 0 }

// MoreFragments reports whether more fragments follow this one.
func (f Flags) MoreFragments() bool { return f&0x2000 != 0 }

// FragmentOffset returns the offset of this fragment, in 8-byte units,
// relative to the start of the original datagram.
func (f Flags) FragmentOffset() uint16 { return uint16(f) & 0x1fff }

// NewFlags packs don't-fragment, more-fragments and a fragment offset (in
// 8-byte units) into a Flags value.
func NewFlags(dontFragment, moreFragments bool, fragOffset uint16) Flags {
	var f uint16
	if dontFragment {
		f |= 0x4000
	}
	if moreFragments {
		f |= 0x2000
	}
	f |= fragOffset & 0x1fff
	return Flags(f)
}
