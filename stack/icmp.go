package stack

import (
	"log/slog"

	"github.com/nilab/netlab"
	"github.com/nilab/netlab/internal/pbuf"
	"github.com/nilab/netlab/ipv4"
	"github.com/nilab/netlab/ipv4/icmpv4"
)

// icmpIn is registered as the IP-layer handler for protocol ICMP, via the
// same handler table as every other protocol. Full ICMP handling (echo,
// etc.) is out of scope; this stack only generates destination-unreachable
// messages, so inbound ICMP is logged and dropped.
func (s *Stack) icmpIn(payload []byte, srcIP [4]byte, original []byte) {
	f, err := icmpv4.NewFrame(payload)
	if err != nil {
		s.trace("icmp:drop-short", slog.Int("len", len(payload)))
		return
	}
	s.trace("icmp:in", slogIP("src", &srcIP), slog.Int("type", int(f.Type())))
}

// icmpUnreachable quotes the offending IPv4 header plus the first 8 bytes
// of its payload, per RFC 792, and sends a destination-unreachable message
// to peerIP. original is the full, unstripped inbound IPv4 datagram that
// triggered the condition.
func (s *Stack) icmpUnreachable(original []byte, peerIP [4]byte, code icmpv4.CodeDestinationUnreachable) {
	ipf, err := ipv4.NewFrame(original)
	if err != nil {
		return
	}
	quoteLen := ipf.HeaderLength() + 8
	if quoteLen > len(original) {
		quoteLen = len(original)
	}
	quote := original[:quoteLen]

	buf := pbuf.New(8 + len(quote))
	body, err := buf.Reset(8 + len(quote))
	if err != nil {
		s.warn("icmp:build-failed", slog.String("err", err.Error()))
		return
	}
	f, err := icmpv4.NewFrameDestinationUnreachable(body, code)
	if err != nil {
		s.warn("icmp:build-failed", slog.String("err", err.Error()))
		return
	}
	copy(f.Payload(), quote)
	var crc netlab.Checksum
	f.CRCWrite(&crc)
	f.SetCRC(crc.Fold())

	s.info("icmp:unreachable", slogIP("peer", &peerIP), slog.Int("code", int(code)))
	if err := s.IPOut(buf.Data(), peerIP, netlab.IPProtoICMP); err != nil {
		s.warn("icmp:send-failed", slog.String("err", err.Error()))
	}
}
