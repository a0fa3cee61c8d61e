package stack

import (
	"log/slog"

	"github.com/nilab/netlab"
	"github.com/nilab/netlab/internal"
	"github.com/nilab/netlab/internal/pbuf"
	"github.com/nilab/netlab/ipv4"
	"github.com/nilab/netlab/ipv4/icmpv4"
)

// chunkSize is the largest multiple of 8 bytes that fits in an MTU-sized
// datagram payload after the fixed 20-byte IPv4 header.
const chunkSize = (netlab.MTU - 20) / 8 * 8 // 1480

// IPIn processes an inbound IPv4 datagram received from srcMAC: validate,
// check the header checksum, confirm the destination address, trim any
// link-layer padding, then dispatch on protocol. Dispatch is driven purely
// by registered handler presence, rather than a fixed recognized-protocol
// allow-list that would let a protocol number through as "known" even with
// nothing registered to handle it.
func (s *Stack) IPIn(buf []byte, srcMAC [6]byte) {
	f, err := ipv4.NewFrame(buf)
	if err != nil {
		s.trace("ip:drop-short", slog.Int("len", len(buf)))
		return
	}
	if internal.LogEnabled(s.cfg.Log, internal.LevelTrace) {
		s.trace("ip:in", slog.String("frame", f.String()))
	}
	var v netlab.Validator
	f.ValidateExceptCRC(&v)
	if v.HasError() {
		s.metric.IPDropsTotal.WithLabelValues("malformed").Inc()
		s.trace("ip:drop-malformed", slog.String("err", v.ErrPop().Error()))
		return
	}
	if got, want := f.CRC(), f.CalculateHeaderCRC(); got != want {
		s.metric.IPDropsTotal.WithLabelValues("checksum").Inc()
		s.trace("ip:drop-checksum", slog.String("err", netlab.ErrBadCRC.Error()),
			slog.Uint64("got", uint64(got)), slog.Uint64("want", uint64(want)))
		return
	}
	if *f.DestinationAddr() != s.cfg.LocalIP {
		s.metric.IPDropsTotal.WithLabelValues("not-for-us").Inc()
		s.trace("ip:drop-not-for-us", slog.String("err", netlab.ErrNotForUs.Error()),
			slogIP("dst", f.DestinationAddr()))
		return
	}
	if tl := int(f.TotalLength()); len(buf) > tl {
		buf = buf[:tl]
		if f, err = ipv4.NewFrame(buf); err != nil {
			return
		}
	}

	proto := f.Protocol()
	handler, ok := s.ipHandlers[proto]
	if !ok {
		s.metric.IPDropsTotal.WithLabelValues("no-handler").Inc()
		s.info("ip:protocol-unreachable", slog.String("proto", proto.String()))
		s.icmpUnreachable(buf, *f.SourceAddr(), icmpv4.CodeProtoUnreachable)
		return
	}
	srcIP := *f.SourceAddr()
	handler(f.Payload(), srcIP, buf)
}

// ipFragmentOut prepends an IPv4 header onto payload and hands the result to
// ARPOut. Each fragment is an independently allocated buffer; payload is
// never mutated.
func (s *Stack) ipFragmentOut(payload []byte, dstIP [4]byte, protocol netlab.IPProto, id uint16, offsetIn8B uint16, moreFragments bool) error {
	buf := pbuf.New(20 + len(payload))
	body, err := buf.Reset(len(payload))
	if err != nil {
		return err
	}
	copy(body, payload)
	if _, err := buf.AddHeader(20); err != nil {
		return err
	}
	f, err := ipv4.NewFrame(buf.Data())
	if err != nil {
		return err
	}
	f.ClearHeader()
	f.SetVersionAndIHL(4, 5)
	f.SetToS(0)
	f.SetTotalLength(uint16(buf.Len()))
	f.SetID(id)
	f.SetFlags(ipv4.NewFlags(false, moreFragments, offsetIn8B))
	f.SetTTL(netlab.IPDefaultTTL)
	f.SetProtocol(protocol)
	*f.SourceAddr() = s.cfg.LocalIP
	*f.DestinationAddr() = dstIP
	f.SetCRC(f.CalculateHeaderCRC())

	if moreFragments || offsetIn8B != 0 {
		s.metric.IPFragmentsSentTotal.Inc()
	}
	return s.ARPOut(buf, dstIP)
}

// IPOut sends payload to dstIP as an IPv4 datagram carrying the given upper
// protocol, fragmenting it across multiple datagrams if it exceeds one
// MTU's worth of payload. All fragments of one call share one
// identification value; id advances once per IPOut call regardless of how
// many fragments it produces, wrapping at 16 bits.
func (s *Stack) IPOut(payload []byte, dstIP [4]byte, protocol netlab.IPProto) error {
	id := s.id
	s.id++

	if len(payload) <= netlab.MTU-20 {
		return s.ipFragmentOut(payload, dstIP, protocol, id, 0, false)
	}

	n := (len(payload) + chunkSize - 1) / chunkSize
	for i := 0; i < n; i++ {
		offset := i * chunkSize
		size := chunkSize
		more := true
		if i == n-1 {
			// The final fragment's size is whatever remains, which is
			// exactly chunkSize when len(payload) divides evenly — no
			// special-casing needed once this is computed by subtraction
			// instead of a modulo that would yield zero in that case.
			size = len(payload) - offset
			more = false
		}
		if err := s.ipFragmentOut(payload[offset:offset+size], dstIP, protocol, id, uint16(offset/8), more); err != nil {
			return err
		}
	}
	return nil
}
