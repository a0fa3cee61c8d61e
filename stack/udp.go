package stack

import (
	"errors"
	"log/slog"

	"github.com/nilab/netlab"
	"github.com/nilab/netlab/internal/pbuf"
	"github.com/nilab/netlab/ipv4"
	"github.com/nilab/netlab/ipv4/icmpv4"
	"github.com/nilab/netlab/udp"
)

// ErrPortInUse is returned by UDPOpen when the requested port already has a
// registered handler.
var ErrPortInUse = errors.New("stack: udp port already open")

// UDPOpen registers handler to receive datagrams delivered to port. It
// returns ErrPortInUse if a handler is already registered for that port.
func (s *Stack) UDPOpen(port uint16, handler UDPHandler) error {
	if _, exists := s.udpHandler[port]; exists {
		return ErrPortInUse
	}
	s.udpHandler[port] = handler
	s.info("udp:open", slog.Int("port", int(port)))
	return nil
}

// UDPClose removes any handler registered for port.
func (s *Stack) UDPClose(port uint16) {
	delete(s.udpHandler, port)
	s.info("udp:close", slog.Int("port", int(port)))
}

// udpIn is registered as the IP-layer handler for protocol UDP. original is
// the full inbound IPv4 datagram (header intact, padding already trimmed),
// retained so a port-unreachable response can quote the original header
// without having to reconstruct it byte-for-byte after stripping.
func (s *Stack) udpIn(payload []byte, srcIP [4]byte, original []byte) {
	f, err := udp.NewFrame(payload)
	if err != nil {
		s.trace("udp:drop-short", slog.Int("len", len(payload)))
		return
	}
	var v netlab.Validator
	f.ValidateSize(&v)
	if v.HasError() {
		s.trace("udp:drop-malformed", slog.String("err", v.ErrPop().Error()))
		return
	}

	ipf, err := ipv4.NewFrame(original)
	if err != nil {
		return
	}
	var crc netlab.Checksum
	ipf.CRCWriteUDPPseudo(&crc)
	want := udp.NonzeroChecksum(f.CRCWriteIPv4Pseudo(&crc))
	if got := f.CRC(); got != want {
		s.metric.IPDropsTotal.WithLabelValues("udp-checksum").Inc()
		s.trace("udp:drop-checksum", slog.String("err", netlab.ErrBadCRC.Error()),
			slog.Uint64("got", uint64(got)), slog.Uint64("want", uint64(want)))
		return
	}

	dstPort := f.DestinationPort()
	handler, ok := s.udpHandler[dstPort]
	if !ok {
		s.metric.UDPPortUnreachable.Inc()
		s.info("udp:port-unreachable", slog.Int("port", int(dstPort)))
		s.icmpUnreachable(original, srcIP, icmpv4.CodePortUnreachable)
		return
	}
	handler(f.Payload(), srcIP, f.SourcePort())
}

// UDPOut prepends a UDP header onto buf, computes its IPv4-pseudo-header
// checksum and hands the result to IPOut. buf must already hold exactly the
// payload to send, positioned with at least 8 bytes of headroom (as
// returned by a pbuf.Buffer.Reset call) — the shared scratch buffer for
// convenience sends, or an independently allocated one.
func (s *Stack) UDPOut(buf *pbuf.Buffer, srcPort, dstPort uint16, dstIP [4]byte) error {
	if _, err := buf.AddHeader(8); err != nil {
		return err
	}
	f, err := udp.NewFrame(buf.Data())
	if err != nil {
		return err
	}
	f.SetSourcePort(srcPort)
	f.SetDestinationPort(dstPort)
	f.SetLength(uint16(buf.Len()))
	f.SetCRC(0)

	var crc netlab.Checksum
	crc.Write(s.cfg.LocalIP[:])
	crc.Write(dstIP[:])
	crc.Add16(uint16(netlab.IPProtoUDP))
	f.SetCRC(udp.NonzeroChecksum(f.CRCWriteIPv4Pseudo(&crc)))

	return s.IPOut(buf.Data(), dstIP, netlab.IPProtoUDP)
}

// UDPSend copies data into the shared transmit scratch buffer and sends it
// from srcPort to (dstIP, dstPort). Like every use of the scratch buffer,
// the call runs to completion before returning.
func (s *Stack) UDPSend(data []byte, srcPort uint16, dstIP [4]byte, dstPort uint16) error {
	body, err := s.txbuf.Reset(len(data))
	if err != nil {
		return err
	}
	copy(body, data)
	return s.UDPOut(s.txbuf, srcPort, dstPort, dstIP)
}
