// Package stack implements the Stack type: the single explicit object that
// owns the ARP peer-MAC cache, the ARP pending-send queue, the UDP handler
// registry, the local interface identity, the transmit scratch buffer and
// the link driver handle. ARP/IPv4/UDP/ICMP become methods on Stack instead
// of free functions operating on process-wide globals, so the three
// protocols interact only through this package.
package stack

import (
	"errors"
	"log/slog"
	"net/netip"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nilab/netlab"
	"github.com/nilab/netlab/arp"
	"github.com/nilab/netlab/ethernet"
	"github.com/nilab/netlab/internal"
	"github.com/nilab/netlab/internal/metrics"
	"github.com/nilab/netlab/internal/pbuf"
	"github.com/nilab/netlab/internal/ttlcache"
)

// Driver is the link-layer boundary this stack sends frames through and
// receives frames from.
type Driver interface {
	// EthernetOut prepends an Ethernet header addressed to dst with the
	// given ethertype and transmits buf.
	EthernetOut(buf []byte, dst [6]byte, ethertype ethernet.Type) error
}

// ipHandler is the registered-protocol dispatch capability used by IPIn.
// original is the full IPv4 datagram, trailing padding already trimmed but
// header not stripped, so a handler that needs to emit an ICMP unreachable
// quoting the original header (the UDP handler does, on an unbound port)
// never has to reconstruct it.
type ipHandler func(payload []byte, srcIP [4]byte, original []byte)

// UDPHandler receives the payload of a UDP datagram delivered to a port
// opened with Stack.UDPOpen.
type UDPHandler func(payload []byte, srcIP [4]byte, srcPort uint16)

// Config configures a Stack. See Config field docs for defaults applied by
// New when a field is left zero.
type Config struct {
	// LocalIP and LocalMAC are this interface's identity, immutable once
	// the Stack is constructed.
	LocalIP  [4]byte
	LocalMAC [6]byte

	// ARPCacheSize and ARPCacheTTL bound the peer-MAC cache. Defaults:
	// 64 entries, 60s.
	ARPCacheSize int
	ARPCacheTTL  time.Duration
	// ARPPendingSize and ARPPendingTTL bound the pending-send queue.
	// Defaults: 64 entries, 1s (ARP_MIN_INTERVAL).
	ARPPendingSize int
	ARPPendingTTL  time.Duration

	// TxBufSize sizes the shared transmit scratch buffer. Default 2048.
	TxBufSize int

	// Now, if set, is used as the clock for cache expiry. Tests inject a
	// fake clock here; production leaves it nil (time.Now).
	Now func() time.Time

	// Log receives structured logging output. A nil Log is valid and
	// silently drops all log output.
	Log *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.ARPCacheSize == 0 {
		c.ARPCacheSize = 64
	}
	if c.ARPCacheTTL == 0 {
		c.ARPCacheTTL = 60 * time.Second
	}
	if c.ARPPendingSize == 0 {
		c.ARPPendingSize = 64
	}
	if c.ARPPendingTTL == 0 {
		c.ARPPendingTTL = time.Second
	}
	if c.TxBufSize == 0 {
		c.TxBufSize = 2048
	}
	return c
}

// Stack is a single-threaded, cooperative ARP/IPv4/UDP network stack. None
// of its methods spawn goroutines or block; it is driven entirely by the
// caller invoking *In methods as frames arrive and the exported Out/Send
// methods to transmit.
type Stack struct {
	cfg      Config
	driver   Driver
	arpCache *ttlcache.Cache[[4]byte, [6]byte]
	arpQueue *ttlcache.Cache[[4]byte, *pbuf.Buffer]
	arpTpl   [netlab.MACLen*2 + netlab.IPLen*2 + 8]byte

	ipHandlers map[netlab.IPProto]ipHandler
	udpHandler map[uint16]UDPHandler

	id     uint16
	txbuf  *pbuf.Buffer
	metric *metrics.Collectors
	logger
}

var errNilDriver = errors.New("stack: driver must not be nil")

// New constructs a Stack and performs one-time protocol registration: it
// wires the IPv4 handlers for UDP and ICMP, builds the ARP template packet,
// and emits a gratuitous ARP announcement for the local address. reg may be
// nil, in which case metrics are not registered against any global
// registry (useful in tests).
func New(cfg Config, driver Driver, reg prometheus.Registerer) (*Stack, error) {
	if driver == nil {
		return nil, errNilDriver
	}
	cfg = cfg.withDefaults()
	s := &Stack{
		cfg:        cfg,
		driver:     driver,
		arpCache:   ttlcache.New[[4]byte, [6]byte](cfg.ARPCacheSize, cfg.ARPCacheTTL, cfg.Now),
		arpQueue:   ttlcache.New[[4]byte, *pbuf.Buffer](cfg.ARPPendingSize, cfg.ARPPendingTTL, cfg.Now),
		ipHandlers: make(map[netlab.IPProto]ipHandler, 2),
		udpHandler: make(map[uint16]UDPHandler, 4),
		txbuf:      pbuf.New(cfg.TxBufSize),
		metric:     metrics.New(reg),
		logger:     logger{log: cfg.Log},
	}
	tplFrame, err := arp.NewFrame(s.arpTpl[:])
	if err != nil {
		return nil, err
	}
	tplFrame.Init()
	*tplFrame.SenderHardwareAddr() = cfg.LocalMAC
	*tplFrame.SenderProtoAddr() = cfg.LocalIP

	s.ipHandlers[netlab.IPProtoUDP] = s.udpIn
	s.ipHandlers[netlab.IPProtoICMP] = s.icmpIn

	if err := s.ARPRequest(cfg.LocalIP); err != nil {
		return nil, err
	}
	return s, nil
}

// LocalIP returns the interface's configured IPv4 address.
func (s *Stack) LocalIP() [4]byte { return s.cfg.LocalIP }

// LocalMAC returns the interface's configured hardware address.
func (s *Stack) LocalMAC() [6]byte { return s.cfg.LocalMAC }

// ARPCacheLen reports the number of entries currently held in the peer-MAC
// cache, evicting expired entries first so the count (and the matching
// metric gauge) stays accurate.
func (s *Stack) ARPCacheLen() int {
	s.arpCache.EvictExpired()
	n := s.arpCache.Len()
	s.metric.ARPCacheSize.Set(float64(n))
	return n
}

// ARPPendingLen reports the number of datagrams currently queued awaiting
// ARP resolution.
func (s *Stack) ARPPendingLen() int {
	s.arpQueue.EvictExpired()
	n := s.arpQueue.Len()
	s.metric.ARPPendingSize.Set(float64(n))
	return n
}

// LookupARP returns the MAC address cached for ip, if any is present and
// unexpired, for diagnostics (the CLI's "arp request" command reports this
// after injecting a frame).
func (s *Stack) LookupARP(ip [4]byte) ([6]byte, bool) {
	return s.arpCache.Get(ip)
}

func (s *Stack) newARPFrame() (arp.Frame, []byte, error) {
	buf, err := s.txbuf.Reset(len(s.arpTpl))
	if err != nil {
		return arp.Frame{}, nil, err
	}
	copy(buf, s.arpTpl[:])
	f, err := arp.NewFrame(buf)
	return f, buf, err
}

// ARPRequest emits a broadcast ARP request for targetIP.
func (s *Stack) ARPRequest(targetIP [4]byte) error {
	f, raw, err := s.newARPFrame()
	if err != nil {
		return err
	}
	f.SetOperation(arp.OpRequest)
	*f.TargetProtoAddr() = targetIP
	s.trace("arp:request", slogIP("target", &targetIP))
	return s.driver.EthernetOut(raw, ethernet.BroadcastAddr(), ethernet.TypeARP)
}

// ARPReply emits a unicast ARP reply to targetMAC, resolving targetIP to our
// own address.
func (s *Stack) ARPReply(targetIP [4]byte, targetMAC [6]byte) error {
	f, raw, err := s.newARPFrame()
	if err != nil {
		return err
	}
	f.SetOperation(arp.OpReply)
	*f.TargetProtoAddr() = targetIP
	*f.TargetHardwareAddr() = targetMAC
	s.trace("arp:reply", slogIP("target", &targetIP))
	return s.driver.EthernetOut(raw, targetMAC, ethernet.TypeARP)
}

// ARPIn processes an inbound ARP packet received from srcMAC: validate,
// learn the sender's address, flush anything queued for it, and reply if
// it's a request addressed to us. All failures are silent drops; nothing is
// returned to the caller.
func (s *Stack) ARPIn(buf []byte, srcMAC [6]byte) {
	f, err := arp.NewFrame(buf)
	if err != nil {
		s.trace("arp:drop-short", slog.Int("len", len(buf)))
		return
	}
	var v netlab.Validator
	f.ValidateSize(&v)
	if v.HasError() {
		s.trace("arp:drop-malformed", slog.String("err", v.ErrPop().Error()))
		return
	}
	op := f.Operation()
	if op != arp.OpRequest && op != arp.OpReply {
		s.trace("arp:drop-unknown-op", slog.String("err", netlab.ErrUnrecognized.Error()),
			slog.Uint64("op", uint64(op)))
		return
	}
	if internal.LogEnabled(s.cfg.Log, internal.LevelTrace) {
		s.trace("arp:in", slog.String("frame", f.String()))
	}

	senderIP := *f.SenderProtoAddr()
	senderMAC := *f.SenderHardwareAddr()
	s.arpCache.Put(senderIP, senderMAC)
	s.info("arp:learned", slogIP("ip", &senderIP), slogMAC("mac", &senderMAC))

	if pending, ok := s.arpQueue.Get(senderIP); ok {
		s.arpQueue.Delete(senderIP)
		if err := s.driver.EthernetOut(pending.Data(), senderMAC, ethernet.TypeIPv4); err != nil {
			s.warn("arp:flush-failed", slog.String("err", err.Error()))
		}
		return
	}

	if op == arp.OpRequest && *f.TargetProtoAddr() == s.cfg.LocalIP {
		if err := s.ARPReply(senderIP, senderMAC); err != nil {
			s.warn("arp:reply-failed", slog.String("err", err.Error()))
		}
	}
}

// ARPOut is the resolve-or-queue primitive IP-out uses to send an IPv4
// datagram: if the destination MAC is cached, buf's frame is handed to the
// driver directly; if a resolution is already in flight, it is dropped;
// otherwise a deep copy of buf is queued and an ARP request is emitted.
func (s *Stack) ARPOut(buf *pbuf.Buffer, dstIP [4]byte) error {
	if mac, ok := s.arpCache.Get(dstIP); ok {
		return s.driver.EthernetOut(buf.Data(), mac, ethernet.TypeIPv4)
	}
	if _, pending := s.arpQueue.Get(dstIP); pending {
		s.metric.IPDropsTotal.WithLabelValues("arp-pending").Inc()
		s.debug("arp:drop-pending-collision", slogIP("dst", &dstIP))
		return nil
	}
	cp := pbuf.New(buf.Cap())
	if err := cp.CopyFrom(buf); err != nil {
		return err
	}
	if err := s.arpQueue.Put(dstIP, cp); err != nil {
		s.metric.IPDropsTotal.WithLabelValues("arp-queue-full").Inc()
		s.debug("arp:drop-queue-full", slog.String("err", netlab.ErrBufferFull.Error()),
			slogIP("dst", &dstIP))
		return nil
	}
	return s.ARPRequest(dstIP)
}

// slogIP and slogMAC format addresses for log output. Attr construction is
// lazy only behind a LogEnabled check; these are for the cold paths where
// readability wins.
func slogIP(key string, addr *[4]byte) slog.Attr {
	return slog.String(key, netip.AddrFrom4(*addr).String())
}

func slogMAC(key string, addr *[6]byte) slog.Attr {
	return slog.String(key, string(ethernet.AppendAddr(nil, *addr)))
}

type logger struct {
	log *slog.Logger
}

func (l logger) error(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(l.log, slog.LevelError, msg, attrs...)
}
func (l logger) warn(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(l.log, slog.LevelWarn, msg, attrs...)
}
func (l logger) info(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(l.log, slog.LevelInfo, msg, attrs...)
}
func (l logger) debug(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(l.log, slog.LevelDebug, msg, attrs...)
}
func (l logger) trace(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(l.log, internal.LevelTrace, msg, attrs...)
}
