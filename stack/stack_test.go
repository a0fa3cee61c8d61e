package stack

import (
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/nilab/netlab/arp"
	"github.com/nilab/netlab/ethernet"
	"github.com/nilab/netlab/internal/pbuf"
)

// TestMain guards every test in this package against goroutine leaks: the
// stack is required to never spawn one.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	localIP  = [4]byte{192, 168, 1, 1}
	localMAC = [6]byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	peer1IP  = [4]byte{192, 168, 1, 2}
	peer1MAC = [6]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}
	peer2IP  = [4]byte{192, 168, 1, 3}
)

type sentFrame struct {
	buf       []byte
	dst       [6]byte
	ethertype ethernet.Type
}

type fakeDriver struct {
	sent []sentFrame
}

func (d *fakeDriver) EthernetOut(buf []byte, dst [6]byte, ethertype ethernet.Type) error {
	cp := append([]byte(nil), buf...)
	d.sent = append(d.sent, sentFrame{buf: cp, dst: dst, ethertype: ethertype})
	return nil
}

func (d *fakeDriver) last() sentFrame { return d.sent[len(d.sent)-1] }

func newTestStack(t *testing.T) (*Stack, *fakeDriver) {
	t.Helper()
	drv := &fakeDriver{}
	now := time.Unix(1000, 0)
	s, err := New(Config{
		LocalIP:  localIP,
		LocalMAC: localMAC,
		Now:      func() time.Time { return now },
	}, drv, nil)
	if err != nil {
		t.Fatal(err)
	}
	return s, drv
}

// Scenario 1: ARP announcement at init.
func TestARPAnnouncementAtInit(t *testing.T) {
	_, drv := newTestStack(t)
	if len(drv.sent) != 1 {
		t.Fatalf("got %d frames sent at init, want 1", len(drv.sent))
	}
	f := drv.last()
	if f.ethertype != ethernet.TypeARP || f.dst != ethernet.BroadcastAddr() {
		t.Fatalf("expected broadcast ARP frame, got %+v", f)
	}
	af, err := arp.NewFrame(f.buf)
	if err != nil {
		t.Fatal(err)
	}
	if af.Operation() != arp.OpRequest {
		t.Fatalf("got op %s want request", af.Operation())
	}
	if *af.TargetProtoAddr() != localIP || *af.SenderProtoAddr() != localIP {
		t.Fatalf("got sender=%v target=%v, want both %v", *af.SenderProtoAddr(), *af.TargetProtoAddr(), localIP)
	}
}

func injectARPRequest(t *testing.T, s *Stack, senderIP [4]byte, senderMAC [6]byte, targetIP [4]byte) {
	t.Helper()
	var buf [28]byte
	f, err := arp.NewFrame(buf[:])
	if err != nil {
		t.Fatal(err)
	}
	f.Init()
	f.SetOperation(arp.OpRequest)
	*f.SenderHardwareAddr() = senderMAC
	*f.SenderProtoAddr() = senderIP
	*f.TargetProtoAddr() = targetIP
	s.ARPIn(f.RawData(), senderMAC)
}

// ARP request/reply: the sender's address gets cached.
func TestARPRequestReply(t *testing.T) {
	s, drv := newTestStack(t)
	drv.sent = drv.sent[:0] // drop the init announcement

	injectARPRequest(t, s, peer1IP, peer1MAC, localIP)

	if mac, ok := s.arpCache.Get(peer1IP); !ok || mac != peer1MAC {
		t.Fatalf("got %v,%v want %v,true", mac, ok, peer1MAC)
	}
	if len(drv.sent) != 1 {
		t.Fatalf("got %d frames sent, want 1 reply", len(drv.sent))
	}
	f := drv.last()
	if f.dst != peer1MAC || f.ethertype != ethernet.TypeARP {
		t.Fatalf("expected unicast ARP reply to %v, got %+v", peer1MAC, f)
	}
	af, _ := arp.NewFrame(f.buf)
	if af.Operation() != arp.OpReply {
		t.Fatalf("got op %s want reply", af.Operation())
	}
	if *af.SenderProtoAddr() != localIP || *af.SenderHardwareAddr() != localMAC {
		t.Fatalf("reply sender should be local address")
	}
	if *af.TargetProtoAddr() != peer1IP || *af.TargetHardwareAddr() != peer1MAC {
		t.Fatalf("reply target should be peer address")
	}
}

// frameBuf wraps data in a pbuf.Buffer the way ipFragmentOut hands its
// finished datagrams to ARPOut.
func frameBuf(t *testing.T, data []byte) *pbuf.Buffer {
	t.Helper()
	b := pbuf.New(len(data))
	body, err := b.Reset(len(data))
	if err != nil {
		t.Fatal(err)
	}
	copy(body, data)
	return b
}

// At most one pending entry per destination.
func TestARPOutAtMostOnePending(t *testing.T) {
	s, drv := newTestStack(t)
	drv.sent = drv.sent[:0]

	if err := s.ARPOut(frameBuf(t, []byte("first-payload")), peer2IP); err != nil {
		t.Fatal(err)
	}
	if err := s.ARPOut(frameBuf(t, []byte("second-payload")), peer2IP); err != nil {
		t.Fatal(err)
	}

	requests := 0
	for _, f := range drv.sent {
		if f.ethertype == ethernet.TypeARP {
			requests++
		}
	}
	if requests != 1 {
		t.Fatalf("got %d ARP requests, want 1", requests)
	}
	pending, ok := s.arpQueue.Get(peer2IP)
	if !ok || string(pending.Data()) != "first-payload" {
		t.Fatalf("got pending=%v,%v want first-payload,true", pending, ok)
	}
}

// Pending entry flush on ARP reply.
func TestARPPendingFlushOnReply(t *testing.T) {
	s, drv := newTestStack(t)
	drv.sent = drv.sent[:0]

	payload := []byte("queued-datagram")
	if err := s.ARPOut(frameBuf(t, payload), peer2IP); err != nil {
		t.Fatal(err)
	}
	if n := s.ARPPendingLen(); n != 1 {
		t.Fatalf("got %d pending, want 1", n)
	}

	var buf [28]byte
	f, _ := arp.NewFrame(buf[:])
	f.Init()
	f.SetOperation(arp.OpReply)
	*f.SenderHardwareAddr() = peer1MAC
	*f.SenderProtoAddr() = peer2IP
	*f.TargetHardwareAddr() = localMAC
	*f.TargetProtoAddr() = localIP
	s.ARPIn(f.RawData(), peer1MAC)

	if _, ok := s.arpQueue.Get(peer2IP); ok {
		t.Fatal("pending entry should have been flushed")
	}
	flushed := drv.last()
	if flushed.dst != peer1MAC || flushed.ethertype != ethernet.TypeIPv4 || string(flushed.buf) != string(payload) {
		t.Fatalf("got %+v, want the queued datagram sent to %v", flushed, peer1MAC)
	}
}
