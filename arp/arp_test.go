package arp

import (
	"testing"

	"github.com/nilab/netlab"
)

func TestFrameInitAndFields(t *testing.T) {
	buf := make([]byte, sizeHeaderIPv4)
	f, err := NewFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	f.Init()
	f.SetOperation(OpRequest)
	*f.SenderHardwareAddr() = [6]byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	*f.SenderProtoAddr() = [4]byte{192, 168, 1, 1}
	*f.TargetProtoAddr() = [4]byte{192, 168, 1, 2}

	var v netlab.Validator
	f.ValidateSize(&v)
	if v.HasError() {
		t.Fatalf("unexpected validation error: %s", v.ErrPop())
	}
	if f.Operation() != OpRequest {
		t.Errorf("got operation %v want request", f.Operation())
	}
	if f.HardwareType() != HardwareTypeEthernet {
		t.Errorf("got hardware type %d want 1", f.HardwareType())
	}
}

func TestFrameValidateRejectsWrongType(t *testing.T) {
	buf := make([]byte, sizeHeaderIPv4)
	f, _ := NewFrame(buf)
	f.Init()
	binaryPutHardwareType(f, 6) // token ring, unsupported
	var v netlab.Validator
	f.ValidateSize(&v)
	if !v.HasError() {
		t.Fatalf("expected unsupported hardware type to fail validation")
	}
}

func binaryPutHardwareType(f Frame, htype uint16) {
	raw := f.RawData()
	raw[0] = byte(htype >> 8)
	raw[1] = byte(htype)
}

func TestNewFrameTooShort(t *testing.T) {
	_, err := NewFrame(make([]byte, 10))
	if err == nil {
		t.Fatal("expected error for short buffer")
	}
}
