package linuxsll

import (
	"bytes"
	"errors"
	"testing"

	"github.com/netlayers/etherslice/pkg/common"
)

func TestFromSliceToHeaderRoundtrip(t *testing.T) {
	h := Header{
		PacketType:   common.LinuxSllPacketTypeOutgoing,
		ArpHwType:    common.ArpHardwareIDEthernet,
		AddrLen:      6,
		Addr:         [8]byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		ProtocolType: common.LinuxSllProtocolType(common.EtherTypeIPv4),
	}
	wire := h.ToBytes()
	payload := []byte{0x45, 0x00}
	data := append(wire[:], payload...)

	s, rest, err := FromSlice(data)
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	if got := s.ToHeader(); got != h {
		t.Errorf("ToHeader() = %+v, want %+v", got, h)
	}
	if !bytes.Equal(rest, payload) {
		t.Errorf("rest = %v, want %v", rest, payload)
	}
}

func TestFromSliceTooShort(t *testing.T) {
	_, _, err := FromSlice(make([]byte, 10))
	if err == nil {
		t.Fatal("FromSlice() should fail for too-short input")
	}
	var lenErr *common.LenError
	if !errors.As(err, &lenErr) {
		t.Fatalf("error type = %T, want *common.LenError", err)
	}
	if lenErr.Layer != common.LayerLink {
		t.Errorf("LenError.Layer = %v, want %v", lenErr.Layer, common.LayerLink)
	}
}

func TestIsEtherType(t *testing.T) {
	ethernet := Header{ArpHwType: common.ArpHardwareIDEthernet}
	if !ethernet.IsEtherType() {
		t.Error("IsEtherType() = false for Ethernet hw type, want true")
	}

	other := Header{ArpHwType: common.ArpHardwareIDFrameRelay}
	if other.IsEtherType() {
		t.Error("IsEtherType() = true for FrameRelay hw type, want false")
	}
}

func TestHeaderWrite(t *testing.T) {
	h := Header{
		PacketType: common.LinuxSllPacketTypeHost,
		ArpHwType:  common.ArpHardwareIDEthernet,
		AddrLen:    6,
	}
	buf := make([]byte, HeaderLen)
	w := common.NewWriter(buf)
	if err := h.Write(w); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	want := h.ToBytes()
	if !bytes.Equal(w.Written(), want[:]) {
		t.Errorf("Write() produced %x, want %x", w.Written(), want)
	}
}

func TestHeaderString(t *testing.T) {
	h := Header{PacketType: common.LinuxSllPacketTypeHost, ArpHwType: common.ArpHardwareIDEthernet}
	if h.String() == "" {
		t.Error("String() returned empty string")
	}
}
