package arp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/netlayers/etherslice/pkg/common"
)

func TestFromSliceRoundtrip(t *testing.T) {
	h := Header{
		HwAddrType:      common.ArpHardwareIDEthernet,
		ProtoAddrType:   common.EtherTypeIPv4,
		HwAddrSize:      6,
		ProtoAddrSize:   4,
		Operation:       OperationRequest,
		SenderHwAddr:    []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		SenderProtoAddr: []byte{192, 168, 1, 1},
		TargetHwAddr:    []byte{0, 0, 0, 0, 0, 0},
		TargetProtoAddr: []byte{192, 168, 1, 2},
	}
	wire := h.ToBytes()
	payload := []byte{0xaa, 0xbb}
	data := append(append([]byte(nil), wire...), payload...)

	s, rest, err := FromSlice(data)
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	if !bytes.Equal(rest, payload) {
		t.Errorf("rest = %v, want %v", rest, payload)
	}
	got := s.ToHeader()
	if got.Operation != h.Operation {
		t.Errorf("Operation = %v, want %v", got.Operation, h.Operation)
	}
	if !bytes.Equal(got.SenderHwAddr, h.SenderHwAddr) {
		t.Errorf("SenderHwAddr = %v, want %v", got.SenderHwAddr, h.SenderHwAddr)
	}
	if !bytes.Equal(got.TargetProtoAddr, h.TargetProtoAddr) {
		t.Errorf("TargetProtoAddr = %v, want %v", got.TargetProtoAddr, h.TargetProtoAddr)
	}
}

func TestFromSliceRoundtripNonEthernetSizes(t *testing.T) {
	// e.g. a 4-byte hardware address, 16-byte protocol address.
	h := Header{
		HwAddrType:      common.ArpHardwareID(7),
		ProtoAddrType:   common.EtherTypeIPv6,
		HwAddrSize:      4,
		ProtoAddrSize:   16,
		Operation:       OperationReply,
		SenderHwAddr:    []byte{1, 2, 3, 4},
		SenderProtoAddr: bytes.Repeat([]byte{0xaa}, 16),
		TargetHwAddr:    []byte{5, 6, 7, 8},
		TargetProtoAddr: bytes.Repeat([]byte{0xbb}, 16),
	}
	wire := h.ToBytes()
	if len(wire) != h.HeaderLen() {
		t.Fatalf("ToBytes() length = %d, want %d", len(wire), h.HeaderLen())
	}

	s, rest, err := FromSlice(wire)
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("rest length = %d, want 0", len(rest))
	}
	got := s.ToHeader()
	if !bytes.Equal(got.SenderProtoAddr, h.SenderProtoAddr) {
		t.Errorf("SenderProtoAddr mismatch")
	}
	if !bytes.Equal(got.TargetHwAddr, h.TargetHwAddr) {
		t.Errorf("TargetHwAddr mismatch")
	}
}

func TestFromSliceTooShort(t *testing.T) {
	_, _, err := FromSlice([]byte{0x00, 0x01, 0x08, 0x00})
	if err == nil {
		t.Fatal("FromSlice() should fail for too-short input")
	}
	var lenErr *common.LenError
	if !errors.As(err, &lenErr) {
		t.Fatalf("error type = %T, want *common.LenError", err)
	}
	if lenErr.LenSource != common.LenSourceSlice {
		t.Errorf("LenSource = %v, want %v", lenErr.LenSource, common.LenSourceSlice)
	}
}

func TestFromSliceAddrLengthTruncation(t *testing.T) {
	data := []byte{
		0x00, 0x01, // hw type: Ethernet
		0x08, 0x00, // proto type: IPv4
		0x06,       // hw addr len
		0x04,       // proto addr len
		0x00, 0x01, // operation: request
		0x00, 0x11, 0x22, // truncated sender MAC (needs 6 bytes)
	}
	_, _, err := FromSlice(data)
	if err == nil {
		t.Fatal("FromSlice() should fail when addresses are truncated")
	}
	var lenErr *common.LenError
	if !errors.As(err, &lenErr) {
		t.Fatalf("error type = %T, want *common.LenError", err)
	}
	if lenErr.LenSource != common.LenSourceArpAddrLengths {
		t.Errorf("LenSource = %v, want %v", lenErr.LenSource, common.LenSourceArpAddrLengths)
	}
}

func TestHeaderToBytesWrite(t *testing.T) {
	h := Header{
		HwAddrType:      common.ArpHardwareIDEthernet,
		ProtoAddrType:   common.EtherTypeIPv4,
		HwAddrSize:      6,
		ProtoAddrSize:   4,
		Operation:       OperationRequest,
		SenderHwAddr:    []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		SenderProtoAddr: []byte{192, 168, 1, 1},
		TargetHwAddr:    []byte{0, 0, 0, 0, 0, 0},
		TargetProtoAddr: []byte{192, 168, 1, 2},
	}
	buf := make([]byte, h.HeaderLen())
	w := common.NewWriter(buf)
	if err := h.Write(w); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !bytes.Equal(w.Written(), h.ToBytes()) {
		t.Errorf("Write() produced %x, want %x", w.Written(), h.ToBytes())
	}
}

func TestArpEthIpv4FromSliceRoundtrip(t *testing.T) {
	senderMac := common.MACAddress{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	senderIpv4 := common.IPv4Address{192, 168, 1, 1}
	targetMac := common.MACAddress{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}
	targetIpv4 := common.IPv4Address{192, 168, 1, 2}

	p := NewReply(senderMac, senderIpv4, targetMac, targetIpv4)
	wire := p.ToBytes()
	payload := []byte{0x01, 0x02}
	data := append(append([]byte(nil), wire[:]...), payload...)

	parsed, rest, err := ArpEthIpv4FromSlice(data)
	if err != nil {
		t.Fatalf("ArpEthIpv4FromSlice() error = %v", err)
	}
	if !bytes.Equal(rest, payload) {
		t.Errorf("rest = %v, want %v", rest, payload)
	}
	if parsed != p {
		t.Errorf("parsed = %+v, want %+v", parsed, p)
	}
}

func TestArpEthIpv4FromHeaderErrors(t *testing.T) {
	base := Header{
		HwAddrType:      common.ArpHardwareIDEthernet,
		ProtoAddrType:   common.EtherTypeIPv4,
		HwAddrSize:      6,
		ProtoAddrSize:   4,
		Operation:       OperationRequest,
		SenderHwAddr:    make([]byte, 6),
		SenderProtoAddr: make([]byte, 4),
		TargetHwAddr:    make([]byte, 6),
		TargetProtoAddr: make([]byte, 4),
	}

	tests := []struct {
		name   string
		modify func(Header) Header
		reason string
	}{
		{
			name:   "wrong hardware type",
			modify: func(h Header) Header { h.HwAddrType = common.ArpHardwareIDFrameRelay; return h },
			reason: "hardware_type",
		},
		{
			name:   "wrong protocol type",
			modify: func(h Header) Header { h.ProtoAddrType = common.EtherTypeIPv6; return h },
			reason: "protocol_type",
		},
		{
			name: "wrong hardware addr len",
			modify: func(h Header) Header {
				h.HwAddrSize = 4
				h.SenderHwAddr = make([]byte, 4)
				h.TargetHwAddr = make([]byte, 4)
				return h
			},
			reason: "hardware_addr_len",
		},
		{
			name: "wrong protocol addr len",
			modify: func(h Header) Header {
				h.ProtoAddrSize = 16
				h.SenderProtoAddr = make([]byte, 16)
				h.TargetProtoAddr = make([]byte, 16)
				return h
			},
			reason: "protocol_addr_len",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ArpEthIpv4FromHeader(tt.modify(base))
			if err == nil {
				t.Fatal("ArpEthIpv4FromHeader() should have failed")
			}
			var fromErr *common.ArpEthIpv4FromError
			if !errors.As(err, &fromErr) {
				t.Fatalf("error type = %T, want *common.ArpEthIpv4FromError", err)
			}
			if fromErr.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", fromErr.Reason, tt.reason)
			}
		})
	}
}

func TestNewRequestNewReply(t *testing.T) {
	senderMac := common.MACAddress{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	senderIpv4 := common.IPv4Address{192, 168, 1, 1}
	targetMac := common.MACAddress{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}
	targetIpv4 := common.IPv4Address{192, 168, 1, 2}

	req := NewRequest(senderMac, senderIpv4, targetIpv4)
	if !req.IsRequest() || req.IsReply() {
		t.Error("NewRequest() should be a request, not a reply")
	}
	if req.TargetMac != (common.MACAddress{}) {
		t.Errorf("NewRequest() TargetMac = %v, want zero", req.TargetMac)
	}

	rep := NewReply(senderMac, senderIpv4, targetMac, targetIpv4)
	if !rep.IsReply() || rep.IsRequest() {
		t.Error("NewReply() should be a reply, not a request")
	}
	if rep.TargetMac != targetMac {
		t.Errorf("NewReply() TargetMac = %v, want %v", rep.TargetMac, targetMac)
	}
}

func TestArpEthIpv4PacketString(t *testing.T) {
	p := NewRequest(
		common.MACAddress{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		common.IPv4Address{192, 168, 1, 1},
		common.IPv4Address{192, 168, 1, 2},
	)
	if p.String() == "" {
		t.Error("String() returned empty string")
	}
}

func TestOperationString(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OperationRequest, "Request"},
		{OperationReply, "Reply"},
		{Operation(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.op.String(); got != tt.want {
				t.Errorf("Operation.String() = %q, want %q", got, tt.want)
			}
		})
	}
}
