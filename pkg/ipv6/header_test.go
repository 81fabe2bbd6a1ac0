package ipv6

import (
	"bytes"
	"errors"
	"testing"

	"github.com/netlayers/etherslice/pkg/common"
)

func mustDscp(v uint8) common.Ipv4Dscp {
	d, err := common.TryNewIpv4Dscp(v)
	if err != nil {
		panic(err)
	}
	return d
}

func mustEcn(v uint8) common.Ipv4Ecn {
	e, err := common.TryNewIpv4Ecn(v)
	if err != nil {
		panic(err)
	}
	return e
}

func mustFlowLabel(v uint32) common.Ipv6FlowLabel {
	f, err := common.TryNewIpv6FlowLabel(v)
	if err != nil {
		panic(err)
	}
	return f
}

func baseHeader() Header {
	return Header{
		Dscp:        mustDscp(0x3A),
		Ecn:         mustEcn(0x02),
		FlowLabel:   mustFlowLabel(0xABCDE),
		PayloadLen:  8,
		NextHeader:  common.IPNumberUDP,
		HopLimit:    64,
		Source:      common.IPv6Address{0x20, 0x01, 0x0d, 0xb8},
		Destination: common.IPv6Address{0x20, 0x01, 0x0d, 0xb9},
	}
}

func TestFromSliceToHeaderRoundtrip(t *testing.T) {
	h := baseHeader()
	wire := h.ToBytes()
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	data := append(wire[:], payload...)

	s, rest, err := FromSlice(data)
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	if !bytes.Equal(rest, payload) {
		t.Errorf("rest = %v, want %v", rest, payload)
	}
	got := s.ToHeader()
	if got != h {
		t.Errorf("ToHeader() = %+v, want %+v", got, h)
	}
}

func TestFromSliceTooShort(t *testing.T) {
	_, _, err := FromSlice(make([]byte, 10))
	var lenErr *common.LenError
	if !errors.As(err, &lenErr) {
		t.Fatalf("error type = %T, want *common.LenError", err)
	}
}

func TestFromSliceWrongVersion(t *testing.T) {
	data := make([]byte, HeaderLen)
	data[0] = 0x40 // version 4
	_, _, err := FromSlice(data)
	var verErr *common.UnsupportedIpVersionError
	if !errors.As(err, &verErr) {
		t.Fatalf("error type = %T, want *common.UnsupportedIpVersionError", err)
	}
}

func TestPayloadFromSliceClips(t *testing.T) {
	h := baseHeader()
	h.PayloadLen = 4
	wire := h.ToBytes()
	data := append(wire[:], []byte{1, 2, 3, 4, 0xff, 0xff}...)

	_, rest, err := PayloadFromSlice(data)
	if err != nil {
		t.Fatalf("PayloadFromSlice() error = %v", err)
	}
	if !bytes.Equal(rest, []byte{1, 2, 3, 4}) {
		t.Errorf("rest = %v, want %v", rest, []byte{1, 2, 3, 4})
	}
}

func TestPayloadFromSliceTruncated(t *testing.T) {
	h := baseHeader()
	h.PayloadLen = 20
	wire := h.ToBytes()
	data := append(wire[:], []byte{1, 2}...)

	_, _, err := PayloadFromSlice(data)
	var lenErr *common.LenError
	if !errors.As(err, &lenErr) {
		t.Fatalf("error type = %T, want *common.LenError", err)
	}
	if lenErr.LenSource != common.LenSourceIpv6HeaderPayloadLen {
		t.Errorf("LenSource = %v, want %v", lenErr.LenSource, common.LenSourceIpv6HeaderPayloadLen)
	}
}

func TestHeaderString(t *testing.T) {
	if baseHeader().String() == "" {
		t.Error("String() returned empty string")
	}
}
