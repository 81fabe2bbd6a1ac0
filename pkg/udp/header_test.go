package udp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/netlayers/etherslice/pkg/common"
)

func TestFromSliceToHeaderRoundtrip(t *testing.T) {
	h := Header{SourcePort: 53, DestinationPort: 12345, Length: HeaderLen + 4}
	wire := h.ToBytes()
	payload := []byte{1, 2, 3, 4}
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
	_, _, err := FromSlice(make([]byte, 4))
	var lenErr *common.LenError
	if !errors.As(err, &lenErr) {
		t.Fatalf("error type = %T, want *common.LenError", err)
	}
}

func TestFromSliceLengthBelowHeader(t *testing.T) {
	h := Header{Length: 4}
	wire := h.ToBytes()
	_, _, err := FromSlice(wire[:])
	var lenErr *common.LenError
	if !errors.As(err, &lenErr) {
		t.Fatalf("error type = %T, want *common.LenError", err)
	}
	if lenErr.LenSource != common.LenSourceUdpHeaderLen {
		t.Errorf("LenSource = %v, want %v", lenErr.LenSource, common.LenSourceUdpHeaderLen)
	}
}

func TestFromSliceLengthExceedsData(t *testing.T) {
	h := Header{Length: HeaderLen + 10}
	wire := h.ToBytes()
	data := append(wire[:], []byte{1, 2}...)
	_, _, err := FromSlice(data)
	var lenErr *common.LenError
	if !errors.As(err, &lenErr) {
		t.Fatalf("error type = %T, want *common.LenError", err)
	}
}

func TestChecksumIpv4RoundtripAndZeroMeansNoChecksum(t *testing.T) {
	h := Header{SourcePort: 1, DestinationPort: 2, Length: HeaderLen}
	src := common.IPv4Address{10, 0, 0, 1}
	dst := common.IPv4Address{10, 0, 0, 2}
	h.Checksum = h.ComputeChecksumIpv4(src, dst, nil)

	wire := h.ToBytes()
	s, rest, err := FromSlice(wire[:])
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	if !s.VerifyChecksumIpv4(src, dst, rest) {
		t.Error("VerifyChecksumIpv4() = false, want true")
	}

	h.Checksum = 0
	wireZero := h.ToBytes()
	sZero, restZero, err := FromSlice(wireZero[:])
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	if !sZero.VerifyChecksumIpv4(src, dst, restZero) {
		t.Error("VerifyChecksumIpv4() with zero checksum should always be valid on IPv4")
	}
}

func TestHeaderString(t *testing.T) {
	h := Header{SourcePort: 1, DestinationPort: 2, Length: HeaderLen}
	if h.String() == "" {
		t.Error("String() returned empty string")
	}
}
