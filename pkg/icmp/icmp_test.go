package icmp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/netlayers/etherslice/pkg/common"
)

func TestEchoRoundtrip(t *testing.T) {
	h := Header{Kind: KindEchoRequest, Code: 0, Id: 0x1234, Sequence: 7}
	payload := []byte("ping")

	buf := make([]byte, MinHeaderLen+len(payload))
	w := common.NewWriter(buf)
	if err := h.Write(w, payload); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	s, rest, err := FromSlice(buf)
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	if !bytes.Equal(rest, payload) {
		t.Errorf("rest = %v, want %v", rest, payload)
	}
	if s.Kind() != KindEchoRequest {
		t.Errorf("Kind() = %v, want %v", s.Kind(), KindEchoRequest)
	}
	got := s.ToHeader()
	if got.Id != h.Id || got.Sequence != h.Sequence {
		t.Errorf("ToHeader() = %+v, want Id=%d Seq=%d", got, h.Id, h.Sequence)
	}
	if !s.VerifyChecksum(rest) {
		t.Error("VerifyChecksum() = false, want true")
	}
}

func TestTimestampRoundtrip(t *testing.T) {
	h := Header{
		Kind:               KindTimestampRequest,
		Id:                 0x0102,
		Sequence:           0x0304,
		OriginateTimestamp: 111,
		ReceiveTimestamp:   222,
		TransmitTimestamp:  333,
	}
	if got := h.HeaderLen(); got != TimestampHeaderLen {
		t.Fatalf("HeaderLen() = %d, want %d", got, TimestampHeaderLen)
	}

	buf := make([]byte, TimestampHeaderLen)
	w := common.NewWriter(buf)
	if err := h.Write(w, nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	s, rest, err := FromSlice(buf)
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("rest length = %d, want 0", len(rest))
	}
	if s.Kind() != KindTimestampRequest {
		t.Errorf("Kind() = %v, want KindTimestampRequest", s.Kind())
	}
	got := s.ToHeader()
	if got.Id != h.Id || got.Sequence != h.Sequence {
		t.Errorf("Id/Seq = %d/%d, want %d/%d", got.Id, got.Sequence, h.Id, h.Sequence)
	}
	if got.OriginateTimestamp != h.OriginateTimestamp || got.ReceiveTimestamp != h.ReceiveTimestamp || got.TransmitTimestamp != h.TransmitTimestamp {
		t.Errorf("timestamps = %+v, want Orig=%d Recv=%d Xmit=%d", got, h.OriginateTimestamp, h.ReceiveTimestamp, h.TransmitTimestamp)
	}
	if !s.VerifyChecksum(nil) {
		t.Error("VerifyChecksum() = false, want true")
	}
}

func TestRedirectRoundtrip(t *testing.T) {
	h := Header{Kind: KindRedirect, Code: 1, RedirectGateway: common.IPv4Address{192, 168, 0, 1}}
	buf := make([]byte, MinHeaderLen)
	w := common.NewWriter(buf)
	if err := h.Write(w, nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	s, _, err := FromSlice(buf)
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	got := s.ToHeader()
	if got.RedirectGateway != h.RedirectGateway {
		t.Errorf("RedirectGateway = %v, want %v", got.RedirectGateway, h.RedirectGateway)
	}
	if s.Code() != 1 {
		t.Errorf("Code() = %d, want 1", s.Code())
	}
}

func TestParameterProblemRoundtrip(t *testing.T) {
	h := Header{Kind: KindParameterProblem, Code: 0, Pointer: 3}
	buf := make([]byte, MinHeaderLen)
	w := common.NewWriter(buf)
	if err := h.Write(w, nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	s, _, err := FromSlice(buf)
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	got := s.ToHeader()
	if got.Pointer != 3 {
		t.Errorf("Pointer = %d, want 3", got.Pointer)
	}
}

func TestUnknownKindPreservesRawType(t *testing.T) {
	data := []byte{200, 5, 0, 0, 0xde, 0xad, 0xbe, 0xef}
	s, _, err := FromSlice(data)
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	if s.Kind() != KindUnknown {
		t.Fatalf("Kind() = %v, want KindUnknown", s.Kind())
	}
	got := s.ToHeader()
	if got.RawType != 200 {
		t.Errorf("RawType = %d, want 200", got.RawType)
	}
	wire := got.ToBytes()
	if wire[0] != 200 {
		t.Errorf("ToBytes()[0] = %d, want 200", wire[0])
	}
}

func TestFromSliceTooShort(t *testing.T) {
	_, _, err := FromSlice(make([]byte, 4))
	var lenErr *common.LenError
	if !errors.As(err, &lenErr) {
		t.Fatalf("error type = %T, want *common.LenError", err)
	}
}

func TestKindString(t *testing.T) {
	if KindEchoRequest.String() != "EchoRequest" {
		t.Errorf("String() = %q, want %q", KindEchoRequest.String(), "EchoRequest")
	}
	if KindUnknown.String() != "Unknown" {
		t.Errorf("String() = %q, want %q", KindUnknown.String(), "Unknown")
	}
}

func TestHeaderString(t *testing.T) {
	h := Header{Kind: KindEchoReply, Id: 1, Sequence: 2}
	if h.String() == "" {
		t.Error("String() returned empty string")
	}
}
