package macsec

import (
	"errors"
	"testing"

	"github.com/netlayers/etherslice/pkg/common"
)

func mustAn(v uint8) common.MacSecAn {
	an, err := common.TryNewMacSecAn(v)
	if err != nil {
		panic(err)
	}
	return an
}

func mustShortLen(v uint8) common.MacSecShortLen {
	sl, err := common.TryNewMacSecShortLen(v)
	if err != nil {
		panic(err)
	}
	return sl
}

func TestFromSliceToBytesRoundtripUnmodifiedNoSci(t *testing.T) {
	h := Header{
		PType:        PType{Kind: Unmodified, EtherType: common.EtherTypeIPv4},
		An:           mustAn(2),
		ShortLen:     mustShortLen(0),
		PacketNumber: 0x01020304,
	}
	wire := h.ToBytes()
	if len(wire) != MinLen+2 {
		t.Fatalf("ToBytes() length = %d, want %d", len(wire), MinLen+2)
	}

	s, rest, err := FromSlice(wire)
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("rest length = %d, want 0", len(rest))
	}
	got := s.ToHeader()
	if got.An.Value() != h.An.Value() {
		t.Errorf("An = %d, want %d", got.An.Value(), h.An.Value())
	}
	if got.PacketNumber != h.PacketNumber {
		t.Errorf("PacketNumber = %d, want %d", got.PacketNumber, h.PacketNumber)
	}
	if got.PType.Kind != Unmodified || got.PType.EtherType != common.EtherTypeIPv4 {
		t.Errorf("PType = %+v, want Unmodified/%v", got.PType, common.EtherTypeIPv4)
	}
	if got.Sci != nil {
		t.Errorf("Sci = %v, want nil", got.Sci)
	}
}

func TestFromSliceToBytesRoundtripEncryptedWithSci(t *testing.T) {
	sci := uint64(0xAABBCCDDEEFF0011)
	h := Header{
		PType:        PType{Kind: Encrypted},
		EndstationID: true,
		Scb:          true,
		An:           mustAn(3),
		ShortLen:     mustShortLen(10),
		PacketNumber: 42,
		Sci:          &sci,
	}
	wire := h.ToBytes()
	if len(wire) != MinLen+8 {
		t.Fatalf("ToBytes() length = %d, want %d", len(wire), MinLen+8)
	}

	s, rest, err := FromSlice(wire)
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("rest length = %d, want 0", len(rest))
	}
	got := s.ToHeader()
	if got.Sci == nil || *got.Sci != sci {
		t.Errorf("Sci = %v, want %d", got.Sci, sci)
	}
	if !got.EndstationID || !got.Scb {
		t.Error("EndstationID/Scb not preserved")
	}
	if got.PType.Kind != Encrypted {
		t.Errorf("PType.Kind = %v, want Encrypted", got.PType.Kind)
	}
	if !got.Encrypted() {
		t.Error("Encrypted() = false, want true")
	}
}

func TestFromSliceUnexpectedVersion(t *testing.T) {
	data := make([]byte, MinLen)
	data[0] = 0x80 // version bit set

	_, _, err := FromSlice(data)
	if err == nil {
		t.Fatal("FromSlice() should fail on non-zero version")
	}
	var verErr *common.MacsecUnexpectedVersionError
	if !errors.As(err, &verErr) {
		t.Fatalf("error type = %T, want *common.MacsecUnexpectedVersionError", err)
	}
}

func TestFromSliceInvalidUnmodifiedShortLen(t *testing.T) {
	data := make([]byte, MinLen+2)
	data[1] = 1 // short_len=1, invalid when unmodified (E=0,C=0)

	_, _, err := FromSlice(data)
	if err == nil {
		t.Fatal("FromSlice() should fail on short_len=1 with unmodified payload")
	}
	var slErr *common.MacsecInvalidUnmodifiedShortLenError
	if !errors.As(err, &slErr) {
		t.Fatalf("error type = %T, want *common.MacsecInvalidUnmodifiedShortLenError", err)
	}
}

func TestFromSliceTooShort(t *testing.T) {
	_, _, err := FromSlice([]byte{0, 0, 0})
	if err == nil {
		t.Fatal("FromSlice() should fail for too-short input")
	}
	var lenErr *common.LenError
	if !errors.As(err, &lenErr) {
		t.Fatalf("error type = %T, want *common.LenError", err)
	}
}

func TestPTypeKinds(t *testing.T) {
	tests := []struct {
		e, c bool
		want PTypeKind
	}{
		{false, false, Unmodified},
		{true, true, Encrypted},
		{false, true, Modified},
		{true, false, EncryptedUnmodified},
	}
	for _, tt := range tests {
		if got := ptypeFromBits(tt.e, tt.c); got != tt.want {
			t.Errorf("ptypeFromBits(%v, %v) = %v, want %v", tt.e, tt.c, got, tt.want)
		}
	}
}

func TestHeaderLen(t *testing.T) {
	sci := uint64(1)
	tests := []struct {
		name string
		h    Header
		want int
	}{
		{"minimal", Header{PType: PType{Kind: Encrypted}}, MinLen},
		{"with sci", Header{PType: PType{Kind: Encrypted}, Sci: &sci}, MinLen + 8},
		{"unmodified", Header{PType: PType{Kind: Unmodified}}, MinLen + 2},
		{"unmodified with sci", Header{PType: PType{Kind: Unmodified}, Sci: &sci}, MinLen + 8 + 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.h.HeaderLen(); got != tt.want {
				t.Errorf("HeaderLen() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestUserdataChangedMatchesWireBit(t *testing.T) {
	kinds := []PTypeKind{Unmodified, Encrypted, Modified, EncryptedUnmodified}
	for _, kind := range kinds {
		h := Header{PType: PType{Kind: kind, EtherType: common.EtherTypeIPv4}}
		wire := h.ToBytes()
		wireC := wire[0]&0b100 != 0
		if h.UserdataChanged() != wireC {
			t.Errorf("Kind=%v: UserdataChanged() = %v, want %v (wire C bit)", kind, h.UserdataChanged(), wireC)
		}
	}
}

func TestHeaderString(t *testing.T) {
	h := Header{PType: PType{Kind: Encrypted}, An: mustAn(1)}
	if h.String() == "" {
		t.Error("String() returned empty string")
	}
}
