// Package macsec implements the IEEE 802.1AE MACsec SecTag header codec.
package macsec

import (
	"encoding/binary"
	"fmt"

	"github.com/netlayers/etherslice/pkg/common"
)

// MinLen is the smallest possible MACsec SecTag: no SCI, no trailing
// EtherType (payload is encrypted or modified).
const MinLen = 6

// MaxLen is the largest possible MACsec SecTag: SCI present and the
// next EtherType carried in the clear (unmodified payload).
const MaxLen = 16

// PTypeKind discriminates the four combinations of the TCI's E
// (encrypted) and C (changed) bits.
type PTypeKind int

const (
	// Unmodified means the payload was neither encrypted nor changed;
	// the cleartext EtherType of the payload follows the SecTag.
	Unmodified PTypeKind = iota
	// Encrypted means the payload is encrypted (E=1, C=1).
	Encrypted
	// Modified means the payload is in the clear but was changed in a
	// way that isn't further specified (E=0, C=1).
	Modified
	// EncryptedUnmodified means the payload is encrypted but flagged as
	// unmodified at the plaintext level (E=1, C=0).
	EncryptedUnmodified
)

// PType is the tagged payload-type variant derived from the SecTag's E
// and C bits. EtherType is only meaningful when Kind is Unmodified.
type PType struct {
	Kind      PTypeKind
	EtherType common.EtherType
}

func ptypeFromBits(e, c bool) PTypeKind {
	switch {
	case !e && !c:
		return Unmodified
	case e && c:
		return Encrypted
	case !e && c:
		return Modified
	default:
		return EncryptedUnmodified
	}
}

func (p PType) bits() (e, c bool) {
	switch p.Kind {
	case Unmodified:
		return false, false
	case Encrypted:
		return true, true
	case Modified:
		return false, true
	default:
		return true, false
	}
}

// Header is an owned, decoded MACsec SecTag.
type Header struct {
	PType        PType
	EndstationID bool
	Scb          bool
	An           common.MacSecAn
	ShortLen     common.MacSecShortLen
	PacketNumber uint32
	Sci          *uint64
}

// Encrypted reports whether the payload is encrypted (TCI.E).
func (h Header) Encrypted() bool {
	return h.PType.Kind == Encrypted || h.PType.Kind == EncryptedUnmodified
}

// UserdataChanged reports whether the payload was modified (TCI.C).
func (h Header) UserdataChanged() bool {
	return h.PType.Kind == Encrypted || h.PType.Kind == Modified
}

// NextEtherType returns the cleartext EtherType following the SecTag,
// if the payload is unmodified.
func (h Header) NextEtherType() (common.EtherType, bool) {
	if h.PType.Kind == Unmodified {
		return h.PType.EtherType, true
	}
	return 0, false
}

// HeaderLen returns the total length of this header as it would be
// serialized: the fixed 6-byte SecTag, plus 8 bytes if an SCI is
// present, plus 2 bytes if the next EtherType is carried in the clear.
func (h Header) HeaderLen() int {
	n := MinLen
	if h.Sci != nil {
		n += 8
	}
	if h.PType.Kind == Unmodified {
		n += 2
	}
	return n
}

// ToBytes serializes h to its variable-length wire representation.
func (h Header) ToBytes() []byte {
	n := h.HeaderLen()
	b := make([]byte, n)

	e, c := h.PType.bits()
	tciAn := h.An.Value() & 0x03
	if c {
		tciAn |= 0b100
	}
	if e {
		tciAn |= 0b1000
	}
	if h.Scb {
		tciAn |= 0b1_0000
	}
	if h.Sci != nil {
		tciAn |= 0b10_0000
	}
	if h.EndstationID {
		tciAn |= 0b100_0000
	}
	b[0] = tciAn
	b[1] = h.ShortLen.Value() & 0x3F
	binary.BigEndian.PutUint32(b[2:6], h.PacketNumber)

	offset := 6
	if h.Sci != nil {
		binary.BigEndian.PutUint64(b[offset:offset+8], *h.Sci)
		offset += 8
	}
	if h.PType.Kind == Unmodified {
		binary.BigEndian.PutUint16(b[offset:offset+2], uint16(h.PType.EtherType))
	}
	return b
}

// Write serializes h into w.
func (h Header) Write(w *common.Writer) error {
	return w.PutBytes(h.ToBytes())
}

// String returns a human-readable summary of the header.
func (h Header) String() string {
	return fmt.Sprintf("Macsec{An=%d, ShortLen=%d, PacketNumber=%d, Sci=%v, Kind=%d}",
		h.An.Value(), h.ShortLen.Value(), h.PacketNumber, h.Sci, h.PType.Kind)
}

// Slice is a zero-copy, validated view over a MACsec SecTag within an
// input buffer.
type Slice struct {
	data []byte
}

// FromSlice validates and parses a MACsec SecTag from the start of data.
// The SecTag's own length depends on its SC (SCI present) bit and
// whether the payload is unmodified (trailing EtherType present), so the
// full length isn't known until the first byte has been read.
func FromSlice(data []byte) (Slice, []byte, error) {
	if len(data) < MinLen {
		return Slice{}, nil, &common.LenError{
			Required:  MinLen,
			Actual:    len(data),
			Layer:     common.LayerLinkExt,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
	}
	version := data[0] >> 7
	if version != 0 {
		return Slice{}, nil, &common.MacsecUnexpectedVersionError{Version: version}
	}

	n := MinLen
	hasSci := data[0]&0b10_0000 != 0
	if hasSci {
		n += 8
	}
	e := data[0]&0b1000 != 0
	c := data[0]&0b100 != 0
	unmodified := !e && !c
	if unmodified {
		n += 2
	}

	if len(data) < n {
		return Slice{}, nil, &common.LenError{
			Required:  n,
			Actual:    len(data),
			Layer:     common.LayerLinkExt,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
	}

	if shortLen := data[1] & 0x3F; unmodified && shortLen == 1 {
		return Slice{}, nil, &common.MacsecInvalidUnmodifiedShortLenError{ShortLen: shortLen}
	}

	return Slice{data: data[:n]}, data[n:], nil
}

// An returns the 2-bit association number.
func (s Slice) An() common.MacSecAn {
	return common.NewMacSecAnUnchecked(s.data[0] & 0x03)
}

// ShortLen returns the 6-bit short length field. FromSlice does not clip
// the returned rest by it, and neither do the slicers in pkg/packet: the
// payload after a SecTag runs to the end of the containing slice
// whatever this value is.
func (s Slice) ShortLen() common.MacSecShortLen {
	return common.NewMacSecShortLenUnchecked(s.data[1] & 0x3F)
}

// PacketNumber returns the 32-bit packet number.
func (s Slice) PacketNumber() uint32 {
	return binary.BigEndian.Uint32(s.data[2:6])
}

// EndstationID returns the TCI end-station-identifier bit.
func (s Slice) EndstationID() bool { return s.data[0]&0b100_0000 != 0 }

// Scb returns the TCI Ethernet-passive-optical-network broadcast bit.
func (s Slice) Scb() bool { return s.data[0]&0b1_0000 != 0 }

func (s Slice) hasSci() bool { return s.data[0]&0b10_0000 != 0 }

// Sci returns the secure channel identifier, if present.
func (s Slice) Sci() (uint64, bool) {
	if !s.hasSci() {
		return 0, false
	}
	return binary.BigEndian.Uint64(s.data[6:14]), true
}

// PType returns the tagged payload-type variant.
func (s Slice) PType() PType {
	e := s.data[0]&0b1000 != 0
	c := s.data[0]&0b100 != 0
	kind := ptypeFromBits(e, c)
	if kind != Unmodified {
		return PType{Kind: kind}
	}
	offset := 6
	if s.hasSci() {
		offset += 8
	}
	return PType{Kind: Unmodified, EtherType: common.EtherType(binary.BigEndian.Uint16(s.data[offset : offset+2]))}
}

// ToHeader copies the view's fields into an owned Header value.
func (s Slice) ToHeader() Header {
	h := Header{
		PType:        s.PType(),
		EndstationID: s.EndstationID(),
		Scb:          s.Scb(),
		An:           s.An(),
		ShortLen:     s.ShortLen(),
		PacketNumber: s.PacketNumber(),
	}
	if sci, ok := s.Sci(); ok {
		h.Sci = &sci
	}
	return h
}
