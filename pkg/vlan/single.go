// Package vlan implements the IEEE 802.1Q single-tag and 802.1ad
// double-tag header codecs, in the same from_slice/to_header/to_bytes
// style as pkg/ethernet.
package vlan

import (
	"encoding/binary"
	"fmt"

	"github.com/netlayers/etherslice/pkg/common"
)

// HeaderLen is the fixed size of a single VLAN tag in bytes: PCP (3b) |
// DEI (1b) | VID (12b), followed by the inner EtherType.
const HeaderLen = 4

// Header is an owned, decoded 802.1Q VLAN tag.
type Header struct {
	Pcp       common.VlanPcp
	Dei       bool
	Vid       common.VlanId
	EtherType common.EtherType
}

// ToBytes serializes h to its fixed 4-byte wire representation.
func (h Header) ToBytes() [HeaderLen]byte {
	var b [HeaderLen]byte
	tci := uint16(h.Pcp.Value())<<13 | uint16(h.Vid.Value())
	if h.Dei {
		tci |= 1 << 12
	}
	binary.BigEndian.PutUint16(b[0:2], tci)
	binary.BigEndian.PutUint16(b[2:4], uint16(h.EtherType))
	return b
}

// Write serializes h into w.
func (h Header) Write(w *common.Writer) error {
	b := h.ToBytes()
	return w.PutBytes(b[:])
}

// String returns a human-readable summary of the header.
func (h Header) String() string {
	return fmt.Sprintf("Vlan{Pcp=%d, Dei=%t, Vid=%d, EtherType=%s}", h.Pcp.Value(), h.Dei, h.Vid.Value(), h.EtherType)
}

// Slice is a zero-copy, validated view over a single VLAN tag.
type Slice struct {
	data []byte
}

// FromSlice validates that data holds at least one VLAN tag and returns a
// Slice view over it, along with the remaining bytes after the tag.
func FromSlice(data []byte) (Slice, []byte, error) {
	if len(data) < HeaderLen {
		return Slice{}, nil, &common.LenError{
			Required:  HeaderLen,
			Actual:    len(data),
			Layer:     common.LayerLinkExt,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
	}
	return Slice{data: data[:HeaderLen]}, data[HeaderLen:], nil
}

// Pcp returns the 3-bit priority code point.
func (s Slice) Pcp() common.VlanPcp {
	return common.NewVlanPcpUnchecked(uint8(binary.BigEndian.Uint16(s.data[0:2]) >> 13))
}

// Dei returns the drop-eligible-indicator bit.
func (s Slice) Dei() bool {
	return binary.BigEndian.Uint16(s.data[0:2])&(1<<12) != 0
}

// Vid returns the 12-bit VLAN identifier.
func (s Slice) Vid() common.VlanId {
	return common.NewVlanIdUnchecked(binary.BigEndian.Uint16(s.data[0:2]) & common.VlanIdMax)
}

// EtherType returns the dispatch discriminator for the header following
// this tag, which may itself be another VLAN tag (double tagging).
func (s Slice) EtherType() common.EtherType {
	return common.EtherType(binary.BigEndian.Uint16(s.data[2:4]))
}

// ToHeader copies the view's fields into an owned Header value.
func (s Slice) ToHeader() Header {
	return Header{
		Pcp:       s.Pcp(),
		Dei:       s.Dei(),
		Vid:       s.Vid(),
		EtherType: s.EtherType(),
	}
}
