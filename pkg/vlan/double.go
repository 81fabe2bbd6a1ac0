package vlan

import "github.com/netlayers/etherslice/pkg/common"

// DoubleHeaderLen is the fixed size of two stacked VLAN tags (802.1ad
// provider bridging "Q-in-Q").
const DoubleHeaderLen = 2 * HeaderLen

// DoubleHeader is an owned pair of VLAN tags: an outer (service) tag and
// an inner (customer) tag.
type DoubleHeader struct {
	Outer Header
	Inner Header
}

// ToBytes serializes both tags back to back.
func (h DoubleHeader) ToBytes() [DoubleHeaderLen]byte {
	var b [DoubleHeaderLen]byte
	outer := h.Outer.ToBytes()
	inner := h.Inner.ToBytes()
	copy(b[0:HeaderLen], outer[:])
	copy(b[HeaderLen:], inner[:])
	return b
}

// Write serializes h into w.
func (h DoubleHeader) Write(w *common.Writer) error {
	if err := h.Outer.Write(w); err != nil {
		return err
	}
	return h.Inner.Write(w)
}

// DoubleSlice is a zero-copy, validated view over two stacked VLAN tags.
type DoubleSlice struct {
	Outer Slice
	Inner Slice
}

// DoubleFromSlice parses an outer VLAN tag and, since the outer tag's
// EtherType must itself name a VLAN type, an inner tag immediately after
// it. It fails with NonVlanEtherTypeError if the outer tag's EtherType
// isn't a VLAN tag type.
func DoubleFromSlice(data []byte) (DoubleSlice, []byte, error) {
	outer, rest, err := FromSlice(data)
	if err != nil {
		return DoubleSlice{}, nil, err
	}
	if !outer.EtherType().IsVlan() {
		return DoubleSlice{}, nil, &common.NonVlanEtherTypeError{EtherType: outer.EtherType()}
	}
	inner, rest, err := FromSlice(rest)
	if err != nil {
		return DoubleSlice{}, nil, err
	}
	return DoubleSlice{Outer: outer, Inner: inner}, rest, nil
}

// ToHeader copies both tags' fields into an owned DoubleHeader value.
func (s DoubleSlice) ToHeader() DoubleHeader {
	return DoubleHeader{Outer: s.Outer.ToHeader(), Inner: s.Inner.ToHeader()}
}
