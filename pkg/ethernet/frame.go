// Package ethernet implements the Ethernet II header codec: decoding a
// frame header from a byte slice without copying, and serializing a typed
// header value back to bytes.
package ethernet

import (
	"encoding/binary"
	"fmt"

	"github.com/netlayers/etherslice/pkg/common"
)

// HeaderLen is the fixed size of an Ethernet II header in bytes.
//
//	+-------------------+-------------------+-----------+
//	| Destination (6B)  | Source (6B)       | Type (2B) |
//	+-------------------+-------------------+-----------+
const HeaderLen = 14

// Header is an owned, decoded Ethernet II header.
type Header struct {
	Destination common.MACAddress
	Source      common.MACAddress
	EtherType   common.EtherType
}

// ToBytes serializes h to its fixed 14-byte wire representation.
func (h Header) ToBytes() [HeaderLen]byte {
	var b [HeaderLen]byte
	copy(b[0:6], h.Destination[:])
	copy(b[6:12], h.Source[:])
	binary.BigEndian.PutUint16(b[12:14], uint16(h.EtherType))
	return b
}

// Write serializes h into w.
func (h Header) Write(w *common.Writer) error {
	if err := w.PutMAC(h.Destination); err != nil {
		return err
	}
	if err := w.PutMAC(h.Source); err != nil {
		return err
	}
	return w.PutUint16(uint16(h.EtherType))
}

// IsBroadcast reports whether the frame is addressed to the broadcast MAC.
func (h Header) IsBroadcast() bool { return h.Destination.IsBroadcast() }

// IsMulticast reports whether the destination MAC is a multicast address.
func (h Header) IsMulticast() bool { return h.Destination.IsMulticast() }

// String returns a human-readable summary of the header.
func (h Header) String() string {
	return fmt.Sprintf("Ethernet2{Dst=%s, Src=%s, EtherType=%s}", h.Destination, h.Source, h.EtherType)
}

// Slice is a zero-copy, validated view over an Ethernet II header within
// an input buffer. It borrows the slice passed to FromSlice; callers must
// not use it beyond that slice's lifetime.
type Slice struct {
	data []byte
}

// FromSlice validates that data holds at least a full Ethernet II header
// and returns a Slice view over it, along with the remaining bytes after
// the header.
func FromSlice(data []byte) (Slice, []byte, error) {
	if len(data) < HeaderLen {
		return Slice{}, nil, &common.LenError{
			Required:  HeaderLen,
			Actual:    len(data),
			Layer:     common.LayerLink,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
	}
	return Slice{data: data[:HeaderLen]}, data[HeaderLen:], nil
}

// Destination returns the destination MAC address.
func (s Slice) Destination() common.MACAddress {
	var mac common.MACAddress
	copy(mac[:], s.data[0:6])
	return mac
}

// Source returns the source MAC address.
func (s Slice) Source() common.MACAddress {
	var mac common.MACAddress
	copy(mac[:], s.data[6:12])
	return mac
}

// EtherType returns the dispatch discriminator for the next header.
func (s Slice) EtherType() common.EtherType {
	return common.EtherType(binary.BigEndian.Uint16(s.data[12:14]))
}

// SliceBytes returns the raw 14 header bytes this view was built from.
func (s Slice) SliceBytes() []byte { return s.data }

// ToHeader copies the view's fields into an owned Header value.
func (s Slice) ToHeader() Header {
	return Header{
		Destination: s.Destination(),
		Source:      s.Source(),
		EtherType:   s.EtherType(),
	}
}
