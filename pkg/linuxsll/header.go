// Package linuxsll implements the Linux "cooked capture" (SLL v1) link
// layer header codec, used by libpcap/tcpdump when capturing on the
// "any" pseudo-interface.
package linuxsll

import (
	"encoding/binary"
	"fmt"

	"github.com/netlayers/etherslice/pkg/common"
)

// HeaderLen is the fixed size of a Linux SLL v1 header in bytes:
//
//	+----------------+--------------+----------------+------------------+----------------+
//	| packet_type(2) | arp_hrd(2)   | addr_len(2)    | addr[8] (padded) | protocol(2)    |
//	+----------------+--------------+----------------+------------------+----------------+
const HeaderLen = 16

// addrCapacity is the fixed width of the padded link-layer address
// field; real addresses shorter than this are zero-padded on the right.
const addrCapacity = 8

// Header is an owned, decoded Linux SLL v1 header.
type Header struct {
	PacketType   common.LinuxSllPacketType
	ArpHwType    common.ArpHardwareID
	AddrLen      uint16
	Addr         [addrCapacity]byte
	ProtocolType common.LinuxSllProtocolType
}

// ToBytes serializes h to its fixed 16-byte wire representation.
func (h Header) ToBytes() [HeaderLen]byte {
	var b [HeaderLen]byte
	binary.BigEndian.PutUint16(b[0:2], uint16(h.PacketType))
	binary.BigEndian.PutUint16(b[2:4], uint16(h.ArpHwType))
	binary.BigEndian.PutUint16(b[4:6], h.AddrLen)
	copy(b[6:14], h.Addr[:])
	binary.BigEndian.PutUint16(b[14:16], uint16(h.ProtocolType))
	return b
}

// Write serializes h into w.
func (h Header) Write(w *common.Writer) error {
	b := h.ToBytes()
	return w.PutBytes(b[:])
}

// IsEtherType reports whether ProtocolType should be interpreted as an
// EtherType, which depends on ArpHwType.
func (h Header) IsEtherType() bool {
	return h.ProtocolType.IsEtherType(h.ArpHwType)
}

// String returns a human-readable summary of the header.
func (h Header) String() string {
	return fmt.Sprintf("LinuxSll{PacketType=%s, ArpHwType=%s, AddrLen=%d, ProtocolType=0x%04x}",
		h.PacketType, h.ArpHwType, h.AddrLen, uint16(h.ProtocolType))
}

// Slice is a zero-copy, validated view over a Linux SLL v1 header.
type Slice struct {
	data []byte
}

// FromSlice validates that data holds at least a full SLL header and
// returns a Slice view over it, along with the remaining bytes after
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

// PacketType returns how the packet relates to the capturing interface.
func (s Slice) PacketType() common.LinuxSllPacketType {
	return common.LinuxSllPacketType(binary.BigEndian.Uint16(s.data[0:2]))
}

// ArpHwType returns the hardware-address-type field.
func (s Slice) ArpHwType() common.ArpHardwareID {
	return common.ArpHardwareID(binary.BigEndian.Uint16(s.data[2:4]))
}

// AddrLen returns the number of valid bytes in Addr (at most 8).
func (s Slice) AddrLen() uint16 {
	return binary.BigEndian.Uint16(s.data[4:6])
}

// Addr returns the padded 8-byte link-layer address field. Only the
// first AddrLen bytes are meaningful.
func (s Slice) Addr() [addrCapacity]byte {
	var addr [addrCapacity]byte
	copy(addr[:], s.data[6:14])
	return addr
}

// ProtocolType returns the protocol_type field. Its interpretation
// depends on ArpHwType; see LinuxSllProtocolType.IsEtherType.
func (s Slice) ProtocolType() common.LinuxSllProtocolType {
	return common.LinuxSllProtocolType(binary.BigEndian.Uint16(s.data[14:16]))
}

// IsEtherType reports whether ProtocolType should be interpreted as an
// EtherType for this packet's ArpHwType.
func (s Slice) IsEtherType() bool {
	return s.ProtocolType().IsEtherType(s.ArpHwType())
}

// ToHeader copies the view's fields into an owned Header value.
func (s Slice) ToHeader() Header {
	return Header{
		PacketType:   s.PacketType(),
		ArpHwType:    s.ArpHwType(),
		AddrLen:      s.AddrLen(),
		Addr:         s.Addr(),
		ProtocolType: s.ProtocolType(),
	}
}
