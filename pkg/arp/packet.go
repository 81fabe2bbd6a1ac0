// Package arp implements the generic Address Resolution Protocol (RFC
// 826) header codec, plus an ArpEthIpv4Packet specialization for the
// overwhelmingly common Ethernet/IPv4 case.
package arp

import (
	"encoding/binary"
	"fmt"

	"github.com/netlayers/etherslice/pkg/common"
)

// FixedHeaderLen is the size of the fixed portion of an ARP header,
// before the four variable-length addresses:
//
//	+----------------+-----------------+---------+----------+-----------+
//	| hw_addr_type(2)| proto_addr_type(2)| hw_len(1)| proto_len(1)| op(2) |
//	+----------------+-----------------+---------+----------+-----------+
const FixedHeaderLen = 8

// Operation is the ARP operation code.
type Operation uint16

const (
	// OperationRequest is an ARP request ("who has this address?").
	OperationRequest Operation = 1
	// OperationReply is an ARP reply ("I have this address, here it is").
	OperationReply Operation = 2
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OperationRequest:
		return "Request"
	case OperationReply:
		return "Reply"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(op))
	}
}

// Header is an owned, decoded generic ARP header. The four address
// fields are raw byte slices because their width is determined at
// runtime by HwAddrSize/ProtoAddrSize rather than fixed at compile time;
// callers that know they're dealing with Ethernet/IPv4 should prefer
// ArpEthIpv4Packet.
type Header struct {
	HwAddrType      common.ArpHardwareID
	ProtoAddrType   common.EtherType
	HwAddrSize      uint8
	ProtoAddrSize   uint8
	Operation       Operation
	SenderHwAddr    []byte
	SenderProtoAddr []byte
	TargetHwAddr    []byte
	TargetProtoAddr []byte
}

// PayloadLen returns the combined length of the four address fields:
// 2*(hw_addr_size + proto_addr_size).
func (h Header) PayloadLen() int {
	return 2 * (int(h.HwAddrSize) + int(h.ProtoAddrSize))
}

// HeaderLen returns the total serialized length of h.
func (h Header) HeaderLen() int {
	return FixedHeaderLen + h.PayloadLen()
}

// ToBytes serializes h to its variable-length wire representation.
func (h Header) ToBytes() []byte {
	b := make([]byte, h.HeaderLen())
	binary.BigEndian.PutUint16(b[0:2], uint16(h.HwAddrType))
	binary.BigEndian.PutUint16(b[2:4], uint16(h.ProtoAddrType))
	b[4] = h.HwAddrSize
	b[5] = h.ProtoAddrSize
	binary.BigEndian.PutUint16(b[6:8], uint16(h.Operation))

	off := FixedHeaderLen
	off += copy(b[off:], h.SenderHwAddr)
	off += copy(b[off:], h.SenderProtoAddr)
	off += copy(b[off:], h.TargetHwAddr)
	copy(b[off:], h.TargetProtoAddr)
	return b
}

// Write serializes h into w.
func (h Header) Write(w *common.Writer) error {
	return w.PutBytes(h.ToBytes())
}

// String returns a human-readable representation of the header.
func (h Header) String() string {
	return fmt.Sprintf("Arp{Op=%s, HwAddrType=%s, ProtoAddrType=%s, HwAddrSize=%d, ProtoAddrSize=%d}",
		h.Operation, h.HwAddrType, h.ProtoAddrType, h.HwAddrSize, h.ProtoAddrSize)
}

// Slice is a zero-copy, validated view over a generic ARP header.
type Slice struct {
	data     []byte
	hwLen    int
	protoLen int
}

// FromSlice validates that data holds a full ARP header (fixed portion
// plus the four variable-length addresses it describes) and returns a
// Slice view over it, along with the remaining bytes after the header.
func FromSlice(data []byte) (Slice, []byte, error) {
	if len(data) < FixedHeaderLen {
		return Slice{}, nil, &common.LenError{
			Required:  FixedHeaderLen,
			Actual:    len(data),
			Layer:     common.LayerNet,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
	}
	hwLen := int(data[4])
	protoLen := int(data[5])
	total := FixedHeaderLen + 2*(hwLen+protoLen)
	if len(data) < total {
		return Slice{}, nil, &common.LenError{
			Required:  total,
			Actual:    len(data),
			Layer:     common.LayerNet,
			LenSource: common.LenSourceArpAddrLengths,
			Offset:    0,
		}
	}
	return Slice{data: data[:total], hwLen: hwLen, protoLen: protoLen}, data[total:], nil
}

// HwAddrType returns the hardware address type field.
func (s Slice) HwAddrType() common.ArpHardwareID {
	return common.ArpHardwareID(binary.BigEndian.Uint16(s.data[0:2]))
}

// ProtoAddrType returns the protocol address type field.
func (s Slice) ProtoAddrType() common.EtherType {
	return common.EtherType(binary.BigEndian.Uint16(s.data[2:4]))
}

// HwAddrSize returns the hardware address length in bytes.
func (s Slice) HwAddrSize() uint8 { return s.data[4] }

// ProtoAddrSize returns the protocol address length in bytes.
func (s Slice) ProtoAddrSize() uint8 { return s.data[5] }

// Operation returns the ARP operation code.
func (s Slice) Operation() Operation {
	return Operation(binary.BigEndian.Uint16(s.data[6:8]))
}

// SenderHwAddr returns the sender hardware address sub-slice, borrowed
// from the input buffer.
func (s Slice) SenderHwAddr() []byte {
	return s.data[FixedHeaderLen : FixedHeaderLen+s.hwLen]
}

// SenderProtoAddr returns the sender protocol address sub-slice.
func (s Slice) SenderProtoAddr() []byte {
	start := FixedHeaderLen + s.hwLen
	return s.data[start : start+s.protoLen]
}

// TargetHwAddr returns the target hardware address sub-slice.
func (s Slice) TargetHwAddr() []byte {
	start := FixedHeaderLen + s.hwLen + s.protoLen
	return s.data[start : start+s.hwLen]
}

// TargetProtoAddr returns the target protocol address sub-slice.
func (s Slice) TargetProtoAddr() []byte {
	start := FixedHeaderLen + 2*s.hwLen + s.protoLen
	return s.data[start : start+s.protoLen]
}

// ToHeader copies the view's fields into an owned Header value. The
// address fields are copied (not aliased) so the Header outlives the
// slice it was decoded from.
func (s Slice) ToHeader() Header {
	return Header{
		HwAddrType:      s.HwAddrType(),
		ProtoAddrType:   s.ProtoAddrType(),
		HwAddrSize:      s.HwAddrSize(),
		ProtoAddrSize:   s.ProtoAddrSize(),
		Operation:       s.Operation(),
		SenderHwAddr:    append([]byte(nil), s.SenderHwAddr()...),
		SenderProtoAddr: append([]byte(nil), s.SenderProtoAddr()...),
		TargetHwAddr:    append([]byte(nil), s.TargetHwAddr()...),
		TargetProtoAddr: append([]byte(nil), s.TargetProtoAddr()...),
	}
}
