// Package udp implements the User Datagram Protocol (RFC 768) header codec.
package udp

import (
	"encoding/binary"
	"fmt"

	"github.com/netlayers/etherslice/pkg/common"
)

const (
	// HeaderLen is the fixed UDP header length.
	HeaderLen = 8

	// MaxPacketLen is the largest a UDP datagram may declare itself to be,
	// bounded by the 16-bit Length field.
	MaxPacketLen = 0xFFFF
)

// Header is an owned, decoded UDP header.
type Header struct {
	SourcePort      uint16
	DestinationPort uint16
	Length          uint16 // header + payload, minimum 8
	Checksum        uint16
}

// HeaderLen returns the fixed UDP header length.
func (h Header) HeaderLen() int { return HeaderLen }

// ToBytes serializes h to its fixed 8-byte wire representation.
func (h Header) ToBytes() [HeaderLen]byte {
	var b [HeaderLen]byte
	binary.BigEndian.PutUint16(b[0:2], h.SourcePort)
	binary.BigEndian.PutUint16(b[2:4], h.DestinationPort)
	binary.BigEndian.PutUint16(b[4:6], h.Length)
	binary.BigEndian.PutUint16(b[6:8], h.Checksum)
	return b
}

// Write serializes h into w.
func (h Header) Write(w *common.Writer) error {
	b := h.ToBytes()
	return w.PutBytes(b[:])
}

// ComputeChecksumIpv4 computes the UDP checksum of h+payload over an IPv4
// pseudo-header. Per RFC 768, a computed result of 0x0000 is transmitted as
// 0xFFFF, since 0x0000 on the wire means "no checksum computed".
func (h Header) ComputeChecksumIpv4(source, destination common.IPv4Address, payload []byte) uint16 {
	b := h.ToBytes()
	b[6], b[7] = 0, 0
	msg := append(append([]byte(nil), b[:]...), payload...)
	ph := common.Ipv4PseudoHeader{
		SourceAddr:      source,
		DestinationAddr: destination,
		Protocol:        common.IPNumberUDP,
		Length:          uint32(h.Length),
	}
	var acc common.Sum16BitWords
	ph.AddTo(&acc)
	acc.AddSlice(msg)
	checksum := acc.Final()
	if checksum == 0 {
		checksum = 0xFFFF
	}
	return checksum
}

// ComputeChecksumIpv6 computes the UDP checksum of h+payload over an IPv6
// pseudo-header. Unlike IPv4, IPv6 forbids an all-zero (disabled) checksum,
// so this always returns a nonzero value too.
func (h Header) ComputeChecksumIpv6(source, destination common.IPv6Address, payload []byte) uint16 {
	b := h.ToBytes()
	b[6], b[7] = 0, 0
	msg := append(append([]byte(nil), b[:]...), payload...)
	ph := common.Ipv6PseudoHeader{
		SourceAddr:      source,
		DestinationAddr: destination,
		NextHeader:      common.IPNumberUDP,
		Length:          uint32(h.Length),
	}
	var acc common.Sum16BitWords
	ph.AddTo(&acc)
	acc.AddSlice(msg)
	checksum := acc.Final()
	if checksum == 0 {
		checksum = 0xFFFF
	}
	return checksum
}

// String returns a human-readable summary of the header.
func (h Header) String() string {
	return fmt.Sprintf("UDP{%d -> %d, Len=%d}", h.SourcePort, h.DestinationPort, h.Length)
}

// Slice is a zero-copy, validated view over a UDP header.
type Slice struct {
	data []byte
}

// FromSlice validates data's Length field and returns a Slice view over
// the fixed 8-byte header, along with the payload clipped to Length.
func FromSlice(data []byte) (Slice, []byte, error) {
	if len(data) < HeaderLen {
		return Slice{}, nil, &common.LenError{
			Required:  HeaderLen,
			Actual:    len(data),
			Layer:     common.LayerTransport,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
	}
	s := Slice{data: data[:HeaderLen]}
	length := int(s.Length())
	if length < HeaderLen {
		return Slice{}, nil, &common.LenError{
			Required:  HeaderLen,
			Actual:    length,
			Layer:     common.LayerTransport,
			LenSource: common.LenSourceUdpHeaderLen,
			Offset:    0,
		}
	}
	payloadLen := length - HeaderLen
	if len(data)-HeaderLen < payloadLen {
		return Slice{}, nil, &common.LenError{
			Required:  length,
			Actual:    len(data),
			Layer:     common.LayerTransport,
			LenSource: common.LenSourceUdpHeaderLen,
			Offset:    0,
		}
	}
	return s, data[HeaderLen : HeaderLen+payloadLen], nil
}

// SourcePort returns the source port.
func (s Slice) SourcePort() uint16 { return binary.BigEndian.Uint16(s.data[0:2]) }

// DestinationPort returns the destination port.
func (s Slice) DestinationPort() uint16 { return binary.BigEndian.Uint16(s.data[2:4]) }

// Length returns the length field (header + payload).
func (s Slice) Length() uint16 { return binary.BigEndian.Uint16(s.data[4:6]) }

// Checksum returns the checksum field as transmitted.
func (s Slice) Checksum() uint16 { return binary.BigEndian.Uint16(s.data[6:8]) }

// ToHeader copies the view's fields into an owned Header value.
func (s Slice) ToHeader() Header {
	return Header{
		SourcePort:      s.SourcePort(),
		DestinationPort: s.DestinationPort(),
		Length:          s.Length(),
		Checksum:        s.Checksum(),
	}
}

// VerifyChecksumIpv4 reports whether the checksum is correct, treating a
// transmitted checksum of 0 as "no checksum" (always valid on IPv4).
func (s Slice) VerifyChecksumIpv4(source, destination common.IPv4Address, payload []byte) bool {
	if s.Checksum() == 0 {
		return true
	}
	msg := append(append([]byte(nil), s.data...), payload...)
	ph := common.Ipv4PseudoHeader{
		SourceAddr:      source,
		DestinationAddr: destination,
		Protocol:        common.IPNumberUDP,
		Length:          uint32(s.Length()),
	}
	var acc common.Sum16BitWords
	ph.AddTo(&acc)
	acc.AddSlice(msg)
	return acc.Final() == 0
}
