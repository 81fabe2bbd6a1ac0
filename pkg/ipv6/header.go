// Package ipv6 implements the Internet Protocol version 6 (RFC 8200)
// fixed header codec, plus the extension-header chain walker (C4).
package ipv6

import (
	"encoding/binary"
	"fmt"

	"github.com/netlayers/etherslice/pkg/common"
)

const (
	// Version is the IP version field for IPv6.
	Version = 6

	// HeaderLen is the fixed size of an IPv6 header in bytes.
	HeaderLen = 40
)

// Header is an owned, decoded IPv6 fixed header.
type Header struct {
	Dscp        common.Ipv4Dscp
	Ecn         common.Ipv4Ecn
	FlowLabel   common.Ipv6FlowLabel
	PayloadLen  uint16
	NextHeader  common.IPNumber
	HopLimit    uint8
	Source      common.IPv6Address
	Destination common.IPv6Address
}

// ToBytes serializes h to its fixed 40-byte wire representation.
func (h Header) ToBytes() [HeaderLen]byte {
	var b [HeaderLen]byte
	versionTcFlow := (uint32(Version) << 28) |
		(uint32(h.Dscp.Value()) << 22) |
		(uint32(h.Ecn.Value()) << 20) |
		h.FlowLabel.Value()
	binary.BigEndian.PutUint32(b[0:4], versionTcFlow)
	binary.BigEndian.PutUint16(b[4:6], h.PayloadLen)
	b[6] = uint8(h.NextHeader)
	b[7] = h.HopLimit
	copy(b[8:24], h.Source[:])
	copy(b[24:40], h.Destination[:])
	return b
}

// Write serializes h into w.
func (h Header) Write(w *common.Writer) error {
	b := h.ToBytes()
	return w.PutBytes(b[:])
}

// String returns a human-readable summary of the header.
func (h Header) String() string {
	return fmt.Sprintf("IPv6{%s -> %s, NextHeader=%s, HopLimit=%d, PayloadLen=%d}",
		h.Source, h.Destination, h.NextHeader, h.HopLimit, h.PayloadLen)
}

// Slice is a zero-copy, validated view over an IPv6 fixed header.
type Slice struct {
	data []byte
}

// FromSlice validates that data holds at least a full IPv6 header and
// returns a Slice view over it, along with the remaining bytes.
func FromSlice(data []byte) (Slice, []byte, error) {
	if len(data) < HeaderLen {
		return Slice{}, nil, &common.LenError{
			Required:  HeaderLen,
			Actual:    len(data),
			Layer:     common.LayerNet,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
	}
	version := data[0] >> 4
	if version != Version {
		return Slice{}, nil, &common.UnsupportedIpVersionError{Version: version}
	}
	return Slice{data: data[:HeaderLen]}, data[HeaderLen:], nil
}

// PayloadFromSlice decodes the fixed header and clips the returned rest
// to the header's declared PayloadLen, per the slicer's Ipv6PayloadLen
// length-source invariant.
func PayloadFromSlice(data []byte) (Slice, []byte, error) {
	s, afterHeader, err := FromSlice(data)
	if err != nil {
		return Slice{}, nil, err
	}
	payloadLen := int(s.PayloadLen())
	if len(afterHeader) < payloadLen {
		return Slice{}, nil, &common.LenError{
			Required:  HeaderLen + payloadLen,
			Actual:    HeaderLen + len(afterHeader),
			Layer:     common.LayerNet,
			LenSource: common.LenSourceIpv6HeaderPayloadLen,
			Offset:    0,
		}
	}
	return s, afterHeader[:payloadLen], nil
}

// trafficClass reassembles the 8-bit traffic class field, which straddles
// the first two header bytes around the 4-bit version nibble.
func (s Slice) trafficClass() uint8 {
	return (s.data[0]&0x0F)<<4 | s.data[1]>>4
}

// Dscp returns the traffic class's Differentiated Services Code Point.
func (s Slice) Dscp() common.Ipv4Dscp {
	return common.NewIpv4DscpUnchecked(s.trafficClass() >> 2)
}

// Ecn returns the traffic class's Explicit Congestion Notification bits.
func (s Slice) Ecn() common.Ipv4Ecn {
	return common.NewIpv4EcnUnchecked(s.trafficClass() & 0x03)
}

// FlowLabel returns the 20-bit flow label field.
func (s Slice) FlowLabel() common.Ipv6FlowLabel {
	raw := binary.BigEndian.Uint32(s.data[0:4]) & common.Ipv6FlowLabelMax
	return common.NewIpv6FlowLabelUnchecked(raw)
}

// PayloadLen returns the payload_length field.
func (s Slice) PayloadLen() uint16 { return binary.BigEndian.Uint16(s.data[4:6]) }

// NextHeader returns the next_header field.
func (s Slice) NextHeader() common.IPNumber { return common.IPNumber(s.data[6]) }

// HopLimit returns the hop_limit field.
func (s Slice) HopLimit() uint8 { return s.data[7] }

// Source returns the source address.
func (s Slice) Source() common.IPv6Address {
	var a common.IPv6Address
	copy(a[:], s.data[8:24])
	return a
}

// Destination returns the destination address.
func (s Slice) Destination() common.IPv6Address {
	var a common.IPv6Address
	copy(a[:], s.data[24:40])
	return a
}

// ToHeader copies the view's fields into an owned Header value.
func (s Slice) ToHeader() Header {
	return Header{
		Dscp:        s.Dscp(),
		Ecn:         s.Ecn(),
		FlowLabel:   s.FlowLabel(),
		PayloadLen:  s.PayloadLen(),
		NextHeader:  s.NextHeader(),
		HopLimit:    s.HopLimit(),
		Source:      s.Source(),
		Destination: s.Destination(),
	}
}
