// Package icmpv6 implements the Internet Control Message Protocol version 6
// (RFC 4443) header codec, including the Neighbor Discovery Protocol (RFC
// 4861) message flags carried in its tagged-variant "rest of header".
package icmpv6

import (
	"encoding/binary"
	"fmt"

	"github.com/netlayers/etherslice/pkg/common"
)

// MinHeaderLen is the minimum ICMPv6 header length: type, code, checksum,
// and the 4-byte type-dependent field.
const MinHeaderLen = 8

// MaxPacketLen is the largest an ICMPv6 message may be, bounded by the
// 32-bit Upper-Layer Packet Length field of its IPv6 pseudo-header.
const MaxPacketLen = 0xFFFFFFFF

// Kind discriminates the tagged-variant interpretation of an ICMPv6
// message's 4-byte "rest of header" field.
type Kind int

const (
	KindDestinationUnreachable Kind = iota
	KindPacketTooBig
	KindTimeExceeded
	KindParameterProblem
	KindEchoRequest
	KindEchoReply
	KindRouterSolicitation
	KindRouterAdvertisement
	KindNeighborSolicitation
	KindNeighborAdvertisement
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindDestinationUnreachable:
		return "DestinationUnreachable"
	case KindPacketTooBig:
		return "PacketTooBig"
	case KindTimeExceeded:
		return "TimeExceeded"
	case KindParameterProblem:
		return "ParameterProblem"
	case KindEchoRequest:
		return "EchoRequest"
	case KindEchoReply:
		return "EchoReply"
	case KindRouterSolicitation:
		return "RouterSolicitation"
	case KindRouterAdvertisement:
		return "RouterAdvertisement"
	case KindNeighborSolicitation:
		return "NeighborSolicitation"
	case KindNeighborAdvertisement:
		return "NeighborAdvertisement"
	default:
		return "Unknown"
	}
}

// Wire type values, per RFC 4443 / RFC 4861.
const (
	wireTypeDestinationUnreachable = 1
	wireTypePacketTooBig           = 2
	wireTypeTimeExceeded           = 3
	wireTypeParameterProblem       = 4
	wireTypeEchoRequest            = 128
	wireTypeEchoReply              = 129
	wireTypeRouterSolicitation     = 133
	wireTypeRouterAdvertisement    = 134
	wireTypeNeighborSolicitation   = 135
	wireTypeNeighborAdvertisement  = 136
)

func kindFromType(t uint8) Kind {
	switch t {
	case wireTypeDestinationUnreachable:
		return KindDestinationUnreachable
	case wireTypePacketTooBig:
		return KindPacketTooBig
	case wireTypeTimeExceeded:
		return KindTimeExceeded
	case wireTypeParameterProblem:
		return KindParameterProblem
	case wireTypeEchoRequest:
		return KindEchoRequest
	case wireTypeEchoReply:
		return KindEchoReply
	case wireTypeRouterSolicitation:
		return KindRouterSolicitation
	case wireTypeRouterAdvertisement:
		return KindRouterAdvertisement
	case wireTypeNeighborSolicitation:
		return KindNeighborSolicitation
	case wireTypeNeighborAdvertisement:
		return KindNeighborAdvertisement
	default:
		return KindUnknown
	}
}

func (k Kind) wireType(rawType uint8) uint8 {
	switch k {
	case KindDestinationUnreachable:
		return wireTypeDestinationUnreachable
	case KindPacketTooBig:
		return wireTypePacketTooBig
	case KindTimeExceeded:
		return wireTypeTimeExceeded
	case KindParameterProblem:
		return wireTypeParameterProblem
	case KindEchoRequest:
		return wireTypeEchoRequest
	case KindEchoReply:
		return wireTypeEchoReply
	case KindRouterSolicitation:
		return wireTypeRouterSolicitation
	case KindRouterAdvertisement:
		return wireTypeRouterAdvertisement
	case KindNeighborSolicitation:
		return wireTypeNeighborSolicitation
	case KindNeighborAdvertisement:
		return wireTypeNeighborAdvertisement
	default:
		return rawType
	}
}

// Neighbor advertisement flag masks (5th header byte).
const (
	naRouterMask    = 0b1000_0000
	naSolicitedMask = 0b0100_0000
	naOverrideMask  = 0b0010_0000
)

// Router advertisement flag masks (6th header byte).
const (
	raManagedMask = 0b1000_0000
	raOtherMask   = 0b0100_0000
)

// Header is an owned, decoded ICMPv6 message header. Only the fields
// relevant to Kind are meaningful; the rest are zero.
type Header struct {
	Kind Kind
	Code uint8

	// EchoRequest / EchoReply
	Id, Sequence uint16

	// PacketTooBig
	Mtu uint32

	// ParameterProblem
	Pointer uint32

	// NeighborAdvertisement
	NaRouter, NaSolicited, NaOverride bool

	// RouterAdvertisement
	RaCurHopLimit    uint8
	RaManaged        bool
	RaOther          bool
	RaRouterLifetime uint16

	// Unknown
	RawType  uint8
	RawBytes [4]byte
}

// HeaderLen is the fixed ICMPv6 header length.
func (h Header) HeaderLen() int { return MinHeaderLen }

func (h Header) restOfHeader() [4]byte {
	var b [4]byte
	switch h.Kind {
	case KindEchoRequest, KindEchoReply:
		binary.BigEndian.PutUint16(b[0:2], h.Id)
		binary.BigEndian.PutUint16(b[2:4], h.Sequence)
	case KindPacketTooBig:
		binary.BigEndian.PutUint32(b[:], h.Mtu)
	case KindParameterProblem:
		binary.BigEndian.PutUint32(b[:], h.Pointer)
	case KindNeighborAdvertisement:
		if h.NaRouter {
			b[0] |= naRouterMask
		}
		if h.NaSolicited {
			b[0] |= naSolicitedMask
		}
		if h.NaOverride {
			b[0] |= naOverrideMask
		}
	case KindRouterAdvertisement:
		b[0] = h.RaCurHopLimit
		if h.RaManaged {
			b[1] |= raManagedMask
		}
		if h.RaOther {
			b[1] |= raOtherMask
		}
		binary.BigEndian.PutUint16(b[2:4], h.RaRouterLifetime)
	case KindTimeExceeded, KindDestinationUnreachable, KindRouterSolicitation, KindNeighborSolicitation:
		// unused 4 bytes, left zero
	case KindUnknown:
		copy(b[:], h.RawBytes[:])
	}
	return b
}

// ToBytes serializes h's 8-byte header with a zeroed checksum field. Use
// Checksum or Write to fill in a real checksum over an IPv6 pseudo-header.
func (h Header) ToBytes() [MinHeaderLen]byte {
	var b [MinHeaderLen]byte
	b[0] = h.Kind.wireType(h.RawType)
	b[1] = h.Code
	rest := h.restOfHeader()
	copy(b[4:8], rest[:])
	return b
}

// Checksum computes the ICMPv6 checksum over the IPv6 pseudo-header,
// followed by the ICMPv6 header and payload, with the checksum field
// treated as zero.
func (h Header) Checksum(source, destination common.IPv6Address, payload []byte) uint16 {
	b := h.ToBytes()
	var msg []byte
	msg = append(msg, b[0], b[1], 0, 0)
	msg = append(msg, b[4:8]...)
	msg = append(msg, payload...)
	ph := common.Ipv6PseudoHeader{
		SourceAddr:      source,
		DestinationAddr: destination,
		NextHeader:      common.IPNumberIPv6Icmp,
		Length:          uint32(len(msg)),
	}
	return common.CalculateChecksumWithIpv6PseudoHeader(ph, msg)
}

// Write serializes h followed by payload into w, with the checksum field
// computed over the given IPv6 pseudo-header addresses.
func (h Header) Write(w *common.Writer, source, destination common.IPv6Address, payload []byte) error {
	checksum := h.Checksum(source, destination, payload)
	b := h.ToBytes()
	binary.BigEndian.PutUint16(b[2:4], checksum)
	if err := w.PutBytes(b[:]); err != nil {
		return err
	}
	return w.PutBytes(payload)
}

// String returns a human-readable summary of the header.
func (h Header) String() string {
	switch h.Kind {
	case KindEchoRequest, KindEchoReply:
		return fmt.Sprintf("ICMPv6{%s, Id=%d, Seq=%d}", h.Kind, h.Id, h.Sequence)
	case KindPacketTooBig:
		return fmt.Sprintf("ICMPv6{%s, Mtu=%d}", h.Kind, h.Mtu)
	case KindParameterProblem:
		return fmt.Sprintf("ICMPv6{%s, Pointer=%d}", h.Kind, h.Pointer)
	case KindNeighborAdvertisement:
		return fmt.Sprintf("ICMPv6{%s, Router=%v, Solicited=%v, Override=%v}", h.Kind, h.NaRouter, h.NaSolicited, h.NaOverride)
	case KindRouterAdvertisement:
		return fmt.Sprintf("ICMPv6{%s, CurHopLimit=%d, Managed=%v, Other=%v, Lifetime=%d}",
			h.Kind, h.RaCurHopLimit, h.RaManaged, h.RaOther, h.RaRouterLifetime)
	default:
		return fmt.Sprintf("ICMPv6{%s, Code=%d}", h.Kind, h.Code)
	}
}

// Slice is a zero-copy, validated view over an ICMPv6 header.
type Slice struct {
	data []byte
}

// FromSlice validates that data holds at least a full ICMPv6 header and
// returns a Slice view over it, along with the remaining bytes (payload).
func FromSlice(data []byte) (Slice, []byte, error) {
	if len(data) < MinHeaderLen {
		return Slice{}, nil, &common.LenError{
			Required:  MinHeaderLen,
			Actual:    len(data),
			Layer:     common.LayerTransport,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
	}
	return Slice{data: data[:MinHeaderLen]}, data[MinHeaderLen:], nil
}

// Type returns the raw wire type byte.
func (s Slice) Type() uint8 { return s.data[0] }

// Code returns the code byte.
func (s Slice) Code() uint8 { return s.data[1] }

// Checksum returns the checksum field as transmitted.
func (s Slice) Checksum() uint16 { return binary.BigEndian.Uint16(s.data[2:4]) }

// Kind returns the tagged-variant classification of this message.
func (s Slice) Kind() Kind { return kindFromType(s.data[0]) }

// ToHeader copies the view's fields into an owned Header value,
// interpreting the 4-byte rest-of-header field per Kind.
func (s Slice) ToHeader() Header {
	kind := s.Kind()
	h := Header{Kind: kind, Code: s.Code()}
	rest := s.data[4:8]
	switch kind {
	case KindEchoRequest, KindEchoReply:
		h.Id = binary.BigEndian.Uint16(rest[0:2])
		h.Sequence = binary.BigEndian.Uint16(rest[2:4])
	case KindPacketTooBig:
		h.Mtu = binary.BigEndian.Uint32(rest)
	case KindParameterProblem:
		h.Pointer = binary.BigEndian.Uint32(rest)
	case KindNeighborAdvertisement:
		h.NaRouter = rest[0]&naRouterMask != 0
		h.NaSolicited = rest[0]&naSolicitedMask != 0
		h.NaOverride = rest[0]&naOverrideMask != 0
	case KindRouterAdvertisement:
		h.RaCurHopLimit = rest[0]
		h.RaManaged = rest[1]&raManagedMask != 0
		h.RaOther = rest[1]&raOtherMask != 0
		h.RaRouterLifetime = binary.BigEndian.Uint16(rest[2:4])
	case KindUnknown:
		h.RawType = s.Type()
		copy(h.RawBytes[:], rest)
	}
	return h
}

// VerifyChecksum reports whether the header+payload checksum, computed
// over the given IPv6 pseudo-header addresses, is correct.
func (s Slice) VerifyChecksum(source, destination common.IPv6Address, payload []byte) bool {
	var msg []byte
	msg = append(msg, s.data[0], s.data[1], s.data[2], s.data[3])
	msg = append(msg, s.data[4:8]...)
	msg = append(msg, payload...)
	ph := common.Ipv6PseudoHeader{
		SourceAddr:      source,
		DestinationAddr: destination,
		NextHeader:      common.IPNumberIPv6Icmp,
		Length:          uint32(len(msg)),
	}
	var acc common.Sum16BitWords
	ph.AddTo(&acc)
	acc.AddSlice(msg)
	return acc.Final() == 0
}
