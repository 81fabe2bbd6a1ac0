// Package icmp implements the Internet Control Message Protocol version 4
// (RFC 792) header codec.
package icmp

import (
	"encoding/binary"
	"fmt"

	"github.com/netlayers/etherslice/pkg/common"
)

// MinHeaderLen is the minimum ICMPv4 header length: type, code, checksum,
// and the 4-byte type-dependent field.
const MinHeaderLen = 8

// TimestampHeaderLen is the fixed length of a Timestamp/Timestamp Reply
// header: MinHeaderLen plus three 4-byte timestamps.
const TimestampHeaderLen = 20

// Kind discriminates the tagged-variant interpretation of an ICMPv4
// message's 4-byte "rest of header" field.
type Kind int

const (
	KindEchoRequest Kind = iota
	KindEchoReply
	KindTimeExceeded
	KindDestinationUnreachable
	KindRedirect
	KindParameterProblem
	KindTimestampRequest
	KindTimestampReply
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindEchoRequest:
		return "EchoRequest"
	case KindEchoReply:
		return "EchoReply"
	case KindTimeExceeded:
		return "TimeExceeded"
	case KindDestinationUnreachable:
		return "DestinationUnreachable"
	case KindRedirect:
		return "Redirect"
	case KindParameterProblem:
		return "ParameterProblem"
	case KindTimestampRequest:
		return "TimestampRequest"
	case KindTimestampReply:
		return "TimestampReply"
	default:
		return "Unknown"
	}
}

// wire type values dispatched on by kindFromType.
const (
	wireTypeEchoReply              = 0
	wireTypeDestinationUnreachable = 3
	wireTypeRedirect               = 5
	wireTypeEchoRequest             = 8
	wireTypeTimeExceeded            = 11
	wireTypeParameterProblem        = 12
	wireTypeTimestampRequest        = 13
	wireTypeTimestampReply          = 14
)

func kindFromType(t uint8) Kind {
	switch t {
	case wireTypeEchoRequest:
		return KindEchoRequest
	case wireTypeEchoReply:
		return KindEchoReply
	case wireTypeTimeExceeded:
		return KindTimeExceeded
	case wireTypeDestinationUnreachable:
		return KindDestinationUnreachable
	case wireTypeRedirect:
		return KindRedirect
	case wireTypeParameterProblem:
		return KindParameterProblem
	case wireTypeTimestampRequest:
		return KindTimestampRequest
	case wireTypeTimestampReply:
		return KindTimestampReply
	default:
		return KindUnknown
	}
}

func (k Kind) wireType(rawType uint8) uint8 {
	switch k {
	case KindEchoRequest:
		return wireTypeEchoRequest
	case KindEchoReply:
		return wireTypeEchoReply
	case KindTimeExceeded:
		return wireTypeTimeExceeded
	case KindDestinationUnreachable:
		return wireTypeDestinationUnreachable
	case KindRedirect:
		return wireTypeRedirect
	case KindParameterProblem:
		return wireTypeParameterProblem
	case KindTimestampRequest:
		return wireTypeTimestampRequest
	case KindTimestampReply:
		return wireTypeTimestampReply
	default:
		return rawType
	}
}

// Header is an owned, decoded ICMPv4 message header. Only the fields
// relevant to Kind are meaningful; the rest are zero.
type Header struct {
	Kind Kind
	Code uint8

	// EchoRequest / EchoReply / TimestampRequest / TimestampReply
	Id, Sequence uint16

	// Redirect
	RedirectGateway common.IPv4Address

	// ParameterProblem
	Pointer uint8

	// TimestampRequest / TimestampReply, in addition to Id/Sequence
	// above: three 4-byte timestamps following the 8-byte fixed header,
	// milliseconds since UTC midnight.
	OriginateTimestamp, ReceiveTimestamp, TransmitTimestamp uint32

	// Unknown
	RawType  uint8
	RawBytes [4]byte
}

// HeaderLen returns the serialized header length: MinHeaderLen, or
// TimestampHeaderLen for Kind == KindTimestampRequest/KindTimestampReply,
// whose three trailing timestamps extend the fixed 8-byte header.
func (h Header) HeaderLen() int {
	if h.Kind == KindTimestampRequest || h.Kind == KindTimestampReply {
		return TimestampHeaderLen
	}
	return MinHeaderLen
}

// restOfHeader encodes the 4-byte type-dependent field that follows the
// checksum.
func (h Header) restOfHeader() [4]byte {
	var b [4]byte
	switch h.Kind {
	case KindEchoRequest, KindEchoReply, KindTimestampRequest, KindTimestampReply:
		binary.BigEndian.PutUint16(b[0:2], h.Id)
		binary.BigEndian.PutUint16(b[2:4], h.Sequence)
	case KindRedirect:
		copy(b[:], h.RedirectGateway[:])
	case KindParameterProblem:
		b[0] = h.Pointer
	case KindTimeExceeded, KindDestinationUnreachable:
		// unused 4 bytes, left zero
	case KindUnknown:
		copy(b[:], h.RawBytes[:])
	}
	return b
}

// timestampBytes encodes the three trailing timestamps of a Timestamp/
// Timestamp Reply message.
func (h Header) timestampBytes() [12]byte {
	var b [12]byte
	binary.BigEndian.PutUint32(b[0:4], h.OriginateTimestamp)
	binary.BigEndian.PutUint32(b[4:8], h.ReceiveTimestamp)
	binary.BigEndian.PutUint32(b[8:12], h.TransmitTimestamp)
	return b
}

// ToBytes serializes h's header (checksum field written verbatim as 0;
// use Checksum or Write to compute it over a payload).
func (h Header) ToBytes() []byte {
	b := make([]byte, h.HeaderLen())
	b[0] = h.Kind.wireType(h.RawType)
	b[1] = h.Code
	rest := h.restOfHeader()
	copy(b[4:8], rest[:])
	if len(b) > MinHeaderLen {
		ts := h.timestampBytes()
		copy(b[8:], ts[:])
	}
	return b
}

// Checksum computes the ICMPv4 checksum over the header followed by
// payload, with the checksum field treated as zero. No pseudo-header is
// involved for ICMPv4.
func (h Header) Checksum(payload []byte) uint16 {
	var acc common.Sum16BitWords
	b := h.ToBytes()
	acc.Add4Bytes([4]byte{b[0], b[1], 0, 0})
	for i := 4; i < len(b); i += 4 {
		acc.Add4Bytes([4]byte(b[i : i+4]))
	}
	acc.AddSlice(payload)
	return acc.Final()
}

// Write serializes h followed by payload into w, with the checksum field
// filled in.
func (h Header) Write(w *common.Writer, payload []byte) error {
	checksum := h.Checksum(payload)
	b := h.ToBytes()
	binary.BigEndian.PutUint16(b[2:4], checksum)
	if err := w.PutBytes(b); err != nil {
		return err
	}
	return w.PutBytes(payload)
}

// String returns a human-readable summary of the header.
func (h Header) String() string {
	switch h.Kind {
	case KindEchoRequest, KindEchoReply:
		return fmt.Sprintf("ICMPv4{%s, Id=%d, Seq=%d}", h.Kind, h.Id, h.Sequence)
	case KindTimestampRequest, KindTimestampReply:
		return fmt.Sprintf("ICMPv4{%s, Id=%d, Seq=%d, Orig=%d, Recv=%d, Xmit=%d}",
			h.Kind, h.Id, h.Sequence, h.OriginateTimestamp, h.ReceiveTimestamp, h.TransmitTimestamp)
	case KindRedirect:
		return fmt.Sprintf("ICMPv4{%s, Code=%d, Gateway=%s}", h.Kind, h.Code, h.RedirectGateway)
	case KindParameterProblem:
		return fmt.Sprintf("ICMPv4{%s, Pointer=%d}", h.Kind, h.Pointer)
	default:
		return fmt.Sprintf("ICMPv4{%s, Code=%d}", h.Kind, h.Code)
	}
}

// Slice is a zero-copy, validated view over an ICMPv4 header (the payload
// is returned separately by FromSlice, not retained in the Slice).
type Slice struct {
	data []byte
}

// FromSlice validates that data holds at least a full ICMPv4 header and
// returns a Slice view over it, along with the remaining bytes (payload).
// Timestamp/Timestamp Reply messages carry a 20-byte header instead of the
// usual 8; the type byte is inspected before the header length is known.
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
	n := MinHeaderLen
	switch kindFromType(data[0]) {
	case KindTimestampRequest, KindTimestampReply:
		n = TimestampHeaderLen
	}
	if len(data) < n {
		return Slice{}, nil, &common.LenError{
			Required:  n,
			Actual:    len(data),
			Layer:     common.LayerTransport,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
	}
	return Slice{data: data[:n]}, data[n:], nil
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
	case KindTimestampRequest, KindTimestampReply:
		h.Id = binary.BigEndian.Uint16(rest[0:2])
		h.Sequence = binary.BigEndian.Uint16(rest[2:4])
		ts := s.data[8:20]
		h.OriginateTimestamp = binary.BigEndian.Uint32(ts[0:4])
		h.ReceiveTimestamp = binary.BigEndian.Uint32(ts[4:8])
		h.TransmitTimestamp = binary.BigEndian.Uint32(ts[8:12])
	case KindRedirect:
		copy(h.RedirectGateway[:], rest)
	case KindParameterProblem:
		h.Pointer = rest[0]
	case KindUnknown:
		h.RawType = s.Type()
		copy(h.RawBytes[:], rest)
	}
	return h
}

// VerifyChecksum reports whether the header+payload checksum is correct.
func (s Slice) VerifyChecksum(payload []byte) bool {
	var acc common.Sum16BitWords
	acc.Add4Bytes([4]byte{s.data[0], s.data[1], s.data[2], s.data[3]})
	for i := 4; i < len(s.data); i += 4 {
		acc.Add4Bytes([4]byte(s.data[i : i+4]))
	}
	acc.AddSlice(payload)
	return acc.Final() == 0
}
