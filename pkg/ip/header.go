// Package ip implements the Internet Protocol version 4 (RFC 791) header
// codec, plus the IPv4 Authentication Header extension walker.
package ip

import (
	"encoding/binary"
	"fmt"

	"github.com/netlayers/etherslice/pkg/common"
)

const (
	// Version is the IP version nibble for IPv4.
	Version = 4

	// MinHeaderLen is the minimum IPv4 header length (no options).
	MinHeaderLen = 20

	// MaxHeaderLen is the maximum IPv4 header length (IHL=15).
	MaxHeaderLen = 60
)

// Header is an owned, decoded IPv4 header.
type Header struct {
	Ihl             uint8
	Dscp            common.Ipv4Dscp
	Ecn             common.Ipv4Ecn
	TotalLen        uint16
	Identification  uint16
	DontFragment    bool
	MoreFragments   bool
	FragmentOffset  common.IpFragOffset
	TimeToLive      uint8
	Protocol        common.IPNumber
	HeaderChecksum  uint16
	Source          common.IPv4Address
	Destination     common.IPv4Address
	Options         []byte
}

// HeaderLen returns the serialized header length, Ihl*4.
func (h Header) HeaderLen() int { return int(h.Ihl) * 4 }

// Fragmented reports whether this datagram is a fragment of a larger one.
func (h Header) Fragmented() bool {
	return h.MoreFragments || h.FragmentOffset.Value() > 0
}

// ToBytes serializes h, including its options, recomputing nothing (the
// header checksum field is written verbatim from h.HeaderChecksum — call
// Checksum to compute it fresh).
func (h Header) ToBytes() []byte {
	b := make([]byte, h.HeaderLen())
	b[0] = (Version << 4) | (h.Ihl & 0x0F)
	b[1] = (h.Dscp.Value() << 2) | h.Ecn.Value()
	binary.BigEndian.PutUint16(b[2:4], h.TotalLen)
	binary.BigEndian.PutUint16(b[4:6], h.Identification)

	flagsFrag := uint16(h.FragmentOffset.Value())
	if h.DontFragment {
		flagsFrag |= 1 << 14
	}
	if h.MoreFragments {
		flagsFrag |= 1 << 13
	}
	binary.BigEndian.PutUint16(b[6:8], flagsFrag)

	b[8] = h.TimeToLive
	b[9] = uint8(h.Protocol)
	binary.BigEndian.PutUint16(b[10:12], h.HeaderChecksum)
	copy(b[12:16], h.Source[:])
	copy(b[16:20], h.Destination[:])
	copy(b[20:], h.Options)
	return b
}

// Write serializes h into w.
func (h Header) Write(w *common.Writer) error {
	return w.PutBytes(h.ToBytes())
}

// Checksum computes the IPv4 header checksum over h's bytes with the
// checksum field treated as zero.
func (h Header) Checksum() uint16 {
	b := h.ToBytes()
	binary.BigEndian.PutUint16(b[10:12], 0)
	return common.CalculateChecksum(b)
}

// String returns a human-readable summary of the header.
func (h Header) String() string {
	return fmt.Sprintf("IPv4{%s -> %s, Proto=%s, TTL=%d, ID=%d, TotalLen=%d}",
		h.Source, h.Destination, h.Protocol, h.TimeToLive, h.Identification, h.TotalLen)
}

// Slice is a zero-copy, validated view over an IPv4 header (fixed part
// plus options, excluding payload).
type Slice struct {
	data []byte
}

// FromSlice validates that data holds a complete IPv4 header (fixed part
// plus any options the IHL field declares) and returns a Slice view over
// it, along with the remaining bytes after the header.
//
// Unlike most FromSlice implementations, this one does not clip the
// returned rest to TotalLen — callers that want the net-layer length
// invariant enforced (rest clipped to TotalLen-HeaderLen, with a LenError
// if the slice is shorter) should use PayloadFromSlice.
func FromSlice(data []byte) (Slice, []byte, error) {
	if len(data) < MinHeaderLen {
		return Slice{}, nil, &common.LenError{
			Required:  MinHeaderLen,
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
	ihl := data[0] & 0x0F
	if ihl < 5 {
		return Slice{}, nil, &common.Ipv4HeaderLengthSmallerThanHeaderError{Ihl: ihl}
	}
	headerLen := int(ihl) * 4
	if len(data) < headerLen {
		return Slice{}, nil, &common.LenError{
			Required:  headerLen,
			Actual:    len(data),
			Layer:     common.LayerNet,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
	}
	totalLen := int(binary.BigEndian.Uint16(data[2:4]))
	if totalLen < headerLen {
		return Slice{}, nil, &common.Ipv4TotalLengthSmallerThanHeaderError{
			TotalLength: totalLen,
			MinLength:   headerLen,
		}
	}
	return Slice{data: data[:headerLen]}, data[headerLen:], nil
}

// PayloadFromSlice decodes the IPv4 header and additionally clips the
// returned rest to the header's declared TotalLen, per the slicer's
// Ipv4TotalLen length-source invariant. It fails with a LenError sourced
// from LenSourceIpv4HeaderTotalLen if fewer bytes than TotalLen are available.
func PayloadFromSlice(data []byte) (Slice, []byte, error) {
	s, afterHeader, err := FromSlice(data)
	if err != nil {
		return Slice{}, nil, err
	}
	total := int(s.TotalLen())
	headerLen := len(s.data)
	payloadLen := total - headerLen
	if len(afterHeader) < payloadLen {
		return Slice{}, nil, &common.LenError{
			Required:  total,
			Actual:    headerLen + len(afterHeader),
			Layer:     common.LayerNet,
			LenSource: common.LenSourceIpv4HeaderTotalLen,
			Offset:    0,
		}
	}
	return s, afterHeader[:payloadLen], nil
}

// Ihl returns the Internet Header Length field, in 32-bit words.
func (s Slice) Ihl() uint8 { return s.data[0] & 0x0F }

// Dscp returns the Differentiated Services Code Point field.
func (s Slice) Dscp() common.Ipv4Dscp {
	return common.NewIpv4DscpUnchecked(s.data[1] >> 2)
}

// Ecn returns the Explicit Congestion Notification field.
func (s Slice) Ecn() common.Ipv4Ecn {
	return common.NewIpv4EcnUnchecked(s.data[1] & 0x03)
}

// TotalLen returns the total_len field (header + payload, in bytes).
func (s Slice) TotalLen() uint16 { return binary.BigEndian.Uint16(s.data[2:4]) }

// Identification returns the fragment identification field.
func (s Slice) Identification() uint16 { return binary.BigEndian.Uint16(s.data[4:6]) }

// DontFragment returns the DF flag.
func (s Slice) DontFragment() bool { return s.data[6]&0x40 != 0 }

// MoreFragments returns the MF flag.
func (s Slice) MoreFragments() bool { return s.data[6]&0x20 != 0 }

// FragmentOffset returns the 13-bit fragment offset field (in 8-byte units).
func (s Slice) FragmentOffset() common.IpFragOffset {
	raw := binary.BigEndian.Uint16(s.data[6:8]) & common.IpFragOffsetMax
	return common.NewIpFragOffsetUnchecked(raw)
}

// TimeToLive returns the TTL field.
func (s Slice) TimeToLive() uint8 { return s.data[8] }

// Protocol returns the next-layer protocol number.
func (s Slice) Protocol() common.IPNumber { return common.IPNumber(s.data[9]) }

// HeaderChecksum returns the header_checksum field as transmitted.
func (s Slice) HeaderChecksum() uint16 { return binary.BigEndian.Uint16(s.data[10:12]) }

// Source returns the source address.
func (s Slice) Source() common.IPv4Address {
	var a common.IPv4Address
	copy(a[:], s.data[12:16])
	return a
}

// Destination returns the destination address.
func (s Slice) Destination() common.IPv4Address {
	var a common.IPv4Address
	copy(a[:], s.data[16:20])
	return a
}

// Options returns the options sub-slice, borrowed from the input buffer.
func (s Slice) Options() []byte { return s.data[20:] }

// Fragmented reports whether this datagram is a fragment of a larger one.
func (s Slice) Fragmented() bool {
	return s.MoreFragments() || s.FragmentOffset().Value() > 0
}

// VerifyChecksum reports whether the header's checksum field is
// consistent with the rest of the header bytes.
func (s Slice) VerifyChecksum() bool {
	return common.VerifyChecksum(s.data)
}

// ToHeader copies the view's fields into an owned Header value.
func (s Slice) ToHeader() Header {
	return Header{
		Ihl:            s.Ihl(),
		Dscp:           s.Dscp(),
		Ecn:            s.Ecn(),
		TotalLen:       s.TotalLen(),
		Identification: s.Identification(),
		DontFragment:   s.DontFragment(),
		MoreFragments:  s.MoreFragments(),
		FragmentOffset: s.FragmentOffset(),
		TimeToLive:     s.TimeToLive(),
		Protocol:       s.Protocol(),
		HeaderChecksum: s.HeaderChecksum(),
		Source:         s.Source(),
		Destination:    s.Destination(),
		Options:        append([]byte(nil), s.Options()...),
	}
}
