package ipv6

import (
	"encoding/binary"
	"fmt"

	"github.com/netlayers/etherslice/pkg/common"
	"github.com/netlayers/etherslice/pkg/ip"
)

// RawExtMinLen is the minimum length of a "raw" extension header (Hop-by-
// Hop, Routing, Destination Options, Mobility, HIP, Shim6): two header
// bytes plus at least 6 bytes of payload.
const RawExtMinLen = 8

// RawExtMaxLen is the largest a raw extension header may declare itself
// to be (hdr_ext_len maxes out at 255 eight-byte units).
const RawExtMaxLen = 2048

// RawExt is an owned, decoded "raw" IPv6 extension header: Hop-by-Hop
// Options, Routing, Destination Options, Mobility, HIP, or Shim6. They
// all share the same (next_header, hdr_ext_len, payload) wire shape.
type RawExt struct {
	NextHeader common.IPNumber
	Payload    []byte // excludes the 2 fixed bytes
}

// HeaderLen returns the total serialized length of e: (hdr_ext_len+1)*8.
func (e RawExt) HeaderLen() int { return 2 + len(e.Payload) }

// hdrExtLen returns the on-wire hdr_ext_len field.
func (e RawExt) hdrExtLen() uint8 { return uint8(e.HeaderLen()/8 - 1) }

// ToBytes serializes e to its wire representation.
func (e RawExt) ToBytes() []byte {
	b := make([]byte, e.HeaderLen())
	b[0] = uint8(e.NextHeader)
	b[1] = e.hdrExtLen()
	copy(b[2:], e.Payload)
	return b
}

// Write serializes e into w.
func (e RawExt) Write(w *common.Writer) error { return w.PutBytes(e.ToBytes()) }

// rawExtFromSlice decodes a single raw extension header from data.
func rawExtFromSlice(data []byte) (RawExt, []byte, error) {
	if len(data) < RawExtMinLen {
		return RawExt{}, nil, &common.LenError{
			Required:  RawExtMinLen,
			Actual:    len(data),
			Layer:     common.LayerNetExt,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
	}
	total := (int(data[1]) + 1) * 8
	if total > RawExtMaxLen {
		total = RawExtMaxLen
	}
	if len(data) < total {
		return RawExt{}, nil, &common.LenError{
			Required:  total,
			Actual:    len(data),
			Layer:     common.LayerNetExt,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
	}
	return RawExt{
		NextHeader: common.IPNumber(data[0]),
		Payload:    append([]byte(nil), data[2:total]...),
	}, data[total:], nil
}

// FragmentExtLen is the fixed size of an IPv6 Fragment extension header.
const FragmentExtLen = 8

// FragmentExt is an owned, decoded IPv6 Fragment extension header.
type FragmentExt struct {
	NextHeader     common.IPNumber
	FragmentOffset common.IpFragOffset
	MoreFragments  bool
	Identification uint32
}

// IsFragmentingPayload reports whether this header indicates the payload
// is actually split across multiple fragments (as opposed to a
// zero-offset, no-more-fragments header some stacks still emit).
func (e FragmentExt) IsFragmentingPayload() bool {
	return e.FragmentOffset.Value() != 0 || e.MoreFragments
}

// ToBytes serializes e to its fixed 8-byte wire representation.
func (e FragmentExt) ToBytes() [FragmentExtLen]byte {
	var b [FragmentExtLen]byte
	b[0] = uint8(e.NextHeader)
	// b[1] reserved
	offsetRes := uint16(e.FragmentOffset.Value()) << 3
	if e.MoreFragments {
		offsetRes |= 1
	}
	binary.BigEndian.PutUint16(b[2:4], offsetRes)
	binary.BigEndian.PutUint32(b[4:8], e.Identification)
	return b
}

// Write serializes e into w.
func (e FragmentExt) Write(w *common.Writer) error {
	b := e.ToBytes()
	return w.PutBytes(b[:])
}

func fragmentExtFromSlice(data []byte) (FragmentExt, []byte, error) {
	if len(data) < FragmentExtLen {
		return FragmentExt{}, nil, &common.LenError{
			Required:  FragmentExtLen,
			Actual:    len(data),
			Layer:     common.LayerNetExt,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
	}
	offsetRes := binary.BigEndian.Uint16(data[2:4])
	return FragmentExt{
		NextHeader:     common.IPNumber(data[0]),
		FragmentOffset: common.NewIpFragOffsetUnchecked(offsetRes >> 3),
		MoreFragments:  offsetRes&1 != 0,
		Identification: binary.BigEndian.Uint32(data[4:8]),
	}, data[FragmentExtLen:], nil
}

// Extensions holds the full decoded IPv6 extension-header chain, in the
// order the spec's C4 walker recognizes them. Routing may be followed by
// a distinct "final destination options" header, tracked separately from
// the Destination Options header that may precede Routing.
type Extensions struct {
	HopByHop                *RawExt
	DestinationOptions      *RawExt
	Routing                 *RawExt
	Fragment                *FragmentExt
	Auth                    *ip.AuthHeader
	FinalDestinationOptions *RawExt
}

// HeaderLen returns the combined serialized length of every present
// extension header.
func (e Extensions) HeaderLen() int {
	n := 0
	if e.HopByHop != nil {
		n += e.HopByHop.HeaderLen()
	}
	if e.DestinationOptions != nil {
		n += e.DestinationOptions.HeaderLen()
	}
	if e.Routing != nil {
		n += e.Routing.HeaderLen()
	}
	if e.Fragment != nil {
		n += FragmentExtLen
	}
	if e.Auth != nil {
		n += e.Auth.HeaderLen()
	}
	if e.FinalDestinationOptions != nil {
		n += e.FinalDestinationOptions.HeaderLen()
	}
	return n
}

// Fragmented reports whether the Fragment extension, if present,
// indicates this payload is actually split across multiple datagrams.
func (e Extensions) Fragmented() bool {
	return e.Fragment != nil && e.Fragment.IsFragmentingPayload()
}

// ExtensionsFromSlice walks the IPv6 extension-header chain starting
// from nextHeader (the fixed header's own NextHeader field), enforcing
// the ordering rule that Hop-by-Hop must appear first if present at all.
// It stops at the first IP number that isn't a recognized extension
// header type, returning that number as the final inner protocol.
func ExtensionsFromSlice(nextHeader common.IPNumber, data []byte) (Extensions, common.IPNumber, []byte, error) {
	var ext Extensions
	current := nextHeader
	first := true
	sawRouting := false

	for current.IsIpv6ExtHeader() {
		if current == common.IPNumberIPv6HopByHop && !first {
			return Extensions{}, nextHeader, nil, &common.Ipv6HopByHopNotAtStartError{}
		}

		switch current {
		case common.IPNumberIPv6HopByHop:
			h, rest, err := rawExtFromSlice(data)
			if err != nil {
				return Extensions{}, nextHeader, nil, err
			}
			ext.HopByHop = &h
			current, data = h.NextHeader, rest

		case common.IPNumberIPv6DestOpts:
			h, rest, err := rawExtFromSlice(data)
			if err != nil {
				return Extensions{}, nextHeader, nil, err
			}
			if sawRouting {
				ext.FinalDestinationOptions = &h
			} else {
				ext.DestinationOptions = &h
			}
			current, data = h.NextHeader, rest

		case common.IPNumberIPv6Route:
			h, rest, err := rawExtFromSlice(data)
			if err != nil {
				return Extensions{}, nextHeader, nil, err
			}
			ext.Routing = &h
			sawRouting = true
			current, data = h.NextHeader, rest

		case common.IPNumberIPv6Frag:
			h, rest, err := fragmentExtFromSlice(data)
			if err != nil {
				return Extensions{}, nextHeader, nil, err
			}
			ext.Fragment = &h
			current, data = h.NextHeader, rest

		case common.IPNumberAuth:
			s, rest, err := ip.AuthFromSlice(data)
			if err != nil {
				return Extensions{}, nextHeader, nil, err
			}
			h := s.ToHeader()
			ext.Auth = &h
			current, data = h.NextHeader, rest

		default:
			// Mobility, HIP, Shim6 are recognized as "raw" but otherwise
			// opaque; fold them into DestinationOptions-shaped slots is
			// wrong, so stop the walk here and surface them as the final
			// protocol instead of guessing a slot.
			return ext, current, data, nil
		}
		first = false
	}

	return ext, current, data, nil
}

// SetNextHeaders rewires the next_header field of each present extension
// in declared chain order (HopByHop -> DestinationOptions -> Routing ->
// Fragment -> Auth -> FinalDestinationOptions -> upper layer), returning
// the IP number that belongs in the fixed IPv6 header's NextHeader field.
func (e *Extensions) SetNextHeaders(finalProtocol common.IPNumber) common.IPNumber {
	next := finalProtocol
	if e.FinalDestinationOptions != nil {
		e.FinalDestinationOptions.NextHeader = next
		next = common.IPNumberIPv6DestOpts
	}
	if e.Auth != nil {
		e.Auth.NextHeader = next
		next = common.IPNumberAuth
	}
	if e.Fragment != nil {
		e.Fragment.NextHeader = next
		next = common.IPNumberIPv6Frag
	}
	if e.Routing != nil {
		e.Routing.NextHeader = next
		next = common.IPNumberIPv6Route
	}
	if e.DestinationOptions != nil {
		e.DestinationOptions.NextHeader = next
		next = common.IPNumberIPv6DestOpts
	}
	if e.HopByHop != nil {
		e.HopByHop.NextHeader = next
		next = common.IPNumberIPv6HopByHop
	}
	return next
}

// ToBytes serializes the present extensions in chain order.
func (e Extensions) ToBytes() []byte {
	b := make([]byte, 0, e.HeaderLen())
	if e.HopByHop != nil {
		b = append(b, e.HopByHop.ToBytes()...)
	}
	if e.DestinationOptions != nil {
		b = append(b, e.DestinationOptions.ToBytes()...)
	}
	if e.Routing != nil {
		b = append(b, e.Routing.ToBytes()...)
	}
	if e.Fragment != nil {
		fb := e.Fragment.ToBytes()
		b = append(b, fb[:]...)
	}
	if e.Auth != nil {
		b = append(b, e.Auth.ToBytes()...)
	}
	if e.FinalDestinationOptions != nil {
		b = append(b, e.FinalDestinationOptions.ToBytes()...)
	}
	return b
}

// Write serializes the present extensions into w.
func (e Extensions) Write(w *common.Writer) error {
	return w.PutBytes(e.ToBytes())
}

// String returns a human-readable summary of which extensions are present.
func (e Extensions) String() string {
	return fmt.Sprintf("Ipv6Extensions{HopByHop=%v, DestOpts=%v, Routing=%v, Fragment=%v, Auth=%v, FinalDestOpts=%v}",
		e.HopByHop != nil, e.DestinationOptions != nil, e.Routing != nil, e.Fragment != nil, e.Auth != nil, e.FinalDestinationOptions != nil)
}
