package common

import "fmt"

// LenError is returned whenever a parser needs more bytes than a slice
// holds. It names the offending layer, the field that was authoritative
// for the expected length, and the byte offset the short read started at,
// so a caller can decide whether to retry with more data, discard the
// packet, or fall back to lax parsing.
type LenError struct {
	Required  int
	Actual    int
	Layer     Layer
	LenSource LenSource
	Offset    int
}

func (e *LenError) Error() string {
	return fmt.Sprintf("%s header needs %d bytes, only %d available (len_source: %s, offset: %d)",
		e.Layer, e.Required, e.Actual, e.LenSource, e.Offset)
}

// UnsupportedIpVersionError is returned when the IP version nibble of a
// would-be IP header is neither 4 nor 6.
type UnsupportedIpVersionError struct {
	Version uint8
}

func (e *UnsupportedIpVersionError) Error() string {
	return fmt.Sprintf("unsupported ip version number %d", e.Version)
}

// Ipv4HeaderLengthSmallerThanHeaderError is returned when an IPv4 IHL
// nibble is smaller than the minimum fixed header (5 32-bit words).
type Ipv4HeaderLengthSmallerThanHeaderError struct {
	Ihl uint8
}

func (e *Ipv4HeaderLengthSmallerThanHeaderError) Error() string {
	return fmt.Sprintf("ipv4 header length (ihl) of %d is smaller than the minimum header size of 5", e.Ihl)
}

// Ipv4TotalLengthSmallerThanHeaderError is returned when an IPv4 header's
// Total Length field claims fewer bytes than the header it is attached to.
type Ipv4TotalLengthSmallerThanHeaderError struct {
	TotalLength int
	MinLength   int
}

func (e *Ipv4TotalLengthSmallerThanHeaderError) Error() string {
	return fmt.Sprintf("ipv4 total length of %d is smaller than the header length of %d", e.TotalLength, e.MinLength)
}

// Ipv6HopByHopNotAtStartError is returned when a Hop-by-Hop Options
// extension header appears anywhere other than immediately after the
// fixed IPv6 header.
type Ipv6HopByHopNotAtStartError struct{}

func (e *Ipv6HopByHopNotAtStartError) Error() string {
	return "ipv6 hop-by-hop extension header must be the first extension header, but was not"
}

// Ipv6ExtNotReferencedError is returned by the extension-header serializer
// when the caller's declared next-header chain does not match the set of
// extension headers actually supplied.
type Ipv6ExtNotReferencedError struct {
	IpNumber IPNumber
}

func (e *Ipv6ExtNotReferencedError) Error() string {
	return fmt.Sprintf("ipv6 extension header for ip number %d was supplied but not referenced by the next-header chain", e.IpNumber)
}

// Ipv6ExtNotDefinedError is the inverse: the next-header chain points at
// an extension header that wasn't supplied.
type Ipv6ExtNotDefinedError struct {
	IpNumber IPNumber
}

func (e *Ipv6ExtNotDefinedError) Error() string {
	return fmt.Sprintf("ipv6 next header chain references ip number %d, but no matching extension header was given", e.IpNumber)
}

// IpAuthZeroPayloadLenError is returned when an IPv4/IPv6 Authentication
// Header's payload_len field is zero, which RFC 4302 forbids.
type IpAuthZeroPayloadLenError struct{}

func (e *IpAuthZeroPayloadLenError) Error() string {
	return "ip authentication header payload length must not be zero"
}

// IcvLenTooBigError is returned when an Authentication Header's ICV length
// exceeds MaxLen, the largest ICV the parser accepts.
type IcvLenTooBigError struct {
	IcvLen int
	MaxLen int
}

func (e *IcvLenTooBigError) Error() string {
	return fmt.Sprintf("authentication header icv length of %d exceeds maximum of %d", e.IcvLen, e.MaxLen)
}

// IcvLenUnalignedError is returned when an Authentication Header's overall
// length is not a multiple of 4 bytes, which RFC 4302 requires.
type IcvLenUnalignedError struct {
	Len int
}

func (e *IcvLenUnalignedError) Error() string {
	return fmt.Sprintf("authentication header length of %d is not 4-byte aligned", e.Len)
}

// TcpDataOffsetTooSmallError is returned when a TCP header's Data Offset
// nibble is smaller than the minimum fixed header (5 32-bit words).
type TcpDataOffsetTooSmallError struct {
	DataOffset uint8
}

func (e *TcpDataOffsetTooSmallError) Error() string {
	return fmt.Sprintf("tcp data offset of %d is smaller than the minimum header size of 5", e.DataOffset)
}

// NonVlanEtherTypeError is returned when a second (inner) VLAN tag was
// expected but the EtherType preceding it did not name a VLAN tag.
type NonVlanEtherTypeError struct {
	EtherType EtherType
}

func (e *NonVlanEtherTypeError) Error() string {
	return fmt.Sprintf("expected a vlan tagged ether type, got %s", e.EtherType)
}

// MacsecUnexpectedVersionError is returned when a MACsec SecTag's version
// bit is set to a value this codec does not understand.
type MacsecUnexpectedVersionError struct {
	Version uint8
}

func (e *MacsecUnexpectedVersionError) Error() string {
	return fmt.Sprintf("unexpected macsec sectag version %d", e.Version)
}

// MacsecInvalidUnmodifiedShortLenError is returned when a MACsec SecTag's
// payload is unmodified and its short length is 1, too short to hold the
// 2-byte EtherType an unmodified payload starts with. A short length of 0
// or of 2 and above is accepted.
type MacsecInvalidUnmodifiedShortLenError struct {
	ShortLen uint8
}

func (e *MacsecInvalidUnmodifiedShortLenError) Error() string {
	return fmt.Sprintf("macsec sectag marked unmodified but short length is %d, want 0 or at least 2", e.ShortLen)
}

// UnalignedFragmentPayloadLenError is returned by the defragmenter when a
// non-final fragment's payload length is not a multiple of 8, which the
// fragment offset field's units require.
type UnalignedFragmentPayloadLenError struct {
	PayloadLen int
}

func (e *UnalignedFragmentPayloadLenError) Error() string {
	return fmt.Sprintf("non-final ip fragment payload length of %d is not a multiple of 8", e.PayloadLen)
}

// SegmentTooBigError is returned by the defragmenter when a fragment's
// offset plus length would place data beyond the maximum possible IP
// payload length (65535 bytes).
type SegmentTooBigError struct {
	Offset int
	Len    int
	Max    int
}

func (e *SegmentTooBigError) Error() string {
	return fmt.Sprintf("ip fragment at offset %d with length %d exceeds maximum reassembled size of %d", e.Offset, e.Len, e.Max)
}

// ConflictingEndError is returned by the defragmenter when two fragments
// claiming to be the final fragment of a datagram disagree on the total
// reassembled length.
type ConflictingEndError struct {
	First  int
	Second int
}

func (e *ConflictingEndError) Error() string {
	return fmt.Sprintf("conflicting ip fragment end offsets: %d vs %d", e.First, e.Second)
}

// Icmpv6InIpv4Error is returned by the builder when an ICMPv6 message is
// asked to compute its checksum against an IPv4 pseudo-header, which
// RFC 4443 does not define.
type Icmpv6InIpv4Error struct{}

func (e *Icmpv6InIpv4Error) Error() string {
	return "icmpv6 checksum requires an ipv6 pseudo-header, but an ipv4 pseudo-header was given"
}

// VlanNestingTooDeepError is returned by the packet slicer when a third
// VLAN tag is encountered; only single and double (Q-in-Q) tagging are
// recognized.
type VlanNestingTooDeepError struct{}

func (e *VlanNestingTooDeepError) Error() string {
	return "more than two nested vlan tags"
}

// MacsecAlreadyPresentError is returned by the packet slicer when a
// second MACsec SecTag is encountered in the same link extension chain.
type MacsecAlreadyPresentError struct{}

func (e *MacsecAlreadyPresentError) Error() string {
	return "more than one macsec sectag in the same frame"
}

// ArpEthIpv4FromError is returned when an otherwise well-formed ARP
// packet doesn't match the constraints of the Ethernet+IPv4 ARP
// specialization (wrong hardware/protocol type or address lengths).
type ArpEthIpv4FromError struct {
	// Reason names which constraint failed, e.g. "hardware_type",
	// "protocol_type", "hardware_addr_len", "protocol_addr_len".
	Reason string
}

func (e *ArpEthIpv4FromError) Error() string {
	return fmt.Sprintf("arp packet is not a valid ethernet/ipv4 arp packet: %s", e.Reason)
}
