// Package common provides shared address types, bit-width-constrained
// primitive field wrappers, the checksum engine, and the structured error
// taxonomy used across every header codec in this module.
package common

import (
	"encoding/binary"
	"fmt"
	"net"
)

// MACAddress represents a 48-bit hardware address.
type MACAddress [6]byte

// String returns the MAC address in standard format (e.g., "00:11:22:33:44:55").
func (m MACAddress) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		m[0], m[1], m[2], m[3], m[4], m[5])
}

// IsBroadcast returns true if this is a broadcast MAC address (FF:FF:FF:FF:FF:FF).
func (m MACAddress) IsBroadcast() bool {
	return m[0] == 0xFF && m[1] == 0xFF && m[2] == 0xFF &&
		m[3] == 0xFF && m[4] == 0xFF && m[5] == 0xFF
}

// IsMulticast returns true if the least significant bit of the first byte is 1.
func (m MACAddress) IsMulticast() bool {
	return m[0]&0x01 != 0
}

// ParseMAC parses a string MAC address (e.g., "00:11:22:33:44:55").
func ParseMAC(s string) (MACAddress, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return MACAddress{}, err
	}
	if len(hw) != 6 {
		return MACAddress{}, fmt.Errorf("invalid MAC address length: %d", len(hw))
	}
	var mac MACAddress
	copy(mac[:], hw)
	return mac, nil
}

// BroadcastMAC is the broadcast MAC address (FF:FF:FF:FF:FF:FF).
var BroadcastMAC = MACAddress{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// IPv4Address represents a 32-bit IPv4 address.
type IPv4Address [4]byte

// String returns the IP address in dotted decimal format (e.g., "192.168.1.1").
func (ip IPv4Address) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", ip[0], ip[1], ip[2], ip[3])
}

// ToUint32 converts the IPv4 address to a uint32 in network byte order.
func (ip IPv4Address) ToUint32() uint32 {
	return binary.BigEndian.Uint32(ip[:])
}

// ParseIPv4 parses a string IPv4 address (e.g., "192.168.1.1").
func ParseIPv4(s string) (IPv4Address, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return IPv4Address{}, fmt.Errorf("invalid IP address: %s", s)
	}
	ip = ip.To4()
	if ip == nil {
		return IPv4Address{}, fmt.Errorf("not an IPv4 address: %s", s)
	}
	var addr IPv4Address
	copy(addr[:], ip)
	return addr, nil
}

// IPv4FromUint32 converts a uint32 to an IPv4 address.
func IPv4FromUint32(v uint32) IPv4Address {
	var addr IPv4Address
	binary.BigEndian.PutUint32(addr[:], v)
	return addr
}

// IPv6Address represents a 128-bit IPv6 address.
type IPv6Address [16]byte

// String returns the IPv6 address using the standard library's
// zero-run-compression rules.
func (ip IPv6Address) String() string {
	return net.IP(ip[:]).String()
}

// ParseIPv6 parses a string IPv6 address (e.g., "fe80::1").
func ParseIPv6(s string) (IPv6Address, error) {
	parsed := net.ParseIP(s)
	if parsed == nil {
		return IPv6Address{}, fmt.Errorf("invalid IP address: %s", s)
	}
	v6 := parsed.To16()
	if v6 == nil || parsed.To4() != nil {
		return IPv6Address{}, fmt.Errorf("not an IPv6 address: %s", s)
	}
	var addr IPv6Address
	copy(addr[:], v6)
	return addr, nil
}

// IsMulticast returns true if the address is in the ff00::/8 range.
func (ip IPv6Address) IsMulticast() bool {
	return ip[0] == 0xff
}

// EtherType represents the protocol type in an Ethernet frame or VLAN tag.
type EtherType uint16

// Common EtherType values.
const (
	EtherTypeIPv4                  EtherType = 0x0800 // Internet Protocol version 4
	EtherTypeARP                   EtherType = 0x0806 // Address Resolution Protocol
	EtherTypeVlanTaggedFrame       EtherType = 0x8100 // IEEE 802.1Q VLAN-tagged frame
	EtherTypeProviderBridging      EtherType = 0x88A8 // IEEE 802.1ad provider bridging (QinQ)
	EtherTypeVlanDoubleTaggedFrame EtherType = 0x9100 // legacy double-tagged QinQ
	EtherTypeIPv6                  EtherType = 0x86DD // Internet Protocol version 6
	EtherTypeMacsec                EtherType = 0x88E5 // MACsec
)

// String returns a human-readable name for the EtherType.
func (et EtherType) String() string {
	switch et {
	case EtherTypeIPv4:
		return "IPv4"
	case EtherTypeARP:
		return "ARP"
	case EtherTypeIPv6:
		return "IPv6"
	case EtherTypeVlanTaggedFrame:
		return "VlanTaggedFrame"
	case EtherTypeProviderBridging:
		return "ProviderBridging"
	case EtherTypeVlanDoubleTaggedFrame:
		return "VlanDoubleTaggedFrame"
	case EtherTypeMacsec:
		return "Macsec"
	default:
		return fmt.Sprintf("Unknown(0x%04x)", uint16(et))
	}
}

// IsVlan returns true if the EtherType names one of the three VLAN tag
// protocol identifiers recognized while walking link extension headers.
func (et EtherType) IsVlan() bool {
	switch et {
	case EtherTypeVlanTaggedFrame, EtherTypeProviderBridging, EtherTypeVlanDoubleTaggedFrame:
		return true
	default:
		return false
	}
}

// IPNumber represents the protocol/next-header number carried in an IPv4
// protocol field, an IPv6 next-header field, or an extension header's
// next-header field.
type IPNumber uint8

// Protocol is a teacher-compatible alias: the original single-layer design
// called this field "Protocol". IPNumber is the spec vocabulary; both names
// refer to the same 8-bit wire value.
type Protocol = IPNumber

// Common IP protocol/next-header numbers.
const (
	IPNumberICMP         IPNumber = 1
	IPNumberIPv4         IPNumber = 4 // IPv4 encapsulated in IPv4/IPv6 (IP-in-IP)
	IPNumberTCP          IPNumber = 6
	IPNumberUDP          IPNumber = 17
	IPNumberIPv6         IPNumber = 41 // IPv6 encapsulated in IPv4 (6in4)
	IPNumberIPv6Route    IPNumber = 43
	IPNumberIPv6Frag     IPNumber = 44
	IPNumberIPv6Icmp     IPNumber = 58
	IPNumberIPv6NoNxt    IPNumber = 59
	IPNumberIPv6DestOpts IPNumber = 60
	IPNumberAuth         IPNumber = 51
	IPNumberIPv6HopByHop IPNumber = 0
	IPNumberMobility     IPNumber = 135
	IPNumberHip          IPNumber = 139
	IPNumberShim6        IPNumber = 140
)

// Teacher aliases, kept for call-site compatibility with code written
// against the original single-layer (IPv4 only) Protocol type.
const (
	ProtocolICMP = IPNumberICMP
	ProtocolTCP  = IPNumberTCP
	ProtocolUDP  = IPNumberUDP
)

// String returns a human-readable name for the protocol/next-header number.
func (p IPNumber) String() string {
	switch p {
	case IPNumberICMP:
		return "ICMP"
	case IPNumberIPv4:
		return "IPv4"
	case IPNumberTCP:
		return "TCP"
	case IPNumberUDP:
		return "UDP"
	case IPNumberIPv6:
		return "IPv6"
	case IPNumberIPv6Route:
		return "IPv6Route"
	case IPNumberIPv6Frag:
		return "IPv6Frag"
	case IPNumberIPv6Icmp:
		return "IPv6Icmp"
	case IPNumberIPv6NoNxt:
		return "IPv6NoNxt"
	case IPNumberIPv6DestOpts:
		return "IPv6DestOpts"
	case IPNumberAuth:
		return "Auth"
	case IPNumberIPv6HopByHop:
		return "IPv6HopByHop"
	case IPNumberMobility:
		return "Mobility"
	case IPNumberHip:
		return "Hip"
	case IPNumberShim6:
		return "Shim6"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(p))
	}
}

// IsIpv6ExtHeader returns true if the number names one of the IPv6
// extension headers. The walker in pkg/ipv6 parses Hop-by-Hop, Routing,
// Fragment, Destination Options and Authentication, and stops at
// Mobility, HIP and Shim6, returning them as the final protocol.
func (p IPNumber) IsIpv6ExtHeader() bool {
	switch p {
	case IPNumberIPv6HopByHop, IPNumberIPv6Route, IPNumberIPv6Frag, IPNumberIPv6DestOpts, IPNumberAuth,
		IPNumberMobility, IPNumberHip, IPNumberShim6:
		return true
	default:
		return false
	}
}

// ArpHardwareID represents the hardware type field of an ARP packet.
type ArpHardwareID uint16

// Common ARP hardware type values.
const (
	ArpHardwareIDEthernet     ArpHardwareID = 1
	ArpHardwareIDIEEE802      ArpHardwareID = 6
	ArpHardwareIDArcnet       ArpHardwareID = 7
	ArpHardwareIDFrameRelay   ArpHardwareID = 15
	ArpHardwareIDFibreChannel ArpHardwareID = 18
	ArpHardwareIDAtm          ArpHardwareID = 19
	ArpHardwareIDHdlc         ArpHardwareID = 20
)

func (h ArpHardwareID) String() string {
	switch h {
	case ArpHardwareIDEthernet:
		return "Ethernet"
	case ArpHardwareIDIEEE802:
		return "IEEE802"
	case ArpHardwareIDArcnet:
		return "Arcnet"
	case ArpHardwareIDFrameRelay:
		return "FrameRelay"
	case ArpHardwareIDFibreChannel:
		return "FibreChannel"
	case ArpHardwareIDAtm:
		return "Atm"
	case ArpHardwareIDHdlc:
		return "Hdlc"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(h))
	}
}

// LinuxSllPacketType is the packet_type field of a Linux "cooked capture"
// (SLL) header: how the packet relates to the capturing interface.
type LinuxSllPacketType uint16

const (
	LinuxSllPacketTypeHost      LinuxSllPacketType = 0 // addressed to us
	LinuxSllPacketTypeBroadcast LinuxSllPacketType = 1
	LinuxSllPacketTypeMulticast LinuxSllPacketType = 2
	LinuxSllPacketTypeOtherHost LinuxSllPacketType = 3 // addressed to someone else, seen promiscuously
	LinuxSllPacketTypeOutgoing  LinuxSllPacketType = 4 // sent by us
)

func (p LinuxSllPacketType) String() string {
	switch p {
	case LinuxSllPacketTypeHost:
		return "Host"
	case LinuxSllPacketTypeBroadcast:
		return "Broadcast"
	case LinuxSllPacketTypeMulticast:
		return "Multicast"
	case LinuxSllPacketTypeOtherHost:
		return "OtherHost"
	case LinuxSllPacketTypeOutgoing:
		return "Outgoing"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(p))
	}
}

// LinuxSllProtocolType is the "protocol type" field of an SLL header. Its
// interpretation depends on the hardware-address-type field: for most
// link types it is an EtherType, but for some link types (e.g. Netlink)
// it instead names a link-specific namespace.
type LinuxSllProtocolType uint16

// IsEtherType reports whether, given the packet's ArpHardwareID, the
// protocol type should be interpreted as an EtherType.
func (p LinuxSllProtocolType) IsEtherType(hwType ArpHardwareID) bool {
	switch hwType {
	case ArpHardwareIDEthernet, ArpHardwareIDIEEE802:
		return true
	default:
		return false
	}
}

// Icmpv4Type is the ICMPv4 message type.
type Icmpv4Type uint8

const (
	Icmpv4TypeEchoReply              Icmpv4Type = 0
	Icmpv4TypeDestinationUnreachable Icmpv4Type = 3
	Icmpv4TypeRedirect               Icmpv4Type = 5
	Icmpv4TypeEchoRequest            Icmpv4Type = 8
	Icmpv4TypeTimeExceeded           Icmpv4Type = 11
	Icmpv4TypeParameterProblem       Icmpv4Type = 12
	Icmpv4TypeTimestamp              Icmpv4Type = 13
	Icmpv4TypeTimestampReply         Icmpv4Type = 14
)

func (t Icmpv4Type) String() string {
	switch t {
	case Icmpv4TypeEchoReply:
		return "EchoReply"
	case Icmpv4TypeDestinationUnreachable:
		return "DestinationUnreachable"
	case Icmpv4TypeRedirect:
		return "Redirect"
	case Icmpv4TypeEchoRequest:
		return "EchoRequest"
	case Icmpv4TypeTimeExceeded:
		return "TimeExceeded"
	case Icmpv4TypeParameterProblem:
		return "ParameterProblem"
	case Icmpv4TypeTimestamp:
		return "Timestamp"
	case Icmpv4TypeTimestampReply:
		return "TimestampReply"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// Icmpv4Code is the ICMPv4 message code; its meaning depends on Type.
type Icmpv4Code uint8

// Destination Unreachable codes.
const (
	Icmpv4CodeNetUnreachable      Icmpv4Code = 0
	Icmpv4CodeHostUnreachable     Icmpv4Code = 1
	Icmpv4CodeProtocolUnreachable Icmpv4Code = 2
	Icmpv4CodePortUnreachable     Icmpv4Code = 3
	Icmpv4CodeFragmentationNeeded Icmpv4Code = 4
	Icmpv4CodeSourceRouteFailed   Icmpv4Code = 5
)

// Time Exceeded codes.
const (
	Icmpv4CodeTTLExceeded            Icmpv4Code = 0
	Icmpv4CodeFragmentReassemblyTime Icmpv4Code = 1
)

// Redirect codes.
const (
	Icmpv4CodeRedirectForNetwork Icmpv4Code = 0
	Icmpv4CodeRedirectForHost    Icmpv4Code = 1
)

// Icmpv6Type is the ICMPv6 message type.
type Icmpv6Type uint8

const (
	Icmpv6TypeDestinationUnreachable  Icmpv6Type = 1
	Icmpv6TypePacketTooBig            Icmpv6Type = 2
	Icmpv6TypeTimeExceeded            Icmpv6Type = 3
	Icmpv6TypeParameterProblem        Icmpv6Type = 4
	Icmpv6TypeEchoRequest             Icmpv6Type = 128
	Icmpv6TypeEchoReply               Icmpv6Type = 129
	Icmpv6TypeMulticastListenerQuery  Icmpv6Type = 130
	Icmpv6TypeMulticastListenerReport Icmpv6Type = 131
	Icmpv6TypeMulticastListenerDone   Icmpv6Type = 132
	Icmpv6TypeRouterSolicitation      Icmpv6Type = 133
	Icmpv6TypeRouterAdvertisement     Icmpv6Type = 134
	Icmpv6TypeNeighborSolicitation    Icmpv6Type = 135
	Icmpv6TypeNeighborAdvertisement   Icmpv6Type = 136
	Icmpv6TypeRedirect                Icmpv6Type = 137
)

func (t Icmpv6Type) String() string {
	switch t {
	case Icmpv6TypeDestinationUnreachable:
		return "DestinationUnreachable"
	case Icmpv6TypePacketTooBig:
		return "PacketTooBig"
	case Icmpv6TypeTimeExceeded:
		return "TimeExceeded"
	case Icmpv6TypeParameterProblem:
		return "ParameterProblem"
	case Icmpv6TypeEchoRequest:
		return "EchoRequest"
	case Icmpv6TypeEchoReply:
		return "EchoReply"
	case Icmpv6TypeMulticastListenerQuery:
		return "MulticastListenerQuery"
	case Icmpv6TypeMulticastListenerReport:
		return "MulticastListenerReport"
	case Icmpv6TypeMulticastListenerDone:
		return "MulticastListenerDone"
	case Icmpv6TypeRouterSolicitation:
		return "RouterSolicitation"
	case Icmpv6TypeRouterAdvertisement:
		return "RouterAdvertisement"
	case Icmpv6TypeNeighborSolicitation:
		return "NeighborSolicitation"
	case Icmpv6TypeNeighborAdvertisement:
		return "NeighborAdvertisement"
	case Icmpv6TypeRedirect:
		return "Redirect"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// Icmpv6Code is the ICMPv6 message code; its meaning depends on Type.
type Icmpv6Code uint8

// Destination Unreachable codes.
const (
	Icmpv6CodeNoRouteToDestination Icmpv6Code = 0
	Icmpv6CodeCommAdminProhibited  Icmpv6Code = 1
	Icmpv6CodeBeyondScopeOfSource  Icmpv6Code = 2
	Icmpv6CodeAddressUnreachable   Icmpv6Code = 3
	Icmpv6CodePortUnreachable      Icmpv6Code = 4
)

// Time Exceeded codes.
const (
	Icmpv6CodeHopLimitExceeded           Icmpv6Code = 0
	Icmpv6CodeFragmentReassemblyExceeded Icmpv6Code = 1
)
