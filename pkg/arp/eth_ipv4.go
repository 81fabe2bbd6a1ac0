package arp

import (
	"fmt"

	"github.com/netlayers/etherslice/pkg/common"
)

// EthIpv4PacketLen is the fixed size of an ARP packet specialized to
// Ethernet hardware addresses and IPv4 protocol addresses.
const EthIpv4PacketLen = FixedHeaderLen + 2*(6+4)

// ArpEthIpv4Packet is ARP specialized to the overwhelmingly common case
// of Ethernet hardware addresses and IPv4 protocol addresses, with fixed-
// width typed fields instead of Header's runtime-sized byte slices.
type ArpEthIpv4Packet struct {
	Operation  Operation
	SenderMac  common.MACAddress
	SenderIpv4 common.IPv4Address
	TargetMac  common.MACAddress
	TargetIpv4 common.IPv4Address
}

// ToHeader widens p back into the generic Header representation.
func (p ArpEthIpv4Packet) ToHeader() Header {
	return Header{
		HwAddrType:      common.ArpHardwareIDEthernet,
		ProtoAddrType:   common.EtherTypeIPv4,
		HwAddrSize:      6,
		ProtoAddrSize:   4,
		Operation:       p.Operation,
		SenderHwAddr:    append([]byte(nil), p.SenderMac[:]...),
		SenderProtoAddr: append([]byte(nil), p.SenderIpv4[:]...),
		TargetHwAddr:    append([]byte(nil), p.TargetMac[:]...),
		TargetProtoAddr: append([]byte(nil), p.TargetIpv4[:]...),
	}
}

// ToBytes serializes p to its fixed 28-byte wire representation.
func (p ArpEthIpv4Packet) ToBytes() [EthIpv4PacketLen]byte {
	var b [EthIpv4PacketLen]byte
	copy(b[:], p.ToHeader().ToBytes())
	return b
}

// Write serializes p into w.
func (p ArpEthIpv4Packet) Write(w *common.Writer) error {
	b := p.ToBytes()
	return w.PutBytes(b[:])
}

// String returns a human-readable representation of the packet.
func (p ArpEthIpv4Packet) String() string {
	return fmt.Sprintf("ArpEthIpv4{Op=%s, Sender=%s(%s), Target=%s(%s)}",
		p.Operation, p.SenderIpv4, p.SenderMac, p.TargetIpv4, p.TargetMac)
}

// NewRequest builds an ARP request: "who has targetIpv4? tell senderIpv4".
func NewRequest(senderMac common.MACAddress, senderIpv4, targetIpv4 common.IPv4Address) ArpEthIpv4Packet {
	return ArpEthIpv4Packet{
		Operation:  OperationRequest,
		SenderMac:  senderMac,
		SenderIpv4: senderIpv4,
		TargetMac:  common.MACAddress{},
		TargetIpv4: targetIpv4,
	}
}

// NewReply builds an ARP reply: "senderIpv4 is at senderMac", addressed to
// targetMac/targetIpv4.
func NewReply(senderMac common.MACAddress, senderIpv4 common.IPv4Address, targetMac common.MACAddress, targetIpv4 common.IPv4Address) ArpEthIpv4Packet {
	return ArpEthIpv4Packet{
		Operation:  OperationReply,
		SenderMac:  senderMac,
		SenderIpv4: senderIpv4,
		TargetMac:  targetMac,
		TargetIpv4: targetIpv4,
	}
}

// IsRequest reports whether p is an ARP request.
func (p ArpEthIpv4Packet) IsRequest() bool { return p.Operation == OperationRequest }

// IsReply reports whether p is an ARP reply.
func (p ArpEthIpv4Packet) IsReply() bool { return p.Operation == OperationReply }

// ArpEthIpv4FromHeader narrows a generic Header down to the Ethernet/
// IPv4 specialization, failing with ArpEthIpv4FromError if the header's
// hardware/protocol types or address sizes don't match.
func ArpEthIpv4FromHeader(h Header) (ArpEthIpv4Packet, error) {
	if h.HwAddrType != common.ArpHardwareIDEthernet {
		return ArpEthIpv4Packet{}, &common.ArpEthIpv4FromError{Reason: "hardware_type"}
	}
	if h.ProtoAddrType != common.EtherTypeIPv4 {
		return ArpEthIpv4Packet{}, &common.ArpEthIpv4FromError{Reason: "protocol_type"}
	}
	if h.HwAddrSize != 6 {
		return ArpEthIpv4Packet{}, &common.ArpEthIpv4FromError{Reason: "hardware_addr_len"}
	}
	if h.ProtoAddrSize != 4 {
		return ArpEthIpv4Packet{}, &common.ArpEthIpv4FromError{Reason: "protocol_addr_len"}
	}

	var p ArpEthIpv4Packet
	p.Operation = h.Operation
	copy(p.SenderMac[:], h.SenderHwAddr)
	copy(p.SenderIpv4[:], h.SenderProtoAddr)
	copy(p.TargetMac[:], h.TargetHwAddr)
	copy(p.TargetIpv4[:], h.TargetProtoAddr)
	return p, nil
}

// ArpEthIpv4FromSlice decodes a generic ARP header from data and
// immediately narrows it to the Ethernet/IPv4 specialization.
func ArpEthIpv4FromSlice(data []byte) (ArpEthIpv4Packet, []byte, error) {
	s, rest, err := FromSlice(data)
	if err != nil {
		return ArpEthIpv4Packet{}, nil, err
	}
	p, err := ArpEthIpv4FromHeader(s.ToHeader())
	if err != nil {
		return ArpEthIpv4Packet{}, nil, err
	}
	return p, rest, nil
}
