// Package packet implements the top-level decode and encode entry
// points: a strict slicer that fails on the first inconsistency, a lax
// slicer that returns a best-effort partial decode, and a phase-typed
// builder for constructing well-formed packets layer by layer.
package packet

import (
	"fmt"

	"github.com/netlayers/etherslice/pkg/arp"
	"github.com/netlayers/etherslice/pkg/common"
	"github.com/netlayers/etherslice/pkg/ethernet"
	"github.com/netlayers/etherslice/pkg/icmp"
	"github.com/netlayers/etherslice/pkg/icmpv6"
	"github.com/netlayers/etherslice/pkg/ip"
	"github.com/netlayers/etherslice/pkg/ipv6"
	"github.com/netlayers/etherslice/pkg/linuxsll"
	"github.com/netlayers/etherslice/pkg/macsec"
	"github.com/netlayers/etherslice/pkg/tcp"
	"github.com/netlayers/etherslice/pkg/udp"
	"github.com/netlayers/etherslice/pkg/vlan"
)

// maxVlanTags is the deepest nesting of 802.1Q/802.1ad tags the slicer
// will walk before giving up; anything past single+double tagging is
// not a shape real networks produce.
const maxVlanTags = 2

// LinkExt is one parsed link extension header: either a VLAN tag or a
// MACsec SecTag. Exactly one field is non-nil.
type LinkExt struct {
	Vlan   *vlan.Slice
	Macsec *macsec.Slice
}

// LinkLayer is the parsed link-layer header. Exactly one field is
// non-nil, except when the packet was sliced starting above the link
// layer (FromEtherType, FromIP), in which case both are nil.
type LinkLayer struct {
	Ethernet *ethernet.Slice
	LinuxSll *linuxsll.Slice
}

// NetLayer is the parsed network-layer header and its extension chain.
// At most one of Ipv4/Ipv6 is non-nil.
type NetLayer struct {
	Ipv4     *ip.Slice
	Ipv4Exts *ip.Extensions
	Ipv6     *ipv6.Slice
	Ipv6Exts *ipv6.Extensions
}

// Fragmented reports whether the net layer indicates this datagram is a
// fragment of a larger one.
func (n NetLayer) Fragmented() bool {
	switch {
	case n.Ipv4 != nil:
		return n.Ipv4.Fragmented()
	case n.Ipv6 != nil && n.Ipv6Exts != nil:
		return n.Ipv6Exts.Fragmented()
	default:
		return false
	}
}

// TransportLayer is the parsed transport-layer header. At most one
// field is non-nil.
type TransportLayer struct {
	Udp    *udp.Slice
	Tcp    *tcp.Slice
	Icmpv4 *icmp.Slice
	Icmpv6 *icmpv6.Slice
}

// Payload is what remains after every header the slicer recognized has
// been parsed off.
type Payload struct {
	// IpNumber is the final inner protocol number once net-layer
	// extensions have been walked, or zero if no net layer was parsed.
	IpNumber common.IPNumber
	// Fragmented mirrors NetLayer.Fragmented, cached for convenience.
	Fragmented bool
	// LenSource names which length field (if any) determined where this
	// payload was clipped.
	LenSource common.LenSource
	Data      []byte
}

// SlicedPacket is the result of a strict slice: every layer present was
// fully parsed and length-consistent, or the slice operation failed and
// returned a nil, zero-value SlicedPacket with a non-nil error.
type SlicedPacket struct {
	Link      LinkLayer
	LinkExts  []LinkExt
	Net       NetLayer
	Transport TransportLayer
	Arp       *arp.Slice
	Payload   Payload
}

// FromEthernet parses an Ethernet II frame and everything the slicer
// recognizes beneath it.
func FromEthernet(data []byte) (SlicedPacket, error) {
	eth, rest, err := ethernet.FromSlice(data)
	if err != nil {
		return SlicedPacket{}, err
	}
	var pkt SlicedPacket
	pkt.Link.Ethernet = &eth
	if err := pkt.sliceFromEtherType(eth.EtherType(), rest); err != nil {
		return SlicedPacket{}, err
	}
	return pkt, nil
}

// FromEtherType parses everything beneath a link header the caller has
// already stripped, starting dispatch from the given EtherType.
func FromEtherType(etherType common.EtherType, data []byte) (SlicedPacket, error) {
	var pkt SlicedPacket
	if err := pkt.sliceFromEtherType(etherType, data); err != nil {
		return SlicedPacket{}, err
	}
	return pkt, nil
}

// FromLinuxSLL parses a Linux "cooked capture" header and everything
// beneath it. If the header's protocol_type field isn't an EtherType for
// its hardware type (e.g. a non-Ethernet capture), only the link header
// is parsed and the remainder is returned as the payload.
func FromLinuxSLL(data []byte) (SlicedPacket, error) {
	sll, rest, err := linuxsll.FromSlice(data)
	if err != nil {
		return SlicedPacket{}, err
	}
	var pkt SlicedPacket
	pkt.Link.LinuxSll = &sll
	if !sll.IsEtherType() {
		pkt.Payload = Payload{LenSource: common.LenSourceSlice, Data: rest}
		return pkt, nil
	}
	if err := pkt.sliceFromEtherType(common.EtherType(sll.ProtocolType()), rest); err != nil {
		return SlicedPacket{}, err
	}
	return pkt, nil
}

// FromIP parses a network-layer header (IPv4 or IPv6, determined by the
// version nibble of the first byte) and everything beneath it, for
// callers that captured above the link layer entirely (e.g. a tun
// device).
func FromIP(data []byte) (SlicedPacket, error) {
	var pkt SlicedPacket
	if err := pkt.sliceFromIP(data); err != nil {
		return SlicedPacket{}, err
	}
	return pkt, nil
}

// sliceFromEtherType walks link extensions (VLAN/MACsec) starting from
// discriminator etherType, then dispatches to the net layer or, for ARP,
// decodes it directly as the final layer.
func (pkt *SlicedPacket) sliceFromEtherType(etherType common.EtherType, data []byte) error {
	d := etherType
	rest := data
	vlanCount := 0
	sawMacsec := false

	for {
		switch {
		case d.IsVlan():
			if vlanCount >= maxVlanTags {
				return &common.VlanNestingTooDeepError{}
			}
			v, r, err := vlan.FromSlice(rest)
			if err != nil {
				return err
			}
			pkt.LinkExts = append(pkt.LinkExts, LinkExt{Vlan: &v})
			vlanCount++
			d, rest = v.EtherType(), r

		case d == common.EtherTypeMacsec:
			if sawMacsec {
				return &common.MacsecAlreadyPresentError{}
			}
			m, r, err := macsec.FromSlice(rest)
			if err != nil {
				return err
			}
			pkt.LinkExts = append(pkt.LinkExts, LinkExt{Macsec: &m})
			sawMacsec = true
			rest = r
			pt := m.PType()
			if pt.Kind != macsec.Unmodified {
				// Encrypted or modified payload: nothing further to
				// dispatch on, the remainder is opaque to this slicer.
				pkt.Payload = Payload{LenSource: common.LenSourceSlice, Data: rest}
				return nil
			}
			d = pt.EtherType

		default:
			goto dispatch
		}
	}

dispatch:
	switch d {
	case common.EtherTypeIPv4, common.EtherTypeIPv6:
		return pkt.sliceFromIP(rest)
	case common.EtherTypeARP:
		a, r, err := arp.FromSlice(rest)
		if err != nil {
			return err
		}
		pkt.Arp = &a
		pkt.Payload = Payload{LenSource: common.LenSourceSlice, Data: r}
		return nil
	default:
		pkt.Payload = Payload{LenSource: common.LenSourceSlice, Data: rest}
		return nil
	}
}

// sliceFromIP parses the network layer (version-dispatched), its
// extension chain, and, if recognized, a transport header beneath it.
func (pkt *SlicedPacket) sliceFromIP(data []byte) error {
	if len(data) == 0 {
		return &common.LenError{
			Required:  1,
			Actual:    0,
			Layer:     common.LayerNet,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
	}
	version := data[0] >> 4

	var ipNumber common.IPNumber
	var payload []byte
	var fragmented bool
	var lenSource common.LenSource

	switch version {
	case ip.Version:
		s, netPayload, err := ip.PayloadFromSlice(data)
		if err != nil {
			return err
		}
		exts, finalProto, afterExts, err := ip.ExtensionsFromSlice(s.Protocol(), netPayload)
		if err != nil {
			return err
		}
		pkt.Net.Ipv4 = &s
		pkt.Net.Ipv4Exts = &exts
		ipNumber = finalProto
		payload = afterExts
		fragmented = s.Fragmented()
		lenSource = common.LenSourceIpv4HeaderTotalLen

	case ipv6.Version:
		s, netPayload, err := ipv6.PayloadFromSlice(data)
		if err != nil {
			return err
		}
		exts, finalProto, afterExts, err := ipv6.ExtensionsFromSlice(s.NextHeader(), netPayload)
		if err != nil {
			return err
		}
		pkt.Net.Ipv6 = &s
		pkt.Net.Ipv6Exts = &exts
		ipNumber = finalProto
		payload = afterExts
		fragmented = exts.Fragmented()
		lenSource = common.LenSourceIpv6HeaderPayloadLen

	default:
		return &common.UnsupportedIpVersionError{Version: version}
	}

	return pkt.sliceTransport(ipNumber, fragmented, lenSource, payload)
}

// sliceTransport dispatches the final inner IP number to a transport
// header codec, falling back to an opaque payload for anything else.
// Dispatch does not look at the fragment state: a fragment whose IP
// number names a transport protocol is parsed as that protocol, and
// fragmented is only recorded in the returned Payload.
func (pkt *SlicedPacket) sliceTransport(ipNumber common.IPNumber, fragmented bool, lenSource common.LenSource, data []byte) error {
	switch ipNumber {
	case common.IPNumberUDP:
		s, rest, err := udp.FromSlice(data)
		if err != nil {
			return err
		}
		pkt.Transport.Udp = &s
		pkt.Payload = Payload{IpNumber: ipNumber, Fragmented: fragmented, LenSource: common.LenSourceUdpHeaderLen, Data: rest}
		return nil

	case common.IPNumberTCP:
		s, rest, err := tcp.FromSlice(data)
		if err != nil {
			return err
		}
		pkt.Transport.Tcp = &s
		pkt.Payload = Payload{IpNumber: ipNumber, Fragmented: fragmented, LenSource: lenSource, Data: rest}
		return nil

	case common.IPNumberICMP:
		s, rest, err := icmp.FromSlice(data)
		if err != nil {
			return err
		}
		pkt.Transport.Icmpv4 = &s
		pkt.Payload = Payload{IpNumber: ipNumber, Fragmented: fragmented, LenSource: lenSource, Data: rest}
		return nil

	case common.IPNumberIPv6Icmp:
		s, rest, err := icmpv6.FromSlice(data)
		if err != nil {
			return err
		}
		pkt.Transport.Icmpv6 = &s
		pkt.Payload = Payload{IpNumber: ipNumber, Fragmented: fragmented, LenSource: lenSource, Data: rest}
		return nil

	default:
		pkt.Payload = Payload{IpNumber: ipNumber, Fragmented: fragmented, LenSource: lenSource, Data: data}
		return nil
	}
}

// String returns a human-readable one-line summary of which layers were
// decoded.
func (pkt SlicedPacket) String() string {
	return fmt.Sprintf("SlicedPacket{link=%v, linkExts=%d, net=%s, transport=%s, payloadLen=%d}",
		pkt.Link.summary(), len(pkt.LinkExts), pkt.Net.summary(), pkt.Transport.summary(), len(pkt.Payload.Data))
}

func (l LinkLayer) summary() string {
	switch {
	case l.Ethernet != nil:
		return "Ethernet2"
	case l.LinuxSll != nil:
		return "LinuxSll"
	default:
		return "none"
	}
}

func (n NetLayer) summary() string {
	switch {
	case n.Ipv4 != nil:
		return "Ipv4"
	case n.Ipv6 != nil:
		return "Ipv6"
	default:
		return "none"
	}
}

func (t TransportLayer) summary() string {
	switch {
	case t.Udp != nil:
		return "Udp"
	case t.Tcp != nil:
		return "Tcp"
	case t.Icmpv4 != nil:
		return "Icmpv4"
	case t.Icmpv6 != nil:
		return "Icmpv6"
	default:
		return "none"
	}
}
