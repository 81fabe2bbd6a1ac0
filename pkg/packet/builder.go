package packet

import (
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

// builtExt is one link extension header as the builder accumulates it:
// owned, not yet serialized, and not yet wired to its neighbor's
// dispatch field.
type builtExt struct {
	vlan   *vlan.Header
	macsec *macsec.Header
}

func (e builtExt) etherType() common.EtherType {
	if e.vlan != nil {
		return common.EtherTypeVlanTaggedFrame
	}
	return common.EtherTypeMacsec
}

func (e builtExt) headerLen() int {
	if e.vlan != nil {
		return vlan.HeaderLen
	}
	return e.macsec.HeaderLen()
}

// builder is the shared, mutable state every stage wrapper writes into.
// Stage types expose only the subset of methods legal at that point in
// the chain; none of them expose builder itself.
type builder struct {
	ethernet *ethernet.Header
	linuxSll *linuxsll.Header
	exts     []builtExt

	ipv4    *ip.Header
	ipv4Ext ip.Extensions
	ipv6    *ipv6.Header
	ipv6Ext ipv6.Extensions

	udp    *udp.Header
	tcp    *tcp.Header
	icmpv4 *icmp.Header
	icmpv6 *icmpv6.Header
}

// LinkStage is the builder's entry phase: choose a link-layer header, a
// network-layer header directly (for captures taken above the link
// layer), or go straight to a transport-only encode via IP.
type LinkStage struct{ b *builder }

// NewBuilder starts a new packet builder at the link-layer phase.
func NewBuilder() LinkStage { return LinkStage{b: &builder{}} }

// Ethernet sets the Ethernet II header and advances to the link
// extension phase.
func (s LinkStage) Ethernet(h ethernet.Header) LinkExtStage {
	s.b.ethernet = &h
	return LinkExtStage{s.b}
}

// LinuxSLL sets the Linux "cooked capture" header and advances to the
// link extension phase.
func (s LinkStage) LinuxSLL(h linuxsll.Header) LinkExtStage {
	s.b.linuxSll = &h
	return LinkExtStage{s.b}
}

// IPv4 skips the link layer entirely and starts from an IPv4 header.
func (s LinkStage) IPv4(h ip.Header) IPv4Stage {
	s.b.ipv4 = &h
	return IPv4Stage{s.b}
}

// IPv6 skips the link layer entirely and starts from an IPv6 header.
func (s LinkStage) IPv6(h ipv6.Header) IPv6Stage {
	s.b.ipv6 = &h
	return IPv6Stage{s.b}
}

// LinkExtStage follows a link-layer header: zero or more VLAN tags and
// at most one MACsec SecTag may be stacked here before the network
// layer.
type LinkExtStage struct{ b *builder }

// VLAN appends an 802.1Q/802.1ad tag.
func (s LinkExtStage) VLAN(h vlan.Header) LinkExtStage {
	s.b.exts = append(s.b.exts, builtExt{vlan: &h})
	return s
}

// MACsec appends a MACsec SecTag.
func (s LinkExtStage) MACsec(h macsec.Header) LinkExtStage {
	s.b.exts = append(s.b.exts, builtExt{macsec: &h})
	return s
}

// IPv4 sets the IPv4 header and advances to the IPv4 phase.
func (s LinkExtStage) IPv4(h ip.Header) IPv4Stage {
	s.b.ipv4 = &h
	return IPv4Stage{s.b}
}

// IPv6 sets the IPv6 header and advances to the IPv6 phase.
func (s LinkExtStage) IPv6(h ipv6.Header) IPv6Stage {
	s.b.ipv6 = &h
	return IPv6Stage{s.b}
}

// IPv4Stage follows an IPv4 header: an optional Authentication Header
// extension, then exactly one transport header.
type IPv4Stage struct{ b *builder }

// Auth sets the IPv4 Authentication Header extension.
func (s IPv4Stage) Auth(h ip.AuthHeader) IPv4Stage {
	s.b.ipv4Ext.Auth = &h
	return s
}

// UDP sets the UDP header and advances to the final write phase.
func (s IPv4Stage) UDP(h udp.Header) TransportStage {
	s.b.udp = &h
	return TransportStage{s.b}
}

// TCP sets the TCP header and advances to the final write phase.
func (s IPv4Stage) TCP(h tcp.Header) TransportStage {
	s.b.tcp = &h
	return TransportStage{s.b}
}

// ICMPv4 sets the ICMPv4 header and advances to the final write phase.
func (s IPv4Stage) ICMPv4(h icmp.Header) TransportStage {
	s.b.icmpv4 = &h
	return TransportStage{s.b}
}

// ICMPv6 sets an ICMPv6 header over an IPv4 packet. This combination is
// always rejected at Write time, since ICMPv6's checksum requires an
// IPv6 pseudo-header; the method exists so the error is reported as a
// structured Icmpv6InIpv4Error rather than a compile failure that would
// give no diagnostic to a caller building packets dynamically.
func (s IPv4Stage) ICMPv6(h icmpv6.Header) TransportStage {
	s.b.icmpv6 = &h
	return TransportStage{s.b}
}

// IPv6Stage follows an IPv6 header: any of the recognized extension
// headers in chain order, then exactly one transport header.
type IPv6Stage struct{ b *builder }

// HopByHop sets the Hop-by-Hop Options extension.
func (s IPv6Stage) HopByHop(h ipv6.RawExt) IPv6Stage {
	s.b.ipv6Ext.HopByHop = &h
	return s
}

// DestinationOptions sets the Destination Options extension.
func (s IPv6Stage) DestinationOptions(h ipv6.RawExt) IPv6Stage {
	s.b.ipv6Ext.DestinationOptions = &h
	return s
}

// Routing sets the Routing extension.
func (s IPv6Stage) Routing(h ipv6.RawExt) IPv6Stage {
	s.b.ipv6Ext.Routing = &h
	return s
}

// Fragment sets the Fragment extension, for constructing test fragments
// or deliberately fragmented traffic.
func (s IPv6Stage) Fragment(h ipv6.FragmentExt) IPv6Stage {
	s.b.ipv6Ext.Fragment = &h
	return s
}

// Auth sets the Authentication Header extension.
func (s IPv6Stage) Auth(h ip.AuthHeader) IPv6Stage {
	s.b.ipv6Ext.Auth = &h
	return s
}

// UDP sets the UDP header and advances to the final write phase.
func (s IPv6Stage) UDP(h udp.Header) TransportStage {
	s.b.udp = &h
	return TransportStage{s.b}
}

// TCP sets the TCP header and advances to the final write phase.
func (s IPv6Stage) TCP(h tcp.Header) TransportStage {
	s.b.tcp = &h
	return TransportStage{s.b}
}

// ICMPv4 sets an ICMPv4 header over an IPv6 packet and advances to the
// final write phase. RFC 4443 doesn't forbid this combination the way
// it forbids the reverse, so it is accepted without a structured error.
func (s IPv6Stage) ICMPv4(h icmp.Header) TransportStage {
	s.b.icmpv4 = &h
	return TransportStage{s.b}
}

// ICMPv6 sets the ICMPv6 header and advances to the final write phase.
func (s IPv6Stage) ICMPv6(h icmpv6.Header) TransportStage {
	s.b.icmpv6 = &h
	return TransportStage{s.b}
}

// TransportStage is the builder's final phase: every header is known,
// and only the payload and serialization remain.
type TransportStage struct{ b *builder }

// Write computes every length, dispatch, and checksum field implied by
// the headers set so far, lays out the full packet into a single
// freshly allocated buffer, and returns it.
func (s TransportStage) Write(payload []byte) ([]byte, error) {
	b := s.b

	if b.icmpv6 != nil && b.ipv4 != nil {
		return nil, &common.Icmpv6InIpv4Error{}
	}

	transportIPNumber, transportHeaderLen := b.transportInfo()

	var netHeaderLen, netExtLen int
	switch {
	case b.ipv4 != nil:
		b.ipv4.Ihl = uint8((ip.MinHeaderLen + len(b.ipv4.Options)) / 4)
		b.ipv4.Protocol = b.ipv4Ext.SetNextHeaders(transportIPNumber)
		netHeaderLen = b.ipv4.HeaderLen()
		netExtLen = b.ipv4Ext.HeaderLen()
	case b.ipv6 != nil:
		b.ipv6.NextHeader = b.ipv6Ext.SetNextHeaders(transportIPNumber)
		netHeaderLen = ipv6.HeaderLen
		netExtLen = b.ipv6Ext.HeaderLen()
	}

	linkExtLen := 0
	for _, e := range b.exts {
		linkExtLen += e.headerLen()
	}
	linkHeaderLen := 0
	switch {
	case b.ethernet != nil:
		linkHeaderLen = ethernet.HeaderLen
	case b.linuxSll != nil:
		linkHeaderLen = linuxsll.HeaderLen
	}

	payloadLen := len(payload)

	if b.ipv4 != nil {
		b.ipv4.TotalLen = uint16(netHeaderLen + netExtLen + transportHeaderLen + payloadLen)
		b.ipv4.HeaderChecksum = 0
		b.ipv4.HeaderChecksum = b.ipv4.Checksum()
	}
	if b.ipv6 != nil {
		b.ipv6.PayloadLen = uint16(netExtLen + transportHeaderLen + payloadLen)
	}
	if b.udp != nil {
		b.udp.Length = uint16(transportHeaderLen + payloadLen)
	}

	b.computeTransportChecksum(payload)

	total := linkHeaderLen + linkExtLen + netHeaderLen + netExtLen + transportHeaderLen + payloadLen
	buf := make([]byte, total)
	w := common.NewWriter(buf)

	netEtherType := common.EtherTypeIPv4
	if b.ipv6 != nil {
		netEtherType = common.EtherTypeIPv6
	}
	firstNext := netEtherType
	if len(b.exts) > 0 {
		firstNext = b.exts[0].etherType()
	}

	switch {
	case b.ethernet != nil:
		b.ethernet.EtherType = firstNext
		if err := b.ethernet.Write(w); err != nil {
			return nil, err
		}
	case b.linuxSll != nil:
		b.linuxSll.ProtocolType = common.LinuxSllProtocolType(firstNext)
		if err := b.linuxSll.Write(w); err != nil {
			return nil, err
		}
	}

	for i, e := range b.exts {
		next := netEtherType
		if i+1 < len(b.exts) {
			next = b.exts[i+1].etherType()
		}
		switch {
		case e.vlan != nil:
			e.vlan.EtherType = next
			if err := e.vlan.Write(w); err != nil {
				return nil, err
			}
		case e.macsec != nil:
			if e.macsec.PType.Kind == macsec.Unmodified {
				e.macsec.PType.EtherType = next
			}
			if err := e.macsec.Write(w); err != nil {
				return nil, err
			}
		}
	}

	switch {
	case b.ipv4 != nil:
		if err := b.ipv4.Write(w); err != nil {
			return nil, err
		}
		if err := b.ipv4Ext.Write(w); err != nil {
			return nil, err
		}
	case b.ipv6 != nil:
		if err := b.ipv6.Write(w); err != nil {
			return nil, err
		}
		if err := b.ipv6Ext.Write(w); err != nil {
			return nil, err
		}
	}

	switch {
	case b.udp != nil:
		if err := b.udp.Write(w); err != nil {
			return nil, err
		}
		if err := w.PutBytes(payload); err != nil {
			return nil, err
		}
	case b.tcp != nil:
		if err := b.tcp.Write(w); err != nil {
			return nil, err
		}
		if err := w.PutBytes(payload); err != nil {
			return nil, err
		}
	case b.icmpv4 != nil:
		if err := b.icmpv4.Write(w, payload); err != nil {
			return nil, err
		}
	case b.icmpv6 != nil:
		if err := b.icmpv6.Write(w, b.ipv6.Source, b.ipv6.Destination, payload); err != nil {
			return nil, err
		}
	}

	return w.Written(), nil
}

// transportInfo returns the IP number and serialized header length of
// whichever transport header was set.
func (b *builder) transportInfo() (common.IPNumber, int) {
	switch {
	case b.udp != nil:
		return common.IPNumberUDP, udp.HeaderLen
	case b.tcp != nil:
		return common.IPNumberTCP, b.tcp.HeaderLen()
	case b.icmpv4 != nil:
		return common.IPNumberICMP, b.icmpv4.HeaderLen()
	case b.icmpv6 != nil:
		return common.IPNumberIPv6Icmp, icmpv6.MinHeaderLen
	default:
		return 0, 0
	}
}

// computeTransportChecksum fills in the checksum field of whichever
// header needs one computed against a pseudo-header. ICMPv4/ICMPv6
// compute theirs inline during Write and are skipped here.
func (b *builder) computeTransportChecksum(payload []byte) {
	switch {
	case b.udp != nil:
		if b.ipv4 != nil {
			b.udp.Checksum = b.udp.ComputeChecksumIpv4(b.ipv4.Source, b.ipv4.Destination, payload)
		} else if b.ipv6 != nil {
			b.udp.Checksum = b.udp.ComputeChecksumIpv6(b.ipv6.Source, b.ipv6.Destination, payload)
		}
	case b.tcp != nil:
		if b.ipv4 != nil {
			b.tcp.Checksum = b.tcp.ComputeChecksum(b.ipv4.Source, b.ipv4.Destination, payload)
		} else if b.ipv6 != nil {
			b.tcp.Checksum = b.tcp.ComputeChecksumIpv6(b.ipv6.Source, b.ipv6.Destination, payload)
		}
	}
}
