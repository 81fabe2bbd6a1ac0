package packet

import (
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

// StoppedLayer names which layer a lax slice gave up at, for callers
// that want to report where a malformed packet became unparseable
// without inspecting StopErr's concrete type.
type StoppedLayer int

const (
	// StoppedNone means every layer the slicer attempted parsed cleanly.
	StoppedNone StoppedLayer = iota
	StoppedLink
	StoppedLinkExt
	StoppedNet
	StoppedNetExt
	StoppedTransport
)

// String returns a human-readable name for the layer.
func (l StoppedLayer) String() string {
	switch l {
	case StoppedNone:
		return "None"
	case StoppedLink:
		return "Link"
	case StoppedLinkExt:
		return "LinkExt"
	case StoppedNet:
		return "Net"
	case StoppedNetExt:
		return "NetExt"
	case StoppedTransport:
		return "Transport"
	default:
		return "Unknown"
	}
}

// LaxPayload is the lax slicer's payload result. Incomplete is set when
// a net-layer header declared a length longer than the bytes actually
// available; in that case Data holds whatever bytes were present rather
// than failing outright.
type LaxPayload struct {
	IpNumber   common.IPNumber
	Fragmented bool
	LenSource  common.LenSource
	Incomplete bool
	Data       []byte
}

// LaxSlicedPacket is the result of a best-effort slice: parsing
// proceeds layer by layer and stops at the first error, preserving
// every layer successfully decoded before that point.
type LaxSlicedPacket struct {
	Link      LinkLayer
	LinkExts  []LinkExt
	Net       NetLayer
	Transport TransportLayer
	Arp       *arp.Slice
	Payload   LaxPayload

	// LastParsedLayer names the deepest layer that decoded successfully.
	LastParsedLayer StoppedLayer
	// StopErr is the error that halted parsing, or nil if every
	// recognized layer was consumed without error.
	StopErr error
}

// LaxFromEthernet parses as much of an Ethernet II frame and its
// payload as it can, stopping at the first error instead of failing
// outright.
func LaxFromEthernet(data []byte) LaxSlicedPacket {
	var pkt LaxSlicedPacket
	eth, rest, err := ethernet.FromSlice(data)
	if err != nil {
		pkt.StopErr = err
		return pkt
	}
	pkt.Link.Ethernet = &eth
	pkt.LastParsedLayer = StoppedLink
	pkt.laxFromEtherType(eth.EtherType(), rest)
	return pkt
}

// LaxFromEtherType parses as much as it can beneath a link header the
// caller already stripped.
func LaxFromEtherType(etherType common.EtherType, data []byte) LaxSlicedPacket {
	var pkt LaxSlicedPacket
	pkt.laxFromEtherType(etherType, data)
	return pkt
}

// LaxFromLinuxSLL parses as much as it can of a Linux "cooked capture"
// frame.
func LaxFromLinuxSLL(data []byte) LaxSlicedPacket {
	var pkt LaxSlicedPacket
	sll, rest, err := linuxsll.FromSlice(data)
	if err != nil {
		pkt.StopErr = err
		return pkt
	}
	pkt.Link.LinuxSll = &sll
	pkt.LastParsedLayer = StoppedLink
	if !sll.IsEtherType() {
		pkt.Payload = LaxPayload{LenSource: common.LenSourceSlice, Data: rest}
		return pkt
	}
	pkt.laxFromEtherType(common.EtherType(sll.ProtocolType()), rest)
	return pkt
}

// LaxFromIP parses as much as it can of a bare network-layer datagram.
func LaxFromIP(data []byte) LaxSlicedPacket {
	var pkt LaxSlicedPacket
	pkt.laxFromIP(data)
	return pkt
}

func (pkt *LaxSlicedPacket) laxFromEtherType(etherType common.EtherType, data []byte) {
	d := etherType
	rest := data
	vlanCount := 0
	sawMacsec := false

	for {
		switch {
		case d.IsVlan():
			if vlanCount >= maxVlanTags {
				pkt.StopErr = &common.VlanNestingTooDeepError{}
				return
			}
			v, r, err := vlan.FromSlice(rest)
			if err != nil {
				pkt.StopErr = err
				return
			}
			pkt.LinkExts = append(pkt.LinkExts, LinkExt{Vlan: &v})
			pkt.LastParsedLayer = StoppedLinkExt
			vlanCount++
			d, rest = v.EtherType(), r

		case d == common.EtherTypeMacsec:
			if sawMacsec {
				pkt.StopErr = &common.MacsecAlreadyPresentError{}
				return
			}
			m, r, err := macsec.FromSlice(rest)
			if err != nil {
				pkt.StopErr = err
				return
			}
			pkt.LinkExts = append(pkt.LinkExts, LinkExt{Macsec: &m})
			pkt.LastParsedLayer = StoppedLinkExt
			sawMacsec = true
			rest = r
			pt := m.PType()
			if pt.Kind != macsec.Unmodified {
				pkt.Payload = LaxPayload{LenSource: common.LenSourceSlice, Data: rest}
				return
			}
			d = pt.EtherType

		default:
			goto dispatch
		}
	}

dispatch:
	switch d {
	case common.EtherTypeIPv4, common.EtherTypeIPv6:
		pkt.laxFromIP(rest)
	case common.EtherTypeARP:
		a, r, err := arp.FromSlice(rest)
		if err != nil {
			pkt.StopErr = err
			return
		}
		pkt.Arp = &a
		pkt.LastParsedLayer = StoppedNet
		pkt.Payload = LaxPayload{LenSource: common.LenSourceSlice, Data: r}
	default:
		pkt.Payload = LaxPayload{LenSource: common.LenSourceSlice, Data: rest}
	}
}

func (pkt *LaxSlicedPacket) laxFromIP(data []byte) {
	if len(data) == 0 {
		pkt.StopErr = &common.LenError{
			Required:  1,
			Actual:    0,
			Layer:     common.LayerNet,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
		return
	}
	version := data[0] >> 4

	switch version {
	case ip.Version:
		s, afterHeader, err := ip.FromSlice(data)
		if err != nil {
			pkt.StopErr = err
			return
		}
		pkt.Net.Ipv4 = &s
		pkt.LastParsedLayer = StoppedNet

		total := int(s.TotalLen())
		netPayload := afterHeader
		incomplete := false
		if want := total - (len(data) - len(afterHeader)); want < len(afterHeader) {
			netPayload = afterHeader[:want]
		} else if want > len(afterHeader) {
			incomplete = true
		}

		exts, finalProto, afterExts, err := ip.ExtensionsFromSlice(s.Protocol(), netPayload)
		if err != nil {
			pkt.StopErr = err
			pkt.Payload = LaxPayload{LenSource: common.LenSourceIpv4HeaderTotalLen, Incomplete: incomplete, Data: netPayload}
			return
		}
		pkt.Net.Ipv4Exts = &exts
		pkt.LastParsedLayer = StoppedNetExt
		pkt.laxTransport(finalProto, s.Fragmented(), common.LenSourceIpv4HeaderTotalLen, incomplete, afterExts)

	case ipv6.Version:
		s, afterHeader, err := ipv6.FromSlice(data)
		if err != nil {
			pkt.StopErr = err
			return
		}
		pkt.Net.Ipv6 = &s
		pkt.LastParsedLayer = StoppedNet

		payloadLen := int(s.PayloadLen())
		netPayload := afterHeader
		incomplete := false
		if payloadLen < len(afterHeader) {
			netPayload = afterHeader[:payloadLen]
		} else if payloadLen > len(afterHeader) {
			incomplete = true
		}

		exts, finalProto, afterExts, err := ipv6.ExtensionsFromSlice(s.NextHeader(), netPayload)
		if err != nil {
			pkt.StopErr = err
			pkt.Payload = LaxPayload{LenSource: common.LenSourceIpv6HeaderPayloadLen, Incomplete: incomplete, Data: netPayload}
			return
		}
		pkt.Net.Ipv6Exts = &exts
		pkt.LastParsedLayer = StoppedNetExt
		pkt.laxTransport(finalProto, exts.Fragmented(), common.LenSourceIpv6HeaderPayloadLen, incomplete, afterExts)

	default:
		pkt.StopErr = &common.UnsupportedIpVersionError{Version: version}
	}
}

func (pkt *LaxSlicedPacket) laxTransport(ipNumber common.IPNumber, fragmented bool, lenSource common.LenSource, incomplete bool, data []byte) {
	if incomplete {
		// A truncated net-layer slice makes any transport header beneath
		// it untrustworthy to parse further; stop here per the partial
		// decode contract.
		pkt.Payload = LaxPayload{IpNumber: ipNumber, Fragmented: fragmented, LenSource: lenSource, Incomplete: true, Data: data}
		return
	}

	switch ipNumber {
	case common.IPNumberUDP:
		s, rest, err := udp.FromSlice(data)
		if err != nil {
			pkt.StopErr = err
			pkt.Payload = LaxPayload{IpNumber: ipNumber, Fragmented: fragmented, LenSource: lenSource, Data: data}
			return
		}
		pkt.Transport.Udp = &s
		pkt.LastParsedLayer = StoppedTransport
		pkt.Payload = LaxPayload{IpNumber: ipNumber, Fragmented: fragmented, LenSource: common.LenSourceUdpHeaderLen, Data: rest}

	case common.IPNumberTCP:
		s, rest, err := tcp.FromSlice(data)
		if err != nil {
			pkt.StopErr = err
			pkt.Payload = LaxPayload{IpNumber: ipNumber, Fragmented: fragmented, LenSource: lenSource, Data: data}
			return
		}
		pkt.Transport.Tcp = &s
		pkt.LastParsedLayer = StoppedTransport
		pkt.Payload = LaxPayload{IpNumber: ipNumber, Fragmented: fragmented, LenSource: lenSource, Data: rest}

	case common.IPNumberICMP:
		s, rest, err := icmp.FromSlice(data)
		if err != nil {
			pkt.StopErr = err
			pkt.Payload = LaxPayload{IpNumber: ipNumber, Fragmented: fragmented, LenSource: lenSource, Data: data}
			return
		}
		pkt.Transport.Icmpv4 = &s
		pkt.LastParsedLayer = StoppedTransport
		pkt.Payload = LaxPayload{IpNumber: ipNumber, Fragmented: fragmented, LenSource: lenSource, Data: rest}

	case common.IPNumberIPv6Icmp:
		s, rest, err := icmpv6.FromSlice(data)
		if err != nil {
			pkt.StopErr = err
			pkt.Payload = LaxPayload{IpNumber: ipNumber, Fragmented: fragmented, LenSource: lenSource, Data: data}
			return
		}
		pkt.Transport.Icmpv6 = &s
		pkt.LastParsedLayer = StoppedTransport
		pkt.Payload = LaxPayload{IpNumber: ipNumber, Fragmented: fragmented, LenSource: lenSource, Data: rest}

	default:
		pkt.Payload = LaxPayload{IpNumber: ipNumber, Fragmented: fragmented, LenSource: lenSource, Data: data}
	}
}
