package packet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/netlayers/etherslice/pkg/common"
)

// ethernetIpv4UdpEcho builds the exact byte sequence from the worked
// example: Ethernet header, IPv4(proto=17, total_len=28), UDP(len=8).
func ethernetIpv4UdpEcho(t *testing.T) []byte {
	t.Helper()
	eth := []byte{
		0x06, 0x05, 0x04, 0x03, 0x02, 0x01, // destination
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, // source
		0x08, 0x00, // EtherType = IPv4
	}
	ipv4 := []byte{
		0x45, 0x00, // version/ihl, dscp/ecn
		0x00, 0x1c, // total_len = 28
		0x00, 0x00, // identification
		0x00, 0x00, // flags/frag offset
		0x40,       // ttl = 64
		0x11,       // protocol = UDP
		0x00, 0x00, // header checksum (not validated by this helper)
		10, 0, 0, 1,
		10, 0, 0, 2,
	}
	udp := []byte{
		0x00, 0x35, // source port 53
		0x00, 0x35, // destination port 53
		0x00, 0x08, // length = 8
		0x00, 0x00, // checksum
	}
	return append(append(eth, ipv4...), udp...)
}

func TestFromEthernetIpv4UdpEcho(t *testing.T) {
	data := ethernetIpv4UdpEcho(t)
	pkt, err := FromEthernet(data)
	if err != nil {
		t.Fatalf("FromEthernet() error = %v", err)
	}
	if pkt.Link.Ethernet == nil {
		t.Fatal("Link.Ethernet = nil, want parsed")
	}
	if pkt.Net.Ipv4 == nil {
		t.Fatal("Net.Ipv4 = nil, want parsed")
	}
	if pkt.Net.Ipv4.Protocol() != common.IPNumberUDP {
		t.Errorf("Protocol() = %v, want UDP", pkt.Net.Ipv4.Protocol())
	}
	if pkt.Transport.Udp == nil {
		t.Fatal("Transport.Udp = nil, want parsed")
	}
	if pkt.Payload.LenSource != common.LenSourceUdpHeaderLen {
		t.Errorf("LenSource = %v, want LenSourceUdpHeaderLen", pkt.Payload.LenSource)
	}
	if len(pkt.Payload.Data) != 0 {
		t.Errorf("Payload.Data = %v, want empty", pkt.Payload.Data)
	}
}

func TestFromEthernetTooShort(t *testing.T) {
	_, err := FromEthernet(make([]byte, 10))
	var lenErr *common.LenError
	if !errors.As(err, &lenErr) {
		t.Fatalf("error type = %T, want *common.LenError", err)
	}
}

func TestFromEthernetTripleVlanRejected(t *testing.T) {
	frame := make([]byte, 14)
	frame[12], frame[13] = 0x81, 0x00 // EtherType = VLAN
	tag := func(next uint16) []byte {
		b := make([]byte, 4)
		b[2], b[3] = byte(next>>8), byte(next)
		return b
	}
	data := append(frame, tag(0x8100)...)
	data = append(data, tag(0x8100)...)
	data = append(data, tag(0x0800)...)

	_, err := FromEthernet(data)
	var vlanErr *common.VlanNestingTooDeepError
	if !errors.As(err, &vlanErr) {
		t.Fatalf("error type = %T, want *common.VlanNestingTooDeepError", err)
	}
}

func TestFromEthernetArp(t *testing.T) {
	eth := []byte{
		0xde, 0xad, 0xc0, 0x00, 0xff, 0xee,
		0x00, 0x1b, 0x21, 0x0f, 0x91, 0x9b,
		0x08, 0x06, // EtherType = ARP
	}
	arpBytes := []byte{
		0x00, 0x01, // hw type = ethernet
		0x08, 0x00, // proto type = ipv4
		0x06, 0x04, // hw len, proto len
		0x00, 0x01, // operation = request
		0x00, 0x1b, 0x21, 0x0f, 0x91, 0x9b, // sender mac
		10, 10, 1, 135, // sender ip
		0xde, 0xad, 0xc0, 0x00, 0xff, 0xee, // target mac
		192, 168, 1, 253, // target ip
	}
	pkt, err := FromEthernet(append(eth, arpBytes...))
	if err != nil {
		t.Fatalf("FromEthernet() error = %v", err)
	}
	if pkt.Arp == nil {
		t.Fatal("Arp = nil, want parsed")
	}
	if pkt.Arp.Operation() != 1 {
		t.Errorf("Operation() = %v, want Request", pkt.Arp.Operation())
	}
	if !bytes.Equal(pkt.Arp.SenderProtoAddr(), []byte{10, 10, 1, 135}) {
		t.Errorf("SenderProtoAddr() = %v, want 10.10.1.135", pkt.Arp.SenderProtoAddr())
	}
}

func TestFromIPUnsupportedVersion(t *testing.T) {
	_, err := FromIP([]byte{0x70, 0, 0, 0})
	var verErr *common.UnsupportedIpVersionError
	if !errors.As(err, &verErr) {
		t.Fatalf("error type = %T, want *common.UnsupportedIpVersionError", err)
	}
}

func TestSlicedPacketString(t *testing.T) {
	pkt, err := FromEthernet(ethernetIpv4UdpEcho(t))
	if err != nil {
		t.Fatalf("FromEthernet() error = %v", err)
	}
	if pkt.String() == "" {
		t.Error("String() returned empty string")
	}
}
