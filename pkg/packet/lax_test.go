package packet

import (
	"testing"
)

func TestLaxTruncatedIpv4PayloadIncomplete(t *testing.T) {
	// IPv4 header declaring total_len=60 but only 40 bytes supplied.
	ipv4 := []byte{
		0x45, 0x00,
		0x00, 0x3c, // total_len = 60
		0x00, 0x00,
		0x00, 0x00,
		0x40,
		0x11, // protocol = UDP
		0x00, 0x00,
		10, 0, 0, 1,
		10, 0, 0, 2,
	}
	pkt := LaxFromIP(ipv4)
	if pkt.Net.Ipv4 == nil {
		t.Fatal("Net.Ipv4 = nil, want parsed")
	}
	if !pkt.Payload.Incomplete {
		t.Error("Payload.Incomplete = false, want true")
	}
	if pkt.Transport.Udp != nil {
		t.Error("Transport.Udp should not be parsed on an incomplete net-layer slice")
	}
}

func TestLaxStopsAtFirstError(t *testing.T) {
	// A well-formed IPv4 header declaring UDP but with too few bytes for
	// a full UDP header.
	ipv4 := []byte{
		0x45, 0x00,
		0x00, 0x1a, // total_len = 26 (20 header + 6 byte "UDP")
		0x00, 0x00,
		0x00, 0x00,
		0x40,
		0x11,
		0x00, 0x00,
		10, 0, 0, 1,
		10, 0, 0, 2,
		0x00, 0x35, 0x00, 0x35, 0x00, 0x06,
	}
	pkt := LaxFromIP(ipv4)
	if pkt.Net.Ipv4 == nil {
		t.Fatal("Net.Ipv4 = nil, want parsed")
	}
	if pkt.StopErr == nil {
		t.Fatal("StopErr = nil, want a length error from the truncated UDP header")
	}
	if pkt.LastParsedLayer != StoppedNetExt {
		t.Errorf("LastParsedLayer = %v, want StoppedNetExt", pkt.LastParsedLayer)
	}
}

func TestLaxFromEthernetCleanPacket(t *testing.T) {
	data := ethernetIpv4UdpEcho(t)
	pkt := LaxFromEthernet(data)
	if pkt.StopErr != nil {
		t.Fatalf("StopErr = %v, want nil", pkt.StopErr)
	}
	if pkt.LastParsedLayer != StoppedTransport {
		t.Errorf("LastParsedLayer = %v, want StoppedTransport", pkt.LastParsedLayer)
	}
	if pkt.Transport.Udp == nil {
		t.Fatal("Transport.Udp = nil, want parsed")
	}
}

func TestLaxFromEthernetStopsOnBadLinkHeader(t *testing.T) {
	pkt := LaxFromEthernet(make([]byte, 4))
	if pkt.StopErr == nil {
		t.Fatal("StopErr = nil, want a length error")
	}
	if pkt.LastParsedLayer != StoppedNone {
		t.Errorf("LastParsedLayer = %v, want StoppedNone", pkt.LastParsedLayer)
	}
}

func TestStoppedLayerString(t *testing.T) {
	if StoppedTransport.String() != "Transport" {
		t.Errorf("String() = %q, want %q", StoppedTransport.String(), "Transport")
	}
	if StoppedLayer(99).String() != "Unknown" {
		t.Errorf("String() = %q, want %q", StoppedLayer(99).String(), "Unknown")
	}
}
