package defrag

import (
	"github.com/netlayers/etherslice/pkg/common"
	"github.com/netlayers/etherslice/pkg/packet"
)

// IpSrcDst is the source/destination address pair a fragmented
// datagram's identification field is scoped to. IsIpv6 discriminates
// which address pair is meaningful, so an all-zero IPv4 pair and an
// all-zero IPv6 pair never collide as the same key.
type IpSrcDst struct {
	Ipv4Src, Ipv4Dst common.IPv4Address
	Ipv6Src, Ipv6Dst common.IPv6Address
	IsIpv6           bool
}

// FragID identifies one in-flight fragmented datagram. Two fragments
// belong to the same datagram iff their FragID values are equal, with
// the optional VLAN ids compared by value. The pool's map is keyed by
// the flattened form returned by key(), not by FragID itself.
type FragID[ChannelID comparable] struct {
	OuterVlan      *common.VlanId
	InnerVlan      *common.VlanId
	AddrPair       IpSrcDst
	Identification uint32
	Channel        ChannelID
}

// key turns a FragID into a comparable value suitable for a Go map,
// since the optional VLAN pointers make FragID itself non-comparable
// (pointers compare by identity, not by pointee value).
type fragKey[ChannelID comparable] struct {
	hasOuterVlan, hasInnerVlan bool
	outerVlan, innerVlan       common.VlanId
	addrPair                   IpSrcDst
	identification             uint32
	channel                    ChannelID
}

func (id FragID[ChannelID]) key() fragKey[ChannelID] {
	k := fragKey[ChannelID]{addrPair: id.AddrPair, identification: id.Identification, channel: id.Channel}
	if id.OuterVlan != nil {
		k.hasOuterVlan, k.outerVlan = true, *id.OuterVlan
	}
	if id.InnerVlan != nil {
		k.hasInnerVlan, k.innerVlan = true, *id.InnerVlan
	}
	return k
}

// Pool reassembles multiple fragmented IP datagrams concurrently
// arriving on the same caller-driven event loop, reusing drained
// buffers instead of allocating a fresh one per datagram.
//
// Pool is a value-held, caller-owned piece of state: there is no
// internal locking, and no implicit eviction. A Pool used from only one
// goroutine at a time needs no external synchronization; concurrent use
// across goroutines requires a caller-supplied mutex, same as any other
// plain Go map-backed structure. Pool does not defend against unbounded
// growth from many never-completing streams; callers needing that must
// cap active.len() themselves and call EvictOlderThan on a schedule.
type Pool[Timestamp any, ChannelID comparable] struct {
	active   map[fragKey[ChannelID]]*activeEntry[Timestamp]
	finished []*ReassemblyBuffer
}

type activeEntry[Timestamp any] struct {
	buf *ReassemblyBuffer
	ts  Timestamp
}

// NewPool constructs an empty pool.
func NewPool[Timestamp any, ChannelID comparable]() *Pool[Timestamp, ChannelID] {
	return &Pool[Timestamp, ChannelID]{active: make(map[fragKey[ChannelID]]*activeEntry[Timestamp])}
}

// take pops a buffer off the free list, or allocates a fresh one.
func (p *Pool[Timestamp, ChannelID]) take() *ReassemblyBuffer {
	if n := len(p.finished); n > 0 {
		buf := p.finished[n-1]
		p.finished = p.finished[:n-1]
		return buf
	}
	return &ReassemblyBuffer{}
}

// ReturnBuf clears buf's state and returns it to the free list for
// reuse by a future datagram.
func (p *Pool[Timestamp, ChannelID]) ReturnBuf(buf *ReassemblyBuffer) {
	buf.Reset()
	p.finished = append(p.finished, buf)
}

// ProcessSlicedPacket feeds one decoded packet's net-layer fragment
// into the pool. Non-fragmented packets are a no-op returning (nil,
// 0, false, nil); otherwise the fragment is merged into (or starts) the
// reassembly keyed by id, and the third return value is true iff that
// reassembly is now complete, in which case data holds the full
// reconstructed payload and the pool entry has already been retired
// (its buffer returned to the free list).
func (p *Pool[Timestamp, ChannelID]) ProcessSlicedPacket(pkt *packet.SlicedPacket, id FragID[ChannelID], ts Timestamp) (data []byte, ipNumber common.IPNumber, done bool, err error) {
	if !pkt.Net.Fragmented() {
		return nil, 0, false, nil
	}

	var offset common.IpFragOffset
	var more bool
	switch {
	case pkt.Net.Ipv4 != nil:
		offset = pkt.Net.Ipv4.FragmentOffset()
		more = pkt.Net.Ipv4.MoreFragments()
	case pkt.Net.Ipv6Exts != nil && pkt.Net.Ipv6Exts.Fragment != nil:
		offset = pkt.Net.Ipv6Exts.Fragment.FragmentOffset
		more = pkt.Net.Ipv6Exts.Fragment.MoreFragments
	default:
		return nil, 0, false, nil
	}

	k := id.key()
	e, ok := p.active[k]
	if !ok {
		e = &activeEntry[Timestamp]{buf: p.take()}
		p.active[k] = e
	}
	e.ts = ts

	reconstructed, addErr := e.buf.Add(offset, more, pkt.Payload.Data, pkt.Payload.IpNumber, pkt.Payload.LenSource)
	if addErr != nil {
		return nil, 0, false, addErr
	}
	if reconstructed == nil {
		return nil, 0, false, nil
	}

	ipNumber = e.buf.IpNumber
	delete(p.active, k)
	p.ReturnBuf(e.buf)
	return reconstructed, ipNumber, true, nil
}

// EvictOlderThan removes every in-flight reassembly whose most recent
// fragment's timestamp is "older than" ts, per isOlder, returning their
// buffers to the free list. Pool has no notion of clock or duration
// itself; isOlder lets the caller supply whatever ordering its
// Timestamp type defines (e.g. time.Time.Before, or a monotonic
// sequence counter comparison).
func (p *Pool[Timestamp, ChannelID]) EvictOlderThan(ts Timestamp, isOlder func(candidate, cutoff Timestamp) bool) int {
	evicted := 0
	for k, e := range p.active {
		if isOlder(e.ts, ts) {
			delete(p.active, k)
			p.ReturnBuf(e.buf)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of reassemblies currently in flight.
func (p *Pool[Timestamp, ChannelID]) Len() int { return len(p.active) }
