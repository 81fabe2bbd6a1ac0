package defrag

import (
	"sort"

	"github.com/netlayers/etherslice/pkg/common"
)

// maxSegmentEnd is the largest offset+length a single fragment may
// claim to occupy. IP total lengths top out at 0xFFFF; the extra 8
// bytes of slack matches the reference reassembler's tolerance for a
// final fragment whose declared end lands just past that boundary.
const maxSegmentEnd = 0xFFFF + 8

// ReassemblyBuffer accumulates the fragments of a single IP datagram,
// identified by byte range within the eventual payload, until every
// byte from 0 up to the final fragment's end has been received.
//
// A zero-value ReassemblyBuffer is ready to use. Buffers are not safe
// for concurrent use; Pool serializes access to each one under a
// single key.
type ReassemblyBuffer struct {
	data     []byte
	sections []byteRange
	end      *int

	// IpNumber and LenSource record the fields of the most recent
	// Add call, so a caller can propagate them to the reconstructed
	// payload once complete.
	IpNumber  common.IPNumber
	LenSource common.LenSource
}

// Add merges one fragment's payload into the buffer at an offset given
// in 8-octet units (as carried on the wire), and reports whether the
// datagram is now fully reassembled. On completion it returns the full
// reconstructed payload; the buffer itself is left intact until Reset
// is called (typically via Pool's return-to-free-list path).
func (b *ReassemblyBuffer) Add(fragmentOffset8Oct common.IpFragOffset, moreFragments bool, payload []byte, ipNumber common.IPNumber, lenSource common.LenSource) ([]byte, error) {
	start := int(fragmentOffset8Oct.Value()) * 8
	end := start + len(payload)
	if end > maxSegmentEnd {
		return nil, &common.SegmentTooBigError{Offset: start, Len: len(payload), Max: 0xFFFF}
	}
	if moreFragments && len(payload)%8 != 0 {
		return nil, &common.UnalignedFragmentPayloadLenError{PayloadLen: len(payload)}
	}
	if !moreFragments {
		if b.end != nil && *b.end != end {
			return nil, &common.ConflictingEndError{First: *b.end, Second: end}
		}
		endCopy := end
		b.end = &endCopy
	}

	if end > len(b.data) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[start:end], payload)
	b.IpNumber = ipNumber
	b.LenSource = lenSource
	b.mergeSection(byteRange{Start: start, End: end})

	if b.complete() {
		out := make([]byte, *b.end)
		copy(out, b.data[:*b.end])
		return out, nil
	}
	return nil, nil
}

// mergeSection folds r into sections, repeatedly combining it with any
// neighbor it touches or overlaps, then keeps sections sorted by start
// so complete() can check it with a single comparison.
func (b *ReassemblyBuffer) mergeSection(r byteRange) {
	for {
		merged := false
		for i, s := range b.sections {
			if combined, ok := s.merge(r); ok {
				r = combined
				b.sections = append(b.sections[:i], b.sections[i+1:]...)
				merged = true
				break
			}
		}
		if !merged {
			break
		}
	}
	b.sections = append(b.sections, r)
	sort.Slice(b.sections, func(i, j int) bool { return b.sections[i].Start < b.sections[j].Start })
}

// complete reports whether the accumulated sections cover exactly
// [0, end) with no gaps, and the final fragment's end has been seen.
func (b *ReassemblyBuffer) complete() bool {
	return b.end != nil && len(b.sections) == 1 && b.sections[0].Start == 0 && b.sections[0].End == *b.end
}

// Reset clears the buffer's accumulated state so it can be reused for a
// different datagram, while keeping its backing array's capacity.
func (b *ReassemblyBuffer) Reset() {
	b.data = b.data[:0]
	b.sections = b.sections[:0]
	b.end = nil
	b.IpNumber = 0
	b.LenSource = 0
}
