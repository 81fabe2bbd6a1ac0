// Package defrag implements IP fragment reassembly: a per-datagram
// interval-merge buffer (ReassemblyBuffer) and a keyed multi-stream pool
// (Pool) that drives one buffer per in-flight fragmented datagram.
package defrag

// byteRange is a half-open [Start, End) span of a reconstructed
// datagram's payload, used to track which parts of the buffer have been
// filled in by a received fragment.
type byteRange struct {
	Start int
	End   int
}

// connects reports whether value falls within the closed interval
// [Start, End].
func (r byteRange) connects(value int) bool {
	return r.Start <= value && r.End >= value
}

// merge combines r and other into their covering span if the two
// ranges touch or overlap at an endpoint.
func (r byteRange) merge(other byteRange) (byteRange, bool) {
	if !(r.connects(other.Start) || r.connects(other.End) || other.connects(r.Start) || other.connects(r.End)) {
		return byteRange{}, false
	}
	start, end := r.Start, r.End
	if other.Start < start {
		start = other.Start
	}
	if other.End > end {
		end = other.End
	}
	return byteRange{Start: start, End: end}, true
}
