// Package tcp implements the Transmission Control Protocol (RFC 793, with
// the NS flag from RFC 3540) header codec, including its options TLV
// stream.
package tcp

import (
	"encoding/binary"
	"fmt"

	"github.com/netlayers/etherslice/pkg/common"
)

const (
	// MinHeaderLen is the minimum TCP header length (20 bytes, data offset 5).
	MinHeaderLen = 20

	// MaxHeaderLen is the maximum TCP header length (60 bytes, data offset 15).
	MaxHeaderLen = 60

	// DefaultMSS is the conventional default maximum segment size assumed
	// absent an MSS option: 1500 (Ethernet MTU) - 20 (IPv4) - 20 (TCP).
	DefaultMSS = 1460
)

// Flag bits, the 9 control bits spanning the reserved nibble (NS) and the
// flags byte (CWR, ECE, URG, ACK, PSH, RST, SYN, FIN).
const (
	FlagFIN uint16 = 1 << 0
	FlagSYN uint16 = 1 << 1
	FlagRST uint16 = 1 << 2
	FlagPSH uint16 = 1 << 3
	FlagACK uint16 = 1 << 4
	FlagURG uint16 = 1 << 5
	FlagECE uint16 = 1 << 6
	FlagCWR uint16 = 1 << 7
	FlagNS  uint16 = 1 << 8
)

// Option kinds recognized by the options TLV walker.
const (
	OptionKindEnd           = 0
	OptionKindNoop          = 1
	OptionKindMSS           = 2
	OptionKindWindowScale   = 3
	OptionKindSackPermitted = 4
	OptionKindSack          = 5
	OptionKindTimestamp     = 8
)

// Option lengths (including the kind and length bytes) for the
// length-prefixed kinds.
const (
	optionLenMSS           = 4
	optionLenWindowScale   = 3
	optionLenSackPermitted = 2
	optionLenTimestamp     = 10
)

// SackBlock is a single left/right edge pair within a SACK option.
type SackBlock struct {
	LeftEdge  uint32
	RightEdge uint32
}

// Options is the decoded TCP options TLV stream. Unlike the raw option
// bytes, Options exposes each recognized kind as a typed field while
// preserving any bytes it doesn't understand in Unknown (kind, raw bytes).
type Options struct {
	MSS           *uint16
	WindowScale   *uint8
	SackPermitted bool
	Sack          []SackBlock
	TsVal, TsEcr  *uint32
	Unknown       []UnknownOption
}

// UnknownOption preserves an option kind this walker doesn't specially
// interpret, keyed by its raw kind byte and full value bytes.
type UnknownOption struct {
	Kind uint8
	Data []byte
}

// ParseOptions walks the TLV stream in raw TCP option bytes.
func ParseOptions(data []byte) (Options, error) {
	var opts Options
	i := 0
	for i < len(data) {
		kind := data[i]
		switch kind {
		case OptionKindEnd:
			return opts, nil
		case OptionKindNoop:
			i++
			continue
		}

		if i+1 >= len(data) {
			return Options{}, fmt.Errorf("tcp option kind %d truncated before length byte", kind)
		}
		length := int(data[i+1])
		if length < 2 || i+length > len(data) {
			return Options{}, fmt.Errorf("tcp option kind %d has invalid length %d", kind, length)
		}
		value := data[i+2 : i+length]

		switch kind {
		case OptionKindMSS:
			if length != optionLenMSS {
				return Options{}, fmt.Errorf("tcp MSS option has invalid length %d", length)
			}
			mss := binary.BigEndian.Uint16(value)
			opts.MSS = &mss
		case OptionKindWindowScale:
			if length != optionLenWindowScale {
				return Options{}, fmt.Errorf("tcp window scale option has invalid length %d", length)
			}
			shift := value[0]
			opts.WindowScale = &shift
		case OptionKindSackPermitted:
			if length != optionLenSackPermitted {
				return Options{}, fmt.Errorf("tcp SACK-permitted option has invalid length %d", length)
			}
			opts.SackPermitted = true
		case OptionKindSack:
			if len(value)%8 != 0 {
				return Options{}, fmt.Errorf("tcp SACK option has invalid length %d", length)
			}
			for j := 0; j < len(value); j += 8 {
				opts.Sack = append(opts.Sack, SackBlock{
					LeftEdge:  binary.BigEndian.Uint32(value[j : j+4]),
					RightEdge: binary.BigEndian.Uint32(value[j+4 : j+8]),
				})
			}
		case OptionKindTimestamp:
			if length != optionLenTimestamp {
				return Options{}, fmt.Errorf("tcp timestamp option has invalid length %d", length)
			}
			tsVal := binary.BigEndian.Uint32(value[0:4])
			tsEcr := binary.BigEndian.Uint32(value[4:8])
			opts.TsVal, opts.TsEcr = &tsVal, &tsEcr
		default:
			opts.Unknown = append(opts.Unknown, UnknownOption{Kind: kind, Data: append([]byte(nil), value...)})
		}
		i += length
	}
	return opts, nil
}

// ToBytes serializes opts back to a (right-padded to a 4-byte boundary
// with End-of-Option-List bytes) TLV byte stream.
func (o Options) ToBytes() []byte {
	var b []byte
	if o.MSS != nil {
		v := make([]byte, optionLenMSS)
		v[0], v[1] = OptionKindMSS, optionLenMSS
		binary.BigEndian.PutUint16(v[2:4], *o.MSS)
		b = append(b, v...)
	}
	if o.WindowScale != nil {
		b = append(b, OptionKindWindowScale, optionLenWindowScale, *o.WindowScale)
	}
	if o.SackPermitted {
		b = append(b, OptionKindSackPermitted, optionLenSackPermitted)
	}
	if len(o.Sack) > 0 {
		length := 2 + len(o.Sack)*8
		v := make([]byte, length)
		v[0], v[1] = OptionKindSack, uint8(length)
		off := 2
		for _, blk := range o.Sack {
			binary.BigEndian.PutUint32(v[off:off+4], blk.LeftEdge)
			binary.BigEndian.PutUint32(v[off+4:off+8], blk.RightEdge)
			off += 8
		}
		b = append(b, v...)
	}
	if o.TsVal != nil && o.TsEcr != nil {
		v := make([]byte, optionLenTimestamp)
		v[0], v[1] = OptionKindTimestamp, optionLenTimestamp
		binary.BigEndian.PutUint32(v[2:6], *o.TsVal)
		binary.BigEndian.PutUint32(v[6:10], *o.TsEcr)
		b = append(b, v...)
	}
	for _, u := range o.Unknown {
		b = append(b, u.Kind, uint8(len(u.Data)+2))
		b = append(b, u.Data...)
	}
	if pad := (4 - len(b)%4) % 4; pad > 0 {
		b = append(b, make([]byte, pad)...)
	}
	return b
}

// Header is an owned, decoded TCP header.
type Header struct {
	SourcePort      uint16
	DestinationPort uint16
	SequenceNumber  uint32
	AckNumber       uint32
	Flags           uint16 // 9 bits: NS in bit 8, the rest as the Flag* constants
	WindowSize      uint16
	Checksum        uint16
	UrgentPointer   uint16
	Options         Options
}

// HasFlag reports whether every bit in flag is set.
func (h Header) HasFlag(flag uint16) bool { return h.Flags&flag == flag }

// dataOffset returns the data_offset nibble: 5 plus the padded option words.
func (h Header) dataOffset() uint8 {
	return uint8((MinHeaderLen + len(h.Options.ToBytes())) / 4)
}

// HeaderLen returns the full serialized header length, including options.
func (h Header) HeaderLen() int { return int(h.dataOffset()) * 4 }

// ToBytes serializes h, with the checksum field written as given (Write
// does the same; ComputeChecksum and ComputeChecksumIpv6 compute a real
// checksum).
func (h Header) ToBytes() []byte {
	optBytes := h.Options.ToBytes()
	b := make([]byte, MinHeaderLen+len(optBytes))
	binary.BigEndian.PutUint16(b[0:2], h.SourcePort)
	binary.BigEndian.PutUint16(b[2:4], h.DestinationPort)
	binary.BigEndian.PutUint32(b[4:8], h.SequenceNumber)
	binary.BigEndian.PutUint32(b[8:12], h.AckNumber)
	b[12] = h.dataOffset()<<4 | uint8((h.Flags>>8)&0x01)
	b[13] = uint8(h.Flags & 0xFF)
	binary.BigEndian.PutUint16(b[14:16], h.WindowSize)
	binary.BigEndian.PutUint16(b[16:18], h.Checksum)
	binary.BigEndian.PutUint16(b[18:20], h.UrgentPointer)
	copy(b[20:], optBytes)
	return b
}

// Write serializes h into w.
func (h Header) Write(w *common.Writer) error { return w.PutBytes(h.ToBytes()) }

// ComputeChecksum computes the TCP checksum of h+payload over an IPv4 pseudo-header.
func (h Header) ComputeChecksum(source, destination common.IPv4Address, payload []byte) uint16 {
	b := h.ToBytes()
	b[16], b[17] = 0, 0
	msg := append(append([]byte(nil), b...), payload...)
	ph := common.Ipv4PseudoHeader{
		SourceAddr:      source,
		DestinationAddr: destination,
		Protocol:        common.IPNumberTCP,
		Length:          uint32(len(msg)),
	}
	return common.CalculateChecksumWithIpv4PseudoHeader(ph, msg)
}

// ComputeChecksumIpv6 computes the TCP checksum of h+payload over an IPv6 pseudo-header.
func (h Header) ComputeChecksumIpv6(source, destination common.IPv6Address, payload []byte) uint16 {
	b := h.ToBytes()
	b[16], b[17] = 0, 0
	msg := append(append([]byte(nil), b...), payload...)
	ph := common.Ipv6PseudoHeader{
		SourceAddr:      source,
		DestinationAddr: destination,
		NextHeader:      common.IPNumberTCP,
		Length:          uint32(len(msg)),
	}
	return common.CalculateChecksumWithIpv6PseudoHeader(ph, msg)
}

// String returns a human-readable summary of the header.
func (h Header) String() string {
	flags := ""
	for _, f := range []struct {
		bit  uint16
		char string
	}{{FlagNS, "N"}, {FlagCWR, "C"}, {FlagECE, "E"}, {FlagURG, "U"}, {FlagACK, "A"}, {FlagPSH, "P"}, {FlagRST, "R"}, {FlagSYN, "S"}, {FlagFIN, "F"}} {
		if h.HasFlag(f.bit) {
			flags += f.char
		}
	}
	if flags == "" {
		flags = "."
	}
	return fmt.Sprintf("TCP{%d -> %d, Seq=%d, Ack=%d, Flags=%s, Win=%d}",
		h.SourcePort, h.DestinationPort, h.SequenceNumber, h.AckNumber, flags, h.WindowSize)
}

// Slice is a zero-copy, validated view over a TCP header.
type Slice struct {
	data []byte
}

// FromSlice validates data's data_offset and returns a Slice view over
// the full header (including options), along with the remaining bytes.
func FromSlice(data []byte) (Slice, []byte, error) {
	if len(data) < MinHeaderLen {
		return Slice{}, nil, &common.LenError{
			Required:  MinHeaderLen,
			Actual:    len(data),
			Layer:     common.LayerTransport,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
	}
	dataOffset := data[12] >> 4
	if dataOffset < 5 {
		return Slice{}, nil, &common.TcpDataOffsetTooSmallError{DataOffset: dataOffset}
	}
	headerLen := int(dataOffset) * 4
	if len(data) < headerLen {
		return Slice{}, nil, &common.LenError{
			Required:  headerLen,
			Actual:    len(data),
			Layer:     common.LayerTransport,
			LenSource: common.LenSourceTcpDataOffset,
			Offset:    0,
		}
	}
	return Slice{data: data[:headerLen]}, data[headerLen:], nil
}

// SourcePort returns the source port.
func (s Slice) SourcePort() uint16 { return binary.BigEndian.Uint16(s.data[0:2]) }

// DestinationPort returns the destination port.
func (s Slice) DestinationPort() uint16 { return binary.BigEndian.Uint16(s.data[2:4]) }

// SequenceNumber returns the sequence number.
func (s Slice) SequenceNumber() uint32 { return binary.BigEndian.Uint32(s.data[4:8]) }

// AckNumber returns the acknowledgment number.
func (s Slice) AckNumber() uint32 { return binary.BigEndian.Uint32(s.data[8:12]) }

// DataOffset returns the data_offset nibble (header length in 32-bit words).
func (s Slice) DataOffset() uint8 { return s.data[12] >> 4 }

// Flags returns the 9 control bits (NS in bit 8).
func (s Slice) Flags() uint16 {
	return uint16(s.data[12]&0x01)<<8 | uint16(s.data[13])
}

// WindowSize returns the window size.
func (s Slice) WindowSize() uint16 { return binary.BigEndian.Uint16(s.data[14:16]) }

// Checksum returns the checksum field as transmitted.
func (s Slice) Checksum() uint16 { return binary.BigEndian.Uint16(s.data[16:18]) }

// UrgentPointer returns the urgent pointer.
func (s Slice) UrgentPointer() uint16 { return binary.BigEndian.Uint16(s.data[18:20]) }

// OptionBytes returns the raw (unparsed) options bytes.
func (s Slice) OptionBytes() []byte { return s.data[MinHeaderLen:] }

// ToHeader copies the view's fields into an owned Header value, parsing
// the raw options bytes into their typed representation.
func (s Slice) ToHeader() (Header, error) {
	opts, err := ParseOptions(s.OptionBytes())
	if err != nil {
		return Header{}, err
	}
	return Header{
		SourcePort:      s.SourcePort(),
		DestinationPort: s.DestinationPort(),
		SequenceNumber:  s.SequenceNumber(),
		AckNumber:       s.AckNumber(),
		Flags:           s.Flags(),
		WindowSize:      s.WindowSize(),
		Checksum:        s.Checksum(),
		UrgentPointer:   s.UrgentPointer(),
		Options:         opts,
	}, nil
}

// VerifyChecksum reports whether the header+payload checksum over an
// IPv4 pseudo-header is correct.
func (s Slice) VerifyChecksum(source, destination common.IPv4Address, payload []byte) bool {
	msg := append(append([]byte(nil), s.data...), payload...)
	ph := common.Ipv4PseudoHeader{
		SourceAddr:      source,
		DestinationAddr: destination,
		Protocol:        common.IPNumberTCP,
		Length:          uint32(len(msg)),
	}
	var acc common.Sum16BitWords
	ph.AddTo(&acc)
	acc.AddSlice(msg)
	return acc.Final() == 0
}
