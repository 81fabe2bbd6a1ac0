package ip

import (
	"encoding/binary"
	"fmt"

	"github.com/netlayers/etherslice/pkg/common"
)

// AuthMinLen is the fixed portion of an Authentication Header (next_header,
// payload_len, reserved, SPI, sequence number) before the ICV.
const AuthMinLen = 12

// AuthMaxIcvLen is the largest ICV this walker will frame (1016 bytes,
// i.e. payload_len maxes out at 255 four-byte units minus the fixed part).
const AuthMaxIcvLen = 1016

// AuthHeader is an owned, decoded IPv4/IPv6 Authentication Header (IP
// number 51). The ICV is framed but never validated — authenticating it
// is a caller responsibility.
type AuthHeader struct {
	NextHeader     common.IPNumber
	PayloadLen     uint8 // in 4-byte units, including this struct; must be >= 1
	SequenceNumber uint32
	Spi            uint32
	Icv            []byte
}

// IcvLen returns the length of the Integrity Check Value, in bytes.
func (h AuthHeader) IcvLen() int { return (int(h.PayloadLen) - 1) * 4 }

// HeaderLen returns the total serialized length of h.
func (h AuthHeader) HeaderLen() int { return AuthMinLen + h.IcvLen() }

// ToBytes serializes h to its wire representation.
func (h AuthHeader) ToBytes() []byte {
	b := make([]byte, h.HeaderLen())
	b[0] = uint8(h.NextHeader)
	b[1] = h.PayloadLen
	// b[2:4] reserved, left zero
	binary.BigEndian.PutUint32(b[4:8], h.Spi)
	binary.BigEndian.PutUint32(b[8:12], h.SequenceNumber)
	copy(b[12:], h.Icv)
	return b
}

// Write serializes h into w.
func (h AuthHeader) Write(w *common.Writer) error {
	return w.PutBytes(h.ToBytes())
}

// String returns a human-readable summary of the header.
func (h AuthHeader) String() string {
	return fmt.Sprintf("AuthHeader{NextHeader=%s, Spi=%08x, Seq=%d, IcvLen=%d}",
		h.NextHeader, h.Spi, h.SequenceNumber, h.IcvLen())
}

// AuthSlice is a zero-copy, validated view over an Authentication Header.
type AuthSlice struct {
	data []byte
}

// AuthFromSlice validates that data holds a complete Authentication
// Header and returns a Slice view over it, along with the remaining
// bytes after the header.
func AuthFromSlice(data []byte) (AuthSlice, []byte, error) {
	if len(data) < AuthMinLen {
		return AuthSlice{}, nil, &common.LenError{
			Required:  AuthMinLen,
			Actual:    len(data),
			Layer:     common.LayerNetExt,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
	}
	payloadLen := data[1]
	if payloadLen < 1 {
		return AuthSlice{}, nil, &common.IpAuthZeroPayloadLenError{}
	}
	icvLen := (int(payloadLen) - 1) * 4
	if icvLen > AuthMaxIcvLen {
		return AuthSlice{}, nil, &common.IcvLenTooBigError{IcvLen: icvLen, MaxLen: AuthMaxIcvLen}
	}
	total := AuthMinLen + icvLen
	if len(data) < total {
		return AuthSlice{}, nil, &common.LenError{
			Required:  total,
			Actual:    len(data),
			Layer:     common.LayerNetExt,
			LenSource: common.LenSourceSlice,
			Offset:    0,
		}
	}
	return AuthSlice{data: data[:total]}, data[total:], nil
}

// NextHeader returns the next_header field.
func (s AuthSlice) NextHeader() common.IPNumber { return common.IPNumber(s.data[0]) }

// PayloadLen returns the payload_len field, in 4-byte units.
func (s AuthSlice) PayloadLen() uint8 { return s.data[1] }

// Spi returns the Security Parameters Index.
func (s AuthSlice) Spi() uint32 { return binary.BigEndian.Uint32(s.data[4:8]) }

// SequenceNumber returns the sequence number field.
func (s AuthSlice) SequenceNumber() uint32 { return binary.BigEndian.Uint32(s.data[8:12]) }

// Icv returns the Integrity Check Value sub-slice, borrowed from the
// input buffer. Its content is not validated.
func (s AuthSlice) Icv() []byte { return s.data[AuthMinLen:] }

// ToHeader copies the view's fields into an owned AuthHeader value.
func (s AuthSlice) ToHeader() AuthHeader {
	return AuthHeader{
		NextHeader:     s.NextHeader(),
		PayloadLen:     s.PayloadLen(),
		SequenceNumber: s.SequenceNumber(),
		Spi:            s.Spi(),
		Icv:            append([]byte(nil), s.Icv()...),
	}
}

// Extensions holds the IPv4 extension-header chain, which per spec is
// just the (optional) Authentication Header.
type Extensions struct {
	Auth *AuthHeader
}

// ExtensionsFromSlice walks the extension-header chain starting from
// protocol (the IPv4 header's own Protocol field). It recognizes only
// the Authentication Header (IP number 51); any other protocol number
// terminates the walk and is returned as the final inner protocol.
func ExtensionsFromSlice(protocol common.IPNumber, data []byte) (Extensions, common.IPNumber, []byte, error) {
	var ext Extensions
	if protocol != common.IPNumberAuth {
		return ext, protocol, data, nil
	}
	s, rest, err := AuthFromSlice(data)
	if err != nil {
		return Extensions{}, protocol, nil, err
	}
	h := s.ToHeader()
	ext.Auth = &h
	return ext, h.NextHeader, rest, nil
}

// HeaderLen returns the combined serialized length of all present
// extensions.
func (e Extensions) HeaderLen() int {
	if e.Auth == nil {
		return 0
	}
	return e.Auth.HeaderLen()
}

// SetNextHeaders rewires the next_header fields of present extensions in
// declared order, returning the IP number that belongs in the IPv4
// header's own Protocol field.
func (e *Extensions) SetNextHeaders(finalProtocol common.IPNumber) common.IPNumber {
	if e.Auth == nil {
		return finalProtocol
	}
	e.Auth.NextHeader = finalProtocol
	return common.IPNumberAuth
}

// ToBytes serializes the present extensions in declared order.
func (e Extensions) ToBytes() []byte {
	if e.Auth == nil {
		return nil
	}
	return e.Auth.ToBytes()
}

// Write serializes the present extensions into w.
func (e Extensions) Write(w *common.Writer) error {
	if e.Auth == nil {
		return nil
	}
	return e.Auth.Write(w)
}
