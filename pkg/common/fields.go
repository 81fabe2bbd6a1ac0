package common

import "fmt"

// ValueTooBigError is returned by a primitive field wrapper's constructor
// when the caller-supplied value exceeds the type's declared bit width.
type ValueTooBigError struct {
	// Actual is the out-of-range value that was rejected.
	Actual uint32
	// Max is the largest value the field type can hold.
	Max uint32
	// ValueType names the primitive field type that rejected the value,
	// e.g. "VlanId" or "Ipv4Dscp".
	ValueType string
}

func (e *ValueTooBigError) Error() string {
	return fmt.Sprintf("%s value %d too big, maximum allowed value is %d", e.ValueType, e.Actual, e.Max)
}

// VlanId is a 12-bit VLAN identifier (0x000-0xFFF).
type VlanId struct{ v uint16 }

// VlanIdMax is the largest value a VlanId can hold.
const VlanIdMax = 0x0FFF

// TryNewVlanId validates v and wraps it in a VlanId.
func TryNewVlanId(v uint16) (VlanId, error) {
	if v > VlanIdMax {
		return VlanId{}, &ValueTooBigError{Actual: uint32(v), Max: VlanIdMax, ValueType: "VlanId"}
	}
	return VlanId{v}, nil
}

// NewVlanIdUnchecked constructs a VlanId without validating v. The caller
// must guarantee v <= VlanIdMax (e.g. because v was just masked with
// 0x0FFF on the hot decode path).
func NewVlanIdUnchecked(v uint16) VlanId { return VlanId{v & VlanIdMax} }

// Value returns the stored 12-bit value.
func (id VlanId) Value() uint16 { return id.v }

// VlanPcp is a 3-bit IEEE 802.1p priority code point (0-7).
type VlanPcp struct{ v uint8 }

// VlanPcpMax is the largest value a VlanPcp can hold.
const VlanPcpMax = 0x07

func TryNewVlanPcp(v uint8) (VlanPcp, error) {
	if v > VlanPcpMax {
		return VlanPcp{}, &ValueTooBigError{Actual: uint32(v), Max: VlanPcpMax, ValueType: "VlanPcp"}
	}
	return VlanPcp{v}, nil
}

func NewVlanPcpUnchecked(v uint8) VlanPcp { return VlanPcp{v & VlanPcpMax} }

func (p VlanPcp) Value() uint8 { return p.v }

// Ipv4Dscp is a 6-bit Differentiated Services Code Point.
type Ipv4Dscp struct{ v uint8 }

const Ipv4DscpMax = 0x3F

func TryNewIpv4Dscp(v uint8) (Ipv4Dscp, error) {
	if v > Ipv4DscpMax {
		return Ipv4Dscp{}, &ValueTooBigError{Actual: uint32(v), Max: Ipv4DscpMax, ValueType: "Ipv4Dscp"}
	}
	return Ipv4Dscp{v}, nil
}

func NewIpv4DscpUnchecked(v uint8) Ipv4Dscp { return Ipv4Dscp{v & Ipv4DscpMax} }

func (d Ipv4Dscp) Value() uint8 { return d.v }

// Ipv4Ecn is a 2-bit Explicit Congestion Notification field.
type Ipv4Ecn struct{ v uint8 }

const Ipv4EcnMax = 0x03

func TryNewIpv4Ecn(v uint8) (Ipv4Ecn, error) {
	if v > Ipv4EcnMax {
		return Ipv4Ecn{}, &ValueTooBigError{Actual: uint32(v), Max: Ipv4EcnMax, ValueType: "Ipv4Ecn"}
	}
	return Ipv4Ecn{v}, nil
}

func NewIpv4EcnUnchecked(v uint8) Ipv4Ecn { return Ipv4Ecn{v & Ipv4EcnMax} }

func (e Ipv4Ecn) Value() uint8 { return e.v }

// Ipv6FlowLabel is a 20-bit IPv6 flow label.
type Ipv6FlowLabel struct{ v uint32 }

const Ipv6FlowLabelMax = 0xFFFFF

func TryNewIpv6FlowLabel(v uint32) (Ipv6FlowLabel, error) {
	if v > Ipv6FlowLabelMax {
		return Ipv6FlowLabel{}, &ValueTooBigError{Actual: v, Max: Ipv6FlowLabelMax, ValueType: "Ipv6FlowLabel"}
	}
	return Ipv6FlowLabel{v}, nil
}

func NewIpv6FlowLabelUnchecked(v uint32) Ipv6FlowLabel { return Ipv6FlowLabel{v & Ipv6FlowLabelMax} }

func (f Ipv6FlowLabel) Value() uint32 { return f.v }

// IpFragOffset is a 13-bit IPv4/IPv6-fragment-header fragment offset,
// measured in 8-octet units.
type IpFragOffset struct{ v uint16 }

const IpFragOffsetMax = 0x1FFF

func TryNewIpFragOffset(v uint16) (IpFragOffset, error) {
	if v > IpFragOffsetMax {
		return IpFragOffset{}, &ValueTooBigError{Actual: uint32(v), Max: IpFragOffsetMax, ValueType: "IpFragOffset"}
	}
	return IpFragOffset{v}, nil
}

func NewIpFragOffsetUnchecked(v uint16) IpFragOffset { return IpFragOffset{v & IpFragOffsetMax} }

func (o IpFragOffset) Value() uint16 { return o.v }

// Bytes returns the byte offset named by this fragment offset (offset * 8).
func (o IpFragOffset) Bytes() uint32 { return uint32(o.v) * 8 }

// MacSecAn is a 2-bit MACsec association number.
type MacSecAn struct{ v uint8 }

const MacSecAnMax = 0x03

func TryNewMacSecAn(v uint8) (MacSecAn, error) {
	if v > MacSecAnMax {
		return MacSecAn{}, &ValueTooBigError{Actual: uint32(v), Max: MacSecAnMax, ValueType: "MacSecAn"}
	}
	return MacSecAn{v}, nil
}

func NewMacSecAnUnchecked(v uint8) MacSecAn { return MacSecAn{v & MacSecAnMax} }

func (a MacSecAn) Value() uint8 { return a.v }

// MacSecShortLen is a 6-bit MACsec "short length" field. A value of 0
// means the payload extends to the end of the containing slice; any
// other value is the exact payload length in bytes.
type MacSecShortLen struct{ v uint8 }

const MacSecShortLenMax = 0x3F

func TryNewMacSecShortLen(v uint8) (MacSecShortLen, error) {
	if v > MacSecShortLenMax {
		return MacSecShortLen{}, &ValueTooBigError{Actual: uint32(v), Max: MacSecShortLenMax, ValueType: "MacSecSl"}
	}
	return MacSecShortLen{v}, nil
}

func NewMacSecShortLenUnchecked(v uint8) MacSecShortLen { return MacSecShortLen{v & MacSecShortLenMax} }

func (s MacSecShortLen) Value() uint8 { return s.v }
