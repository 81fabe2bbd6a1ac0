package common

import (
	"errors"
	"testing"
)

func TestVlanId(t *testing.T) {
	if _, err := TryNewVlanId(VlanIdMax); err != nil {
		t.Errorf("TryNewVlanId(max) error = %v, want nil", err)
	}
	if _, err := TryNewVlanId(VlanIdMax + 1); err == nil {
		t.Error("TryNewVlanId(max+1) error = nil, want error")
	}
	id := NewVlanIdUnchecked(0xFFFF)
	if id.Value() != VlanIdMax {
		t.Errorf("NewVlanIdUnchecked(0xFFFF).Value() = 0x%x, want 0x%x", id.Value(), VlanIdMax)
	}
}

func TestVlanPcp(t *testing.T) {
	if _, err := TryNewVlanPcp(VlanPcpMax); err != nil {
		t.Errorf("TryNewVlanPcp(max) error = %v, want nil", err)
	}
	if _, err := TryNewVlanPcp(VlanPcpMax + 1); err == nil {
		t.Error("TryNewVlanPcp(max+1) error = nil, want error")
	}
}

func TestIpv4Dscp(t *testing.T) {
	if _, err := TryNewIpv4Dscp(Ipv4DscpMax); err != nil {
		t.Errorf("TryNewIpv4Dscp(max) error = %v, want nil", err)
	}
	if _, err := TryNewIpv4Dscp(Ipv4DscpMax + 1); err == nil {
		t.Error("TryNewIpv4Dscp(max+1) error = nil, want error")
	}
}

func TestIpv4Ecn(t *testing.T) {
	if _, err := TryNewIpv4Ecn(Ipv4EcnMax); err != nil {
		t.Errorf("TryNewIpv4Ecn(max) error = %v, want nil", err)
	}
	if _, err := TryNewIpv4Ecn(Ipv4EcnMax + 1); err == nil {
		t.Error("TryNewIpv4Ecn(max+1) error = nil, want error")
	}
}

func TestIpv6FlowLabel(t *testing.T) {
	if _, err := TryNewIpv6FlowLabel(Ipv6FlowLabelMax); err != nil {
		t.Errorf("TryNewIpv6FlowLabel(max) error = %v, want nil", err)
	}
	if _, err := TryNewIpv6FlowLabel(Ipv6FlowLabelMax + 1); err == nil {
		t.Error("TryNewIpv6FlowLabel(max+1) error = nil, want error")
	}
}

func TestIpFragOffset(t *testing.T) {
	off, err := TryNewIpFragOffset(IpFragOffsetMax)
	if err != nil {
		t.Fatalf("TryNewIpFragOffset(max) error = %v, want nil", err)
	}
	if got, want := off.Bytes(), uint32(IpFragOffsetMax)*8; got != want {
		t.Errorf("IpFragOffset.Bytes() = %d, want %d", got, want)
	}
	if _, err := TryNewIpFragOffset(IpFragOffsetMax + 1); err == nil {
		t.Error("TryNewIpFragOffset(max+1) error = nil, want error")
	}
}

func TestMacSecAn(t *testing.T) {
	if _, err := TryNewMacSecAn(MacSecAnMax); err != nil {
		t.Errorf("TryNewMacSecAn(max) error = %v, want nil", err)
	}
	if _, err := TryNewMacSecAn(MacSecAnMax + 1); err == nil {
		t.Error("TryNewMacSecAn(max+1) error = nil, want error")
	}
}

func TestMacSecShortLen(t *testing.T) {
	if _, err := TryNewMacSecShortLen(MacSecShortLenMax); err != nil {
		t.Errorf("TryNewMacSecShortLen(max) error = %v, want nil", err)
	}
	if _, err := TryNewMacSecShortLen(MacSecShortLenMax + 1); err == nil {
		t.Error("TryNewMacSecShortLen(max+1) error = nil, want error")
	}
}

func TestValueTooBigErrorMessage(t *testing.T) {
	_, err := TryNewVlanPcp(8)
	if err == nil {
		t.Fatal("expected error")
	}
	var vtb *ValueTooBigError
	if !errors.As(err, &vtb) {
		t.Fatalf("error is not *ValueTooBigError: %v", err)
	}
	if vtb.ValueType != "VlanPcp" || vtb.Actual != 8 || vtb.Max != VlanPcpMax {
		t.Errorf("unexpected ValueTooBigError fields: %+v", vtb)
	}
}
