package domain

import "testing"

func TestCanonicalSubnet(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		maskBits int
		want     string
	}{
		{name: "/24 common case", address: "192.168.1.57", maskBits: 24, want: "192.168.1.0"},
		{name: "/16", address: "10.20.30.40", maskBits: 16, want: "10.20.0.0"},
		{name: "/0 masks everything", address: "10.20.30.40", maskBits: 0, want: "0.0.0.0"},
		{name: "/32 masks nothing", address: "10.20.30.40", maskBits: 32, want: "10.20.30.40"},
		{name: "/27 partial last octet", address: "192.168.1.200", maskBits: 27, want: "192.168.1.192"},
		{name: "/12 partial second octet", address: "172.31.255.1", maskBits: 12, want: "172.16.0.0"},
		{name: "already canonical is idempotent", address: "192.168.1.0", maskBits: 24, want: "192.168.1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalSubnet(tt.address, tt.maskBits)
			if err != nil {
				t.Fatalf("CanonicalSubnet() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CanonicalSubnet(%q, %d) = %q, want %q", tt.address, tt.maskBits, got, tt.want)
			}
		})
	}
}

func TestCanonicalSubnetIdempotent(t *testing.T) {
	addr := "10.255.17.200"
	for _, bits := range []int{0, 1, 7, 8, 9, 15, 16, 17, 23, 24, 25, 31, 32} {
		once, err := CanonicalSubnet(addr, bits)
		if err != nil {
			t.Fatalf("CanonicalSubnet() error = %v", err)
		}
		twice, err := CanonicalSubnet(once, bits)
		if err != nil {
			t.Fatalf("CanonicalSubnet() error = %v", err)
		}
		if once != twice {
			t.Errorf("masking /%d twice: %q != %q", bits, once, twice)
		}
	}
}

func TestCanonicalSubnetInvalid(t *testing.T) {
	if _, err := CanonicalSubnet("not-an-ip", 24); err == nil {
		t.Error("expected error for malformed address")
	}
	if _, err := CanonicalSubnet("10.0.0.1", 33); err == nil {
		t.Error("expected error for mask_bits out of range")
	}
	if _, err := CanonicalSubnet("10.0.0.1", -1); err == nil {
		t.Error("expected error for negative mask_bits")
	}
}

func TestNewRouteEntry(t *testing.T) {
	e, err := NewRouteEntry("10.0.0.5", 24, "10.0.0.5", 0, 5)
	if err != nil {
		t.Fatalf("NewRouteEntry() error = %v", err)
	}
	if e.Subnet != "10.0.0.0" {
		t.Errorf("Subnet = %q, want 10.0.0.0", e.Subnet)
	}
	if e.Cost != 0 || e.NextHop != "10.0.0.5" {
		t.Errorf("unexpected entry: %+v", e)
	}
}
