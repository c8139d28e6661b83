// Package domain holds the route entry value type shared by the routing
// table, the wire protocol, and the speaker loops.
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RouteEntry is a single destination route, as described by the routing
// table's invariants: subnet is always the canonical masking of address by
// maskBits, cost is a hop count in [0, HOP_LIMIT], and ttl is meaningful
// only for entries whose Address is a direct neighbor's address.
type RouteEntry struct {
	Address  string
	MaskBits int
	Subnet   string
	NextHop  string
	Cost     int
	TTL      int
}

// NewRouteEntry builds a RouteEntry, deriving Subnet from Address and
// MaskBits. Returns an error if address is not a well-formed dotted-quad
// or maskBits is out of [0, 32].
func NewRouteEntry(address string, maskBits int, nextHop string, cost int, ttl int) (RouteEntry, error) {
	subnet, err := CanonicalSubnet(address, maskBits)
	if err != nil {
		return RouteEntry{}, err
	}
	return RouteEntry{
		Address:  address,
		MaskBits: maskBits,
		Subnet:   subnet,
		NextHop:  nextHop,
		Cost:     cost,
		TTL:      ttl,
	}, nil
}

// CanonicalSubnet masks address by the top maskBits bits, zeroing the host
// bits, and returns the resulting dotted-quad network address.
//
// Per octet i (0-indexed), the number of bits of that octet covered by the
// prefix is clamp(maskBits - 8*i, 0, 8): octets fully inside the prefix
// pass through unchanged, octets fully outside it are zeroed, and at most
// one octet is partially masked.
func CanonicalSubnet(address string, maskBits int) (string, error) {
	octets, err := parseDottedQuad(address)
	if err != nil {
		return "", err
	}
	if maskBits < 0 || maskBits > 32 {
		return "", fmt.Errorf("domain: mask_bits %d out of range [0,32]", maskBits)
	}
	for i := range octets {
		bits := maskBits - 8*i
		if bits < 0 {
			bits = 0
		}
		if bits > 8 {
			bits = 8
		}
		mask := byte(0xFF << (8 - bits))
		if bits == 0 {
			mask = 0
		}
		octets[i] &= mask
	}
	return fmt.Sprintf("%d.%d.%d.%d", octets[0], octets[1], octets[2], octets[3]), nil
}

func parseDottedQuad(address string) ([4]byte, error) {
	var out [4]byte
	parts := strings.Split(address, ".")
	if len(parts) != 4 {
		return out, fmt.Errorf("domain: %q is not a dotted-quad address", address)
	}
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > 255 {
			return out, fmt.Errorf("domain: %q is not a dotted-quad address", address)
		}
		out[i] = byte(v)
	}
	return out, nil
}
