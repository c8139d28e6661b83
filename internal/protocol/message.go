// Package protocol implements the advertisement wire format exchanged
// between routers: a UTF-8 JSON array of route-entry objects, at most
// 4096 bytes per datagram.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/jmp1617/pyrip/internal/domain"
)

// MaxDatagramBytes is the maximum assumed UDP payload size for one
// advertisement.
const MaxDatagramBytes = 4096

// requiredKeys are the keys every wire entry object must carry. A datagram
// missing any of these on any element is discarded whole — no partial
// application.
var requiredKeys = []string{"address", "mask_bits", "next_hop", "subnet", "cost"}

// wireEntry is the over-the-wire shape of a route entry. ttl is
// deliberately absent: it is a purely local liveness counter and is never
// serialized.
type wireEntry struct {
	Address  string `json:"address"`
	MaskBits int    `json:"mask_bits"`
	NextHop  string `json:"next_hop"`
	Subnet   string `json:"subnet"`
	Cost     int    `json:"cost"`
}

// Encode renders entries as the JSON array advertisement payload.
func Encode(entries []domain.RouteEntry) ([]byte, error) {
	wire := make([]wireEntry, len(entries))
	for i, e := range entries {
		wire[i] = wireEntry{
			Address:  e.Address,
			MaskBits: e.MaskBits,
			NextHop:  e.NextHop,
			Subnet:   e.Subnet,
			Cost:     e.Cost,
		}
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode: %w", err)
	}
	return data, nil
}

// Decode parses an advertisement payload into wire entries.
//
// Unknown keys on an element are ignored. If any element is missing a
// required key, the whole datagram is rejected — json.Unmarshal into a
// struct silently zero-fills missing fields, so required keys are checked
// by first decoding into raw per-element key/value maps.
func Decode(data []byte) ([]Entry, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("protocol: decode: %w", err)
	}
	out := make([]Entry, 0, len(raw))
	for i, obj := range raw {
		for _, k := range requiredKeys {
			if _, ok := obj[k]; !ok {
				return nil, fmt.Errorf("protocol: decode: element %d missing required key %q", i, k)
			}
		}
		var w wireEntry
		if err := json.Unmarshal(mustMarshalMap(obj), &w); err != nil {
			return nil, fmt.Errorf("protocol: decode: element %d: %w", i, err)
		}
		out = append(out, Entry(w))
	}
	return out, nil
}

// Entry is a decoded wire entry, exported for callers that relax against
// it without constructing a domain.RouteEntry first.
type Entry struct {
	Address  string
	MaskBits int
	NextHop  string
	Subnet   string
	Cost     int
}

func mustMarshalMap(obj map[string]json.RawMessage) []byte {
	data, _ := json.Marshal(obj)
	return data
}
