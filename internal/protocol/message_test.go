package protocol

import (
	"strings"
	"testing"

	"github.com/jmp1617/pyrip/internal/domain"
)

func mustEntry(t *testing.T, address string, maskBits int, nextHop string, cost, ttl int) domain.RouteEntry {
	t.Helper()
	e, err := domain.NewRouteEntry(address, maskBits, nextHop, cost, ttl)
	if err != nil {
		t.Fatalf("NewRouteEntry() error = %v", err)
	}
	return e
}

func TestEncodeOmitsTTL(t *testing.T) {
	e := mustEntry(t, "10.0.0.1", 24, "10.0.0.1", 0, 5)
	data, err := Encode([]domain.RouteEntry{e})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if got := string(data); strings.Contains(got, "ttl") {
		t.Errorf("encoded payload must not contain ttl, got %s", got)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	entries := []domain.RouteEntry{
		mustEntry(t, "10.0.0.1", 24, "10.0.0.1", 0, 5),
		mustEntry(t, "10.0.1.1", 24, "10.0.0.2", 1, 5),
	}
	data, err := Encode(entries)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(decoded) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(decoded), len(entries))
	}
	for i, d := range decoded {
		if d.Address != entries[i].Address || d.Cost != entries[i].Cost || d.Subnet != entries[i].Subnet {
			t.Errorf("entry %d: got %+v, want fields from %+v", i, d, entries[i])
		}
	}
}

func TestDecodeIgnoresUnknownKeys(t *testing.T) {
	payload := `[{"address":"10.0.0.1","mask_bits":24,"next_hop":"10.0.0.1","subnet":"10.0.0.0","cost":0,"extra":"ignored"}]`
	decoded, err := Decode([]byte(payload))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(decoded) != 1 || decoded[0].Address != "10.0.0.1" {
		t.Errorf("unexpected decode result: %+v", decoded)
	}
}

func TestDecodeRejectsMissingKey(t *testing.T) {
	payload := `[{"address":"10.0.0.1","mask_bits":24,"next_hop":"10.0.0.1","cost":0}]`
	if _, err := Decode([]byte(payload)); err == nil {
		t.Error("expected error for missing subnet key")
	}
}

func TestDecodeRejectsWholeDatagramOnOneBadElement(t *testing.T) {
	payload := `[
		{"address":"10.0.0.1","mask_bits":24,"next_hop":"10.0.0.1","subnet":"10.0.0.0","cost":0},
		{"address":"10.0.1.1","mask_bits":24,"next_hop":"10.0.0.1","cost":1}
	]`
	if _, err := Decode([]byte(payload)); err == nil {
		t.Error("expected whole-datagram rejection when one element is malformed")
	}
}

func TestDecodeMalformedJSON(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
