package speaker

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/jmp1617/pyrip/internal/config"
	"github.com/jmp1617/pyrip/internal/domain"
	"github.com/jmp1617/pyrip/internal/logger"
	"github.com/jmp1617/pyrip/internal/routingtable"
)

func noopLogger() logger.Logger {
	return &logger.NopLogger{}
}

const (
	hopLimit = 16
	subBits  = 24
	ttlMax   = 5
)

// fakeSocket is an in-memory stand-in for transport.Socket used to drive
// Sender and Receiver without a real UDP connection.
type fakeSocket struct {
	mu  sync.Mutex
	out []sentDatagram

	inbound chan inboundDatagram
}

type sentDatagram struct {
	payload []byte
	addr    string
}

type inboundDatagram struct {
	payload []byte
	from    string
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{inbound: make(chan inboundDatagram, 16)}
}

func (f *fakeSocket) SendTo(payload []byte, addr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	f.out = append(f.out, sentDatagram{payload: cp, addr: addr})
	return nil
}

func (f *fakeSocket) Receive() ([]byte, string, error) {
	d := <-f.inbound
	return d.payload, d.from, nil
}

func (f *fakeSocket) sent() []sentDatagram {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentDatagram, len(f.out))
	copy(out, f.out)
	return out
}

func mustTable(t *testing.T, selfAddr string) *routingtable.RoutingTable {
	t.Helper()
	rt, err := routingtable.New(selfAddr, subBits, hopLimit, ttlMax)
	if err != nil {
		t.Fatalf("routingtable.New() error = %v", err)
	}
	return rt
}

// Scenario 1/3: cold start + split horizon on re-broadcast.
func TestSenderCycleAppliesSplitHorizon(t *testing.T) {
	rt := mustTable(t, "10.0.0.1") // A
	mustAdd(t, rt, "10.0.1.1", "10.0.1.1", 1)

	sock := newFakeSocket()
	neighbors := []config.RouterConfig{
		{Name: "B", Address: "10.0.1.1", Port: 5000},
		{Name: "C", Address: "10.0.2.1", Port: 5000},
	}
	s := &Sender{table: rt, sock: sock, neighbors: neighbors, lgr: noopLogger()}
	s.cycle()

	sent := sock.sent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 datagrams sent, got %d", len(sent))
	}
	for _, d := range sent {
		var arr []map[string]any
		if err := json.Unmarshal(d.payload, &arr); err != nil {
			t.Fatalf("invalid JSON to %s: %v", d.addr, err)
		}
		if d.addr == "10.0.1.1:5000" {
			for _, e := range arr {
				if e["next_hop"] == "10.0.1.1" {
					t.Errorf("datagram to B must omit B's own route via split horizon, got %+v", arr)
				}
			}
		}
	}
}

// Scenario 4: poison on silence via repeated Sender cycles.
func TestSenderCyclePoisonsDeadNeighborOverTime(t *testing.T) {
	rt := mustTable(t, "10.0.0.1")
	mustAdd(t, rt, "10.0.1.1", "10.0.1.1", 1)
	sock := newFakeSocket()
	neighbors := []config.RouterConfig{{Name: "B", Address: "10.0.1.1", Port: 5000}}
	s := &Sender{table: rt, sock: sock, neighbors: neighbors, lgr: noopLogger()}

	for i := 0; i < ttlMax; i++ {
		s.cycle()
	}
	got, _ := rt.Lookup("10.0.1.0")
	if got.Cost != hopLimit {
		t.Fatalf("expected B/24 poisoned after %d cycles, cost = %d", ttlMax, got.Cost)
	}
}

// Scenario 2: learning a route via the Receiver.
func TestReceiverLearnsNewRoute(t *testing.T) {
	rt := mustTable(t, "10.0.0.1") // A
	sock := newFakeSocket()
	neighbors := map[string]string{"10.0.1.1": "10.0.1.1:5000"}
	r := NewReceiver(rt, sock, neighbors, hopLimit, "10.0.0.0", nil)

	payload := []byte(`[{"address":"10.0.1.1","mask_bits":24,"next_hop":"10.0.1.1","subnet":"10.0.1.0","cost":0}]`)
	r.handleDatagram(payload, "10.0.1.1")

	got, ok := rt.Lookup("10.0.1.0")
	if !ok {
		t.Fatal("expected B/24 to be learned")
	}
	if got.Cost != 1 || got.NextHop != "10.0.1.1" {
		t.Errorf("unexpected learned entry: %+v", got)
	}
}

// Scenario 6: count-to-infinity guard on the self-route.
func TestReceiverRejectsWorseCostOnSelfRoute(t *testing.T) {
	rt := mustTable(t, "10.0.0.1")
	sock := newFakeSocket()
	neighbors := map[string]string{"10.0.1.1": "10.0.1.1:5000"}
	r := NewReceiver(rt, sock, neighbors, hopLimit, "10.0.0.0", nil)

	payload := []byte(`[{"address":"10.0.0.1","mask_bits":24,"next_hop":"10.0.0.1","subnet":"10.0.0.0","cost":5}]`)
	r.handleDatagram(payload, "10.0.1.1")

	self, _ := rt.Lookup("10.0.0.0")
	if self.Cost != 0 || self.NextHop != "10.0.0.1" {
		t.Errorf("self-route must be immune to inbound advertisements, got %+v", self)
	}
}

// Scenario 6 variant: a neighbor's reactive poison-reverse burst (no split
// horizon) can carry a stale-poisoned view of this router's own subnet. The
// self-route must be immune to that too, not just to worse finite costs.
func TestReceiverRejectsPoisonOnSelfRoute(t *testing.T) {
	rt := mustTable(t, "10.0.0.1")
	sock := newFakeSocket()
	neighbors := map[string]string{"10.0.1.1": "10.0.1.1:5000"}
	r := NewReceiver(rt, sock, neighbors, hopLimit, "10.0.0.0", nil)

	payload := []byte(`[{"address":"10.0.0.1","mask_bits":24,"next_hop":"10.0.0.1","subnet":"10.0.0.0","cost":16}]`)
	r.handleDatagram(payload, "10.0.1.1")

	self, _ := rt.Lookup("10.0.0.0")
	if self.Cost != 0 || self.NextHop != "10.0.0.1" {
		t.Errorf("self-route must be immune to a poison advertisement, got %+v", self)
	}
}

// Scenario 5: reactive poison reverse.
func TestReceiverSendsPoisonReverseOnNewlyPoisoned(t *testing.T) {
	rt := mustTable(t, "10.0.2.1") // C
	mustAdd(t, rt, "10.0.1.1", "10.0.0.1", 2)
	sock := newFakeSocket()
	neighbors := map[string]string{"10.0.0.1": "10.0.0.1:5000"}
	r := NewReceiver(rt, sock, neighbors, hopLimit, "10.0.2.0", nil)

	payload := []byte(`[{"address":"10.0.1.1","mask_bits":24,"next_hop":"10.0.0.1","subnet":"10.0.1.0","cost":16}]`)
	r.handleDatagram(payload, "10.0.0.1")

	got, _ := rt.Lookup("10.0.1.0")
	if got.Cost != hopLimit {
		t.Fatalf("expected B/24 poisoned, got cost %d", got.Cost)
	}
	sent := sock.sent()
	if len(sent) != 1 || sent[0].addr != "10.0.0.1:5000" {
		t.Fatalf("expected one poison-reverse burst back to A, got %+v", sent)
	}
}

// Idempotence law: receiving the same advertisement twice yields the same state.
func TestReceiverIdempotence(t *testing.T) {
	rt := mustTable(t, "10.0.0.1")
	sock := newFakeSocket()
	neighbors := map[string]string{"10.0.1.1": "10.0.1.1:5000"}
	r := NewReceiver(rt, sock, neighbors, hopLimit, "10.0.0.0", nil)

	payload := []byte(`[{"address":"10.0.1.1","mask_bits":24,"next_hop":"10.0.1.1","subnet":"10.0.1.0","cost":0}]`)
	r.handleDatagram(payload, "10.0.1.1")
	first := rt.Snapshot()
	r.handleDatagram(payload, "10.0.1.1")
	second := rt.Snapshot()

	if len(first) != len(second) {
		t.Fatalf("table size changed on repeat advertisement: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("entry %d changed on repeat advertisement: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func mustAdd(t *testing.T, rt *routingtable.RoutingTable, address, nextHop string, cost int) domain.RouteEntry {
	t.Helper()
	e, err := domain.NewRouteEntry(address, subBits, nextHop, cost, ttlMax)
	if err != nil {
		t.Fatalf("domain.NewRouteEntry() error = %v", err)
	}
	rt.Add(e)
	return e
}
