// Package routingtable implements the shared, mutex-guarded collection of
// route entries described by the daemon's data model: a passive object
// whose invariants hold whenever its single lock is not held.
package routingtable

import (
	"sync"

	"github.com/jmp1617/pyrip/internal/domain"
	"github.com/jmp1617/pyrip/internal/logger"
	"github.com/jmp1617/pyrip/internal/protocol"
)

// RoutingTable is the passive, mutex-guarded store of route entries owned
// by a single router process.
//
// Every mutating operation and every read that must observe a consistent
// snapshot is performed while holding mu. The lock is not reentrant;
// methods never call each other while already holding it.
type RoutingTable struct {
	logger   logger.Logger
	hopLimit int
	ttlMax   int

	mu      sync.Mutex
	entries []domain.RouteEntry
}

// New creates a RoutingTable seeded with the self-route
// (selfAddress, maskBits, selfAddress, 0), per bootstrap's responsibility
// in spec §4.5. hopLimit and ttlMax are the configured infinity sentinel
// and maximum neighbor-silence tolerance, respectively.
func New(selfAddress string, maskBits, hopLimit, ttlMax int, opts ...Option) (*RoutingTable, error) {
	rt := &RoutingTable{
		logger:   &logger.NopLogger{},
		hopLimit: hopLimit,
		ttlMax:   ttlMax,
	}
	for _, opt := range opts {
		opt(rt)
	}
	self, err := domain.NewRouteEntry(selfAddress, maskBits, selfAddress, 0, ttlMax)
	if err != nil {
		return nil, err
	}
	rt.entries = []domain.RouteEntry{self}
	rt.logger.Debug("routing table initialized", logger.FEntry("self", self))
	return rt, nil
}

// Lookup returns the entry for subnet and whether it was found.
func (rt *RoutingTable) Lookup(subnet string) (domain.RouteEntry, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.lookupLocked(subnet)
}

func (rt *RoutingTable) lookupLocked(subnet string) (domain.RouteEntry, bool) {
	for i := range rt.entries {
		if rt.entries[i].Subnet == subnet {
			return rt.entries[i], true
		}
	}
	return domain.RouteEntry{}, false
}

// CostOf returns the cost of the entry for subnet and whether it exists.
func (rt *RoutingTable) CostOf(subnet string) (int, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	e, ok := rt.lookupLocked(subnet)
	if !ok {
		return 0, false
	}
	return e.Cost, true
}

// Subnets returns every known subnet value.
func (rt *RoutingTable) Subnets() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]string, len(rt.entries))
	for i, e := range rt.entries {
		out[i] = e.Subnet
	}
	return out
}

// Snapshot returns a copy of every entry currently in the table. Callers
// may read and retain the returned slice freely; it never aliases internal
// state.
func (rt *RoutingTable) Snapshot() []domain.RouteEntry {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]domain.RouteEntry, len(rt.entries))
	copy(out, rt.entries)
	return out
}

// Add inserts a new entry. Callers must ensure no entry for e.Subnet
// already exists; Add does not check (use UpdateBySubnet to mutate an
// existing entry keyed by subnet).
func (rt *RoutingTable) Add(e domain.RouteEntry) {
	rt.mu.Lock()
	rt.entries = append(rt.entries, e)
	rt.mu.Unlock()
	rt.logger.Debug("entry added", logger.FEntry("entry", e))
}

// UpdateBySubnet applies (address, maskBits, nextHop, cost) to the entry
// keyed by subnet, recomputing subnet from address/maskBits as required by
// invariant 2. Reports whether an entry for subnet existed.
func (rt *RoutingTable) UpdateBySubnet(subnet, address string, maskBits int, nextHop string, cost int) (bool, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for i := range rt.entries {
		if rt.entries[i].Subnet != subnet {
			continue
		}
		newSubnet, err := domain.CanonicalSubnet(address, maskBits)
		if err != nil {
			return true, err
		}
		rt.entries[i].Address = address
		rt.entries[i].MaskBits = maskBits
		rt.entries[i].Subnet = newSubnet
		rt.entries[i].NextHop = nextHop
		rt.entries[i].Cost = clampCost(cost, rt.hopLimit)
		rt.logger.Debug("entry updated", logger.FEntry("entry", rt.entries[i]))
		return true, nil
	}
	return false, nil
}

// ResetTTLByAddress resets the ttl of every entry whose address matches
// addr back to the configured maximum — the neighbor-liveness record
// refresh performed on receipt of any datagram from a direct neighbor.
func (rt *RoutingTable) ResetTTLByAddress(addr string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for i := range rt.entries {
		if rt.entries[i].Address == addr {
			rt.entries[i].TTL = rt.ttlMax
		}
	}
}

// DecayTTL performs one send cycle's TTL decay pass: for every entry whose
// address is in neighbors and whose cost != 0, decrements ttl, poisoning the
// entry (cost = hopLimit) on the decrement that reaches zero. Already-poisoned
// entries are left alone. Returns the subnets that transitioned to poisoned
// in this pass.
func (rt *RoutingTable) DecayTTL(neighbors map[string]bool) []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	var poisoned []string
	for i := range rt.entries {
		e := &rt.entries[i]
		if e.Cost == 0 || e.Cost == rt.hopLimit || !neighbors[e.Address] {
			continue
		}
		e.TTL--
		if e.TTL <= 0 {
			e.Cost = rt.hopLimit
			poisoned = append(poisoned, e.Subnet)
			rt.logger.Debug("neighbor declared dead, entry poisoned", logger.FEntry("entry", *e))
		}
	}
	return poisoned
}

// SerializeExcluding renders the table as a wire advertisement, omitting
// any entry whose next_hop equals nextHop — the mandatory split-horizon
// filter applied when addressing a specific neighbor.
func (rt *RoutingTable) SerializeExcluding(nextHop string) ([]byte, error) {
	rt.mu.Lock()
	filtered := make([]domain.RouteEntry, 0, len(rt.entries))
	for _, e := range rt.entries {
		if e.NextHop == nextHop {
			continue
		}
		filtered = append(filtered, e)
	}
	rt.mu.Unlock()
	return protocol.Encode(filtered)
}

// SerializeAll renders the full table with no split horizon applied, used
// for the reactive poison-reverse burst.
func (rt *RoutingTable) SerializeAll() ([]byte, error) {
	rt.mu.Lock()
	snapshot := make([]domain.RouteEntry, len(rt.entries))
	copy(snapshot, rt.entries)
	rt.mu.Unlock()
	return protocol.Encode(snapshot)
}

// DebugLog emits a structured snapshot of the table at Debug level,
// intended as the logging counterpart to the Printer loop's stdout
// rendering.
func (rt *RoutingTable) DebugLog() {
	snap := rt.Snapshot()
	rows := make([]map[string]any, len(snap))
	for i, e := range snap {
		rows[i] = map[string]any{
			"subnet":   e.Subnet,
			"next_hop": e.NextHop,
			"cost":     e.Cost,
		}
	}
	rt.logger.Debug("routing table snapshot", logger.F("entries", rows))
}

func clampCost(cost, hopLimit int) int {
	if cost > hopLimit {
		return hopLimit
	}
	if cost < 0 {
		return 0
	}
	return cost
}
