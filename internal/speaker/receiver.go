package speaker

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jmp1617/pyrip/internal/domain"
	"github.com/jmp1617/pyrip/internal/logger"
	"github.com/jmp1617/pyrip/internal/protocol"
	"github.com/jmp1617/pyrip/internal/routingtable"
)

// Receiver blocks on the shared socket, relaxes the routing table against
// each inbound advertisement, and refreshes neighbor liveness (spec §4.3).
type Receiver struct {
	table      *routingtable.RoutingTable
	sock       socket
	neighbors  map[string]string
	hopLimit   int
	selfSubnet string
	lgr        logger.Logger
}

// NewReceiver builds a Receiver. neighbors maps each configured
// direct-neighbor's bare IP address to its "host:port" socket address, so
// the Receiver can address a reply (poison reverse) back to it. selfSubnet is
// this router's own canonical subnet, exempt from every inbound advertisement
// per the self-route immunity law (spec §8).
func NewReceiver(table *routingtable.RoutingTable, sock socket, neighbors map[string]string, hopLimit int, selfSubnet string, lgr logger.Logger) *Receiver {
	if lgr == nil {
		lgr = &logger.NopLogger{}
	}
	return &Receiver{table: table, sock: sock, neighbors: neighbors, hopLimit: hopLimit, selfSubnet: selfSubnet, lgr: lgr.Named("receiver")}
}

// Run blocks reading datagrams forever. It never returns.
func (r *Receiver) Run() {
	for {
		payload, from, err := r.sock.Receive()
		if err != nil {
			// A read error on a connectionless socket is not expected to
			// be transient-per-datagram; log and keep trying.
			r.lgr.Warn("receive failed", logger.F("error", err.Error()))
			continue
		}
		r.handleDatagram(payload, from)
	}
}

func (r *Receiver) handleDatagram(payload []byte, from string) {
	_, span := tracer.Start(context.Background(), "ripd.receive")
	defer span.End()
	span.SetAttributes(attribute.String("ripd.sender", from))

	entries, err := protocol.Decode(payload)
	if err != nil {
		r.lgr.Warn("discarding malformed datagram", logger.F("from", from), logger.F("error", err.Error()))
		return
	}

	relaxed := 0
	for _, e := range entries {
		if r.relax(e, from) {
			relaxed++
		}
	}
	if _, ok := r.neighbors[from]; ok {
		r.table.ResetTTLByAddress(from)
	}
	span.SetAttributes(attribute.Int("ripd.relaxed_count", relaxed))
	r.lgr.Debug("datagram processed", logger.F("from", from), logger.F("entries", len(entries)), logger.F("relaxed", relaxed))
}

// relax applies one incoming entry to the table per the Bellman-Ford-style
// relaxation rule in spec §4.3. It reports whether the table changed.
func (r *Receiver) relax(e protocol.Entry, from string) bool {
	if e.Subnet == r.selfSubnet {
		return false
	}
	existing, ok := r.table.Lookup(e.Subnet)
	if !ok {
		newCost := e.Cost + 1
		if newCost > r.hopLimit {
			newCost = r.hopLimit
		}
		entry, err := domain.NewRouteEntry(e.Address, e.MaskBits, from, newCost, 0)
		if err != nil {
			r.lgr.Warn("rejecting entry with malformed address", logger.F("address", e.Address), logger.F("error", err.Error()))
			return false
		}
		r.table.Add(entry)
		return true
	}

	newCost := e.Cost + 1
	if e.Cost == r.hopLimit {
		newCost = r.hopLimit
	}
	if newCost > r.hopLimit {
		newCost = r.hopLimit
	}

	becomesPoisoned := newCost == r.hopLimit && existing.Cost != r.hopLimit
	if newCost < existing.Cost || newCost == r.hopLimit {
		if _, err := r.table.UpdateBySubnet(e.Subnet, e.Address, e.MaskBits, from, newCost); err != nil {
			r.lgr.Warn("failed to update entry", logger.F("subnet", e.Subnet), logger.F("error", err.Error()))
			return false
		}
		if becomesPoisoned {
			r.sendPoisonReverse(from)
		}
		return true
	}
	return false
}

// sendPoisonReverse immediately sends a full-table advertisement (no split
// horizon) back to the neighbor at bare address addr, accelerating
// convergence on a fresh withdrawal.
func (r *Receiver) sendPoisonReverse(addr string) {
	hostPort, ok := r.neighbors[addr]
	if !ok {
		r.lgr.Warn("cannot send poison-reverse, unknown neighbor address", logger.F("address", addr))
		return
	}
	payload, err := r.table.SerializeAll()
	if err != nil {
		r.lgr.Warn("failed to serialize poison-reverse burst", logger.F("error", err.Error()))
		return
	}
	if err := r.sock.SendTo(payload, hostPort); err != nil {
		r.lgr.Warn("failed to send poison-reverse burst", logger.F("to", hostPort), logger.F("error", err.Error()))
	}
}
