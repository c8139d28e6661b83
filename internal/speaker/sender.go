// Package speaker implements the three cooperating control flows that
// drive convergence: Sender, Receiver, and Printer. Each is grounded on
// the same shared RoutingTable and Socket, and each runs forever — the
// daemon has no graceful shutdown.
package speaker

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jmp1617/pyrip/internal/config"
	"github.com/jmp1617/pyrip/internal/logger"
	"github.com/jmp1617/pyrip/internal/routingtable"
	"github.com/jmp1617/pyrip/internal/transport"
)

var tracer = otel.Tracer("ripd")

// Sender periodically broadcasts per-neighbor advertisements with split
// horizon, then performs the TTL decay pass (spec §4.2).
type Sender struct {
	table     *routingtable.RoutingTable
	sock      socket
	neighbors []config.RouterConfig
	cadence   time.Duration
	lgr       logger.Logger
}

// NewSender builds a Sender broadcasting to neighbors every cadence.
func NewSender(table *routingtable.RoutingTable, sock *transport.Socket, neighbors []config.RouterConfig, cadence time.Duration, lgr logger.Logger) *Sender {
	if lgr == nil {
		lgr = &logger.NopLogger{}
	}
	return &Sender{table: table, sock: sock, neighbors: neighbors, cadence: cadence, lgr: lgr.Named("sender")}
}

// Run broadcasts forever on the configured cadence. It never returns.
func (s *Sender) Run() {
	ticker := time.NewTicker(s.cadence)
	defer ticker.Stop()
	for range ticker.C {
		s.cycle()
	}
}

func (s *Sender) cycle() {
	_, span := tracer.Start(context.Background(), "ripd.broadcast")
	defer span.End()

	neighborAddrs := make(map[string]bool, len(s.neighbors))
	for _, n := range s.neighbors {
		neighborAddrs[n.Address] = true
	}

	for _, n := range s.neighbors {
		payload, err := s.table.SerializeExcluding(n.Address)
		if err != nil {
			s.lgr.Warn("failed to serialize table", logger.F("neighbor", n.Name), logger.F("error", err.Error()))
			continue
		}
		if err := s.sock.SendTo(payload, n.HostPort()); err != nil {
			// Transport errors on send are logged, never fatal: the next
			// cycle retries.
			s.lgr.Warn("failed to send advertisement", logger.F("neighbor", n.Name), logger.F("error", err.Error()))
			continue
		}
		s.lgr.Debug("advertisement sent", logger.F("neighbor", n.Name), logger.F("bytes", len(payload)))
	}

	poisoned := s.table.DecayTTL(neighborAddrs)
	span.SetAttributes(
		attribute.Int("ripd.neighbor_count", len(s.neighbors)),
		attribute.Int("ripd.poisoned_count", len(poisoned)),
	)
	for _, subnet := range poisoned {
		s.lgr.Info("neighbor declared dead", logger.F("subnet", subnet))
	}
}
