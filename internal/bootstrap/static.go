// Package bootstrap resolves this process's router identity from a local
// address argument, seeds the routing table with the self-route, opens
// the shared UDP socket, and launches the Sender, Receiver, and Printer
// loops (spec §4.5). There is no graceful shutdown: Run blocks forever.
package bootstrap

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jmp1617/pyrip/internal/config"
	"github.com/jmp1617/pyrip/internal/domain"
	"github.com/jmp1617/pyrip/internal/logger"
	"github.com/jmp1617/pyrip/internal/routingtable"
	"github.com/jmp1617/pyrip/internal/speaker"
	"github.com/jmp1617/pyrip/internal/transport"
)

// Router is one fully-wired router process: its routing table, socket,
// and the three loops driving it.
type Router struct {
	Identity config.RouterConfig
	Table    *routingtable.RoutingTable
	Sock     *transport.Socket

	sender   *speaker.Sender
	receiver *speaker.Receiver
	printer  *speaker.Printer
}

// Resolve matches localAddr against cfg's configured router identities,
// per spec §4.5 and §6: fail fast (a non-nil error) if no identity
// matches.
func Resolve(cfg *config.Config, localAddr string) (config.RouterConfig, error) {
	if localAddr == "" {
		return config.RouterConfig{}, fmt.Errorf("bootstrap: a local address argument is required")
	}
	if r, ok := cfg.FindRouter(localAddr); ok {
		return r, nil
	}
	return config.RouterConfig{}, fmt.Errorf("bootstrap: no configured router identity matches local address %q", localAddr)
}

// New builds a Router for self: seeds the table with the self-route,
// binds the shared UDP socket, and wires the three loops. It does not
// start them — call Run for that.
func New(cfg *config.Config, self config.RouterConfig, lgr logger.Logger) (*Router, error) {
	if lgr == nil {
		lgr = &logger.NopLogger{}
	}

	table, err := routingtable.New(
		self.Address,
		cfg.Timers.SubnetBits,
		cfg.Timers.HopLimit,
		cfg.Timers.NeighborTTL,
		routingtable.WithLogger(lgr.Named("routingtable")),
	)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: seeding self-route: %w", err)
	}

	selfSubnet, err := domain.CanonicalSubnet(self.Address, cfg.Timers.SubnetBits)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: computing self subnet: %w", err)
	}

	sock, err := transport.Listen(self.Port)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: binding socket: %w", err)
	}

	neighborConfigs := make([]config.RouterConfig, 0, len(self.Neighbors))
	neighborAddrToHostPort := make(map[string]string, len(self.Neighbors))
	for _, hostPort := range self.Neighbors {
		n, ok := cfg.FindRouter(hostPort)
		if !ok {
			sock.Close()
			return nil, fmt.Errorf("bootstrap: neighbor %q is not a configured router", hostPort)
		}
		neighborConfigs = append(neighborConfigs, n)
		neighborAddrToHostPort[n.Address] = n.HostPort()
	}

	senderLgr := lgr
	if !cfg.Debug.Send {
		senderLgr = &logger.NopLogger{}
	}
	receiverLgr := lgr
	if !cfg.Debug.Recv {
		receiverLgr = &logger.NopLogger{}
	}
	printerLgr := lgr
	if !cfg.Debug.Print {
		printerLgr = &logger.NopLogger{}
	}

	sendCadence := time.Duration(cfg.Timers.SendCadenceSeconds) * time.Second
	printCadence := time.Duration(cfg.Timers.PrintCadenceSeconds) * time.Second

	return &Router{
		Identity: self,
		Table:    table,
		Sock:     sock,
		sender:   speaker.NewSender(table, sock, neighborConfigs, sendCadence, senderLgr),
		receiver: speaker.NewReceiver(table, sock, neighborAddrToHostPort, cfg.Timers.HopLimit, selfSubnet, receiverLgr),
		printer:  speaker.NewPrinter(table, os.Stdout, printCadence, printerLgr),
	}, nil
}

// Run starts the Sender, Receiver, and Printer loops and blocks forever.
// The process is expected to be terminated externally; there is no
// cancellation path.
func (r *Router) Run() {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); r.sender.Run() }()
	go func() { defer wg.Done(); r.receiver.Run() }()
	go func() { defer wg.Done(); r.printer.Run() }()
	wg.Wait()
}
