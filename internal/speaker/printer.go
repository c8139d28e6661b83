package speaker

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jmp1617/pyrip/internal/logger"
	"github.com/jmp1617/pyrip/internal/routingtable"
)

const (
	colSubnetWidth  = 18
	colNextHopWidth = 19
	colCostWidth    = 17
)

// Printer periodically renders the routing table to an output writer. It
// is a pure observer: it never acquires the table for anything but a
// snapshot read (spec §4.4).
type Printer struct {
	table   *routingtable.RoutingTable
	out     io.Writer
	cadence time.Duration
	lgr     logger.Logger
}

// NewPrinter builds a Printer rendering to out every cadence.
func NewPrinter(table *routingtable.RoutingTable, out io.Writer, cadence time.Duration, lgr logger.Logger) *Printer {
	if lgr == nil {
		lgr = &logger.NopLogger{}
	}
	return &Printer{table: table, out: out, cadence: cadence, lgr: lgr.Named("printer")}
}

// Run renders the table forever on the configured cadence. It never
// returns.
func (p *Printer) Run() {
	ticker := time.NewTicker(p.cadence)
	defer ticker.Stop()
	for range ticker.C {
		p.render()
	}
}

func (p *Printer) render() {
	snap := p.table.Snapshot()
	fmt.Fprintln(p.out, border())
	fmt.Fprintln(p.out, row("subnet/maskbits", "next_hop", "cost"))
	fmt.Fprintln(p.out, border())
	for _, e := range snap {
		subnetCol := fmt.Sprintf("%s/%d", e.Subnet, e.MaskBits)
		fmt.Fprintln(p.out, row(subnetCol, e.NextHop, strconv.Itoa(e.Cost)))
	}
	fmt.Fprintln(p.out, border())
	p.table.DebugLog()
}

func border() string {
	return pad("", colSubnetWidth, '_') + pad("", colNextHopWidth, '_') + pad("", colCostWidth, '_')
}

func row(subnet, nextHop, cost string) string {
	return pad(subnet, colSubnetWidth, '_') + pad(nextHop, colNextHopWidth, '_') + pad(cost, colCostWidth, '_')
}

func pad(s string, width int, fill byte) string {
	if len(s) >= width {
		return s[:width]
	}
	out := make([]byte, width)
	copy(out, s)
	for i := len(s); i < width; i++ {
		out[i] = fill
	}
	return string(out)
}
