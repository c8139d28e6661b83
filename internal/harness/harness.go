// Package harness runs a full static mesh as subprocesses on the local host
// (one per configured router, each given its configured address) and
// measures convergence, grounded on the teacher's internal/client/tester
// package: the same subprocess/poll/CSV shape, aimed at ripd instances
// instead of DHT nodes.
package harness

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"reflect"
	"sort"
	"time"

	"github.com/jmp1617/pyrip/internal/config"
	"github.com/jmp1617/pyrip/internal/harness/writer"
	"github.com/jmp1617/pyrip/internal/logger"
)

// Config controls one harness run.
type Config struct {
	// BinaryPath is the ripd executable to launch, one subprocess per
	// configured router.
	BinaryPath string
	// ConfigPath is the topology/tunables YAML passed to every instance.
	ConfigPath string
	// PollInterval is how often the harness samples each instance's
	// printed table while waiting for convergence.
	PollInterval time.Duration
	// StableRounds is how many consecutive identical polls constitute
	// convergence for a single router.
	StableRounds int
	// Timeout bounds the whole run; convergence not reached by then is
	// reported as such per router.
	Timeout time.Duration
}

type instance struct {
	router  config.RouterConfig
	cmd     *exec.Cmd
	scanner *TableScanner
}

// Runner launches and monitors one harness run.
type Runner struct {
	cfg   Config
	lgr   logger.Logger
	w     writer.Writer
	topo  *config.Config
	insts []*instance
}

// New builds a Runner for the given static topology.
func New(cfg Config, topo *config.Config, lgr logger.Logger, w writer.Writer) *Runner {
	if lgr == nil {
		lgr = &logger.NopLogger{}
	}
	if w == nil {
		w = writer.NopWriter{}
	}
	return &Runner{cfg: cfg, lgr: lgr.Named("harness"), w: w, topo: topo}
}

// Launch starts one ripd subprocess per configured router, each scanning
// its own stdout for completed table renders.
func (r *Runner) Launch(ctx context.Context) error {
	for _, router := range r.topo.Routers {
		cmd := exec.CommandContext(ctx, r.cfg.BinaryPath, "-config", r.cfg.ConfigPath, router.Address)
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return fmt.Errorf("harness: stdout pipe for %s: %w", router.Name, err)
		}
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("harness: start %s: %w", router.Name, err)
		}

		inst := &instance{router: router, cmd: cmd, scanner: &TableScanner{}}
		r.insts = append(r.insts, inst)

		go func(inst *instance, stdout *bufio.Scanner) {
			for stdout.Scan() {
				inst.scanner.Feed(stdout.Text())
			}
		}(inst, bufio.NewScanner(stdout))

		r.lgr.Info("launched router instance", logger.F("router", router.Name), logger.F("pid", cmd.Process.Pid))
	}
	return nil
}

// Wait polls every instance until each has held a stable snapshot for
// StableRounds consecutive polls, or Timeout elapses, then writes one CSV
// row per router. It reports the elapsed time of the slowest router to
// converge.
func (r *Runner) Wait(ctx context.Context) (time.Duration, error) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	stableCount := make(map[string]int, len(r.insts))
	converged := make(map[string]bool, len(r.insts))
	convergedAt := make(map[string]time.Duration, len(r.insts))
	prev := make(map[string][]Entry, len(r.insts))

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for len(converged) < len(r.insts) {
		select {
		case <-ctx.Done():
			r.lgr.Warn("harness timed out before all routers converged",
				logger.F("converged", len(converged)), logger.F("total", len(r.insts)))
			r.writeResults(converged, convergedAt)
			return time.Since(started), ctx.Err()
		case <-ticker.C:
			for _, inst := range r.insts {
				name := inst.router.Name
				if converged[name] {
					continue
				}
				snap := inst.scanner.Latest()
				if snap == nil {
					continue
				}
				if sameSnapshot(prev[name], snap) {
					stableCount[name]++
				} else {
					stableCount[name] = 1
					prev[name] = snap
				}
				if stableCount[name] >= r.cfg.StableRounds {
					converged[name] = true
					convergedAt[name] = time.Since(started)
					r.lgr.Info("router converged", logger.F("router", name), logger.F("elapsed", convergedAt[name]))
				}
			}
		}
	}

	r.writeResults(converged, convergedAt)
	return time.Since(started), nil
}

func (r *Runner) writeResults(converged map[string]bool, convergedAt map[string]time.Duration) {
	for _, inst := range r.insts {
		name := inst.router.Name
		ok := converged[name]
		elapsed := convergedAt[name]
		if err := r.w.WriteRow(name, ok, elapsed); err != nil {
			r.lgr.Warn("failed to write csv row", logger.F("router", name), logger.F("error", err.Error()))
		}
	}
}

// Stop terminates every launched subprocess.
func (r *Runner) Stop() {
	for _, inst := range r.insts {
		if inst.cmd.Process != nil {
			_ = inst.cmd.Process.Kill()
		}
	}
}

func sameSnapshot(a, b []Entry) bool {
	if a == nil || len(a) != len(b) {
		return false
	}
	sortEntries(a)
	sortEntries(b)
	return reflect.DeepEqual(a, b)
}

func sortEntries(e []Entry) {
	sort.Slice(e, func(i, j int) bool { return e[i].Subnet < e[j].Subnet })
}
