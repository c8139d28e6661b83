package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/jmp1617/pyrip/internal/config"
	"github.com/jmp1617/pyrip/internal/harness"
	"github.com/jmp1617/pyrip/internal/harness/writer"
	"github.com/jmp1617/pyrip/internal/logger"
)

func main() {
	configPath := flag.String("config", "config/ripd.yaml", "path to the topology/tunables configuration used by every launched instance")
	binaryPath := flag.String("binary", "./ripd", "path to the built ripd binary")
	csvPath := flag.String("csv", "", "path to write the convergence report CSV; empty discards it")
	pollInterval := flag.Duration("poll", 500*time.Millisecond, "how often to sample each instance's printed table")
	stableRounds := flag.Int("stable-rounds", 3, "consecutive identical polls required to declare a router converged")
	timeout := flag.Duration("timeout", 60*time.Second, "overall run timeout")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %q: %v", *configPath, err)
	}
	if err := cfg.ValidateConfig(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	var w writer.Writer
	if *csvPath != "" {
		w, err = writer.NewCSVWriter(*csvPath)
		if err != nil {
			log.Fatalf("failed to open CSV writer: %v", err)
		}
	} else {
		w = writer.NopWriter{}
	}
	defer w.Close()

	lgr := &logger.NopLogger{}

	runner := harness.New(harness.Config{
		BinaryPath:   *binaryPath,
		ConfigPath:   *configPath,
		PollInterval: *pollInterval,
		StableRounds: *stableRounds,
		Timeout:      *timeout,
	}, cfg, lgr, w)

	ctx := context.Background()
	if err := runner.Launch(ctx); err != nil {
		log.Fatalf("failed to launch instances: %v", err)
	}
	defer runner.Stop()

	elapsed, err := runner.Wait(ctx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Fatalf("harness run failed: %v", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		log.Printf("timed out after %s waiting for convergence", elapsed)
		return
	}
	log.Printf("all routers converged after %s", elapsed)
}
