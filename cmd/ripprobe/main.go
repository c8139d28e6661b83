// Command ripprobe is a manual wire-protocol testing aid, grounded on the
// teacher's cmd/client interactive REPL: it opens a UDP socket, lets an
// operator hand-build an advertisement and send it to a router, or listen
// for the next datagram a router broadcasts and print it decoded. It
// implements no relaxation logic and never mutates a running router's
// table — it is a probe, not a peer.
package main

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jmp1617/pyrip/internal/domain"
	"github.com/jmp1617/pyrip/internal/protocol"
	"github.com/jmp1617/pyrip/internal/transport"
)

func main() {
	port := flag.Int("port", 6000, "local UDP port to bind the probe on")
	target := flag.String("target", "", "default target router address (host:port)")
	flag.Parse()

	sock, err := transport.Listen(*port)
	if err != nil {
		fmt.Printf("failed to bind probe socket on port %d: %v\n", *port, err)
		return
	}
	defer sock.Close()

	currentTarget := *target
	fmt.Printf("ripd wire-protocol probe. Bound on UDP port %d.\n", *port)
	fmt.Println("Available commands: send/listen/use/exit")

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt(fmt.Sprintf("ripprobe[%s]> ", currentTarget))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println("Aborted")
				continue
			}
			break
		}
		line.AppendHistory(input)

		args := strings.Fields(strings.TrimSpace(input))
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "send":
			if currentTarget == "" {
				fmt.Println("No target set. Usage: use <host:port>")
				continue
			}
			if len(args) < 5 {
				fmt.Println("Usage: send <subnet> <mask_bits> <next_hop> <cost>")
				continue
			}
			maskBits, err := strconv.Atoi(args[2])
			if err != nil {
				fmt.Printf("invalid mask_bits: %v\n", err)
				continue
			}
			cost, err := strconv.Atoi(args[4])
			if err != nil {
				fmt.Printf("invalid cost: %v\n", err)
				continue
			}
			entry, err := domain.NewRouteEntry(args[1], maskBits, args[3], cost, 0)
			if err != nil {
				fmt.Printf("invalid entry: %v\n", err)
				continue
			}
			payload, err := protocol.Encode([]domain.RouteEntry{entry})
			if err != nil {
				fmt.Printf("failed to encode: %v\n", err)
				continue
			}
			if err := sock.SendTo(payload, currentTarget); err != nil {
				fmt.Printf("send failed: %v\n", err)
				continue
			}
			fmt.Printf("sent %d bytes to %s\n", len(payload), currentTarget)

		case "listen":
			fmt.Println("Waiting for one datagram (Ctrl-C to abort)...")
			payload, from, err := sock.Receive()
			if err != nil {
				fmt.Printf("receive failed: %v\n", err)
				continue
			}
			entries, err := protocol.Decode(payload)
			if err != nil {
				fmt.Printf("received malformed datagram from %s: %v\n", from, err)
				continue
			}
			fmt.Printf("received %d entries from %s:\n", len(entries), from)
			for _, e := range entries {
				fmt.Printf("  subnet=%s/%d next_hop=%s cost=%d\n", e.Subnet, e.MaskBits, e.NextHop, e.Cost)
			}

		case "use":
			if len(args) < 2 {
				fmt.Println("Usage: use <host:port>")
				continue
			}
			currentTarget = args[1]
			fmt.Printf("Target set to %s\n", currentTarget)

		case "exit", "quit":
			fmt.Println("Bye!")
			return

		default:
			fmt.Printf("Unknown command: %s\n", args[0])
		}
	}
}
