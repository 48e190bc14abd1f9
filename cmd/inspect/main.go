// inspect is an operator CLI that opens a ledger store directly and
// dumps attention logs, token trees, or maintenance snapshots. Do not
// point it at a store a live server has open.
package main

import (
	"flag"
	"fmt"
	"os"

	"reciprodb/pkg/blessing"
	"reciprodb/pkg/ledger"
	"reciprodb/pkg/logger"
	"reciprodb/pkg/state"
	"reciprodb/pkg/store"
	"reciprodb/pkg/timeutil"
	"reciprodb/pkg/tokentree"
)

func main() {
	var (
		dbPath  = flag.String("db", "", "ledger root (as passed to the server --db flag)")
		userID  = flag.String("user", "", "dump this user's attention log")
		tokenID = flag.String("token", "", "dump this token's tree")
		stats   = flag.Bool("stats", false, "dump maintenance snapshots")
	)
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "--db required")
		os.Exit(2)
	}
	logger.Init()
	if err := store.Open(state.StorePath(*dbPath)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case *userID != "":
		dumpUser(*userID)
	case *tokenID != "":
		dumpToken(*tokenID)
	case *stats:
		dumpStats()
	default:
		fmt.Fprintln(os.Stderr, "one of --user, --token, --stats required")
		os.Exit(2)
	}
}

func dumpUser(userID string) {
	evs, err := ledger.Events(userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list events: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("attention log for %s (%d events)\n", userID, len(evs))
	for _, ev := range evs {
		d, derr := ledger.DurationAt(userID, ev.Index, 0)
		dur := "?"
		if derr == nil {
			dur = timeutil.HumanDuration(d)
		}
		status := ""
		if b, berr := blessing.ByIndex(userID, ev.Index); berr == nil {
			status = b.Status
		}
		fmt.Printf("  [%4d] ts=%d intention=%s status=%s duration=%s\n", ev.Index, ev.TS, ev.IntentionID, status, dur)
	}
}

func dumpToken(tokenID string) {
	ids, err := tokentree.Flatten(tokenID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to flatten tree: %v\n", err)
		os.Exit(1)
	}
	d, err := tokentree.TreeDuration(tokenID, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to compute tree duration: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("tree rooted at %s: %d nodes, %s total\n", tokenID, len(ids), timeutil.HumanDuration(d))
	for _, id := range ids {
		fmt.Printf("  %s\n", id)
	}
}

func dumpStats() {
	snaps, err := store.ListStatsSnapshots(0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list snapshots: %v\n", err)
		os.Exit(1)
	}
	for _, s := range snaps {
		fmt.Printf("ts=%d blessings=%d intentions=%d tokens=%d proofs=%d offerings=%d disk=%d\n",
			s.TS, s.Usage.Blessings, s.Usage.Intentions, s.Usage.Tokens, s.Usage.Proofs, s.Usage.Offerings, s.Usage.DiskBytes)
	}
}
