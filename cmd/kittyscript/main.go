// Command kittyscript runs a scenario script against a fresh chain and
// prints one line per extrinsic.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pixil98/go-kitties/internal/chain"
	"github.com/pixil98/go-kitties/internal/kitties"
	"github.com/pixil98/go-kitties/internal/script"
	"github.com/pixil98/go-kitties/internal/storage"
	"github.com/pixil98/go-kitties/internal/storage/sqlite"
)

func main() {
	var seedHex string
	var dbPath string

	flag.StringVar(&seedHex, "seed", "", "hex genesis seed (default: all zeros)")
	flag.StringVar(&dbPath, "sqlite", "", "run against a sqlite ledger file instead of memory")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: kittyscript [flags] <script>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout, flag.Arg(0), seedHex, dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, path, seedHex, dbPath string) error {
	s, err := script.ParseFile(path)
	if err != nil {
		return err
	}

	var seed kitties.Seed
	if seedHex != "" {
		seed, err = kitties.ParseSeed(seedHex)
		if err != nil {
			return err
		}
	}

	var ledger kitties.Ledger = storage.NewMemStore()
	if dbPath != "" {
		db, err := sqlite.Open(ctx, dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		ledger = db
	}

	c := chain.NewChain(ledger, kitties.NewPallet(kitties.Blake2Entropy{}), seed)

	results, runErr := script.Run(ctx, c, s)
	for _, r := range results {
		printReceipt(out, r)
	}
	if runErr != nil {
		return runErr
	}

	count, err := c.KittiesCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "kitties: %d\n", count)
	for id := kitties.KittyIndex(1); id <= count && id != 0; id++ {
		k, owner, ok, err := c.Kitty(ctx, id)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(out, "  #%d %s owner=%s\n", id, k.DNA, owner)
		}
	}

	return nil
}

func printReceipt(out io.Writer, r script.Result) {
	rc := r.Receipt
	outcome := "ok"
	if !rc.Success() {
		outcome = rc.Error
	}
	fmt.Fprintf(out, "line %d block %d #%d %s %s: %s", r.Line, rc.Block, rc.Index, rc.Caller, rc.Call, outcome)
	for _, e := range rc.Events {
		fmt.Fprintf(out, " [%s %d -> %s]", e.Kind, e.ID, e.To)
	}
	fmt.Fprintln(out)
}
