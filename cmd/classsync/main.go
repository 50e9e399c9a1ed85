// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/urfave/cli/v2"

	"github.com/erigontech/erigon-lib/kv/mdbx"
	"github.com/erigontech/erigon-lib/log/v3"

	"github.com/erigontech/starknet-classsync/classstore"
	"github.com/erigontech/starknet-classsync/compiler"
	"github.com/erigontech/starknet-classsync/core/classdef"
	"github.com/erigontech/starknet-classsync/gateway"
	"github.com/erigontech/starknet-classsync/turbo/classsync"
	"github.com/erigontech/starknet-classsync/turbo/peersync"
)

var (
	flagDatadir = &cli.StringFlag{
		Name:     "datadir",
		Usage:    "path to the class-sync mdbx database",
		Required: true,
	}
	flagGateway = &cli.StringFlag{
		Name:  "gateway-url",
		Usage: "base URL of the compiled-class fallback gateway",
		Value: "https://alpha-mainnet.starknet.io",
	}
	flagStart = &cli.Uint64Flag{
		Name:  "start",
		Usage: "first block number to sync",
	}
	flagStop = &cli.Uint64Flag{
		Name:     "stop",
		Usage:    "last block number to sync (inclusive)",
		Required: true,
	}
	flagMapSize = &cli.StringFlag{
		Name:  "map-size",
		Usage: "mdbx map size, e.g. 16GB",
		Value: "16GB",
	}
	flagDumpGraph = &cli.BoolFlag{
		Name:  "dump-graph",
		Usage: "print the pipeline's Graphviz DAG and exit",
	}
)

func main() {
	app := &cli.App{
		Name:  "classsync",
		Usage: "sync Starknet class definitions from peers into a local database",
		Flags: []cli.Flag{flagDatadir, flagGateway, flagStart, flagStop, flagMapSize, flagDumpGraph},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Root().Error("classsync: fatal", "err", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool(flagDumpGraph.Name) {
		fmt.Println(classsync.Graph())
		return nil
	}

	logger := log.New()

	var mapSize datasize.ByteSize
	if err := mapSize.UnmarshalText([]byte(c.String(flagMapSize.Name))); err != nil {
		return fmt.Errorf("classsync: invalid --map-size: %w", err)
	}

	db, err := mdbx.Open(mdbx.Opts{Path: c.String(flagDatadir.Name), MapSize: mapSize})
	if err != nil {
		return fmt.Errorf("classsync: open database: %w", err)
	}
	defer db.Close()

	store := classstore.New(db)

	gw, err := gateway.New(c.String(flagGateway.Name), gateway.DefaultHTTPClient())
	if err != nil {
		return fmt.Errorf("classsync: construct gateway client: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stop := classdef.BlockNumber(c.Uint64(flagStop.Name))
	start := classdef.BlockNumber(c.Uint64(flagStart.Name))

	// GapFinder bounds the work range: unless the operator pinned an
	// explicit --start, resume from the first block at or below --stop
	// whose class definitions are incomplete, rather than blindly re-walking
	// from genesis (or from 0) every run.
	if !c.IsSet(flagStart.Name) {
		gap, ok, err := classsync.NextMissing(ctx, store, stop)
		if err != nil {
			return fmt.Errorf("classsync: find sync gap: %w", err)
		}
		if !ok {
			fmt.Println(classsync.Summary{Range: classsync.Range{Start: stop, Stop: stop}, LastPersisted: stop}.Render())
			return nil
		}
		start = gap
	}

	rng := classsync.Range{Start: start, Stop: stop}

	// A production build injects the node's libp2p-backed Fetcher here; this
	// standalone binary has no P2P host of its own, so it runs against an
	// empty Fake, which completes immediately with nothing persisted.
	fetcher := &peersync.Fake{}

	runStart := time.Now()
	lastPersisted, runErr := classsync.Run(ctx, rng, classsync.Config{
		Store:   store,
		Fetcher: fetcher,
		Gateway: gw,
		Backend: compiler.Unavailable{},
		Logger:  logger,
	})

	summary := classsync.Summary{
		Range:         rng,
		LastPersisted: lastPersisted,
		Elapsed:       time.Since(runStart),
		Err:           runErr,
	}
	fmt.Println(summary.Render())

	return runErr
}
