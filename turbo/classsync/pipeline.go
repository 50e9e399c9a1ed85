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

package classsync

import (
	"context"

	"github.com/erigontech/erigon-lib/log/v3"

	"github.com/erigontech/starknet-classsync/classstore"
	"github.com/erigontech/starknet-classsync/compiler"
	"github.com/erigontech/starknet-classsync/core/classdef"
	"github.com/erigontech/starknet-classsync/gateway"
	"github.com/erigontech/starknet-classsync/turbo/peersync"
)

// Range is the inclusive block range a Run call synchronises class
// definitions for.
type Range struct {
	Start classdef.BlockNumber
	Stop  classdef.BlockNumber
}

// DefaultBatchSize is the number of blocks CountStream/
// ExpectedDeclarationsStream read from storage per round-trip when the
// caller does not override it.
const DefaultBatchSize = 256

// Config gathers every collaborator and knob a pipeline run needs.
type Config struct {
	Store     classstore.Store
	Fetcher   peersync.Fetcher
	Gateway   gateway.Client
	Backend   compiler.Backend
	Logger    log.Logger
	BatchSize int
}

func (c Config) batchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return DefaultBatchSize
}

func (c Config) logger() log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Root()
}

// Run drives the pipeline stages after GapFinder over rng: it streams
// expectations and peer data, verifies layout, computes and matches
// identifiers, compiles, and persists — returning the highest block number
// whose classes were durably written. A cancelled ctx unwinds every stage
// cleanly: channels are abandoned, in-flight transactions roll back, and no
// goroutine outlives the call. Run does not search for gaps itself: rng is
// used as given (cmd/classsync bounds it with NextMissing beforehand).
func Run(ctx context.Context, rng Range, cfg Config) (classdef.BlockNumber, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := cfg.logger()
	batchSize := cfg.batchSize()

	expected, expErrs := ExpectedDeclarationsStream(ctx, cfg.Store, rng.Start, rng.Stop, batchSize)

	rawChunks, rawErrs := cfg.Fetcher.Fetch(ctx, peersync.NewRequest(rng.Start, rng.Stop))
	hashedChunks, hashErrs := VerifyAndHash(ctx, logger, rawChunks, rawErrs)

	matched, matchErrs := DeclarationMatcher(ctx, logger, expected, hashedChunks)

	comp := &Compiler{Backend: cfg.Backend, Gateway: cfg.Gateway, Logger: logger}
	pers := &Persister{Store: cfg.Store, Logger: logger}

	var (
		lastPersisted classdef.BlockNumber
		pipelineErr   error
		pending       []classdef.HashedClass
		pendingBlock  classdef.BlockNumber
		havePending   bool
	)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		compiled, err := comp.CompileBatch(ctx, pending)
		if err != nil {
			return err
		}
		persisted, err := pers.Persist(ctx, compiled)
		if err != nil {
			return err
		}
		if persisted > lastPersisted {
			lastPersisted = persisted
		}
		pending = pending[:0]
		return nil
	}

loop:
	for {
		select {
		case item, open := <-matched:
			if !open {
				matched = nil
				break
			}
			if havePending && item.Data.BlockNumber != pendingBlock {
				if err := flush(); err != nil {
					pipelineErr = err
					break loop
				}
			}
			pendingBlock = item.Data.BlockNumber
			havePending = true
			pending = append(pending, item.Data)

		case err, ok := <-expErrs:
			if !ok {
				expErrs = nil
				break
			}
			if err != nil {
				pipelineErr = err
				break loop
			}

		case err, ok := <-matchErrs:
			if !ok {
				matchErrs = nil
				break
			}
			if err != nil {
				pipelineErr = err
				break loop
			}

		case err, ok := <-hashErrs:
			if !ok {
				hashErrs = nil
				break
			}
			if err != nil {
				pipelineErr = err
				break loop
			}

		case <-ctx.Done():
			pipelineErr = ctx.Err()
			break loop
		}

		// matched closing only ends the run once every error channel has
		// also drained: all four channels close from goroutines racing
		// against each other, so matched reporting closed is not proof that
		// a same-cycle error on expErrs/matchErrs/hashErrs was not dropped
		// by select's pseudo-random case choice.
		if matched == nil && expErrs == nil && matchErrs == nil && hashErrs == nil {
			break
		}
	}

	if pipelineErr == nil {
		pipelineErr = flush()
	}

	return lastPersisted, pipelineErr
}
