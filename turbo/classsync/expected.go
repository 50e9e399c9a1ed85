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

	"github.com/pkg/errors"

	"github.com/erigontech/starknet-classsync/classstore"
	"github.com/erigontech/starknet-classsync/core/classdef"
)

// ExpectedDeclarationsStream lazily yields the authoritative declared-class
// set for each non-empty block in [start, stop], skipping empty blocks
// entirely. A block whose count is non-zero but whose declared set cannot be
// read back is treated as MissingBlockHeader — a fatal, non-peer-attributable
// condition, since the header/count bookkeeping and the declaration rows
// disagree.
func ExpectedDeclarationsStream(ctx context.Context, store classstore.Store, start, stop classdef.BlockNumber, batchSize int) (<-chan classdef.ExpectedDeclarations, <-chan error) {
	counts, countErrs := CountStream(ctx, store, start, stop, batchSize)
	out := make(chan classdef.ExpectedDeclarations, 1)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		for item := range counts {
			if item.Count == 0 {
				continue
			}

			tx, err := store.ReadTx(ctx)
			if err != nil {
				errc <- newErr(StorageError, item.Block, "", errors.Wrap(err, "expected declarations: open read tx"))
				return
			}
			ids, ok, err := tx.DeclaredClassesAt(item.Block)
			tx.Rollback()
			if err != nil {
				errc <- newErr(StorageError, item.Block, "", errors.Wrap(err, "expected declarations: read block"))
				return
			}
			if !ok {
				errc <- wrapf(MissingBlockHeader, item.Block, "", "block %d has a declared-class count but no declaration rows", item.Block)
				return
			}

			select {
			case out <- classdef.NewExpectedDeclarations(item.Block, ids):
			case <-ctx.Done():
				return
			}
		}
		if err, ok := <-countErrs; ok && err != nil {
			errc <- err
		}
	}()

	return out, errc
}
