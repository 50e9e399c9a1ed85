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

// CountItem is one element of the CountStream: the declared-class count for
// a single block.
type CountItem struct {
	Block classdef.BlockNumber
	Count int
}

// CountStream lazily yields per-block declared-class counts over [start,
// stop], reading from storage in batches of batchSize. It closes the
// returned channel on completion, on ctx cancellation, or on the first
// storage error (sent once, then the channel closes).
func CountStream(ctx context.Context, store classstore.Store, start, stop classdef.BlockNumber, batchSize int) (<-chan CountItem, <-chan error) {
	out := make(chan CountItem, 1)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		block := start
		for block <= stop {
			select {
			case <-ctx.Done():
				return
			default:
			}

			tx, err := store.ReadTx(ctx)
			if err != nil {
				errc <- newErr(StorageError, block, "", errors.Wrap(err, "count stream: open read tx"))
				return
			}
			counts, err := tx.DeclaredClassesCounts(block, batchSize)
			tx.Rollback()
			if err != nil {
				errc <- newErr(StorageError, block, "", errors.Wrap(err, "count stream: read batch"))
				return
			}
			if len(counts) == 0 {
				return
			}
			for _, c := range counts {
				if block > stop {
					return
				}
				select {
				case out <- CountItem{Block: block, Count: c}:
				case <-ctx.Done():
					return
				}
				block++
			}
		}
	}()

	return out, errc
}
