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
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/erigontech/starknet-classsync/core/classdef"
)

// ParsedBatch is one LayoutVerifier output batch awaiting hashing, all
// tagged with the peer that supplied it.
type ParsedBatch = classdef.Tagged[[]classdef.ParsedClass]

// HashBatch dispatches one batch of ParsedClass to the CPU worker pool,
// computing identifiers in parallel while preserving input order in the
// returned slice.
func HashBatch(ctx context.Context, batch ParsedBatch) ([]classdef.HashedClass, error) {
	out := make([]classdef.HashedClass, len(batch.Data))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, parsed := range batch.Data {
		i, parsed := i, parsed
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			hashed, err := classdef.ComputeHash(parsed)
			if err != nil {
				return newErr(ClassHashMismatch, parsed.BlockNumber, batch.Peer, err)
			}
			out[i] = hashed
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
