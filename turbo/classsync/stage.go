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

	"github.com/erigontech/starknet-classsync/core/classdef"
	"github.com/erigontech/starknet-classsync/turbo/peersync"
)

// VerifyAndHash bridges the PeerFetcher's raw chunks into the HashedChunk
// shape DeclarationMatcher consumes: every RawClass in a chunk is parsed via
// LayoutVerifier and the resulting batch dispatched to the hash worker pool
// as one unit, preserving the chunk's peer tag throughout.
func VerifyAndHash(ctx context.Context, logger log.Logger, raw <-chan classdef.Tagged[peersync.Chunk], rawErrs <-chan error) (<-chan HashedChunk, <-chan error) {
	out := make(chan HashedChunk, 1)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		for {
			tagged, ok, err := peersync.WaitForChunk(ctx, logger, &raw, &rawErrs)
			if err != nil {
				if err != ctx.Err() {
					errc <- err
				}
				return
			}
			if !ok {
				return
			}

			parsedBatch := make([]classdef.ParsedClass, 0, len(tagged.Data.Classes))
			for _, rc := range tagged.Data.Classes {
				parsed, err := classdef.VerifyLayout(rc)
				if err != nil {
					logger.Debug("bad class layout", "peer", tagged.Peer, "block", rc.BlockNumber, "err", err)
					errc <- newErr(BadClassLayout, rc.BlockNumber, tagged.Peer, err)
					return
				}
				parsedBatch = append(parsedBatch, parsed)
			}

			hashed, err := HashBatch(ctx, ParsedBatch{Peer: tagged.Peer, Data: parsedBatch})
			if err != nil {
				errc <- err
				return
			}

			select {
			case out <- HashedChunk{Peer: tagged.Peer, Data: hashed}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errc
}
