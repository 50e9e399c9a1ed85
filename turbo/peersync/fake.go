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

package peersync

import (
	"context"

	"github.com/erigontech/starknet-classsync/core/classdef"
)

// Fake is a deterministic Fetcher for tests: it replays a fixed sequence of
// chunks (optionally pre-split into arbitrary sub-batches by the test, to
// exercise the Dechunker) regardless of the requested range.
type Fake struct {
	Peer   classdef.PeerTag
	Chunks []Chunk
	// Err, if set, is sent once after all chunks have been delivered.
	Err error
}

func (f *Fake) Fetch(ctx context.Context, _ Request) (<-chan classdef.Tagged[Chunk], <-chan error) {
	out := make(chan classdef.Tagged[Chunk], 1)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)
		for _, c := range f.Chunks {
			select {
			case out <- classdef.Tagged[Chunk]{Peer: f.Peer, Data: c}:
			case <-ctx.Done():
				return
			}
		}
		if f.Err != nil {
			errc <- f.Err
		}
	}()

	return out, errc
}

var _ Fetcher = (*Fake)(nil)
