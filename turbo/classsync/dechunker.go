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
)

// HashedChunk is one non-empty batch of HashedClass values sharing a block
// number, tagged with the peer that supplied it.
type HashedChunk = classdef.Tagged[[]classdef.HashedClass]

// dechunker converts a channel of non-empty HashedChunk batches into a
// channel of individual classdef.Tagged[classdef.HashedClass] items,
// preserving arrival order. Batches may span a block boundary only in the
// sense that a block's classes may arrive split across several consecutive
// batches; the dechunker itself is agnostic to block numbers.
type dechunker struct {
	in  <-chan HashedChunk
	ctx context.Context
	q   []classdef.Tagged[classdef.HashedClass]
}

func newDechunker(ctx context.Context, in <-chan HashedChunk) *dechunker {
	return &dechunker{ctx: ctx, in: in}
}

// next returns the next item, or ok=false once in is exhausted (or ctx is
// cancelled).
func (d *dechunker) next() (classdef.Tagged[classdef.HashedClass], bool) {
	if len(d.q) > 0 {
		item := d.q[0]
		d.q = d.q[1:]
		return item, true
	}
	select {
	case chunk, open := <-d.in:
		if !open {
			return classdef.Tagged[classdef.HashedClass]{}, false
		}
		for _, c := range chunk.Data {
			d.q = append(d.q, classdef.Tagged[classdef.HashedClass]{Peer: chunk.Peer, Data: c})
		}
		if len(d.q) == 0 {
			// Precondition violation: an empty batch. Treat as exhausted
			// rather than spin.
			return classdef.Tagged[classdef.HashedClass]{}, false
		}
		item := d.q[0]
		d.q = d.q[1:]
		return item, true
	case <-d.ctx.Done():
		return classdef.Tagged[classdef.HashedClass]{}, false
	}
}

// cursor holds the currently-active expected entry the matcher is working
// through.
type cursor struct {
	block     classdef.BlockNumber
	remaining map[classdef.ClassIdentifier]struct{}
	valid     bool
}

// DeclarationMatcher aligns the hash-verified class stream in from against
// the expectation stream expected, emitting only classes it can prove were
// declared at the block their element states. It terminates normally when
// either input is exhausted; it terminates with an error the moment it
// observes a class that cannot be matched against the active expectation.
func DeclarationMatcher(ctx context.Context, logger log.Logger, expected <-chan classdef.ExpectedDeclarations, in <-chan HashedChunk) (<-chan classdef.Tagged[classdef.HashedClass], <-chan error) {
	out := make(chan classdef.Tagged[classdef.HashedClass], 1)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		dc := newDechunker(ctx, in)
		var cur cursor

		for {
			for !cur.valid || len(cur.remaining) == 0 {
				select {
				case e, open := <-expected:
					if !open {
						return
					}
					cur = cursor{block: e.BlockNumber, remaining: e.Classes, valid: true}
				case <-ctx.Done():
					return
				}
			}

			item, ok := dc.next()
			if !ok {
				return
			}

			if item.Data.BlockNumber != cur.block {
				logger.Debug("unexpected class: block mismatch", "peer", item.Peer, "gotBlock", item.Data.BlockNumber, "wantBlock", cur.block, "identifier", item.Data.Identifier)
				errc <- newErr(UnexpectedClass, item.Data.BlockNumber, item.Peer, nil)
				return
			}

			if _, declared := cur.remaining[item.Data.Identifier]; !declared {
				logger.Debug("unexpected class: not in expected set", "peer", item.Peer, "block", item.Data.BlockNumber, "identifier", item.Data.Identifier)
				errc <- newErr(UnexpectedClass, item.Data.BlockNumber, item.Peer, nil)
				return
			}
			delete(cur.remaining, item.Data.Identifier)

			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errc
}
