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

// Package peersync is the PeerTransport collaborator: it turns peer network
// I/O into a channel of peer-tagged, non-empty class-definition chunks, the
// same request/stream shape turbo/snapshotsync uses for torrent downloads
// translated to the P2P class-sync protocol.
package peersync

import (
	"context"

	"github.com/erigontech/erigon-lib/log/v3"

	"github.com/erigontech/starknet-classsync/core/classdef"
)

// Chunk is a non-empty sequence of RawClass items all declared at the same
// block, exactly as received from one peer in one network message.
type Chunk struct {
	BlockNumber classdef.BlockNumber
	Classes     []classdef.RawClass
}

// Request describes one range of blocks to fetch class definitions for,
// mirroring the shape turbo/snapshotsync's DownloadRequest gives torrent
// fetches: a small, serialisable unit of work handed to the transport.
type Request struct {
	Start classdef.BlockNumber
	Stop  classdef.BlockNumber
}

func NewRequest(start, stop classdef.BlockNumber) Request {
	return Request{Start: start, Stop: stop}
}

// Fetcher streams class-definition chunks for a requested range from
// whichever peers have them. Chunk boundaries are the transport's own
// framing and carry no logical meaning the caller should rely on beyond
// "non-empty, single block number" — see classsync's Dechunker.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (<-chan classdef.Tagged[Chunk], <-chan error)
}

// logPrefix tags every log line from the fetch loop with a short, greppable
// prefix.
const logPrefix = "classsync-fetch"

// WaitForChunk blocks until either a chunk arrives, the error channel
// produces a terminal error, or ctx is cancelled. It is the single blocking
// primitive classsync's VerifyAndHash uses to drive a Fetcher without hand-rolling the
// select at every call site — the same "one blocking call wraps a streaming
// collaborator" shape as turbo/snapshotsync's WaitForDownloader.
//
// chunks and errs are passed by pointer so WaitForChunk can nil out whichever
// side closes first across calls: both channels are drained by the same
// producer goroutine closing them together, so a naive single select could
// otherwise observe one side's close and discard a chunk still buffered on
// the other. The caller loops on WaitForChunk until it reports ok=false with
// a nil error, which means both channels are now exhausted.
func WaitForChunk(ctx context.Context, logger log.Logger, chunks *<-chan classdef.Tagged[Chunk], errs *<-chan error) (classdef.Tagged[Chunk], bool, error) {
	for {
		// Cancellation takes precedence over data already buffered on
		// either channel.
		if err := ctx.Err(); err != nil {
			return classdef.Tagged[Chunk]{}, false, err
		}
		if *chunks == nil && *errs == nil {
			return classdef.Tagged[Chunk]{}, false, nil
		}
		select {
		case c, open := <-*chunks:
			if !open {
				*chunks = nil
				continue
			}
			return c, true, nil
		case err, open := <-*errs:
			if !open {
				*errs = nil
				continue
			}
			if err == nil {
				continue
			}
			logger.Warn(logPrefix+": fetch error", "err", err)
			return classdef.Tagged[Chunk]{}, false, err
		case <-ctx.Done():
			return classdef.Tagged[Chunk]{}, false, ctx.Err()
		}
	}
}
