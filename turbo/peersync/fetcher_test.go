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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/erigon-lib/log/v3"

	"github.com/erigontech/starknet-classsync/core/classdef"
)

func TestWaitForChunkDrainsBothChannels(t *testing.T) {
	f := &Fake{
		Peer: "peer-x",
		Chunks: []Chunk{
			{BlockNumber: 1, Classes: []classdef.RawClass{{BlockNumber: 1}}},
			{BlockNumber: 2, Classes: []classdef.RawClass{{BlockNumber: 2}}},
		},
	}
	chunks, errs := f.Fetch(context.Background(), NewRequest(1, 2))

	var got []classdef.BlockNumber
	for {
		c, ok, err := WaitForChunk(context.Background(), log.Root(), &chunks, &errs)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, c.Data.BlockNumber)
	}
	require.Equal(t, []classdef.BlockNumber{1, 2}, got)
}

func TestWaitForChunkSurfacesTerminalError(t *testing.T) {
	wantErr := errors.New("peer disconnected")
	f := &Fake{Peer: "peer-y", Err: wantErr}
	chunks, errs := f.Fetch(context.Background(), NewRequest(1, 1))

	var sawErr error
	for {
		_, ok, err := WaitForChunk(context.Background(), log.Root(), &chunks, &errs)
		if err != nil {
			sawErr = err
			break
		}
		if !ok {
			break
		}
	}
	require.Equal(t, wantErr, sawErr)
}

func TestWaitForChunkStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &Fake{
		Peer: "peer-z",
		Chunks: []Chunk{
			{BlockNumber: 1, Classes: []classdef.RawClass{{BlockNumber: 1}}},
		},
	}
	chunks, errs := f.Fetch(context.Background(), NewRequest(1, 1))

	_, _, err := WaitForChunk(ctx, log.Root(), &chunks, &errs)
	require.Error(t, err)
	require.Equal(t, context.Canceled, err)
}
