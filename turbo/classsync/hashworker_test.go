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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/starknet-classsync/core/classdef"
)

func TestHashBatchPreservesOrder(t *testing.T) {
	batch := ParsedBatch{Peer: "peer-a"}
	for i := 0; i < 50; i++ {
		batch.Data = append(batch.Data, classdef.ParsedClass{
			BlockNumber: classdef.BlockNumber(i),
			Variant:     classdef.Legacy,
			Legacy:      &classdef.LegacyLayout{ABI: []byte{byte(i)}},
		})
	}

	out, err := HashBatch(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, out, 50)
	for i, hc := range out {
		require.Equal(t, classdef.BlockNumber(i), hc.BlockNumber)
	}
}

func TestHashBatchSurfacesMissingLayout(t *testing.T) {
	batch := ParsedBatch{Peer: "peer-a", Data: []classdef.ParsedClass{
		{BlockNumber: 1, Variant: classdef.Legacy},
	}}
	_, err := HashBatch(context.Background(), batch)
	require.Error(t, err)
	var serr *SyncError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, ClassHashMismatch, serr.Kind)
	require.Equal(t, classdef.PeerTag("peer-a"), serr.Peer)
}
