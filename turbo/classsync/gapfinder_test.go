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
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/kv"
	"github.com/erigontech/erigon-lib/kv/memdb"

	"github.com/erigontech/starknet-classsync/classstore"
	"github.com/erigontech/starknet-classsync/core/classdef"
)

// seedGap writes a BlockClassCount row claiming `claimed` declarations for
// block, but only ever writes one BlockDeclaredClasses row for it, so the
// block always looks incomplete unless claimed == 1.
func seedGap(t *testing.T, db kv.RwDB, block classdef.BlockNumber, claimed int) {
	t.Helper()
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		var countKey, countVal [8]byte
		binary.BigEndian.PutUint64(countKey[:], uint64(block))
		binary.BigEndian.PutUint64(countVal[:], uint64(claimed))
		if err := tx.Put(kv.BlockClassCount, countKey[:], countVal[:]); err != nil {
			return err
		}
		key := append(append([]byte{}, countKey[:]...), common.BytesToHash([]byte{1}).Bytes()...)
		return tx.Put(kv.BlockDeclaredClasses, key, nil)
	}))
}

func TestNextMissingFindsGapAtOrBelowHead(t *testing.T) {
	db := memdb.New(t)
	store := classstore.New(db)
	seedGap(t, db, 101, 2) // claims 2, only 1 row present

	block, ok, err := NextMissing(context.Background(), store, 200)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, classdef.BlockNumber(101), block)
}

func TestNextMissingAheadOfHeadIsIgnored(t *testing.T) {
	db := memdb.New(t)
	store := classstore.New(db)
	seedGap(t, db, 300, 2)

	_, ok, err := NextMissing(context.Background(), store, 50)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNextMissingAllSyncedReturnsFalse(t *testing.T) {
	db := memdb.New(t)
	store := classstore.New(db)
	seedGap(t, db, 100, 1) // claims 1, 1 row present: complete

	_, ok, err := NextMissing(context.Background(), store, 100)
	require.NoError(t, err)
	require.False(t, ok)
}
