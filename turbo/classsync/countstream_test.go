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

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/kv/memdb"

	"github.com/erigontech/starknet-classsync/classstore"
	"github.com/erigontech/starknet-classsync/core/classdef"
)

func TestCountStreamCoversRangeAcrossBatches(t *testing.T) {
	db := memdb.New(t)
	store := classstore.New(db)
	seedExpected(t, db, 10, []classdef.ClassIdentifier{common.BytesToHash([]byte{1})})
	seedExpected(t, db, 11, nil)
	seedExpected(t, db, 12, []classdef.ClassIdentifier{common.BytesToHash([]byte{2}), common.BytesToHash([]byte{3})})

	// batchSize smaller than the range forces CountStream to re-open reads
	// across multiple rounds, exercising the cross-batch continuation path.
	out, errc := CountStream(context.Background(), store, 10, 12, 1)

	var items []CountItem
	for item := range out {
		items = append(items, item)
	}
	require.NoError(t, drainErr(errc))
	require.Equal(t, []CountItem{
		{Block: 10, Count: 1},
		{Block: 11, Count: 0},
		{Block: 12, Count: 2},
	}, items)
}

func TestCountStreamRespectsStop(t *testing.T) {
	db := memdb.New(t)
	store := classstore.New(db)
	seedExpected(t, db, 5, []classdef.ClassIdentifier{common.BytesToHash([]byte{1})})
	seedExpected(t, db, 6, []classdef.ClassIdentifier{common.BytesToHash([]byte{2})})

	out, errc := CountStream(context.Background(), store, 5, 5, 10)

	var items []CountItem
	for item := range out {
		items = append(items, item)
	}
	require.NoError(t, drainErr(errc))
	require.Equal(t, []CountItem{{Block: 5, Count: 1}}, items)
}

func drainErr(errc <-chan error) error {
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}
