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
	"github.com/erigontech/erigon-lib/log/v3"

	"github.com/erigontech/starknet-classsync/classstore"
	"github.com/erigontech/starknet-classsync/core/classdef"
)

func newTestStore(t *testing.T) classstore.Store {
	t.Helper()
	return classstore.New(memdb.New(t))
}

func TestPersisterLegacyUpsert(t *testing.T) {
	store := newTestStore(t)
	p := &Persister{Store: store, Logger: log.Root()}

	id := common.BytesToHash([]byte{7})
	batch := []classdef.CompiledClass{
		{BlockNumber: 100, Identifier: id, Variant: classdef.Legacy, Body: classdef.CompiledBody{Legacy: []byte("bytecode")}},
	}

	last, err := p.Persist(context.Background(), batch)
	require.NoError(t, err)
	require.Equal(t, classdef.BlockNumber(100), last)
	require.Equal(t, 1, p.Stats.LegacyWritten)
}

func TestPersisterMissingCompiledHashMapping(t *testing.T) {
	store := newTestStore(t)
	p := &Persister{Store: store, Logger: log.Root()}

	id := common.BytesToHash([]byte{8})
	batch := []classdef.CompiledClass{
		{BlockNumber: 200, Identifier: id, Variant: classdef.Intermediate, Body: classdef.CompiledBody{SourceBytes: []byte("src"), CompiledBytes: []byte("casm")}},
	}

	_, err := p.Persist(context.Background(), batch)
	require.Error(t, err)
	var serr *SyncError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, MissingCompiledHashMapping, serr.Kind)
	require.Zero(t, p.Stats.IntermediateWritten)
}

// TestPersisterAtomicBatchFailure is Property 7 / Scenario S6: if the
// Persister fails partway through a batch, nothing from that batch is
// durably written.
func TestPersisterAtomicBatchFailure(t *testing.T) {
	store := newTestStore(t)
	p := &Persister{Store: store, Logger: log.Root()}

	goodID := common.BytesToHash([]byte{1})
	badID := common.BytesToHash([]byte{2})
	batch := []classdef.CompiledClass{
		{BlockNumber: 100, Identifier: goodID, Variant: classdef.Legacy, Body: classdef.CompiledBody{Legacy: []byte("ok")}},
		{BlockNumber: 100, Identifier: badID, Variant: classdef.Intermediate, Body: classdef.CompiledBody{SourceBytes: []byte("src")}},
	}

	_, err := p.Persist(context.Background(), batch)
	require.Error(t, err)

	tx, err := store.ReadTx(context.Background())
	require.NoError(t, err)
	defer tx.Rollback()
	exists, err := tx.LegacyClassExists(goodID)
	require.NoError(t, err)
	require.False(t, exists) // the legacy row from the failed batch must not be visible either
}
