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

	"github.com/erigontech/starknet-classsync/classstore"
	"github.com/erigontech/starknet-classsync/core/classdef"
)

// PersistStats tracks how many classes of each kind a Persister has written
// in committed batches, surfaced by the CLI's run-summary table; it has no
// bearing on commit semantics.
type PersistStats struct {
	LegacyWritten       int
	IntermediateWritten int
}

// Persister writes a non-empty batch of CompiledClass inside one database
// transaction, all or nothing.
type Persister struct {
	Store  classstore.Store
	Logger log.Logger
	Stats  PersistStats
}

// Persist writes every element of batch through a single classstore.WriteTxn.
// Intermediate classes require a pre-existing CompiledIdentifier mapping;
// its absence is a pipeline-invariant violation, not a peer fault, and fails
// the whole batch with MissingCompiledHashMapping. On any failure the
// transaction is rolled back and the function returns before committing.
func (p *Persister) Persist(ctx context.Context, batch []classdef.CompiledClass) (classdef.BlockNumber, error) {
	if len(batch) == 0 {
		panic("classsync: Persist called with an empty batch")
	}

	tx, err := p.Store.WriteTx(ctx)
	if err != nil {
		return 0, newErr(StorageError, batch[0].BlockNumber, "", err)
	}

	var highest classdef.BlockNumber
	var legacyWritten, intermediateWritten int
	for _, cc := range batch {
		if cc.BlockNumber > highest {
			highest = cc.BlockNumber
		}

		switch cc.Variant {
		case classdef.Legacy:
			if err := tx.UpsertLegacyClass(cc.Identifier, cc.Body.Legacy); err != nil {
				tx.Rollback()
				return 0, newErr(StorageError, cc.BlockNumber, "", err)
			}
			legacyWritten++

		case classdef.Intermediate:
			compiledID, ok, err := tx.CompiledIdentifierFor(cc.Identifier)
			if err != nil {
				tx.Rollback()
				return 0, newErr(StorageError, cc.BlockNumber, "", err)
			}
			if !ok {
				tx.Rollback()
				return 0, wrapf(MissingCompiledHashMapping, cc.BlockNumber, "", "no compiled-hash mapping for class %s", cc.Identifier)
			}
			if err := tx.UpsertIntermediateClass(cc.Identifier, cc.Body.SourceBytes, compiledID, cc.Body.CompiledBytes); err != nil {
				tx.Rollback()
				return 0, newErr(StorageError, cc.BlockNumber, "", err)
			}
			intermediateWritten++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, newErr(StorageError, highest, "", err)
	}
	p.Stats.LegacyWritten += legacyWritten
	p.Stats.IntermediateWritten += intermediateWritten
	p.Logger.Debug("persisted class batch", "count", len(batch), "highestBlock", highest)
	return highest, nil
}
