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

// Package classstore is the Storage collaborator: it turns the
// BlockDeclaredClasses/BlockClassCount/*ClassDefinitions/CompiledClassHashes
// tables into the query surface the class-sync pipeline needs, backed by a
// kv.RwDB (mdbx in production, an in-memory mdbx environment in tests).
package classstore

import (
	"context"
	"encoding/binary"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/pkg/errors"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/kv"

	"github.com/erigontech/starknet-classsync/core/classdef"
)

// Store is the collaborator interface the pipeline stages depend on. It
// mirrors spec §6's Storage surface one to one.
type Store interface {
	ReadTx(ctx context.Context) (ReadTxn, error)
	WriteTx(ctx context.Context) (WriteTxn, error)
	FirstBlockWithMissingClassDefinitions(ctx context.Context) (classdef.BlockNumber, bool, error)
}

// ReadTxn is a read-only view used by CountStream and
// ExpectedDeclarationsStream.
type ReadTxn interface {
	DeclaredClassesCounts(start classdef.BlockNumber, batchSize int) ([]int, error)
	DeclaredClassesAt(block classdef.BlockNumber) ([]classdef.ClassIdentifier, bool, error)
	CompiledIdentifierFor(id classdef.ClassIdentifier) (classdef.CompiledIdentifier, bool, error)
	LegacyClassExists(id classdef.ClassIdentifier) (bool, error)
	Rollback()
}

// WriteTxn is the Persister's batch-commit handle: every element of a batch
// is written through the same WriteTxn and either all of them land, or none
// do.
type WriteTxn interface {
	CompiledIdentifierFor(id classdef.ClassIdentifier) (classdef.CompiledIdentifier, bool, error)
	UpsertLegacyClass(id classdef.ClassIdentifier, bytes []byte) error
	UpsertIntermediateClass(id classdef.ClassIdentifier, srcBytes []byte, compiledID classdef.CompiledIdentifier, compiledBytes []byte) error
	Commit() error
	Rollback()
}

// DB is the mdbx-backed Store implementation.
type DB struct {
	kv kv.RwDB
	// known is a cache of block numbers already confirmed fully declared,
	// so FirstBlockWithMissingClassDefinitions doesn't recount their
	// declaration rows on every call. It is conservative: a bit set here is a
	// fact, never a guess.
	known *roaring.Bitmap
}

func New(db kv.RwDB) *DB {
	return &DB{kv: db, known: roaring.New()}
}

func blockKey(b classdef.BlockNumber) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(b))
	return k[:]
}

func declKey(b classdef.BlockNumber, id classdef.ClassIdentifier) []byte {
	k := make([]byte, 8+common.HashLength)
	binary.BigEndian.PutUint64(k[:8], uint64(b))
	copy(k[8:], id.Bytes())
	return k
}

func (d *DB) ReadTx(ctx context.Context) (ReadTxn, error) {
	tx, err := d.kv.BeginRo(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "classstore: begin read tx")
	}
	return &readTx{tx: tx}, nil
}

func (d *DB) WriteTx(ctx context.Context) (WriteTxn, error) {
	tx, err := d.kv.BeginRw(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "classstore: begin write tx")
	}
	return &writeTx{tx: tx}, nil
}

// FirstBlockWithMissingClassDefinitions scans BlockClassCount against
// BlockDeclaredClasses from the first BlockClassCount row, skipping the
// row count for blocks already marked known in the bitmap cache, and
// advancing the cache as fully-declared blocks are confirmed.
func (d *DB) FirstBlockWithMissingClassDefinitions(ctx context.Context) (classdef.BlockNumber, bool, error) {
	tx, err := d.kv.BeginRo(ctx)
	if err != nil {
		return 0, false, errors.Wrap(err, "classstore: begin read tx")
	}
	defer tx.Rollback()

	var (
		found   classdef.BlockNumber
		hasGap  bool
		scanErr error
	)
	err = tx.ForEach(kv.BlockClassCount, nil, func(k, v []byte) (bool, error) {
		block := classdef.BlockNumber(binary.BigEndian.Uint64(k))
		if d.known.Contains(uint32(block)) {
			return true, nil
		}
		expected := binary.BigEndian.Uint64(v)
		actual, err := countDeclared(tx, block)
		if err != nil {
			scanErr = err
			return false, err
		}
		if uint64(actual) >= expected {
			d.known.Add(uint32(block))
			return true, nil
		}
		found = block
		hasGap = true
		return false, nil
	})
	if scanErr != nil {
		return 0, false, errors.Wrap(scanErr, "classstore: scan block class counts")
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "classstore: scan block class counts")
	}
	return found, hasGap, nil
}

func countDeclared(tx kv.Tx, block classdef.BlockNumber) (int, error) {
	prefix := blockKey(block)
	n := 0
	err := tx.ForEach(kv.BlockDeclaredClasses, prefix, func(k, _ []byte) (bool, error) {
		if len(k) < 8 || !sameBlock(k, prefix) {
			return false, nil
		}
		n++
		return true, nil
	})
	return n, err
}

func sameBlock(k, prefix []byte) bool {
	for i := 0; i < 8; i++ {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

type readTx struct {
	tx kv.Tx
}

func (r *readTx) Rollback() { r.tx.Rollback() }

func (r *readTx) DeclaredClassesCounts(start classdef.BlockNumber, batchSize int) ([]int, error) {
	counts := make([]int, 0, batchSize)
	prefix := blockKey(start)
	next := start
	err := r.tx.ForEach(kv.BlockClassCount, prefix, func(k, v []byte) (bool, error) {
		// counts[i] is the count of block start+i: a block with no count row
		// between two rows counts as zero.
		block := classdef.BlockNumber(binary.BigEndian.Uint64(k))
		for next < block && len(counts) < batchSize {
			counts = append(counts, 0)
			next++
		}
		if len(counts) >= batchSize {
			return false, nil
		}
		counts = append(counts, int(binary.BigEndian.Uint64(v)))
		next++
		return true, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "classstore: declared classes counts")
	}
	return counts, nil
}

func (r *readTx) DeclaredClassesAt(block classdef.BlockNumber) ([]classdef.ClassIdentifier, bool, error) {
	prefix := blockKey(block)
	var ids []classdef.ClassIdentifier
	err := r.tx.ForEach(kv.BlockDeclaredClasses, prefix, func(k, _ []byte) (bool, error) {
		if len(k) < 8+common.HashLength || !sameBlock(k, prefix) {
			return false, nil
		}
		ids = append(ids, common.BytesToHash(k[8:8+common.HashLength]))
		return true, nil
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "classstore: declared classes at block")
	}
	return ids, ids != nil, nil
}

func (r *readTx) CompiledIdentifierFor(id classdef.ClassIdentifier) (classdef.CompiledIdentifier, bool, error) {
	v, err := r.tx.GetOne(kv.CompiledClassHashes, id.Bytes())
	if err != nil {
		return classdef.CompiledIdentifier{}, false, errors.Wrap(err, "classstore: compiled identifier lookup")
	}
	if v == nil {
		return classdef.CompiledIdentifier{}, false, nil
	}
	return common.BytesToHash(v), true, nil
}

func (r *readTx) LegacyClassExists(id classdef.ClassIdentifier) (bool, error) {
	ok, err := r.tx.Has(kv.LegacyClassDefinitions, id.Bytes())
	if err != nil {
		return false, errors.Wrap(err, "classstore: legacy class lookup")
	}
	return ok, nil
}

type writeTx struct {
	tx kv.RwTx
}

func (w *writeTx) CompiledIdentifierFor(id classdef.ClassIdentifier) (classdef.CompiledIdentifier, bool, error) {
	v, err := w.tx.GetOne(kv.CompiledClassHashes, id.Bytes())
	if err != nil {
		return classdef.CompiledIdentifier{}, false, errors.Wrap(err, "classstore: compiled identifier lookup")
	}
	if v == nil {
		return classdef.CompiledIdentifier{}, false, nil
	}
	return common.BytesToHash(v), true, nil
}

func (w *writeTx) UpsertLegacyClass(id classdef.ClassIdentifier, bytes []byte) error {
	if err := w.tx.Put(kv.LegacyClassDefinitions, id.Bytes(), bytes); err != nil {
		return errors.Wrap(err, "classstore: upsert legacy class")
	}
	return nil
}

func (w *writeTx) UpsertIntermediateClass(id classdef.ClassIdentifier, srcBytes []byte, compiledID classdef.CompiledIdentifier, compiledBytes []byte) error {
	if err := w.tx.Put(kv.IntermediateClassDefinitions, id.Bytes(), srcBytes); err != nil {
		return errors.Wrap(err, "classstore: upsert intermediate source")
	}
	if err := w.tx.Put(kv.CompiledClassBodies, compiledID.Bytes(), compiledBytes); err != nil {
		return errors.Wrap(err, "classstore: upsert compiled body")
	}
	return nil
}

func (w *writeTx) Commit() error {
	if err := w.tx.Commit(); err != nil {
		return errors.Wrap(err, "classstore: commit")
	}
	return nil
}

func (w *writeTx) Rollback() { w.tx.Rollback() }

var _ Store = (*DB)(nil)
