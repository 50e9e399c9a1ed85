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

// Package kv is the transactional key/value storage abstraction every
// blocking stage of the sync pipeline talks through. It mirrors the shape of
// Erigon's own kv package (Tx/RwTx carved out of a single RwDB, one
// connection borrowed per transaction) but is trimmed to the handful of
// tables the class-sync pipeline actually touches.
package kv

import "context"

// Getter is the read-only half of a transaction.
type Getter interface {
	GetOne(table string, key []byte) ([]byte, error)
	Has(table string, key []byte) (bool, error)
	// ForEach walks table in key order starting at fromKey (or from the
	// beginning if fromKey is nil), invoking walker for each pair. Walking
	// stops early if walker returns false or a non-nil error.
	ForEach(table string, fromKey []byte, walker func(k, v []byte) (bool, error)) error
}

// Putter is the mutating half of a transaction.
type Putter interface {
	Put(table string, key, value []byte) error
	Delete(table string, key []byte) error
}

// Tx is a read-only transaction. It must be closed (Rollback, which is a
// cheap no-op for a read-only mdbx transaction) by whoever opened it.
type Tx interface {
	Getter
	Rollback()
}

// RwTx is a read-write transaction. Exactly one of Commit/Rollback must be
// called.
type RwTx interface {
	Tx
	Putter
	Commit() error
}

// RoDB can only hand out read-only transactions.
type RoDB interface {
	BeginRo(ctx context.Context) (Tx, error)
	Close()
}

// RwDB is the full database handle the classstore collaborator is built on.
type RwDB interface {
	RoDB
	BeginRw(ctx context.Context) (RwTx, error)
	// View and Update run fn inside a transaction and guarantee it is closed
	// (rolled back on error/panic, committed on success for Update) even if
	// fn forgets to do so itself. The test fixtures seed data this way;
	// classstore opens and closes its transactions with BeginRo/BeginRw.
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx RwTx) error) error
}
