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

// Package mdbx backs kv.RwDB with github.com/erigontech/mdbx-go, an
// embedded storage engine.
package mdbx

import (
	"context"
	"fmt"

	"github.com/c2h5oh/datasize"
	"github.com/erigontech/mdbx-go/mdbx"

	"github.com/erigontech/erigon-lib/kv"
)

// DB wraps a single mdbx environment. One DBI is opened per entry in
// kv.Tables at construction time and cached by name.
type DB struct {
	env  *mdbx.Env
	dbis map[string]mdbx.DBI
}

type Opts struct {
	Path    string
	MapSize datasize.ByteSize
	// ReadOnly opens the environment without write permission, used by
	// tooling that only ever inspects an existing database.
	ReadOnly bool
}

func Open(opts Opts) (*DB, error) {
	env, err := mdbx.NewEnv(mdbx.Default)
	if err != nil {
		return nil, fmt.Errorf("mdbx: new env: %w", err)
	}
	if err := env.SetOption(mdbx.OptMaxDB, uint64(len(kv.Tables))); err != nil {
		return nil, fmt.Errorf("mdbx: set max dbs: %w", err)
	}
	mapSize := opts.MapSize
	if mapSize == 0 {
		mapSize = 16 * datasize.GB
	}
	if err := env.SetGeometry(-1, -1, int(mapSize), -1, -1, -1); err != nil {
		return nil, fmt.Errorf("mdbx: set geometry: %w", err)
	}

	flags := uint(mdbx.NoReadahead | mdbx.Coalesce | mdbx.LifoReclaim)
	if opts.ReadOnly {
		flags |= mdbx.Readonly
	}
	if err := env.Open(opts.Path, flags, 0664); err != nil {
		return nil, fmt.Errorf("mdbx: open %s: %w", opts.Path, err)
	}

	dbis := make(map[string]mdbx.DBI, len(kv.Tables))
	if err := env.Update(func(txn *mdbx.Txn) error {
		for _, name := range kv.Tables {
			dbi, err := txn.OpenDBI(name, mdbx.Create, nil, nil)
			if err != nil {
				return fmt.Errorf("mdbx: open table %s: %w", name, err)
			}
			dbis[name] = dbi
		}
		return nil
	}); err != nil {
		env.Close()
		return nil, err
	}

	return &DB{env: env, dbis: dbis}, nil
}

func (db *DB) Close() { db.env.Close() }

func (db *DB) BeginRo(_ context.Context) (kv.Tx, error) {
	txn, err := db.env.BeginTxn(nil, mdbx.Readonly)
	if err != nil {
		return nil, err
	}
	return &tx{txn: txn, dbis: db.dbis}, nil
}

func (db *DB) BeginRw(_ context.Context) (kv.RwTx, error) {
	txn, err := db.env.BeginTxn(nil, 0)
	if err != nil {
		return nil, err
	}
	return &tx{txn: txn, dbis: db.dbis}, nil
}

func (db *DB) View(ctx context.Context, fn func(tx kv.Tx) error) error {
	t, err := db.BeginRo(ctx)
	if err != nil {
		return err
	}
	defer t.Rollback()
	return fn(t)
}

func (db *DB) Update(ctx context.Context, fn func(tx kv.RwTx) error) error {
	t, err := db.BeginRw(ctx)
	if err != nil {
		return err
	}
	defer t.Rollback()
	if err := fn(t); err != nil {
		return err
	}
	return t.Commit()
}

type tx struct {
	txn  *mdbx.Txn
	dbis map[string]mdbx.DBI
}

func (t *tx) dbi(table string) (mdbx.DBI, error) {
	dbi, ok := t.dbis[table]
	if !ok {
		return 0, fmt.Errorf("mdbx: unknown table %q", table)
	}
	return dbi, nil
}

func (t *tx) GetOne(table string, key []byte) ([]byte, error) {
	dbi, err := t.dbi(table)
	if err != nil {
		return nil, err
	}
	v, err := t.txn.Get(dbi, key)
	if mdbx.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (t *tx) Has(table string, key []byte) (bool, error) {
	v, err := t.GetOne(table, key)
	return v != nil, err
}

func (t *tx) ForEach(table string, fromKey []byte, walker func(k, v []byte) (bool, error)) error {
	dbi, err := t.dbi(table)
	if err != nil {
		return err
	}
	cur, err := t.txn.OpenCursor(dbi)
	if err != nil {
		return err
	}
	defer cur.Close()

	var k, v []byte
	if fromKey == nil {
		k, v, err = cur.Get(nil, nil, mdbx.First)
	} else {
		k, v, err = cur.Get(fromKey, nil, mdbx.SetRange)
	}
	for {
		if mdbx.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		cont, werr := walker(k, v)
		if werr != nil {
			return werr
		}
		if !cont {
			return nil
		}
		k, v, err = cur.Get(nil, nil, mdbx.Next)
	}
}

func (t *tx) Put(table string, key, value []byte) error {
	dbi, err := t.dbi(table)
	if err != nil {
		return err
	}
	return t.txn.Put(dbi, key, value, 0)
}

func (t *tx) Delete(table string, key []byte) error {
	dbi, err := t.dbi(table)
	if err != nil {
		return err
	}
	err = t.txn.Del(dbi, key, nil)
	if mdbx.IsNotFound(err) {
		return nil
	}
	return err
}

func (t *tx) Commit() error { return t.txn.Commit() }
func (t *tx) Rollback()     { t.txn.Abort() }

var _ kv.RwDB = (*DB)(nil)
