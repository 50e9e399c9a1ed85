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

// Package memdb builds throwaway mdbx environments for tests: each call gets
// its own temp directory and is closed automatically via tb.Cleanup, so
// test cases never share state.
package memdb

import (
	"testing"

	"github.com/c2h5oh/datasize"

	"github.com/erigontech/erigon-lib/kv"
	"github.com/erigontech/erigon-lib/kv/mdbx"
)

func New(tb testing.TB) kv.RwDB {
	tb.Helper()
	db, err := mdbx.Open(mdbx.Opts{
		Path:    tb.TempDir(),
		MapSize: 64 * datasize.MB,
	})
	if err != nil {
		tb.Fatalf("memdb: open: %v", err)
	}
	tb.Cleanup(db.Close)
	return db
}
