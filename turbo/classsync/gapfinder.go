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

	"github.com/pkg/errors"

	"github.com/erigontech/starknet-classsync/classstore"
	"github.com/erigontech/starknet-classsync/core/classdef"
)

// NextMissing returns the smallest block number at or below head whose set
// of declared classes is incomplete, or ok=false if everything up to head is
// already fully synced.
func NextMissing(ctx context.Context, store classstore.Store, head classdef.BlockNumber) (classdef.BlockNumber, bool, error) {
	block, ok, err := store.FirstBlockWithMissingClassDefinitions(ctx)
	if err != nil {
		return 0, false, newErr(StorageError, 0, "", errors.Wrap(err, "gap finder"))
	}
	if !ok || block > head {
		return 0, false, nil
	}
	return block, true, nil
}
