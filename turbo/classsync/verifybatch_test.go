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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/erigon-lib/common"

	"github.com/erigontech/starknet-classsync/core/classdef"
)

func TestVerifyDeclaredHashesExactMatch(t *testing.T) {
	legacyID := common.BytesToHash([]byte{1})
	sierraID := common.BytesToHash([]byte{2})
	compiledID := common.BytesToHash([]byte{3})

	declared := classdef.DeclaredClasses{
		Legacy:       map[classdef.ClassIdentifier]struct{}{legacyID: {}},
		Intermediate: map[classdef.ClassIdentifier]classdef.CompiledIdentifier{sierraID: compiledID},
	}
	batch := CompiledBatch{Block: 10, Legacy: []classdef.ClassIdentifier{legacyID}, Sierra: []classdef.ClassIdentifier{sierraID}}

	require.NoError(t, VerifyDeclaredHashes(declared, batch))
}

func TestVerifyDeclaredHashesMismatchReportsUnmatched(t *testing.T) {
	legacyID := common.BytesToHash([]byte{1})
	missingID := common.BytesToHash([]byte{9})

	declared := classdef.DeclaredClasses{
		Legacy: map[classdef.ClassIdentifier]struct{}{legacyID: {}, missingID: {}},
	}
	batch := CompiledBatch{Block: 10, Legacy: []classdef.ClassIdentifier{legacyID}}

	err := VerifyDeclaredHashes(declared, batch)
	require.Error(t, err)
	var serr *SyncError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, ClassDefinitionsDeclarationsMismatch, serr.Kind)
	require.Equal(t, []classdef.ClassIdentifier{missingID}, serr.Unmatched)
}
