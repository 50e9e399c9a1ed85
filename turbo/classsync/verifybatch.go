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
	"github.com/erigontech/starknet-classsync/core/classdef"
)

// CompiledBatch is one block's worth of already-compiled classes, with each
// class's identifier; it mirrors the shape VerifyDeclaredHashes consumes.
type CompiledBatch struct {
	Block  classdef.BlockNumber
	Legacy []classdef.ClassIdentifier
	Sierra []classdef.ClassIdentifier // identifiers of intermediate classes
}

// VerifyDeclaredHashes is the §4.9 batch matcher: given one block's declared
// set and the classes actually compiled for it, confirms every declared
// identifier was accounted for. Unlike DeclarationMatcher it operates on a
// complete, pre-collected batch rather than a stream, and reports every
// unmatched identifier rather than stopping at the first.
func VerifyDeclaredHashes(declared classdef.DeclaredClasses, batch CompiledBatch) error {
	legacy := cloneSet(declared.Legacy)
	intermediate := cloneMap(declared.Intermediate)

	for _, id := range batch.Legacy {
		delete(legacy, id)
	}
	for _, id := range batch.Sierra {
		delete(intermediate, id)
	}

	if len(legacy) == 0 && len(intermediate) == 0 {
		return nil
	}

	unmatched := make([]classdef.ClassIdentifier, 0, len(legacy)+len(intermediate))
	for id := range legacy {
		unmatched = append(unmatched, id)
	}
	for id := range intermediate {
		unmatched = append(unmatched, id)
	}

	err := newErr(ClassDefinitionsDeclarationsMismatch, batch.Block, "", nil)
	err.Unmatched = unmatched
	return err
}

func cloneSet(in map[classdef.ClassIdentifier]struct{}) map[classdef.ClassIdentifier]struct{} {
	out := make(map[classdef.ClassIdentifier]struct{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneMap(in map[classdef.ClassIdentifier]classdef.CompiledIdentifier) map[classdef.ClassIdentifier]struct{} {
	out := make(map[classdef.ClassIdentifier]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}
