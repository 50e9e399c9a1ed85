// Copyright 2021 The Erigon Authors
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

package kv

// DBSchemaVersion tracks on-disk layout changes of the tables below.
//
// 1.0 - initial class-sync schema: declarations keyed by (block, class),
//
//	legacy/intermediate bodies in separate tables, compiled-hash mapping
//	table populated by the adjacent header-sync pipeline.
var DBSchemaVersion = struct{ Major, Minor, Patch uint32 }{Major: 1, Minor: 0, Patch: 0}

const (
	// BlockDeclaredClasses: key = block_num_u64_be + class_identifier(32) -> empty value.
	// One row per (block, class) declaration. Used by GapFinder/CountStream/
	// ExpectedDeclarationsStream to answer "what was declared where" without
	// touching the (much larger) class bodies.
	BlockDeclaredClasses = "BlockDeclaredClasses"

	// BlockClassCount: key = block_num_u64_be -> count_u64_be.
	// Denormalised count of BlockDeclaredClasses rows per block, maintained by
	// the adjacent block-header sync pipeline so CountStream never needs a
	// full table scan.
	BlockClassCount = "BlockClassCount"

	// LegacyClassDefinitions: key = class_identifier(32) -> raw legacy class bytes.
	LegacyClassDefinitions = "LegacyClassDefinitions"

	// IntermediateClassDefinitions: key = class_identifier(32) -> raw intermediate (Sierra) source bytes.
	IntermediateClassDefinitions = "IntermediateClassDefinitions"

	// CompiledClassHashes: key = class_identifier(32) -> compiled_identifier(32).
	// Populated by the header-sync pipeline as a precondition; the Persister
	// fails with MissingCompiledHashMapping when this row is absent for an
	// intermediate class it is about to persist.
	CompiledClassHashes = "CompiledClassHashes"

	// CompiledClassBodies: key = compiled_identifier(32) -> compiled (CASM) bytes.
	CompiledClassBodies = "CompiledClassBodies"

	// SyncProgress: small key/value table for scalar bookkeeping, e.g. the
	// last block number the class-sync pipeline is known to have fully
	// persisted.
	SyncProgress = "SyncProgress"
)

// Tables lists every bucket that must exist in a freshly opened database.
var Tables = []string{
	BlockDeclaredClasses,
	BlockClassCount,
	LegacyClassDefinitions,
	IntermediateClassDefinitions,
	CompiledClassHashes,
	CompiledClassBodies,
	SyncProgress,
}
