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

// Package classdef holds the data model the class-definition sync pipeline
// passes between stages: the payload types flowing down the pipe, and the
// structural (layout) view a blob is parsed into before it can be hashed.
package classdef

import (
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/erigontech/erigon-lib/common"
)

// BlockNumber is a monotonic, unsigned block height.
type BlockNumber uint64

// ClassIdentifier is the canonical, cryptographic identifier of a class —
// the value a block header's declaration list names and the value
// HashComputer recomputes and checks.
type ClassIdentifier = common.Hash

// CompiledIdentifier identifies the compiled (CASM) form derived from an
// intermediate-form class.
type CompiledIdentifier = common.Hash

// PeerTag attributes a blob to the remote that supplied it, for reputation
// purposes only — it is never persisted alongside the class it tags.
type PeerTag = peer.ID

// Variant distinguishes the two class body shapes the network carries.
type Variant uint8

const (
	Legacy Variant = iota
	Intermediate
)

func (v Variant) String() string {
	if v == Legacy {
		return "legacy"
	}
	return "intermediate"
}

// Tagged pairs a payload with the PeerTag of whoever supplied it. It flows
// end to end through the fallible stages so a rejection can still be
// attributed to the peer that caused it.
type Tagged[T any] struct {
	Peer PeerTag
	Data T
}

// RawClass is a class blob exactly as a peer sent it, not yet parsed.
type RawClass struct {
	BlockNumber BlockNumber
	Variant     Variant
	Bytes       []byte
}

// EntryPoint is one dispatch entry inside a class's ABI.
type EntryPoint struct {
	Selector common.Hash
	// Offset is populated for Legacy classes (bytecode offset).
	Offset uint64
	// FunctionIndex is populated for Intermediate classes (Sierra function id).
	FunctionIndex uint64
}

// LegacyLayout is the structural view of a Legacy (Cairo 0) class: a bytecode
// program with three entry-point kinds.
type LegacyLayout struct {
	ABI              []byte
	Program          []byte
	ExternalEntries  []EntryPoint
	L1HandlerEntries []EntryPoint
	ConstructorEntries []EntryPoint
}

// IntermediateLayout is the structural view of an Intermediate (Sierra)
// class: a typed program that must be compiled before execution.
type IntermediateLayout struct {
	ABI              string
	SierraProgram    []string // field-element words, decimal or hex text as received
	ContractClassVersion string
	ExternalEntries  []EntryPoint
	L1HandlerEntries []EntryPoint
	ConstructorEntries []EntryPoint
}

// ParsedClass is a RawClass plus its structural view. The raw bytes are kept
// alongside the parsed form so later stages can persist the exact original
// encoding rather than a re-serialisation of it.
type ParsedClass struct {
	BlockNumber BlockNumber
	Variant     Variant
	Bytes       []byte
	Legacy      *LegacyLayout
	Intermediate *IntermediateLayout
}

// HashedClass is a ParsedClass once its canonical identifier has been
// computed.
type HashedClass struct {
	BlockNumber BlockNumber
	Identifier  ClassIdentifier
	Variant     Variant
	Bytes       []byte
}

// CompiledBody is the persisted form of a class: a pass-through byte string
// for Legacy, or a source/compiled pair for Intermediate.
type CompiledBody struct {
	Legacy       []byte
	SourceBytes  []byte
	CompiledBytes []byte
}

// CompiledClass is a HashedClass once the Compiler stage has produced an
// executable body for it.
type CompiledClass struct {
	BlockNumber BlockNumber
	Identifier  ClassIdentifier
	Variant     Variant
	Body        CompiledBody
}

// ExpectedDeclarations is the authoritative set of class identifiers a
// trusted block header asserts are declared at BlockNumber. It is never
// constructed empty by ExpectedDeclarationsStream (empty blocks are
// skipped), but batch callers may still need the zero value.
type ExpectedDeclarations struct {
	BlockNumber BlockNumber
	Classes     map[ClassIdentifier]struct{}
}

func NewExpectedDeclarations(block BlockNumber, ids []ClassIdentifier) ExpectedDeclarations {
	set := make(map[ClassIdentifier]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return ExpectedDeclarations{BlockNumber: block, Classes: set}
}

// DeclaredClasses is the §4.9 batch-matcher input: one block's worth of
// already-compiled classes, split by variant, each entry removed as its
// match is confirmed.
type DeclaredClasses struct {
	Legacy       map[ClassIdentifier]struct{}
	Intermediate map[ClassIdentifier]CompiledIdentifier
}

func (d *DeclaredClasses) IsEmpty() bool {
	return len(d.Legacy) == 0 && len(d.Intermediate) == 0
}
