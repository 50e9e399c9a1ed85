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

// Package classsync provides the GapFinder (NextMissing) and wires the
// CountStream, ExpectedDeclarations, PeerFetcher, LayoutVerifier,
// HashComputer, DeclarationMatcher, Compiler and Persister stages into one
// cancellable pipeline (Run).
package classsync

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/erigontech/starknet-classsync/core/classdef"
)

// Kind enumerates the ways a pipeline run can fail. Kinds distinguish
// retriable peer misbehavior from fatal local conditions so the caller knows
// whether to drop the offending peer, abort the run, or both.
type Kind uint8

const (
	_ Kind = iota
	BadClassLayout
	ClassHashMismatch
	UnexpectedClass
	ClassDefinitionsDeclarationsMismatch
	CompilationFailure
	MissingCompiledHashMapping
	StorageError
	MissingBlockHeader
)

func (k Kind) String() string {
	switch k {
	case BadClassLayout:
		return "bad class layout"
	case ClassHashMismatch:
		return "class hash mismatch"
	case UnexpectedClass:
		return "unexpected class"
	case ClassDefinitionsDeclarationsMismatch:
		return "class definitions/declarations mismatch"
	case CompilationFailure:
		return "compilation failure"
	case MissingCompiledHashMapping:
		return "missing compiled hash mapping"
	case StorageError:
		return "storage error"
	case MissingBlockHeader:
		return "missing block header"
	default:
		return "unknown"
	}
}

// SyncError is the single error type every pipeline stage returns. Peer is
// the zero value when a failure has no peer to blame (local storage faults,
// missing headers, batch-level mismatches).
type SyncError struct {
	Kind  Kind
	Peer  classdef.PeerTag
	Block classdef.BlockNumber
	// Unmatched carries the identifiers a ClassDefinitionsDeclarationsMismatch
	// could not account for, for diagnostics.
	Unmatched []classdef.ClassIdentifier
	cause     error
}

func (e *SyncError) Error() string {
	msg := fmt.Sprintf("classsync: %s at block %d", e.Kind, e.Block)
	if e.Peer != "" {
		msg += fmt.Sprintf(" (peer %s)", e.Peer)
	}
	if len(e.Unmatched) > 0 {
		msg += fmt.Sprintf(" (%d unmatched)", len(e.Unmatched))
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *SyncError) Unwrap() error { return e.cause }

// HasPeer reports whether this error can be attributed to a specific peer,
// as opposed to a local or batch-level condition.
func (e *SyncError) HasPeer() bool { return e.Peer != "" }

func newErr(kind Kind, block classdef.BlockNumber, peer classdef.PeerTag, cause error) *SyncError {
	return &SyncError{Kind: kind, Block: block, Peer: peer, cause: cause}
}

func wrapf(kind Kind, block classdef.BlockNumber, peer classdef.PeerTag, format string, args ...interface{}) *SyncError {
	return newErr(kind, block, peer, errors.Errorf(format, args...))
}
