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

package classdef

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/common/math"
)

// wire envelopes. These mirror exactly what a peer puts on the wire: raw JSON
// for the ABI/program (kept as json.RawMessage so the original bytes survive
// untouched for re-persistence), and typed entry points.

type wireEntryPoint struct {
	Selector      string `json:"selector"`
	Offset        string `json:"offset,omitempty"`
	FunctionIndex uint64 `json:"function_idx,omitempty"`
}

type wireEntryPointsByType struct {
	External    []wireEntryPoint `json:"EXTERNAL"`
	L1Handler   []wireEntryPoint `json:"L1_HANDLER"`
	Constructor []wireEntryPoint `json:"CONSTRUCTOR"`
}

type legacyWire struct {
	ABI              json.RawMessage       `json:"abi"`
	Program          json.RawMessage       `json:"program"`
	EntryPointsByType wireEntryPointsByType `json:"entry_points_by_type"`
}

type intermediateWire struct {
	ABI                  string                `json:"abi"`
	SierraProgram        []string              `json:"sierra_program"`
	ContractClassVersion string                `json:"contract_class_version"`
	EntryPointsByType    wireEntryPointsByType `json:"entry_points_by_type"`
}

// ParseError is a structural-parse failure. It is always wrapped by the
// caller into a peer-attributed SyncError; classdef itself knows nothing
// about peers.
type ParseError struct {
	Variant Variant
	Cause   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("classdef: bad %s class layout: %v", e.Variant, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// VerifyLayout parses a RawClass's structural envelope, distinguishing the
// two variants by raw.Variant (the tag the transport supplied), never by
// sniffing the bytes. It is pure and side-effect-free; the raw bytes are
// retained on the returned ParsedClass so later stages can persist the exact
// original encoding.
func VerifyLayout(raw RawClass) (ParsedClass, error) {
	switch raw.Variant {
	case Legacy:
		var w legacyWire
		if err := json.Unmarshal(raw.Bytes, &w); err != nil {
			return ParsedClass{}, &ParseError{Variant: Legacy, Cause: err}
		}
		external, err := toLegacyEntryPoints(w.EntryPointsByType.External)
		if err != nil {
			return ParsedClass{}, &ParseError{Variant: Legacy, Cause: err}
		}
		l1Handler, err := toLegacyEntryPoints(w.EntryPointsByType.L1Handler)
		if err != nil {
			return ParsedClass{}, &ParseError{Variant: Legacy, Cause: err}
		}
		constructor, err := toLegacyEntryPoints(w.EntryPointsByType.Constructor)
		if err != nil {
			return ParsedClass{}, &ParseError{Variant: Legacy, Cause: err}
		}
		return ParsedClass{
			BlockNumber: raw.BlockNumber,
			Variant:     Legacy,
			Bytes:       raw.Bytes,
			Legacy: &LegacyLayout{
				ABI:                []byte(w.ABI),
				Program:            []byte(w.Program),
				ExternalEntries:    external,
				L1HandlerEntries:   l1Handler,
				ConstructorEntries: constructor,
			},
		}, nil
	case Intermediate:
		var w intermediateWire
		if err := json.Unmarshal(raw.Bytes, &w); err != nil {
			return ParsedClass{}, &ParseError{Variant: Intermediate, Cause: err}
		}
		return ParsedClass{
			BlockNumber: raw.BlockNumber,
			Variant:     Intermediate,
			Bytes:       raw.Bytes,
			Intermediate: &IntermediateLayout{
				ABI:                w.ABI,
				SierraProgram:      w.SierraProgram,
				ContractClassVersion: w.ContractClassVersion,
				ExternalEntries:    toIntermediateEntryPoints(w.EntryPointsByType.External),
				L1HandlerEntries:   toIntermediateEntryPoints(w.EntryPointsByType.L1Handler),
				ConstructorEntries: toIntermediateEntryPoints(w.EntryPointsByType.Constructor),
			},
		}, nil
	default:
		return ParsedClass{}, &ParseError{Variant: raw.Variant, Cause: fmt.Errorf("unknown class variant %d", raw.Variant)}
	}
}

// toLegacyEntryPoints converts the wire entry points of a Legacy class,
// parsing each entry's hex/decimal bytecode offset. A malformed offset fails
// the whole parse, unlike a malformed selector (see selectorHash): the offset
// is load-bearing for the legacy class hash, so silently zeroing it would
// make two structurally different classes hash identically.
func toLegacyEntryPoints(in []wireEntryPoint) ([]EntryPoint, error) {
	out := make([]EntryPoint, len(in))
	for i, e := range in {
		offset, ok := math.ParseUint64(e.Offset)
		if !ok {
			return nil, fmt.Errorf("entry point %d: invalid offset %q", i, e.Offset)
		}
		out[i] = EntryPoint{Selector: selectorHash(e.Selector), Offset: offset}
	}
	return out, nil
}

// toIntermediateEntryPoints converts the wire entry points of an
// Intermediate class, which carry a Sierra function index instead of a
// bytecode offset.
func toIntermediateEntryPoints(in []wireEntryPoint) []EntryPoint {
	out := make([]EntryPoint, len(in))
	for i, e := range in {
		out[i] = EntryPoint{Selector: selectorHash(e.Selector), FunctionIndex: e.FunctionIndex}
	}
	return out
}

// selectorHash decodes a hex-encoded felt selector as received on the wire.
// A malformed selector yields the zero hash rather than failing the whole
// parse; the recomputed identifier then differs from the declared one, and
// DeclarationMatcher rejects the class as UnexpectedClass.
func selectorHash(s string) common.Hash {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return common.Hash{}
	}
	return common.BytesToHash(b)
}
