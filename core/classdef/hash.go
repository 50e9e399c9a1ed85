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
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/erigontech/erigon-lib/common"
)

// digest is a running, domain-separated accumulator over a class's
// constituent parts. Each write call folds in one more part of the class
// body, in the fixed order the two hashing schemes below specify; sum
// produces the final 32-byte identifier.
//
// The corpus carries no Starknet-native Pedersen/Poseidon implementation, so
// this uses sha256 as the underlying primitive while preserving the part
// ordering and domain separation pathfinder's compute_cairo_class_hash and
// compute_sierra_class_hash use. See DESIGN.md for why no third-party
// library backs this instead.
type digest struct {
	buf []byte
}

func newDigest(domain string) *digest {
	d := &digest{}
	d.writeBytes([]byte(domain))
	return d
}

func (d *digest) writeBytes(b []byte) *digest {
	d.buf = append(d.buf, lengthPrefixed(b)...)
	return d
}

func (d *digest) writeString(s string) *digest {
	return d.writeBytes([]byte(s))
}

func (d *digest) writeUint64(v uint64) *digest {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return d.writeBytes(buf[:])
}

func (d *digest) writeEntryPoints(eps []EntryPoint, withOffset bool) *digest {
	d.writeUint64(uint64(len(eps)))
	for _, ep := range eps {
		d.writeBytes(ep.Selector.Bytes())
		if withOffset {
			d.writeUint64(ep.Offset)
		} else {
			d.writeUint64(ep.FunctionIndex)
		}
	}
	return d
}

func (d *digest) sum() common.Hash {
	sum := sha256.Sum256(d.buf)
	return common.Hash(sum)
}

func lengthPrefixed(b []byte) []byte {
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(len(b)))
	out := make([]byte, 0, 8+len(b))
	out = append(out, prefix[:]...)
	out = append(out, b...)
	return out
}

// ComputeLegacyHash recomputes the canonical identifier of a Legacy (Cairo 0)
// class from its ABI, program, and the three entry-point lists, in that
// fixed order.
func ComputeLegacyHash(l *LegacyLayout) ClassIdentifier {
	d := newDigest("legacy-class")
	d.writeBytes(l.ABI)
	d.writeBytes(l.Program)
	d.writeEntryPoints(l.ExternalEntries, true)
	d.writeEntryPoints(l.L1HandlerEntries, true)
	d.writeEntryPoints(l.ConstructorEntries, true)
	return d.sum()
}

// ComputeIntermediateHash recomputes the canonical identifier of an
// Intermediate (Sierra) class from its ABI, program words, contract class
// version, and the three typed entry-point lists.
func ComputeIntermediateHash(l *IntermediateLayout) ClassIdentifier {
	d := newDigest("sierra-class")
	d.writeString(l.ABI)
	d.writeUint64(uint64(len(l.SierraProgram)))
	for _, word := range l.SierraProgram {
		d.writeString(word)
	}
	d.writeString(l.ContractClassVersion)
	d.writeEntryPoints(l.ExternalEntries, false)
	d.writeEntryPoints(l.L1HandlerEntries, false)
	d.writeEntryPoints(l.ConstructorEntries, false)
	return d.sum()
}

// ErrMissingLayout is returned by ComputeHash when a ParsedClass's layout
// pointer for its own variant is nil — malformed field content that
// VerifyLayout's structural parse did not catch.
var ErrMissingLayout = errors.New("classdef: parsed class carries no layout for its variant")

// ComputeHash dispatches to the scheme matching parsed.Variant and returns a
// HashedClass carrying the recomputed identifier alongside the original
// bytes.
func ComputeHash(parsed ParsedClass) (HashedClass, error) {
	var id ClassIdentifier
	switch parsed.Variant {
	case Legacy:
		if parsed.Legacy == nil {
			return HashedClass{}, ErrMissingLayout
		}
		id = ComputeLegacyHash(parsed.Legacy)
	case Intermediate:
		if parsed.Intermediate == nil {
			return HashedClass{}, ErrMissingLayout
		}
		id = ComputeIntermediateHash(parsed.Intermediate)
	}
	return HashedClass{
		BlockNumber: parsed.BlockNumber,
		Identifier:  id,
		Variant:     parsed.Variant,
		Bytes:       parsed.Bytes,
	}, nil
}
