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

// Package compiler defines the local Sierra-to-CASM compilation boundary.
// Shelling out to an actual compiler binary is out of scope; Backend is the
// capability boundary a production build would satisfy with one.
package compiler

import "errors"

// ErrNotAvailable is returned by a Backend that cannot compile the given
// class locally, signalling the caller to fall back to the gateway.
var ErrNotAvailable = errors.New("compiler: local compilation unavailable")

// Backend compiles an intermediate (Sierra) class body into its executable
// (CASM) form. Implementations must be deterministic: the same input bytes
// always produce the same output bytes.
type Backend interface {
	Compile(sierraProgram []string, abi, contractClassVersion string) ([]byte, error)
}

// Unavailable is a Backend stub that always defers to the gateway. It is
// the default wired in cmd/classsync until a real compiler is linked in.
type Unavailable struct{}

func (Unavailable) Compile([]string, string, string) ([]byte, error) {
	return nil, ErrNotAvailable
}

var _ Backend = Unavailable{}
