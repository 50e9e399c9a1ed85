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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/log/v3"

	"github.com/erigontech/starknet-classsync/core/classdef"
)

type stubBackend struct {
	fail bool
	out  []byte
}

func (s stubBackend) Compile([]string, string, string) ([]byte, error) {
	if s.fail {
		return nil, errors.New("stub: local compilation forced to fail")
	}
	return s.out, nil
}

type stubGateway struct {
	body []byte
	err  error
}

func (s stubGateway) FetchCompiledByIdentifier(context.Context, classdef.ClassIdentifier) ([]byte, error) {
	return s.body, s.err
}

func intermediateHashedClass(id classdef.ClassIdentifier) classdef.HashedClass {
	return classdef.HashedClass{
		BlockNumber: 10,
		Identifier:  id,
		Variant:     classdef.Intermediate,
		Bytes:       []byte(sampleIntermediateSource),
	}
}

const sampleIntermediateSource = `{"abi":"[]","sierra_program":["0x1"],"contract_class_version":"0.1.0","entry_points_by_type":{"EXTERNAL":[],"L1_HANDLER":[],"CONSTRUCTOR":[]}}`

func TestCompilerLocalSuccess(t *testing.T) {
	c := &Compiler{Backend: stubBackend{out: []byte("local-casm")}, Gateway: stubGateway{}, Logger: log.Root()}
	id := common.BytesToHash([]byte{1})

	out, err := c.CompileBatch(context.Background(), []classdef.HashedClass{intermediateHashedClass(id)})
	require.NoError(t, err)
	require.Equal(t, []byte("local-casm"), out[0].Body.CompiledBytes)
}

// TestCompilerGatewayFallback is Scenario S5: local compilation forced to
// fail, gateway returns the compiled body verbatim.
func TestCompilerGatewayFallback(t *testing.T) {
	c := &Compiler{Backend: stubBackend{fail: true}, Gateway: stubGateway{body: []byte("gateway-casm")}, Logger: log.Root()}
	id := common.BytesToHash([]byte{2})

	out, err := c.CompileBatch(context.Background(), []classdef.HashedClass{intermediateHashedClass(id)})
	require.NoError(t, err)
	require.Equal(t, []byte("gateway-casm"), out[0].Body.CompiledBytes)
}

func TestCompilerBothFail(t *testing.T) {
	c := &Compiler{Backend: stubBackend{fail: true}, Gateway: stubGateway{err: errors.New("gateway down")}, Logger: log.Root()}
	id := common.BytesToHash([]byte{3})

	_, err := c.CompileBatch(context.Background(), []classdef.HashedClass{intermediateHashedClass(id)})
	require.Error(t, err)
	var serr *SyncError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, CompilationFailure, serr.Kind)
}

func TestCompilerLegacyPassthrough(t *testing.T) {
	c := &Compiler{Backend: stubBackend{}, Gateway: stubGateway{}, Logger: log.Root()}
	hc := classdef.HashedClass{BlockNumber: 1, Identifier: common.BytesToHash([]byte{4}), Variant: classdef.Legacy, Bytes: []byte("bytecode")}

	out, err := c.CompileBatch(context.Background(), []classdef.HashedClass{hc})
	require.NoError(t, err)
	require.Equal(t, []byte("bytecode"), out[0].Body.Legacy)
}
