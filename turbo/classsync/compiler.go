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
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/erigontech/erigon-lib/log/v3"

	"github.com/erigontech/starknet-classsync/compiler"
	"github.com/erigontech/starknet-classsync/core/classdef"
	"github.com/erigontech/starknet-classsync/gateway"
)

// Compiler turns a batch of HashedClass into CompiledClass: legacy classes
// pass through unchanged, intermediate classes are compiled locally with a
// gateway fallback.
type Compiler struct {
	Backend compiler.Backend
	Gateway gateway.Client
	Logger  log.Logger
}

// CompileBatch compiles every element of batch, preserving order. The
// gateway fallback is I/O-bound; it is invoked from within the worker pool
// goroutine via ctx, which is how the pipeline "bridges into the async
// scheduler" without dedicating a pool thread to blocking I/O — the
// goroutine simply suspends on the HTTP call like any other async stage
// would.
func (c *Compiler) CompileBatch(ctx context.Context, batch []classdef.HashedClass) ([]classdef.CompiledClass, error) {
	out := make([]classdef.CompiledClass, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, hc := range batch {
		i, hc := i, hc
		g.Go(func() error {
			cc, err := c.compileOne(gctx, hc)
			if err != nil {
				return newErr(CompilationFailure, hc.BlockNumber, "", err)
			}
			out[i] = cc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Compiler) compileOne(ctx context.Context, hc classdef.HashedClass) (classdef.CompiledClass, error) {
	if hc.Variant == classdef.Legacy {
		return classdef.CompiledClass{
			BlockNumber: hc.BlockNumber,
			Identifier:  hc.Identifier,
			Variant:     classdef.Legacy,
			Body:        classdef.CompiledBody{Legacy: hc.Bytes},
		}, nil
	}

	var parsed classdef.ParsedClass
	var err error
	parsed, err = classdef.VerifyLayout(classdef.RawClass{BlockNumber: hc.BlockNumber, Variant: classdef.Intermediate, Bytes: hc.Bytes})
	if err != nil {
		return classdef.CompiledClass{}, err
	}

	compiled, localErr := c.Backend.Compile(parsed.Intermediate.SierraProgram, parsed.Intermediate.ABI, parsed.Intermediate.ContractClassVersion)
	if localErr == nil {
		return classdef.CompiledClass{
			BlockNumber: hc.BlockNumber,
			Identifier:  hc.Identifier,
			Variant:     classdef.Intermediate,
			Body:        classdef.CompiledBody{SourceBytes: hc.Bytes, CompiledBytes: compiled},
		}, nil
	}

	c.Logger.Debug("local compilation failed, falling back to gateway", "identifier", hc.Identifier, "err", localErr)
	compiled, gwErr := c.Gateway.FetchCompiledByIdentifier(ctx, hc.Identifier)
	if gwErr != nil {
		return classdef.CompiledClass{}, gwErr
	}
	return classdef.CompiledClass{
		BlockNumber: hc.BlockNumber,
		Identifier:  hc.Identifier,
		Variant:     classdef.Intermediate,
		Body:        classdef.CompiledBody{SourceBytes: hc.Bytes, CompiledBytes: compiled},
	}, nil
}
