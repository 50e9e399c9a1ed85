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
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/erigontech/starknet-classsync/core/classdef"
)

// Summary is the observable result of one Run call, rendered by the CLI.
type Summary struct {
	Range         Range
	LastPersisted classdef.BlockNumber
	Stats         PersistStats
	Elapsed       time.Duration
	Err           error
}

// Render formats a Summary as a two-column table, matching the style the
// teacher's CLI commands use for post-run reports.
func (s Summary) Render() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"field", "value"})
	t.AppendRows([]table.Row{
		{"range", s.Range},
		{"last persisted block", s.LastPersisted},
		{"legacy classes written", s.Stats.LegacyWritten},
		{"intermediate classes written", s.Stats.IntermediateWritten},
		{"elapsed", s.Elapsed},
	})
	if s.Err != nil {
		t.AppendRow(table.Row{"error", s.Err})
	}
	return t.Render()
}
