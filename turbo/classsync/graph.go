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

import "github.com/emicklei/dot"

// stages lists the nine pipeline stages in data-flow order, used only to
// render the --dump-graph diagram; it has no effect on Run.
var stages = []string{
	"GapFinder",
	"CountStream",
	"ExpectedDeclarationsStream",
	"PeerFetcher",
	"LayoutVerifier",
	"HashComputer",
	"DeclarationMatcher",
	"Compiler",
	"Persister",
}

// Graph renders the pipeline as a Graphviz DAG for operator debugging. It
// carries no sync semantics of its own.
func Graph() string {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "LR")

	nodes := make(map[string]dot.Node, len(stages))
	for _, s := range stages {
		nodes[s] = g.Node(s)
	}

	edges := [][2]string{
		{"GapFinder", "CountStream"},
		{"CountStream", "ExpectedDeclarationsStream"},
		{"PeerFetcher", "LayoutVerifier"},
		{"LayoutVerifier", "HashComputer"},
		{"HashComputer", "DeclarationMatcher"},
		{"ExpectedDeclarationsStream", "DeclarationMatcher"},
		{"DeclarationMatcher", "Compiler"},
		{"Compiler", "Persister"},
	}
	for _, e := range edges {
		g.Edge(nodes[e[0]], nodes[e[1]])
	}

	return g.String()
}
