// Copyright © 2018-2020 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package taxdump loads NCBI-style nodes.dmp/names.dmp files (§6.1) into the
// plain maps slimm.NewTaxonomyStore consumes. It is the only place in this
// repo that knows the dump files' on-disk shape; the core package never
// touches a taxonomy file directly.
package taxdump

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/breader"

	"github.com/shenwei356/slimm"
)

// fields splits a dump line on tabs and drops empty/pipe-only tokens, which
// tolerates both the plain tab-separated form spec.md §6.1 describes and
// real NCBI dumps' "\t|\t" field separators without needing two code paths.
func fields(line string) []string {
	raw := strings.Split(line, "\t")
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		f = strings.TrimSpace(f)
		if f == "" || f == "|" {
			continue
		}
		out = append(out, f)
	}
	return out
}

type node struct {
	id     slimm.TaxonId
	parent slimm.TaxonId
	rank   string
}

// LoadNodes parses nodes.dmp: taxon_id<ws>parent_id<tab>rank<tab>… (§6.1).
// Extra columns are ignored.
func LoadNodes(path string) (map[slimm.TaxonId]slimm.TaxonomyNode, error) {
	parseFunc := func(line string) (interface{}, bool, error) {
		f := fields(line)
		if len(f) < 2 {
			return nil, false, nil
		}
		id, err := strconv.ParseUint(f[0], 10, 32)
		if err != nil {
			return nil, false, err
		}
		parent, err := strconv.ParseUint(f[1], 10, 32)
		if err != nil {
			return nil, false, err
		}
		var rank string
		if len(f) >= 3 {
			rank = f[2]
		}
		return node{id: slimm.TaxonId(id), parent: slimm.TaxonId(parent), rank: rank}, true, nil
	}

	reader, err := breader.NewBufferedReader(path, 8, 100, parseFunc)
	if err != nil {
		return nil, &slimm.Error{Kind: slimm.MissingTaxonomy, Path: path, Cause: err}
	}

	nodes := make(map[slimm.TaxonId]slimm.TaxonomyNode, 1024)
	for chunk := range reader.Ch {
		if chunk.Err != nil {
			return nil, &slimm.Error{Kind: slimm.MalformedTaxonomy, Path: path, Cause: chunk.Err}
		}
		for _, d := range chunk.Data {
			n := d.(node)
			nodes[n.id] = slimm.TaxonomyNode{Parent: n.parent, Rank: n.rank}
		}
	}
	return nodes, nil
}

type named struct {
	id   slimm.TaxonId
	name string
}

// LoadNames parses names.dmp: taxon_id<tab>name<tab>… (§6.1). Only the
// first name line seen per id is retained, matching spec.md's stated rule.
func LoadNames(path string) (map[slimm.TaxonId]string, error) {
	parseFunc := func(line string) (interface{}, bool, error) {
		f := fields(line)
		if len(f) < 2 {
			return nil, false, nil
		}
		id, err := strconv.ParseUint(f[0], 10, 32)
		if err != nil {
			return nil, false, err
		}
		return named{id: slimm.TaxonId(id), name: f[1]}, true, nil
	}

	reader, err := breader.NewBufferedReader(path, 8, 100, parseFunc)
	if err != nil {
		return nil, &slimm.Error{Kind: slimm.MissingTaxonomy, Path: path, Cause: err}
	}

	names := make(map[slimm.TaxonId]string, 1024)
	for chunk := range reader.Ch {
		if chunk.Err != nil {
			return nil, &slimm.Error{Kind: slimm.MalformedTaxonomy, Path: path, Cause: chunk.Err}
		}
		for _, d := range chunk.Data {
			n := d.(named)
			if _, seen := names[n.id]; seen {
				continue
			}
			names[n.id] = n.name
		}
	}
	return names, nil
}

// Load reads both dump files from dir (nodes.dmp and names.dmp, §6.4's
// -m/--mapping-files directory) and builds a ready-to-use TaxonomyStore.
func Load(dir string) (*slimm.TaxonomyStore, error) {
	nodesPath := filepath.Join(dir, "nodes.dmp")
	namesPath := filepath.Join(dir, "names.dmp")

	nodes, err := LoadNodes(nodesPath)
	if err != nil {
		return nil, errors.Wrap(err, "loading nodes.dmp")
	}
	names, err := LoadNames(namesPath)
	if err != nil {
		return nil, errors.Wrap(err, "loading names.dmp")
	}
	return slimm.NewTaxonomyStore(nodes, names), nil
}
