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

package slimm

import "testing"

func TestDefaultMinReads(t *testing.T) {
	cases := []struct{ numMatched, want int }{
		{0, 1},
		{1, 1},
		{10000, 1},
		{10001, 2},
		{25000, 3},
	}
	for _, c := range cases {
		if got := DefaultMinReads(c.numMatched); got != c.want {
			t.Errorf("DefaultMinReads(%d) = %d, want %d", c.numMatched, got, c.want)
		}
	}
}

// A low-coverage reference is dropped by Stage A while a well-covered one
// survives, matching spec.md's "coverage-cutoff drops a reference" scenario.
func TestFilterDropsLowCoverageReference(t *testing.T) {
	refs := &ReferenceTable{Refs: []Reference{
		{Length: 100, TaxonID: 1, Hits: 50, Cov: onesBins(10, 10), UniqCov: onesBins(10, 10)},
		{Length: 100, TaxonID: 2, Hits: 50, Cov: onesBins(1, 10), UniqCov: onesBins(1, 10)},
	}}
	stats := ComputeStats(refs)
	cfg := FilterConfig{CovCutoffQuantile: 0.9, MinReads: 1}
	result := Filter(refs, stats, cfg, 100)

	if _, ok := result.Survived[0]; !ok {
		t.Errorf("well-covered reference 0 should survive")
	}
	if _, ok := result.Survived[1]; ok {
		t.Errorf("low-coverage reference 1 should be dropped")
	}
	if result.FailedByCov != 1 {
		t.Errorf("FailedByCov = %d, want 1", result.FailedByCov)
	}
}

// MinReads alone can fail a reference even with full coverage.
func TestFilterDropsBelowMinReads(t *testing.T) {
	refs := &ReferenceTable{Refs: []Reference{
		{Length: 100, TaxonID: 1, Hits: 2, Cov: onesBins(10, 10), UniqCov: onesBins(10, 10)},
	}}
	stats := ComputeStats(refs)
	cfg := FilterConfig{CovCutoffQuantile: 0, MinReads: 5}
	result := Filter(refs, stats, cfg, 100)
	if len(result.Survived) != 0 {
		t.Errorf("reference below MinReads should not survive, got %v", result.Survived)
	}
	if result.FailedByCov != 1 {
		t.Errorf("FailedByCov = %d, want 1", result.FailedByCov)
	}
}

// Reassign promotes a read to unique once its competing reference is
// filtered out, and bumps UniqueHits2/UniqCov2 accordingly.
func TestReassignPromotesToUnique(t *testing.T) {
	refs := &ReferenceTable{Refs: []Reference{
		{Length: 100, UniqCov2: make([]uint32, 10)},
		{Length: 100, UniqCov2: make([]uint32, 10)},
	}, BinWidth: 10}

	reads := NewReadTable(2)
	reads.Add("read1", Alignment{RefIndex: 0, Pos: 0, Span: 10})
	reads.Add("read1", Alignment{RefIndex: 1, Pos: 0, Span: 10})

	survived := map[int]struct{}{0: {}} // ref 1 was filtered out
	out := Reassign(reads, refs, survived)

	if len(out) != 1 {
		t.Fatalf("got %d reassigned reads, want 1", len(out))
	}
	if !out[0].Unique || out[0].RefIndex != 0 {
		t.Errorf("read1 should be promoted to unique on ref 0, got %+v", out[0])
	}
	if refs.Refs[0].UniqueHits2 != 1 {
		t.Errorf("UniqueHits2 = %d, want 1", refs.Refs[0].UniqueHits2)
	}
}

// A read with no surviving reference is dropped entirely.
func TestReassignDropsReadWithNoSurvivor(t *testing.T) {
	refs := &ReferenceTable{Refs: []Reference{
		{Length: 100, UniqCov2: make([]uint32, 10)},
	}, BinWidth: 10}
	reads := NewReadTable(1)
	reads.Add("read1", Alignment{RefIndex: 0, Pos: 0, Span: 10})

	out := Reassign(reads, refs, map[int]struct{}{}) // nothing survived
	if len(out) != 0 {
		t.Errorf("got %d reassigned reads, want 0", len(out))
	}
}

// A read that stays ambiguous across >1 surviving reference is left
// unresolved for the LCA step.
func TestReassignKeepsAmbiguous(t *testing.T) {
	refs := &ReferenceTable{Refs: []Reference{
		{Length: 100, UniqCov2: make([]uint32, 10)},
		{Length: 100, UniqCov2: make([]uint32, 10)},
	}, BinWidth: 10}
	reads := NewReadTable(1)
	reads.Add("read1", Alignment{RefIndex: 0, Pos: 0, Span: 10})
	reads.Add("read1", Alignment{RefIndex: 1, Pos: 0, Span: 10})

	out := Reassign(reads, refs, map[int]struct{}{0: {}, 1: {}})
	if len(out) != 1 || out[0].Unique {
		t.Fatalf("expected one ambiguous read, got %+v", out)
	}
	if len(out[0].RefIndices) != 2 {
		t.Errorf("RefIndices = %v, want 2 entries", out[0].RefIndices)
	}
}

func onesBins(nonZero, total int) []uint32 {
	v := make([]uint32, total)
	for i := 0; i < nonZero && i < total; i++ {
		v[i] = 1
	}
	return v
}
