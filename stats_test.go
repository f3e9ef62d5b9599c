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

func TestQuantileCutoffZeroIsMax(t *testing.T) {
	v := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	if got := quantileCutoff(append([]float64(nil), v...), 0); got != 9 {
		t.Errorf("C(v,0) = %v, want 9 (max)", got)
	}
}

func TestQuantileCutoffOneIsMin(t *testing.T) {
	v := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	if got := quantileCutoff(append([]float64(nil), v...), 1); got != 1 {
		t.Errorf("C(v,1) = %v, want 1 (smallest value)", got)
	}
}

func TestQuantileCutoffEmpty(t *testing.T) {
	if got := quantileCutoff(nil, 0.5); got != 0 {
		t.Errorf("C(nil,q) = %v, want 0", got)
	}
}

func TestQuantileCutoffAllZero(t *testing.T) {
	v := []float64{0, 0, 0}
	if got := quantileCutoff(v, 0.5); got != 0 {
		t.Errorf("C(all-zero,q) = %v, want 0", got)
	}
}

func TestQuantileCutoffHalf(t *testing.T) {
	// total = 10; descending cumulative: 4 (0.4), 4+3=7 (0.7), 7+2=9 (0.9), 9+1=10 (1.0)
	v := []float64{1, 2, 3, 4}
	got := quantileCutoff(append([]float64(nil), v...), 0.5)
	if got != 3 {
		t.Errorf("C(v,0.5) = %v, want 3", got)
	}
}

func TestQuantileCutoffLargeVector(t *testing.T) {
	// exercise the sortutil.Float64s path: a vector of at least
	// quantileSortThreshold values skips the insertion sort.
	v := make([]float64, quantileSortThreshold+1)
	for i := range v {
		v[i] = float64(i + 1)
	}
	got := quantileCutoff(v, 0)
	if got != float64(len(v)) {
		t.Errorf("C(v,0) on large vector = %v, want %v", got, len(v))
	}
}

func TestMean(t *testing.T) {
	if got := mean([]float64{2, 4, 6}); got != 4 {
		t.Errorf("mean = %v, want 4", got)
	}
	if got := mean(nil); got != 0 {
		t.Errorf("mean(nil) = %v, want 0", got)
	}
}

func TestComputeStatsSkipsZeroHits(t *testing.T) {
	refs := &ReferenceTable{Refs: []Reference{
		{Length: 100, Hits: 0, Cov: make([]uint32, 10)},
		{Length: 100, Hits: 5, Cov: make([]uint32, 10)},
	}}
	stats := ComputeStats(refs)
	if len(stats) != 1 {
		t.Fatalf("got %d active refs, want 1", len(stats))
	}
	if stats[0].RefIndex != 1 {
		t.Errorf("active ref index = %d, want 1", stats[0].RefIndex)
	}
}

func TestExpectedCoverage(t *testing.T) {
	stats := []ReferenceStats{{CoverageDepth: 2}, {CoverageDepth: 4}}
	if got := ExpectedCoverage(stats); got != 3 {
		t.Errorf("ExpectedCoverage = %v, want 3", got)
	}
}
