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

import "github.com/twotwotwo/sorts/sortutil"

// quantileSortThreshold is the vector size above which the pack's parallel
// sort pays for itself; below it, a plain insertion sort wins on overhead
// alone. The reference repo makes the same call with sortutil.Uint64s for
// its own large in-memory sorts.
const quantileSortThreshold = 4096

func sortValues(v []float64) {
	if len(v) >= quantileSortThreshold {
		sortutil.Float64s(v)
		return
	}
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j-1] > v[j]; j-- {
			v[j-1], v[j] = v[j], v[j-1]
		}
	}
}

// quantileCutoff computes C(v, q): sort v ascending, then walk down from
// the top accumulating a running sum until it reaches at least a fraction
// q of the total; the cutoff is the value at the last index consumed.
// Semantically this is "the smallest value such that references above it
// account for at least a fraction q of the total mass" (§4.4).
//
// quantileCutoff mutates v (sorts it in place); callers that need the
// original order should pass a copy.
func quantileCutoff(v []float64, q float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var total float64
	for _, x := range v {
		total += x
	}
	if total == 0 {
		return 0
	}

	sortValues(v)

	if q <= 0 {
		return v[len(v)-1]
	}

	var running float64
	for i := len(v) - 1; i >= 0; i-- {
		running += v[i]
		if running/total >= q {
			return v[i]
		}
	}
	return v[0]
}

// mean returns the arithmetic mean of v, or 0 for an empty vector.
func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var total float64
	for _, x := range v {
		total += x
	}
	return total / float64(len(v))
}

// ReferenceStats holds the §4.4 per-reference derived features for one
// active (Hits > 0) reference.
type ReferenceStats struct {
	RefIndex              int
	CoverageDepth         float64
	CoverageBreadth       float64
	UniqueCoverageDepth   float64
	UniqueCoverageBreadth float64
}

// ComputeStats returns one ReferenceStats per reference with Hits > 0, in
// reference-index order.
func ComputeStats(refs *ReferenceTable) []ReferenceStats {
	out := make([]ReferenceStats, 0, len(refs.Refs))
	for i := range refs.Refs {
		r := &refs.Refs[i]
		if r.Hits == 0 {
			continue
		}
		out = append(out, ReferenceStats{
			RefIndex:              i,
			CoverageDepth:         r.CoverageDepth(),
			CoverageBreadth:       r.CoverageBreadth(),
			UniqueCoverageDepth:   r.UniqueCoverageDepth(),
			UniqueCoverageBreadth: r.UniqueCoverageBreadth(),
		})
	}
	return out
}

// ExpectedCoverage is the mean CoverageDepth over active references.
func ExpectedCoverage(stats []ReferenceStats) float64 {
	v := make([]float64, len(stats))
	for i, s := range stats {
		v[i] = s.CoverageDepth
	}
	return mean(v)
}
