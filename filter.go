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

import "math"

// FilterConfig carries the knobs the two-stage filter needs (§4.5).
type FilterConfig struct {
	// CovCutoffQuantile is q for Stage A and Stage B's cutoffs.
	CovCutoffQuantile float64
	// MinReads is the minimum Hits a reference needs to survive Stage A.
	// If <= 0, DefaultMinReads(numMatched) is used.
	MinReads int
}

// DefaultMinReads implements the §4.5 default: max(1, ceil(numMatched/10000)).
func DefaultMinReads(numMatched int) int {
	v := int(math.Ceil(float64(numMatched) / 10000))
	if v < 1 {
		return 1
	}
	return v
}

// FilterResult is the outcome of the two-stage filter: which references
// survived, their taxon ids, and the counters spec.md §4.5 asks for.
type FilterResult struct {
	Survived        map[int]struct{} // reference index -> present
	ValidTaxonIDs   map[TaxonId]struct{}
	CovCutoff       float64
	UniqCutoff      float64
	FailedByCov     int
	FailedByUniqCov int
}

// Filter runs Stage A (coverage) then Stage B (unique coverage) over refs,
// using the already-computed per-reference stats. It never mutates refs.
func Filter(refs *ReferenceTable, stats []ReferenceStats, cfg FilterConfig, numMatched int) FilterResult {
	minReads := cfg.MinReads
	if minReads <= 0 {
		minReads = DefaultMinReads(numMatched)
	}

	covValues := make([]float64, len(stats))
	for i, s := range stats {
		covValues[i] = s.CoverageDepth
	}
	covCutoff := quantileCutoff(append([]float64(nil), covValues...), cfg.CovCutoffQuantile)

	passedA := make([]ReferenceStats, 0, len(stats))
	failedByCov := 0
	for _, s := range stats {
		ref := &refs.Refs[s.RefIndex]
		if s.CoverageDepth < covCutoff || ref.Hits < minReads {
			failedByCov++
			continue
		}
		passedA = append(passedA, s)
	}

	uniqValues := make([]float64, len(passedA))
	for i, s := range passedA {
		uniqValues[i] = s.UniqueCoverageDepth
	}
	uniqCutoff := quantileCutoff(append([]float64(nil), uniqValues...), cfg.CovCutoffQuantile)

	survived := make(map[int]struct{}, len(passedA))
	validTaxa := make(map[TaxonId]struct{}, len(passedA))
	failedByUniq := 0
	for _, s := range passedA {
		if s.UniqueCoverageDepth < uniqCutoff {
			failedByUniq++
			continue
		}
		survived[s.RefIndex] = struct{}{}
		validTaxa[refs.Refs[s.RefIndex].TaxonID] = struct{}{}
	}

	return FilterResult{
		Survived:        survived,
		ValidTaxonIDs:   validTaxa,
		CovCutoff:       covCutoff,
		UniqCutoff:      uniqCutoff,
		FailedByCov:     failedByCov,
		FailedByUniqCov: failedByUniq,
	}
}

// ReassignedRead is one read after reassignment (§4.5): either resolved to
// a single surviving reference, or still ambiguous across several.
type ReassignedRead struct {
	ReadID     string
	RefIndex   int   // valid iff Unique
	RefIndices []int // valid iff !Unique (len > 1)
	Unique     bool
}

// Reassign drops, from every read's alignment list, any alignment whose
// reference didn't survive filtering. Reads left with exactly one
// surviving alignment are newly-unique promotions (their reference's
// UniqCov2/UniqueHits2 are bumped here); reads left with >1 stay
// multi-mapping for LCA; reads left with 0 are dropped entirely and do not
// appear in the returned slice.
func Reassign(reads *ReadTable, refs *ReferenceTable, survived map[int]struct{}) []ReassignedRead {
	out := make([]ReassignedRead, 0, reads.Len())
	reads.Each(func(rd *ReadRecord) {
		kept := make([]Alignment, 0, len(rd.Alignments))
		for _, a := range rd.Alignments {
			if _, ok := survived[a.RefIndex]; ok {
				kept = append(kept, a)
			}
		}
		switch len(kept) {
		case 0:
			return
		case 1:
			ref := &refs.Refs[kept[0].RefIndex]
			addCoverage(ref.UniqCov2, kept[0].Pos, kept[0].Span, refs.BinWidth)
			ref.UniqueHits2++
			out = append(out, ReassignedRead{ReadID: rd.ReadID, RefIndex: kept[0].RefIndex, Unique: true})
		default:
			idx := make([]int, len(kept))
			for i, a := range kept {
				idx[i] = a.RefIndex
			}
			out = append(out, ReassignedRead{ReadID: rd.ReadID, RefIndices: idx, Unique: false})
		}
	})
	return out
}
