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

import (
	"strconv"
	"strings"
)

// Reference is one row of the alignment header: a sequence against which
// reads were mapped, plus the coverage state accumulated against it.
type Reference struct {
	Name    string
	Length  int
	TaxonID TaxonId

	// Cov accumulates coverage for every hit touching this reference.
	// UniqCov accumulates coverage for reads that were unique on the
	// original mapping. UniqCov2 is filled during reassignment (§4.5) for
	// reads that became unique only after filtering.
	Cov      []uint32
	UniqCov  []uint32
	UniqCov2 []uint32

	Hits        int
	UniqueHits  int
	UniqueHits2 int
}

// CoverageDepth returns sum(Cov)/Length, or 0 for a zero-length reference.
func (r *Reference) CoverageDepth() float64 {
	if r.Length == 0 {
		return 0
	}
	return sumUint32(r.Cov) / float64(r.Length)
}

// CoverageBreadth returns the fraction of non-zero bins in Cov.
func (r *Reference) CoverageBreadth() float64 {
	return nonZeroFraction(r.Cov)
}

// UniqueCoverageDepth returns sum(UniqCov)/Length.
func (r *Reference) UniqueCoverageDepth() float64 {
	return sumUint32(r.UniqCov) / float64(r.Length)
}

// UniqueCoverageBreadth returns the fraction of non-zero bins in UniqCov.
func (r *Reference) UniqueCoverageBreadth() float64 {
	return nonZeroFraction(r.UniqCov)
}

func sumUint32(v []uint32) float64 {
	var s uint64
	for _, x := range v {
		s += uint64(x)
	}
	return float64(s)
}

func nonZeroFraction(v []uint32) float64 {
	if len(v) == 0 {
		return 0
	}
	n := 0
	for _, x := range v {
		if x != 0 {
			n++
		}
	}
	return float64(n) / float64(len(v))
}

// numBins returns the number of coverage bins for a reference of the given
// length under bin width w: ceil(length/w).
func numBins(length, w int) int {
	if w <= 0 {
		return 0
	}
	return (length + w - 1) / w
}

// ReferenceTable holds one Reference per contig in the alignment header,
// indexed the same way AlignmentRecord.RefIndex indexes them.
type ReferenceTable struct {
	Refs     []Reference
	BinWidth int
}

// NewReferenceTable builds a table from the header's contig names/lengths
// and the chosen bin width, extracting each reference's taxon id from its
// name (§6.3). It returns a *Error{Kind: MissingTaxonTag} for the first
// reference whose name carries neither tag.
func NewReferenceTable(names []string, lengths []int, binWidth int) (*ReferenceTable, error) {
	refs := make([]Reference, len(names))
	for i, name := range names {
		taxonID, err := ParseTaxonID(name)
		if err != nil {
			return nil, err
		}
		length := lengths[i]
		refs[i] = Reference{
			Name:     name,
			Length:   length,
			TaxonID:  taxonID,
			Cov:      make([]uint32, numBins(length, binWidth)),
			UniqCov:  make([]uint32, numBins(length, binWidth)),
			UniqCov2: make([]uint32, numBins(length, binWidth)),
		}
	}
	return &ReferenceTable{Refs: refs, BinWidth: binWidth}, nil
}

// ParseTaxonID extracts the taxon id embedded in a pipe-delimited
// reference name (§6.3). Tokens are scanned left-to-right; the first
// literal token "ti" followed by a token that parses as an unsigned
// integer wins (a "ti" followed by anything else is skipped), with
// "kraken:taxid" used the same way as a
// fallback when "ti" is absent. Neither present is a MissingTaxonTag error.
func ParseTaxonID(name string) (TaxonId, error) {
	tokens := strings.Split(name, "|")
	if id, ok := findTaxonTag(tokens, "ti"); ok {
		return id, nil
	}
	if id, ok := findTaxonTag(tokens, "kraken:taxid"); ok {
		return id, nil
	}
	return 0, &Error{Kind: MissingTaxonTag, Path: name}
}

func findTaxonTag(tokens []string, tag string) (TaxonId, bool) {
	for i, tok := range tokens {
		if tok == tag && i+1 < len(tokens) {
			id, err := strconv.ParseUint(tokens[i+1], 10, 32)
			if err != nil {
				continue
			}
			return TaxonId(id), true
		}
	}
	return 0, false
}

// addCoverage bumps bins [floor(p/W), floor((p+s-1)/W)] of v by 1, clamped
// to v's length so a record whose span runs past the reported reference
// length doesn't panic.
func addCoverage(v []uint32, pos, span, binWidth int) {
	if span <= 0 || binWidth <= 0 || len(v) == 0 {
		return
	}
	first := pos / binWidth
	last := (pos + span - 1) / binWidth
	if first < 0 {
		first = 0
	}
	if last >= len(v) {
		last = len(v) - 1
	}
	for i := first; i <= last; i++ {
		v[i]++
	}
}
