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

import "sort"

// AbundanceRow is one line of the output profile (§3, §6.5).
type AbundanceRow struct {
	TaxonID           TaxonId
	Name              string
	Rank              string
	Reads             int
	RelativeAbundance float64
}

// AssignReads implements §4.6's per-read assignment: unique reads
// contribute to their own reference's taxon, multi-mapping reads
// contribute to the LCA of their surviving references (restricted to
// validTaxonIDs); reads whose LCA is 0 are dropped. It returns R[t], the
// read count assigned to each taxon, and the number of reads dropped at
// this step (for diagnostics, not part of the output rows).
func AssignReads(reads []ReassignedRead, refs *ReferenceTable, taxonomy *TaxonomyStore, validTaxonIDs map[TaxonId]struct{}) (counts map[TaxonId]int, droppedAtLCA int) {
	counts = make(map[TaxonId]int)
	for _, rd := range reads {
		if rd.Unique {
			t := refs.Refs[rd.RefIndex].TaxonID
			counts[t]++
			continue
		}

		taxa := make([]TaxonId, len(rd.RefIndices))
		for i, ri := range rd.RefIndices {
			taxa[i] = refs.Refs[ri].TaxonID
		}
		lca := taxonomy.LCA(taxa, validTaxonIDs)
		if lca == 0 {
			droppedAtLCA++
			continue
		}
		counts[lca]++
	}
	return counts, droppedAtLCA
}

// AggregateToRank implements §4.6's rank aggregation: every taxon with
// R[t] > 0 walks its ancestors until it finds one at rank, adding R[t] to
// that ancestor's bucket. A taxon with no ancestor at rank is bucketed
// under taxon 0 ("unclassified at rank <rank>").
func AggregateToRank(counts map[TaxonId]int, taxonomy *TaxonomyStore, rank string) map[TaxonId]int {
	buckets := make(map[TaxonId]int, len(counts))
	for t, n := range counts {
		if n <= 0 {
			continue
		}
		target := ancestorAtRank(taxonomy, t, rank)
		buckets[target] += n
	}
	return buckets
}

func ancestorAtRank(taxonomy *TaxonomyStore, t TaxonId, rank string) TaxonId {
	line, err := taxonomy.Ancestors(t)
	if err != nil {
		return 0
	}
	for _, a := range line {
		if taxonomy.RankOf(a) == rank {
			return a
		}
	}
	return 0
}

// BuildProfile turns rank buckets into sorted AbundanceRows with relative
// abundances. If the total is 0 the returned slice is empty (§8 invariant
// 6: empty profile sums to 0, not 1).
func BuildProfile(buckets map[TaxonId]int, taxonomy *TaxonomyStore, rank string) []AbundanceRow {
	var total int
	for _, n := range buckets {
		total += n
	}

	rows := make([]AbundanceRow, 0, len(buckets))
	for t, n := range buckets {
		if n <= 0 {
			continue
		}
		var rel float64
		if total > 0 {
			rel = float64(n) / float64(total)
		}
		name := taxonomy.NameOf(t)
		if t == 0 {
			name = "unclassified"
		}
		rows = append(rows, AbundanceRow{
			TaxonID:           t,
			Name:              name,
			Rank:              rank,
			Reads:             n,
			RelativeAbundance: rel,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RelativeAbundance != rows[j].RelativeAbundance {
			return rows[i].RelativeAbundance > rows[j].RelativeAbundance
		}
		return rows[i].TaxonID < rows[j].TaxonID
	})
	return rows
}
