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

// Package report writes the TSV output files described in §6.5: the
// always-on abundance profile and the optional raw per-reference table.
package report

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/shenwei356/slimm"
)

// formatFloat renders a float with six significant digits, per §6.5.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func outStream(path string) (*bufio.Writer, *os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "creating %s", path)
	}
	return bufio.NewWriterSize(f, os.Getpagesize()), f, nil
}

// WriteAbundance writes {prefix}_{rank}_reported.tsv: taxon_id, rank,
// name, reads, relative_abundance.
func WriteAbundance(prefix, rank string, rows []slimm.AbundanceRow) error {
	path := fmt.Sprintf("%s_%s_reported.tsv", prefix, rank)
	w, f, err := outStream(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintln(w, "taxon_id\trank\tname\treads\trelative_abundance")
	for _, row := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
			row.TaxonID, row.Rank, row.Name, row.Reads, formatFloat(row.RelativeAbundance))
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// RawRow is one line of the raw per-reference TSV (§6.5).
type RawRow struct {
	RefName               string
	TaxonID               slimm.TaxonId
	Length                int
	Hits                  int
	UniqueHits            int
	UniqueHits2           int
	CoverageDepth         float64
	CoverageBreadth       float64
	UniqueCoverageDepth   float64
	UniqueCoverageBreadth float64
}

// WriteRaw writes {prefix}.tsv when --output-raw is set.
func WriteRaw(prefix string, rows []RawRow) error {
	path := prefix + ".tsv"
	w, f, err := outStream(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintln(w, "ref_name\ttaxon_id\tlength\thits\tunique_hits\tunique_hits2\t"+
		"coverage_depth\tcoverage_breadth\tunique_coverage_depth\tunique_coverage_breadth")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
			row.RefName, row.TaxonID, row.Length, row.Hits, row.UniqueHits, row.UniqueHits2,
			formatFloat(row.CoverageDepth), formatFloat(row.CoverageBreadth),
			formatFloat(row.UniqueCoverageDepth), formatFloat(row.UniqueCoverageBreadth))
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// RawRowsFromTable builds the raw-TSV rows for every reference with at
// least one hit, in reference-index order.
func RawRowsFromTable(refs *slimm.ReferenceTable) []RawRow {
	rows := make([]RawRow, 0, len(refs.Refs))
	for i := range refs.Refs {
		r := &refs.Refs[i]
		if r.Hits == 0 {
			continue
		}
		rows = append(rows, RawRow{
			RefName:               r.Name,
			TaxonID:               r.TaxonID,
			Length:                r.Length,
			Hits:                  r.Hits,
			UniqueHits:            r.UniqueHits,
			UniqueHits2:           r.UniqueHits2,
			CoverageDepth:         r.CoverageDepth(),
			CoverageBreadth:       r.CoverageBreadth(),
			UniqueCoverageDepth:   r.UniqueCoverageDepth(),
			UniqueCoverageBreadth: r.UniqueCoverageBreadth(),
		})
	}
	return rows
}
