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
	"io"
	"testing"
)

// fakeReader is a fully in-memory AlignmentReader used to drive Ingest in
// tests without needing a real BAM/SAM file on disk.
type fakeReader struct {
	names   []string
	lengths []int
	records []AlignmentRecord
	i       int
}

func (f *fakeReader) Open(path string) error { return nil }

func (f *fakeReader) Header() ([]string, []int, error) {
	return f.names, f.lengths, nil
}

func (f *fakeReader) NextRecord() (AlignmentRecord, error) {
	if f.i >= len(f.records) {
		return AlignmentRecord{}, io.EOF
	}
	rec := f.records[f.i]
	f.i++
	return rec, nil
}

func (f *fakeReader) Rewind() error {
	f.i = 0
	return nil
}

func (f *fakeReader) Close() error { return nil }

func matchSpan(length int) []CigarOp {
	return []CigarOp{{Op: CigarMatch, Count: length}}
}

// A single read mapping uniquely to one reference (spec.md's "single unique
// read" scenario): NumMatched and NumUniquelyMatched both land on 1, and
// UniqueHits never exceeds Hits.
func TestIngestSingleUniqueRead(t *testing.T) {
	r := &fakeReader{
		names:   []string{"ref1|ti|10"},
		lengths: []int{100},
		records: []AlignmentRecord{
			{ReadID: "read1", RefIndex: 0, Pos: 0, SeqLen: 20, Cigar: matchSpan(20)},
		},
	}
	sess, err := Ingest(r, IngestOptions{BinWidth: 10})
	if err != nil {
		t.Fatalf("Ingest: %s", err)
	}
	if sess.NumMatched != 1 || sess.NumUniquelyMatched != 1 {
		t.Errorf("NumMatched=%d NumUniquelyMatched=%d, want 1,1", sess.NumMatched, sess.NumUniquelyMatched)
	}
	ref := sess.Refs.Refs[0]
	if ref.Hits != 1 || ref.UniqueHits != 1 {
		t.Errorf("Hits=%d UniqueHits=%d, want 1,1", ref.Hits, ref.UniqueHits)
	}
	if ref.UniqueHits > ref.Hits {
		t.Errorf("invariant violated: UniqueHits %d > Hits %d", ref.UniqueHits, ref.Hits)
	}
}

// A read with two equally-good alignments is multi-mapping: neither
// reference gets a unique hit, but both get a raw hit.
func TestIngestMultiMappingReadKeepsUniqueHitsBounded(t *testing.T) {
	r := &fakeReader{
		names:   []string{"ref1|ti|10", "ref2|ti|20"},
		lengths: []int{100, 100},
		records: []AlignmentRecord{
			{ReadID: "read1", RefIndex: 0, Pos: 0, SeqLen: 20, Cigar: matchSpan(20)},
			{ReadID: "read1", RefIndex: 1, Pos: 0, SeqLen: 20, Cigar: matchSpan(20)},
		},
	}
	sess, err := Ingest(r, IngestOptions{BinWidth: 10})
	if err != nil {
		t.Fatalf("Ingest: %s", err)
	}
	if sess.NumMatched != 1 || sess.NumUniquelyMatched != 0 {
		t.Errorf("NumMatched=%d NumUniquelyMatched=%d, want 1,0", sess.NumMatched, sess.NumUniquelyMatched)
	}
	for i, ref := range sess.Refs.Refs {
		if ref.UniqueHits > ref.Hits {
			t.Errorf("ref %d: UniqueHits %d > Hits %d", i, ref.UniqueHits, ref.Hits)
		}
	}
}

// Unmapped records are skipped entirely and never reach the read table.
func TestIngestSkipsUnmapped(t *testing.T) {
	r := &fakeReader{
		names:   []string{"ref1|ti|10"},
		lengths: []int{100},
		records: []AlignmentRecord{
			{ReadID: "read1", RefIndex: -1},
			{ReadID: "read2", RefIndex: 0, Pos: 0, SeqLen: 10, Cigar: matchSpan(10)},
		},
	}
	sess, err := Ingest(r, IngestOptions{BinWidth: 10})
	if err != nil {
		t.Fatalf("Ingest: %s", err)
	}
	if sess.NumMatched != 1 {
		t.Errorf("NumMatched = %d, want 1 (unmapped record excluded)", sess.NumMatched)
	}
}

// With BinWidth left at 0, Ingest auto-discovers a width from the sampled
// records' mean sequence length rather than defaulting blindly.
func TestIngestAutoDiscoversBinWidth(t *testing.T) {
	r := &fakeReader{
		names:   []string{"ref1|ti|10"},
		lengths: []int{1000},
		records: []AlignmentRecord{
			{ReadID: "read1", RefIndex: 0, Pos: 0, SeqLen: 50, Cigar: matchSpan(50)},
			{ReadID: "read2", RefIndex: 0, Pos: 100, SeqLen: 50, Cigar: matchSpan(50)},
		},
	}
	sess, err := Ingest(r, IngestOptions{})
	if err != nil {
		t.Fatalf("Ingest: %s", err)
	}
	if sess.Refs.BinWidth != 50 {
		t.Errorf("auto-discovered BinWidth = %d, want 50 (mean sampled SeqLen)", sess.Refs.BinWidth)
	}
	if sess.NumMatched != 2 {
		t.Errorf("NumMatched = %d, want 2 (both sampled records still ingested)", sess.NumMatched)
	}
}

// An auto-discovery sample with no mapped records at all falls back to
// defaultBinWidth instead of dividing by zero.
func TestIngestAutoDiscoverFallsBackWhenAllUnmapped(t *testing.T) {
	r := &fakeReader{
		names:   []string{"ref1|ti|10"},
		lengths: []int{1000},
		records: []AlignmentRecord{
			{ReadID: "read1", RefIndex: -1},
		},
	}
	sess, err := Ingest(r, IngestOptions{})
	if err != nil {
		t.Fatalf("Ingest: %s", err)
	}
	if sess.Refs.BinWidth != defaultBinWidth {
		t.Errorf("BinWidth = %d, want defaultBinWidth %d", sess.Refs.BinWidth, defaultBinWidth)
	}
}

// A reference whose name carries neither "ti" nor "kraken:taxid" fails
// ingestion at header-parse time (spec.md's "missing-taxon-tag" scenario).
func TestIngestMissingTaxonTag(t *testing.T) {
	r := &fakeReader{
		names:   []string{"untagged-reference"},
		lengths: []int{100},
	}
	_, err := Ingest(r, IngestOptions{BinWidth: 10})
	se, ok := err.(*Error)
	if !ok || se.Kind != MissingTaxonTag {
		t.Fatalf("got %v, want *Error{Kind: MissingTaxonTag}", err)
	}
}

func TestPipelineFailWrapsKind(t *testing.T) {
	p := NewPipeline("some.bam")
	p.Enter(Ingesting)
	err := p.Fail(&Error{Kind: MissingTaxonTag, Path: "ref"})
	se, ok := err.(*Error)
	if !ok || se.Kind != MissingTaxonTag || se.Path != "some.bam" {
		t.Fatalf("got %+v, want Kind=MissingTaxonTag Path=some.bam", se)
	}
}

func TestPipelineFailNilIsNil(t *testing.T) {
	p := NewPipeline("some.bam")
	if err := p.Fail(nil); err != nil {
		t.Errorf("Fail(nil) = %v, want nil", err)
	}
}
