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

// Alignment is one reference hit of a read, trimmed down from the raw
// AlignmentRecord to the fields later pipeline stages need once the read
// has been grouped with its other hits.
type Alignment struct {
	RefIndex     int
	Pos          int
	Span         int
	EditDistance int
	Cigar        []CigarOp
}

// ReadRecord groups every alignment seen for one read id. It is ephemeral:
// held only while a single input file is being ingested and filtered, and
// discarded once that file's profile has been emitted.
type ReadRecord struct {
	ReadID     string
	Alignments []Alignment
}

// Unique reports whether this read has exactly one alignment.
func (r *ReadRecord) Unique() bool {
	return len(r.Alignments) == 1
}

// ReadTable groups alignments by read id in first-seen order. Insertion
// order is preserved for consumers that want it, though none of the core
// pipeline stages depend on it (§5).
type ReadTable struct {
	order []string
	byID  map[string]*ReadRecord
}

// NewReadTable returns an empty table sized for an expected read count.
func NewReadTable(sizeHint int) *ReadTable {
	return &ReadTable{
		byID: make(map[string]*ReadRecord, sizeHint),
	}
}

// Add appends one alignment to readID's record, creating the record on
// first sight.
func (t *ReadTable) Add(readID string, a Alignment) {
	rec, ok := t.byID[readID]
	if !ok {
		rec = &ReadRecord{ReadID: readID}
		t.byID[readID] = rec
		t.order = append(t.order, readID)
	}
	rec.Alignments = append(rec.Alignments, a)
}

// Len returns the number of distinct reads seen.
func (t *ReadTable) Len() int {
	return len(t.order)
}

// Each calls fn once per read record, in insertion order.
func (t *ReadTable) Each(fn func(*ReadRecord)) {
	for _, id := range t.order {
		fn(t.byID[id])
	}
}
