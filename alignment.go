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

// CigarOpType names the reference/query consumption behavior of a CIGAR
// operation, mirroring github.com/biogo/hts/sam's op-type set so a
// concrete AlignmentReader can translate without lookup tables of its own.
type CigarOpType byte

const (
	CigarMatch     CigarOpType = 'M'
	CigarInsertion CigarOpType = 'I'
	CigarDeletion  CigarOpType = 'D'
	CigarSkipped   CigarOpType = 'N'
	CigarSoftClip  CigarOpType = 'S'
	CigarHardClip  CigarOpType = 'H'
	CigarPadded    CigarOpType = 'P'
	CigarEqual     CigarOpType = '='
	CigarMismatch  CigarOpType = 'X'
	CigarBack      CigarOpType = 'B'
)

// CigarOp is one (operation, count) pair of a CIGAR string.
type CigarOp struct {
	Op    CigarOpType
	Count int
}

// ConsumesReference reports whether this operation advances the reference
// coordinate (M/D/N/=/X per SAM spec).
func (c CigarOp) ConsumesReference() bool {
	switch c.Op {
	case CigarMatch, CigarDeletion, CigarSkipped, CigarEqual, CigarMismatch:
		return true
	default:
		return false
	}
}

// IsIndel reports whether this operation is an insertion or deletion.
// No stage of the core pipeline derives an alignment score from it.
func (c CigarOp) IsIndel() bool {
	return c.Op == CigarInsertion || c.Op == CigarDeletion
}

// AlignmentRecord is one mapped or unmapped alignment as delivered by an
// AlignmentReader. Unmapped records carry RefIndex == -1.
type AlignmentRecord struct {
	ReadID       string
	RefIndex     int
	Pos          int
	EditDistance int
	SeqLen       int
	Cigar        []CigarOp
}

// Unmapped reports whether this record lacks a reference binding.
func (r AlignmentRecord) Unmapped() bool {
	return r.RefIndex < 0
}

// Span returns the number of reference positions this record's CIGAR
// consumes (sum of M/D/N/=/X operation counts), per §6.2.
func (r AlignmentRecord) Span() int {
	span := 0
	for _, op := range r.Cigar {
		if op.ConsumesReference() {
			span += op.Count
		}
	}
	return span
}

// AlignmentReader is the abstract collaborator the ingestion driver
// consumes (§6.2). Concrete implementations (e.g. package htsreader) own
// the on-disk format; the core never parses bytes itself.
type AlignmentReader interface {
	// Open prepares the reader to read path; header() below becomes valid
	// only after a successful Open.
	Open(path string) error

	// Header returns the reference contig names and lengths in the order
	// referenced by AlignmentRecord.RefIndex.
	Header() (names []string, lengths []int, err error)

	// NextRecord returns the next alignment record, or io.EOF when the
	// stream is exhausted.
	NextRecord() (AlignmentRecord, error)

	// Rewind repositions the stream to the first record after Header, so
	// a consumer that sampled the first N records for bin-width discovery
	// can replay them. Implementations that buffer entirely in memory may
	// make this a no-op plus an internal cursor reset.
	Rewind() error

	// Close releases any resources held by the reader.
	Close() error
}

// NextRecord returns io.EOF (from the standard library) when the stream is
// exhausted; implementations should return that exact sentinel so callers
// can use errors.Is(err, io.EOF).
