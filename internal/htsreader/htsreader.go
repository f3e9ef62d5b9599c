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

// Package htsreader implements slimm.AlignmentReader over BAM files
// (§6.2), the only concrete alignment source this repo ships. Plain-text
// SAM input is not read: every file is opened with bam.NewReader.
package htsreader

import (
	"io"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/shenwei356/slimm"
)

// nmTag is the SAM optional field carrying edit distance.
var nmTag = sam.Tag{'N', 'M'}

// Reader is a slimm.AlignmentReader backed by github.com/biogo/hts/bam. It
// streams records directly from the file rather than retaining them, since
// BAM inputs can carry hundreds of thousands of references/records (§2, §5);
// Rewind reopens the underlying file instead of replaying an in-memory copy.
type Reader struct {
	path string
	f    *os.File
	br   *bam.Reader
}

// New returns an unopened htsreader.Reader.
func New() *Reader {
	return &Reader{}
}

// Open implements slimm.AlignmentReader.
func (r *Reader) Open(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &slimm.Error{Kind: slimm.AlignmentReadError, Path: path, Cause: err}
	}
	br, err := bam.NewReader(f, 0)
	if err != nil {
		f.Close()
		return &slimm.Error{Kind: slimm.AlignmentReadError, Path: path, Cause: err}
	}
	r.path = path
	r.f = f
	r.br = br
	return nil
}

// Header implements slimm.AlignmentReader.
func (r *Reader) Header() (names []string, lengths []int, err error) {
	refs := r.br.Header().Refs()
	names = make([]string, len(refs))
	lengths = make([]int, len(refs))
	for i, ref := range refs {
		names[i] = ref.Name()
		lengths[i] = ref.Len()
	}
	return names, lengths, nil
}

// NextRecord implements slimm.AlignmentReader.
func (r *Reader) NextRecord() (slimm.AlignmentRecord, error) {
	rec, err := r.br.Read()
	if err == io.EOF {
		return slimm.AlignmentRecord{}, io.EOF
	}
	if err != nil {
		return slimm.AlignmentRecord{}, &slimm.Error{Kind: slimm.AlignmentReadError, Path: r.path, Cause: err}
	}
	return toAlignmentRecord(rec), nil
}

// Rewind implements slimm.AlignmentReader by closing and reopening the
// underlying file, positioning back at the first record after the header.
func (r *Reader) Rewind() error {
	path := r.path
	if r.br != nil {
		r.br.Close()
	}
	if r.f != nil {
		r.f.Close()
	}
	return r.Open(path)
}

// Close implements slimm.AlignmentReader.
func (r *Reader) Close() error {
	var err error
	if r.br != nil {
		err = r.br.Close()
	}
	if r.f != nil {
		if cerr := r.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func toAlignmentRecord(rec *sam.Record) slimm.AlignmentRecord {
	if rec.Flags&sam.Unmapped != 0 || rec.Ref == nil {
		return slimm.AlignmentRecord{ReadID: rec.Name, RefIndex: -1}
	}

	cigar := make([]slimm.CigarOp, len(rec.Cigar))
	for i, op := range rec.Cigar {
		cigar[i] = slimm.CigarOp{Op: slimm.CigarOpType(op.Type().String()[0]), Count: op.Len()}
	}

	editDistance := 0
	if tag := rec.AuxFields.Get(nmTag); tag != nil {
		switch n := tag.Value().(type) {
		case int:
			editDistance = n
		case int8:
			editDistance = int(n)
		case int16:
			editDistance = int(n)
		case int32:
			editDistance = int(n)
		case int64:
			editDistance = int(n)
		case uint8:
			editDistance = int(n)
		case uint16:
			editDistance = int(n)
		case uint32:
			editDistance = int(n)
		}
	}

	_, readLen := rec.Cigar.Lengths()
	if readLen == 0 {
		readLen = rec.Seq.Length
	}

	return slimm.AlignmentRecord{
		ReadID:       rec.Name,
		RefIndex:     rec.Ref.ID(),
		Pos:          rec.Pos,
		EditDistance: editDistance,
		SeqLen:       readLen,
		Cigar:        cigar,
	}
}
