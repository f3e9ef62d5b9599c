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

	"github.com/pkg/errors"
)

// binSampleSize is how many leading records are inspected to auto-discover
// the bin width when the caller leaves it at 0 (§4.3).
const binSampleSize = 1000

// defaultBinWidth is used when auto-discovery has nothing to sample.
const defaultBinWidth = 100

// progressEvery controls how often Ingest reports a verbose progress
// callback, in records.
const progressEvery = 1000000

// Session is the per-input-file working set: the reference table, the
// read table, and the counters the rest of the pipeline consumes. It is
// exclusively owned by the goroutine that built it (§5) and is discarded
// once that file's profile has been written.
type Session struct {
	Refs  *ReferenceTable
	Reads *ReadTable

	NumMatched         int
	NumUniquelyMatched int
	HitCount           int
}

// IngestOptions configures Ingest.
type IngestOptions struct {
	// BinWidth is the configured bin width; 0 triggers auto-discovery.
	BinWidth int
	// Progress, if non-nil, is called periodically with the number of
	// records processed so far (ambient verbose-logging hook).
	Progress func(recordsSeen int)
}

// Ingest drives a single pass of §4.3/§4.7 over r: it resolves the bin
// width (sampling the first binSampleSize records if BinWidth is 0),
// builds the reference table from r's header, streams every record into
// coverage bins and the read table, and finalizes the unique-read
// counters. The caller is responsible for r.Open/r.Close.
func Ingest(r AlignmentReader, opt IngestOptions) (*Session, error) {
	names, lengths, err := r.Header()
	if err != nil {
		return nil, errors.Wrap(err, "reading alignment header")
	}

	binWidth := opt.BinWidth
	var buffered []AlignmentRecord
	if binWidth == 0 {
		buffered, binWidth, err = discoverBinWidth(r)
		if err != nil {
			return nil, err
		}
	}

	refs, err := NewReferenceTable(names, lengths, binWidth)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		Refs:  refs,
		Reads: NewReadTable(binSampleSize * 4),
	}

	for _, rec := range buffered {
		sess.apply(rec)
	}
	seen := len(buffered)

	for {
		rec, err := r.NextRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &Error{Kind: AlignmentReadError, Cause: err}
		}
		sess.apply(rec)
		seen++
		if opt.Progress != nil && seen%progressEvery == 0 {
			opt.Progress(seen)
		}
	}

	sess.finalize()
	return sess, nil
}

// discoverBinWidth samples up to binSampleSize records from r, returning
// the samples (so Ingest doesn't need a physical rewind, per the design
// note in SPEC_FULL §9) and the integer mean of their sequence lengths. A
// reader that can't buffer the whole sample in this way should instead
// implement Rewind and have Ingest called with a non-zero BinWidth after a
// separate discovery pass; this helper covers the common in-memory case.
func discoverBinWidth(r AlignmentReader) ([]AlignmentRecord, int, error) {
	buffered := make([]AlignmentRecord, 0, binSampleSize)
	var total, n int
	for len(buffered) < binSampleSize {
		rec, err := r.NextRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, &Error{Kind: AlignmentReadError, Cause: err}
		}
		buffered = append(buffered, rec)
		if !rec.Unmapped() {
			total += rec.SeqLen
			n++
		}
	}
	if n == 0 {
		return buffered, defaultBinWidth, nil
	}
	return buffered, total / n, nil
}

// apply routes one record per §4.3: unmapped/unbound records are skipped;
// mapped records bump coverage bins and are appended to the read's
// alignment list.
func (s *Session) apply(rec AlignmentRecord) {
	if rec.Unmapped() || rec.RefIndex < 0 || rec.RefIndex >= len(s.Refs.Refs) {
		return
	}
	s.HitCount++

	ref := &s.Refs.Refs[rec.RefIndex]
	span := rec.Span()
	addCoverage(ref.Cov, rec.Pos, span, s.Refs.BinWidth)
	ref.Hits++

	s.Reads.Add(rec.ReadID, Alignment{
		RefIndex:     rec.RefIndex,
		Pos:          rec.Pos,
		Span:         span,
		EditDistance: rec.EditDistance,
		Cigar:        rec.Cigar,
	})
}

// finalize walks the read table once the stream has ended: every read
// left with exactly one alignment is unique, and bumps that reference's
// UniqCov/UniqueHits.
func (s *Session) finalize() {
	s.Reads.Each(func(rd *ReadRecord) {
		s.NumMatched++
		if rd.Unique() {
			s.NumUniquelyMatched++
			a := rd.Alignments[0]
			ref := &s.Refs.Refs[a.RefIndex]
			addCoverage(ref.UniqCov, a.Pos, a.Span, s.Refs.BinWidth)
			ref.UniqueHits++
		}
	})
}
