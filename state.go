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

import "fmt"

// State names one point in the per-input-file lifecycle (§4.7). A failure
// at any transition aborts only the file being processed; State is purely
// informational bookkeeping for diagnostics/verbose logging, not something
// other stages branch on.
type State int

const (
	Opened State = iota
	HeaderRead
	SamplingBinWidth
	Ingesting
	Ingested
	StatsComputed
	FilteredA
	FilteredB
	Reassigned
	Profiled
	Closed
)

func (s State) String() string {
	switch s {
	case Opened:
		return "Opened"
	case HeaderRead:
		return "HeaderRead"
	case SamplingBinWidth:
		return "SamplingBinWidth"
	case Ingesting:
		return "Ingesting"
	case Ingested:
		return "Ingested"
	case StatsComputed:
		return "StatsComputed"
	case FilteredA:
		return "FilteredA"
	case FilteredB:
		return "FilteredB"
	case Reassigned:
		return "Reassigned"
	case Profiled:
		return "Profiled"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Pipeline tracks the current State of one input file's processing and
// records, when a failure occurs, which transition it happened on. CLI
// code uses this to log "<file>: <kind>: failed during <state>: <err>" without
// threading state through every function's error path by hand.
type Pipeline struct {
	state State
	file  string
}

// NewPipeline starts a pipeline for file in the Opened state.
func NewPipeline(file string) *Pipeline {
	return &Pipeline{state: Opened, file: file}
}

// Enter transitions to state.
func (p *Pipeline) Enter(state State) {
	p.state = state
}

// State returns the current state.
func (p *Pipeline) State() State {
	return p.state
}

// Fail wraps err with the file and the state the pipeline was in, for a
// caller that wants one consistent diagnostic format.
func (p *Pipeline) Fail(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: errKindFor(err), Path: p.file, Cause: fmt.Errorf("failed during %s: %w", p.state, err)}
}

// errKindFor extracts the Kind already carried by err, defaulting to
// AlignmentReadError for anything that didn't originate in this package
// (the most common source of an unclassified per-file failure).
func errKindFor(err error) Kind {
	if se, ok := err.(*Error); ok {
		return se.Kind
	}
	return AlignmentReadError
}
