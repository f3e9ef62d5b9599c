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
	"errors"
	"fmt"
)

// Kind classifies the failure modes this package can report.
type Kind int

const (
	// MissingTaxonomy means a taxonomy dump file could not be opened.
	MissingTaxonomy Kind = iota
	// MalformedTaxonomy means a line in nodes.dmp/names.dmp could not be parsed.
	MalformedTaxonomy
	// MissingTaxonTag means a reference name carries neither "ti" nor
	// "kraken:taxid".
	MissingTaxonTag
	// AlignmentReadError means the underlying AlignmentReader failed.
	AlignmentReadError
	// TaxonomyCycle means an ancestor walk exceeded its step guard.
	TaxonomyCycle
	// EmptyInput means an input file produced no mapped reads; this is not
	// a failure, the file is skipped with a zero-row profile.
	EmptyInput
)

func (k Kind) String() string {
	switch k {
	case MissingTaxonomy:
		return "MissingTaxonomy"
	case MalformedTaxonomy:
		return "MalformedTaxonomy"
	case MissingTaxonTag:
		return "MissingTaxonTag"
	case AlignmentReadError:
		return "AlignmentReadError"
	case TaxonomyCycle:
		return "TaxonomyCycle"
	case EmptyInput:
		return "EmptyInput"
	default:
		return "Unknown"
	}
}

// Error is the error type returned across package boundaries in slimm. It
// carries the failing path (when one applies) alongside the underlying
// cause so CLI diagnostics can print "<path>: <kind>: <cause>".
type Error struct {
	Kind  Kind
	Path  string
	Cause error
}

func (e *Error) Error() string {
	if e.Path != "" && e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Kind, e.Cause)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Cause)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsEmptyInput reports whether err is (or wraps) an EmptyInput error,
// which callers treat as "skip, don't fail".
func IsEmptyInput(err error) bool {
	var se *Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Kind == EmptyInput
}
