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

// Package discover enumerates alignment input files for -d/--directory
// mode (§6.4), the file/directory positional argument's external
// collaborator per spec.md's scope boundary.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shenwei356/util/pathutil"
)

// extensions this tool treats as alignment files when walking a directory.
var extensions = []string{".bam", ".sam"}

// Files returns the alignment input paths for in, which is either a single
// file (returned as a one-element slice, unchecked against extensions) or,
// when directory is true, every file under in whose name ends in .bam or
// .sam, sorted by name for deterministic output ordering.
func Files(in string, directory bool) ([]string, error) {
	ok, err := pathutil.Exists(in)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", in, err)
	}
	if !ok {
		return nil, fmt.Errorf("does not exist: %s", in)
	}

	if !directory {
		return []string{in}, nil
	}

	var files []string
	err = filepath.Walk(in, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if hasAlignmentExt(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", in, err)
	}

	sort.Strings(files)
	return files, nil
}

func hasAlignmentExt(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
