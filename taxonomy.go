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

// TaxonId is an NCBI-style taxonomy identifier. 0 means none/root-unknown.
type TaxonId uint32

// maxAncestorSteps bounds the ancestor walk so a corrupt or cyclic
// taxonomy can't spin forever.
const maxAncestorSteps = 64

// TaxonomyNode is one node of the taxonomy forest.
type TaxonomyNode struct {
	Parent TaxonId
	Rank   string
}

// TaxonomyStore is an immutable, in-memory taxonomy: parent/rank lookup
// plus display names. Construct it with NewTaxonomyStore; parsing of the
// NCBI dump files that produce the two maps lives in package taxdump, not
// here, so the store itself has no I/O.
type TaxonomyStore struct {
	nodes map[TaxonId]TaxonomyNode
	names map[TaxonId]string
}

// NewTaxonomyStore builds a store from already-parsed node and name maps.
// The maps are not copied; callers must not mutate them afterwards.
func NewTaxonomyStore(nodes map[TaxonId]TaxonomyNode, names map[TaxonId]string) *TaxonomyStore {
	if names == nil {
		names = map[TaxonId]string{}
	}
	return &TaxonomyStore{nodes: nodes, names: names}
}

// Len returns the number of nodes held by the store.
func (t *TaxonomyStore) Len() int {
	return len(t.nodes)
}

// RankCounts returns, for every rank string present in the store, how many
// taxa carry it. CLI code uses this to validate -r/--rank against what the
// loaded taxonomy actually has, and to suggest alternatives when it doesn't.
func (s *TaxonomyStore) RankCounts() map[string]int {
	counts := make(map[string]int)
	for _, n := range s.nodes {
		if n.Rank == "" {
			continue
		}
		counts[n.Rank]++
	}
	return counts
}

// ParentOf returns the parent of taxon t, or (0, false) if t is unknown.
func (s *TaxonomyStore) ParentOf(t TaxonId) (TaxonId, bool) {
	n, ok := s.nodes[t]
	if !ok {
		return 0, false
	}
	return n.Parent, true
}

// RankOf returns the rank string for t, or "" if t is unknown.
func (s *TaxonomyStore) RankOf(t TaxonId) string {
	return s.nodes[t].Rank
}

// NameOf returns the display name for t, or "" if no name was loaded.
func (s *TaxonomyStore) NameOf(t TaxonId) string {
	return s.names[t]
}

// Ancestors walks the parent chain of t, inclusive of t itself, stopping
// at a node that is its own parent (the root) or when no parent is known.
// It returns TaxonomyCycle if the walk exceeds maxAncestorSteps without
// reaching a root, which is the only way a malformed taxonomy can be
// detected from here.
func (s *TaxonomyStore) Ancestors(t TaxonId) ([]TaxonId, error) {
	if t == 0 {
		return nil, nil
	}
	line := make([]TaxonId, 0, 16)
	cur := t
	for steps := 0; ; steps++ {
		if steps >= maxAncestorSteps {
			return nil, &Error{Kind: TaxonomyCycle, Path: "", Cause: nil}
		}
		line = append(line, cur)
		parent, ok := s.nodes[cur]
		if !ok {
			return line, nil
		}
		if parent.Parent == cur {
			return line, nil
		}
		cur = parent.Parent
	}
}

// LCA returns the least common ancestor of taxa, restricted to the given
// set of valid taxa: any taxon not present in restrict is dropped before
// computing. Taxa are folded pairwise (LCA is associative and commutative,
// so the order of reduction doesn't matter); if restrict leaves nothing to
// fold, or if any pairwise LCA fails to find a common ancestor, the result
// is 0.
func (s *TaxonomyStore) LCA(taxa []TaxonId, restrict map[TaxonId]struct{}) TaxonId {
	working := make([]TaxonId, 0, len(taxa))
	for _, t := range taxa {
		if _, ok := restrict[t]; ok {
			working = append(working, t)
		}
	}
	if len(working) == 0 {
		return 0
	}

	acc := working[0]
	for _, t := range working[1:] {
		acc = s.pairwiseLCA(acc, t)
		if acc == 0 {
			return 0
		}
	}
	return acc
}

// pairwiseLCA finds the LCA of two taxa by walking t1's ancestor chain and,
// for each ancestor, scanning t2's ancestor chain for an equal taxon. The
// first match found this way is the LCA. Returns 0 if either walk hits a
// cycle or if the two chains never meet.
func (s *TaxonomyStore) pairwiseLCA(t1, t2 TaxonId) TaxonId {
	if t1 == 0 || t2 == 0 {
		return 0
	}
	if t1 == t2 {
		return t1
	}

	lineA, err := s.Ancestors(t1)
	if err != nil {
		return 0
	}
	lineB, err := s.Ancestors(t2)
	if err != nil {
		return 0
	}

	inB := make(map[TaxonId]struct{}, len(lineB))
	for _, a := range lineB {
		inB[a] = struct{}{}
	}
	for _, a := range lineA {
		if _, ok := inB[a]; ok {
			return a
		}
	}
	return 0
}
