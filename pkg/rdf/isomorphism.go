package rdf

import (
	"sort"
	"strings"
)

// Isomorphic reports whether two graphs are equal up to a renaming of blank
// nodes. Duplicate triples are ignored.
func Isomorphic(a, b []*Triple) bool {
	left, right := dedupe(a), dedupe(b)
	if len(left) != len(right) {
		return false
	}

	leftBlanks := blankLabels(left)
	rightBlanks := blankLabels(right)
	if len(leftBlanks) != len(rightBlanks) {
		return false
	}

	target := make(map[string]bool, len(right))
	for _, t := range right {
		target[tripleKey(t, nil)] = true
	}

	m := &matcher{
		source:  left,
		target:  target,
		blanks:  sortByDegree(leftBlanks, left),
		choices: sortByDegree(rightBlanks, right),
		mapping: make(map[string]string, len(leftBlanks)),
		used:    make(map[string]bool, len(rightBlanks)),
	}
	return m.search(0)
}

func dedupe(triples []*Triple) []*Triple {
	seen := make(map[string]bool, len(triples))
	out := make([]*Triple, 0, len(triples))
	for _, t := range triples {
		key := tripleKey(t, nil)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// matcher searches for a blank node bijection by backtracking, trying
// high-degree nodes first
type matcher struct {
	source  []*Triple
	target  map[string]bool
	blanks  []string
	choices []string
	mapping map[string]string
	used    map[string]bool
}

func (m *matcher) search(index int) bool {
	if index == len(m.blanks) {
		return m.consistent()
	}

	blank := m.blanks[index]
	for _, candidate := range m.choices {
		if m.used[candidate] {
			continue
		}
		m.mapping[blank] = candidate
		m.used[candidate] = true

		if m.consistent() && m.search(index+1) {
			return true
		}

		delete(m.mapping, blank)
		delete(m.used, candidate)
	}
	return false
}

// consistent checks every source triple whose blank nodes are all mapped
func (m *matcher) consistent() bool {
	for _, t := range m.source {
		if !m.mapped(t.Subject) || !m.mapped(t.Object) {
			continue
		}
		if !m.target[tripleKey(t, m.mapping)] {
			return false
		}
	}
	return true
}

func (m *matcher) mapped(term Term) bool {
	b, ok := term.(*BlankNode)
	if !ok {
		return true
	}
	_, ok = m.mapping[b.ID]
	return ok
}

func blankLabels(triples []*Triple) []string {
	set := make(map[string]bool)
	for _, t := range triples {
		for _, term := range []Term{t.Subject, t.Object} {
			if b, ok := term.(*BlankNode); ok {
				set[b.ID] = true
			}
		}
	}
	labels := make([]string, 0, len(set))
	for label := range set {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func sortByDegree(blanks []string, triples []*Triple) []string {
	degree := make(map[string]int, len(blanks))
	for _, t := range triples {
		for _, term := range []Term{t.Subject, t.Object} {
			if b, ok := term.(*BlankNode); ok {
				degree[b.ID]++
			}
		}
	}
	sorted := append([]string(nil), blanks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return degree[sorted[i]] > degree[sorted[j]]
	})
	return sorted
}

// tripleKey renders a triple with blank nodes renamed through mapping
func tripleKey(t *Triple, mapping map[string]string) string {
	var sb strings.Builder
	for i, term := range []Term{t.Subject, t.Predicate, t.Object} {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if b, ok := term.(*BlankNode); ok && mapping != nil {
			if mapped, ok := mapping[b.ID]; ok {
				sb.WriteString("_:" + mapped)
				continue
			}
		}
		sb.WriteString(term.String())
	}
	return sb.String()
}
