// Package edge implements the hyperedge value type: an immutable relational
// expression made of a connector and an ordered list of arguments, where each
// argument is either an atomic symbol or a nested edge. Two edges are equal
// iff their canonical textual serializations are equal.
package edge

import (
	"strings"
)

// Wildcard matches any single element in a positional pattern.
const Wildcard = "*"

// Edge is either an atom (leaf symbol, possibly carrying a type tag such as
// "ibuprofen/C") or a compound expression whose first element is the
// connector. The zero value is an empty atom and is not a valid edge.
type Edge struct {
	atom     string
	children []Edge
}

// Atom builds a leaf edge from a symbol.
func Atom(symbol string) Edge {
	return Edge{atom: symbol}
}

// New builds a compound edge from its elements (connector first).
func New(elements ...Edge) Edge {
	return Edge{children: elements}
}

// IsAtom reports whether the edge is a leaf symbol.
func (e Edge) IsAtom() bool {
	return len(e.children) == 0
}

// IsZero reports whether the edge is the invalid zero value.
func (e Edge) IsZero() bool {
	return e.atom == "" && len(e.children) == 0
}

// Symbol returns the atom text, or "" for compound edges.
func (e Edge) Symbol() string {
	return e.atom
}

// Arity returns the number of elements (connector included). Atoms have
// arity 0.
func (e Edge) Arity() int {
	return len(e.children)
}

// Connector returns the first element of a compound edge, or the zero Edge
// for atoms and empty edges.
func (e Edge) Connector() Edge {
	if len(e.children) == 0 {
		return Edge{}
	}
	return e.children[0]
}

// Args returns a copy of the elements after the connector.
func (e Edge) Args() []Edge {
	if len(e.children) <= 1 {
		return nil
	}
	out := make([]Edge, len(e.children)-1)
	copy(out, e.children[1:])
	return out
}

// Element returns the i-th element of a compound edge.
func (e Edge) Element(i int) Edge {
	return e.children[i]
}

// String returns the canonical textual serialization.
func (e Edge) String() string {
	if e.IsAtom() {
		return e.atom
	}
	var b strings.Builder
	e.write(&b)
	return b.String()
}

func (e Edge) write(b *strings.Builder) {
	if e.IsAtom() {
		b.WriteString(e.atom)
		return
	}
	b.WriteByte('(')
	for i, c := range e.children {
		if i > 0 {
			b.WriteByte(' ')
		}
		c.write(b)
	}
	b.WriteByte(')')
}

// Atoms returns the transitive leaf symbols in first-appearance order,
// deduplicated. Type tags are part of a symbol's identity, so "x/C" and
// "x/P" are distinct.
func (e Edge) Atoms() []string {
	seen := make(map[string]struct{})
	var out []string
	e.collectAtoms(seen, &out)
	return out
}

func (e Edge) collectAtoms(seen map[string]struct{}, out *[]string) {
	if e.IsAtom() {
		if _, ok := seen[e.atom]; !ok {
			seen[e.atom] = struct{}{}
			*out = append(*out, e.atom)
		}
		return
	}
	for _, c := range e.children {
		c.collectAtoms(seen, out)
	}
}

// AtomSet returns the transitive leaf symbols as a set.
func (e Edge) AtomSet() map[string]struct{} {
	set := make(map[string]struct{})
	var sink []string
	e.collectAtoms(set, &sink)
	return set
}

// ContainsAtom reports whether the symbol appears at any depth.
func (e Edge) ContainsAtom(symbol string) bool {
	if e.IsAtom() {
		return e.atom == symbol
	}
	for _, c := range e.children {
		if c.ContainsAtom(symbol) {
			return true
		}
	}
	return false
}

// TypeTag returns the type suffix of an atom ("C" for "ibuprofen/C"), or ""
// when the atom carries no tag or the edge is compound.
func (e Edge) TypeTag() string {
	if !e.IsAtom() {
		return ""
	}
	if i := strings.LastIndexByte(e.atom, '/'); i >= 0 {
		return e.atom[i+1:]
	}
	return ""
}

// Match reports whether an edge satisfies a positional pattern. The wildcard
// atom "*" matches any single element; an atom of the form "root/*" matches
// any atom with the same root regardless of type tag; other atoms match by
// exact text. Compound patterns require equal arity with every element
// matching.
func Match(pattern, e Edge) bool {
	if pattern.IsAtom() {
		if pattern.atom == Wildcard {
			return true
		}
		if root, ok := strings.CutSuffix(pattern.atom, "/"+Wildcard); ok {
			return e.IsAtom() && atomRoot(e.atom) == root
		}
		return e.IsAtom() && e.atom == pattern.atom
	}
	if e.IsAtom() || len(e.children) != len(pattern.children) {
		return false
	}
	for i, pc := range pattern.children {
		if !Match(pc, e.children[i]) {
			return false
		}
	}
	return true
}

func atomRoot(symbol string) string {
	if i := strings.LastIndexByte(symbol, '/'); i >= 0 {
		return symbol[:i]
	}
	return symbol
}
