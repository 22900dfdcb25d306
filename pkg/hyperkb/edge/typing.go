package edge

import "strings"

// canonAtom strips whitespace and joins multi-word concepts with underscores.
func canonAtom(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
}

// EnsureConcept appends the /C type tag unless the symbol is already typed.
func EnsureConcept(s string) string {
	if strings.Contains(s, "/") {
		return s
	}
	return canonAtom(s) + "/C"
}

// EnsurePredicate appends the /P type tag unless the symbol is already typed.
func EnsurePredicate(s string) string {
	if strings.Contains(s, "/") {
		return s
	}
	return canonAtom(s) + "/P"
}

// EnsureModifier appends the /M type tag unless the symbol is already typed.
func EnsureModifier(s string) string {
	if strings.Contains(s, "/") {
		return s
	}
	return canonAtom(s) + "/M"
}

// Triplet builds a typed (predicate subject object) edge from untyped or
// partially typed symbols.
func Triplet(subject, predicate, object string) Edge {
	return New(
		Atom(EnsurePredicate(predicate)),
		Atom(EnsureConcept(subject)),
		Atom(EnsureConcept(object)),
	)
}
