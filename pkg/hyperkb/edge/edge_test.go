package edge

import (
	"errors"
	"testing"

	"github.com/cognicore/hyperkb/pkg/hyperkb/internalerr"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"(is/P hypergraphs/C awesome/C)",
		"(contraindicated/P ibuprofen/C diabetes/C)",
		"(says/P doctor/C (takes/P patient/C metformin/C))",
		"ibuprofen/C",
	}
	for _, text := range cases {
		e, err := Parse(text)
		if err != nil {
			t.Fatalf("Parse(%q): %v", text, err)
		}
		if got := e.String(); got != text {
			t.Errorf("round trip %q: got %q", text, got)
		}
	}
}

func TestParseNormalizesWhitespace(t *testing.T) {
	e, err := Parse("  ( is/P   a/C\n\tb/C )  ")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := e.String(); got != "(is/P a/C b/C)" {
		t.Errorf("got %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	for _, text := range []string{"", "(a/P b/C", "()", "(a/P b/C) trailing"} {
		if _, err := Parse(text); !errors.Is(err, internalerr.ErrInvalidEdge) {
			t.Errorf("Parse(%q): want ErrInvalidEdge, got %v", text, err)
		}
	}
}

func TestAtomsNestedDeduplicated(t *testing.T) {
	e := MustParse("(says/P doctor/C (takes/P doctor/C metformin/C))")
	got := e.Atoms()
	want := []string{"says/P", "doctor/C", "takes/P", "metformin/C"}
	if len(got) != len(want) {
		t.Fatalf("Atoms() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Atoms() = %v, want %v", got, want)
		}
	}
}

func TestTypeTagsDistinguishAtoms(t *testing.T) {
	e := MustParse("(x/P x/C)")
	atoms := e.AtomSet()
	if len(atoms) != 2 {
		t.Fatalf("want x/P and x/C distinct, got %v", atoms)
	}
}

func TestContainsAtom(t *testing.T) {
	e := MustParse("(a/P b/C (c/P d/C))")
	if !e.ContainsAtom("d/C") {
		t.Error("nested atom not found")
	}
	if e.ContainsAtom("e/C") {
		t.Error("absent atom reported present")
	}
}

func TestMatch(t *testing.T) {
	e := MustParse("(is/P hypergraphs/C awesome/C)")
	cases := []struct {
		pattern string
		want    bool
	}{
		{"(is/P hypergraphs/C awesome/C)", true},
		{"(is/* * *)", true},
		{"(* hypergraphs/C *)", true},
		{"(* * *)", true},
		{"(* * * *)", false},
		{"(has/P * *)", false},
		{"*", true},
	}
	for _, c := range cases {
		p := MustParse(c.pattern)
		if got := Match(p, e); got != c.want {
			t.Errorf("Match(%q) = %v, want %v", c.pattern, got, c.want)
		}
	}
}

func TestTriplet(t *testing.T) {
	e := Triplet("ibuprofen", "contraindicated", "type 2 diabetes")
	if got := e.String(); got != "(contraindicated/P ibuprofen/C type_2_diabetes/C)" {
		t.Errorf("Triplet = %q", got)
	}
	// Already typed symbols are left alone.
	if got := EnsureConcept("x/P"); got != "x/P" {
		t.Errorf("EnsureConcept(x/P) = %q", got)
	}
}
