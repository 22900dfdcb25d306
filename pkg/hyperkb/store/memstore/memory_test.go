package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/hyperkb/pkg/hyperkb/edge"
	"github.com/cognicore/hyperkb/pkg/hyperkb/internalerr"
	"github.com/cognicore/hyperkb/pkg/hyperkb/store"
)

func TestAddExistsRemove(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	e := edge.MustParse("(is/P a/C b/C)")
	if err := s.Add(ctx, e, store.Attributes{"layer": "foundation"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ok, err := s.Exists(ctx, e)
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	if err := s.Remove(ctx, e, false); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	ok, _ = s.Exists(ctx, e)
	if ok {
		t.Fatal("edge still present after Remove")
	}
}

func TestDeepRemoveDropsStoredSubedges(t *testing.T) {
	ctx := context.Background()
	s := New()

	inner := edge.MustParse("(takes/P patient/C metformin/C)")
	outer := edge.New(edge.Atom("says/P"), edge.Atom("doctor/C"), inner)

	if err := s.Add(ctx, inner, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(ctx, outer, nil); err != nil {
		t.Fatal(err)
	}

	if err := s.Remove(ctx, outer, true); err != nil {
		t.Fatalf("Remove deep: %v", err)
	}
	if ok, _ := s.Exists(ctx, inner); ok {
		t.Error("deep remove left sub-edge behind")
	}
}

func TestSearchAtomAnyPosition(t *testing.T) {
	ctx := context.Background()
	s := New()

	edges := []string{
		"(takes/P patient/C ibuprofen/C)",
		"(contraindicated/P ibuprofen/C diabetes/C)",
		"(says/P doctor/C (avoid/P patient/C ibuprofen/C))",
		"(takes/P patient/C metformin/C)",
	}
	for _, text := range edges {
		if err := s.Add(ctx, edge.MustParse(text), nil); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Search(ctx, edge.Atom("ibuprofen/C"), 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("atom search found %d edges, want 3 (nested occurrence included)", len(got))
	}
}

func TestSearchPositionalPattern(t *testing.T) {
	ctx := context.Background()
	s := New()

	s.Add(ctx, edge.MustParse("(is/P a/C b/C)"), nil)
	s.Add(ctx, edge.MustParse("(is/P c/C d/C)"), nil)
	s.Add(ctx, edge.MustParse("(has/P a/C b/C)"), nil)

	got, err := s.Search(ctx, edge.MustParse("(is/* * *)"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("positional search found %d, want 2", len(got))
	}
}

func TestAllPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	texts := []string{"(a/P b/C c/C)", "(d/P e/C f/C)", "(g/P h/C i/C)"}
	for _, text := range texts {
		s.Add(ctx, edge.MustParse(text), nil)
	}

	all, err := s.All(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i, e := range all {
		if e.String() != texts[i] {
			t.Fatalf("All()[%d] = %q, want %q", i, e.String(), texts[i])
		}
	}

	limited, _ := s.All(ctx, 2)
	if len(limited) != 2 {
		t.Fatalf("All(limit=2) returned %d", len(limited))
	}
}

func TestAttributesUpsertAndCopy(t *testing.T) {
	ctx := context.Background()
	s := New()

	e := edge.MustParse("(is/P a/C b/C)")
	s.Add(ctx, e, store.Attributes{"layer": "foundation", "confidence": "0.9"})
	s.Add(ctx, e, store.Attributes{"confidence": "0.95"})

	attrs, ok, err := s.Attributes(ctx, e)
	if err != nil || !ok {
		t.Fatalf("Attributes = %v, %v", ok, err)
	}
	if attrs["layer"] != "foundation" || attrs["confidence"] != "0.95" {
		t.Fatalf("merged attrs wrong: %v", attrs)
	}

	// Mutating the returned map must not leak into the store.
	attrs["layer"] = "mutated"
	again, _, _ := s.Attributes(ctx, e)
	if again["layer"] != "foundation" {
		t.Error("Attributes returned a live reference")
	}

	if err := s.SetAttribute(ctx, e, "source", "test"); err != nil {
		t.Fatal(err)
	}
	again, _, _ = s.Attributes(ctx, e)
	if again["source"] != "test" {
		t.Error("SetAttribute not visible")
	}

	missing := edge.MustParse("(absent/P x/C y/C)")
	if err := s.SetAttribute(ctx, missing, "k", "v"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("SetAttribute on missing edge = %v, want ErrNotFound", err)
	}
}
