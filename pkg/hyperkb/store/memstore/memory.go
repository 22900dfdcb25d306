// Package memstore is an in-memory implementation of store.Store, used by
// tests and for ephemeral knowledge bases.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/cognicore/hyperkb/pkg/hyperkb/edge"
	"github.com/cognicore/hyperkb/pkg/hyperkb/internalerr"
	"github.com/cognicore/hyperkb/pkg/hyperkb/store"
)

type record struct {
	edge  edge.Edge
	attrs store.Attributes
}

// Store keeps edges keyed by canonical text, with an atom index for
// containment search. Enumeration follows insertion order.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record
	order   []string
	byAtom  map[string]map[string]struct{}
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		records: make(map[string]*record),
		byAtom:  make(map[string]map[string]struct{}),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Add inserts or updates an edge. Attributes are merged over any existing
// ones, matching upsert semantics.
func (s *Store) Add(ctx context.Context, e edge.Edge, attrs store.Attributes) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := e.String()
	rec, ok := s.records[key]
	if !ok {
		rec = &record{edge: e, attrs: store.Attributes{}}
		s.records[key] = rec
		s.order = append(s.order, key)
		for _, atom := range e.Atoms() {
			if s.byAtom[atom] == nil {
				s.byAtom[atom] = make(map[string]struct{})
			}
			s.byAtom[atom][key] = struct{}{}
		}
	}
	for k, v := range attrs {
		rec.attrs[k] = v
	}
	return nil
}

// Remove deletes an edge. With deep set, stored sub-edges are removed as
// well.
func (s *Store) Remove(ctx context.Context, e edge.Edge, deep bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(e)
	if deep {
		for _, arg := range e.Args() {
			if !arg.IsAtom() {
				s.removeLocked(arg)
			}
		}
	}
	return nil
}

func (s *Store) removeLocked(e edge.Edge) {
	key := e.String()
	if _, ok := s.records[key]; !ok {
		return
	}
	delete(s.records, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for _, atom := range e.Atoms() {
		if set := s.byAtom[atom]; set != nil {
			delete(set, key)
			if len(set) == 0 {
				delete(s.byAtom, atom)
			}
		}
	}
}

// Exists reports whether the edge is stored.
func (s *Store) Exists(ctx context.Context, e edge.Edge) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[e.String()]
	return ok, nil
}

// Search returns edges matching the pattern in insertion order. A bare atom
// pattern matches every edge containing that symbol at any depth.
func (s *Store) Search(ctx context.Context, pattern edge.Edge, limit int) ([]edge.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []edge.Edge
	if pattern.IsAtom() && pattern.Symbol() != edge.Wildcard {
		members := s.byAtom[pattern.Symbol()]
		for _, key := range s.order {
			if _, ok := members[key]; !ok {
				continue
			}
			out = append(out, s.records[key].edge)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return out, nil
	}

	for _, key := range s.order {
		rec := s.records[key]
		if !edge.Match(pattern, rec.edge) {
			continue
		}
		out = append(out, rec.edge)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// All returns stored edges in insertion order.
func (s *Store) All(ctx context.Context, limit int) ([]edge.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]edge.Edge, 0, n)
	for _, key := range s.order[:n] {
		out = append(out, s.records[key].edge)
	}
	return out, nil
}

// Attributes returns a copy of the edge's attribute map.
func (s *Store) Attributes(ctx context.Context, e edge.Edge) (store.Attributes, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[e.String()]
	if !ok {
		return nil, false, nil
	}
	return rec.attrs.Clone(), true, nil
}

// SetAttribute sets a single attribute on a stored edge.
func (s *Store) SetAttribute(ctx context.Context, e edge.Edge, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[e.String()]
	if !ok {
		return fmt.Errorf("%w: %s", internalerr.ErrNotFound, e.String())
	}
	rec.attrs[key] = value
	return nil
}

// Len returns the number of stored edges.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
