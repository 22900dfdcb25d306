// Package store defines the fact-store interface the reasoning core depends
// on, together with the attribute conventions shared by its backends.
package store

import (
	"context"

	"github.com/cognicore/hyperkb/pkg/hyperkb/edge"
)

// Store is the interface for persisting and querying hyperedges.
//
// Search semantics: a compound pattern matches positionally, with "*"
// matching any single element (see edge.Match). A bare atom pattern matches
// every edge containing that symbol at any depth, which is what the
// reasoning walker uses for neighbor expansion.
//
// Enumeration order from All is the backend's insertion order and must be
// stable across calls against an unchanged store; rule evaluation is
// order-sensitive.
type Store interface {
	Close() error

	Add(ctx context.Context, e edge.Edge, attrs Attributes) error
	Remove(ctx context.Context, e edge.Edge, deep bool) error
	Exists(ctx context.Context, e edge.Edge) (bool, error)
	Search(ctx context.Context, pattern edge.Edge, limit int) ([]edge.Edge, error)
	All(ctx context.Context, limit int) ([]edge.Edge, error)

	Attributes(ctx context.Context, e edge.Edge) (Attributes, bool, error)
	// SetAttribute fails with internalerr.ErrNotFound when the edge is not
	// stored.
	SetAttribute(ctx context.Context, e edge.Edge, key, value string) error
}
