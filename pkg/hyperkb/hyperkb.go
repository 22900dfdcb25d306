// Package hyperkb is a layered knowledge base of typed relational facts
// (hyperedges) with tri-state rule validation and bounded multi-hop
// exploration.
//
// Validation and exploration each see a best-effort snapshot of the store;
// concurrent writers may be visible mid-scan. The engine does not promise
// snapshot isolation; callers needing a stable view must serialize their
// own writes.
package hyperkb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cognicore/hyperkb/pkg/hyperkb/edge"
	"github.com/cognicore/hyperkb/pkg/hyperkb/foundation"
	"github.com/cognicore/hyperkb/pkg/hyperkb/reason"
	"github.com/cognicore/hyperkb/pkg/hyperkb/sanitize"
	"github.com/cognicore/hyperkb/pkg/hyperkb/store"
	"github.com/cognicore/hyperkb/pkg/hyperkb/validate"
)

// UserLayer is the provenance layer of user-asserted facts.
const UserLayer = validate.DefaultUserLayer

// Engine is the main knowledge-base facade.
type Engine struct {
	store     store.Store
	validator *validate.Validator
	walker    *reason.Walker
	logger    *zap.Logger
}

// Options configures an Engine instance.
type Options struct {
	Store            store.Store
	Families         validate.Families
	Logger           *zap.Logger
	RuleScanLimit    int
	ContextScanLimit int
}

// New creates an Engine with the given dependencies.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store: opts.Store,
		validator: validate.New(validate.Options{
			Store:            opts.Store,
			Families:         opts.Families,
			Logger:           logger,
			RuleScanLimit:    opts.RuleScanLimit,
			ContextScanLimit: opts.ContextScanLimit,
			UserLayer:        UserLayer,
		}),
		walker: reason.New(reason.Options{Store: opts.Store, Logger: logger}),
		logger: logger,
	}
}

// Close cleanly shuts down the engine.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store exposes the underlying fact store.
func (e *Engine) Store() store.Store {
	return e.store
}

// AddEdge builds and stores an edge from a connector and arguments,
// auto-typing bare symbols (/P for the connector, /C for arguments).
func (e *Engine) AddEdge(ctx context.Context, connector string, args []string, attrs store.Attributes) (edge.Edge, error) {
	elements := make([]edge.Edge, 0, len(args)+1)
	elements = append(elements, edge.Atom(edge.EnsurePredicate(connector)))
	for _, arg := range args {
		elements = append(elements, edge.Atom(edge.EnsureConcept(arg)))
	}
	built := edge.New(elements...)
	if err := e.store.Add(ctx, built, attrs); err != nil {
		return edge.Edge{}, err
	}
	return built, nil
}

// AddEdgeFromString parses and stores an edge given in textual form.
func (e *Engine) AddEdgeFromString(ctx context.Context, text string, attrs store.Attributes) (edge.Edge, error) {
	parsed, err := edge.Parse(text)
	if err != nil {
		return edge.Edge{}, err
	}
	if err := e.store.Add(ctx, parsed, attrs); err != nil {
		return edge.Edge{}, err
	}
	return parsed, nil
}

// AddFact stores a typed (predicate subject object) triplet.
func (e *Engine) AddFact(ctx context.Context, subject, predicate, object string, attrs store.Attributes) (edge.Edge, error) {
	built := edge.Triplet(subject, predicate, object)
	if err := e.store.Add(ctx, built, attrs); err != nil {
		return edge.Edge{}, err
	}
	return built, nil
}

// AddRule stores a rule edge; rules are ordinary edges whose connector and
// attributes (layer, mandatory, confidence) drive validation.
func (e *Engine) AddRule(ctx context.Context, text string, attrs store.Attributes) (edge.Edge, error) {
	return e.AddEdgeFromString(ctx, text, attrs)
}

// AddUserFact records a user assertion in the user layer. The text is
// canonicalized into a single concept; a session ID is generated when none
// is given.
func (e *Engine) AddUserFact(ctx context.Context, text string, attrs store.Attributes, sessionID string) (edge.Edge, error) {
	concept := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(text)), " ", "-")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	merged := attrs.Clone()
	if merged == nil {
		merged = store.Attributes{}
	}
	merged[store.KeyLayer] = UserLayer
	merged[store.KeySessionID] = sessionID

	return e.AddEdge(ctx, "a", []string{"user", concept}, merged)
}

// Query searches for edges matching a sanitized textual pattern.
func (e *Engine) Query(ctx context.Context, pattern string, limit int) ([]edge.Edge, error) {
	if err := sanitize.Pattern(pattern); err != nil {
		return nil, err
	}
	parsed, err := edge.Parse(pattern)
	if err != nil {
		return nil, err
	}
	results, err := e.store.Search(ctx, parsed, limit)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return results, nil
}

// All returns stored edges in enumeration order.
func (e *Engine) All(ctx context.Context, limit int) ([]edge.Edge, error) {
	return e.store.All(ctx, limit)
}

// Count returns the total number of stored edges.
func (e *Engine) Count(ctx context.Context) (int, error) {
	all, err := e.store.All(ctx, 0)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// Exists checks whether an edge is stored.
func (e *Engine) Exists(ctx context.Context, ed edge.Edge) (bool, error) {
	return e.store.Exists(ctx, ed)
}

// Remove deletes an edge, together with its stored sub-edges when deep.
func (e *Engine) Remove(ctx context.Context, ed edge.Edge, deep bool) error {
	return e.store.Remove(ctx, ed, deep)
}

// Attrs returns the raw attribute map of an edge.
func (e *Engine) Attrs(ctx context.Context, ed edge.Edge) (store.Attributes, bool, error) {
	return e.store.Attributes(ctx, ed)
}

// SetAttrs sets multiple attributes on a stored edge.
func (e *Engine) SetAttrs(ctx context.Context, ed edge.Edge, attrs store.Attributes) error {
	for key, value := range attrs {
		if err := e.store.SetAttribute(ctx, ed, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Validate evaluates proposed edges against the rules active in the given
// layers (or matching an explicit pattern) and returns a tri-state report.
func (e *Engine) Validate(ctx context.Context, req validate.Request) (*validate.Report, error) {
	return e.validator.Validate(ctx, req)
}

// Reason performs a bounded multi-hop exploration from a seed pattern.
// Hops defaults to 2 and limit to 100 when non-positive.
func (e *Engine) Reason(ctx context.Context, seed string, hops, limit int) ([]reason.Result, error) {
	if hops <= 0 {
		hops = reason.DefaultHops
	}
	return e.walker.WalkPattern(ctx, seed, hops, limit)
}

// Neighbors finds edges connected to a node (atom or edge text) by shared
// atoms, up to maxDegree hops away.
func (e *Engine) Neighbors(ctx context.Context, node string, maxDegree, limit int) ([]reason.Result, error) {
	if maxDegree <= 0 {
		maxDegree = reason.DefaultHops
	}
	return e.walker.WalkPattern(ctx, node, maxDegree, limit)
}

// EdgesByConnector finds edges whose connector matches, regardless of the
// connector's type tag when untyped.
func (e *Engine) EdgesByConnector(ctx context.Context, connector string, limit int) ([]edge.Edge, error) {
	if !strings.Contains(connector, "/") {
		connector += "/" + edge.Wildcard
	}
	pattern := fmt.Sprintf("(%s %s %s)", connector, edge.Wildcard, edge.Wildcard)
	return e.Query(ctx, pattern, limit)
}

// AtomsByPrefix returns the distinct atoms with the given prefix across all
// stored edges, sorted, up to limit.
func (e *Engine) AtomsByPrefix(ctx context.Context, prefix string, limit int) ([]string, error) {
	all, err := e.store.All(ctx, 0)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{})
	for _, ed := range all {
		for _, atom := range ed.Atoms() {
			if strings.HasPrefix(atom, prefix) {
				set[atom] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(set))
	for atom := range set {
		out = append(out, atom)
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// planVerbs maps plan-step leading verbs onto connectors.
var planVerbs = map[string]string{
	"take":      "take",
	"walk":      "walk",
	"prescribe": "prescribe",
	"prendre":   "prend",
	"marcher":   "fait",
	"prend":     "prend",
}

// PlanToEdges converts plan steps into proposal entries in the plan layer.
// The first word of each step is the verb; the rest becomes a single
// hyphenated concept.
func (e *Engine) PlanToEdges(steps []string, user string) []foundation.Entry {
	if user == "" {
		user = "user"
	}

	var entries []foundation.Entry
	for _, step := range steps {
		words := strings.Fields(strings.ToLower(strings.TrimSpace(step)))
		if len(words) == 0 {
			continue
		}

		verb := words[0]
		if mapped, ok := planVerbs[verb]; ok {
			verb = mapped
		}
		object := "action"
		if len(words) > 1 {
			object = strings.Join(words[1:], "-")
		}

		entries = append(entries, foundation.Entry{
			S: fmt.Sprintf("(%s/P %s/C %s/C)", verb, user, object),
			Attrs: map[string]string{
				store.KeyLayer:  "plan",
				"original_text": step,
			},
		})
	}
	return entries
}

// BulkAdd adds entries with upsert semantics, capturing per-entry errors.
func (e *Engine) BulkAdd(ctx context.Context, entries []foundation.Entry, upsert bool) (foundation.Result, error) {
	return foundation.BulkAdd(ctx, e.store, entries, upsert)
}

// LoadFoundationPack loads a YAML or JSON pack file into the store.
func (e *Engine) LoadFoundationPack(ctx context.Context, path string) (foundation.Result, error) {
	return foundation.LoadFile(ctx, e.store, path, e.logger)
}
