// Package validate implements tri-state rule validation: each proposed edge
// is evaluated against the rules active in the knowledge base and classified
// as allowed, denied, or undecidable, with a why-trace justifying the
// outcome.
package validate

import (
	"context"
	"crypto/rand"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cognicore/hyperkb/pkg/hyperkb/edge"
	"github.com/cognicore/hyperkb/pkg/hyperkb/store"
)

// Decision is a tri-state validation outcome.
type Decision string

const (
	Allow   Decision = "ALLOW"
	Deny    Decision = "DENY"
	Unknown Decision = "UNKNOWN"
)

// Strategy is reserved for future divergent evaluation behavior. Both values
// currently produce identical results.
type Strategy string

const (
	TriState Strategy = "tri_state"
	Simple   Strategy = "simple"
)

// Default scan bounds, matching the store-enumeration caps of the
// rule-selection and context-collection steps.
const (
	DefaultRuleScanLimit    = 10000
	DefaultContextScanLimit = 1000
	DefaultUserLayer        = "user"
)

// TraceEntry records one matched rule in a why-trace. Matched is always the
// union of Direct and Context.
type TraceEntry struct {
	Rule       string
	Connector  string
	Layer      string
	Source     string
	Mandatory  bool
	Confidence float64
	Matched    []string
	Direct     []string
	Context    []string
}

// Result is the per-proposal outcome.
type Result struct {
	Edge        edge.Edge
	Text        string
	Reason      string
	Suggestions []string
	Trace       []TraceEntry
}

// Report aggregates a validation batch. Kept, Rejected and Unknown
// partition the proposals: every proposed edge appears in exactly one.
type Report struct {
	ID              string
	Decision        Decision
	Kept            []Result
	Rejected        []Result
	Unknown         []Result
	RulesChecked    int
	ContextDegraded bool
}

// Request describes one validation call. Layers is the caller's explicit
// active-layer selection; the validator holds no ambient layer state.
type Request struct {
	Proposals     []edge.Edge
	RulePattern   string
	Layers        []string
	ConfidenceMin float64
	Strategy      Strategy
}

// Options configures a Validator.
type Options struct {
	Store            store.Store
	Families         Families
	Logger           *zap.Logger
	RuleScanLimit    int
	ContextScanLimit int
	UserLayer        string
}

// Validator evaluates proposals against stored rules. It holds no mutable
// shared state beyond the ULID entropy source and is safe for concurrent
// use as long as the underlying store is.
type Validator struct {
	store            store.Store
	families         Families
	logger           *zap.Logger
	ruleScanLimit    int
	contextScanLimit int
	userLayer        string

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New creates a Validator with the given dependencies.
func New(opts Options) *Validator {
	v := &Validator{
		store:            opts.Store,
		families:         opts.Families,
		logger:           opts.Logger,
		ruleScanLimit:    opts.RuleScanLimit,
		contextScanLimit: opts.ContextScanLimit,
		userLayer:        opts.UserLayer,
		entropy:          ulid.Monotonic(rand.Reader, 0),
	}
	if v.logger == nil {
		v.logger = zap.NewNop()
	}
	if len(v.families.Contraindication)+len(v.families.Recommendation)+len(v.families.Obligation) == 0 {
		v.families = DefaultFamilies()
	}
	if v.ruleScanLimit <= 0 {
		v.ruleScanLimit = DefaultRuleScanLimit
	}
	if v.contextScanLimit <= 0 {
		v.contextScanLimit = DefaultContextScanLimit
	}
	if v.userLayer == "" {
		v.userLayer = DefaultUserLayer
	}
	return v
}

// Validate evaluates every proposal in the request and aggregates the batch
// decision: DENY dominates UNKNOWN dominates ALLOW.
func (v *Validator) Validate(ctx context.Context, req Request) (*Report, error) {
	rules, err := v.selectRules(ctx, req)
	if err != nil {
		return nil, err
	}

	// Shared across all proposals in the batch.
	uctx := collectUserContext(ctx, v.store, v.contextScanLimit, v.userLayer, v.logger)

	report := &Report{
		ID:              v.newID(),
		RulesChecked:    len(rules),
		ContextDegraded: uctx.Degraded,
	}

	for _, proposed := range req.Proposals {
		decision, trace, err := v.evaluateEdge(ctx, proposed, rules, uctx)
		if err != nil {
			return nil, err
		}

		res := Result{Edge: proposed, Text: proposed.String(), Trace: trace}
		switch decision {
		case Deny:
			res.Reason = "contraindicated or forbidden by rules"
			report.Rejected = append(report.Rejected, res)
		case Unknown:
			res.Reason = "insufficient information"
			res.Suggestions = []string{"add more context", "clarify user conditions"}
			report.Unknown = append(report.Unknown, res)
		default:
			report.Kept = append(report.Kept, res)
		}
	}

	switch {
	case len(report.Rejected) > 0:
		report.Decision = Deny
	case len(report.Unknown) > 0:
		report.Decision = Unknown
	default:
		report.Decision = Allow
	}
	return report, nil
}

// evaluateEdge runs the rule loop for a single proposal. Rules are checked
// in selector order; the first matching mandatory contraindication denies,
// the first matching mandatory obligation is undecidable, recommendations
// accumulate as supporting evidence.
func (v *Validator) evaluateEdge(ctx context.Context, proposed edge.Edge, rules []edge.Edge, uctx UserContext) (Decision, []TraceEntry, error) {
	var trace []TraceEntry
	proposedAtoms := proposed.AtomSet()

	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		ruleAtoms := rule.AtomSet()
		direct := intersect(proposedAtoms, ruleAtoms)
		contextOverlap := intersect(uctx.Symbols, ruleAtoms)
		total := union(direct, contextOverlap)

		// A single shared symbol is too weak a signal; a common type
		// tag alone must not trigger a rule.
		if len(total) < 2 {
			continue
		}

		attrs, _, err := v.store.Attributes(ctx, rule)
		if err != nil {
			return "", nil, err
		}
		meta, err := store.ParseMeta(attrs)
		if err != nil {
			return "", nil, err
		}

		connector := rule.Connector().String()
		class := v.families.Classify(connector)

		entry := TraceEntry{
			Rule:       rule.String(),
			Connector:  connector,
			Layer:      meta.Layer,
			Source:     meta.Source,
			Mandatory:  meta.Mandatory,
			Confidence: meta.Confidence,
			Matched:    sortedSlice(total),
			Direct:     sortedSlice(direct),
			Context:    sortedSlice(contextOverlap),
		}

		switch {
		case class.Contraindication && meta.Mandatory:
			trace = append(trace, entry)
			return Deny, trace, nil
		case class.Obligation && meta.Mandatory:
			trace = append(trace, entry)
			return Unknown, trace, nil
		case class.Recommendation:
			trace = append(trace, entry)
		}
	}

	return Allow, trace, nil
}

func (v *Validator) newID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ulid.MustNew(ulid.Now(), v.entropy).String()
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make(map[string]struct{})
	for k := range a {
		if _, ok := b[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

func union(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

func sortedSlice(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
