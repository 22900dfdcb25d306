package validate

import (
	"context"
	"fmt"

	"github.com/cognicore/hyperkb/pkg/hyperkb/edge"
	"github.com/cognicore/hyperkb/pkg/hyperkb/sanitize"
	"github.com/cognicore/hyperkb/pkg/hyperkb/store"
)

// selectRules retrieves the candidate rules for a request. An explicit
// pattern delegates to a sanitized store search; otherwise active-layer
// filtering over a bounded enumeration. Store and attribute-parse failures
// here are fatal, unlike the best-effort context collection.
//
// The returned order matches store enumeration order; downstream evaluation
// is order-sensitive (first matching mandatory rule wins).
func (v *Validator) selectRules(ctx context.Context, req Request) ([]edge.Edge, error) {
	var rules []edge.Edge

	if req.RulePattern != "" {
		if err := sanitize.Pattern(req.RulePattern); err != nil {
			return nil, err
		}
		pattern, err := edge.Parse(req.RulePattern)
		if err != nil {
			return nil, err
		}
		rules, err = v.store.Search(ctx, pattern, v.ruleScanLimit)
		if err != nil {
			return nil, fmt.Errorf("rule search: %w", err)
		}
	} else {
		active := make(map[string]struct{}, len(req.Layers))
		for _, layer := range req.Layers {
			active[layer] = struct{}{}
		}

		all, err := v.store.All(ctx, v.ruleScanLimit)
		if err != nil {
			return nil, fmt.Errorf("rule enumeration: %w", err)
		}
		for _, e := range all {
			attrs, ok, err := v.store.Attributes(ctx, e)
			if err != nil {
				return nil, fmt.Errorf("rule attributes: %w", err)
			}
			if !ok {
				continue
			}
			if _, hit := active[attrs[store.KeyLayer]]; hit {
				rules = append(rules, e)
			}
		}
	}

	if req.ConfidenceMin > 0 {
		filtered := rules[:0]
		for _, rule := range rules {
			attrs, ok, err := v.store.Attributes(ctx, rule)
			if err != nil {
				return nil, fmt.Errorf("rule attributes: %w", err)
			}
			confidence := 1.0
			if ok {
				meta, err := store.ParseMeta(attrs)
				if err != nil {
					return nil, err
				}
				confidence = meta.Confidence
			}
			if confidence >= req.ConfidenceMin {
				filtered = append(filtered, rule)
			}
		}
		rules = filtered
	}

	return rules, nil
}
