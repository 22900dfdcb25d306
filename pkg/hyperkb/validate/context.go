package validate

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/hyperkb/pkg/hyperkb/store"
)

// userMarker is excluded from collected context symbols to avoid
// self-matching noise: every user fact mentions the user atom itself.
const userMarker = "user"

// UserContext is the set of condition symbols collected from user-layer
// facts. Degraded is set when collection failed and the context is an empty
// best-effort stand-in rather than a real observation.
type UserContext struct {
	Symbols  map[string]struct{}
	Degraded bool
}

// collectUserContext scans up to maxScan edges and gathers concept-typed
// atoms from facts whose layer attribute equals userLayer. Collection is
// best-effort: any store error degrades to an empty context, never fails
// the validation.
func collectUserContext(ctx context.Context, st store.Store, maxScan int, userLayer string, logger *zap.Logger) UserContext {
	out := UserContext{Symbols: make(map[string]struct{})}

	edges, err := st.All(ctx, maxScan)
	if err != nil {
		logger.Warn("user context degraded: enumeration failed", zap.Error(err))
		return UserContext{Symbols: map[string]struct{}{}, Degraded: true}
	}

	for _, e := range edges {
		attrs, ok, err := st.Attributes(ctx, e)
		if err != nil {
			logger.Warn("user context degraded: attribute read failed",
				zap.String("edge", e.String()), zap.Error(err))
			return UserContext{Symbols: map[string]struct{}{}, Degraded: true}
		}
		if !ok || attrs[store.KeyLayer] != userLayer {
			continue
		}
		for _, atom := range e.Atoms() {
			if !strings.Contains(atom, "/C") {
				continue
			}
			if strings.Contains(strings.ToLower(atom), userMarker) {
				continue
			}
			out.Symbols[atom] = struct{}{}
		}
	}
	return out
}
