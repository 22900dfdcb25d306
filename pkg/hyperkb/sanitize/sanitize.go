// Package sanitize rejects malformed or suspicious query patterns before
// they reach a store backend. It performs no escaping or rewriting, only
// accept/reject.
package sanitize

import (
	"fmt"
	"strings"

	"github.com/cognicore/hyperkb/pkg/hyperkb/internalerr"
)

// DefaultMaxDepth is the nesting-depth ceiling applied by Pattern.
const DefaultMaxDepth = 10

// Substrings that indicate SQL-injection-style probing. Matched
// case-insensitively after a statement separator, plus the comment marker.
var suspiciousAfterSemicolon = []string{"drop", "delete", "update"}

// Pattern checks a pattern with the default depth ceiling.
func Pattern(pattern string) error {
	return PatternDepth(pattern, DefaultMaxDepth)
}

// PatternDepth checks, in order: parenthesis balance, maximum nesting depth,
// and the injection denylist. All failures wrap ErrInvalidPattern.
func PatternDepth(pattern string, maxDepth int) error {
	open := strings.Count(pattern, "(")
	closed := strings.Count(pattern, ")")
	if open != closed {
		return fmt.Errorf("%w: unbalanced parentheses (%d open, %d closed)", internalerr.ErrInvalidPattern, open, closed)
	}

	depth, maxObserved := 0, 0
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '(':
			depth++
			if depth > maxObserved {
				maxObserved = depth
			}
		case ')':
			depth--
		}
	}
	if maxObserved > maxDepth {
		return fmt.Errorf("%w: depth %d exceeds maximum %d", internalerr.ErrInvalidPattern, maxObserved, maxDepth)
	}

	lower := strings.ToLower(pattern)
	if i := strings.IndexByte(lower, ';'); i >= 0 {
		tail := lower[i:]
		for _, token := range suspiciousAfterSemicolon {
			if strings.Contains(tail, token) {
				return fmt.Errorf("%w: suspicious token %q", internalerr.ErrInvalidPattern, token)
			}
		}
	}
	if strings.Contains(lower, "-- ") || strings.Contains(lower, "--\t") {
		return fmt.Errorf("%w: suspicious comment marker", internalerr.ErrInvalidPattern)
	}

	return nil
}
