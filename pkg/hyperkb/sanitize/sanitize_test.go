package sanitize

import (
	"errors"
	"strings"
	"testing"

	"github.com/cognicore/hyperkb/pkg/hyperkb/internalerr"
)

func TestValidPatternsPass(t *testing.T) {
	for _, p := range []string{
		"(a (b c) d)",
		"(is/* * *)",
		"ibuprofen/C",
		"(says/P doctor/C (takes/P patient/C metformin/C))",
	} {
		if err := Pattern(p); err != nil {
			t.Errorf("Pattern(%q): %v", p, err)
		}
	}
}

func TestUnbalancedParensRejected(t *testing.T) {
	err := Pattern("(a (b c")
	if !errors.Is(err, internalerr.ErrInvalidPattern) {
		t.Fatalf("want ErrInvalidPattern, got %v", err)
	}
}

func TestDepthCeiling(t *testing.T) {
	depth10 := strings.Repeat("(", 10) + "a" + strings.Repeat(")", 10)
	if err := PatternDepth(depth10, 10); err != nil {
		t.Errorf("depth 10 with ceiling 10 should pass: %v", err)
	}

	depth11 := strings.Repeat("(", 11) + "a" + strings.Repeat(")", 11)
	if err := PatternDepth(depth11, 10); !errors.Is(err, internalerr.ErrInvalidPattern) {
		t.Errorf("depth 11 with ceiling 10: want ErrInvalidPattern, got %v", err)
	}
}

func TestSuspiciousTokensRejected(t *testing.T) {
	for _, p := range []string{
		"(a b); DROP TABLE edges",
		"(a b); delete from edges",
		"(a b) ;UPDATE x",
		"(a b) -- comment",
	} {
		if err := Pattern(p); !errors.Is(err, internalerr.ErrInvalidPattern) {
			t.Errorf("Pattern(%q): want ErrInvalidPattern, got %v", p, err)
		}
	}

	// A semicolon alone is not suspicious.
	if err := Pattern("(a b);"); err != nil {
		t.Errorf("bare semicolon should pass: %v", err)
	}
}
