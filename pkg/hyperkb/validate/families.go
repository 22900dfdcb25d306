package validate

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/hyperkb/pkg/hyperkb/internalerr"
)

// Families is the keyword table used to classify a rule's connector by
// case-insensitive substring match. It is a heuristic, not a closed
// vocabulary; callers may extend it without touching the decision algorithm.
type Families struct {
	Contraindication []string `yaml:"contraindication"`
	Recommendation   []string `yaml:"recommendation"`
	Obligation       []string `yaml:"obligation"`
}

// DefaultFamilies returns the built-in keyword table.
func DefaultFamilies() Families {
	return Families{
		Contraindication: []string{"contraind", "forbidden"},
		Recommendation:   []string{"recommend", "advise"},
		Obligation:       []string{"oblige", "require"},
	}
}

// LoadFamilies reads a keyword table from a YAML file. Empty family lists
// fall back to the defaults so a partial file only overrides what it names.
func LoadFamilies(path string) (Families, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Families{}, fmt.Errorf("load families: %w", err)
	}

	var f Families
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Families{}, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}

	def := DefaultFamilies()
	if len(f.Contraindication) == 0 {
		f.Contraindication = def.Contraindication
	}
	if len(f.Recommendation) == 0 {
		f.Recommendation = def.Recommendation
	}
	if len(f.Obligation) == 0 {
		f.Obligation = def.Obligation
	}
	return f, nil
}

// Classification is the family membership of one connector.
type Classification struct {
	Contraindication bool
	Recommendation   bool
	Obligation       bool
}

// Classify matches a connector against the keyword table.
func (f Families) Classify(connector string) Classification {
	lower := strings.ToLower(connector)
	return Classification{
		Contraindication: containsAny(lower, f.Contraindication),
		Recommendation:   containsAny(lower, f.Recommendation),
		Obligation:       containsAny(lower, f.Obligation),
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
