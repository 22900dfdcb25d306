package store

import (
	"errors"
	"testing"

	"github.com/cognicore/hyperkb/pkg/hyperkb/internalerr"
)

func TestParseMetaDefaults(t *testing.T) {
	m, err := ParseMeta(Attributes{})
	if err != nil {
		t.Fatalf("ParseMeta: %v", err)
	}
	if m.Mandatory {
		t.Error("mandatory should default to false")
	}
	if m.Confidence != 1.0 {
		t.Errorf("confidence default = %v, want 1.0", m.Confidence)
	}
}

func TestParseMetaCoercion(t *testing.T) {
	m, err := ParseMeta(Attributes{
		KeyLayer:      "agent_rule",
		KeyMandatory:  "TRUE",
		KeyConfidence: "0.75",
		KeySource:     "pack:base",
		KeySessionID:  "s-1",
	})
	if err != nil {
		t.Fatalf("ParseMeta: %v", err)
	}
	if !m.Mandatory || m.Confidence != 0.75 || m.Layer != "agent_rule" || m.Source != "pack:base" || m.SessionID != "s-1" {
		t.Errorf("unexpected meta: %+v", m)
	}

	// Unparseable mandatory falls back to false rather than erroring.
	m, err = ParseMeta(Attributes{KeyMandatory: "sometimes"})
	if err != nil || m.Mandatory {
		t.Errorf("mandatory=%v err=%v, want false, nil", m.Mandatory, err)
	}
}

func TestParseMetaMalformedConfidence(t *testing.T) {
	_, err := ParseMeta(Attributes{KeyConfidence: "high"})
	if !errors.Is(err, internalerr.ErrStore) {
		t.Fatalf("want ErrStore, got %v", err)
	}
}
