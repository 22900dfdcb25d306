package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/hyperkb/pkg/hyperkb/internalerr"
)

// Attribute keys recognized by the core. Backends store values as opaque
// strings; coercion happens in exactly one place, ParseMeta.
const (
	KeyLayer      = "layer"
	KeyMandatory  = "mandatory"
	KeyConfidence = "confidence"
	KeySource     = "source"
	KeySessionID  = "session_id"
)

// Attributes is the raw key/value map associated with an edge.
type Attributes map[string]string

// Clone returns a copy, nil-safe.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Meta is the typed view of the attributes the core interprets.
type Meta struct {
	Layer      string
	Mandatory  bool
	Confidence float64
	Source     string
	SessionID  string
}

// ParseMeta coerces raw attributes into a Meta. Mandatory accepts the usual
// truthy strings case-insensitively and defaults to false; confidence
// defaults to 1.0 when absent. A non-numeric confidence is a store-level
// fault, not a silent default.
func ParseMeta(attrs Attributes) (Meta, error) {
	m := Meta{
		Layer:      attrs[KeyLayer],
		Confidence: 1.0,
		Source:     attrs[KeySource],
		SessionID:  attrs[KeySessionID],
	}
	if raw, ok := attrs[KeyMandatory]; ok && raw != "" {
		if b, err := strconv.ParseBool(strings.ToLower(raw)); err == nil {
			m.Mandatory = b
		}
	}
	if raw, ok := attrs[KeyConfidence]; ok && raw != "" {
		c, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Meta{}, fmt.Errorf("%w: malformed confidence %q", internalerr.ErrStore, raw)
		}
		m.Confidence = c
	}
	return m, nil
}
