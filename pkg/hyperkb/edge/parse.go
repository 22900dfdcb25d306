package edge

import (
	"fmt"
	"strings"

	"github.com/cognicore/hyperkb/pkg/hyperkb/internalerr"
)

// Parse decodes the textual form of a hyperedge, e.g.
// "(contraindicated/P ibuprofen/C diabetes/C)". Bare symbols parse as atoms.
func Parse(text string) (Edge, error) {
	p := parser{input: strings.TrimSpace(text)}
	if p.input == "" {
		return Edge{}, fmt.Errorf("%w: empty input", internalerr.ErrInvalidEdge)
	}
	e, err := p.parseElement()
	if err != nil {
		return Edge{}, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return Edge{}, fmt.Errorf("%w: trailing input at offset %d", internalerr.ErrInvalidEdge, p.pos)
	}
	return e, nil
}

// MustParse is Parse for known-good literals; it panics on error.
func MustParse(text string) Edge {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

type parser struct {
	input string
	pos   int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t' || p.input[p.pos] == '\n' || p.input[p.pos] == '\r') {
		p.pos++
	}
}

func (p *parser) parseElement() (Edge, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return Edge{}, fmt.Errorf("%w: unexpected end of input", internalerr.ErrInvalidEdge)
	}
	if p.input[p.pos] == '(' {
		return p.parseCompound()
	}
	return p.parseAtom()
}

func (p *parser) parseCompound() (Edge, error) {
	p.pos++ // consume '('
	var elements []Edge
	for {
		p.skipSpace()
		if p.pos >= len(p.input) {
			return Edge{}, fmt.Errorf("%w: missing closing parenthesis", internalerr.ErrInvalidEdge)
		}
		if p.input[p.pos] == ')' {
			p.pos++
			if len(elements) == 0 {
				return Edge{}, fmt.Errorf("%w: empty expression", internalerr.ErrInvalidEdge)
			}
			return New(elements...), nil
		}
		el, err := p.parseElement()
		if err != nil {
			return Edge{}, err
		}
		elements = append(elements, el)
	}
}

func (p *parser) parseAtom() (Edge, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '(' || c == ')' || c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return Edge{}, fmt.Errorf("%w: unexpected %q at offset %d", internalerr.ErrInvalidEdge, p.input[p.pos], p.pos)
	}
	return Atom(p.input[start:p.pos]), nil
}
