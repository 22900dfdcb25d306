// Package viz exports the hypergraph for external visualization tools.
// Hyperedges are expanded bipartitely: every edge becomes a node linked to
// the nodes of its atoms.
package viz

import (
	"context"
	"encoding/xml"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"

	"github.com/cognicore/hyperkb/pkg/hyperkb/edge"
	"github.com/cognicore/hyperkb/pkg/hyperkb/sanitize"
	"github.com/cognicore/hyperkb/pkg/hyperkb/store"
)

const defaultExportLimit = 10000

// layerColors maps well-known layers to display colors.
var layerColors = map[string]string{
	"foundation": "#FF6B6B",
	"user":       "#4ECDC4",
	"agent_rule": "#45B7D1",
	"plan":       "#FFA07A",
}

const defaultColor = "#CCCCCC"

type node struct {
	ID    string
	Label string
	Color string
	Kind  string // "atom" or "edge"
}

type link struct {
	Source string
	Target string
}

// graph is the flattened bipartite view shared by all exporters.
type graph struct {
	Nodes []node
	Links []link
	Count int // hyperedges exported
}

func build(ctx context.Context, st store.Store, pattern string, limit int) (*graph, error) {
	if limit <= 0 {
		limit = defaultExportLimit
	}

	var edges []edge.Edge
	var err error
	if pattern != "" {
		if err := sanitize.Pattern(pattern); err != nil {
			return nil, err
		}
		p, err := edge.Parse(pattern)
		if err != nil {
			return nil, err
		}
		edges, err = st.Search(ctx, p, limit)
		if err != nil {
			return nil, err
		}
	} else {
		edges, err = st.All(ctx, limit)
		if err != nil {
			return nil, err
		}
	}

	g := &graph{Count: len(edges)}
	seen := make(map[string]struct{})

	addNode := func(n node) {
		if _, ok := seen[n.ID]; ok {
			return
		}
		seen[n.ID] = struct{}{}
		g.Nodes = append(g.Nodes, n)
	}

	for _, e := range edges {
		attrs, _, err := st.Attributes(ctx, e)
		if err != nil {
			return nil, err
		}
		color := defaultColor
		if c, ok := layerColors[attrs[store.KeyLayer]]; ok {
			color = c
		}

		text := e.String()
		addNode(node{ID: text, Label: text, Color: color, Kind: "edge"})
		for _, atom := range e.Atoms() {
			addNode(node{ID: atom, Label: atom, Color: color, Kind: "atom"})
			g.Links = append(g.Links, link{Source: text, Target: atom})
		}
	}

	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })
	return g, nil
}

// GraphML structures for encoding/xml.
type graphmlDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	Xmlns   string       `xml:"xmlns,attr"`
	Keys    []graphmlKey `xml:"key"`
	Graph   graphmlGraph `xml:"graph"`
}

type graphmlKey struct {
	ID   string `xml:"id,attr"`
	For  string `xml:"for,attr"`
	Name string `xml:"attr.name,attr"`
	Type string `xml:"attr.type,attr"`
}

type graphmlGraph struct {
	ID          string         `xml:"id,attr"`
	EdgeDefault string         `xml:"edgedefault,attr"`
	Nodes       []graphmlNode  `xml:"node"`
	Edges       []graphmlEdge  `xml:"edge"`
}

type graphmlNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphmlData `xml:"data"`
}

type graphmlEdge struct {
	Source string `xml:"source,attr"`
	Target string `xml:"target,attr"`
}

type graphmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// ToGraphML writes a GraphML document (yEd/Gephi compatible) and returns
// the number of hyperedges exported.
func ToGraphML(ctx context.Context, st store.Store, w io.Writer, pattern string, limit int) (int, error) {
	g, err := build(ctx, st, pattern, limit)
	if err != nil {
		return 0, err
	}

	doc := graphmlDoc{
		Xmlns: "http://graphml.graphdrawing.org/xmlns",
		Keys: []graphmlKey{
			{ID: "label", For: "node", Name: "label", Type: "string"},
			{ID: "color", For: "node", Name: "color", Type: "string"},
		},
		Graph: graphmlGraph{ID: "hyperkb", EdgeDefault: "undirected"},
	}
	for _, n := range g.Nodes {
		doc.Graph.Nodes = append(doc.Graph.Nodes, graphmlNode{
			ID: n.ID,
			Data: []graphmlData{
				{Key: "label", Value: n.Label},
				{Key: "color", Value: n.Color},
			},
		})
	}
	for _, l := range g.Links {
		doc.Graph.Edges = append(doc.Graph.Edges, graphmlEdge{Source: l.Source, Target: l.Target})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return 0, err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return 0, err
	}
	return g.Count, nil
}

// ToDOT writes a Graphviz document.
func ToDOT(ctx context.Context, st store.Store, w io.Writer, pattern string, limit int) (int, error) {
	g, err := build(ctx, st, pattern, limit)
	if err != nil {
		return 0, err
	}

	var b strings.Builder
	b.WriteString("graph hyperkb {\n")
	for _, n := range g.Nodes {
		shape := "ellipse"
		if n.Kind == "edge" {
			shape = "box"
		}
		fmt.Fprintf(&b, "  %q [label=%q, shape=%s, style=filled, fillcolor=%q];\n",
			n.ID, n.Label, shape, n.Color)
	}
	for _, l := range g.Links {
		fmt.Fprintf(&b, "  %q -- %q;\n", l.Source, l.Target)
	}
	b.WriteString("}\n")

	_, err = io.WriteString(w, b.String())
	return g.Count, err
}

var htmlPage = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>hyperkb graph</title></head>
<body>
<h1>hyperkb graph ({{.Count}} hyperedges)</h1>
<ul id="nodes">
{{- range .Nodes}}
  <li class="{{.Kind}}" data-color="{{.Color}}">{{.Label}}</li>
{{- end}}
</ul>
<ul id="links">
{{- range .Links}}
  <li>{{.Source}} &mdash; {{.Target}}</li>
{{- end}}
</ul>
</body>
</html>
`))

// ToHTML writes a standalone HTML listing of the graph, colored by layer.
func ToHTML(ctx context.Context, st store.Store, w io.Writer, pattern string, limit int) (int, error) {
	g, err := build(ctx, st, pattern, limit)
	if err != nil {
		return 0, err
	}
	return g.Count, htmlPage.Execute(w, g)
}
