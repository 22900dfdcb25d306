package viz

import (
	"bytes"
	"context"
	"encoding/xml"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/cognicore/hyperkb/pkg/hyperkb/edge"
	"github.com/cognicore/hyperkb/pkg/hyperkb/store"
	"github.com/cognicore/hyperkb/pkg/hyperkb/store/memstore"
)

func exportStore(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()

	add := func(text, layer string) {
		if err := s.Add(ctx, edge.MustParse(text), store.Attributes{store.KeyLayer: layer}); err != nil {
			t.Fatal(err)
		}
	}
	add("(contraindicated/P ibuprofen/C diabetes/C)", "foundation")
	add("(a/P user/C diabetes/C)", "user")
	return s
}

func TestToGraphMLWellFormed(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer

	count, err := ToGraphML(ctx, exportStore(t), &buf, "", 0)
	if err != nil {
		t.Fatalf("ToGraphML: %v", err)
	}
	if count != 2 {
		t.Errorf("exported %d hyperedges, want 2", count)
	}

	var doc graphmlDoc
	if err := xml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not well-formed XML: %v", err)
	}
	if len(doc.Graph.Nodes) == 0 || len(doc.Graph.Edges) == 0 {
		t.Error("empty graph in GraphML output")
	}
}

func TestToDOT(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer

	if _, err := ToDOT(ctx, exportStore(t), &buf, "", 0); err != nil {
		t.Fatalf("ToDOT: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "graph hyperkb {") {
		t.Errorf("unexpected DOT header: %q", out[:30])
	}
	if !strings.Contains(out, "ibuprofen/C") {
		t.Error("DOT output missing atom node")
	}
}

func TestToHTMLParses(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer

	if _, err := ToHTML(ctx, exportStore(t), &buf, "", 0); err != nil {
		t.Fatalf("ToHTML: %v", err)
	}

	doc, err := html.Parse(&buf)
	if err != nil {
		t.Fatalf("output is not parseable HTML: %v", err)
	}

	var items int
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "li" {
			items++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	// 2 hyperedge nodes + 5 distinct atoms + 6 links.
	if items != 13 {
		t.Errorf("HTML lists %d items, want 13", items)
	}
}

func TestExportWithPatternFilter(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer

	count, err := ToDOT(ctx, exportStore(t), &buf, "(contraindicated/* * *)", 0)
	if err != nil {
		t.Fatalf("ToDOT: %v", err)
	}
	if count != 1 {
		t.Errorf("filtered export count = %d, want 1", count)
	}
}
