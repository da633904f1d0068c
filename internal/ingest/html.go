package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/mrsclass/internal/model"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// HTMLAdapter reads requirement exports saved as HTML. Table rows are
// preferred; a page without tables yields one requirement per paragraph or
// list item.
type HTMLAdapter struct {
	logger *zap.Logger
}

// NewHTMLAdapter creates an HTML adapter
func NewHTMLAdapter(logger *zap.Logger) *HTMLAdapter {
	return &HTMLAdapter{logger: orNop(logger)}
}

// Name returns the adapter name
func (a *HTMLAdapter) Name() string {
	return "html"
}

// CanHandle checks the file extension
func (a *HTMLAdapter) CanHandle(path string) bool {
	return hasExt(path, ".html", ".htm")
}

// Parse extracts requirements from tables, then from paragraphs
func (a *HTMLAdapter) Parse(r io.Reader) ([]model.RequirementInput, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var out []model.RequirementInput
	for _, table := range findAll(doc, isElement("table")) {
		out = append(out, a.tableRecords(table)...)
	}
	if len(out) > 0 {
		return out, nil
	}

	for _, n := range findAll(doc, isElement("p", "li")) {
		if text := visibleText(n); text != "" {
			out = append(out, model.RequirementInput{RawText: text})
		}
	}
	return out, nil
}

func (a *HTMLAdapter) tableRecords(table *html.Node) []model.RequirementInput {
	var header []string
	var out []model.RequirementInput

	for _, row := range findAll(table, isElement("tr")) {
		headings := findAll(row, isElement("th"))
		if header == nil && len(headings) > 0 {
			for _, th := range headings {
				header = append(header, visibleText(th))
			}
			continue
		}

		var cells []string
		for _, td := range findAll(row, isElement("td")) {
			cells = append(cells, visibleText(td))
		}

		switch {
		case len(cells) == 0:
			continue
		case header != nil:
			rec, ok := recordFrom(rowFields(header, cells))
			if !ok {
				a.logger.Warn("skipping empty table row")
				continue
			}
			out = append(out, rec)
		case len(cells) == 1:
			if cells[0] != "" {
				out = append(out, model.RequirementInput{RawText: cells[0]})
			}
		default:
			if cells[0] != "" || cells[1] != "" {
				out = append(out, model.RequirementInput{ReqID: cells[0], RawText: cells[1]})
			}
		}
	}
	return out
}

func isElement(names ...string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, name := range names {
			if n.Data == name {
				return true
			}
		}
		return false
	}
}

// findAll finds all nodes matching a predicate. Matches are not descended
// into, so nested tables and list items are not read twice.
func findAll(n *html.Node, predicate func(*html.Node) bool) []*html.Node {
	var results []*html.Node

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node != n && predicate(node) {
			results = append(results, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return results
}

// visibleText joins the text nodes under n, skipping scripts and styles
func visibleText(n *html.Node) string {
	var parts []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return strings.Join(parts, " ")
}
