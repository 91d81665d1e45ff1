// Package document wraps goquery with the small surface the platform
// scrapers need: selector lookups and whitespace-joined fragment text.
package document

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type Document struct {
	doc *goquery.Document
}

// Fragment is one element of a parsed document.
type Fragment struct {
	sel *goquery.Selection
}

func Parse(markup string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

func (d *Document) FindAll(selector string) []*Fragment {
	return fragments(d.doc.Find(selector))
}

func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Text returns the document body text.
func (d *Document) Text() string {
	return nodeText(d.doc.Find("body").Nodes)
}

func (f *Fragment) Find(selector string) *Fragment {
	s := f.sel.Find(selector).First()
	if s.Length() == 0 {
		return nil
	}
	return &Fragment{sel: s}
}

func (f *Fragment) FindAll(selector string) []*Fragment {
	return fragments(f.sel.Find(selector))
}

func (f *Fragment) Attr(name string) (string, bool) {
	return f.sel.Attr(name)
}

// Text joins the fragment's text nodes with single spaces, skipping
// script and style content.
func (f *Fragment) Text() string {
	return nodeText(f.sel.Nodes)
}

func fragments(s *goquery.Selection) []*Fragment {
	out := make([]*Fragment, 0, s.Length())
	s.Each(func(_ int, item *goquery.Selection) {
		out = append(out, &Fragment{sel: item})
	})
	return out
}

func nodeText(nodes []*html.Node) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style || n.DataAtom == atom.Noscript {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}
