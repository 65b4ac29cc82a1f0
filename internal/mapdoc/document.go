package mapdoc

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ============================================================
// Document Arena
// ============================================================

// Handle адресует элемент конкретной версии документа. После перезагрузки
// старые хендлы перестают резолвиться.
type Handle struct {
	Generation uint64 `json:"generation"`
	Index      int    `json:"index"`
}

// document: разобранная санитизированная разметка. Элементы лежат в арене
// в порядке документа; узлы наружу не отдаются.
type document struct {
	gen         uint64
	src         string
	roots       []*html.Node
	elems       []*html.Node
	pos         map[*html.Node]int
	interactive []bool
	registered  map[int]registration
}

// parseDocument принимает только результат Sanitize.
func parseDocument(sanitized, src string, gen uint64, m cascadia.Matcher) (*document, error) {
	roots, err := parseFragment(sanitized)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	d := &document{
		gen:        gen,
		src:        src,
		roots:      roots,
		pos:        make(map[*html.Node]int),
		registered: make(map[int]registration),
	}
	for _, r := range roots {
		d.collect(r, m)
	}
	return d, nil
}

func (d *document) collect(n *html.Node, m cascadia.Matcher) {
	if n.Type == html.ElementNode {
		d.pos[n] = len(d.elems)
		d.elems = append(d.elems, n)
		d.interactive = append(d.interactive, m.Match(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.collect(c, m)
	}
}

func (d *document) node(h Handle) (*html.Node, bool) {
	if h.Generation != d.gen || h.Index < 0 || h.Index >= len(d.elems) {
		return nil, false
	}
	return d.elems[h.Index], true
}

func (d *document) find(m cascadia.Matcher) []Handle {
	var out []Handle
	for i, n := range d.elems {
		if m.Match(n) {
			out = append(out, Handle{Generation: d.gen, Index: i})
		}
	}
	return out
}

// closestInteractive поднимается от цели к ближайшему интерактивному предку (включая саму цель).
func (d *document) closestInteractive(h Handle) (*html.Node, bool) {
	n, ok := d.node(h)
	if !ok {
		return nil, false
	}
	for ; n != nil; n = n.Parent {
		if i, ok := d.pos[n]; ok && d.interactive[i] {
			return n, true
		}
	}
	return nil, false
}

// lookupID ищет первый элемент с данным id; norm применяется к обеим сторонам сравнения.
func (d *document) lookupID(id string, norm func(string) string) (*html.Node, bool) {
	if id == "" {
		return nil, false
	}
	for _, n := range d.elems {
		if v, ok := attr(n, "id"); ok && norm(v) == id {
			return n, true
		}
	}
	return nil, false
}

func (d *document) render() (string, error) {
	var b strings.Builder
	for _, r := range d.roots {
		if err := html.Render(&b, r); err != nil {
			return "", fmt.Errorf("render document: %w", err)
		}
	}
	return b.String(), nil
}

// ============================================================
// Node helpers
// ============================================================

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

func hasClass(n *html.Node, class string) bool {
	v, _ := attr(n, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func addClass(n *html.Node, class string) {
	if hasClass(n, class) {
		return
	}
	v, _ := attr(n, "class")
	setAttr(n, "class", strings.TrimSpace(v+" "+class))
}

func removeClass(n *html.Node, class string) {
	v, ok := attr(n, "class")
	if !ok {
		return
	}
	fields := strings.Fields(v)
	kept := fields[:0]
	for _, c := range fields {
		if c != class {
			kept = append(kept, c)
		}
	}
	setAttr(n, "class", strings.Join(kept, " "))
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// nestedText: содержимое первого вложенного <text> (без самого элемента).
func nestedText(n *html.Node) string {
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "text" {
				found = c
				return true
			}
			if walk(c) {
				return true
			}
		}
		return false
	}
	if !walk(n) {
		return ""
	}
	return strings.TrimSpace(textContent(found))
}
