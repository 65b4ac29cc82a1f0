package mapdoc

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ============================================================
// Sanitizer
// ============================================================

// SanitizeReport считает удалённые конструкции.
type SanitizeReport struct {
	Scripts  int
	Handlers int
	Links    int
}

func (r SanitizeReport) Total() int {
	return r.Scripts + r.Handlers + r.Links
}

// Sanitize вычищает исполняемое содержимое из недоверенной разметки:
// элементы <script>, атрибуты on* и srcdoc, ссылки со схемой javascript:/vbscript:,
// SVG анимации, переписывающие href или обработчики.
func Sanitize(markup string) string {
	out, _ := SanitizeWithReport(markup)
	return out
}

func SanitizeWithReport(markup string) (string, SanitizeReport) {
	var rep SanitizeReport

	nodes, err := parseFragment(markup)
	if err != nil {
		return "", rep
	}

	var b strings.Builder
	for _, n := range nodes {
		if drop(n, &rep) {
			continue
		}
		scrub(n, &rep)
		if err := html.Render(&b, n); err != nil {
			return "", rep
		}
	}
	return b.String(), rep
}

func parseFragment(markup string) ([]*html.Node, error) {
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	return html.ParseFragment(strings.NewReader(markup), container)
}

func scrub(n *html.Node, rep *SanitizeReport) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if drop(c, rep) {
			n.RemoveChild(c)
		} else {
			scrub(c, rep)
		}
		c = next
	}

	if n.Type != html.ElementNode || len(n.Attr) == 0 {
		return
	}

	kept := n.Attr[:0]
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		switch {
		case a.Namespace == "" && strings.HasPrefix(key, "on"):
			rep.Handlers++
		case a.Namespace == "" && key == "srcdoc":
			rep.Scripts++
		case linkAttrs[key] && scriptScheme(a.Val):
			rep.Links++
		default:
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

// drop сообщает, что элемент удаляется целиком, и учитывает его в отчёте.
func drop(n *html.Node, rep *SanitizeReport) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if strings.EqualFold(n.Data, "script") {
		rep.Scripts++
		return true
	}
	if !animationElements[strings.ToLower(n.Data)] {
		return false
	}
	switch target := animatedAttr(n); {
	case target == "href":
		rep.Links++
		return true
	case strings.HasPrefix(target, "on"):
		rep.Handlers++
		return true
	}
	return false
}

var animationElements = map[string]bool{
	"animate":          true,
	"set":              true,
	"animatetransform": true,
	"animatemotion":    true,
}

// animatedAttr возвращает attributeName без префикса пространства имён.
func animatedAttr(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, "attributeName") {
			name := strings.ToLower(strings.TrimSpace(a.Val))
			if i := strings.LastIndexByte(name, ':'); i >= 0 {
				name = name[i+1:]
			}
			return name
		}
	}
	return ""
}

// href покрывает и xlink:href: парсер выносит префикс в Namespace.
var linkAttrs = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"data":       true,
}

func scriptScheme(v string) bool {
	// Браузер игнорирует пробелы и управляющие символы внутри схемы.
	cleaned := strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return r
	}, v)
	cleaned = strings.ToLower(cleaned)
	return strings.HasPrefix(cleaned, "javascript:") || strings.HasPrefix(cleaned, "vbscript:")
}
