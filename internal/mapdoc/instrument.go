package mapdoc

import (
	"strings"

	"golang.org/x/net/html"
)

// ============================================================
// Instrumentation
// ============================================================

const (
	ActiveClass      = "active-room"
	FallbackLabel    = "map element"
	DefaultSelector  = ".room-group, .room, .label"
	interactiveRole  = "button"
	interactiveIndex = "0"
)

// registration: что проставлено элементу при инструментировании.
type registration struct {
	Focusable bool
	Role      string
	Label     string
}

// instrument делает интерактивные элементы фокусируемыми, activatable и подписанными.
// Повторный вызов для того же документа ничего не меняет.
func (d *document) instrument() int {
	added := 0
	for i, n := range d.elems {
		if !d.interactive[i] {
			continue
		}
		if _, done := d.registered[i]; done {
			continue
		}

		if _, ok := attr(n, "tabindex"); !ok {
			setAttr(n, "tabindex", interactiveIndex)
		}
		if _, ok := attr(n, "role"); !ok {
			setAttr(n, "role", interactiveRole)
		}
		label, ok := attr(n, "aria-label")
		if !ok {
			label = accessibleLabel(n)
			setAttr(n, "aria-label", label)
		}
		role, _ := attr(n, "role")

		d.registered[i] = registration{Focusable: true, Role: role, Label: label}
		added++
	}
	return added
}

func accessibleLabel(n *html.Node) string {
	if t := nestedText(n); t != "" {
		return t
	}
	if id, _ := attr(n, "id"); id != "" {
		return id
	}
	return FallbackLabel
}

// ============================================================
// Inventory
// ============================================================

// Item: интерактивный элемент документа, доступный окружающему приложению.
type Item struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	Label  string `json:"label"`
	Source string `json:"source"`
}

func (d *document) inventory() []Item {
	items := []Item{}
	for i, n := range d.elems {
		if !d.interactive[i] {
			continue
		}
		id, _ := attr(n, "id")
		if strings.TrimSpace(id) == "" {
			continue
		}
		class, _ := attr(n, "class")
		items = append(items, Item{
			ID:     id,
			Kind:   InferKind(class),
			Label:  nestedText(n),
			Source: d.src,
		})
	}
	return items
}

// ============================================================
// Highlight
// ============================================================

func (d *document) setActive(id string, norm func(string) string, on bool) bool {
	n, ok := d.lookupID(id, norm)
	if !ok {
		return false
	}
	if on {
		addClass(n, ActiveClass)
		setAttr(n, "aria-selected", "true")
	} else {
		removeClass(n, ActiveClass)
		removeAttr(n, "aria-selected")
	}
	return true
}
