package mapdoc

import "golang.org/x/text/cases"

// ============================================================
// Selection
// ============================================================

// IDPolicy определяет нормализацию id. Одна и та же функция применяется
// при записи выбора и при поиске элемента.
type IDPolicy int

const (
	LiteralIDs IDPolicy = iota
	FoldedIDs
)

func (p IDPolicy) normalize(id string) string {
	if p == FoldedIDs {
		return cases.Fold().String(id)
	}
	return id
}

func (p IDPolicy) String() string {
	if p == FoldedIDs {
		return "folded"
	}
	return "literal"
}

func ParseIDPolicy(s string) IDPolicy {
	if s == "folded" || s == "fold" {
		return FoldedIDs
	}
	return LiteralIDs
}

// mark: подсвеченный элемент: id + поколение документа, без ссылки на узел.
type mark struct {
	gen uint64
	id  string
}

// syncSelection снимает старую подсветку и ставит новую. Вызывается под l.mu после
// каждого выбора и каждой фиксации документа.
func (l *Layer) syncSelection() {
	norm := l.policy.normalize

	if m := l.mark; m != nil {
		if l.doc != nil && m.gen == l.doc.gen {
			l.doc.setActive(m.id, norm, false)
		}
		l.mark = nil
	}

	if l.selected == "" || l.doc == nil {
		return
	}
	if l.doc.setActive(l.selected, norm, true) {
		l.mark = &mark{gen: l.doc.gen, id: l.selected}
	}
}
