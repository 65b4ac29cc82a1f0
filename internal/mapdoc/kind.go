package mapdoc

import "strings"

// ============================================================
// Element Kinds
// ============================================================

type Kind string

const (
	KindRoom     Kind = "room"
	KindBuilding Kind = "building"
	KindParking  Kind = "parking"
	KindPOI      Kind = "poi"
)

// InferKind: эвристика по подстрокам class: room > building > parking > poi/store/dining > poi.
// Ошибка классификации допустима.
func InferKind(class string) Kind {
	c := strings.ToLower(class)
	if strings.Contains(c, "room") {
		return KindRoom
	}
	if strings.Contains(c, "building") {
		return KindBuilding
	}
	if strings.Contains(c, "parking") {
		return KindParking
	}
	if strings.Contains(c, "poi") ||
		strings.Contains(c, "store") ||
		strings.Contains(c, "dining") {
		return KindPOI
	}
	return KindPOI
}
