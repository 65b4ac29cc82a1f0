package viewport

import (
	"fmt"
	"strconv"
)

// ============================================================
// Geometry & State
// ============================================================

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect: клиентский прямоугольник viewport (аналог getBoundingClientRect).
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Center() Point {
	return Point{X: r.Width / 2, Y: r.Height / 2}
}

// State: масштаб и смещение содержимого. Смещение хранится в единицах содержимого:
// local = Scale * (content + Offset).
type State struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// ToLocal переводит точку содержимого в координаты viewport.
func (s State) ToLocal(p Point) Point {
	return Point{
		X: s.Scale * (p.X + s.OffsetX),
		Y: s.Scale * (p.Y + s.OffsetY),
	}
}

// ToContent переводит точку viewport в координаты содержимого.
func (s State) ToContent(p Point) Point {
	return Point{
		X: p.X/s.Scale - s.OffsetX,
		Y: p.Y/s.Scale - s.OffsetY,
	}
}

// Transform возвращает CSS transform для обёртки содержимого (transform-origin: 0 0).
// Сдвиг равен положению начала координат содержимого в viewport.
func (s State) Transform() string {
	origin := s.ToLocal(Point{})
	return fmt.Sprintf("translate(%spx, %spx) scale(%s)",
		formatFloat(origin.X), formatFloat(origin.Y), formatFloat(s.Scale))
}

func formatFloat(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
