package viewport

import (
	"math"
	"slices"
)

// ============================================================
// Gesture Sessions
// ============================================================

// GestureSession: перетаскивание одним указателем. Захват указателя происходит
// только после выхода за TapSlop, иначе нажатие остаётся тапом.
type GestureSession struct {
	PointerID     int
	StartX        float64
	StartY        float64
	OriginOffsetX float64
	OriginOffsetY float64
	Captured      bool
	MovedPastSlop bool
}

// PinchSession существует, пока нажаты ровно два указателя.
type PinchSession struct {
	Pointers      [2]int
	StartDistance float64
	StartScale    float64
	Center        Point
}

// ============================================================
// Pointer Handlers
// ============================================================

func (c *Controller) PointerDown(e PointerEvent) Effects {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pointers) == 0 {
		c.suppressClick = false
	}

	p := c.local(e.ClientX, e.ClientY)
	if _, ok := c.pointers[e.PointerID]; !ok {
		c.order = append(c.order, e.PointerID)
	}
	c.pointers[e.PointerID] = p

	switch len(c.pointers) {
	case 1:
		if c.drag == nil {
			c.drag = c.newSession(e.PointerID, p)
		}
	case 2:
		c.beginPinch()
	default:
		c.pinch = nil
	}
	return Effects{}
}

func (c *Controller) PointerMove(e PointerEvent) Effects {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pointers[e.PointerID]; !ok {
		return Effects{}
	}
	p := c.local(e.ClientX, e.ClientY)
	c.pointers[e.PointerID] = p

	if len(c.pointers) >= 2 {
		if c.pinch == nil || len(c.pointers) != 2 {
			return Effects{}
		}
		return Effects{Changed: c.updatePinch()}
	}

	s := c.drag
	if s == nil || s.PointerID != e.PointerID {
		return Effects{}
	}

	var fx Effects
	dx := p.X - s.StartX
	dy := p.Y - s.StartY
	if !s.Captured && math.Hypot(dx, dy) > c.cfg.TapSlop {
		s.Captured = true
		s.MovedPastSlop = true
		fx.CapturePointer = true
	}
	if s.Captured {
		c.state.OffsetX = s.OriginOffsetX + dx/c.state.Scale
		c.state.OffsetY = s.OriginOffsetY + dy/c.state.Scale
		fx.Changed = true
	}
	return fx
}

func (c *Controller) PointerUp(e PointerEvent) Effects {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.release(e.PointerID)
}

func (c *Controller) PointerCancel(e PointerEvent) Effects {
	return c.PointerUp(e)
}

func (c *Controller) release(id int) Effects {
	if _, ok := c.pointers[id]; !ok {
		return Effects{}
	}
	delete(c.pointers, id)
	c.order = slices.DeleteFunc(c.order, func(v int) bool { return v == id })

	var fx Effects
	if s := c.drag; s != nil && s.PointerID == id {
		fx.ReleasePointer = s.Captured
		if s.MovedPastSlop {
			c.suppressClick = true
		}
		c.drag = nil
	}

	switch len(c.pointers) {
	case 2:
		c.beginPinch()
	case 1:
		if c.pinch != nil {
			c.pinch = nil
			c.rebaseDrag()
		}
	case 0:
		c.pinch = nil
	}
	return fx
}

func (c *Controller) newSession(id int, p Point) *GestureSession {
	return &GestureSession{
		PointerID:     id,
		StartX:        p.X,
		StartY:        p.Y,
		OriginOffsetX: c.state.OffsetX,
		OriginOffsetY: c.state.OffsetY,
	}
}

// rebaseDrag переносит начало оставшейся сессии в текущую позицию, чтобы после щипка
// панорамирование продолжилось без скачка.
func (c *Controller) rebaseDrag() {
	s := c.drag
	if s == nil {
		return
	}
	p, ok := c.pointers[s.PointerID]
	if !ok {
		c.drag = nil
		return
	}
	s.StartX, s.StartY = p.X, p.Y
	s.OriginOffsetX, s.OriginOffsetY = c.state.OffsetX, c.state.OffsetY
}

// ============================================================
// Pinch
// ============================================================

func (c *Controller) beginPinch() {
	if len(c.order) < 2 {
		c.pinch = nil
		return
	}
	a, b := c.order[0], c.order[1]
	pa, pb := c.pointers[a], c.pointers[b]

	// Второй палец превращает тап первого в жест: последующий click не должен выбрать элемент.
	if c.drag != nil {
		c.drag.MovedPastSlop = true
	}

	c.pinch = &PinchSession{
		Pointers:      [2]int{a, b},
		StartDistance: math.Hypot(pb.X-pa.X, pb.Y-pa.Y),
		StartScale:    c.state.Scale,
		Center:        Point{X: (pa.X + pb.X) / 2, Y: (pa.Y + pb.Y) / 2},
	}
}

func (c *Controller) updatePinch() bool {
	pz := c.pinch
	if pz.StartDistance == 0 {
		return false
	}
	pa, pb := c.pointers[pz.Pointers[0]], c.pointers[pz.Pointers[1]]
	dist := math.Hypot(pb.X-pa.X, pb.Y-pa.Y)
	return c.zoomAt(pz.StartScale*dist/pz.StartDistance, pz.Center)
}
