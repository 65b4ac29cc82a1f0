package viewport

import (
	"fmt"
	"sync"
)

// ============================================================
// Controller
// ============================================================

// Controller владеет масштабом/смещением и конечным автоматом жестов.
// Ввода-вывода нет: размеры viewport и состояние фокуса передаются явно.
type Controller struct {
	mu     sync.Mutex
	cfg    Config
	bounds Rect
	state  State

	drag     *GestureSession
	pinch    *PinchSession
	pointers map[int]Point // pointerId -> последняя локальная позиция
	order    []int         // порядок нажатия указателей

	suppressClick bool
}

func New(cfg Config) (*Controller, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		cfg:      cfg,
		state:    State{Scale: cfg.InitialScale},
		pointers: make(map[int]Point),
	}, nil
}

func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Transform() string {
	return c.State().Transform()
}

// SetBounds задаёт клиентский прямоугольник viewport.
func (c *Controller) SetBounds(r Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bounds = r
}

func (c *Controller) Bounds() Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bounds
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode()
}

func (c *Controller) mode() Mode {
	switch {
	case c.pinch != nil || len(c.pointers) >= 2:
		return ModePinching
	case c.drag != nil && c.drag.Captured:
		return ModeDragging
	case c.drag != nil:
		return ModeArmed
	}
	return ModeIdle
}

func (c *Controller) Cursor() string {
	if c.Mode() == ModeDragging {
		return "grabbing"
	}
	return "grab"
}

// Reset возвращает {InitialScale, 0, 0}.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Controller) reset() {
	c.state = State{Scale: c.cfg.InitialScale}
}

// ============================================================
// Zoom
// ============================================================

// zoomAt меняет масштаб так, что точка p (локальные координаты) остаётся под тем же
// местом содержимого.
func (c *Controller) zoomAt(next float64, p Point) bool {
	prev := c.state.Scale
	next = c.cfg.clamp(next)
	if next == prev {
		return false
	}
	c.state.OffsetX += p.X/next - p.X/prev
	c.state.OffsetY += p.Y/next - p.Y/prev
	c.state.Scale = next
	return true
}

func (c *Controller) local(clientX, clientY float64) Point {
	return Point{X: clientX - c.bounds.Left, Y: clientY - c.bounds.Top}
}

// Wheel: отрицательная дельта приближает, положительная отдаляет; прокрутка страницы подавляется.
func (c *Controller) Wheel(e WheelEvent) Effects {
	c.mu.Lock()
	defer c.mu.Unlock()

	fx := Effects{PreventDefault: true}
	var dir float64
	switch {
	case e.DeltaY < 0:
		dir = 1
	case e.DeltaY > 0:
		dir = -1
	default:
		return fx
	}
	fx.Changed = c.zoomAt(c.state.Scale*(1+c.cfg.WheelStep*dir), c.local(e.ClientX, e.ClientY))
	return fx
}

func (c *Controller) DoubleClick(e PointerEvent) Effects {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.DisableDoubleClickZoom {
		return Effects{}
	}
	return Effects{
		PreventDefault: true,
		Changed:        c.zoomAt(c.state.Scale*(1+c.cfg.DoubleClickStep), c.local(e.ClientX, e.ClientY)),
	}
}

// Key обрабатывает клавиатурный зум и панорамирование. Ввод в текстовые поля игнорируется.
// "0" возвращает масштаб 1 (в пределах MinScale..MaxScale) и нулевое смещение,
// независимо от InitialScale.
func (c *Controller) Key(e KeyEvent) Effects {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e.Editable {
		return Effects{}
	}

	step := c.cfg.PanStep / c.state.Scale
	center := c.bounds.Center()

	switch e.Key {
	case "+", "=":
		return Effects{Changed: c.zoomAt(c.state.Scale*(1+c.cfg.WheelStep), center)}
	case "-", "_":
		return Effects{Changed: c.zoomAt(c.state.Scale*(1-c.cfg.WheelStep), center)}
	case "0":
		c.state = State{Scale: c.cfg.clamp(1)}
	case "ArrowLeft":
		c.state.OffsetX += step
	case "ArrowRight":
		c.state.OffsetX -= step
	case "ArrowUp":
		c.state.OffsetY += step
	case "ArrowDown":
		c.state.OffsetY -= step
	default:
		return Effects{}
	}
	return Effects{Changed: true}
}

// TouchMove подавляет жесты браузера только при мультитаче.
func (c *Controller) TouchMove(e TouchEvent) Effects {
	return Effects{PreventDefault: e.Touches > 1}
}

// ClickCapture гасит синтетический click после завершённого перетаскивания ровно один раз.
func (c *Controller) ClickCapture() Effects {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.suppressClick {
		return Effects{}
	}
	c.suppressClick = false
	return Effects{PreventDefault: true, StopPropagation: true}
}

func (c *Controller) String() string {
	s := c.State()
	return fmt.Sprintf("viewport{scale=%g offset=(%g, %g) mode=%s}", s.Scale, s.OffsetX, s.OffsetY, c.Mode())
}
