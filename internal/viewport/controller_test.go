package viewport

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-9

func newTestController(t *testing.T, cfg Config) *Controller {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	c.SetBounds(Rect{Left: 100, Top: 50, Width: 800, Height: 600})
	return c
}

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestNew_appliesDefaults(t *testing.T) {
	c := newTestController(t, Config{})
	cfg := c.Config()
	if cfg.MinScale != DefaultMinScale || cfg.MaxScale != DefaultMaxScale {
		t.Fatalf("expected default bounds, got [%g, %g]", cfg.MinScale, cfg.MaxScale)
	}
	if got := c.State(); got != (State{Scale: 1}) {
		t.Fatalf("expected initial state {1 0 0}, got %+v", got)
	}
}

func TestNew_rejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{MinScale: 2, MaxScale: 1})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	_, err = New(Config{MinScale: 1, MaxScale: 2, InitialScale: 3})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for initial scale, got %v", err)
	}
}

func TestWheel_preservesPointUnderCursor(t *testing.T) {
	c := newTestController(t, Config{MinScale: 0.1, MaxScale: 20})
	cursor := WheelEvent{ClientX: 337, ClientY: 212}
	local := Point{X: cursor.ClientX - 100, Y: cursor.ClientY - 50}

	deltas := []float64{-1, -1, -3, 2, -1, 5, 5, -1}
	for i, d := range deltas {
		before := c.State().ToContent(local)
		cursor.DeltaY = d
		fx := c.Wheel(cursor)
		if !fx.PreventDefault {
			t.Fatalf("step %d: expected wheel to prevent default", i)
		}
		after := c.State().ToContent(local)
		if !near(before.X, after.X) || !near(before.Y, after.Y) {
			t.Fatalf("step %d: anchor drifted from %+v to %+v", i, before, after)
		}
	}
}

func TestWheel_stepDirection(t *testing.T) {
	c := newTestController(t, Config{})
	c.Wheel(WheelEvent{DeltaY: -100, ClientX: 100, ClientY: 50})
	if got := c.State().Scale; !near(got, 1.15) {
		t.Fatalf("expected scale 1.15 after zoom in, got %g", got)
	}
	c.Wheel(WheelEvent{DeltaY: 100, ClientX: 100, ClientY: 50})
	if got := c.State().Scale; !near(got, 1.15*0.85) {
		t.Fatalf("expected scale %g after zoom out, got %g", 1.15*0.85, got)
	}
}

func TestWheel_zeroDeltaOnlySuppressesScroll(t *testing.T) {
	c := newTestController(t, Config{})
	fx := c.Wheel(WheelEvent{DeltaY: 0, ClientX: 300, ClientY: 300})
	if !fx.PreventDefault || fx.Changed {
		t.Fatalf("expected prevent default without change, got %+v", fx)
	}
}

func TestZoom_neverLeavesBounds(t *testing.T) {
	c := newTestController(t, Config{MinScale: 0.4, MaxScale: 6, DoubleClickStep: 2})
	for i := 0; i < 200; i++ {
		switch i % 7 {
		case 0, 1, 2:
			c.Wheel(WheelEvent{DeltaY: -1, ClientX: float64(i), ClientY: 80})
		case 3:
			c.DoubleClick(PointerEvent{ClientX: 400, ClientY: 300})
		case 4:
			c.Key(KeyEvent{Key: "+"})
		default:
			if i > 100 {
				c.Wheel(WheelEvent{DeltaY: 1, ClientX: 500, ClientY: 500})
				c.Key(KeyEvent{Key: "-"})
				c.Key(KeyEvent{Key: "_"})
			}
		}
		s := c.State().Scale
		if s < 0.4 || s > 6 {
			t.Fatalf("step %d: scale %g out of bounds", i, s)
		}
	}
	for i := 0; i < 100; i++ {
		c.Wheel(WheelEvent{DeltaY: 1, ClientX: 500, ClientY: 500})
	}
	if got := c.State().Scale; got != 0.4 {
		t.Fatalf("expected scale clamped to 0.4, got %g", got)
	}
}

func TestKey_zoomAnchorsAtViewportCenter(t *testing.T) {
	c := newTestController(t, Config{})
	center := Point{X: 400, Y: 300}
	before := c.State().ToContent(center)
	c.Key(KeyEvent{Key: "="})
	after := c.State().ToContent(center)
	if !near(before.X, after.X) || !near(before.Y, after.Y) {
		t.Fatalf("expected center anchored, got %+v -> %+v", before, after)
	}
}

func TestKey_arrowsPanByStepOverScale(t *testing.T) {
	c := newTestController(t, Config{InitialScale: 2})
	c.Key(KeyEvent{Key: "ArrowLeft"})
	c.Key(KeyEvent{Key: "ArrowUp"})
	c.Key(KeyEvent{Key: "ArrowUp"})
	s := c.State()
	if !near(s.OffsetX, 15) || !near(s.OffsetY, 30) {
		t.Fatalf("expected offset (15, 30), got (%g, %g)", s.OffsetX, s.OffsetY)
	}
	c.Key(KeyEvent{Key: "ArrowRight"})
	c.Key(KeyEvent{Key: "ArrowDown"})
	s = c.State()
	if !near(s.OffsetX, 0) || !near(s.OffsetY, 15) {
		t.Fatalf("expected offset (0, 15), got (%g, %g)", s.OffsetX, s.OffsetY)
	}
}

func TestKey_ignoredWhileEditing(t *testing.T) {
	c := newTestController(t, Config{})
	fx := c.Key(KeyEvent{Key: "ArrowLeft", Editable: true})
	if fx.Changed || c.State().OffsetX != 0 {
		t.Fatalf("expected key ignored while editing, got %+v", c.State())
	}
}

func TestKey_zeroResets(t *testing.T) {
	c := newTestController(t, Config{})
	c.Wheel(WheelEvent{DeltaY: -1, ClientX: 250, ClientY: 250})
	c.Key(KeyEvent{Key: "ArrowDown"})
	c.Key(KeyEvent{Key: "0"})
	if got := c.State(); got != (State{Scale: 1}) {
		t.Fatalf("expected reset state, got %+v", got)
	}
}

func TestKey_zeroIgnoresInitialScale(t *testing.T) {
	c := newTestController(t, Config{InitialScale: 2})
	c.Key(KeyEvent{Key: "ArrowLeft"})
	c.Key(KeyEvent{Key: "0"})
	if got := c.State(); got != (State{Scale: 1}) {
		t.Fatalf("expected unit scale after key 0, got %+v", got)
	}

	c.Reset()
	if got := c.State(); got != (State{Scale: 2}) {
		t.Fatalf("expected explicit reset to initial scale, got %+v", got)
	}

	c = newTestController(t, Config{MinScale: 1.5, MaxScale: 3, InitialScale: 2})
	c.Key(KeyEvent{Key: "0"})
	if got := c.State(); got != (State{Scale: 1.5}) {
		t.Fatalf("expected unit scale clamped to min, got %+v", got)
	}
}

func TestDoubleClick_canBeDisabled(t *testing.T) {
	c := newTestController(t, Config{DisableDoubleClickZoom: true})
	fx := c.DoubleClick(PointerEvent{ClientX: 200, ClientY: 200})
	if fx.PreventDefault || fx.Changed || c.State().Scale != 1 {
		t.Fatalf("expected disabled double click to be inert, got %+v %+v", fx, c.State())
	}

	c = newTestController(t, Config{})
	c.DoubleClick(PointerEvent{ClientX: 200, ClientY: 200})
	if got := c.State().Scale; !near(got, 1.5) {
		t.Fatalf("expected scale 1.5 after double click, got %g", got)
	}
}

func TestTouchMove_onlyMultiTouchIsSuppressed(t *testing.T) {
	c := newTestController(t, Config{})
	if c.TouchMove(TouchEvent{Touches: 1}).PreventDefault {
		t.Fatalf("expected single touch to pass through")
	}
	if !c.TouchMove(TouchEvent{Touches: 2}).PreventDefault {
		t.Fatalf("expected multi touch to be suppressed")
	}
}

func TestTransform_usesScaledTranslation(t *testing.T) {
	s := State{Scale: 2, OffsetX: 10, OffsetY: -5}
	if got := s.Transform(); got != "translate(20px, -10px) scale(2)" {
		t.Fatalf("unexpected transform %q", got)
	}
	if got := (State{Scale: 1}).Transform(); got != "translate(0px, 0px) scale(1)" {
		t.Fatalf("unexpected identity transform %q", got)
	}
}

func TestState_localAndContentAreInverse(t *testing.T) {
	s := State{Scale: 2.5, OffsetX: -40, OffsetY: 12}
	p := Point{X: 130, Y: 75}
	back := s.ToLocal(s.ToContent(p))
	if !near(back.X, p.X) || !near(back.Y, p.Y) {
		t.Fatalf("expected round trip to %+v, got %+v", p, back)
	}
	if got := s.Transform(); got != "translate(-100px, 30px) scale(2.5)" {
		t.Fatalf("unexpected transform %q", got)
	}
}

func TestController_stringAndBounds(t *testing.T) {
	c := newTestController(t, Config{})
	c.Key(KeyEvent{Key: "ArrowLeft"})
	if got := c.String(); got != "viewport{scale=1 offset=(30, 0) mode=idle}" {
		t.Fatalf("unexpected string %q", got)
	}
	if got := c.Bounds(); got != (Rect{Left: 100, Top: 50, Width: 800, Height: 600}) {
		t.Fatalf("unexpected bounds %+v", got)
	}
}
