package viewport

import "testing"

func TestDrag_offsetFollowsPointerOverScale(t *testing.T) {
	c := newTestController(t, Config{InitialScale: 2})
	c.Key(KeyEvent{Key: "ArrowLeft"}) // offset x = 15
	origin := c.State()

	c.PointerDown(PointerEvent{PointerID: 1, ClientX: 300, ClientY: 200})
	if c.Mode() != ModeArmed {
		t.Fatalf("expected armed after pointer down, got %s", c.Mode())
	}

	fx := c.PointerMove(PointerEvent{PointerID: 1, ClientX: 310, ClientY: 200})
	if !fx.CapturePointer {
		t.Fatalf("expected capture once past slop")
	}
	fx = c.PointerMove(PointerEvent{PointerID: 1, ClientX: 350, ClientY: 200})
	if fx.CapturePointer {
		t.Fatalf("expected capture to be acquired only once")
	}
	if c.Mode() != ModeDragging || c.Cursor() != "grabbing" {
		t.Fatalf("expected dragging mode, got %s", c.Mode())
	}

	fx = c.PointerUp(PointerEvent{PointerID: 1, ClientX: 350, ClientY: 200})
	if !fx.ReleasePointer {
		t.Fatalf("expected release of captured pointer")
	}

	got := c.State()
	if !near(got.OffsetX, origin.OffsetX+50.0/2) || !near(got.OffsetY, origin.OffsetY) {
		t.Fatalf("expected offset (%g, %g), got (%g, %g)", origin.OffsetX+25, origin.OffsetY, got.OffsetX, got.OffsetY)
	}

	if !c.ClickCapture().StopPropagation {
		t.Fatalf("expected click after drag to be suppressed")
	}
	if c.ClickCapture().StopPropagation {
		t.Fatalf("expected click suppression to be cleared after first use")
	}
	if c.Mode() != ModeIdle {
		t.Fatalf("expected idle after release, got %s", c.Mode())
	}
}

func TestDrag_belowSlopStaysTap(t *testing.T) {
	c := newTestController(t, Config{})
	c.PointerDown(PointerEvent{PointerID: 7, ClientX: 300, ClientY: 200})
	fx := c.PointerMove(PointerEvent{PointerID: 7, ClientX: 303, ClientY: 202})
	if fx.CapturePointer || fx.Changed {
		t.Fatalf("expected movement within slop to be ignored, got %+v", fx)
	}
	fx = c.PointerUp(PointerEvent{PointerID: 7, ClientX: 303, ClientY: 202})
	if fx.ReleasePointer {
		t.Fatalf("expected no release for an uncaptured pointer")
	}
	if c.ClickCapture().StopPropagation {
		t.Fatalf("expected tap click to reach content")
	}
	if got := c.State(); got != (State{Scale: 1}) {
		t.Fatalf("expected state untouched, got %+v", got)
	}
}

func TestDrag_ignoresOtherPointersAndHover(t *testing.T) {
	c := newTestController(t, Config{})
	if fx := c.PointerMove(PointerEvent{PointerID: 3, ClientX: 500, ClientY: 500}); fx.Changed {
		t.Fatalf("expected hover move without pointer down to be ignored")
	}
	if fx := c.PointerUp(PointerEvent{PointerID: 3}); fx.ReleasePointer {
		t.Fatalf("expected unknown pointer up to be ignored")
	}
}

func TestDrag_staleSuppressionClearedByNextGesture(t *testing.T) {
	c := newTestController(t, Config{})
	c.PointerDown(PointerEvent{PointerID: 1, ClientX: 100, ClientY: 100})
	c.PointerMove(PointerEvent{PointerID: 1, ClientX: 200, ClientY: 100})
	c.PointerUp(PointerEvent{PointerID: 1, ClientX: 200, ClientY: 100})

	// Браузер не прислал click (отпускание за пределами контейнера); следующий тап должен пройти.
	c.PointerDown(PointerEvent{PointerID: 2, ClientX: 150, ClientY: 150})
	c.PointerUp(PointerEvent{PointerID: 2, ClientX: 150, ClientY: 150})
	if c.ClickCapture().StopPropagation {
		t.Fatalf("expected fresh tap not to be suppressed")
	}
}

func TestPinch_scalesByDistanceRatioAroundMidpoint(t *testing.T) {
	c := newTestController(t, Config{MinScale: 0.1, MaxScale: 10})
	c.PointerDown(PointerEvent{PointerID: 1, ClientX: 300, ClientY: 250})
	c.PointerDown(PointerEvent{PointerID: 2, ClientX: 500, ClientY: 250})
	if c.Mode() != ModePinching {
		t.Fatalf("expected pinching mode, got %s", c.Mode())
	}

	mid := Point{X: 300, Y: 200} // локальные координаты середины
	anchor := c.State().ToContent(mid)

	c.PointerMove(PointerEvent{PointerID: 2, ClientX: 700, ClientY: 250})
	if got := c.State().Scale; !near(got, 2) {
		t.Fatalf("expected scale 2 after doubling distance, got %g", got)
	}
	after := c.State().ToContent(mid)
	if !near(anchor.X, after.X) || !near(anchor.Y, after.Y) {
		t.Fatalf("expected pinch anchor preserved, got %+v -> %+v", anchor, after)
	}

	c.PointerMove(PointerEvent{PointerID: 1, ClientX: 400, ClientY: 250})
	if got := c.State().Scale; !near(got, 1.5) {
		t.Fatalf("expected scale 1.5, got %g", got)
	}
	after = c.State().ToContent(mid)
	if !near(anchor.X, after.X) || !near(anchor.Y, after.Y) {
		t.Fatalf("expected pinch anchor preserved, got %+v -> %+v", anchor, after)
	}
}

func TestPinch_clampsScale(t *testing.T) {
	c := newTestController(t, Config{MinScale: 0.5, MaxScale: 3})
	c.PointerDown(PointerEvent{PointerID: 1, ClientX: 400, ClientY: 300})
	c.PointerDown(PointerEvent{PointerID: 2, ClientX: 410, ClientY: 300})
	c.PointerMove(PointerEvent{PointerID: 2, ClientX: 1400, ClientY: 300})
	if got := c.State().Scale; got != 3 {
		t.Fatalf("expected scale clamped to 3, got %g", got)
	}
	c.PointerMove(PointerEvent{PointerID: 2, ClientX: 401, ClientY: 300})
	if got := c.State().Scale; got != 0.5 {
		t.Fatalf("expected scale clamped to 0.5, got %g", got)
	}
}

func TestPinch_singleDragInertWhileTwoPointers(t *testing.T) {
	c := newTestController(t, Config{})
	c.PointerDown(PointerEvent{PointerID: 1, ClientX: 300, ClientY: 300})
	c.PointerDown(PointerEvent{PointerID: 2, ClientX: 400, ClientY: 300})

	// После сдвига обоих пальцев на 40px расстояние прежнее: масштаб и смещение возвращаются.
	fx := c.PointerMove(PointerEvent{PointerID: 1, ClientX: 340, ClientY: 300})
	fx2 := c.PointerMove(PointerEvent{PointerID: 2, ClientX: 440, ClientY: 300})
	if fx.CapturePointer || fx2.CapturePointer {
		t.Fatalf("expected no drag capture during pinch")
	}
	if got := c.State(); !near(got.Scale, 1) || !near(got.OffsetX, 0) {
		t.Fatalf("expected no pan during pinch, got %+v", got)
	}
}

func TestPinch_resumesDragWithoutJump(t *testing.T) {
	c := newTestController(t, Config{})
	c.PointerDown(PointerEvent{PointerID: 1, ClientX: 300, ClientY: 300})
	c.PointerDown(PointerEvent{PointerID: 2, ClientX: 400, ClientY: 300})
	c.PointerMove(PointerEvent{PointerID: 2, ClientX: 500, ClientY: 300})
	c.PointerUp(PointerEvent{PointerID: 2, ClientX: 500, ClientY: 300})

	before := c.State()
	c.PointerMove(PointerEvent{PointerID: 1, ClientX: 320, ClientY: 300})
	after := c.State()
	if !near(after.OffsetX, before.OffsetX+20/before.Scale) {
		t.Fatalf("expected pan relative to pinch end, got %g -> %g", before.OffsetX, after.OffsetX)
	}

	c.PointerUp(PointerEvent{PointerID: 1, ClientX: 320, ClientY: 300})
	if !c.ClickCapture().StopPropagation {
		t.Fatalf("expected click after pinch gesture to be suppressed")
	}
	if c.Mode() != ModeIdle {
		t.Fatalf("expected idle, got %s", c.Mode())
	}
}

func TestPinch_thirdPointerSuspendsUntilTwoRemain(t *testing.T) {
	c := newTestController(t, Config{MinScale: 0.1, MaxScale: 10})
	c.PointerDown(PointerEvent{PointerID: 1, ClientX: 200, ClientY: 300})
	c.PointerDown(PointerEvent{PointerID: 2, ClientX: 300, ClientY: 300})
	c.PointerDown(PointerEvent{PointerID: 3, ClientX: 600, ClientY: 300})

	if fx := c.PointerMove(PointerEvent{PointerID: 2, ClientX: 500, ClientY: 300}); fx.Changed {
		t.Fatalf("expected no zoom while three pointers are down")
	}

	c.PointerUp(PointerEvent{PointerID: 3})
	// Новая базовая дистанция 300 (200 -> 500).
	c.PointerMove(PointerEvent{PointerID: 2, ClientX: 800, ClientY: 300})
	if got := c.State().Scale; !near(got, 2) {
		t.Fatalf("expected scale 2 relative to new baseline, got %g", got)
	}
}
