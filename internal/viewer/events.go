package viewer

import (
	"fmt"

	"campus-map/internal/viewport"
)

// ============================================================
// Event Dispatch
// ============================================================

// Event: входное событие viewport в сериализуемом виде.
type Event struct {
	Type      string  `json:"type"`
	PointerID int     `json:"pointerId"`
	ClientX   float64 `json:"clientX"`
	ClientY   float64 `json:"clientY"`
	DeltaY    float64 `json:"deltaY"`
	Key       string  `json:"key"`
	Editable  bool    `json:"editable"`
	Touches   int     `json:"touches"`

	// bounds
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// UnknownEventError возвращается для неизвестного Type.
type UnknownEventError struct {
	Type string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown event type %q", e.Type)
}

// Dispatch передаёт событие контроллеру viewport сессии.
func (s *Session) Dispatch(ev Event) (viewport.Effects, error) {
	vp := s.Viewport
	pe := viewport.PointerEvent{PointerID: ev.PointerID, ClientX: ev.ClientX, ClientY: ev.ClientY}

	var fx viewport.Effects
	switch ev.Type {
	case "wheel":
		fx = vp.Wheel(viewport.WheelEvent{DeltaY: ev.DeltaY, ClientX: ev.ClientX, ClientY: ev.ClientY})
	case "dblclick":
		fx = vp.DoubleClick(pe)
	case "keydown":
		fx = vp.Key(viewport.KeyEvent{Key: ev.Key, Editable: ev.Editable})
	case "pointerdown":
		fx = vp.PointerDown(pe)
	case "pointermove":
		fx = vp.PointerMove(pe)
	case "pointerup":
		fx = vp.PointerUp(pe)
	case "pointercancel":
		fx = vp.PointerCancel(pe)
	case "touchmove":
		fx = vp.TouchMove(viewport.TouchEvent{Touches: ev.Touches})
	case "clickcapture":
		fx = vp.ClickCapture()
	case "bounds":
		vp.SetBounds(viewport.Rect{Left: ev.Left, Top: ev.Top, Width: ev.Width, Height: ev.Height})
	case "reset":
		vp.Reset()
		fx.Changed = true
	default:
		return viewport.Effects{}, &UnknownEventError{Type: ev.Type}
	}

	s.rec.IncGesture(ev.Type)
	if fx.Changed {
		s.log.Debug().Str("event", ev.Type).Stringer("viewport", vp).Msg("viewport changed")
	}
	return fx, nil
}
