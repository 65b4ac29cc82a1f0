package viewport

// ============================================================
// Input Events
// ============================================================

// PointerEvent несёт клиентские координаты указателя.
type PointerEvent struct {
	PointerID int     `json:"pointerId"`
	ClientX   float64 `json:"clientX"`
	ClientY   float64 `json:"clientY"`
}

type WheelEvent struct {
	DeltaY  float64 `json:"deltaY"`
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

// KeyEvent: Editable сообщает, что фокус находится в текстовом поле.
type KeyEvent struct {
	Key      string `json:"key"`
	Editable bool   `json:"editable"`
}

type TouchEvent struct {
	Touches int `json:"touches"`
}

// Effects: что хост должен сделать с исходным событием после обработки.
type Effects struct {
	PreventDefault  bool `json:"preventDefault,omitempty"`
	StopPropagation bool `json:"stopPropagation,omitempty"`
	CapturePointer  bool `json:"capturePointer,omitempty"`
	ReleasePointer  bool `json:"releasePointer,omitempty"`
	Changed         bool `json:"changed,omitempty"`
}

type Mode string

const (
	ModeIdle     Mode = "idle"
	ModeArmed    Mode = "armed"
	ModeDragging Mode = "dragging"
	ModePinching Mode = "pinching"
)
