package viewer

import (
	"fmt"
	"html"
)

// ============================================================
// View Composition
// ============================================================

const viewportStyle = "position: relative; overflow: hidden; touch-action: none; " +
	"overscroll-behavior: contain; background: white; cursor: %s"

const contentStyle = "transform: %s; transform-origin: 0 0; will-change: transform"

// View собирает разметку: viewport-обёртка, трансформируемый слой содержимого и
// вывод слоя документа внутри.
func (s *Session) View() string {
	return fmt.Sprintf(
		`<div class="map-viewport" tabindex="0" data-session="%s" style="%s"><div class="map-content" style="%s">%s</div></div>`,
		html.EscapeString(s.ID),
		html.EscapeString(fmt.Sprintf(viewportStyle, s.Viewport.Cursor())),
		html.EscapeString(fmt.Sprintf(contentStyle, s.Viewport.Transform())),
		s.Layer.Render(),
	)
}
