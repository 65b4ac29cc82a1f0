package mapdoc

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// ============================================================
// Interaction Layer
// ============================================================

var (
	ErrSuperseded      = errors.New("document load superseded")
	ErrInvalidSelector = errors.New("invalid selector")
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// MapDocument: опубликованное состояние документа. Markup и Error взаимоисключающие.
type MapDocument struct {
	SourceURL  string `json:"sourceUrl"`
	Status     Status `json:"status"`
	Markup     string `json:"-"`
	Error      string `json:"error,omitempty"`
	Generation uint64 `json:"generation"`
}

// Recorder принимает счётчики слоя; *metrics.Metrics удовлетворяет интерфейсу.
type Recorder interface {
	IncDocumentLoad(outcome string)
	AddSanitizerRemovals(kind string, n int)
	IncSelection()
}

type nopRecorder struct{}

func (nopRecorder) IncDocumentLoad(string)           {}
func (nopRecorder) AddSanitizerRemovals(string, int) {}
func (nopRecorder) IncSelection()                    {}

type Options struct {
	Selector  string
	ClassName string
	IDPolicy  IDPolicy
	OnSelect  func(id string)
	OnReady   func(items []Item)
	Logger    *zerolog.Logger
	Recorder  Recorder
}

// Layer загружает, санитизирует и инструментирует документ, владеет выбором и инвентарём.
type Layer struct {
	fetcher   Fetcher
	selector  string
	matcher   cascadia.SelectorGroup
	className string
	policy    IDPolicy
	onSelect  func(string)
	onReady   func([]Item)
	log       zerolog.Logger
	rec       Recorder

	mu       sync.Mutex
	seq      uint64
	cancel   context.CancelFunc
	src      string
	status   Status
	markup   string
	loadErr  string
	gen      uint64
	doc      *document
	items    []Item
	selected string
	mark     *mark
}

func New(fetcher Fetcher, opts Options) (*Layer, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher required")
	}

	selector := strings.TrimSpace(opts.Selector)
	if selector == "" {
		selector = DefaultSelector
	}
	matcher, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, selector, err)
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "mapdoc").Logger()
	}
	var rec Recorder = nopRecorder{}
	if opts.Recorder != nil {
		rec = opts.Recorder
	}

	return &Layer{
		fetcher:   fetcher,
		selector:  selector,
		matcher:   matcher,
		className: opts.ClassName,
		policy:    opts.IDPolicy,
		onSelect:  opts.OnSelect,
		onReady:   opts.OnReady,
		log:       log,
		rec:       rec,
		status:    StatusIdle,
	}, nil
}

func (l *Layer) Selector() string {
	return l.selector
}

// ============================================================
// Load
// ============================================================

// Load загружает документ и заменяет текущий. Более поздний вызов отменяет текущую
// загрузку; её результат отбрасывается и Load возвращает ErrSuperseded. Ошибки
// транспорта публикуются как StatusFailed, а не возвращаются.
func (l *Layer) Load(ctx context.Context, src string) error {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.seq++
	seq := l.seq
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	l.cancel = cancel
	l.src = src
	l.status = StatusLoading
	l.markup, l.loadErr = "", ""
	l.doc, l.items = nil, nil
	l.mu.Unlock()

	l.log.Debug().Str("src", src).Uint64("seq", seq).Msg("loading document")

	raw, err := l.fetcher.Fetch(ctx, src)
	var sanitized string
	var rep SanitizeReport
	if err == nil {
		sanitized, rep = SanitizeWithReport(raw)
	}

	l.mu.Lock()
	if seq != l.seq {
		l.mu.Unlock()
		l.rec.IncDocumentLoad("superseded")
		l.log.Debug().Str("src", src).Uint64("seq", seq).Msg("discarding superseded load")
		return ErrSuperseded
	}
	l.cancel = nil

	if err != nil {
		l.status = StatusFailed
		l.loadErr = err.Error()
		l.mu.Unlock()
		l.rec.IncDocumentLoad("error")
		l.log.Warn().Err(err).Str("src", src).Msg("document load failed")
		return nil
	}

	items, err := l.commit(src, sanitized)
	onReady := l.onReady
	l.mu.Unlock()

	if err != nil {
		l.rec.IncDocumentLoad("error")
		l.log.Warn().Err(err).Str("src", src).Msg("document commit failed")
		return nil
	}

	l.rec.IncDocumentLoad("ok")
	l.rec.AddSanitizerRemovals("script", rep.Scripts)
	l.rec.AddSanitizerRemovals("handler", rep.Handlers)
	l.rec.AddSanitizerRemovals("link", rep.Links)
	l.log.Info().
		Str("src", src).
		Int("interactive", len(items)).
		Int("stripped", rep.Total()).
		Msg("document ready")

	if onReady != nil {
		onReady(slices.Clone(items))
	}
	return nil
}

// commit фиксирует санитизированную разметку, инструментирует её, повторно применяет
// выбор и строит инвентарь. Вызывается под l.mu.
func (l *Layer) commit(src, sanitized string) ([]Item, error) {
	l.gen++
	doc, err := parseDocument(sanitized, src, l.gen, l.matcher)
	if err != nil {
		l.status = StatusFailed
		l.loadErr = err.Error()
		return nil, err
	}

	doc.instrument()
	l.doc = doc
	l.markup = sanitized
	l.status = StatusReady
	l.syncSelection()
	l.items = doc.inventory()
	return l.items, nil
}

// Close отменяет незавершённую загрузку; её результат будет отброшен.
func (l *Layer) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.seq++
}

// ============================================================
// Selection & Activation
// ============================================================

// Select: внешняя запись выбора. Пустой id снимает выделение.
func (l *Layer) Select(id string) {
	l.setSelected(id)
}

func (l *Layer) Selected() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selected
}

func (l *Layer) setSelected(id string) {
	l.mu.Lock()
	id = l.policy.normalize(id)
	changed := id != l.selected
	l.selected = id
	l.syncSelection()
	onSelect := l.onSelect
	l.mu.Unlock()

	if !changed {
		return
	}
	l.rec.IncSelection()
	if onSelect != nil {
		onSelect(id)
	}
}

// Click: делегированный клик по элементу: выбирается ближайший интерактивный предок.
func (l *Layer) Click(target Handle) (string, bool) {
	l.mu.Lock()
	var id string
	var ok bool
	if l.doc != nil {
		var n *html.Node
		if n, ok = l.doc.closestInteractive(target); ok {
			id, _ = attr(n, "id")
		}
	}
	l.mu.Unlock()

	if !ok {
		return "", false
	}
	l.setSelected(id)
	return l.Selected(), true
}

// KeyDown активирует элемент по Enter или пробелу. Возвращает true, если событие
// обработано и действие браузера по умолчанию нужно отменить.
func (l *Layer) KeyDown(target Handle, key string) bool {
	if key != "Enter" && key != " " {
		return false
	}
	_, ok := l.Click(target)
	return ok
}

// ============================================================
// Queries
// ============================================================

// Find возвращает хендлы элементов текущего документа, подходящих под селектор.
func (l *Layer) Find(selector string) ([]Handle, error) {
	m, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, selector, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.doc == nil {
		return nil, nil
	}
	return l.doc.find(m), nil
}

func (l *Layer) Inventory() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

func (l *Layer) Snapshot() MapDocument {
	doc, _ := l.Published()
	return doc
}

// Published возвращает снимок и инвентарь одной и той же версии документа.
func (l *Layer) Published() (MapDocument, []Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return MapDocument{
		SourceURL:  l.src,
		Status:     l.status,
		Markup:     l.markup,
		Error:      l.loadErr,
		Generation: l.gen,
	}, slices.Clone(l.items)
}

// Render отдаёт то, что должно быть вставлено в страницу: заглушку загрузки,
// панель ошибки или инструментированную разметку.
func (l *Layer) Render() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	class := strings.TrimSpace("inline-svg " + l.className)
	switch l.status {
	case StatusFailed:
		return fmt.Sprintf(`<div class="svg-error" role="alert">Error loading SVG: %s</div>`,
			html.EscapeString(l.loadErr))
	case StatusReady:
		body, err := l.doc.render()
		if err != nil {
			l.log.Error().Err(err).Str("src", l.src).Msg("render failed")
			return fmt.Sprintf(`<div class="%s" aria-busy="true"></div>`, html.EscapeString(class))
		}
		return fmt.Sprintf(`<div class="%s" aria-busy="false" style="isolation: isolate">%s</div>`,
			html.EscapeString(class), body)
	default:
		return fmt.Sprintf(`<div class="%s" aria-busy="true"></div>`, html.EscapeString(class))
	}
}
