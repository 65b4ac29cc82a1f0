package viewer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"campus-map/internal/common/config"
	"campus-map/internal/common/metrics"
	"campus-map/internal/mapdoc"
	"campus-map/internal/viewport"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ============================================================
// Session Registry
// ============================================================

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownPreset   = errors.New("unknown preset")
	ErrSourceRequired  = errors.New("preset or src required")
	ErrNoSuchElement   = errors.New("no such element")
)

// InventoryStore получает инвентарь каждого готового документа.
type InventoryStore interface {
	SaveInventory(ctx context.Context, src string, items []mapdoc.Item) error
}

// Session связывает контроллер viewport и слой документа одного открытого вида карты.
type Session struct {
	ID        string
	Preset    string
	CreatedAt time.Time
	Viewport  *viewport.Controller
	Layer     *mapdoc.Layer

	rec     *metrics.Metrics
	store   InventoryStore
	log     zerolog.Logger
	mu      sync.Mutex
	emitted int
	readyAt time.Time
}

// Status: сводка состояния сессии для API.
type Status struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	Viewport  viewport.State     `json:"viewport"`
	Transform string             `json:"transform"`
	Mode      viewport.Mode      `json:"mode"`
	Cursor    string             `json:"cursor"`
	Document  mapdoc.MapDocument `json:"document"`
	Selector  string             `json:"selector"`
	Selected  string             `json:"selected"`
	Inventory int                `json:"inventory"`
	ReadyAt   *time.Time         `json:"ready_at,omitempty"`
	Bounds    viewport.Rect      `json:"bounds"`
}

// CreateRequest: параметры новой сессии. Поля запроса перекрывают пресет.
type CreateRequest struct {
	Preset    string           `json:"preset"`
	Src       string           `json:"src"`
	Selector  string           `json:"selector"`
	ClassName string           `json:"className"`
	IDPolicy  string           `json:"idPolicy"`
	Viewport  *viewport.Config `json:"viewport"`
}

type Options struct {
	Fetcher         mapdoc.Fetcher
	Store           InventoryStore
	Presets         config.Presets
	DefaultSelector string
	Metrics         *metrics.Metrics
	Logger          zerolog.Logger
}

type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	fetcher         mapdoc.Fetcher
	store           InventoryStore
	presets         config.Presets
	defaultSelector string
	metrics         *metrics.Metrics
	log             zerolog.Logger
}

func NewRegistry(opts Options) *Registry {
	return &Registry{
		sessions:        make(map[string]*Session),
		fetcher:         opts.Fetcher,
		store:           opts.Store,
		presets:         opts.Presets,
		defaultSelector: opts.DefaultSelector,
		metrics:         opts.Metrics,
		log:             opts.Logger.With().Str("component", "viewer").Logger(),
	}
}

func (r *Registry) Presets() []config.Preset {
	out := make([]config.Preset, 0, len(r.presets))
	for _, p := range r.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Create собирает сессию и синхронно загружает её первый документ.
func (r *Registry) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	src := strings.TrimSpace(req.Src)
	selector := strings.TrimSpace(req.Selector)
	className := strings.TrimSpace(req.ClassName)
	var vcfg viewport.Config

	if req.Preset != "" {
		p, ok := r.presets[req.Preset]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPreset, req.Preset)
		}
		if src == "" {
			src = p.Src
		}
		if selector == "" {
			selector = p.Selector
		}
		if className == "" {
			className = p.ClassName
		}
		vcfg = p.Viewport
	}
	if src == "" {
		return nil, ErrSourceRequired
	}
	if selector == "" {
		selector = r.defaultSelector
	}
	if req.Viewport != nil {
		vcfg = *req.Viewport
	}

	vp, err := viewport.New(vcfg)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        uuid.NewString(),
		Preset:    req.Preset,
		CreatedAt: time.Now().UTC(),
		Viewport:  vp,
		rec:       r.metrics,
		store:     r.store,
	}
	s.log = r.log.With().Str("session", s.ID).Logger()

	layer, err := mapdoc.New(r.fetcher, mapdoc.Options{
		Selector:  selector,
		ClassName: className,
		IDPolicy:  mapdoc.ParseIDPolicy(req.IDPolicy),
		OnSelect:  s.onSelect,
		OnReady:   s.onReady,
		Logger:    &s.log,
		Recorder:  r.metrics,
	})
	if err != nil {
		return nil, err
	}
	s.Layer = layer

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	s.log.Info().Str("src", src).Str("selector", layer.Selector()).Msg("session created")

	if err := s.Load(ctx, src); err != nil && !errors.Is(err, mapdoc.ErrSuperseded) {
		return s, err
	}
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete закрывает сессию; незавершённая загрузка отбрасывается.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Layer.Close()
	s.log.Info().Msg("session closed")
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close закрывает все сессии при остановке сервиса.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Layer.Close()
	}
}

// ============================================================
// Session
// ============================================================

// Load загружает документ и сохраняет его инвентарь в каталог. Ошибка каталога
// не влияет на опубликованный документ.
func (s *Session) Load(ctx context.Context, src string) error {
	if err := s.Layer.Load(ctx, src); err != nil {
		return err
	}

	doc, items := s.Layer.Published()
	if s.store == nil || doc.Status != mapdoc.StatusReady || doc.SourceURL != src {
		return nil
	}
	if err := s.store.SaveInventory(ctx, src, items); err != nil {
		s.log.Error().Err(err).Str("src", src).Msg("save inventory failed")
		return fmt.Errorf("save inventory: %w", err)
	}
	return nil
}

// Activate имитирует клик (key == "") или нажатие клавиши на элементе документа.
// Клик сначала проходит через перехват viewport: щелчок, завершивший
// перетаскивание, не активирует элемент.
func (s *Session) Activate(selector string, index int, key string) (ActivateResult, error) {
	handles, err := s.Layer.Find(selector)
	if err != nil {
		return ActivateResult{}, err
	}
	if index < 0 || index >= len(handles) {
		return ActivateResult{}, fmt.Errorf("%w: %q[%d]", ErrNoSuchElement, selector, index)
	}
	h := handles[index]

	var res ActivateResult
	if key == "" {
		fx := s.Viewport.ClickCapture()
		if fx.StopPropagation {
			res.Suppressed = true
			res.Selected = s.Layer.Selected()
			return res, nil
		}
		_, res.Activated = s.Layer.Click(h)
	} else {
		res.Activated = s.Layer.KeyDown(h, key)
		res.PreventDefault = res.Activated
	}
	res.Selected = s.Layer.Selected()
	return res, nil
}

type ActivateResult struct {
	Activated      bool   `json:"activated"`
	Suppressed     bool   `json:"suppressed,omitempty"`
	PreventDefault bool   `json:"preventDefault,omitempty"`
	Selected       string `json:"selected"`
}

func (s *Session) Status() Status {
	st := Status{
		ID:        s.ID,
		Preset:    s.Preset,
		CreatedAt: s.CreatedAt,
		Viewport:  s.Viewport.State(),
		Transform: s.Viewport.Transform(),
		Mode:      s.Viewport.Mode(),
		Cursor:    s.Viewport.Cursor(),
		Document:  s.Layer.Snapshot(),
		Selector:  s.Layer.Selector(),
		Selected:  s.Layer.Selected(),
		Bounds:    s.Viewport.Bounds(),
	}

	s.mu.Lock()
	st.Inventory = s.emitted
	if !s.readyAt.IsZero() {
		t := s.readyAt
		st.ReadyAt = &t
	}
	s.mu.Unlock()
	return st
}

func (s *Session) onReady(items []mapdoc.Item) {
	s.mu.Lock()
	s.emitted = len(items)
	s.readyAt = time.Now().UTC()
	s.mu.Unlock()
	s.log.Debug().Int("items", len(items)).Msg("inventory emitted")
}

func (s *Session) onSelect(id string) {
	s.log.Debug().Str("selected", id).Msg("selection changed")
}
