package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"campus-map/internal/assets"
	"campus-map/internal/catalog"
	"campus-map/internal/mapdoc"
	"campus-map/internal/viewer"
	"campus-map/internal/viewport"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

// ============================================================
// Viewer Handler
// ============================================================

// Catalog: поиск по инвентарю карт.
type Catalog interface {
	Search(ctx context.Context, query, source string, limit int) ([]catalog.Entry, error)
}

type ViewerHandler struct {
	sessions *viewer.Registry
	maps     *assets.MapStore
	catalog  Catalog
	log      zerolog.Logger
}

func NewViewerHandler(sessions *viewer.Registry, maps *assets.MapStore, cat Catalog, log zerolog.Logger) *ViewerHandler {
	return &ViewerHandler{
		sessions: sessions,
		maps:     maps,
		catalog:  cat,
		log:      log.With().Str("component", "handlers").Logger(),
	}
}

// Register вешает маршруты просмотрщика на роутер.
func (h *ViewerHandler) Register(app fiber.Router) {
	app.Get("/docs", SwaggerUI)
	app.Get("/docs/openapi.yaml", OpenAPISpec)
	app.Get("/maps/*", h.GetMap)

	api := app.Group("/api/v1")
	api.Get("/maps", h.ListMaps)
	api.Post("/maps", h.UploadMap)
	api.Get("/catalog", h.SearchCatalog)

	api.Post("/sessions", h.CreateSession)
	api.Get("/sessions/:id", h.GetSession)
	api.Delete("/sessions/:id", h.DeleteSession)
	api.Post("/sessions/:id/load", h.LoadDocument)
	api.Post("/sessions/:id/events", h.DispatchEvents)
	api.Post("/sessions/:id/select", h.Select)
	api.Post("/sessions/:id/activate", h.Activate)
	api.Get("/sessions/:id/inventory", h.Inventory)
	api.Get("/sessions/:id/view", h.View)
}

// ============================================================
// Maps
// ============================================================

// GetMap отдаёт svg файл карты без кэширования.
func (h *ViewerHandler) GetMap(c fiber.Ctx) error {
	path, err := h.maps.Resolve(c.Params("*"))
	if err != nil {
		switch {
		case errors.Is(err, assets.ErrInvalidName):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid map name"})
		case errors.Is(err, assets.ErrNotFound):
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "map not found"})
		}
		h.log.Error().Err(err).Msg("resolve map")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	c.Set("Cache-Control", "no-store")
	c.Set("Content-Type", "image/svg+xml")
	return c.SendFile(path)
}

func (h *ViewerHandler) ListMaps(c fiber.Ctx) error {
	files, err := h.maps.List()
	if err != nil {
		h.log.Error().Err(err).Msg("list maps")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "list maps failed"})
	}
	return c.JSON(fiber.Map{
		"files":   files,
		"presets": h.sessions.Presets(),
	})
}

// UploadMap сохраняет svg из multipart поля file; поле name задаёт путь в каталоге карт.
func (h *ViewerHandler) UploadMap(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "file required"})
	}
	name := strings.TrimSpace(c.FormValue("name", filepath.Base(fileHeader.Filename)))

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read file"})
	}

	if err := h.maps.Save(name, data); err != nil {
		if errors.Is(err, assets.ErrInvalidName) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid map name"})
		}
		h.log.Error().Err(err).Str("name", name).Msg("save map")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save file"})
	}

	h.log.Info().Str("name", name).Int("bytes", len(data)).Msg("map uploaded")
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"name": name,
		"url":  "/maps/" + name,
	})
}

// SearchCatalog ищет элементы по id/подписи: ?q=&source=&limit=
func (h *ViewerHandler) SearchCatalog(c fiber.Ctx) error {
	if h.catalog == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": "catalog unavailable"})
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid limit"})
		}
		limit = n
	}

	entries, err := h.catalog.Search(c.Context(), c.Query("q"), c.Query("source"), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("search catalog")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "search failed"})
	}
	return c.JSON(fiber.Map{"items": entries})
}

// ============================================================
// Sessions
// ============================================================

func (h *ViewerHandler) CreateSession(c fiber.Ctx) error {
	var req viewer.CreateRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err)
	}

	s, err := h.sessions.Create(c.Context(), req)
	if s == nil {
		return h.fail(c, err)
	}
	if err != nil {
		h.log.Warn().Err(err).Str("session", s.ID).Msg("session created with errors")
	}
	return c.Status(http.StatusCreated).JSON(s.Status())
}

func (h *ViewerHandler) GetSession(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(s.Status())
}

func (h *ViewerHandler) DeleteSession(c fiber.Ctx) error {
	if err := h.sessions.Delete(c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

type loadRequest struct {
	Src string `json:"src"`
}

// LoadDocument переключает документ сессии. Загрузка, вытесненная более поздней, отвечает 409.
func (h *ViewerHandler) LoadDocument(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}

	var req loadRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	if strings.TrimSpace(req.Src) == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "src required"})
	}

	if err := s.Load(c.Context(), strings.TrimSpace(req.Src)); err != nil {
		if errors.Is(err, mapdoc.ErrSuperseded) {
			return c.Status(http.StatusConflict).JSON(fiber.Map{"error": "load superseded"})
		}
		h.log.Warn().Err(err).Str("session", s.ID).Msg("load finished with errors")
	}
	return c.JSON(s.Status())
}

type eventsResponse struct {
	Effects   []viewport.Effects `json:"effects"`
	State     viewport.State     `json:"state"`
	Transform string             `json:"transform"`
	Mode      viewport.Mode      `json:"mode"`
	Cursor    string             `json:"cursor"`
}

// DispatchEvents применяет пачку событий по порядку и возвращает эффекты каждого.
func (h *ViewerHandler) DispatchEvents(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}

	var events []viewer.Event
	if err := decodeBody(c, &events); err != nil {
		return badRequest(c, err)
	}

	resp := eventsResponse{Effects: make([]viewport.Effects, 0, len(events))}
	for _, ev := range events {
		fx, err := s.Dispatch(ev)
		if err != nil {
			return h.fail(c, err)
		}
		resp.Effects = append(resp.Effects, fx)
	}
	resp.State = s.Viewport.State()
	resp.Transform = resp.State.Transform()
	resp.Mode = s.Viewport.Mode()
	resp.Cursor = s.Viewport.Cursor()
	return c.JSON(resp)
}

type selectRequest struct {
	ID string `json:"id"`
}

func (h *ViewerHandler) Select(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	var req selectRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	s.Layer.Select(req.ID)
	return c.JSON(fiber.Map{"selected": s.Layer.Selected()})
}

type activateRequest struct {
	Selector string `json:"selector"`
	Index    int    `json:"index"`
	Key      string `json:"key"`
}

func (h *ViewerHandler) Activate(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	var req activateRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	if strings.TrimSpace(req.Selector) == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "selector required"})
	}

	res, err := s.Activate(req.Selector, req.Index, req.Key)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

func (h *ViewerHandler) Inventory(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	doc := s.Layer.Snapshot()
	return c.JSON(fiber.Map{
		"source": doc.SourceURL,
		"status": doc.Status,
		"items":  s.Layer.Inventory(),
	})
}

// View отдаёт собранную HTML разметку вида карты.
func (h *ViewerHandler) View(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	c.Set("Content-Type", "text/html; charset=utf-8")
	c.Set("Cache-Control", "no-store")
	return c.SendString(s.View())
}

// ============================================================
// Helpers
// ============================================================

var (
	errEmptyBody   = errors.New("empty body")
	errInvalidJSON = errors.New("invalid json")
)

func decodeBody(c fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return errEmptyBody
	}
	if err := json.Unmarshal(c.Body(), dst); err != nil {
		return errInvalidJSON
	}
	return nil
}

func badRequest(c fiber.Ctx, err error) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

func (h *ViewerHandler) fail(c fiber.Ctx, err error) error {
	var unknown *viewer.UnknownEventError
	switch {
	case errors.Is(err, viewer.ErrSessionNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, viewer.ErrNoSuchElement):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, viewer.ErrUnknownPreset),
		errors.Is(err, viewer.ErrSourceRequired),
		errors.Is(err, viewport.ErrInvalidConfig),
		errors.Is(err, mapdoc.ErrInvalidSelector),
		errors.As(err, &unknown):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	h.log.Error().Err(err).Msg("request failed")
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
