package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/haldor/ansuz/internal/apperr"
)

// Handler holds the API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// itemPath extracts a vault path from a wildcard URL segment. Supports
// encoded slashes (e.g. topics%2Fnote.md).
func itemPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeError maps engine errors to HTTP statuses. Validation and structural
// failures carry their message; everything else surfaces as a generic 500.
func writeError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, apperr.ErrInvalidName), errors.Is(err, apperr.ErrSelfMove):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, os.ErrNotExist):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrAlreadyExists), errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// GetTree handles GET /api/tree.
func (h *Handler) GetTree(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tree": h.svc.Tree()})
}

// RefreshTree handles POST /api/tree/refresh.
func (h *Handler) RefreshTree(w http.ResponseWriter, _ *http.Request) {
	h.svc.Refresh()
	writeJSON(w, http.StatusOK, map[string]any{"tree": h.svc.Tree()})
}

// CreateNote handles POST /api/notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Folder string `json:"folder"`
		Name   string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	path, err := h.svc.CreateNote(req.Folder, req.Name)
	if err != nil {
		writeError(w, err, "create note")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}

// CreateFolder handles POST /api/folders.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Parent string `json:"parent"`
		Name   string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	path, err := h.svc.CreateFolder(req.Parent, req.Name)
	if err != nil {
		writeError(w, err, "create folder")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}

// DeleteItem handles DELETE /api/items/*.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	path := itemPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteItem(path); err != nil {
		writeError(w, err, "delete item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenameItem handles POST /api/items/rename.
func (h *Handler) RenameItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path    string `json:"path"`
		NewName string `json:"new_name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" || req.NewName == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and new_name are required"))
		return
	}
	newPath, err := h.svc.RenameItem(req.Path, req.NewName)
	if err != nil {
		writeError(w, err, "rename item")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": newPath})
}

// MoveItem handles POST /api/items/move.
func (h *Handler) MoveItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path         string `json:"path"`
		TargetFolder string `json:"target_folder"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	newPath, err := h.svc.MoveItem(req.Path, req.TargetFolder)
	if err != nil {
		writeError(w, err, "move item")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": newPath})
}

// OpenDaily handles POST /api/daily. An omitted or empty date means today.
func (h *Handler) OpenDaily(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}
	date := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("date must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}
	dn, err := h.svc.OpenDailyNote(date)
	if err != nil {
		writeError(w, err, "open daily note")
		return
	}
	writeJSON(w, http.StatusOK, dn)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	results, current := h.svc.Search(q)
	if !current {
		// A newer search superseded this one; the caller should drop it.
		writeJSON(w, http.StatusOK, map[string]any{"results": []any{}, "stale": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// Tags handles GET /api/tags.
func (h *Handler) Tags(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tags": h.svc.Tags()})
}

// Backlinks handles GET /api/backlinks?note=<name>.
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	note := r.URL.Query().Get("note")
	if note == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'note' is required"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backlinks": h.svc.Backlinks(note)})
}

// Headings handles GET /api/headings?path=<note path>.
func (h *Handler) Headings(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	headings, err := h.svc.Headings(path)
	if err != nil {
		writeError(w, err, "extract headings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"headings": headings})
}

// OpenNote handles POST /api/session/open.
func (h *Handler) OpenNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	content, err := h.svc.OpenNote(req.Path)
	if err != nil {
		writeError(w, err, "open note")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": req.Path, "content": content})
}

// SetContent handles PUT /api/session/content.
func (h *Handler) SetContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if h.svc.SessionStatus().Path == "" {
		writeJSON(w, http.StatusConflict, errorBody("no note is open"))
		return
	}
	h.svc.SetContent(req.Content)
	w.WriteHeader(http.StatusNoContent)
}

// SaveNote handles POST /api/session/save.
func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SaveNote(); err != nil {
		writeError(w, err, "save note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CloseNote handles POST /api/session/close.
func (h *Handler) CloseNote(w http.ResponseWriter, _ *http.Request) {
	h.svc.CloseNote()
	w.WriteHeader(http.StatusNoContent)
}

// SessionStatus handles GET /api/session.
func (h *Handler) SessionStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.SessionStatus())
}

// ToggleFavorite handles POST /api/favorites/toggle.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	fav, err := h.svc.ToggleFavorite(req.Path)
	if err != nil {
		writeError(w, err, "toggle favorite")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": req.Path, "favorite": fav})
}

// Recents handles GET /api/recents.
func (h *Handler) Recents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"recents": h.svc.Recents()})
}

// GetSettings handles GET /api/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Settings())
}

// UpdateSettings handles PUT /api/settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme    string `json:"theme"`
		ViewMode string `json:"view_mode"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.UpdateSettings(req.Theme, req.ViewMode); err != nil {
		writeError(w, err, "update settings")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Settings())
}
