package api

import (
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/haldor/ansuz/internal/pathguard"
	"github.com/haldor/ansuz/internal/vault"
)

// maxUploadBytes caps attachment uploads.
const maxUploadBytes = 50 << 20 // 50 MB

// AttachmentHandler accepts attachment uploads and serves stored assets.
type AttachmentHandler struct {
	svc *Service
}

// NewAttachmentHandler creates the handler.
func NewAttachmentHandler(svc *Service) *AttachmentHandler {
	return &AttachmentHandler{svc: svc}
}

// Upload handles POST /api/attachments (multipart/form-data, field "file").
// Colliding names are de-duplicated by the vault (photo.png, photo-1.png, …);
// the response carries the root-relative path to embed in note text.
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to read upload"))
		return
	}

	stored, err := h.svc.SaveAttachment(data, header.Filename)
	if err != nil {
		writeError(w, err, "save attachment")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"path": stored,
		"size": len(data),
	})
}

// ServeAsset handles GET /api/assets/{name}, streaming a stored attachment
// back to the UI. The name must be a plain file name; the storage layer
// re-checks for traversal regardless.
func (h *AttachmentHandler) ServeAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	clean, ok := pathguard.Clean(name)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid asset name"))
		return
	}

	data, err := h.svc.vault.Store().Read(vault.AssetsFolder + "/" + clean)
	if err != nil {
		writeError(w, err, "serve asset")
		return
	}

	ct := mime.TypeByExtension(path.Ext(clean))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
