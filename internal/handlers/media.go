package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/reflections-backend/internal/storage"
)

// MediaHandler serves files written by a storage.LocalStore at GET /media/*.
type MediaHandler struct {
	store *storage.LocalStore
}

func NewMediaHandler(store *storage.LocalStore) *MediaHandler {
	return &MediaHandler{store: store}
}

func (h *MediaHandler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Path(chi.URLParam(r, "*"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to open media", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	// Uploaded keys never change content.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
