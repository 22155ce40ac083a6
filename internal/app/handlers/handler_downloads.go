package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freytube/freytube/internal/core/domain"
)

func (a *Application) listDownloadsHandler(w http.ResponseWriter, r *http.Request) {
	listRecords(a, w, r, a.store.Downloads)
}

// startDownloadHandler answers 202 with the pending entry; progress is
// visible through GET /api/downloads.
func (a *Application) startDownloadHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.DownloadRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	entry, err := a.downloads.Enqueue(r.Context(), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, entry)
}

func (a *Application) cancelDownloadHandler(w http.ResponseWriter, r *http.Request) {
	found, err := a.downloads.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "download not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
