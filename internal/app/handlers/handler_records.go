package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/freytube/freytube/internal/adapter/store"
	"github.com/freytube/freytube/internal/core/domain"
)

type preferredInstanceRequest struct {
	URL string `json:"url"`
}

func (a *Application) getSettingsHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := a.store.LoadSettings(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// preferredInstanceHandler moves the chosen primary instance to the front of
// the registry and persists the choice for the next start.
func (a *Application) preferredInstanceHandler(w http.ResponseWriter, r *http.Request) {
	var req preferredInstanceRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if !isInstanceURL(req.URL) {
		a.writeError(w, r, badRequest("url must be an absolute http(s) URL"))
		return
	}

	settings, err := a.store.LoadSettings(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	settings.PreferredInstance = strings.TrimSpace(req.URL)
	settings.Timestamp = time.Now()
	if err := a.store.Settings.Upsert(r.Context(), settings); err != nil {
		a.writeError(w, r, err)
		return
	}

	a.registry.SetPreferred(settings.PreferredInstance)
	writeJSON(w, http.StatusOK, settings)
}

func (a *Application) listHistoryHandler(w http.ResponseWriter, r *http.Request) {
	listRecords(a, w, r, a.store.History)
}

func (a *Application) upsertHistoryHandler(w http.ResponseWriter, r *http.Request) {
	upsertRecord(a, w, r, a.store.History, func(h *domain.HistoryEntry, now time.Time) { h.Timestamp = now })
}

func (a *Application) deleteHistoryHandler(w http.ResponseWriter, r *http.Request) {
	deleteRecord(a, w, r, a.store.History)
}

func (a *Application) listSubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	listRecords(a, w, r, a.store.Subscriptions)
}

func (a *Application) upsertSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	upsertRecord(a, w, r, a.store.Subscriptions, func(s *domain.Subscription, now time.Time) { s.Timestamp = now })
}

func (a *Application) deleteSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	deleteRecord(a, w, r, a.store.Subscriptions)
}

func listRecords[T store.Record](a *Application, w http.ResponseWriter, r *http.Request, records *store.Records[T]) {
	list, err := records.List(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// upsertRecord stamps the record with the current time before saving
func upsertRecord[T store.Record](a *Application, w http.ResponseWriter, r *http.Request, records *store.Records[T], touch func(*T, time.Time)) {
	var record T
	if err := decodeBody(r, &record); err != nil {
		a.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(record.Key()) == "" {
		a.writeError(w, r, badRequest("record id is required"))
		return
	}
	touch(&record, time.Now())

	if err := records.Upsert(r.Context(), record); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func deleteRecord[T store.Record](a *Application, w http.ResponseWriter, r *http.Request, records *store.Records[T]) {
	id := chi.URLParam(r, "id")
	if _, found, err := records.Get(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	} else if !found {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "record not found"})
		return
	}
	if err := records.Delete(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func isInstanceURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
