package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (a *Application) trendingHandler(w http.ResponseWriter, r *http.Request) {
	items, err := a.catalog.Trending(r.Context(), r.URL.Query().Get("region"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *Application) streamsHandler(w http.ResponseWriter, r *http.Request) {
	video, err := a.catalog.Streams(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, video)
}

func (a *Application) searchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := strings.TrimSpace(query.Get("q"))
	if q == "" {
		a.writeError(w, r, badRequest("missing query parameter q"))
		return
	}

	filter, nextPage := query.Get("filter"), query.Get("nextpage")
	var (
		resp any
		err  error
	)
	if nextPage != "" {
		resp, err = a.catalog.SearchNextPage(r.Context(), q, filter, nextPage)
	} else {
		resp, err = a.catalog.Search(r.Context(), q, filter)
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *Application) suggestionsHandler(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("query"))
	if q == "" {
		writeJSON(w, http.StatusOK, []string{})
		return
	}
	suggestions, err := a.catalog.Suggestions(r.Context(), q)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (a *Application) channelHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	nextPage := r.URL.Query().Get("nextpage")

	var (
		resp any
		err  error
	)
	if nextPage != "" {
		resp, err = a.catalog.ChannelNextPage(r.Context(), id, nextPage)
	} else {
		resp, err = a.catalog.Channel(r.Context(), id)
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *Application) commentsHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	nextPage := r.URL.Query().Get("nextpage")

	var (
		resp any
		err  error
	)
	if nextPage != "" {
		resp, err = a.catalog.CommentsNextPage(r.Context(), id, nextPage)
	} else {
		resp, err = a.catalog.Comments(r.Context(), id)
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
