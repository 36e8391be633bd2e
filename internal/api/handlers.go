// Package api exposes the REST surface: statistics, indexing control and
// search.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/dangpham/sitesearch/internal/indexing"
	"github.com/dangpham/sitesearch/internal/search"
)

// IndexingService is the subset of the orchestrator the handlers need.
type IndexingService interface {
	StartIndexing() indexing.CommandResponse
	StopIndexing() indexing.CommandResponse
	IndexPage(url string) (indexing.CommandResponse, error)
	Statistics() (indexing.Statistics, error)
}

// Searcher answers queries with a ready-to-serialize response.
type Searcher interface {
	Search(query, site string, offset, limit int) (search.Response, error)
}

type Handler struct {
	indexing     IndexingService
	search       Searcher
	log          *zap.Logger
	defaultLimit int
}

func NewHandler(ix IndexingService, s Searcher, log *zap.Logger, defaultLimit int) *Handler {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &Handler{indexing: ix, search: s, log: log, defaultLimit: defaultLimit}
}

func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.indexing.Statistics()
	if err != nil {
		h.serverError(w, "failed to collect statistics", err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) StartIndexing(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.indexing.StartIndexing())
}

func (h *Handler) StopIndexing(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.indexing.StopIndexing())
}

func (h *Handler) IndexPage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeJSON(w, http.StatusBadRequest, indexing.CommandResponse{Error: "invalid request body"})
		return
	}
	url := r.PostFormValue("url")
	if url == "" {
		h.writeJSON(w, http.StatusBadRequest, indexing.CommandResponse{Error: "url parameter is required"})
		return
	}

	resp, err := h.indexing.IndexPage(url)
	if err != nil {
		h.serverError(w, "failed to index page", err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	site := r.URL.Query().Get("site")
	offset := intParam(r, "offset", 0)
	limit := intParam(r, "limit", h.defaultLimit)

	resp, err := h.search.Search(query, site, offset, limit)
	if err != nil {
		h.serverError(w, "search failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	h.log.Error(msg, zap.Error(err))
	h.writeJSON(w, http.StatusInternalServerError, indexing.CommandResponse{Error: msg})
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
