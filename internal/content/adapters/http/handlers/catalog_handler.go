package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pressline/pressline/internal/content/app/service"
	"github.com/pressline/pressline/internal/platform/logger"
	"github.com/pressline/pressline/internal/platform/response"
	"github.com/pressline/pressline/internal/search/domain/repository"
)

type CatalogHandler struct {
	catalog *service.CatalogService
	logger  logger.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/categories/tree", h.CategoryTree).Methods("GET")
	router.HandleFunc("/hashtags/trending", h.TrendingHashtags).Methods("GET")
	router.HandleFunc("/posts/counts", h.PostCounts).Methods("GET")
}

func (h *CatalogHandler) CategoryTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.catalog.CategoryTree(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"categories": tree})
}

func (h *CatalogHandler) TrendingHashtags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.catalog.TrendingHashtags(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"hashtags": tags})
}

func (h *CatalogHandler) PostCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.catalog.PostCountsByStatus(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"counts": counts})
}

func (h *CatalogHandler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrStoreUnavailable) {
		h.logger.Error("Catalog store unavailable", "error", err)
		response.Error(w, response.ErrStoreUnavailable)
		return
	}
	h.logger.Error("Catalog request failed", "error", err)
	response.Error(w, response.ErrInternal)
}
