package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/pressline/pressline/internal/platform/logger"
	"github.com/pressline/pressline/internal/platform/response"
	"github.com/pressline/pressline/internal/search/app/service"
	"github.com/pressline/pressline/internal/search/domain/model"
	"github.com/pressline/pressline/internal/search/domain/repository"
)

type SearchHandler struct {
	unified *service.UnifiedSearchService
	posts   *service.PostSearchService
	logger  logger.Logger
}

func NewSearchHandler(unified *service.UnifiedSearchService, posts *service.PostSearchService, logger logger.Logger) *SearchHandler {
	return &SearchHandler{
		unified: unified,
		posts:   posts,
		logger:  logger,
	}
}

func (h *SearchHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/search", h.Search).Methods("GET")
	router.HandleFunc("/search/posts", h.SearchPosts).Methods("GET")
	router.HandleFunc("/search/autocomplete", h.Autocomplete).Methods("GET")
	router.HandleFunc("/search/suggestions", h.Suggestions).Methods("GET")
	router.HandleFunc("/search/popular", h.Popular).Methods("GET")
}

// Search runs the unified search across posts, categories, and
// hashtags.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := parseQuery(r)

	result, err := h.unified.Search(r.Context(), query)
	if err != nil {
		h.respondSearchError(w, r, err)
		return
	}

	response.OK(w, result)
}

// SearchPosts runs the post-only search. A too-short query answers
// with an empty page rather than an error.
func (h *SearchHandler) SearchPosts(w http.ResponseWriter, r *http.Request) {
	query := parseQuery(r)

	page, err := h.posts.Search(r.Context(), query)
	if err != nil {
		h.respondSearchError(w, r, err)
		return
	}

	response.Paginated(w, page, page.Page, page.PerPage, int64(page.TotalResults))
}

func (h *SearchHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	completions, err := h.posts.Autocomplete(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondSearchError(w, r, err)
		return
	}

	response.OK(w, map[string]interface{}{"completions": completions})
}

func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	suggestions := h.posts.Suggest(r.Context(), r.URL.Query().Get("q"))
	response.OK(w, map[string]interface{}{"suggestions": suggestions})
}

// Popular returns the most searched queries over the last thirty days.
func (h *SearchHandler) Popular(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	popular, err := h.posts.PopularSearches(r.Context(), limit)
	if err != nil {
		h.respondSearchError(w, r, err)
		return
	}

	response.OK(w, map[string]interface{}{"popular_searches": popular})
}

func (h *SearchHandler) respondSearchError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrQueryTooShort):
		response.Error(w, response.ErrInvalidQuery)
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Error("Search timed out", "path", r.URL.Path)
		response.Error(w, response.ErrTimeout)
	case errors.Is(err, repository.ErrStoreUnavailable):
		h.logger.Error("Search store unavailable", "path", r.URL.Path, "error", err)
		response.Error(w, response.ErrStoreUnavailable)
	default:
		h.logger.Error("Search failed", "path", r.URL.Path, "error", err)
		response.Error(w, response.ErrInternal)
	}
}

func parseQuery(r *http.Request) *model.SearchQuery {
	params := r.URL.Query()

	query := &model.SearchQuery{
		Raw:     params.Get("q"),
		Filters: parseFilters(r),
	}
	if page, err := strconv.Atoi(params.Get("page")); err == nil {
		query.Page = page
	}
	if perPage, err := strconv.Atoi(params.Get("per_page")); err == nil {
		query.PerPage = perPage
	}
	switch params.Get("strategy") {
	case string(model.StrategyPlain):
		query.Strategy = model.StrategyPlain
	case string(model.StrategyFuzzy):
		query.Strategy = model.StrategyFuzzy
	default:
		query.Strategy = model.StrategyPhrase
	}
	return query
}

func parseFilters(r *http.Request) model.SearchFilters {
	params := r.URL.Query()
	var filters model.SearchFilters

	if id, err := strconv.ParseInt(params.Get("category"), 10, 64); err == nil {
		filters.CategoryID = &id
	}
	if id, err := strconv.ParseInt(params.Get("type"), 10, 64); err == nil {
		filters.TypeID = &id
	}
	if id, err := strconv.ParseInt(params.Get("organization"), 10, 64); err == nil {
		filters.OrganizationID = &id
	}
	if from, err := time.Parse("2006-01-02", params.Get("date_from")); err == nil {
		filters.DateFrom = &from
	}
	if to, err := time.Parse("2006-01-02", params.Get("date_to")); err == nil {
		// Inclusive upper bound covers the whole day.
		end := to.Add(24*time.Hour - time.Nanosecond)
		filters.DateTo = &end
	}
	if lang := params.Get("language"); lang != "" {
		filters.Language = &lang
	}
	if featured, err := strconv.ParseBool(params.Get("featured")); err == nil {
		filters.Featured = &featured
	}

	return filters
}
