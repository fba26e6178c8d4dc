package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kb-scope-api/internal/dto"
	"github.com/kb-scope-api/internal/middleware"
	"github.com/kb-scope-api/internal/service"
)

type SearchHandler struct {
	searchService service.FileSearchService
	validator     *validator.Validate
	logger        *slog.Logger
}

func NewSearchHandler(searchService service.FileSearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		validator:     validator.New(),
		logger:        logger,
	}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req dto.FileSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	h.runSearch(w, r, &req)
}

// SearchGet принимает те же параметры строкой запроса,
// списки передаются через запятую
func (h *SearchHandler) SearchGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dto.FileSearchRequest{
		Keyword:  q.Get("keyword"),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
		SortBy:   q.Get("sort_by"),
		Order:    q.Get("order"),
	}

	if raw := q.Get("department_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid department_ids", err.Error())
				return
			}
			req.DepartmentIDs = append(req.DepartmentIDs, id)
		}
	}

	if raw := q.Get("file_types"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				req.FileTypes = append(req.FileTypes, part)
			}
		}
	}

	if raw := q.Get("include_subdepts"); raw != "" {
		include := raw == "true"
		req.IncludeSubdepts = &include
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid page", err.Error())
			return
		}
		req.Page = page
	}

	if raw := q.Get("page_size"); raw != "" {
		pageSize, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid page_size", err.Error())
			return
		}
		req.PageSize = pageSize
	}

	h.runSearch(w, r, &req)
}

func (h *SearchHandler) runSearch(w http.ResponseWriter, r *http.Request, req *dto.FileSearchRequest) {
	identity := middleware.IdentityFrom(r.Context())
	req.UserID = identity.UserID
	req.UserRole = identity.Role

	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	result, err := h.searchService.Search(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
