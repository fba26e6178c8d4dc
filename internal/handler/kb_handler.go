package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/kb-scope-api/internal/domain"
	"github.com/kb-scope-api/internal/dto"
	"github.com/kb-scope-api/internal/middleware"
	"github.com/kb-scope-api/internal/service"
)

type KBHandler struct {
	kbService     service.KBService
	accessService service.AccessControlService
	validator     *validator.Validate
	logger        *slog.Logger
}

func NewKBHandler(
	kbService service.KBService,
	accessService service.AccessControlService,
	logger *slog.Logger,
) *KBHandler {
	return &KBHandler{
		kbService:     kbService,
		accessService: accessService,
		validator:     validator.New(),
		logger:        logger,
	}
}

func (h *KBHandler) Link(w http.ResponseWriter, r *http.Request, kbID string) {
	var req dto.KBLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	departments, err := h.kbService.Link(r.Context(), kbID, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toDepartmentResponses(departments))
}

func (h *KBHandler) ListDepartments(w http.ResponseWriter, r *http.Request, kbID string) {
	departments, err := h.kbService.ListDepartments(r.Context(), kbID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toDepartmentResponses(departments))
}

func (h *KBHandler) Unlink(w http.ResponseWriter, r *http.Request, kbID string, departmentID int64) {
	if err := h.kbService.Unlink(r.Context(), kbID, departmentID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *KBHandler) SearchKBs(w http.ResponseWriter, r *http.Request) {
	var req dto.KBSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	includeSubtrees := req.IncludeSubdepts == nil || *req.IncludeSubdepts
	kbs, err := h.kbService.SearchKBs(r.Context(), req.DepartmentIDs, includeSubtrees)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, kbs)
}

func (h *KBHandler) Deny(w http.ResponseWriter, r *http.Request, kbID string) {
	var req dto.AccessDenyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	// Оператором считаем вызывающего
	var operatorID *int64
	if identity := middleware.IdentityFrom(r.Context()); identity.UserID != 0 {
		operatorID = &identity.UserID
	}

	count, err := h.accessService.Deny(r.Context(), kbID, &req, operatorID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"denied_count": count})
}

func (h *KBHandler) Allow(w http.ResponseWriter, r *http.Request, kbID string) {
	var req dto.AccessAllowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	count, err := h.accessService.Allow(r.Context(), kbID, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"allowed_count": count})
}

func (h *KBHandler) AccessList(w http.ResponseWriter, r *http.Request, kbID string) {
	acl, err := h.accessService.AccessList(r.Context(), kbID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, acl)
}

func (h *KBHandler) CheckAccess(w http.ResponseWriter, r *http.Request, kbID string) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user_id", err.Error())
		return
	}

	role := r.URL.Query().Get("role")
	if role == "" {
		role = domain.RoleUser
	}

	canAccess, err := h.accessService.CanAccess(r.Context(), userID, kbID, role)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"can_access": canAccess})
}

func toDepartmentResponses(departments []domain.Department) []dto.DepartmentResponse {
	result := make([]dto.DepartmentResponse, 0, len(departments))
	for i := range departments {
		result = append(result, toDepartmentResponse(&departments[i]))
	}
	return result
}
