package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/kb-scope-api/internal/domain"
	"github.com/kb-scope-api/internal/dto"
	"github.com/kb-scope-api/internal/service"
)

type DepartmentHandler struct {
	deptService     service.DepartmentService
	userDeptService service.UserDepartmentService
	validator       *validator.Validate
	logger          *slog.Logger
}

func NewDepartmentHandler(
	deptService service.DepartmentService,
	userDeptService service.UserDepartmentService,
	logger *slog.Logger,
) *DepartmentHandler {
	return &DepartmentHandler{
		deptService:     deptService,
		userDeptService: userDeptService,
		validator:       validator.New(),
		logger:          logger,
	}
}

func (h *DepartmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	dept, err := h.deptService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toDepartmentResponse(dept))
}

func (h *DepartmentHandler) Update(w http.ResponseWriter, r *http.Request, id int64) {
	var req dto.UpdateDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	dept, err := h.deptService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toDepartmentResponse(dept))
}

func (h *DepartmentHandler) Delete(w http.ResponseWriter, r *http.Request, id int64) {
	force := r.URL.Query().Get("force") == "true"

	if err := h.deptService.Delete(r.Context(), id, force); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DepartmentHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.deptService.GetTree(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tree)
}

func (h *DepartmentHandler) GetSubtree(w http.ResponseWriter, r *http.Request, id int64) {
	subtree, err := h.deptService.GetSubtree(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result := make([]dto.DepartmentResponse, 0, len(subtree))
	for i := range subtree {
		result = append(result, toDepartmentResponse(&subtree[i]))
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *DepartmentHandler) AssignUserDepartments(w http.ResponseWriter, r *http.Request, userID int64) {
	var req dto.AssignUserDepartmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	departments, err := h.userDeptService.Assign(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, departments)
}

func (h *DepartmentHandler) ListUserDepartments(w http.ResponseWriter, r *http.Request, userID int64) {
	departments, err := h.userDeptService.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if departments == nil {
		departments = []domain.UserDepartment{}
	}
	respondJSON(w, http.StatusOK, departments)
}

func (h *DepartmentHandler) RemoveUserDepartment(w http.ResponseWriter, r *http.Request, userID, departmentID int64) {
	if err := h.userDeptService.Remove(r.Context(), userID, departmentID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DepartmentHandler) SetPrimaryUserDepartment(w http.ResponseWriter, r *http.Request, userID, departmentID int64) {
	if err := h.userDeptService.SetPrimary(r.Context(), userID, departmentID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toDepartmentResponse(dept *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:          dept.ID,
		Name:        dept.Name,
		ParentID:    dept.ParentID,
		Level:       dept.Level,
		Path:        dept.Path,
		SortOrder:   dept.SortOrder,
		Description: dept.Description,
		IsActive:    dept.IsActive,
		CreatedAt:   dept.CreatedAt,
		UpdatedAt:   dept.UpdatedAt,
	}
}
