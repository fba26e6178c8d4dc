package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kb-scope-api/internal/domain"
	"github.com/kb-scope-api/internal/dto"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, errMsg, message string) {
	respondJSON(w, status, dto.ErrorResponse{Error: errMsg, Message: message})
}

// handleServiceError переводит бизнес-ошибки в HTTP статусы
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrDepartmentNotFound),
		errors.Is(err, domain.ErrKnowledgeBaseNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "not found", err.Error())

	case errors.Is(err, domain.ErrDuplicateDepartmentName),
		errors.Is(err, domain.ErrDepartmentHasChildren):
		respondError(w, http.StatusConflict, "conflict", err.Error())

	case errors.Is(err, domain.ErrNoFieldsToUpdate),
		errors.Is(err, domain.ErrInvalidPage),
		errors.Is(err, domain.ErrInvalidPageSize),
		errors.Is(err, domain.ErrInvalidDateFormat):
		respondError(w, http.StatusBadRequest, "validation error", err.Error())

	default:
		respondError(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}
