package domain

import "errors"

// Определение бизнес-ошибок
var (
	ErrDepartmentNotFound      = errors.New("department not found")
	ErrKnowledgeBaseNotFound   = errors.New("knowledge base not found")
	ErrUserNotFound            = errors.New("user not found")
	ErrDuplicateDepartmentName = errors.New("department with this name already exists in the same parent")
	ErrDepartmentHasChildren   = errors.New("department has child departments")
	ErrNoFieldsToUpdate        = errors.New("no fields to update")
	ErrInvalidPage             = errors.New("page must be >= 1")
	ErrInvalidPageSize         = errors.New("page_size must be between 1 and 100")
	ErrInvalidDateFormat       = errors.New("invalid date format")
)
