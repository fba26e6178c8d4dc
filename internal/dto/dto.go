package dto

import (
	"time"

	"github.com/kb-scope-api/internal/domain"
)

// CreateDepartmentRequest - запрос на создание подразделения
type CreateDepartmentRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	ParentID    *int64 `json:"parent_id" validate:"omitempty,min=1"`
	Description string `json:"description" validate:"max=2000"`
	SortOrder   int    `json:"sort_order"`
}

// UpdateDepartmentRequest - запрос на частичное обновление подразделения.
// Перенос к другому родителю не поддерживается: path вычисляется один раз.
type UpdateDepartmentRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	SortOrder   *int    `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

// DepartmentResponse - ответ с данными подразделения
type DepartmentResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ParentID    *int64    `json:"parent_id"`
	Level       int       `json:"level"`
	Path        string    `json:"path"`
	SortOrder   int       `json:"sort_order"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DepartmentNode - узел дерева подразделений с числом пользователей,
// у которых это подразделение основное
type DepartmentNode struct {
	DepartmentResponse
	UserCount int64             `json:"user_count"`
	Children  []*DepartmentNode `json:"children"`
}

// KBLinkRequest - привязка знаниевой базы к подразделениям
type KBLinkRequest struct {
	DepartmentIDs []int64 `json:"department_ids" validate:"required,min=1,dive,min=1"`
	Replace       bool    `json:"replace"`
}

// KBSearchRequest - поиск знаниевых баз по подразделениям
type KBSearchRequest struct {
	DepartmentIDs   []int64 `json:"department_ids" validate:"required,min=1,dive,min=1"`
	IncludeSubdepts *bool   `json:"include_subdepts"`
}

// KBWithDepartments - знаниевая база с её привязками
type KBWithDepartments struct {
	KBID        string               `json:"kb_id"`
	Departments []DepartmentResponse `json:"departments"`
}

// AccessDenyRequest - запрет доступа пользователей к знаниевой базе
type AccessDenyRequest struct {
	UserIDs []int64 `json:"user_ids" validate:"required,min=1,dive,min=1"`
	Reason  string  `json:"reason" validate:"max=2000"`
}

// AccessAllowRequest - восстановление доступа (удаление из чёрного списка)
type AccessAllowRequest struct {
	UserIDs []int64 `json:"user_ids" validate:"required,min=1,dive,min=1"`
}

// AccessControlList - состояние доступа к знаниевой базе
type AccessControlList struct {
	KBID         string              `json:"kb_id"`
	TotalUsers   int64               `json:"total_users"`
	DeniedCount  int64               `json:"denied_count"`
	AllowedCount int64               `json:"allowed_count"`
	DeniedUsers  []domain.DeniedUser `json:"denied_users"`
}

// AssignUserDepartmentsRequest - назначение подразделений пользователю
type AssignUserDepartmentsRequest struct {
	DepartmentIDs []int64 `json:"department_ids" validate:"required,min=1,dive,min=1"`
	PrimaryID     *int64  `json:"primary_id" validate:"omitempty,min=1"`
}

// FileSearchRequest - запрос поиска файлов.
// DepartmentIDs пуст - поиск по всем базам каталога (с учётом запретов).
// IncludeSubdepts по умолчанию true.
type FileSearchRequest struct {
	UserID          int64    `json:"-"`
	UserRole        string   `json:"-"`
	DepartmentIDs   []int64  `json:"department_ids" validate:"omitempty,dive,min=1"`
	IncludeSubdepts *bool    `json:"include_subdepts"`
	Keyword         string   `json:"keyword" validate:"max=200"`
	FileTypes       []string `json:"file_types" validate:"omitempty,dive,min=1,max=32"`
	DateFrom        string   `json:"date_from"`
	DateTo          string   `json:"date_to"`
	Page            int      `json:"page"`
	PageSize        int      `json:"page_size"`
	SortBy          string   `json:"sort_by"`
	Order           string   `json:"order"`
}

// FileEntry - файл в поисковой выдаче
type FileEntry struct {
	ID            int64     `json:"id"`
	FileID        string    `json:"file_id"`
	KBID          string    `json:"kb_id"`
	KBName        string    `json:"kb_name"`
	Filename      string    `json:"filename"`
	FilePath      string    `json:"file_path"`
	FileSize      int64     `json:"file_size"`
	FileType      string    `json:"file_type"`
	Status        string    `json:"status"`
	Title         string    `json:"title,omitempty"`
	Summary       string    `json:"summary,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	CreatedBy     *int64    `json:"created_by"`
	CreatedByName string    `json:"created_by_name,omitempty"`
	DownloadURL   string    `json:"download_url"`
}

// FileSearchResponse - результат поиска файлов
type FileSearchResponse struct {
	Total           int64           `json:"total"`
	Page            int             `json:"page"`
	PageSize        int             `json:"page_size"`
	Files           []FileEntry     `json:"files"`
	DepartmentStats map[int64]int64 `json:"department_stats"`
}

// ErrorResponse - стандартный ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
