package repository

import (
	"context"
	"strings"
	"time"

	"github.com/kb-scope-api/internal/domain"
	"gorm.io/gorm"
)

// Разрешённые поля сортировки поисковой выдачи
var fileSortColumns = map[string]string{
	"created_at": "kb_files.created_at",
	"filename":   "kb_files.filename",
	"file_size":  "kb_files.file_size",
	"updated_at": "kb_files.updated_at",
}

// FileSearchFilter - подготовленные условия поиска по метаданным файлов.
// KBIDs к этому моменту уже прошли фильтрацию доступа.
type FileSearchFilter struct {
	KBIDs     []string
	Keyword   string
	FileTypes []string
	DateFrom  *time.Time
	DateTo    *time.Time
	SortBy    string
	Desc      bool
	Limit     int
	Offset    int
}

// FileRepository определяет интерфейс чтения метаданных файлов
type FileRepository interface {
	Search(ctx context.Context, filter FileSearchFilter) ([]domain.FileSearchRow, int64, error)
	DepartmentStats(ctx context.Context, kbIDs []string, departmentIDs []int64) (map[int64]int64, error)
}

type fileRepository struct {
	db *gorm.DB
}

// NewFileRepository создаёт новый экземпляр репозитория
func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

// applyFilter навешивает общие условия; строится заново для выборки и для счёта
func (r *fileRepository) applyFilter(db *gorm.DB, filter FileSearchFilter) *gorm.DB {
	query := db.
		Where("kb_files.kb_id IN ?", filter.KBIDs).
		Where("kb_files.status IN ?", domain.SearchableStatuses).
		Where("kb_files.is_folder = ?", false)

	if filter.Keyword != "" {
		pattern := "%" + strings.ToLower(filter.Keyword) + "%"
		query = query.Where(
			"LOWER(kb_files.filename) LIKE ? OR LOWER(COALESCE(kb_files.title, '')) LIKE ? OR LOWER(COALESCE(kb_files.summary, '')) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	if len(filter.FileTypes) > 0 {
		query = query.Where("kb_files.file_type IN ?", filter.FileTypes)
	}

	if filter.DateFrom != nil {
		query = query.Where("kb_files.created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("kb_files.created_at <= ?", *filter.DateTo)
	}

	return query
}

// Search возвращает страницу выдачи и общее число подходящих файлов.
// Счёт идёт отдельным запросом с теми же условиями, чтобы пагинация
// оставалась согласованной.
func (r *fileRepository) Search(ctx context.Context, filter FileSearchFilter) ([]domain.FileSearchRow, int64, error) {
	var total int64
	countQuery := r.applyFilter(r.db.WithContext(ctx).Model(&domain.KBFile{}), filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := fileSortColumns[filter.SortBy]
	if !ok {
		column = fileSortColumns["created_at"]
	}
	direction := "ASC"
	if filter.Desc {
		direction = "DESC"
	}

	var rows []domain.FileSearchRow
	query := r.applyFilter(r.db.WithContext(ctx).Table("kb_files"), filter).
		Select("kb_files.*, u.username AS created_by_name").
		Joins("LEFT JOIN users u ON kb_files.created_by = u.id").
		Order(column + " " + direction).
		Limit(filter.Limit).
		Offset(filter.Offset)

	if err := query.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// DepartmentStats считает файлы по подразделениям в пределах заданного
// набора баз - для отображения разбивки без второго обращения
func (r *fileRepository) DepartmentStats(ctx context.Context, kbIDs []string, departmentIDs []int64) (map[int64]int64, error) {
	if len(kbIDs) == 0 || len(departmentIDs) == 0 {
		return map[int64]int64{}, nil
	}

	var rows []struct {
		DepartmentID int64
		FileCount    int64
	}

	err := r.db.WithContext(ctx).Raw(`
		SELECT kdr.department_id AS department_id, COUNT(DISTINCT f.id) AS file_count
		FROM kb_files f
		JOIN kb_department_relations kdr ON f.kb_id = kdr.kb_id
		WHERE f.kb_id IN ?
		  AND kdr.department_id IN ?
		  AND f.status IN ?
		  AND f.is_folder = ?
		GROUP BY kdr.department_id
	`, kbIDs, departmentIDs, domain.SearchableStatuses, false).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := make(map[int64]int64, len(rows))
	for _, row := range rows {
		stats[row.DepartmentID] = row.FileCount
	}
	return stats, nil
}
