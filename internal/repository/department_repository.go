package repository

import (
	"context"
	"strconv"

	"github.com/kb-scope-api/internal/domain"
	"gorm.io/gorm"
)

// DepartmentRepository определяет интерфейс для работы с подразделениями
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department, parentPath string) error
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	Update(ctx context.Context, dept *domain.Department) error
	Delete(ctx context.Context, id int64) error
	CountChildren(ctx context.Context, id int64) (int64, error)
	ExistsByNameAndParent(ctx context.Context, name string, parentID *int64, excludeID *int64) (bool, error)
	GetAllActive(ctx context.Context) ([]domain.Department, error)
	GetSubtree(ctx context.Context, id int64) ([]domain.Department, error)
	PrimaryUserCounts(ctx context.Context) (map[int64]int64, error)
}

type departmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository создаёт новый экземпляр репозитория
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

// Create вставляет подразделение и фиксирует материализованный путь.
// Путь зависит от сгенерированного id, поэтому обе операции идут в одной транзакции.
func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department, parentPath string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dept).Error; err != nil {
			return err
		}

		path := strconv.FormatInt(dept.ID, 10)
		if parentPath != "" {
			path = parentPath + "/" + path
		}

		if err := tx.Model(&domain.Department{}).Where("id = ?", dept.ID).Update("path", path).Error; err != nil {
			return err
		}

		dept.Path = path
		return nil
	})
}

func (r *departmentRepository) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	var dept domain.Department
	err := r.db.WithContext(ctx).First(&dept, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	return r.db.WithContext(ctx).Save(dept).Error
}

func (r *departmentRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&domain.Department{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrDepartmentNotFound
	}
	return nil
}

func (r *departmentRepository) CountChildren(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Department{}).
		Where("parent_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *departmentRepository) ExistsByNameAndParent(ctx context.Context, name string, parentID *int64, excludeID *int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Department{}).Where("name = ?", name)

	if parentID != nil {
		query = query.Where("parent_id = ?", *parentID)
	} else {
		query = query.Where("parent_id IS NULL")
	}

	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	err := query.Count(&count).Error
	return count > 0, err
}

// GetAllActive возвращает все активные подразделения.
// Сортировка по level гарантирует, что родители идут раньше детей.
func (r *departmentRepository) GetAllActive(ctx context.Context) ([]domain.Department, error) {
	var departments []domain.Department
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("level, sort_order, id").
		Find(&departments).Error
	return departments, err
}

// GetSubtree возвращает подразделение и всех его потомков по префиксу пути.
// Для несуществующего id возвращается пустой список.
func (r *departmentRepository) GetSubtree(ctx context.Context, id int64) ([]domain.Department, error) {
	var root domain.Department
	err := r.db.WithContext(ctx).Select("id", "path").First(&root, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	var departments []domain.Department
	err = r.db.WithContext(ctx).
		Where("id = ? OR path LIKE ?", id, root.Path+"/%").
		Order("level, sort_order, id").
		Find(&departments).Error
	return departments, err
}

// PrimaryUserCounts возвращает число пользователей по подразделениям,
// где подразделение указано основным
func (r *departmentRepository) PrimaryUserCounts(ctx context.Context) (map[int64]int64, error) {
	var rows []struct {
		DepartmentID int64
		UserCount    int64
	}

	err := r.db.WithContext(ctx).Raw(`
		SELECT udr.department_id AS department_id, COUNT(DISTINCT udr.user_id) AS user_count
		FROM user_department_relations udr
		JOIN users u ON udr.user_id = u.id
		WHERE udr.is_primary = ? AND u.is_deleted = ?
		GROUP BY udr.department_id
	`, true, false).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.DepartmentID] = row.UserCount
	}
	return counts, nil
}
