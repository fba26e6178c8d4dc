package repository

import (
	"context"

	"github.com/kb-scope-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserDepartmentRepository определяет интерфейс принадлежности пользователей
// подразделениям
type UserDepartmentRepository interface {
	Assign(ctx context.Context, userID int64, departmentIDs []int64, primaryID *int64) error
	ListByUser(ctx context.Context, userID int64) ([]domain.UserDepartment, error)
	Remove(ctx context.Context, userID, departmentID int64) error
	SetPrimary(ctx context.Context, userID, departmentID int64) error
}

type userDepartmentRepository struct {
	db *gorm.DB
}

// NewUserDepartmentRepository создаёт новый экземпляр репозитория
func NewUserDepartmentRepository(db *gorm.DB) UserDepartmentRepository {
	return &userDepartmentRepository{db: db}
}

// Assign добавляет подразделения пользователю идемпотентно.
// Если указано основное, прежняя отметка снимается в той же транзакции.
func (r *userDepartmentRepository) Assign(ctx context.Context, userID int64, departmentIDs []int64, primaryID *int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if primaryID != nil {
			err := tx.Model(&domain.UserDepartmentRelation{}).
				Where("user_id = ?", userID).
				Update("is_primary", false).Error
			if err != nil {
				return err
			}
		}

		relations := make([]domain.UserDepartmentRelation, 0, len(departmentIDs))
		for _, deptID := range departmentIDs {
			relations = append(relations, domain.UserDepartmentRelation{
				UserID:       userID,
				DepartmentID: deptID,
				IsPrimary:    primaryID != nil && deptID == *primaryID,
			})
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "department_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_primary"}),
		}).Create(&relations).Error
	})
}

func (r *userDepartmentRepository) ListByUser(ctx context.Context, userID int64) ([]domain.UserDepartment, error) {
	var rows []domain.UserDepartment
	err := r.db.WithContext(ctx).Raw(`
		SELECT d.id AS id, d.name AS name, d.parent_id AS parent_id,
		       d.level AS level, d.path AS path, udr.is_primary AS is_primary
		FROM user_department_relations udr
		JOIN departments d ON udr.department_id = d.id
		WHERE udr.user_id = ? AND d.is_active = ?
		ORDER BY udr.is_primary DESC, d.level, d.sort_order
	`, userID, true).Scan(&rows).Error
	return rows, err
}

func (r *userDepartmentRepository) Remove(ctx context.Context, userID, departmentID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND department_id = ?", userID, departmentID).
		Delete(&domain.UserDepartmentRelation{}).Error
}

func (r *userDepartmentRepository) SetPrimary(ctx context.Context, userID, departmentID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&domain.UserDepartmentRelation{}).
			Where("user_id = ?", userID).
			Update("is_primary", false).Error
		if err != nil {
			return err
		}

		return tx.Model(&domain.UserDepartmentRelation{}).
			Where("user_id = ? AND department_id = ?", userID, departmentID).
			Update("is_primary", true).Error
	})
}
