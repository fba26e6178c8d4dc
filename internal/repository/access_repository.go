package repository

import (
	"context"

	"github.com/kb-scope-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccessControlRepository определяет интерфейс чёрного списка доступа
// к знаниевым базам
type AccessControlRepository interface {
	Deny(ctx context.Context, kbID string, userIDs []int64, reason string, operatorID *int64) (int64, error)
	Allow(ctx context.Context, kbID string, userIDs []int64) (int64, error)
	IsDenied(ctx context.Context, userID int64, kbID string) (bool, error)
	DeniedKBIDs(ctx context.Context, userID int64) ([]string, error)
	DeniedKBIDsAmong(ctx context.Context, userID int64, kbIDs []string) ([]string, error)
	ListDenied(ctx context.Context, kbID string) ([]domain.DeniedUser, error)
	CountActiveUsers(ctx context.Context) (int64, error)
}

type accessControlRepository struct {
	db *gorm.DB
}

// NewAccessControlRepository создаёт новый экземпляр репозитория
func NewAccessControlRepository(db *gorm.DB) AccessControlRepository {
	return &accessControlRepository{db: db}
}

// Deny добавляет пользователей в чёрный список. Повторный запрет обновляет
// причину и оператора, а не дублирует строку.
func (r *accessControlRepository) Deny(ctx context.Context, kbID string, userIDs []int64, reason string, operatorID *int64) (int64, error) {
	records := make([]domain.KBAccessControl, 0, len(userIDs))
	for _, userID := range userIDs {
		records = append(records, domain.KBAccessControl{
			KBID:       kbID,
			UserID:     userID,
			AccessType: domain.AccessTypeDeny,
			Reason:     reason,
			CreatedBy:  operatorID,
		})
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kb_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"reason", "created_by", "updated_at"}),
	}).Create(&records).Error
	if err != nil {
		return 0, err
	}

	return int64(len(userIDs)), nil
}

// Allow удаляет пользователей из чёрного списка, отсутствующие строки не ошибка
func (r *accessControlRepository) Allow(ctx context.Context, kbID string, userIDs []int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("kb_id = ? AND user_id IN ?", kbID, userIDs).
		Delete(&domain.KBAccessControl{})
	return result.RowsAffected, result.Error
}

func (r *accessControlRepository) IsDenied(ctx context.Context, userID int64, kbID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.KBAccessControl{}).
		Where("user_id = ? AND kb_id = ? AND access_type = ?", userID, kbID, domain.AccessTypeDeny).
		Count(&count).Error
	return count > 0, err
}

func (r *accessControlRepository) DeniedKBIDs(ctx context.Context, userID int64) ([]string, error) {
	var kbIDs []string
	err := r.db.WithContext(ctx).
		Model(&domain.KBAccessControl{}).
		Where("user_id = ? AND access_type = ?", userID, domain.AccessTypeDeny).
		Pluck("kb_id", &kbIDs).Error
	return kbIDs, err
}

// DeniedKBIDsAmong проверяет принадлежность набора баз чёрному списку
// одним запросом, без обхода по одной
func (r *accessControlRepository) DeniedKBIDsAmong(ctx context.Context, userID int64, kbIDs []string) ([]string, error) {
	if len(kbIDs) == 0 {
		return nil, nil
	}

	var denied []string
	err := r.db.WithContext(ctx).
		Model(&domain.KBAccessControl{}).
		Where("user_id = ? AND access_type = ? AND kb_id IN ?", userID, domain.AccessTypeDeny, kbIDs).
		Pluck("kb_id", &denied).Error
	return denied, err
}

func (r *accessControlRepository) ListDenied(ctx context.Context, kbID string) ([]domain.DeniedUser, error) {
	var rows []domain.DeniedUser
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			acl.user_id AS user_id,
			u.username AS username,
			acl.reason AS reason,
			acl.created_at AS denied_at,
			acl.created_by AS denied_by,
			creator.username AS denied_by_name
		FROM kb_access_control acl
		JOIN users u ON acl.user_id = u.id
		LEFT JOIN users creator ON acl.created_by = creator.id
		WHERE acl.kb_id = ? AND acl.access_type = ?
		ORDER BY acl.created_at DESC
	`, kbID, domain.AccessTypeDeny).Scan(&rows).Error
	return rows, err
}

func (r *accessControlRepository) CountActiveUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("is_deleted = ?", false).
		Count(&count).Error
	return count, err
}
