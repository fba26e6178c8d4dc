package repository

import (
	"context"

	"github.com/kb-scope-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KBRepository определяет интерфейс для связей знаниевых баз с подразделениями
// и для чтения каталога баз
type KBRepository interface {
	Link(ctx context.Context, kbID string, departmentIDs []int64, replace bool) error
	Unlink(ctx context.Context, kbID string, departmentID int64) error
	ListDepartments(ctx context.Context, kbID string) ([]domain.Department, error)
	KBIDsByDepartments(ctx context.Context, departmentIDs []int64) ([]string, error)
	AllKBIDs(ctx context.Context) ([]string, error)
	KBNames(ctx context.Context, kbIDs []string) (map[string]string, error)
}

type kbRepository struct {
	db *gorm.DB
}

// NewKBRepository создаёт новый экземпляр репозитория
func NewKBRepository(db *gorm.DB) KBRepository {
	return &kbRepository{db: db}
}

// Link добавляет привязки идемпотентно, при replace сначала снимает существующие
func (r *kbRepository) Link(ctx context.Context, kbID string, departmentIDs []int64, replace bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if replace {
			if err := tx.Where("kb_id = ?", kbID).Delete(&domain.KBDepartmentRelation{}).Error; err != nil {
				return err
			}
		}

		relations := make([]domain.KBDepartmentRelation, 0, len(departmentIDs))
		for _, deptID := range departmentIDs {
			relations = append(relations, domain.KBDepartmentRelation{
				KBID:         kbID,
				DepartmentID: deptID,
			})
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kb_id"}, {Name: "department_id"}},
			DoNothing: true,
		}).Create(&relations).Error
	})
}

func (r *kbRepository) Unlink(ctx context.Context, kbID string, departmentID int64) error {
	return r.db.WithContext(ctx).
		Where("kb_id = ? AND department_id = ?", kbID, departmentID).
		Delete(&domain.KBDepartmentRelation{}).Error
}

func (r *kbRepository) ListDepartments(ctx context.Context, kbID string) ([]domain.Department, error) {
	var departments []domain.Department
	err := r.db.WithContext(ctx).
		Joins("JOIN kb_department_relations kdr ON kdr.department_id = departments.id").
		Where("kdr.kb_id = ? AND departments.is_active = ?", kbID, true).
		Order("departments.level, departments.sort_order").
		Find(&departments).Error
	return departments, err
}

// KBIDsByDepartments возвращает базы, привязанные хотя бы к одному из подразделений.
// Пустой вход даёт пустой выход, а не "все базы".
func (r *kbRepository) KBIDsByDepartments(ctx context.Context, departmentIDs []int64) ([]string, error) {
	if len(departmentIDs) == 0 {
		return nil, nil
	}

	var kbIDs []string
	err := r.db.WithContext(ctx).
		Model(&domain.KBDepartmentRelation{}).
		Distinct("kb_id").
		Where("department_id IN ?", departmentIDs).
		Pluck("kb_id", &kbIDs).Error
	return kbIDs, err
}

func (r *kbRepository) AllKBIDs(ctx context.Context) ([]string, error) {
	var kbIDs []string
	err := r.db.WithContext(ctx).
		Model(&domain.KnowledgeBase{}).
		Pluck("id", &kbIDs).Error
	return kbIDs, err
}

func (r *kbRepository) KBNames(ctx context.Context, kbIDs []string) (map[string]string, error) {
	if len(kbIDs) == 0 {
		return map[string]string{}, nil
	}

	var kbs []domain.KnowledgeBase
	err := r.db.WithContext(ctx).Where("id IN ?", kbIDs).Find(&kbs).Error
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(kbs))
	for _, kb := range kbs {
		names[kb.ID] = kb.Name
	}
	return names, nil
}
