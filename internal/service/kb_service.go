package service

import (
	"context"

	"github.com/kb-scope-api/internal/domain"
	"github.com/kb-scope-api/internal/dto"
	"github.com/kb-scope-api/internal/repository"
)

// KBService определяет интерфейс привязки знаниевых баз к подразделениям
type KBService interface {
	Link(ctx context.Context, kbID string, req *dto.KBLinkRequest) ([]domain.Department, error)
	Unlink(ctx context.Context, kbID string, departmentID int64) error
	ListDepartments(ctx context.Context, kbID string) ([]domain.Department, error)
	ResolveKBIDs(ctx context.Context, departmentIDs []int64, includeSubtrees bool) ([]string, error)
	SearchKBs(ctx context.Context, departmentIDs []int64, includeSubtrees bool) ([]dto.KBWithDepartments, error)
	AllKBIDs(ctx context.Context) ([]string, error)
	KBNames(ctx context.Context, kbIDs []string) (map[string]string, error)
}

type kbService struct {
	kbRepo   repository.KBRepository
	deptRepo repository.DepartmentRepository
}

// NewKBService создаёт новый экземпляр сервиса
func NewKBService(kbRepo repository.KBRepository, deptRepo repository.DepartmentRepository) KBService {
	return &kbService{
		kbRepo:   kbRepo,
		deptRepo: deptRepo,
	}
}

func (s *kbService) Link(ctx context.Context, kbID string, req *dto.KBLinkRequest) ([]domain.Department, error) {
	// Проверяем существование всех подразделений до записи
	for _, deptID := range req.DepartmentIDs {
		if _, err := s.deptRepo.GetByID(ctx, deptID); err != nil {
			return nil, err
		}
	}

	if err := s.kbRepo.Link(ctx, kbID, req.DepartmentIDs, req.Replace); err != nil {
		return nil, err
	}

	return s.kbRepo.ListDepartments(ctx, kbID)
}

func (s *kbService) Unlink(ctx context.Context, kbID string, departmentID int64) error {
	return s.kbRepo.Unlink(ctx, kbID, departmentID)
}

func (s *kbService) ListDepartments(ctx context.Context, kbID string) ([]domain.Department, error) {
	return s.kbRepo.ListDepartments(ctx, kbID)
}

// ResolveKBIDs возвращает базы, видимые из набора подразделений.
// Пустой набор даёт пустой результат: "без фильтра" выражается через каталог.
func (s *kbService) ResolveKBIDs(ctx context.Context, departmentIDs []int64, includeSubtrees bool) ([]string, error) {
	if len(departmentIDs) == 0 {
		return nil, nil
	}

	scope := departmentIDs
	if includeSubtrees {
		seen := make(map[int64]struct{})
		for _, id := range departmentIDs {
			subtree, err := s.deptRepo.GetSubtree(ctx, id)
			if err != nil {
				return nil, err
			}
			for _, dept := range subtree {
				seen[dept.ID] = struct{}{}
			}
		}

		scope = make([]int64, 0, len(seen))
		for id := range seen {
			scope = append(scope, id)
		}
	}

	return s.kbRepo.KBIDsByDepartments(ctx, scope)
}

func (s *kbService) SearchKBs(ctx context.Context, departmentIDs []int64, includeSubtrees bool) ([]dto.KBWithDepartments, error) {
	kbIDs, err := s.ResolveKBIDs(ctx, departmentIDs, includeSubtrees)
	if err != nil {
		return nil, err
	}

	result := make([]dto.KBWithDepartments, 0, len(kbIDs))
	for _, kbID := range kbIDs {
		departments, err := s.kbRepo.ListDepartments(ctx, kbID)
		if err != nil {
			return nil, err
		}

		entry := dto.KBWithDepartments{KBID: kbID, Departments: make([]dto.DepartmentResponse, 0, len(departments))}
		for i := range departments {
			entry.Departments = append(entry.Departments, toDepartmentResponse(&departments[i]))
		}
		result = append(result, entry)
	}

	return result, nil
}

func (s *kbService) AllKBIDs(ctx context.Context) ([]string, error) {
	return s.kbRepo.AllKBIDs(ctx)
}

func (s *kbService) KBNames(ctx context.Context, kbIDs []string) (map[string]string, error) {
	return s.kbRepo.KBNames(ctx, kbIDs)
}
