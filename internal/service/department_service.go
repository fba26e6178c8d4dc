package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/kb-scope-api/internal/domain"
	"github.com/kb-scope-api/internal/dto"
	"github.com/kb-scope-api/internal/repository"
)

// DepartmentService определяет интерфейс бизнес-логики для подразделений
type DepartmentService interface {
	Create(ctx context.Context, req *dto.CreateDepartmentRequest) (*domain.Department, error)
	Update(ctx context.Context, id int64, req *dto.UpdateDepartmentRequest) (*domain.Department, error)
	Delete(ctx context.Context, id int64, force bool) error
	GetTree(ctx context.Context) ([]*dto.DepartmentNode, error)
	GetSubtree(ctx context.Context, id int64) ([]domain.Department, error)
	ExpandToSubtrees(ctx context.Context, ids []int64) ([]int64, error)
}

type departmentService struct {
	deptRepo repository.DepartmentRepository
	logger   *slog.Logger
}

// NewDepartmentService создаёт новый экземпляр сервиса
func NewDepartmentService(deptRepo repository.DepartmentRepository, logger *slog.Logger) DepartmentService {
	return &departmentService{
		deptRepo: deptRepo,
		logger:   logger,
	}
}

func (s *departmentService) Create(ctx context.Context, req *dto.CreateDepartmentRequest) (*domain.Department, error) {
	name := strings.TrimSpace(req.Name)

	// Уровень и путь наследуются от родителя
	level := 1
	parentPath := ""
	if req.ParentID != nil {
		parent, err := s.deptRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		level = parent.Level + 1
		parentPath = parent.Path
	}

	// Проверяем уникальность имени в пределах родителя
	exists, err := s.deptRepo.ExistsByNameAndParent(ctx, name, req.ParentID, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateDepartmentName
	}

	dept := &domain.Department{
		Name:        name,
		ParentID:    req.ParentID,
		Level:       level,
		SortOrder:   req.SortOrder,
		Description: req.Description,
		IsActive:    true,
	}

	if err := s.deptRepo.Create(ctx, dept, parentPath); err != nil {
		return nil, err
	}

	return dept, nil
}

func (s *departmentService) Update(ctx context.Context, id int64, req *dto.UpdateDepartmentRequest) (*domain.Department, error) {
	if req.Name == nil && req.Description == nil && req.SortOrder == nil && req.IsActive == nil {
		return nil, domain.ErrNoFieldsToUpdate
	}

	dept, err := s.deptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)

		// Проверяем уникальность нового имени среди соседей
		exists, err := s.deptRepo.ExistsByNameAndParent(ctx, name, dept.ParentID, &id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.ErrDuplicateDepartmentName
		}

		dept.Name = name
	}

	if req.Description != nil {
		dept.Description = *req.Description
	}
	if req.SortOrder != nil {
		dept.SortOrder = *req.SortOrder
	}
	if req.IsActive != nil {
		dept.IsActive = *req.IsActive
	}

	if err := s.deptRepo.Update(ctx, dept); err != nil {
		return nil, err
	}

	return dept, nil
}

// Delete удаляет подразделение. Без force удаление блокируется при наличии
// детей; с force потомки и зависимые связи снимаются каскадом в хранилище.
func (s *departmentService) Delete(ctx context.Context, id int64, force bool) error {
	if _, err := s.deptRepo.GetByID(ctx, id); err != nil {
		return err
	}

	children, err := s.deptRepo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 && !force {
		return fmt.Errorf("%w: %d child departments", domain.ErrDepartmentHasChildren, children)
	}

	return s.deptRepo.Delete(ctx, id)
}

// GetTree собирает лес подразделений за один проход по отсортированному
// списку. Узел с неизвестным родителем не теряется, а поднимается в корень
// с предупреждением в логе.
func (s *departmentService) GetTree(ctx context.Context) ([]*dto.DepartmentNode, error) {
	departments, err := s.deptRepo.GetAllActive(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := s.deptRepo.PrimaryUserCounts(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make(map[int64]*dto.DepartmentNode, len(departments))
	tree := make([]*dto.DepartmentNode, 0)

	for i := range departments {
		dept := &departments[i]
		node := &dto.DepartmentNode{
			DepartmentResponse: toDepartmentResponse(dept),
			UserCount:          counts[dept.ID],
			Children:           []*dto.DepartmentNode{},
		}
		nodes[dept.ID] = node

		if dept.ParentID == nil {
			tree = append(tree, node)
			continue
		}

		parent, ok := nodes[*dept.ParentID]
		if !ok {
			s.logger.Warn("department has unknown parent, attaching to root",
				slog.Int64("department_id", dept.ID),
				slog.Int64("parent_id", *dept.ParentID),
			)
			tree = append(tree, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	return tree, nil
}

func (s *departmentService) GetSubtree(ctx context.Context, id int64) ([]domain.Department, error) {
	subtree, err := s.deptRepo.GetSubtree(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(subtree) == 0 {
		return nil, domain.ErrDepartmentNotFound
	}
	return subtree, nil
}

// ExpandToSubtrees объединяет поддеревья входных подразделений без дублей.
// Несуществующие id молча пропускаются: для поиска это пустая область, не ошибка.
func (s *departmentService) ExpandToSubtrees(ctx context.Context, ids []int64) ([]int64, error) {
	seen := make(map[int64]struct{})
	for _, id := range ids {
		subtree, err := s.deptRepo.GetSubtree(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, dept := range subtree {
			seen[dept.ID] = struct{}{}
		}
	}

	expanded := make([]int64, 0, len(seen))
	for id := range seen {
		expanded = append(expanded, id)
	}
	slices.Sort(expanded)
	return expanded, nil
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
