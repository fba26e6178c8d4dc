package service

import (
	"context"

	"github.com/kb-scope-api/internal/domain"
	"github.com/kb-scope-api/internal/dto"
	"github.com/kb-scope-api/internal/repository"
)

// UserDepartmentService определяет интерфейс принадлежности пользователей
// подразделениям
type UserDepartmentService interface {
	Assign(ctx context.Context, userID int64, req *dto.AssignUserDepartmentsRequest) ([]domain.UserDepartment, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.UserDepartment, error)
	Remove(ctx context.Context, userID, departmentID int64) error
	SetPrimary(ctx context.Context, userID, departmentID int64) error
}

type userDepartmentService struct {
	userDeptRepo repository.UserDepartmentRepository
	deptRepo     repository.DepartmentRepository
}

// NewUserDepartmentService создаёт новый экземпляр сервиса
func NewUserDepartmentService(userDeptRepo repository.UserDepartmentRepository, deptRepo repository.DepartmentRepository) UserDepartmentService {
	return &userDepartmentService{
		userDeptRepo: userDeptRepo,
		deptRepo:     deptRepo,
	}
}

func (s *userDepartmentService) Assign(ctx context.Context, userID int64, req *dto.AssignUserDepartmentsRequest) ([]domain.UserDepartment, error) {
	// Проверяем существование всех подразделений до записи
	for _, deptID := range req.DepartmentIDs {
		if _, err := s.deptRepo.GetByID(ctx, deptID); err != nil {
			return nil, err
		}
	}

	if err := s.userDeptRepo.Assign(ctx, userID, req.DepartmentIDs, req.PrimaryID); err != nil {
		return nil, err
	}

	return s.userDeptRepo.ListByUser(ctx, userID)
}

func (s *userDepartmentService) ListByUser(ctx context.Context, userID int64) ([]domain.UserDepartment, error) {
	return s.userDeptRepo.ListByUser(ctx, userID)
}

func (s *userDepartmentService) Remove(ctx context.Context, userID, departmentID int64) error {
	return s.userDeptRepo.Remove(ctx, userID, departmentID)
}

func (s *userDepartmentService) SetPrimary(ctx context.Context, userID, departmentID int64) error {
	if _, err := s.deptRepo.GetByID(ctx, departmentID); err != nil {
		return err
	}
	return s.userDeptRepo.SetPrimary(ctx, userID, departmentID)
}
