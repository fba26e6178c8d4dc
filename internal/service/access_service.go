package service

import (
	"context"

	"github.com/kb-scope-api/internal/domain"
	"github.com/kb-scope-api/internal/dto"
	"github.com/kb-scope-api/internal/repository"
)

// AccessControlService определяет интерфейс контроля доступа к знаниевым базам.
// Политика по умолчанию - разрешено: запись в чёрном списке означает запрет,
// роль superadmin обходит все проверки.
type AccessControlService interface {
	CanAccess(ctx context.Context, userID int64, kbID string, role string) (bool, error)
	DeniedKBIDs(ctx context.Context, userID int64, role string) ([]string, error)
	Deny(ctx context.Context, kbID string, req *dto.AccessDenyRequest, operatorID *int64) (int64, error)
	Allow(ctx context.Context, kbID string, req *dto.AccessAllowRequest) (int64, error)
	AccessList(ctx context.Context, kbID string) (*dto.AccessControlList, error)
	BatchCheck(ctx context.Context, userID int64, kbIDs []string, role string) (map[string]bool, error)
}

type accessControlService struct {
	accessRepo repository.AccessControlRepository
}

// NewAccessControlService создаёт новый экземпляр сервиса
func NewAccessControlService(accessRepo repository.AccessControlRepository) AccessControlService {
	return &accessControlService{accessRepo: accessRepo}
}

func (s *accessControlService) CanAccess(ctx context.Context, userID int64, kbID string, role string) (bool, error) {
	if role == domain.RoleSuperadmin {
		return true, nil
	}

	denied, err := s.accessRepo.IsDenied(ctx, userID, kbID)
	if err != nil {
		return false, err
	}
	return !denied, nil
}

// DeniedKBIDs возвращает чёрный список пользователя. Для superadmin список
// пуст; обход проверки делается выше по роли, а не выводится из пустоты.
func (s *accessControlService) DeniedKBIDs(ctx context.Context, userID int64, role string) ([]string, error) {
	if role == domain.RoleSuperadmin {
		return nil, nil
	}
	return s.accessRepo.DeniedKBIDs(ctx, userID)
}

func (s *accessControlService) Deny(ctx context.Context, kbID string, req *dto.AccessDenyRequest, operatorID *int64) (int64, error) {
	return s.accessRepo.Deny(ctx, kbID, req.UserIDs, req.Reason, operatorID)
}

func (s *accessControlService) Allow(ctx context.Context, kbID string, req *dto.AccessAllowRequest) (int64, error) {
	return s.accessRepo.Allow(ctx, kbID, req.UserIDs)
}

func (s *accessControlService) AccessList(ctx context.Context, kbID string) (*dto.AccessControlList, error) {
	deniedUsers, err := s.accessRepo.ListDenied(ctx, kbID)
	if err != nil {
		return nil, err
	}

	totalUsers, err := s.accessRepo.CountActiveUsers(ctx)
	if err != nil {
		return nil, err
	}

	deniedCount := int64(len(deniedUsers))
	return &dto.AccessControlList{
		KBID:         kbID,
		TotalUsers:   totalUsers,
		DeniedCount:  deniedCount,
		AllowedCount: totalUsers - deniedCount,
		DeniedUsers:  deniedUsers,
	}, nil
}

// BatchCheck проверяет доступ к набору баз одним запросом к чёрному списку
func (s *accessControlService) BatchCheck(ctx context.Context, userID int64, kbIDs []string, role string) (map[string]bool, error) {
	result := make(map[string]bool, len(kbIDs))

	if role == domain.RoleSuperadmin {
		for _, kbID := range kbIDs {
			result[kbID] = true
		}
		return result, nil
	}

	denied, err := s.accessRepo.DeniedKBIDsAmong(ctx, userID, kbIDs)
	if err != nil {
		return nil, err
	}

	deniedSet := make(map[string]struct{}, len(denied))
	for _, kbID := range denied {
		deniedSet[kbID] = struct{}{}
	}

	for _, kbID := range kbIDs {
		_, isDenied := deniedSet[kbID]
		result[kbID] = !isDenied
	}
	return result, nil
}
