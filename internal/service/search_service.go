package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kb-scope-api/internal/domain"
	"github.com/kb-scope-api/internal/dto"
	"github.com/kb-scope-api/internal/repository"
)

// FileSearchService определяет интерфейс поиска файлов по области видимости
// подразделений с учётом контроля доступа
type FileSearchService interface {
	Search(ctx context.Context, req *dto.FileSearchRequest) (*dto.FileSearchResponse, error)
}

type fileSearchService struct {
	kbService     KBService
	accessService AccessControlService
	fileRepo      repository.FileRepository
	logger        *slog.Logger
}

// NewFileSearchService создаёт новый экземпляр сервиса
func NewFileSearchService(
	kbService KBService,
	accessService AccessControlService,
	fileRepo repository.FileRepository,
	logger *slog.Logger,
) FileSearchService {
	return &fileSearchService{
		kbService:     kbService,
		accessService: accessService,
		fileRepo:      fileRepo,
		logger:        logger,
	}
}

// Search выполняет конвейер: область подразделений -> видимые базы ->
// фильтр доступа -> запрос метаданных -> статистика по подразделениям.
// Пустой результат на любом шаге - нормальный ответ, не ошибка.
func (s *fileSearchService) Search(ctx context.Context, req *dto.FileSearchRequest) (*dto.FileSearchResponse, error) {
	if req.Page < 1 {
		return nil, domain.ErrInvalidPage
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		return nil, domain.ErrInvalidPageSize
	}

	dateFrom, err := parseSearchDate(req.DateFrom)
	if err != nil {
		return nil, err
	}
	dateTo, err := parseSearchDate(req.DateTo)
	if err != nil {
		return nil, err
	}

	empty := &dto.FileSearchResponse{
		Total:           0,
		Page:            req.Page,
		PageSize:        req.PageSize,
		Files:           []dto.FileEntry{},
		DepartmentStats: map[int64]int64{},
	}

	// 1. Разрешение области: явные подразделения или весь каталог
	var kbIDs []string
	if len(req.DepartmentIDs) > 0 {
		includeSubtrees := req.IncludeSubdepts == nil || *req.IncludeSubdepts
		kbIDs, err = s.kbService.ResolveKBIDs(ctx, req.DepartmentIDs, includeSubtrees)
		if err != nil {
			return nil, err
		}
		if len(kbIDs) == 0 {
			s.logger.Info("no knowledge bases linked to departments",
				slog.Any("department_ids", req.DepartmentIDs))
			return empty, nil
		}
	} else {
		kbIDs, err = s.kbService.AllKBIDs(ctx)
		if err != nil {
			return nil, err
		}
		if len(kbIDs) == 0 {
			return empty, nil
		}
	}

	// 2. Фильтрация по чёрному списку, superadmin без ограничений
	if req.UserRole != domain.RoleSuperadmin {
		denied, err := s.accessService.DeniedKBIDs(ctx, req.UserID, req.UserRole)
		if err != nil {
			return nil, err
		}
		if len(denied) > 0 {
			deniedSet := make(map[string]struct{}, len(denied))
			for _, kbID := range denied {
				deniedSet[kbID] = struct{}{}
			}

			accessible := kbIDs[:0]
			for _, kbID := range kbIDs {
				if _, isDenied := deniedSet[kbID]; !isDenied {
					accessible = append(accessible, kbID)
				}
			}
			kbIDs = accessible
		}
		if len(kbIDs) == 0 {
			s.logger.Info("user has no accessible knowledge bases",
				slog.Int64("user_id", req.UserID))
			return empty, nil
		}
	}

	// 3. Запрос метаданных с сортировкой и пагинацией
	filter := repository.FileSearchFilter{
		KBIDs:     kbIDs,
		Keyword:   strings.TrimSpace(req.Keyword),
		FileTypes: req.FileTypes,
		DateFrom:  dateFrom,
		DateTo:    dateTo,
		SortBy:    normalizeSortField(req.SortBy),
		Desc:      !strings.EqualFold(req.Order, "asc"),
		Limit:     req.PageSize,
		Offset:    (req.Page - 1) * req.PageSize,
	}

	rows, total, err := s.fileRepo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	rowKBIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		rowKBIDs = append(rowKBIDs, row.KBID)
	}
	kbNames, err := s.kbService.KBNames(ctx, rowKBIDs)
	if err != nil {
		return nil, err
	}

	files := make([]dto.FileEntry, 0, len(rows))
	for _, row := range rows {
		files = append(files, dto.FileEntry{
			ID:            row.ID,
			FileID:        row.FileID,
			KBID:          row.KBID,
			KBName:        kbNames[row.KBID],
			Filename:      row.Filename,
			FilePath:      row.FilePath,
			FileSize:      row.FileSize,
			FileType:      row.FileType,
			Status:        row.Status,
			Title:         row.Title,
			Summary:       row.Summary,
			CreatedAt:     row.CreatedAt,
			UpdatedAt:     row.UpdatedAt,
			CreatedBy:     row.CreatedBy,
			CreatedByName: row.CreatedByName,
			DownloadURL:   "/api/files/" + row.FileID + "/download",
		})
	}

	// 4. Разбивка по запрошенным подразделениям на том же наборе баз
	stats := map[int64]int64{}
	if len(req.DepartmentIDs) > 0 {
		stats, err = s.fileRepo.DepartmentStats(ctx, kbIDs, req.DepartmentIDs)
		if err != nil {
			return nil, err
		}
	}

	return &dto.FileSearchResponse{
		Total:           total,
		Page:            req.Page,
		PageSize:        req.PageSize,
		Files:           files,
		DepartmentStats: stats,
	}, nil
}

// Допустимые поля сортировки; всё прочее молча заменяется на created_at
var validSortFields = map[string]struct{}{
	"created_at": {},
	"filename":   {},
	"file_size":  {},
	"updated_at": {},
}

func normalizeSortField(sortBy string) string {
	if _, ok := validSortFields[sortBy]; ok {
		return sortBy
	}
	return "created_at"
}

// parseSearchDate принимает RFC3339 или дату без времени
func parseSearchDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDateFormat, value)
}
