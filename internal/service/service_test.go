package service_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/kb-scope-api/internal/domain"
	"github.com/kb-scope-api/internal/dto"
	"github.com/kb-scope-api/internal/repository"
	"github.com/kb-scope-api/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openTestDB поднимает изолированную in-memory SQLite базу со схемой ядра
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Одно соединение, иначе каждый коннект пула получит свою пустую базу
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&domain.User{},
		&domain.KnowledgeBase{},
		&domain.Department{},
		&domain.UserDepartmentRelation{},
		&domain.KBDepartmentRelation{},
		&domain.KBAccessControl{},
		&domain.KBFile{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testEnv struct {
	db            *gorm.DB
	deptService   service.DepartmentService
	kbService     service.KBService
	accessService service.AccessControlService
	searchService service.FileSearchService
	userDeptSvc   service.UserDepartmentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := openTestDB(t)
	logger := testLogger()

	deptRepo := repository.NewDepartmentRepository(db)
	kbRepo := repository.NewKBRepository(db)
	accessRepo := repository.NewAccessControlRepository(db)
	fileRepo := repository.NewFileRepository(db)
	userDeptRepo := repository.NewUserDepartmentRepository(db)

	deptService := service.NewDepartmentService(deptRepo, logger)
	kbService := service.NewKBService(kbRepo, deptRepo)
	accessService := service.NewAccessControlService(accessRepo)

	return &testEnv{
		db:            db,
		deptService:   deptService,
		kbService:     kbService,
		accessService: accessService,
		searchService: service.NewFileSearchService(kbService, accessService, fileRepo, logger),
		userDeptSvc:   service.NewUserDepartmentService(userDeptRepo, deptRepo),
	}
}

func (e *testEnv) mustCreateDepartment(t *testing.T, name string, parentID *int64) *domain.Department {
	t.Helper()

	req := dto.CreateDepartmentRequest{Name: name, ParentID: parentID}
	dept, err := e.deptService.Create(context.Background(), &req)
	if err != nil {
		t.Fatalf("failed to create department %q: %v", name, err)
	}
	return dept
}

func (e *testEnv) mustCreateUser(t *testing.T, username string) *domain.User {
	t.Helper()

	user := &domain.User{Username: username, Role: domain.RoleUser}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %q: %v", username, err)
	}
	return user
}

func (e *testEnv) mustCreateKB(t *testing.T, id, name string) {
	t.Helper()

	if err := e.db.Create(&domain.KnowledgeBase{ID: id, Name: name}).Error; err != nil {
		t.Fatalf("failed to create knowledge base %q: %v", id, err)
	}
}

func (e *testEnv) mustCreateFile(t *testing.T, file *domain.KBFile) {
	t.Helper()

	if file.Status == "" {
		file.Status = "indexed"
	}
	if err := e.db.Create(file).Error; err != nil {
		t.Fatalf("failed to create file %q: %v", file.FileID, err)
	}
}
