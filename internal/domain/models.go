package domain

import (
	"time"
)

// Роли пользователей, известные ядру
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// Тип записи в таблице контроля доступа. Разрешение по умолчанию,
// поэтому моделируется только запрет.
const AccessTypeDeny = "deny"

// SearchableStatuses - статусы файлов, попадающих в поисковую выдачу
var SearchableStatuses = []string{"indexed", "done"}

// Department представляет подразделение организации.
// Path - материализованный путь из id предков и собственного id ("3/7/12"),
// вычисляется один раз при создании и не пересчитывается.
type Department struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"type:varchar(200);not null;uniqueIndex:ux_dept_name_parent"`
	ParentID    *int64    `json:"parent_id" gorm:"uniqueIndex:ux_dept_name_parent;index"`
	Level       int       `json:"level" gorm:"not null;default:1"`
	Path        string    `json:"path" gorm:"type:varchar(500);index"`
	SortOrder   int       `json:"sort_order" gorm:"default:0"`
	Description string    `json:"description" gorm:"type:text"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Parent *Department `json:"-" gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
}

// TableName задаёт имя таблицы для GORM
func (Department) TableName() string {
	return "departments"
}

// KBDepartmentRelation - связь знаниевой базы с подразделением (многие-ко-многим)
type KBDepartmentRelation struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	KBID         string    `json:"kb_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_kb_dept"`
	DepartmentID int64     `json:"department_id" gorm:"not null;uniqueIndex:ux_kb_dept;index"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`

	Department *Department `json:"-" gorm:"foreignKey:DepartmentID;constraint:OnDelete:CASCADE"`
}

// TableName задаёт имя таблицы для GORM
func (KBDepartmentRelation) TableName() string {
	return "kb_department_relations"
}

// KBAccessControl - запись чёрного списка: наличие строки означает запрет
// доступа пользователя к знаниевой базе
type KBAccessControl struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	KBID       string    `json:"kb_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_kb_user"`
	UserID     int64     `json:"user_id" gorm:"not null;uniqueIndex:ux_kb_user"`
	AccessType string    `json:"access_type" gorm:"type:varchar(16);not null;default:deny"`
	Reason     string    `json:"reason" gorm:"type:text"`
	CreatedBy  *int64    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName задаёт имя таблицы для GORM
func (KBAccessControl) TableName() string {
	return "kb_access_control"
}

// UserDepartmentRelation - принадлежность пользователя подразделению.
// У пользователя может быть несколько подразделений, не более одного основного.
type UserDepartmentRelation struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID       int64     `json:"user_id" gorm:"not null;uniqueIndex:ux_user_dept"`
	DepartmentID int64     `json:"department_id" gorm:"not null;uniqueIndex:ux_user_dept;index"`
	IsPrimary    bool      `json:"is_primary" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`

	Department *Department `json:"-" gorm:"foreignKey:DepartmentID;constraint:OnDelete:CASCADE"`
}

// TableName задаёт имя таблицы для GORM
func (UserDepartmentRelation) TableName() string {
	return "user_department_relations"
}

// User - учётная запись (таблица принадлежит сервису аутентификации,
// читается ядром для счётчиков и имён)
type User struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Username  string    `json:"username" gorm:"type:varchar(100);not null"`
	Role      string    `json:"role" gorm:"type:varchar(32);default:user"`
	IsDeleted bool      `json:"is_deleted" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName задаёт имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// KnowledgeBase - каталог знаниевых баз (таблица принадлежит сервису
// управления базами, читается ядром как справочник)
type KnowledgeBase struct {
	ID        string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName задаёт имя таблицы для GORM
func (KnowledgeBase) TableName() string {
	return "knowledge_bases"
}

// KBFile - метаданные файла знаниевой базы (таблица пополняется конвейером
// индексации, ядро читает её при поиске)
type KBFile struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	FileID    string    `json:"file_id" gorm:"type:varchar(64);not null;uniqueIndex"`
	KBID      string    `json:"kb_id" gorm:"type:varchar(64);not null;index"`
	Filename  string    `json:"filename" gorm:"type:varchar(500);not null"`
	FilePath  string    `json:"file_path" gorm:"type:varchar(1000)"`
	FileSize  int64     `json:"file_size"`
	FileType  string    `json:"file_type" gorm:"type:varchar(32);index"`
	Status    string    `json:"status" gorm:"type:varchar(32);index"`
	IsFolder  bool      `json:"is_folder" gorm:"default:false"`
	Title     string    `json:"title" gorm:"type:varchar(500)"`
	Summary   string    `json:"summary" gorm:"type:text"`
	CreatedBy *int64    `json:"created_by"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName задаёт имя таблицы для GORM
func (KBFile) TableName() string {
	return "kb_files"
}

// FileSearchRow - строка поисковой выдачи (kb_files + имя автора)
type FileSearchRow struct {
	ID            int64     `json:"id"`
	FileID        string    `json:"file_id"`
	KBID          string    `json:"kb_id"`
	Filename      string    `json:"filename"`
	FilePath      string    `json:"file_path"`
	FileSize      int64     `json:"file_size"`
	FileType      string    `json:"file_type"`
	Status        string    `json:"status"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	CreatedBy     *int64    `json:"created_by"`
	CreatedByName string    `json:"created_by_name"`
}

// DeniedUser - строка списка контроля доступа знаниевой базы
type DeniedUser struct {
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username"`
	Reason       string    `json:"reason"`
	DeniedAt     time.Time `json:"denied_at"`
	DeniedBy     *int64    `json:"denied_by"`
	DeniedByName string    `json:"denied_by_name"`
}

// UserDepartment - подразделение пользователя с признаком основного
type UserDepartment struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ParentID  *int64 `json:"parent_id"`
	Level     int    `json:"level"`
	Path      string `json:"path"`
	IsPrimary bool   `json:"is_primary"`
}
