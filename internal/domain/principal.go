package domain

import (
	"context"
	"time"

	"gorm.io/gorm"

	"estate-crm/internal/core/auth"
)

// Principal 登录主体；表名沿用 users
type Principal struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	Email        string         `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Name         string         `gorm:"size:128;not null" json:"name"`
	Phone        string         `gorm:"size:32" json:"phone"`
	Role         auth.Role      `gorm:"size:16;not null;index" json:"role"`
	PasswordHash string         `gorm:"size:100;not null" json:"-"`
	IsActive     bool           `gorm:"not null" json:"isActive"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Principal) TableName() string { return "users" }

func (p *Principal) Identity() auth.Identity { return auth.Identity{ID: p.ID, Role: p.Role} }

// CanSignIn 未停用且未被软删除
func (p *Principal) CanSignIn() bool { return p != nil && p.IsActive && !p.DeletedAt.Valid }

// RoleAssignment is the role side table, rewritten whenever a principal's role is set.
type RoleAssignment struct {
	UserID     string    `gorm:"primaryKey;size:36" json:"userId"`
	Role       auth.Role `gorm:"size:16;not null" json:"role"`
	AssignedBy *string   `gorm:"size:36" json:"assignedBy,omitempty"`
	AssignedAt time.Time `gorm:"not null" json:"assignedAt"`
}

func (RoleAssignment) TableName() string { return "user_roles" }

type PrincipalFilter struct {
	Search   string
	Role     string
	Page     int
	PageSize int
}

// PrincipalRepository 查询默认排除软删除记录；Find* 未命中返回 (nil, nil)
type PrincipalRepository interface {
	Create(ctx context.Context, p *Principal) error
	FindByID(ctx context.Context, id string) (*Principal, error)
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	List(ctx context.Context, f PrincipalFilter) ([]Principal, int64, error)
	Update(ctx context.Context, p *Principal) error
	UpdatePassword(ctx context.Context, id, hash string) error
	SoftDelete(ctx context.Context, id string) error
	AssignRole(ctx context.Context, a *RoleAssignment) error
}
