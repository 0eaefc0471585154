package domain

import (
	"context"
	"time"

	"estate-crm/internal/core/scope"
)

// Project 楼盘项目；房源通过 project_id 归属
type Project struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Name          string    `gorm:"size:191;not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	ReraProjectID string    `gorm:"size:64" json:"reraProjectId"`
	Possession    string    `gorm:"size:64" json:"possession"`
	Address       string    `gorm:"size:255" json:"address"`
	Street        string    `gorm:"size:255" json:"street"`
	Locality      string    `gorm:"size:128" json:"locality"`
	City          string    `gorm:"size:128" json:"city"`
	State         string    `gorm:"size:64" json:"state"`
	Country       string    `gorm:"size:64" json:"country"`
	Zip           string    `gorm:"size:16" json:"zip"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	IsActive      bool      `gorm:"not null;index" json:"isActive"`
	CreatedBy     string    `gorm:"size:36" json:"createdBy"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	// 列表查询时按房源汇总
	TotalProperties int64 `gorm:"->;-:migration;column:total_properties" json:"totalProperties"`
	SoldProperties  int64 `gorm:"->;-:migration;column:sold_properties" json:"soldProperties"`
}

func (Project) TableName() string { return "projects" }

type ProjectPage struct {
	Data       []Project        `json:"data"`
	Pagination scope.Pagination `json:"pagination"`
}

// ProjectRepository FindByID 未命中返回 (nil, nil)
type ProjectRepository interface {
	Create(ctx context.Context, p *Project) error
	FindByID(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context, plan scope.ProjectPlan) ([]Project, int64, error)
}
