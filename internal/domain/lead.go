package domain

import (
	"context"
	"time"

	"estate-crm/internal/core/scope"
)

type LeadStatus string

const (
	StatusNew       LeadStatus = "new"
	StatusContacted LeadStatus = "contacted"
	StatusQualified LeadStatus = "qualified"
	StatusNurturing LeadStatus = "nurturing"
	StatusConverted LeadStatus = "converted"
	StatusCold      LeadStatus = "cold"
	StatusLost      LeadStatus = "lost"
)

var LeadStatuses = []LeadStatus{
	StatusNew, StatusContacted, StatusQualified, StatusNurturing,
	StatusConverted, StatusCold, StatusLost,
}

func (s LeadStatus) Valid() bool {
	for _, v := range LeadStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type LeadType string

const (
	TypeBuyer    LeadType = "buyer"
	TypeSeller   LeadType = "seller"
	TypeTenant   LeadType = "tenant"
	TypeInvestor LeadType = "investor"
)

func (t LeadType) Valid() bool {
	switch t {
	case TypeBuyer, TypeSeller, TypeTenant, TypeInvestor:
		return true
	}
	return false
}

// Lead 线索（表 contacts）
type Lead struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	Name            string     `gorm:"size:128;not null" json:"name"`
	Email           string     `gorm:"size:191" json:"email"`
	Phone           string     `gorm:"size:32" json:"phone"`
	Status          LeadStatus `gorm:"size:16;not null;index" json:"status"`
	Type            LeadType   `gorm:"size:16;not null" json:"type"`
	AssignedAgentID *string    `gorm:"size:36;index" json:"assignedAgentId"`
	Source          string     `gorm:"size:64" json:"source"`
	Budget          *float64   `json:"budget"`
	Requirements    string     `gorm:"type:text" json:"requirements"`
	Notes           string     `gorm:"type:text" json:"notes"`
	CreatedBy       string     `gorm:"size:36" json:"createdBy"`
	CreatedAt       time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	AgentName *string `gorm:"->;-:migration;column:agent_name" json:"agentName,omitempty"`
}

func (Lead) TableName() string { return "contacts" }

type LeadPage struct {
	Data       []Lead           `json:"data"`
	Pagination scope.Pagination `json:"pagination"`
}

// LeadExport 导出结果；Truncated 表示命中数超过单次上限
type LeadExport struct {
	Data      []Lead `json:"data"`
	Total     int64  `json:"total"`
	Truncated bool   `json:"truncated"`
}

// LeadStats 按状态分组计数
type LeadStats struct {
	Total    int64                `json:"total"`
	ByStatus map[LeadStatus]int64 `json:"byStatus"`
}

type StatusCount struct {
	Value string
	Total int64
}

// LeadRepository executes compiled plans; it never decides scope itself.
type LeadRepository interface {
	Create(ctx context.Context, l *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	Update(ctx context.Context, l *Lead) error
	List(ctx context.Context, plan scope.LeadPlan) ([]Lead, int64, error)
	CountByStatus(ctx context.Context, plan scope.LeadPlan) ([]StatusCount, error)
}
