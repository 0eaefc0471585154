package domain

import (
	"context"
	"time"

	"estate-crm/internal/core/scope"
)

type PropertyStatus string

const (
	PropertyAvailable PropertyStatus = "available"
	PropertyPending   PropertyStatus = "pending"
	PropertySold      PropertyStatus = "sold"
	PropertyWithdrawn PropertyStatus = "withdrawn"
)

var PropertyStatuses = []PropertyStatus{PropertyAvailable, PropertyPending, PropertySold, PropertyWithdrawn}

func (s PropertyStatus) Valid() bool {
	for _, v := range PropertyStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type PropertyType string

const (
	PropertyHouse     PropertyType = "house"
	PropertyCondo     PropertyType = "condo"
	PropertyTownhouse PropertyType = "townhouse"
	PropertyApartment PropertyType = "apartment"
	PropertyLand      PropertyType = "land"
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyHouse, PropertyCondo, PropertyTownhouse, PropertyApartment, PropertyLand:
		return true
	}
	return false
}

// Property 房源；AgentID 是归属人，agent 只能看到自己的
type Property struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	Address     string         `gorm:"size:255;not null" json:"address"`
	City        string         `gorm:"size:128;not null" json:"city"`
	State       string         `gorm:"size:64;not null" json:"state"`
	ZipCode     string         `gorm:"size:16" json:"zipCode"`
	Type        PropertyType   `gorm:"size:16;not null" json:"type"`
	Price       *float64       `json:"price"`
	Beds        *int           `json:"beds"`
	Baths       *float64       `json:"baths"`
	Sqft        *int           `json:"sqft"`
	Description string         `gorm:"type:text" json:"description"`
	Status      PropertyStatus `gorm:"size:16;not null;index" json:"status"`
	AgentID     *string        `gorm:"size:36;index" json:"agentId"`
	ProjectID   *string        `gorm:"size:36;index" json:"projectId"`
	CreatedBy   string         `gorm:"size:36" json:"createdBy"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (Property) TableName() string { return "properties" }

type PropertyPage struct {
	Data       []Property       `json:"data"`
	Pagination scope.Pagination `json:"pagination"`
}

type PropertyRepository interface {
	Create(ctx context.Context, p *Property) error
	List(ctx context.Context, plan scope.PropertyPlan) ([]Property, int64, error)
}
