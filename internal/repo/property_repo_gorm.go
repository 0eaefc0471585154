package repo

import (
	"context"

	"estate-crm/internal/core/scope"
	"estate-crm/internal/domain"
)

type PropertyRepo struct{ c conn }

func (r *PropertyRepo) Create(ctx context.Context, p *domain.Property) error {
	db, cancel := r.c.with(ctx)
	defer cancel()
	return translate(db.Create(p).Error)
}

func (r *PropertyRepo) List(ctx context.Context, plan scope.PropertyPlan) ([]domain.Property, int64, error) {
	db, cancel := r.c.with(ctx)
	defer cancel()

	var total int64
	if err := db.Raw(plan.Count.SQL, plan.Count.Args...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Property, 0, plan.Page.Limit)
	if total == 0 || int64(plan.Page.Offset) >= total {
		return out, total, nil
	}
	if err := db.Raw(plan.Rows.SQL, plan.Rows.Args...).Scan(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
