package repo

import (
	"context"

	"estate-crm/internal/core/scope"
	"estate-crm/internal/domain"
)

type LeadRepo struct{ c conn }

func (r *LeadRepo) Create(ctx context.Context, l *domain.Lead) error {
	db, cancel := r.c.with(ctx)
	defer cancel()
	return translate(db.Create(l).Error)
}

func (r *LeadRepo) FindByID(ctx context.Context, id string) (*domain.Lead, error) {
	st := scope.LeadByID(id)
	db, cancel := r.c.with(ctx)
	defer cancel()
	var rows []domain.Lead
	if err := db.Raw(st.SQL, st.Args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *LeadRepo) Update(ctx context.Context, l *domain.Lead) error {
	db, cancel := r.c.with(ctx)
	defer cancel()
	res := db.Model(l).Select(
		"name", "email", "phone", "status", "type", "assigned_agent_id",
		"source", "budget", "requirements", "notes", "updated_at",
	).Updates(l)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List runs the plan's count and row statements; both carry the same predicate args.
func (r *LeadRepo) List(ctx context.Context, plan scope.LeadPlan) ([]domain.Lead, int64, error) {
	db, cancel := r.c.with(ctx)
	defer cancel()

	var total int64
	if err := db.Raw(plan.Count.SQL, plan.Count.Args...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Lead, 0, plan.Page.Limit)
	if total == 0 || int64(plan.Page.Offset) >= total {
		return out, total, nil
	}
	if err := db.Raw(plan.Rows.SQL, plan.Rows.Args...).Scan(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *LeadRepo) CountByStatus(ctx context.Context, plan scope.LeadPlan) ([]domain.StatusCount, error) {
	db, cancel := r.c.with(ctx)
	defer cancel()
	var out []domain.StatusCount
	if err := db.Raw(plan.ByStatus.SQL, plan.ByStatus.Args...).Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
