package repo

import (
	"context"

	"estate-crm/internal/core/scope"
	"estate-crm/internal/domain"
)

type ProjectRepo struct{ c conn }

func (r *ProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	db, cancel := r.c.with(ctx)
	defer cancel()
	return translate(db.Create(p).Error)
}

func (r *ProjectRepo) FindByID(ctx context.Context, id string) (*domain.Project, error) {
	st := scope.ProjectByID(id)
	db, cancel := r.c.with(ctx)
	defer cancel()
	var rows []domain.Project
	if err := db.Raw(st.SQL, st.Args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *ProjectRepo) List(ctx context.Context, plan scope.ProjectPlan) ([]domain.Project, int64, error) {
	db, cancel := r.c.with(ctx)
	defer cancel()

	var total int64
	if err := db.Raw(plan.Count.SQL, plan.Count.Args...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Project, 0, plan.Page.Limit)
	if total == 0 || int64(plan.Page.Offset) >= total {
		return out, total, nil
	}
	if err := db.Raw(plan.Rows.SQL, plan.Rows.Args...).Scan(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
