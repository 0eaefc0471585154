package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"estate-crm/internal/core/scope"
	"estate-crm/internal/domain"
)

type PrincipalRepo struct{ c conn }

func (r *PrincipalRepo) Create(ctx context.Context, p *domain.Principal) error {
	db, cancel := r.c.with(ctx)
	defer cancel()
	return translate(db.Create(p).Error)
}

func (r *PrincipalRepo) FindByID(ctx context.Context, id string) (*domain.Principal, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *PrincipalRepo) FindByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *PrincipalRepo) first(ctx context.Context, query string, arg any) (*domain.Principal, error) {
	db, cancel := r.c.with(ctx)
	defer cancel()
	var p domain.Principal
	err := db.Where(query, arg).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PrincipalRepo) List(ctx context.Context, f domain.PrincipalFilter) ([]domain.Principal, int64, error) {
	plan := scope.BuildPrincipalPlan(scope.PrincipalQuery{
		Search: f.Search, Role: f.Role, Page: f.Page, PageSize: f.PageSize,
	})
	db, cancel := r.c.with(ctx)
	defer cancel()

	var total int64
	if err := db.Raw(plan.Count.SQL, plan.Count.Args...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Principal, 0, plan.Page.Limit)
	if total == 0 {
		return out, 0, nil
	}
	if err := db.Raw(plan.Rows.SQL, plan.Rows.Args...).Scan(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update 只写可编辑列
func (r *PrincipalRepo) Update(ctx context.Context, p *domain.Principal) error {
	db, cancel := r.c.with(ctx)
	defer cancel()
	res := db.Model(p).Select("email", "name", "phone", "role", "is_active", "updated_at").Updates(p)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PrincipalRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	db, cancel := r.c.with(ctx)
	defer cancel()
	res := db.Model(&domain.Principal{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PrincipalRepo) SoftDelete(ctx context.Context, id string) error {
	db, cancel := r.c.with(ctx)
	defer cancel()
	res := db.Where("id = ?", id).Delete(&domain.Principal{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AssignRole upserts the principal's row in user_roles.
func (r *PrincipalRepo) AssignRole(ctx context.Context, a *domain.RoleAssignment) error {
	db, cancel := r.c.with(ctx)
	defer cancel()
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "assigned_by", "assigned_at"}),
	}).Create(a).Error
}
