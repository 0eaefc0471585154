package repo

import (
	"context"

	"estate-crm/internal/domain"
)

type ActivityRepo struct{ c conn }

// Append inserts one row. Activities have no update or delete path.
func (r *ActivityRepo) Append(ctx context.Context, a *domain.LeadActivity) error {
	db, cancel := r.c.with(ctx)
	defer cancel()
	return db.Create(a).Error
}

func (r *ActivityRepo) ListByContact(ctx context.Context, contactID string) ([]domain.LeadActivity, error) {
	db, cancel := r.c.with(ctx)
	defer cancel()
	out := make([]domain.LeadActivity, 0)
	err := db.Where("contact_id = ?", contactID).Order("occurred_at ASC").Order("id ASC").Find(&out).Error
	return out, err
}
