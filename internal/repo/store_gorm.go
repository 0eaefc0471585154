package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"estate-crm/internal/domain"
)

// conn 每次往返都套上查询超时；事务内外共用
type conn struct {
	db      *gorm.DB
	timeout time.Duration
}

func (c conn) with(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if c.timeout <= 0 {
		return c.db.WithContext(ctx), func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return c.db.WithContext(ctx), cancel
}

type Store struct {
	c          conn
	principals *PrincipalRepo
	leads      *LeadRepo
	activities *ActivityRepo
	properties *PropertyRepo
	projects   *ProjectRepo
}

func NewStore(db *gorm.DB, queryTimeout time.Duration) *Store {
	c := conn{db: db, timeout: queryTimeout}
	return &Store{
		c:          c,
		principals: &PrincipalRepo{c: c},
		leads:      &LeadRepo{c: c},
		activities: &ActivityRepo{c: c},
		properties: &PropertyRepo{c: c},
		projects:   &ProjectRepo{c: c},
	}
}

func (s *Store) Principals() domain.PrincipalRepository { return s.principals }
func (s *Store) Leads() domain.LeadRepository           { return s.leads }
func (s *Store) Activities() domain.ActivityRepository  { return s.activities }
func (s *Store) Properties() domain.PropertyRepository  { return s.properties }
func (s *Store) Projects() domain.ProjectRepository     { return s.projects }

// Transaction commits only if fn returns nil; any error rolls every write back.
func (s *Store) Transaction(ctx context.Context, fn func(tx domain.Store) error) error {
	return s.c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx, s.c.timeout))
	})
}

// AutoMigrate 建表（开发环境用）
func (s *Store) AutoMigrate(ctx context.Context) error {
	return s.c.db.WithContext(ctx).AutoMigrate(domain.Models()...)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case isDuplicate(err):
		return errors.Join(domain.ErrDuplicate, err)
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
