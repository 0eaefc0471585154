package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"estate-crm/internal/core/apperr"
	"estate-crm/internal/core/auth"
	"estate-crm/internal/core/scope"
	"estate-crm/internal/domain"
	"estate-crm/pkg/utils"
)

const (
	msgUserNotFound   = "User not found"
	msgEmailTaken     = "User with this email already exists"
	tempPasswordLen   = 12
	roleChoiceMessage = "role must be one of: admin, manager, agent"
)

type UserService struct {
	store domain.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewUserService(store domain.Store, l *zap.Logger) *UserService {
	return &UserService{store: store, log: l, now: time.Now}
}

type PrincipalPage struct {
	Data       []domain.Principal `json:"data"`
	Pagination scope.Pagination   `json:"pagination"`
}

func (s *UserService) List(ctx context.Context, f domain.PrincipalFilter) (*PrincipalPage, error) {
	if f.Role != "" {
		if _, ok := auth.ParseRole(f.Role); !ok {
			return nil, apperr.BadRequest(roleChoiceMessage)
		}
	}
	rows, total, err := s.store.Principals().List(ctx, f)
	if err != nil {
		return nil, storageErr(s.log, "list users failed", err)
	}
	return &PrincipalPage{Data: rows, Pagination: scope.NewPagination(scope.NormalizePage(f.Page, f.PageSize), total)}, nil
}

type CreateUserInput struct {
	Name     string `json:"name" binding:"required,max=128"`
	Email    string `json:"email" binding:"required,email,max=191"`
	Phone    string `json:"phone" binding:"omitempty,max=32"`
	Role     string `json:"role" binding:"required"`
	Password string `json:"password" binding:"omitempty,min=6,max=72"`
}

type CreateUserResult struct {
	User *domain.Principal `json:"user"`
	// TemporaryPassword 仅在未指定密码时返回一次
	TemporaryPassword string `json:"temporaryPassword,omitempty"`
}

// Create stores the principal and its role assignment in one transaction.
func (s *UserService) Create(ctx context.Context, actor auth.Identity, in CreateUserInput) (*CreateUserResult, error) {
	role, ok := auth.ParseRole(in.Role)
	if !ok {
		return nil, apperr.BadRequest(roleChoiceMessage)
	}
	email := NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" {
		return nil, apperr.BadRequest("name and email are required")
	}

	existing, err := s.store.Principals().FindByEmail(ctx, email)
	if err != nil {
		return nil, storageErr(s.log, "check email failed", err)
	}
	if existing != nil {
		return nil, apperr.Conflict(msgEmailTaken)
	}

	res := &CreateUserResult{}
	password := in.Password
	if password == "" {
		if password, err = utils.RandomPassword(tempPasswordLen); err != nil {
			return nil, storageErr(s.log, "generate password failed", err)
		}
		res.TemporaryPassword = password
	} else if len(password) < MinPasswordLen {
		return nil, apperr.BadRequest("password must be at least 6 characters")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperr.BadRequest(err.Error())
	}

	now := s.now().UTC()
	p := &domain.Principal{
		ID:           utils.NewID(),
		Email:        email,
		Name:         name,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.store.Transaction(ctx, func(tx domain.Store) error {
		if err := tx.Principals().Create(ctx, p); err != nil {
			return err
		}
		return tx.Principals().AssignRole(ctx, s.assignment(p, actor, now))
	})
	if err != nil {
		return nil, mapRepoErr(s.log, "create user failed", err, "", msgEmailTaken)
	}
	s.log.Info("user created", zap.String("uid", p.ID), zap.String("role", string(role)), zap.String("by", actor.ID))
	res.User = p
	return res, nil
}

type UpdateUserInput struct {
	Name     *string `json:"name" binding:"omitempty,max=128"`
	Email    *string `json:"email" binding:"omitempty,email,max=191"`
	Phone    *string `json:"phone" binding:"omitempty,max=32"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

// Update edits profile fields; a role change rewrites user_roles in the same transaction.
// Outstanding tokens keep the old role until they expire.
func (s *UserService) Update(ctx context.Context, actor auth.Identity, userID string, in UpdateUserInput) (*domain.Principal, error) {
	p, err := s.store.Principals().FindByID(ctx, userID)
	if err != nil {
		return nil, storageErr(s.log, "load user failed", err)
	}
	if p == nil {
		return nil, apperr.NotFound(msgUserNotFound)
	}

	if in.Name != nil {
		if n := strings.TrimSpace(*in.Name); n != "" {
			p.Name = n
		} else {
			return nil, apperr.BadRequest("name must not be empty")
		}
	}
	if in.Phone != nil {
		p.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if email != p.Email {
			other, err := s.store.Principals().FindByEmail(ctx, email)
			if err != nil {
				return nil, storageErr(s.log, "check email failed", err)
			}
			if other != nil && other.ID != p.ID {
				return nil, apperr.Conflict(msgEmailTaken)
			}
			p.Email = email
		}
	}
	roleChanged := false
	if in.Role != nil {
		role, ok := auth.ParseRole(*in.Role)
		if !ok {
			return nil, apperr.BadRequest(roleChoiceMessage)
		}
		roleChanged = role != p.Role
		p.Role = role
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if p.ID == actor.ID && (p.Role != auth.RoleAdmin || !p.IsActive) {
		return nil, apperr.BadRequest("You cannot remove your own admin access")
	}

	now := s.now().UTC()
	p.UpdatedAt = now
	err = s.store.Transaction(ctx, func(tx domain.Store) error {
		if err := tx.Principals().Update(ctx, p); err != nil {
			return err
		}
		if !roleChanged {
			return nil
		}
		return tx.Principals().AssignRole(ctx, s.assignment(p, actor, now))
	})
	if err != nil {
		return nil, mapRepoErr(s.log, "update user failed", err, msgUserNotFound, msgEmailTaken)
	}
	return p, nil
}

// Delete tombstones the principal; the row stays for foreign keys and history.
func (s *UserService) Delete(ctx context.Context, actor auth.Identity, userID string) error {
	if userID == actor.ID {
		return apperr.BadRequest("You cannot delete your own account")
	}
	err := s.store.Principals().SoftDelete(ctx, userID)
	if err != nil {
		return mapRepoErr(s.log, "delete user failed", err, msgUserNotFound, "")
	}
	s.log.Info("user deleted", zap.String("uid", userID), zap.String("by", actor.ID))
	return nil
}

func (s *UserService) assignment(p *domain.Principal, actor auth.Identity, at time.Time) *domain.RoleAssignment {
	a := &domain.RoleAssignment{UserID: p.ID, Role: p.Role, AssignedAt: at}
	if actor.ID != "" {
		by := actor.ID
		a.AssignedBy = &by
	}
	return a
}

// BootstrapAdmin creates the admin for email, or re-activates an existing principal as admin
// with a fresh password. issued is non-empty only when the password was generated.
func (s *UserService) BootstrapAdmin(ctx context.Context, email, name, password string) (p *domain.Principal, issued string, err error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, "", apperr.BadRequest("email is required")
	}
	existing, err := s.store.Principals().FindByEmail(ctx, email)
	if err != nil {
		return nil, "", storageErr(s.log, "check email failed", err)
	}
	if existing == nil {
		if strings.TrimSpace(name) == "" {
			name = "Administrator"
		}
		res, err := s.Create(ctx, auth.Identity{}, CreateUserInput{
			Name: name, Email: email, Role: string(auth.RoleAdmin), Password: password,
		})
		if err != nil {
			return nil, "", err
		}
		return res.User, res.TemporaryPassword, nil
	}

	if password == "" {
		if password, err = utils.RandomPassword(tempPasswordLen); err != nil {
			return nil, "", storageErr(s.log, "generate password failed", err)
		}
		issued = password
	} else if len(password) < MinPasswordLen {
		return nil, "", apperr.BadRequest("password must be at least 6 characters")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", apperr.BadRequest(err.Error())
	}

	now := s.now().UTC()
	roleChanged := existing.Role != auth.RoleAdmin
	existing.Role = auth.RoleAdmin
	existing.IsActive = true
	existing.UpdatedAt = now
	if n := strings.TrimSpace(name); n != "" {
		existing.Name = n
	}
	err = s.store.Transaction(ctx, func(tx domain.Store) error {
		if err := tx.Principals().Update(ctx, existing); err != nil {
			return err
		}
		if err := tx.Principals().UpdatePassword(ctx, existing.ID, hash); err != nil {
			return err
		}
		if !roleChanged {
			return nil
		}
		return tx.Principals().AssignRole(ctx, s.assignment(existing, auth.Identity{}, now))
	})
	if err != nil {
		return nil, "", mapRepoErr(s.log, "bootstrap admin failed", err, msgUserNotFound, msgEmailTaken)
	}
	existing.PasswordHash = hash
	s.log.Info("admin re-activated", zap.String("uid", existing.ID))
	return existing, issued, nil
}
