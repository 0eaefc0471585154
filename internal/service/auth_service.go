package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"estate-crm/internal/core/apperr"
	"estate-crm/internal/core/auth"
	"estate-crm/internal/core/metrics"
	"estate-crm/internal/domain"
	"estate-crm/pkg/utils"
)

const (
	MsgInvalidCredentials = "Invalid credentials"
	MinPasswordLen        = 6
)

type AuthService struct {
	store domain.Store
	jwt   *auth.JWTer
	log   *zap.Logger
}

func NewAuthService(store domain.Store, jwt *auth.JWTer, l *zap.Logger) *AuthService {
	return &AuthService{store: store, jwt: jwt, log: l}
}

type LoginResult struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	Principal *domain.Principal `json:"principal"`
}

// Login answers unknown, inactive, tombstoned and wrong-password alike.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	p, err := s.store.Principals().FindByEmail(ctx, email)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, storageErr(s.log, "login lookup failed", err)
	}
	if p == nil {
		utils.BurnPasswordCheck(password)
		return nil, s.reject()
	}
	if !utils.CheckPassword(password, p.PasswordHash) || !p.CanSignIn() {
		return nil, s.reject()
	}

	token, exp, err := s.jwt.Issue(p.ID, p.Role)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		s.log.Error("issue token failed", zap.String("uid", p.ID), zap.Error(err))
		return nil, apperr.Storage(err)
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return &LoginResult{Token: token, ExpiresAt: exp, Principal: p}, nil
}

func (s *AuthService) reject() error {
	metrics.LoginAttempts.WithLabelValues("failure").Inc()
	return apperr.Unauthenticated(MsgInvalidCredentials)
}

type MeResult struct {
	*domain.Principal
	Capabilities []auth.Capability `json:"capabilities"`
}

// Me returns the caller's record; capabilities follow the role carried by the token.
func (s *AuthService) Me(ctx context.Context, id auth.Identity) (*MeResult, error) {
	p, err := s.store.Principals().FindByID(ctx, id.ID)
	if err != nil {
		return nil, storageErr(s.log, "load principal failed", err)
	}
	if p == nil {
		return nil, apperr.NotFound("User not found")
	}
	return &MeResult{Principal: p, Capabilities: auth.Capabilities(id.Role)}, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, id auth.Identity, current, next string) error {
	if len(next) < MinPasswordLen {
		return apperr.BadRequest("newPassword must be at least 6 characters")
	}
	p, err := s.store.Principals().FindByID(ctx, id.ID)
	if err != nil {
		return storageErr(s.log, "load principal failed", err)
	}
	if p == nil {
		return apperr.NotFound("User not found")
	}
	if !utils.CheckPassword(current, p.PasswordHash) {
		return apperr.BadRequest("Current password is incorrect")
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return apperr.BadRequest(err.Error())
	}
	err = s.store.Principals().UpdatePassword(ctx, p.ID, hash)
	return mapRepoErr(s.log, "update password failed", err, "User not found", "")
}

type ProfileInput struct {
	Name  *string `json:"name" binding:"omitempty,max=128"`
	Phone *string `json:"phone" binding:"omitempty,max=32"`
	Role  *string `json:"role"`
}

// UpdateProfile edits the caller's own name and phone. Role changes stay with
// user management; a role equal to the current one is tolerated.
func (s *AuthService) UpdateProfile(ctx context.Context, id auth.Identity, in ProfileInput) (*domain.Principal, error) {
	p, err := s.store.Principals().FindByID(ctx, id.ID)
	if err != nil {
		return nil, storageErr(s.log, "load principal failed", err)
	}
	if p == nil {
		return nil, apperr.NotFound("User not found")
	}
	if in.Role != nil {
		if r, ok := auth.ParseRole(*in.Role); !ok || r != p.Role {
			return nil, apperr.Forbidden("role can only be changed by an administrator")
		}
	}
	changed := false
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.BadRequest("name is required")
		}
		changed = changed || name != p.Name
		p.Name = name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		changed = changed || phone != p.Phone
		p.Phone = phone
	}
	if !changed {
		return p, nil
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.store.Principals().Update(ctx, p); err != nil {
		return nil, mapRepoErr(s.log, "update profile failed", err, "User not found", "")
	}
	return p, nil
}

func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
