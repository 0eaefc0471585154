package service

import (
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"estate-crm/internal/core/auth"
	"estate-crm/internal/domain"
	"estate-crm/internal/repo/memstore"
	"estate-crm/pkg/utils"
)

func init() { utils.PasswordCost = bcrypt.MinCost }

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newJWT() *auth.JWTer {
	return &auth.JWTer{Secret: []byte("test-secret-0123456789"), Issuer: "estate-crm"}
}

func ptr[T any](v T) *T { return &v }

func seedPrincipal(t *testing.T, s *memstore.Store, id, email, password string, role auth.Role) domain.Principal {
	t.Helper()
	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	p := domain.Principal{
		ID: id, Email: email, Name: "Name " + id, Role: role,
		PasswordHash: hash, IsActive: true, CreatedAt: t0, UpdatedAt: t0,
	}
	s.State.Principals[id] = p
	return p
}

func seedLead(s *memstore.Store, id, name string, agent string, status domain.LeadStatus, created time.Time) {
	l := domain.Lead{
		ID: id, Name: name, Email: fmt.Sprintf("%s@example.com", id), Status: status,
		Type: domain.TypeBuyer, CreatedAt: created, UpdatedAt: created,
	}
	if agent != "" {
		l.AssignedAgentID = ptr(agent)
	}
	s.State.Leads[id] = l
}

func newLeadSvc(s *memstore.Store) *LeadService {
	return NewLeadService(s, NewActivityRecorder(zap.NewNop()), nil, time.Minute, zap.NewNop())
}

var (
	admin   = auth.Identity{ID: "U-admin", Role: auth.RoleAdmin}
	manager = auth.Identity{ID: "U-mgr", Role: auth.RoleManager}
	agentA1 = auth.Identity{ID: "A1", Role: auth.RoleAgent}
)
