package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"estate-crm/internal/core/apperr"
	"estate-crm/internal/core/auth"
	"estate-crm/internal/domain"
	"estate-crm/internal/repo/memstore"
)

func seedProperty(s *memstore.Store, id, address, city, agent string, status domain.PropertyStatus, created time.Time) {
	p := domain.Property{
		ID: id, Address: address, City: city, State: "IL", Type: domain.PropertyHouse,
		Status: status, CreatedAt: created, UpdatedAt: created,
	}
	if agent != "" {
		p.AgentID = ptr(agent)
	}
	s.PutProperty(p)
}

func TestPropertyListAgentSeesOwnOnly(t *testing.T) {
	store := memstore.New()
	seedProperty(store, "P1", "12 Elm St", "Springfield", "A1", domain.PropertyAvailable, t0)
	seedProperty(store, "P2", "40 Elm Ave", "Shelbyville", "A2", domain.PropertyAvailable, t0.Add(time.Minute))
	seedProperty(store, "P3", "7 Oak Rd", "Springfield", "", domain.PropertySold, t0.Add(2*time.Minute))
	svc := NewPropertyService(store, zap.NewNop())
	ctx := context.Background()

	page, err := svc.List(ctx, agentA1, PropertyListInput{Search: "elm"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].ID != "P1" || page.Pagination.Total != 1 {
		t.Fatalf("agent page = %+v", page)
	}

	page, err = svc.List(ctx, manager, PropertyListInput{Search: "springfield"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Data) != 2 || page.Data[0].ID != "P3" {
		t.Fatalf("manager page = %+v", page)
	}

	page, _ = svc.List(ctx, manager, PropertyListInput{Status: "SOLD"})
	if len(page.Data) != 1 || page.Data[0].ID != "P3" {
		t.Fatalf("status page = %+v", page)
	}
	if _, err := svc.List(ctx, manager, PropertyListInput{Status: "rented"}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("bad status: got %v", err)
	}
}

func TestPropertyCreateOwnership(t *testing.T) {
	store := memstore.New()
	seedPrincipal(t, store, "A2", "a2@example.com", "pass-123", auth.RoleAgent)
	svc := NewPropertyService(store, zap.NewNop())
	ctx := context.Background()

	p, err := svc.Create(ctx, agentA1, PropertyInput{Address: "1 Main St", City: "Springfield", State: "IL"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.AgentID == nil || *p.AgentID != "A1" || p.Type != domain.PropertyHouse || p.Status != domain.PropertyAvailable {
		t.Fatalf("p = %+v", p)
	}

	_, err = svc.Create(ctx, agentA1, PropertyInput{Address: "2 Main St", City: "Springfield", State: "IL", AgentID: ptr("A2")})
	if apperr.KindOf(err) != apperr.KindAuthorization {
		t.Fatalf("foreign owner: got %v", err)
	}

	p, err = svc.Create(ctx, manager, PropertyInput{Address: "3 Main St", City: "Springfield", State: "IL", AgentID: ptr("A2")})
	if err != nil || p.AgentID == nil || *p.AgentID != "A2" {
		t.Fatalf("manager assign: %+v %v", p, err)
	}
	_, err = svc.Create(ctx, manager, PropertyInput{Address: "4 Main St", City: "Springfield", State: "IL", AgentID: ptr("ghost")})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("unknown agent: got %v", err)
	}
	if len(store.State.Properties) != 2 {
		t.Fatalf("properties = %d", len(store.State.Properties))
	}
}

func TestPropertyCreateValidation(t *testing.T) {
	store := memstore.New()
	store.PutProject(domain.Project{ID: "PR-old", Name: "Old", IsActive: false})
	svc := NewPropertyService(store, zap.NewNop())
	ctx := context.Background()
	base := func() PropertyInput { return PropertyInput{Address: "1 Main St", City: "Springfield", State: "IL"} }

	cases := map[string]func(*PropertyInput){
		"blank city":       func(in *PropertyInput) { in.City = " " },
		"bad type":         func(in *PropertyInput) { in.Type = "castle" },
		"bad status":       func(in *PropertyInput) { in.Status = "rented" },
		"negative price":   func(in *PropertyInput) { in.Price = ptr(-1.0) },
		"negative beds":    func(in *PropertyInput) { in.Beds = ptr(-2) },
		"inactive project": func(in *PropertyInput) { in.ProjectID = ptr("PR-old") },
		"missing project":  func(in *PropertyInput) { in.ProjectID = ptr("PR-none") },
	}
	for name, mutate := range cases {
		in := base()
		mutate(&in)
		if _, err := svc.Create(ctx, manager, in); apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("%s: got %v", name, err)
		}
	}
	if len(store.State.Properties) != 0 {
		t.Fatalf("invalid input persisted: %+v", store.State.Properties)
	}
}
