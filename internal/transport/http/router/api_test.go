package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"estate-crm/internal/core/auth"
	"estate-crm/internal/core/scope"
	"estate-crm/internal/domain"
	"estate-crm/internal/repo/memstore"
	"estate-crm/internal/service"
	"estate-crm/internal/transport/http/handler"
	"estate-crm/pkg/utils"
)

func init() { utils.PasswordCost = bcrypt.MinCost }

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	t     *testing.T
	store *memstore.Store
	jwt   *auth.JWTer
	h     http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memstore.New()
	for _, p := range []struct {
		id, email string
		role      auth.Role
	}{
		{"U-admin", "admin@example.com", auth.RoleAdmin},
		{"U-mgr", "mgr@example.com", auth.RoleManager},
		{"A1", "a1@example.com", auth.RoleAgent},
		{"A2", "a2@example.com", auth.RoleAgent},
	} {
		hash, err := utils.HashPassword("pass-123")
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		store.PutPrincipal(domain.Principal{
			ID: p.id, Email: p.email, Name: "Name " + p.id, Role: p.role,
			PasswordHash: hash, IsActive: true, CreatedAt: t0, UpdatedAt: t0,
		})
	}
	for i, l := range []struct{ id, name, agent string }{
		{"L1", "John Carter", "A1"},
		{"L2", "John Smith", "A2"},
		{"L3", "Mary Jane", "A1"},
	} {
		agent := l.agent
		at := t0.Add(time.Duration(i) * time.Minute)
		store.PutLead(domain.Lead{
			ID: l.id, Name: l.name, Status: domain.StatusNew, Type: domain.TypeBuyer,
			AssignedAgentID: &agent, CreatedAt: at, UpdatedAt: at,
		})
	}

	jwter := &auth.JWTer{Secret: []byte("router-test-secret-0123"), Issuer: "estate-crm", TTL: time.Hour}
	log := zap.NewNop()
	engine := NewAPIEngine(Deps{
		Log: log,
		JWT: jwter,
		Modules: []any{
			handler.NewAuthHandler(service.NewAuthService(store, jwter, log)),
			handler.NewLeadHandler(service.NewLeadService(store, service.NewActivityRecorder(log), nil, time.Minute, log)),
			handler.NewUserHandler(service.NewUserService(store, log)),
			handler.NewPropertyHandler(service.NewPropertyService(store, log)),
			handler.NewProjectHandler(service.NewProjectService(store, log)),
		},
		Mode:           "test",
		MaxInFlight:    4,
		AcquireTimeout: 100 * time.Millisecond,
		RequestTimeout: 5 * time.Second,
		MaxBodyBytes:   1 << 16,
	})
	return &harness{t: t, store: store, jwt: jwter, h: engine}
}

func (h *harness) token(id string, role auth.Role) string {
	h.t.Helper()
	tok, _, err := h.jwt.Issue(id, role)
	if err != nil {
		h.t.Fatalf("issue: %v", err)
	}
	return tok
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

type errBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode[map[string]any](t, w)["status"]; got != "OK" {
		t.Fatalf("body = %s", w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("request id header missing")
	}
}

func TestLoginThenMe(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "A1@example.com", "password": "pass-123"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", w.Code, w.Body.String())
	}
	login := decode[struct {
		Token     string         `json:"token"`
		Principal map[string]any `json:"principal"`
	}](t, w)
	if login.Token == "" || login.Principal["role"] != "agent" {
		t.Fatalf("login = %+v", login)
	}
	if _, leaked := login.Principal["passwordHash"]; leaked {
		t.Fatal("password hash serialized")
	}

	w = h.do(http.MethodGet, "/api/me", login.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d", w.Code)
	}
	me := decode[struct {
		ID           string   `json:"id"`
		Capabilities []string `json:"capabilities"`
	}](t, w)
	if me.ID != "A1" || len(me.Capabilities) != 5 {
		t.Fatalf("me = %+v", me)
	}
}

func TestLoginAnswersAtRootAndUnderAPI(t *testing.T) {
	h := newHarness(t)
	creds := map[string]string{"email": "a1@example.com", "password": "pass-123"}
	for _, path := range []string{"/auth/login", "/api/auth/login"} {
		w := h.do(http.MethodPost, path, "", creds)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d body=%s", path, w.Code, w.Body.String())
		}
		if tok := decode[struct {
			Token string `json:"token"`
		}](t, w).Token; tok == "" {
			t.Fatalf("%s: empty token", path)
		}
	}
	// 受保护路由只在 /api 下
	if w := h.do(http.MethodGet, "/me", h.token("A1", auth.RoleAgent), nil); w.Code != http.StatusNotFound {
		t.Fatalf("/me status = %d", w.Code)
	}
}

func TestLoginFailuresLookAlike(t *testing.T) {
	h := newHarness(t)
	for _, body := range []map[string]string{
		{"email": "a1@example.com", "password": "wrong-pass"},
		{"email": "nobody@example.com", "password": "pass-123"},
	} {
		w := h.do(http.MethodPost, "/api/auth/login", "", body)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%v: status = %d", body, w.Code)
		}
		if e := decode[errBody](t, w); e.Error != "Invalid credentials" || e.Kind != "authentication" {
			t.Fatalf("%v: body = %+v", body, e)
		}
	}
	w := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a1@example.com"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing password: status = %d", w.Code)
	}
}

func TestMissingVersusInvalidToken(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/api/leads", "", nil)
	if w.Code != http.StatusUnauthorized || decode[errBody](t, w).Error != "Access token required" {
		t.Fatalf("missing: %d %s", w.Code, w.Body.String())
	}

	w = h.do(http.MethodGet, "/api/leads", "not-a-jwt", nil)
	if w.Code != http.StatusForbidden || decode[errBody](t, w).Error != "Invalid or expired token" {
		t.Fatalf("invalid: %d %s", w.Code, w.Body.String())
	}

	expired := &auth.JWTer{Secret: h.jwt.Secret, Issuer: h.jwt.Issuer, TTL: time.Minute,
		Now: func() time.Time { return time.Now().Add(-time.Hour) }}
	tok, _, err := expired.Issue("A1", auth.RoleAgent)
	if err != nil {
		t.Fatal(err)
	}
	if w = h.do(http.MethodGet, "/api/leads", tok, nil); w.Code != http.StatusForbidden {
		t.Fatalf("expired: %d", w.Code)
	}
}

func TestAgentListIsScoped(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/api/leads?search=john", h.token("A1", auth.RoleAgent), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	page := decode[struct {
		Data       []domain.Lead `json:"data"`
		Pagination scope.Pagination `json:"pagination"`
	}](t, w)
	if len(page.Data) != 1 || page.Data[0].ID != "L1" || page.Pagination.Total != 1 || page.Pagination.Pages != 1 {
		t.Fatalf("page = %+v", page)
	}

	// 他人的线索按不存在处理
	if w = h.do(http.MethodGet, "/api/leads/L2", h.token("A1", auth.RoleAgent), nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign lead: %d", w.Code)
	}
	if w = h.do(http.MethodGet, "/api/leads/L2", h.token("U-mgr", auth.RoleManager), nil); w.Code != http.StatusOK {
		t.Fatalf("manager lead: %d", w.Code)
	}
}

func TestAgentCreatesOwnLead(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodPost, "/api/leads", h.token("A2", auth.RoleAgent), map[string]any{"name": "New Buyer"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	lead := decode[domain.Lead](t, w)
	if lead.AssignedAgentID == nil || *lead.AssignedAgentID != "A2" || lead.Status != domain.StatusNew {
		t.Fatalf("lead = %+v", lead)
	}
	if acts := h.store.ActivitiesFor(lead.ID); len(acts) != 1 || acts[0].ActivityType != domain.ActivityCreated {
		t.Fatalf("activities = %+v", acts)
	}
}

func TestCapabilityGatedRoutesRejectWithoutSideEffects(t *testing.T) {
	h := newHarness(t)
	agent := h.token("A1", auth.RoleAgent)
	mgr := h.token("U-mgr", auth.RoleManager)

	cases := []struct {
		name, method, path, token string
		body                      any
	}{
		{"agent edits lead", http.MethodPut, "/api/leads/L1", agent, map[string]any{"status": "qualified"}},
		{"agent assigns lead", http.MethodPut, "/api/leads/L1/assign", agent, map[string]any{"agentId": "A2"}},
		{"agent lists users", http.MethodGet, "/api/users", agent, nil},
		{"manager lists users", http.MethodGet, "/api/users", mgr, nil},
		{"manager creates user", http.MethodPost, "/api/users", mgr, map[string]any{"name": "X", "email": "x@example.com", "role": "agent"}},
		{"manager edits user", http.MethodPut, "/api/users/A1", mgr, map[string]any{"role": "admin"}},
		{"manager deletes user", http.MethodDelete, "/api/users/A1", mgr, nil},
		{"agent creates project", http.MethodPost, "/api/projects", agent, map[string]any{"name": "Tower"}},
		{"agent exports leads", http.MethodGet, "/api/leads/export", agent, nil},
		{"agent promotes self", http.MethodPut, "/api/me", agent, map[string]any{"role": "admin"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := h.do(tc.method, tc.path, tc.token, tc.body)
			if w.Code != http.StatusForbidden {
				t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
			}
			if e := decode[errBody](t, w); e.Kind != "authorization" {
				t.Fatalf("body = %+v", e)
			}
		})
	}

	if l := h.store.State.Leads["L1"]; l.Status != domain.StatusNew || *l.AssignedAgentID != "A1" {
		t.Fatalf("lead changed: %+v", l)
	}
	if len(h.store.State.Activities) != 0 || len(h.store.State.Principals) != 4 {
		t.Fatalf("side effects: %d activities, %d principals", len(h.store.State.Activities), len(h.store.State.Principals))
	}
	if p := h.store.State.Principals["A1"]; p.Role != auth.RoleAgent || p.DeletedAt.Valid {
		t.Fatalf("principal changed: %+v", p)
	}
	if len(h.store.State.Projects) != 0 {
		t.Fatalf("project created: %+v", h.store.State.Projects)
	}
}

func TestPropertiesAndProjects(t *testing.T) {
	h := newHarness(t)
	agent := h.token("A1", auth.RoleAgent)
	mgr := h.token("U-mgr", auth.RoleManager)

	w := h.do(http.MethodPost, "/api/projects", mgr, map[string]any{"name": "Green Acres", "city": "Pune"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create project = %d body=%s", w.Code, w.Body.String())
	}
	project := decode[domain.Project](t, w)

	w = h.do(http.MethodPost, "/api/properties", agent, map[string]any{
		"address": "12 Elm St", "city": "Pune", "state": "MH", "status": "sold", "projectId": project.ID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("agent create property = %d body=%s", w.Code, w.Body.String())
	}
	if p := decode[domain.Property](t, w); p.AgentID == nil || *p.AgentID != "A1" {
		t.Fatalf("property owner = %+v", p)
	}
	w = h.do(http.MethodPost, "/api/properties", mgr, map[string]any{
		"address": "40 Elm Ave", "city": "Pune", "state": "MH", "agentId": "A2",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("manager create property = %d body=%s", w.Code, w.Body.String())
	}

	w = h.do(http.MethodGet, "/api/properties?search=elm", h.token("A2", auth.RoleAgent), nil)
	page := decode[struct {
		Data       []domain.Property `json:"data"`
		Pagination scope.Pagination  `json:"pagination"`
	}](t, w)
	if w.Code != http.StatusOK || len(page.Data) != 1 || page.Data[0].Address != "40 Elm Ave" {
		t.Fatalf("A2 properties = %d %+v", w.Code, page)
	}

	w = h.do(http.MethodGet, "/api/projects", agent, nil)
	projects := decode[struct {
		Data []domain.Project `json:"data"`
	}](t, w)
	if w.Code != http.StatusOK || len(projects.Data) != 1 || projects.Data[0].SoldProperties != 1 {
		t.Fatalf("projects = %d %+v", w.Code, projects)
	}
}

func TestProfileAndExport(t *testing.T) {
	h := newHarness(t)
	agent := h.token("A1", auth.RoleAgent)

	w := h.do(http.MethodPut, "/api/me", agent, map[string]any{"name": "Alice", "phone": "555-0101"})
	if w.Code != http.StatusOK {
		t.Fatalf("profile = %d body=%s", w.Code, w.Body.String())
	}
	if p := h.store.State.Principals["A1"]; p.Name != "Alice" || p.Phone != "555-0101" || p.Role != auth.RoleAgent {
		t.Fatalf("stored = %+v", p)
	}

	w = h.do(http.MethodGet, "/api/leads/export?search=john", h.token("U-mgr", auth.RoleManager), nil)
	out := decode[domain.LeadExport](t, w)
	if w.Code != http.StatusOK || out.Total != 2 || len(out.Data) != 2 || out.Truncated {
		t.Fatalf("export = %d %+v", w.Code, out)
	}
}

func TestAdminManagesUsers(t *testing.T) {
	h := newHarness(t)
	adminTok := h.token("U-admin", auth.RoleAdmin)

	w := h.do(http.MethodPost, "/api/users", adminTok, map[string]any{"name": "Ann", "email": "ann@example.com", "role": "agent"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	created := decode[struct {
		User              domain.Principal `json:"user"`
		TemporaryPassword string           `json:"temporaryPassword"`
	}](t, w)
	if created.TemporaryPassword == "" {
		t.Fatal("temporary password missing")
	}

	if w = h.do(http.MethodPost, "/api/users", adminTok, map[string]any{"name": "Dup", "email": "ANN@example.com", "role": "agent"}); w.Code != http.StatusConflict {
		t.Fatalf("duplicate: %d", w.Code)
	}
	if w = h.do(http.MethodGet, "/api/users?role=agent", adminTok, nil); w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	if w = h.do(http.MethodDelete, "/api/users/U-admin", adminTok, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("self delete: %d", w.Code)
	}
	if w = h.do(http.MethodDelete, "/api/users/"+created.User.ID, adminTok, nil); w.Code != http.StatusOK {
		t.Fatalf("delete: %d", w.Code)
	}
}

func TestStatsScopedForAgent(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/api/leads/stats", h.token("A1", auth.RoleAgent), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if st := decode[domain.LeadStats](t, w); st.Total != 2 || st.ByStatus[domain.StatusNew] != 2 {
		t.Fatalf("stats = %+v", st)
	}
}
