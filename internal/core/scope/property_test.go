package scope

import (
	"strings"
	"testing"

	"estate-crm/internal/core/auth"
)

func TestBuildPropertyPlanAgentOwnershipLast(t *testing.T) {
	plan, err := BuildPropertyPlan(PropertyQuery{
		Search: "Main", Status: "Sold", ProjectID: "P1", Requester: agent("A1"),
	})
	if err != nil {
		t.Fatalf("BuildPropertyPlan: %v", err)
	}
	if !plan.Owned() || plan.Status != "sold" {
		t.Fatalf("plan = %+v", plan)
	}
	wantTail := "(p.agent_id = ?) ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?"
	if !strings.HasSuffix(plan.Rows.SQL, wantTail) {
		t.Fatalf("rows sql = %s", plan.Rows.SQL)
	}
	// like x2, status, project, owner
	if got := plan.Count.Args; len(got) != 5 || got[0] != "%main%" || got[4] != "A1" {
		t.Fatalf("count args = %v", got)
	}
	for _, st := range []Statement{plan.Rows, plan.Count} {
		if strings.Count(st.SQL, "?") != len(st.Args) {
			t.Fatalf("placeholders/args mismatch: %s %v", st.SQL, st.Args)
		}
	}
}

func TestBuildPropertyPlanManagerUnscoped(t *testing.T) {
	plan, err := BuildPropertyPlan(PropertyQuery{Requester: auth.Identity{ID: "M1", Role: auth.RoleManager}})
	if err != nil {
		t.Fatalf("BuildPropertyPlan: %v", err)
	}
	if plan.Owned() || strings.Contains(plan.Rows.SQL, "agent_id") {
		t.Fatalf("manager plan scoped: %s", plan.Rows.SQL)
	}
	if _, err := BuildPropertyPlan(PropertyQuery{}); err != ErrNoRequester {
		t.Fatalf("err = %v", err)
	}
}

func TestBuildProjectPlan(t *testing.T) {
	plan := BuildProjectPlan(ProjectQuery{Search: "Green", Page: 2, PageSize: 5})
	if !strings.Contains(plan.Count.SQL, "pr.is_active = ?") || plan.Count.Args[0] != true {
		t.Fatalf("count = %s %v", plan.Count.SQL, plan.Count.Args)
	}
	if !strings.Contains(plan.Rows.SQL, "AS total_properties") || !strings.Contains(plan.Rows.SQL, "AS sold_properties") {
		t.Fatalf("rows missing counts: %s", plan.Rows.SQL)
	}
	if strings.Contains(plan.Count.SQL, "total_properties") {
		t.Fatalf("count should not carry the projection: %s", plan.Count.SQL)
	}
	if plan.Page.Offset != 5 || len(plan.Rows.Args) != len(plan.Count.Args)+2 {
		t.Fatalf("page = %+v args = %v", plan.Page, plan.Rows.Args)
	}

	all := BuildProjectPlan(ProjectQuery{IncludeInactive: true})
	if strings.Contains(all.Count.SQL, "is_active") {
		t.Fatalf("inactive filter applied: %s", all.Count.SQL)
	}
}

func TestBuildLeadExportPlan(t *testing.T) {
	plan, err := BuildLeadExportPlan(LeadQuery{Status: "new", Page: 9, PageSize: 3, Requester: agent("A1")}, 0)
	if err != nil {
		t.Fatalf("BuildLeadExportPlan: %v", err)
	}
	if plan.Page.Limit != MaxExportRows || plan.Page.Offset != 0 {
		t.Fatalf("page = %+v", plan.Page)
	}
	args := plan.Rows.Args
	if args[len(args)-2] != MaxExportRows || args[len(args)-1] != 0 {
		t.Fatalf("rows args = %v", args)
	}
	if !plan.Owned() || !strings.Contains(plan.Rows.SQL, "c.assigned_agent_id = ?") {
		t.Fatalf("export lost ownership: %s", plan.Rows.SQL)
	}

	small, _ := BuildLeadExportPlan(LeadQuery{Requester: auth.Identity{ID: "U1", Role: auth.RoleAdmin}}, 50)
	if small.Page.Limit != 50 || small.Owned() {
		t.Fatalf("page = %+v owned = %v", small.Page, small.Owned())
	}
}
