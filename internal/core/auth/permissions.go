package auth

import "sort"

type Capability string

const (
	CapViewLeads          Capability = "view_leads"
	CapCreateLeads        Capability = "create_leads"
	CapEditLeads          Capability = "edit_leads"
	CapAssignLeads        Capability = "assign_leads"
	CapViewProperties     Capability = "view_properties"
	CapCreateProperties   Capability = "create_properties"
	CapCreateProjects     Capability = "create_projects"
	CapCreateUsers        Capability = "create_users"
	CapViewReports        Capability = "view_reports"
	CapViewReportsLimited Capability = "view_reports_limited"
	CapExportReports      Capability = "export_reports"
	CapManageUsers        Capability = "manage_users"
)

type capSet map[Capability]struct{}

func setOf(caps ...Capability) capSet {
	s := make(capSet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// 编译期固定的权限表；修改需重新发布
var permissionTable = map[Role]capSet{
	RoleAdmin: setOf(
		CapViewLeads, CapCreateLeads, CapEditLeads, CapAssignLeads,
		CapViewProperties, CapCreateProperties, CapCreateProjects,
		CapCreateUsers, CapViewReports, CapExportReports, CapManageUsers,
	),
	RoleManager: setOf(
		CapViewLeads, CapCreateLeads, CapEditLeads, CapAssignLeads,
		CapViewProperties, CapCreateProperties, CapCreateProjects,
		CapViewReports, CapExportReports,
	),
	// agent 只能查看/新建线索和房源
	RoleAgent: setOf(
		CapViewLeads, CapCreateLeads, CapViewProperties, CapCreateProperties, CapViewReportsLimited,
	),
}

// Can reports whether role holds capability. Unknown roles hold nothing.
func Can(role Role, c Capability) bool {
	_, ok := permissionTable[role][c]
	return ok
}

// CanAny is true when role holds at least one of caps.
func CanAny(role Role, caps ...Capability) bool {
	for _, c := range caps {
		if Can(role, c) {
			return true
		}
	}
	return false
}

// Capabilities lists the role's capabilities in a stable order.
func Capabilities(role Role) []Capability {
	set := permissionTable[role]
	out := make([]Capability, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
