package auth

import "strings"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleAgent   Role = "agent"
)

// Roles 全部已知角色（权限从高到低）
var Roles = []Role{RoleAdmin, RoleManager, RoleAgent}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAgent:
		return true
	}
	return false
}

// Scoped 最低权限角色：只能看到分配给自己的记录
func (r Role) Scoped() bool { return r == RoleAgent }

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}
