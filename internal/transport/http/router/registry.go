package router

import (
	"sort"

	"github.com/gin-gonic/gin"
)

// 模块可实现其中任意几个接口
type PublicModule interface{ MountPublic(*gin.RouterGroup) }
type APIModule interface{ MountAPI(*gin.RouterGroup) }
type AdminModule interface{ MountAdmin(*gin.RouterGroup) }

// 可选：实现该接口可控制挂载顺序（数值越小越先挂），不实现则默认 100
type prioritizer interface{ Priority() int }

// Registry collects feature modules for one engine; there is no package-level state.
type Registry struct {
	public []PublicModule
	api    []APIModule
	admin  []AdminModule
}

// Register 根据类型断言分发到各列表
func (r *Registry) Register(mods ...any) {
	for _, mod := range mods {
		if m, ok := mod.(PublicModule); ok {
			r.public = append(r.public, m)
		}
		if m, ok := mod.(APIModule); ok {
			r.api = append(r.api, m)
		}
		if m, ok := mod.(AdminModule); ok {
			r.admin = append(r.admin, m)
		}
	}
}

func (r *Registry) MountPublic(g *gin.RouterGroup) {
	for _, m := range ordered(r.public) {
		m.MountPublic(g)
	}
}

func (r *Registry) MountAPI(g *gin.RouterGroup) {
	for _, m := range ordered(r.api) {
		m.MountAPI(g)
	}
}

func (r *Registry) MountAdmin(g *gin.RouterGroup) {
	for _, m := range ordered(r.admin) {
		m.MountAdmin(g)
	}
}

func ordered[T any](mods []T) []T {
	out := append([]T(nil), mods...)
	sort.SliceStable(out, func(i, j int) bool { return priorityOf(out[i]) < priorityOf(out[j]) })
	return out
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
