package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estate-crm/internal/core/auth"
	"estate-crm/internal/core/metrics"
	"estate-crm/internal/core/server"
	mdw "estate-crm/internal/transport/http/middleware"
)

type Deps struct {
	Log     *zap.Logger
	JWT     *auth.JWTer
	Modules []any
	// Ready 可选的依赖探活（数据库/缓存），失败时 /health 返回 503
	Ready func(ctx context.Context) error

	Mode           string
	MaxInFlight    int64
	AcquireTimeout time.Duration
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

func NewAPIEngine(d Deps) *gin.Engine {
	r := server.NewRouter(d.Log, server.Options{Mode: d.Mode})

	maxInFlight := d.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	maxBody := d.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	r.Use(
		mdw.RequestID(),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
		mdw.ConcurrencyLimit(maxInFlight, d.AcquireTimeout),
		mdw.MaxBodyBytes(maxBody),
		mdw.Timeout(d.RequestTimeout),
		mdw.JSONRecovery(d.Log),
	)

	r.GET("/health", health(d.Ready))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	reg := &Registry{}
	reg.Register(d.Modules...)

	// 公开路由同时挂在根路径，旧客户端直接 POST /auth/login
	reg.MountPublic(r.Group(""))
	api := r.Group("/api")
	reg.MountPublic(api)

	authed := api.Group("")
	authed.Use(mdw.AuthJWT(d.JWT))
	reg.MountAPI(authed)
	mountAdmin(authed, reg)

	return r
}

func health(ready func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"status": "OK", "timestamp": time.Now().UTC()}
		if ready != nil {
			if err := ready(c.Request.Context()); err != nil {
				body["status"] = "DEGRADED"
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
		}
		c.JSON(http.StatusOK, body)
	}
}
