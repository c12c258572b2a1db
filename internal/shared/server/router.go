package server

import (
	"strings"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	"image-gateway/internal/health"
	"image-gateway/internal/images"
	"image-gateway/internal/profiles"
	"image-gateway/internal/shared/config"
	"image-gateway/internal/shared/metrics"
	"image-gateway/internal/shared/server/middleware"
)

// RouterDeps bundles the handlers mounted on the engine.
type RouterDeps struct {
	Config         config.Config
	HealthHandler  *health.Handler
	ImageHandler   *images.Handler
	ProfileHandler *profiles.Handler
	// FilesDir, when set, is served under /files for the local object store.
	FilesDir string
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	if deps.HealthHandler != nil {
		deps.HealthHandler.RegisterRoutes(r)
	}
	if deps.ImageHandler != nil {
		deps.ImageHandler.RegisterRoutes(r)
	}
	if deps.ProfileHandler != nil {
		deps.ProfileHandler.RegisterRoutes(r)
	}

	r.GET("/metrics", metrics.Handler())

	if dir := strings.TrimSpace(deps.FilesDir); dir != "" {
		r.Static("/files", dir)
	}
	if deps.Config.Env == "dev" {
		pprof.Register(r)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
