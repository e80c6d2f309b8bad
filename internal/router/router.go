package router

import (
	"github.com/gin-gonic/gin"

	"wyngai/internal/auth"
	"wyngai/internal/config"
	"wyngai/internal/handler"
	"wyngai/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	issuer *auth.TokenIssuer,
	caseH *handler.CaseHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(&cfg.CORS))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// All case routes require a valid bearer token.
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(issuer))

	cases := protected.Group("/cases")
	cases.POST("", caseH.Create)
	cases.GET("/:id", caseH.GetByID)
	cases.POST("/:id/files", caseH.AttachFile)
	cases.GET("/:id/files", caseH.ListFiles)
	cases.GET("/:id/files/:fileID/url", caseH.GetFileURL)
	cases.POST("/:id/submit", caseH.Submit)
	cases.GET("/:id/result", caseH.GetResult)
	cases.GET("/:id/detections", caseH.GetDetections)
	cases.GET("/:id/export", caseH.Export)

	return r
}
