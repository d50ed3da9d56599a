package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cmapi/internal/config"
	"github.com/iliyamo/cmapi/internal/handler"
	"github.com/iliyamo/cmapi/internal/middleware"
)

// RegisterRoutes registers the unauthenticated info endpoints.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/", handler.Root)
	// Liveness probe for load balancers.
	e.GET("/healthz", handler.Health)
}

// RegisterAccounts registers sign-up/sign-in and the admin user listing.
// Admin routes sit behind HTTP Basic auth checked against cfg.
func RegisterAccounts(e *echo.Echo, h *handler.Handler, admin config.AdminConfig) {
	e.POST("/sign_up/", h.SignUp)
	e.POST("/sign_in/", h.SignIn)

	e.GET("/users/", h.ListUsers, middleware.AdminAuth(admin))
	e.GET("/cms/", h.ListCMs, middleware.AdminAuth(admin))
}

// RegisterArtifacts registers the confusion-matrix endpoints.  They carry
// the API key in the body or query string and check it themselves.
func RegisterArtifacts(e *echo.Echo, h *handler.Handler) {
	g := e.Group("/cm")
	g.POST("/create", h.CreateCM)
	g.POST("/update", h.UpdateCM)
	g.GET("/", h.GetCM)
	g.GET("/report", h.ReportCM)
	g.GET("/plot", h.PlotCM)
	g.DELETE("/:cm_uid", h.DeleteCM)

	// Stateless analysis; nothing is stored.
	e.POST("/curve", h.Curve)
	e.POST("/compare/", h.Compare)
	e.POST("/mlcm/", h.MultiLabel)
}
