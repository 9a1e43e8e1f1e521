// Package router wires handlers and middleware into the echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tourflow/tourflow/internal/handler"
	"github.com/tourflow/tourflow/internal/metrics"
	"github.com/tourflow/tourflow/internal/middleware"
	"github.com/tourflow/tourflow/internal/model"
)

// Handlers bundles everything the routes need. Admin may be nil when the
// job runner is not started.
type Handlers struct {
	Health    handler.Health
	Auth      *handler.AuthHandler
	Tours     *handler.TourHandler
	Members   *handler.MemberHandler
	Gear      *handler.GearHandler
	Crews     *handler.CrewHandler
	Documents *handler.DocumentHandler
	Tasks     *handler.TaskHandler
	Assistant *handler.AssistantHandler
	Admin     *handler.AdminHandler
}

// Options carries the middleware applied to the authenticated group.
type Options struct {
	JWTSecret string
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// RegisterRoutes registers unauthenticated endpoints.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", h.Health.Check)
	e.GET("/metrics", metrics.Handler())
}

// RegisterAuth registers /v1/auth. Logout works with either a refresh token
// or a bearer token, so it sits outside the JWT group.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, opt Options) {
	rl := opt.RateLimit
	if rl == nil {
		rl = passThrough
	}
	g := e.Group("/v1/auth", rl)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)
	e.POST("/v1/logout", a.Logout)
}

// RegisterAPI registers the authenticated /v1 endpoints.
func RegisterAPI(e *echo.Echo, h Handlers, opt Options) {
	rl, cache := opt.RateLimit, opt.Cache
	if rl == nil {
		rl = passThrough
	}
	if cache == nil {
		cache = passThrough
	}
	g := e.Group("/v1",
		middleware.JWTAuth(opt.JWTSecret),
		middleware.RequireRole(model.RoleEngineer, model.RoleAdmin),
		rl,
	)
	g.GET("/me", h.Auth.Me)

	// cached reads and invalidating writes share one group
	c := g.Group("", cache)

	t := h.Tours
	c.POST("/tours", t.Create)
	c.GET("/tours", t.List)
	c.GET("/tours/:id", t.Get)
	c.PUT("/tours/:id", t.Update)
	c.PATCH("/tours/:id", t.Update)
	c.DELETE("/tours/:id", t.Delete)
	c.POST("/tours/:id/shows", t.CreateShow)
	c.GET("/tours/:id/shows", t.ListShows)
	c.GET("/shows/:id", t.GetShow)
	c.PATCH("/shows/:id", t.UpdateShow)
	c.DELETE("/shows/:id", t.DeleteShow)
	c.PUT("/shows/:id/settlement", t.PutSettlement)
	c.GET("/shows/:id/settlement", t.GetSettlement)
	c.GET("/shows/:id/day-sheet", t.DaySheet)

	m := h.Members
	c.GET("/tours/:id/members", m.List)
	c.POST("/tours/:id/invitations", m.Invite)
	c.DELETE("/tours/:id/members/:user_id", m.Remove)
	c.POST("/invitations/accept", m.Accept)

	gr := h.Gear
	c.POST("/gear", gr.Create)
	c.GET("/gear", gr.List)
	c.GET("/gear/manifest", gr.Manifest)
	c.GET("/gear/:id", gr.Get)
	c.PATCH("/gear/:id", gr.Update)
	c.DELETE("/gear/:id", gr.Delete)
	c.POST("/gear/:id/cycle-condition", gr.CycleCondition)
	c.POST("/gear/:id/toggle-fly-pack", gr.ToggleFlyPack)
	c.POST("/input-lists", gr.CreateInputList)
	c.GET("/input-lists", gr.ListInputLists)
	c.GET("/input-lists/:id", gr.GetInputList)
	c.PATCH("/input-lists/:id/channels/:n", gr.UpdateChannel)
	c.DELETE("/input-lists/:id", gr.DeleteInputList)

	cr := h.Crews
	c.POST("/crews", cr.Create)
	c.GET("/crews", cr.List)
	c.GET("/crews/:id", cr.Get)
	c.DELETE("/crews/:id", cr.Delete)
	c.POST("/crews/:id/members", cr.AddMember)
	c.DELETE("/crews/:id/members/:member_id", cr.RemoveMember)
	c.POST("/crews/:id/documents", cr.ShareDocument)

	d := h.Documents
	c.POST("/documents", d.Create)
	c.GET("/documents", d.List)
	c.POST("/documents/import", d.Import)
	c.GET("/documents/:id", d.Get)
	c.PATCH("/documents/:id", d.Update)
	c.DELETE("/documents/:id", d.Delete)
	g.POST("/parse/:type", d.Parse)

	tk := h.Tasks
	c.POST("/tasks", tk.Create)
	c.GET("/tasks", tk.List)
	c.GET("/tasks/:id", tk.Get)
	c.PATCH("/tasks/:id", tk.Update)
	c.DELETE("/tasks/:id", tk.Delete)

	// the transcript changes on every send, so it bypasses the cache
	a := h.Assistant
	g.GET("/assistant/messages", a.History)
	g.POST("/assistant/messages", a.Send)
	g.DELETE("/assistant/messages", a.Clear)

	if h.Admin != nil {
		adm := g.Group("/admin", middleware.RequireRole(model.RoleAdmin))
		adm.GET("/jobs", h.Admin.ListJobs)
		adm.POST("/jobs/:name/run", h.Admin.RunJob)
	}
}
