package edu

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controllers.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Patch(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// NewHTTPServer returns a fiber backed router server.
func NewHTTPServer() router.Server[*fiber.App] {
	return router.NewFiberAdapter(func(*fiber.App) *fiber.App {
		return fiber.New(fiber.Config{
			AppName:               "edu",
			DisableStartupMessage: true,
		})
	})
}

// RegisterRoutes mounts the account routes under /users and the catalog
// under /courses. protected guards the routes that need a bearer token.
func RegisterRoutes[T any](r router.Router[T], users *UserController, courses *CourseController, protected router.MiddlewareFunc) {
	users.RegisterRoutes(r.Group("/users"))
	courses.RegisterRoutes(r.Group("/courses"), protected)
}
