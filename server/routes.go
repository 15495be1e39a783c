package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"

	RouteAuthLogin    = "/api/auth/login"
	RouteAuthCallback = "/api/auth/callback"
	RouteAuthLogout   = "/api/auth/logout"
	RouteAuthStatus   = "/api/auth/status"

	RouteApps           = "/api/apps"
	RouteAppsCategories = "/api/apps/categories"
	RouteAppsSearch     = "/api/apps/search"

	RouteUserProfile = "/api/user/profile"
	RouteUserGroups  = "/api/user/groups"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())

	api := s.APIMiddleware()

	s.RegisterRouteFunc("GET "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteAuthCallback, ChainMiddleware(s.CallbackHandler(), api...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteAuthStatus, ChainMiddleware(s.StatusHandler(), api...))

	s.RegisterRouteFunc("GET "+RouteApps, ChainMiddleware(s.AppsHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteAppsCategories, ChainMiddleware(s.CategoriesHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteAppsSearch, ChainMiddleware(s.SearchHandler(), api...))

	s.RegisterRouteFunc("GET "+RouteUserProfile, ChainMiddleware(s.ProfileHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteUserGroups, ChainMiddleware(s.GroupsHandler(), api...))

	// Preflight requests never carry a session cookie worth loading.
	s.RegisterRouteFunc("OPTIONS /api/", ChainMiddleware(s.PreflightHandler(), s.CorsMiddleware))
}
