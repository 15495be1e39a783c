// Package server exposes the portal's HTTP surface: the login and callback
// endpoints of the authorization-code flow, the authenticated catalog and
// profile APIs, and the health and metrics endpoints.
package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-portal-server/auth"
	"github.com/jrsteele09/go-portal-server/catalog"
	"github.com/jrsteele09/go-portal-server/internal/config"
	"github.com/jrsteele09/go-portal-server/sessions"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	auth     *auth.Service
	guard    *auth.Guard
	sessions sessions.Repo
	catalog  *catalog.Loader
}

func New(cfg config.Config, authService *auth.Service, guard *auth.Guard, sessionRepo sessions.Repo, loader *catalog.Loader) (*Server, error) {
	if authService == nil || guard == nil || sessionRepo == nil || loader == nil {
		return nil, errors.New("[Server New] auth service, guard, session repo and catalog loader are required")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		auth:     authService,
		guard:    guard,
		sessions: sessionRepo,
		catalog:  loader,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
