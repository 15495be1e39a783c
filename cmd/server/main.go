package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/jrsteele09/go-portal-server/auth"
	"github.com/jrsteele09/go-portal-server/catalog"
	"github.com/jrsteele09/go-portal-server/internal/config"
	"github.com/jrsteele09/go-portal-server/provider"
	"github.com/jrsteele09/go-portal-server/server"
	"github.com/jrsteele09/go-portal-server/sessions"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	// Discovery is a startup prerequisite: an unreachable issuer is fatal,
	// never retried lazily per request.
	discoveryCtx, cancelDiscovery := context.WithTimeout(context.Background(), c.GetProviderTimeout())
	oidcProvider, err := provider.New(discoveryCtx, provider.Settings{
		Issuer:       c.GetIssuer(),
		ClientID:     c.GetClientID(),
		ClientSecret: c.GetClientSecret(),
		RedirectURI:  c.GetRedirectURI(),
		Scopes:       c.GetScopes(),
		Timeout:      c.GetProviderTimeout(),
	})
	cancelDiscovery()
	if err != nil {
		return fmt.Errorf("provider.New: %w", err)
	}

	authService, err := auth.NewService(oidcProvider)
	if err != nil {
		return fmt.Errorf("auth.NewService: %w", err)
	}

	sessionRepo, closeRepo, err := newSessionRepo(c)
	if err != nil {
		return fmt.Errorf("newSessionRepo: %w", err)
	}
	defer closeRepo()

	guard, err := auth.NewGuard(authService, sessionRepo, auth.WithRefreshThreshold(c.GetRefreshThreshold()))
	if err != nil {
		return fmt.Errorf("auth.NewGuard: %w", err)
	}

	loader, err := catalog.NewLoader(c.GetCatalogPath())
	if err != nil {
		return fmt.Errorf("catalog.NewLoader: %w", err)
	}
	defer loader.Close()
	if c.GetCatalogWatch() {
		if err := loader.StartWatching(); err != nil {
			return fmt.Errorf("loader.StartWatching: %w", err)
		}
	}

	handler, err := server.New(c, authService, guard, sessionRepo, loader)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func newSessionRepo(c config.Config) (sessions.Repo, func(), error) {
	redisURL := c.GetRedisURL()
	if redisURL == "" {
		return sessions.NewInMemoryRepo(c.GetSessionIdleTimeout()), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	repo, err := sessions.NewRedisRepo(ctx, redisURL, c.GetSessionIdleTimeout())
	if err != nil {
		return nil, nil, err
	}
	return repo, func() { _ = repo.Close() }, nil
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
