package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/getlisted/platform/libs/components/backend"
	"github.com/getlisted/platform/libs/components/deck"
	"github.com/getlisted/platform/libs/components/directory"
	"github.com/getlisted/platform/libs/components/listing"
	"github.com/getlisted/platform/libs/shared/httpx"
	"github.com/getlisted/platform/libs/shared/messaging"
	"github.com/getlisted/platform/libs/shared/observability"
	"github.com/getlisted/platform/libs/shared/session"
	"github.com/getlisted/platform/services/web/internal/config"
	"github.com/getlisted/platform/services/web/internal/proxy"
)

// Backend is everything the web service needs from the REST backend.
type Backend interface {
	listing.Loader
	listing.Store
	deck.API
	deck.Catalog
}

// Deps carries the collaborators the router is built from.
type Deps struct {
	Backend Backend
	Events  messaging.Publisher
	Forms   *session.Store[*listing.Form]
	Decks   *session.Store[*deck.Reconciler]
	Log     *zap.Logger
}

// New constructs the HTTP server wiring for the web service.
func New(cfg config.Config, deps Deps) *httpx.Server {
	if deps.Events == nil {
		deps.Events = messaging.Discard{}
	}
	client := &http.Client{Timeout: cfg.RequestTimeout}

	srv := httpx.New()
	router := srv.Router

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	observability.RegisterMetricsEndpoint(router)

	submitter := listing.NewSubmitter(deps.Backend, deps.Events, deps.Log)
	listings := listing.NewHandler(deps.Forms, deps.Backend, submitter, deps.Log)
	decks := deck.NewHandler(deps.Decks, deps.Backend, deps.Events, deps.Log)
	catalog := deck.NewCatalogHandler(deps.Backend, deps.Log)

	router.Route("/api", func(api chi.Router) {
		api.Use(bearerToken)
		if cfg.RequestTimeout > 0 {
			api.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		listings.Mount(api, "/listings/sessions")
		decks.Mount(api, "/decks/sessions")
		catalog.Mount(api)
		api.Get("/overview", overviewHandler(client, cfg, deps))

		if cfg.DirectoryURL != "" {
			mountDirectoryProxy(api, strings.TrimRight(cfg.DirectoryURL, "/")+"/directory", client)
		}
	})

	return srv
}

// bearerToken hands the caller's bearer token to outbound backend calls.
func bearerToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && strings.TrimSpace(token) != "" {
			r = r.WithContext(backend.WithToken(r.Context(), strings.TrimSpace(token)))
		}
		next.ServeHTTP(w, r)
	})
}

func mountDirectoryProxy(api chi.Router, upstream string, client *http.Client) {
	api.Get("/directory", func(w http.ResponseWriter, r *http.Request) {
		proxy.Forward(w, r, client, upstream, "")
	})
	api.Get("/directory/*", func(w http.ResponseWriter, r *http.Request) {
		proxy.Forward(w, r, client, upstream, "/"+chi.URLParam(r, "*"))
	})
}

type overview struct {
	Decks struct {
		Total int `json:"total"`
	} `json:"decks"`
	Directory *directory.Summary `json:"directory,omitempty"`
}

// overviewHandler combines the caller's deck count with the directory summary.
func overviewHandler(client *http.Client, cfg config.Config, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var out overview
		g, ctx := errgroup.WithContext(r.Context())

		g.Go(func() error {
			decks, err := deps.Backend.ListDecks(ctx)
			if err != nil {
				return err
			}
			out.Decks.Total = len(decks)
			return nil
		})
		if cfg.DirectoryURL != "" {
			g.Go(func() error {
				return fetchSummary(ctx, client, cfg.DirectoryURL, &out)
			})
		}

		if err := g.Wait(); err != nil {
			deps.Log.Warn("overview failed", zap.Error(err))
			httpx.Error(w, http.StatusBadGateway, err.Error())
			return
		}
		httpx.Data(w, http.StatusOK, out)
	}
}

func fetchSummary(ctx context.Context, client *http.Client, base string, out *overview) error {
	var summary directory.Summary
	if err := proxy.FetchData(ctx, client, strings.TrimRight(base, "/")+"/directory/summary", &summary); err != nil {
		return err
	}
	out.Directory = &summary
	return nil
}
