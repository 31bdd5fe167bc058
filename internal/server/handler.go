// Package server wires the configured rights provider, data source, rule
// catalog and counter into the HTTP surface.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gatekeepr/gatekeepr/internal/access"
	"github.com/gatekeepr/gatekeepr/internal/authz"
	"github.com/gatekeepr/gatekeepr/internal/gate"
	"github.com/gatekeepr/gatekeepr/internal/redact"
	"github.com/gatekeepr/gatekeepr/internal/routing"
	"github.com/gatekeepr/gatekeepr/internal/rules"
	"github.com/gatekeepr/gatekeepr/internal/source"
	"github.com/gatekeepr/gatekeepr/internal/transit"
)

func NewHandler() (http.Handler, error) {
	return NewHandlerWithOptions(HandlerOptions{})
}

// HandlerOptions lets tests inject collaborators; nil fields are built from
// the configuration.
type HandlerOptions struct {
	Config  *Config
	Rights  gate.RightsProvider
	Source  gate.RawDataSource
	Catalog *rules.Catalog
}

func NewHandlerWithOptions(opts HandlerOptions) (http.Handler, error) {
	cfg := ConfigFromEnv()
	if opts.Config != nil {
		cfg = *opts.Config
	}

	catalog := opts.Catalog
	if catalog == nil {
		catalog = rules.NewCatalog()
	}
	loader := rules.NewLoader(cfg.RulesPath, catalog)
	if opts.Catalog == nil {
		// A missing or broken rule file must not keep the service down;
		// it starts with an empty catalog and picks the file up once the
		// watcher sees a good version.
		if n, err := loader.Load(); err != nil {
			log.Printf("server: rule load from %s failed, starting with empty catalog: %v", cfg.RulesPath, err)
		} else {
			log.Printf("server: loaded %d rules from %s", n, cfg.RulesPath)
		}
		go rules.NewWatcher(loader, cfg.RulesPoll).Run(context.Background())
	}

	counter := access.NewCounter(cfg.ResetWindow)
	go counter.Run(context.Background(), cfg.SweepEvery)

	rights := opts.Rights
	if rights == nil {
		var err error
		rights, err = buildRightsProvider(cfg)
		if err != nil {
			return nil, err
		}
	}

	dataSource := opts.Source
	if dataSource == nil {
		var err error
		dataSource, err = buildDataSource(cfg)
		if err != nil {
			return nil, err
		}
	}

	engine := redact.NewEngine(rules.NewMatcher(catalog))
	handler := gate.NewObjectRequestHandler(rights, dataSource, engine, counter)

	a := &api{
		handler:     handler,
		loader:      loader,
		catalog:     catalog,
		counter:     counter,
		application: cfg.Application,
	}

	r := routing.NewRouter()
	r.HandleFunc(http.MethodPost, "/gatekeepr/request", a.handleRequest)
	r.HandleFunc(http.MethodPost, "/gatekeepr/filtered", a.handleFiltered)
	r.HandleFunc(http.MethodPost, "/gatekeepr/rules/reload", a.handleRulesReload)
	r.HandleFunc(http.MethodGet, "/healthz", a.handleHealthz)
	return r, nil
}

func buildRightsProvider(cfg Config) (gate.RightsProvider, error) {
	switch cfg.RightsSource {
	case "transit":
		return transit.New(cfg.TransitBaseURL, cfg.TransitAPIKey)
	case "casbin":
		return authz.NewProvider(cfg.CasbinModelPath, cfg.CasbinPolicyPath)
	default:
		return nil, fmt.Errorf("server: unknown RIGHTS_PROVIDER %q", cfg.RightsSource)
	}
}

func buildDataSource(cfg Config) (gate.RawDataSource, error) {
	switch cfg.DataSource {
	case "static":
		return source.NewStatic(cfg.DatasetPath)
	case "postgres":
		pool, err := source.Connect(context.Background(), dbDSNFromEnv())
		if err != nil {
			return nil, err
		}
		return source.NewPostgres(pool), nil
	default:
		return nil, fmt.Errorf("server: unknown DATA_SOURCE %q", cfg.DataSource)
	}
}
