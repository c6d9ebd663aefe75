package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pokedexsocial/pokedex/pkg/auth"
	"github.com/pokedexsocial/pokedex/pkg/catalog"
	"github.com/pokedexsocial/pokedex/pkg/config"
	"github.com/pokedexsocial/pokedex/pkg/data"
	"github.com/pokedexsocial/pokedex/pkg/sources"
	"github.com/pokedexsocial/pokedex/pkg/utils"
)

// PokedexController wires the backend client, local storage and the auth
// store together for both the CLI and the TUI.
type PokedexController struct {
	cfg      *config.Config
	logger   *zap.Logger
	repo     *data.Repository
	source   *sources.CachedSource
	auth     *auth.Store
	exporter *Exporter
}

func NewPokedexController(cfg *config.Config, logger *zap.Logger) (*PokedexController, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	repo, err := data.NewDuckDBRepository(cfg.DBPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening local database")
	}

	store := auth.NewStore(repo, logger.Named("auth"))
	if err := store.Load(); err != nil {
		logger.Warn("could not restore session", zap.Error(err))
	}

	apiLogger := logger.Named("http")
	api := utils.NewAPI(cfg.APIURL,
		utils.WithTimeout(cfg.APITimeout),
		utils.WithLogger(apiLogger),
		utils.WithToken(store.Token))
	catalogAPI := utils.NewAPI(cfg.APIURL,
		utils.WithTimeout(cfg.APITimeout),
		utils.WithRetries(cfg.APIRetries),
		utils.WithLogger(apiLogger),
		utils.WithToken(store.Token))

	source := sources.NewCachedSource(
		sources.NewPokedexAPI(api, catalogAPI),
		repo,
		cfg.CacheTTL,
		logger.Named("catalog"))

	exporter := NewExporter(ExporterOptions{
		BaseURL:     cfg.APIURL,
		OutputDir:   cfg.ExportDir,
		Concurrency: cfg.ExportConcurrency,
		Rate:        cfg.ExportRate,
		Logger:      logger.Named("export"),
	})

	return &PokedexController{
		cfg:      cfg,
		logger:   logger,
		repo:     repo,
		source:   source,
		auth:     store,
		exporter: exporter,
	}, nil
}

func (c *PokedexController) Config() *config.Config { return c.cfg }

func (c *PokedexController) Logger() *zap.Logger { return c.logger }

func (c *PokedexController) Source() sources.Source { return c.source }

func (c *PokedexController) Auth() *auth.Store { return c.auth }

func (c *PokedexController) Exporter() *Exporter { return c.exporter }

// OpenSession loads the filter catalog and the first unfiltered page
func (c *PokedexController) OpenSession(ctx context.Context) (*catalog.Session, error) {
	return catalog.OpenSession(ctx, c.source, c.sessionOptions())
}

// NewSession opens a session without fetching the first page, for callers
// that set filters before the first Apply.
func (c *PokedexController) NewSession(ctx context.Context) (*catalog.Session, error) {
	opts := c.sessionOptions()
	opts.SkipInitialFetch = true
	return catalog.OpenSession(ctx, c.source, opts)
}

func (c *PokedexController) sessionOptions() catalog.Options {
	timeout := c.cfg.APITimeout
	if timeout == 0 {
		timeout = catalog.DefaultRequestTimeout
	}
	return catalog.Options{RequestTimeout: timeout, Logger: c.logger.Named("catalog")}
}

// Filters returns the filter catalog, bypassing the cache when refresh is set
func (c *PokedexController) Filters(ctx context.Context, refresh bool) (*data.FilterCatalog, error) {
	if refresh {
		return c.source.Refresh(ctx)
	}
	return c.source.Filters(ctx)
}

func (c *PokedexController) Pokemon(ctx context.Context, id int) (*data.PokemonDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout())
	defer cancel()
	return c.source.Pokemon(ctx, id)
}

// Login authenticates against the backend and persists the session
func (c *PokedexController) Login(ctx context.Context, email, password string) (*data.AuthSession, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout())
	defer cancel()

	resp, err := c.source.Login(ctx, email, password)
	if err != nil {
		return nil, errors.Wrap(err, "login failed")
	}
	if err := c.auth.Login(resp.Token, resp.UserID, resp.Username); err != nil {
		return nil, err
	}
	return c.auth.Session(), nil
}

func (c *PokedexController) Logout() error {
	return c.auth.Logout()
}

func (c *PokedexController) requestTimeout() time.Duration {
	if c.cfg.APITimeout > 0 {
		return c.cfg.APITimeout
	}
	return catalog.DefaultRequestTimeout
}

func (c *PokedexController) Close() error {
	c.exporter.Close()
	return c.repo.Close()
}
