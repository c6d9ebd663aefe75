package services

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pokedexsocial/pokedex/pkg/catalog"
	"github.com/pokedexsocial/pokedex/pkg/data"
	"github.com/pokedexsocial/pokedex/pkg/integrations"
)

const maxSpriteBytes = 8 << 20

// ExportProgress reports on one entry of an export
type ExportProgress struct {
	Ndex    int
	Name    string
	Current int
	Total   int
	Status  string // "downloading", "skipped", "building", "complete", "error"
	Error   error
}

type ExporterOptions struct {
	// BaseURL resolves relative sprite URLs
	BaseURL     string
	OutputDir   string
	Concurrency int
	// Rate is the number of sprite downloads started per second
	Rate      float64
	Processor integrations.Processor
	Client    *http.Client
	Logger    *zap.Logger
}

// Exporter turns a filtered result set into an EPUB field guide. Sprites
// are fetched concurrently under a rate limit; a missing sprite does not
// fail the export.
type Exporter struct {
	baseURL      *url.URL
	builder      *integrations.FieldGuideBuilder
	processor    integrations.Processor
	client       *http.Client
	limiter      *rate.Limiter
	concurrency  int
	logger       *zap.Logger
	progressChan chan ExportProgress
	closeOnce    sync.Once
}

func NewExporter(opts ExporterOptions) *Exporter {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Rate <= 0 {
		opts.Rate = 4
	}
	if opts.Processor == nil {
		opts.Processor = integrations.NewSpriteProcessor(integrations.DefaultSpriteSettings())
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Client == nil {
		client := retryablehttp.NewClient()
		client.RetryMax = 2
		client.Logger = nil
		client.HTTPClient.Timeout = 30 * time.Second
		opts.Client = client.StandardClient()
	}

	base, _ := url.Parse(opts.BaseURL)
	burst := int(opts.Rate)
	if burst < 1 {
		burst = 1
	}

	return &Exporter{
		baseURL:      base,
		builder:      integrations.NewFieldGuideBuilder(opts.OutputDir),
		processor:    opts.Processor,
		client:       opts.Client,
		limiter:      rate.NewLimiter(rate.Limit(opts.Rate), burst),
		concurrency:  opts.Concurrency,
		logger:       opts.Logger,
		progressChan: make(chan ExportProgress, 100),
	}
}

// GetProgressChannel returns the channel for receiving export progress updates
func (e *Exporter) GetProgressChannel() <-chan ExportProgress {
	return e.progressChan
}

// ExportSession walks every page of the session's applied filters (up to
// limit entries, limit <= 0 for all) and writes them as a field guide. The
// pages are fetched on a fork, the session's own result list is not touched.
func (e *Exporter) ExportSession(ctx context.Context, s *catalog.Session, title string, limit int) (string, error) {
	fork, err := s.Fork(ctx)
	if err != nil {
		return "", err
	}
	entries, err := fork.FetchAll(ctx, limit)
	if err != nil {
		return "", err
	}
	description := fork.Controller().Applied().Describe(fork.Catalog())
	return e.Export(ctx, title, description, entries)
}

// Export downloads every entry's sprite and builds the EPUB
func (e *Exporter) Export(ctx context.Context, title, description string, entries []data.CatalogEntry) (string, error) {
	if len(entries) == 0 {
		return "", errors.New("nothing to export")
	}

	guide := make([]integrations.GuideEntry, len(entries))
	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, entry := range entries {
		guide[i] = integrations.GuideEntry{Entry: entry}

		g.Go(func() error {
			if err := e.limiter.Wait(gctx); err != nil {
				return err
			}

			sprite, err := e.fetchSprite(gctx, entry.ImageURL)

			mu.Lock()
			done++
			current := done
			mu.Unlock()

			progress := ExportProgress{
				Ndex:    entry.Ndex,
				Name:    entry.Name(),
				Current: current,
				Total:   len(entries),
				Status:  "downloading",
			}
			switch {
			case err != nil && gctx.Err() != nil:
				return gctx.Err()
			case err != nil:
				e.logger.Warn("sprite unavailable", zap.Int("ndex", entry.Ndex), zap.String("url", entry.ImageURL), zap.Error(err))
				progress.Status = "skipped"
				progress.Error = err
			default:
				guide[i].Sprite = sprite
			}
			e.sendProgress(progress)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", err
	}

	e.sendProgress(ExportProgress{Current: len(entries), Total: len(entries), Status: "building"})

	path, err := e.builder.CreateEPub(title, description, guide)
	if err != nil {
		e.sendProgress(ExportProgress{Status: "error", Error: err})
		return "", err
	}

	e.logger.Info("field guide written", zap.String("path", path), zap.Int("entries", len(entries)))
	e.sendProgress(ExportProgress{Current: len(entries), Total: len(entries), Status: "complete"})
	return path, nil
}

func (e *Exporter) fetchSprite(ctx context.Context, imageURL string) (*integrations.Sprite, error) {
	if imageURL == "" {
		return nil, errors.New("no image")
	}
	target, err := e.resolve(imageURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("bad status: %s", resp.Status)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxSpriteBytes))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image content")
	}

	sprite, err := e.processor.Process(content)
	if err != nil {
		return nil, err
	}
	return &sprite, nil
}

func (e *Exporter) resolve(imageURL string) (string, error) {
	ref, err := url.Parse(imageURL)
	if err != nil {
		return "", errors.Wrapf(err, "invalid image url %q", imageURL)
	}
	if ref.IsAbs() || e.baseURL == nil {
		return ref.String(), nil
	}
	return e.baseURL.ResolveReference(ref).String(), nil
}

// sendProgress sends a progress update (non-blocking)
func (e *Exporter) sendProgress(progress ExportProgress) {
	select {
	case e.progressChan <- progress:
	default:
		// Channel full, skip this update
	}
}

// Close closes the progress channel. The exporter must not be used afterwards.
func (e *Exporter) Close() {
	e.closeOnce.Do(func() { close(e.progressChan) })
}
