package services

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokedexsocial/pokedex/pkg/catalog"
	"github.com/pokedexsocial/pokedex/pkg/data"
	"github.com/pokedexsocial/pokedex/pkg/integrations"
	"github.com/pokedexsocial/pokedex/pkg/sources"
)

func countImages(t *testing.T, path string) int {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	var n int
	for _, f := range r.File {
		if strings.HasSuffix(f.Name, ".png") {
			n++
		}
	}
	return n
}

func drain(ch <-chan ExportProgress) []ExportProgress {
	var out []ExportProgress
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, p)
		default:
			return out
		}
	}
}

func TestExportDownloadsSprites(t *testing.T) {
	backend := newFakeBackend(t, 3)
	outputDir := t.TempDir()

	exp := NewExporter(ExporterOptions{
		BaseURL:     backend.URL(),
		OutputDir:   outputDir,
		Concurrency: 2,
		Rate:        100,
		Processor:   integrations.NewSpriteProcessor(integrations.SpriteSettings{Size: 16}),
	})
	defer exp.Close()

	path, err := exp.Export(context.Background(), "Starters", "N°1-3", backend.entries)
	require.NoError(t, err)

	assert.Equal(t, outputDir, filepath.Dir(path))
	assert.Equal(t, 3, countImages(t, path))
	assert.Equal(t, 3, backend.spriteCalls)

	events := drain(exp.GetProgressChannel())
	require.NotEmpty(t, events)
	assert.Equal(t, "complete", events[len(events)-1].Status)
}

func TestExportSkipsMissingSprites(t *testing.T) {
	backend := newFakeBackend(t, 14)
	// 12, 13 (404), 14 and one without artwork
	entries := append([]data.CatalogEntry(nil), backend.entries[11:14]...)
	entries = append(entries, data.CatalogEntry{ID: 99, Ndex: 99, Species: "Missingno"})

	exp := NewExporter(ExporterOptions{BaseURL: backend.URL(), OutputDir: t.TempDir(), Concurrency: 4, Rate: 100})
	defer exp.Close()

	path, err := exp.Export(context.Background(), "Partial", "", entries)
	require.NoError(t, err, "missing artwork must not fail the export")
	assert.Equal(t, 2, countImages(t, path))

	var skipped int
	for _, p := range drain(exp.GetProgressChannel()) {
		if p.Status == "skipped" {
			skipped++
			assert.Error(t, p.Error)
		}
	}
	assert.Equal(t, 2, skipped)
}

func TestExportNothing(t *testing.T) {
	exp := NewExporter(ExporterOptions{OutputDir: t.TempDir()})
	defer exp.Close()

	_, err := exp.Export(context.Background(), "Empty", "", nil)
	assert.Error(t, err)
}

func TestExportCancelled(t *testing.T) {
	backend := newFakeBackend(t, 5)
	exp := NewExporter(ExporterOptions{BaseURL: backend.URL(), OutputDir: t.TempDir(), Rate: 0.001})
	defer exp.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exp.Export(ctx, "Cancelled", "", backend.entries)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExportSession(t *testing.T) {
	backend := newFakeBackend(t, 30)
	src := sources.NewPokedex(backend.URL())
	ctx := context.Background()

	s, err := catalog.OpenSession(ctx, src, catalog.Options{})
	require.NoError(t, err)
	s.Mutate(catalog.ToggleType{ID: 7})
	require.NoError(t, s.Apply(ctx))

	outputDir := t.TempDir()
	exp := NewExporter(ExporterOptions{BaseURL: backend.URL(), OutputDir: outputDir, Concurrency: 4, Rate: 1000})
	defer exp.Close()

	path, err := exp.ExportSession(ctx, s, "Grass", 20)
	require.NoError(t, err)
	assert.Equal(t, 19, countImages(t, path), "entries are capped at the limit and #13 has no sprite")

	_, err = os.Stat(path)
	require.NoError(t, err)

	for _, q := range backend.searches[1:] {
		assert.Contains(t, q, "typeIds=7")
	}
	assert.Len(t, s.State().Items, 12, "the browsed list keeps only the page it had")
	assert.Equal(t, 0, s.State().CurrentPage)
}

func TestResolveSpriteURL(t *testing.T) {
	exp := NewExporter(ExporterOptions{BaseURL: "http://dex.local:8080/api/"})
	defer exp.Close()

	got, err := exp.resolve("/sprites/1.png")
	require.NoError(t, err)
	assert.Equal(t, "http://dex.local:8080/sprites/1.png", got)

	got, err = exp.resolve("https://cdn.example.com/1.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/1.png", got)
}
