package integrations

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-shiori/go-epub"
	"github.com/pkg/errors"

	"github.com/pokedexsocial/pokedex/pkg/data"
)

// GuideEntry is one page of the field guide. Sprite may be nil when the
// artwork could not be fetched.
type GuideEntry struct {
	Entry  data.CatalogEntry
	Sprite *Sprite
}

// FieldGuideBuilder writes a filtered result set as an EPUB
type FieldGuideBuilder struct {
	outputDir string
}

func NewFieldGuideBuilder(outputDir string) *FieldGuideBuilder {
	if outputDir == "" {
		outputDir, _ = os.MkdirTemp("", "pokedex-epub-*")
	}
	return &FieldGuideBuilder{outputDir: outputDir}
}

func (b *FieldGuideBuilder) OutputDir() string { return b.outputDir }

// CreateEPub writes the guide and returns the file path. description is
// rendered on the opening page, typically the filters that produced the set.
func (b *FieldGuideBuilder) CreateEPub(title, description string, entries []GuideEntry) (string, error) {
	if len(entries) == 0 {
		return "", errors.New("no entries to compile")
	}
	if title == "" {
		title = "Field Guide"
	}

	if err := os.MkdirAll(b.outputDir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create output directory")
	}

	// go-epub copies images from disk, so sprites are staged first
	staging, err := os.MkdirTemp("", "pokedex-sprites-*")
	if err != nil {
		return "", errors.Wrap(err, "failed to create staging directory")
	}
	defer os.RemoveAll(staging)

	seen := make(map[int]bool, len(entries))
	sorted := make([]GuideEntry, 0, len(entries))
	for _, entry := range entries {
		if seen[entry.Entry.ID] {
			continue
		}
		seen[entry.Entry.ID] = true
		sorted = append(sorted, entry)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Entry.Ndex < sorted[j].Entry.Ndex
	})

	e, err := epub.NewEpub(title)
	if err != nil {
		return "", errors.Wrap(err, "failed to create EPub")
	}
	e.SetAuthor("PokedexSocial")
	if description != "" {
		e.SetDescription(description)
	}
	e.SetLang("en")

	if _, err := e.AddSection(renderIntro(title, description, len(sorted)), "Contents", "intro.xhtml", ""); err != nil {
		return "", errors.Wrap(err, "failed to add section")
	}

	for _, entry := range sorted {
		if err := b.addEntry(e, staging, entry); err != nil {
			return "", errors.Wrapf(err, "failed to add %s", entry.Entry.DisplayNumber())
		}
	}

	outputPath := filepath.Join(b.outputDir, sanitizeFilename(title)+".epub")
	if err := e.Write(outputPath); err != nil {
		return "", errors.Wrap(err, "failed to write EPub")
	}

	return outputPath, nil
}

func (b *FieldGuideBuilder) addEntry(e *epub.Epub, staging string, g GuideEntry) error {
	entry := g.Entry
	sectionTitle := fmt.Sprintf("%s %s", entry.DisplayNumber(), entry.Name())

	var body strings.Builder
	body.WriteString(fmt.Sprintf("<h1>%s</h1>\n", html.EscapeString(sectionTitle)))

	if g.Sprite != nil && len(g.Sprite.Content) > 0 {
		name := fmt.Sprintf("%04d-%d%s", entry.Ndex, entry.ID, spriteExt(g.Sprite.ContentType))
		path := filepath.Join(staging, name)
		if err := os.WriteFile(path, g.Sprite.Content, 0644); err != nil {
			return errors.Wrap(err, "failed to stage sprite")
		}
		internalPath, err := e.AddImage(path, name)
		if err != nil {
			return errors.Wrapf(err, "failed to add image %s", name)
		}
		body.WriteString(fmt.Sprintf(
			`<div class="sprite"><img src="%s" alt="%s" style="max-width:60%%;height:auto;"/></div>%s`,
			internalPath, html.EscapeString(entry.Name()), "\n",
		))
	}

	if entry.Class != "" {
		body.WriteString(fmt.Sprintf("<p><em>%s</em></p>\n", html.EscapeString(entry.Class)))
	}
	if len(entry.Types) > 0 {
		names := make([]string, 0, len(entry.Types))
		for _, t := range entry.Types {
			names = append(names, html.EscapeString(t.Name))
		}
		body.WriteString(fmt.Sprintf("<p>Type: %s</p>\n", strings.Join(names, " / ")))
	}

	_, err := e.AddSection(body.String(), sectionTitle, fmt.Sprintf("entry-%d.xhtml", entry.ID), "")
	if err != nil {
		return errors.Wrap(err, "failed to add section")
	}
	return nil
}

func renderIntro(title, description string, count int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<h1>%s</h1>\n", html.EscapeString(title)))
	if description != "" {
		sb.WriteString(fmt.Sprintf("<p>%s</p>\n", html.EscapeString(description)))
	}
	sb.WriteString(fmt.Sprintf("<p>%d entries</p>\n", count))
	return sb.String()
}

func spriteExt(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// sanitizeFilename removes characters that are invalid in filenames
func sanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	result = strings.Trim(result, ".")
	if result == "" {
		result = "field-guide"
	}
	return result
}
