package components

import (
	"fmt"
	"strings"

	"github.com/pokedexsocial/pokedex/pkg/app/styles"
	"github.com/pokedexsocial/pokedex/pkg/services"
)

// ProgressTracker follows a single field guide export
type ProgressTracker struct {
	last    *services.ExportProgress
	skipped int
	path    string
	width   int
}

func NewProgressTracker(width int) *ProgressTracker {
	return &ProgressTracker{width: width}
}

func (p *ProgressTracker) SetWidth(width int) { p.width = width }

func (p *ProgressTracker) Update(progress services.ExportProgress) {
	if progress.Status == "skipped" {
		p.skipped++
	}
	prog := progress // Copy
	p.last = &prog
}

// Finish records where the guide was written
func (p *ProgressTracker) Finish(path string) {
	p.path = path
	if p.last != nil {
		p.last.Status = "complete"
	}
}

func (p *ProgressTracker) Clear() {
	p.last = nil
	p.skipped = 0
	p.path = ""
}

func (p *ProgressTracker) HasActive() bool {
	return p.last != nil && p.last.Status != "complete" && p.last.Status != "error"
}

func (p *ProgressTracker) View() string {
	if p.last == nil {
		return ""
	}
	progress := p.last

	var b strings.Builder
	b.WriteString(styles.SubtitleStyle.Render("Field guide export"))
	b.WriteString("\n")

	if progress.Total > 0 {
		b.WriteString(renderProgressBar(progress.Current, progress.Total, p.width-4))
		b.WriteString("\n")
	}

	statusText := progress.Status
	if progress.Total > 0 {
		percentage := float64(progress.Current) / float64(progress.Total) * 100
		statusText = fmt.Sprintf("%s (%d/%d sprites - %.0f%%)",
			progress.Status, progress.Current, progress.Total, percentage)
	}
	if progress.Name != "" && progress.Status != "complete" {
		statusText += " " + progress.Name
	}
	b.WriteString(styles.StatusStyle(progress.Status).Render(statusText))
	b.WriteString("\n")

	if p.skipped > 0 {
		b.WriteString(styles.MutedStyle.Render(fmt.Sprintf("%d without artwork", p.skipped)))
		b.WriteString("\n")
	}
	if p.path != "" {
		b.WriteString(styles.StatusCompleted.Render("Saved to " + p.path))
		b.WriteString("\n")
	}
	if progress.Status == "error" && progress.Error != nil {
		b.WriteString(styles.StatusError.Render(fmt.Sprintf("Error: %s", progress.Error)))
		b.WriteString("\n")
	}

	return b.String()
}

func renderProgressBar(current, total, width int) string {
	if total == 0 || width <= 0 {
		return ""
	}

	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return styles.ProgressBarStyle.Render(bar)
}

// SimpleProgress renders a simple progress bar
func SimpleProgress(current, total, width int) string {
	return renderProgressBar(current, total, width)
}
