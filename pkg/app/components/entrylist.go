package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pokedexsocial/pokedex/pkg/app/styles"
	"github.com/pokedexsocial/pokedex/pkg/data"
)

// EntryList renders the accumulated result list, one row per entry, and
// scrolls to keep the selection visible.
type EntryList struct {
	Items         []data.CatalogEntry
	SelectedIndex int
	Width         int
	Height        int
	offset        int
}

func NewEntryList() *EntryList {
	return &EntryList{
		Items:         []data.CatalogEntry{},
		SelectedIndex: 0,
		Width:         80,
		Height:        20,
	}
}

// SetItems replaces the list. Appended pages keep the selection where it
// was; a shorter list pulls it back into range.
func (l *EntryList) SetItems(items []data.CatalogEntry) {
	l.Items = items
	if l.SelectedIndex >= len(items) && len(items) > 0 {
		l.SelectedIndex = len(items) - 1
	}
	if len(items) == 0 {
		l.SelectedIndex = 0
		l.offset = 0
	}
	l.clampOffset()
}

func (l *EntryList) SetSize(width, height int) {
	l.Width = width
	l.Height = height
	l.clampOffset()
}

func (l *EntryList) Next() {
	if len(l.Items) == 0 {
		return
	}
	if l.SelectedIndex < len(l.Items)-1 {
		l.SelectedIndex++
	}
	l.clampOffset()
}

func (l *EntryList) Prev() {
	if len(l.Items) == 0 {
		return
	}
	if l.SelectedIndex > 0 {
		l.SelectedIndex--
	}
	l.clampOffset()
}

// AtEnd reports whether the selection sits on the last loaded entry
func (l *EntryList) AtEnd() bool {
	return len(l.Items) > 0 && l.SelectedIndex == len(l.Items)-1
}

func (l *EntryList) Selected() *data.CatalogEntry {
	if len(l.Items) == 0 || l.SelectedIndex >= len(l.Items) {
		return nil
	}
	return &l.Items[l.SelectedIndex]
}

func (l *EntryList) visibleRows() int {
	return max(1, l.Height)
}

func (l *EntryList) clampOffset() {
	rows := l.visibleRows()
	if l.SelectedIndex < l.offset {
		l.offset = l.SelectedIndex
	}
	if l.SelectedIndex >= l.offset+rows {
		l.offset = l.SelectedIndex - rows + 1
	}
	if l.offset > max(0, len(l.Items)-rows) {
		l.offset = max(0, len(l.Items)-rows)
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

func (l *EntryList) View() string {
	if len(l.Items) == 0 {
		emptyMsg := styles.MutedStyle.Render("No Pokémon match these filters")
		return lipgloss.Place(l.Width, l.Height, lipgloss.Center, lipgloss.Center, emptyMsg)
	}

	end := min(len(l.Items), l.offset+l.visibleRows())
	rows := make([]string, 0, end-l.offset)
	for i := l.offset; i < end; i++ {
		rows = append(rows, l.renderRow(l.Items[i], i == l.SelectedIndex))
	}
	return strings.Join(rows, "\n")
}

func (l *EntryList) renderRow(entry data.CatalogEntry, selected bool) string {
	cursor := "  "
	nameStyle := styles.TextStyle
	if selected {
		cursor = styles.SelectedStyle.Render("▸ ")
		nameStyle = styles.SelectedStyle
	}

	tags := make([]string, len(entry.Types))
	for i, t := range entry.Types {
		tags[i] = styles.TypeTag(t.Name)
	}

	name := entry.Name()
	if maxName := l.Width - 40; maxName > 3 && len([]rune(name)) > maxName {
		name = string([]rune(name)[:maxName-3]) + "..."
	}

	return fmt.Sprintf("%s%s  %s  %s",
		cursor,
		styles.NumberStyle.Render(entry.DisplayNumber()),
		nameStyle.Width(max(12, l.Width-40)).Render(name),
		strings.Join(tags, " "),
	)
}
