package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pokedexsocial/pokedex/pkg/app/styles"
	"github.com/pokedexsocial/pokedex/pkg/catalog"
	"github.com/pokedexsocial/pokedex/pkg/data"
)

type filterRow int

const (
	rowTypes filterRow = iota
	rowAbility
	rowWeight
	rowHeight
	rowNdexMin
	rowNdexMax
	rowCount
)

var rowLabels = [...]string{"Types", "Ability", "Weight", "Height", "From N°", "To N°"}

// FilterMenu edits a FilterDraft from key presses. It never touches the
// draft itself: Handle turns a key into the mutation to apply, or nil.
type FilterMenu struct {
	catalog    *data.FilterCatalog
	row        filterRow
	typeCursor int
	Width      int
}

func NewFilterMenu(c *data.FilterCatalog) *FilterMenu {
	return &FilterMenu{catalog: c, Width: 80}
}

func (m *FilterMenu) Row() int { return int(m.row) }

// Handle maps a key to a draft mutation.
//
//	up/down     move between rows
//	left/right  move the type cursor, cycle a choice or step the dex by 1
//	[ ]         step the dex by 10
//	space       toggle the type under the cursor
//	backspace   clear the current row
func (m *FilterMenu) Handle(key string, draft *catalog.FilterDraft) catalog.Mutation {
	switch key {
	case "up", "k":
		m.row = (m.row + rowCount - 1) % rowCount
		return nil
	case "down", "j", "tab":
		m.row = (m.row + 1) % rowCount
		return nil
	}

	switch m.row {
	case rowTypes:
		return m.handleTypes(key)
	case rowAbility:
		return m.handleAbility(key, draft.Ability())
	case rowWeight:
		if b, ok := cycleBucket(key, draft.WeightBucket()); ok {
			return catalog.SetWeightBucket{Bucket: b}
		}
	case rowHeight:
		if b, ok := cycleBucket(key, draft.HeightBucket()); ok {
			return catalog.SetHeightBucket{Bucket: b}
		}
	case rowNdexMin:
		r := draft.NdexRange()
		if key == "backspace" {
			return catalog.SetNdexMin{Min: 1}
		}
		if step, ok := dexStep(key); ok {
			return catalog.SetNdexMin{Min: r.Min + step}
		}
	case rowNdexMax:
		r := draft.NdexRange()
		if key == "backspace" {
			return catalog.SetNdexMax{Max: m.catalog.NdexRange.Max}
		}
		if step, ok := dexStep(key); ok {
			return catalog.SetNdexMax{Max: r.Max + step}
		}
	}
	return nil
}

func (m *FilterMenu) handleTypes(key string) catalog.Mutation {
	n := len(m.catalog.Types)
	if n == 0 {
		return nil
	}
	switch key {
	case "left", "h":
		m.typeCursor = (m.typeCursor + n - 1) % n
	case "right", "l":
		m.typeCursor = (m.typeCursor + 1) % n
	case " ", "space", "enter":
		return catalog.ToggleType{ID: m.catalog.Types[m.typeCursor].ID}
	case "backspace":
		return catalog.SetTypes{}
	}
	return nil
}

// handleAbility cycles through "any" followed by every catalog ability
func (m *FilterMenu) handleAbility(key string, current int) catalog.Mutation {
	abilities := m.catalog.Abilities
	pos := 0
	for i, a := range abilities {
		if a.ID == current {
			pos = i + 1
		}
	}
	n := len(abilities) + 1
	switch key {
	case "left", "h":
		pos = (pos + n - 1) % n
	case "right", "l":
		pos = (pos + 1) % n
	case "backspace":
		pos = 0
	default:
		return nil
	}
	if pos == 0 {
		return catalog.SetAbility{ID: 0}
	}
	return catalog.SetAbility{ID: abilities[pos-1].ID}
}

func cycleBucket(key string, current catalog.Bucket) (catalog.Bucket, bool) {
	switch key {
	case "left", "h":
		return (current + 3) % 4, true
	case "right", "l":
		return (current + 1) % 4, true
	case "backspace":
		return catalog.BucketNone, true
	}
	return current, false
}

func dexStep(key string) (int, bool) {
	switch key {
	case "left", "h":
		return -1, true
	case "right", "l":
		return 1, true
	case "[":
		return -10, true
	case "]":
		return 10, true
	}
	return 0, false
}

func (m *FilterMenu) View(draft *catalog.FilterDraft) string {
	var b strings.Builder
	b.WriteString(styles.SubtitleStyle.Render(
		fmt.Sprintf("Filters (up to %d types)", catalog.MaxSelectedTypes)))
	b.WriteString("\n\n")

	for row := filterRow(0); row < rowCount; row++ {
		label := styles.MenuLabelStyle.Render(rowLabels[row])
		if row == m.row {
			label = styles.ActiveMenuLabelStyle.Render(rowLabels[row])
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label, m.rowValue(row, draft)))
		b.WriteString("\n")
	}

	b.WriteString(styles.HelpStyle.Render(
		"↑/↓: row • ←/→: change • space: toggle type • [ ]: ±10 • backspace: clear • enter: apply • esc: close"))
	return b.String()
}

func (m *FilterMenu) rowValue(row filterRow, draft *catalog.FilterDraft) string {
	switch row {
	case rowTypes:
		return m.typeChips(draft)
	case rowAbility:
		if id := draft.Ability(); id > 0 {
			return styles.TextStyle.Render(optionLabel(m.catalog.AbilityName(id), id))
		}
		return styles.MutedStyle.Render("any")
	case rowWeight:
		return bucketChips(draft.WeightBucket(), catalog.Bucket.WeightLabel)
	case rowHeight:
		return bucketChips(draft.HeightBucket(), catalog.Bucket.HeightLabel)
	case rowNdexMin:
		return styles.TextStyle.Render(fmt.Sprintf("%d", draft.NdexRange().Min))
	case rowNdexMax:
		return styles.TextStyle.Render(fmt.Sprintf("%d", draft.NdexRange().Max))
	}
	return ""
}

// typeChips renders the catalog types wrapped to the menu width. Selected
// types are filled, the cursor is marked with brackets.
func (m *FilterMenu) typeChips(draft *catalog.FilterDraft) string {
	var lines []string
	var line []string
	lineWidth := 0
	avail := max(20, m.Width-12)

	for i, t := range m.catalog.Types {
		name := t.Name
		if m.row == rowTypes && i == m.typeCursor {
			name = "[" + name + "]"
		}
		chip := styles.ChipStyle.Render(name)
		if draft.HasType(t.ID) {
			chip = styles.ActiveChipStyle.Background(styles.TypeColor(t.Name)).Render(name)
		}
		w := lipgloss.Width(chip)
		if lineWidth+w > avail && len(line) > 0 {
			lines = append(lines, strings.Join(line, ""))
			line, lineWidth = nil, 0
		}
		line = append(line, chip)
		lineWidth += w
	}
	if len(line) > 0 {
		lines = append(lines, strings.Join(line, ""))
	}
	return strings.Join(lines, "\n")
}

func bucketChips(current catalog.Bucket, label func(catalog.Bucket) string) string {
	chips := make([]string, 0, 4)
	for b := catalog.BucketNone; b <= catalog.BucketHigh; b++ {
		name := label(b)
		if b == catalog.BucketNone {
			name = "any"
		}
		if b == current {
			chips = append(chips, styles.ActiveChipStyle.Render(name))
		} else {
			chips = append(chips, styles.ChipStyle.Render(name))
		}
	}
	return strings.Join(chips, "")
}

func optionLabel(name string, id int) string {
	if name == "" {
		return fmt.Sprintf("#%d", id)
	}
	return name
}
