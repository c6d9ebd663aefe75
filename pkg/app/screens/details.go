package screens

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pokedexsocial/pokedex/pkg/app/components"
	"github.com/pokedexsocial/pokedex/pkg/app/styles"
	"github.com/pokedexsocial/pokedex/pkg/data"
	"github.com/pokedexsocial/pokedex/pkg/services"
)

// maxBaseStat scales the stat bars
const maxBaseStat = 255

type DetailsScreen struct {
	controller *services.PokedexController
	pokemonID  int
	pokemon    *data.PokemonDetails
	width      int
	height     int
	err        error
}

func NewDetailsScreen(controller *services.PokedexController, pokemonID int) *DetailsScreen {
	return &DetailsScreen{
		controller: controller,
		pokemonID:  pokemonID,
	}
}

func (s *DetailsScreen) Init() tea.Cmd {
	return s.loadDetails
}

func (s *DetailsScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			s.err = nil
			return s, s.loadDetails
		case "esc", "backspace":
			return s, func() tea.Msg {
				return SwitchScreenMsg{Screen: "pokedex", Data: nil}
			}
		}

	case detailsLoadedMsg:
		if msg.id != s.pokemonID {
			return s, nil
		}
		s.pokemon = msg.pokemon
		s.err = msg.err
	}

	return s, nil
}

func (s *DetailsScreen) View() string {
	help := styles.HelpStyle.Render("r: refresh • esc: back • q: quit")

	if s.err != nil {
		return fmt.Sprintf("%s\n\n%s",
			styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err)),
			help)
	}
	if s.width == 0 || s.pokemon == nil {
		return "Loading..."
	}

	p := s.pokemon
	entry := p.Entry()
	header := styles.TitleStyle.Render(fmt.Sprintf("%s %s", entry.DisplayNumber(), entry.Name()))

	tags := make([]string, len(entry.Types))
	for i, t := range entry.Types {
		tags[i] = styles.TypeTag(t.Name)
	}

	content := fmt.Sprintf("%s\n%s\n\n%s\n%s\n%s",
		header,
		strings.Join(tags, " "),
		s.renderInfo(),
		s.renderStats(),
		help,
	)
	return content
}

func (s *DetailsScreen) renderInfo() string {
	p := s.pokemon

	lines := []string{}
	if p.Class != "" {
		lines = append(lines, styles.SubtitleStyle.Render(p.Class))
	}
	for _, text := range []string{p.Dex1, p.Dex2} {
		if text != "" {
			lines = append(lines, styles.TextStyle.Render(text))
		}
	}
	lines = append(lines, "")

	var abilities []string
	for _, a := range []*data.FilterOption{p.Ability1, p.Ability2} {
		if a != nil {
			abilities = append(abilities, a.Name)
		}
	}
	if p.HiddenAbility != nil {
		abilities = append(abilities, p.HiddenAbility.Name+" (hidden)")
	}
	if len(abilities) > 0 {
		lines = append(lines, styles.MutedStyle.Render("Abilities: ")+styles.TextStyle.Render(strings.Join(abilities, ", ")))
	}

	lines = append(lines, styles.MutedStyle.Render(fmt.Sprintf("Height: %gm • Weight: %gkg", p.Height, p.Weight)))
	lines = append(lines, styles.MutedStyle.Render("Gender: "+genderText(p)))

	var eggs []string
	for _, g := range []string{p.EggGroup1, p.EggGroup2} {
		if g != "" {
			eggs = append(eggs, g)
		}
	}
	if len(eggs) > 0 {
		lines = append(lines, styles.MutedStyle.Render("Egg groups: "+strings.Join(eggs, ", ")))
	}

	info := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return styles.CardStyle.Width(max(20, s.width-4)).Render(info)
}

func (s *DetailsScreen) renderStats() string {
	p := s.pokemon
	stats := []struct {
		label string
		value int
	}{
		{"HP", p.HP},
		{"Attack", p.Attack},
		{"Defense", p.Defense},
		{"Sp. Atk", p.SpAttack},
		{"Sp. Def", p.SpDefense},
		{"Speed", p.Speed},
	}

	barWidth := max(10, min(40, s.width-30))
	var b strings.Builder
	b.WriteString(styles.SubtitleStyle.Render("Base stats"))
	b.WriteString("\n")
	for _, stat := range stats {
		b.WriteString(fmt.Sprintf("%s %3d %s\n",
			styles.MenuLabelStyle.Render(stat.label),
			stat.value,
			components.SimpleProgress(stat.value, maxBaseStat, barWidth)))
	}
	b.WriteString(fmt.Sprintf("%s %3d\n", styles.MenuLabelStyle.Render("Total"), p.Total))
	return b.String()
}

func genderText(p *data.PokemonDetails) string {
	if p.PercentMale == nil && p.PercentFemale == nil {
		return "genderless"
	}
	var male, female float64
	if p.PercentMale != nil {
		male = *p.PercentMale
	}
	if p.PercentFemale != nil {
		female = *p.PercentFemale
	}
	return fmt.Sprintf("%g%% ♂ / %g%% ♀", male, female)
}

// Messages
type detailsLoadedMsg struct {
	id      int
	pokemon *data.PokemonDetails
	err     error
}

// Commands
func (s *DetailsScreen) loadDetails() tea.Msg {
	pokemon, err := s.controller.Pokemon(context.Background(), s.pokemonID)
	return detailsLoadedMsg{id: s.pokemonID, pokemon: pokemon, err: err}
}
