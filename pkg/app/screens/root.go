package screens

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pokedexsocial/pokedex/pkg/app/styles"
	"github.com/pokedexsocial/pokedex/pkg/services"
)

type screenType int

const (
	pokedexView screenType = iota
	accountView
	detailsView
)

// SwitchScreenMsg is sent by a screen to move to another one
type SwitchScreenMsg struct {
	Screen string
	Data   interface{}
}

// capturer is implemented by screens that consume typed keys
type capturer interface {
	Capturing() bool
}

type RootScreen struct {
	controller *services.PokedexController

	currentView screenType
	pokedex     *PokedexScreen
	account     *AccountScreen
	details     *DetailsScreen
	accountInit bool

	width  int
	height int
}

func NewRootScreen(controller *services.PokedexController) *RootScreen {
	return &RootScreen{
		controller:  controller,
		currentView: pokedexView,
		pokedex:     NewPokedexScreen(controller),
		account:     NewAccountScreen(controller),
	}
}

func (r *RootScreen) Init() tea.Cmd {
	return r.pokedex.Init()
}

func (r *RootScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.height = msg.Height
		return r, r.broadcast(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return r, tea.Quit
		}
		if !r.capturing() {
			switch msg.String() {
			case "q":
				return r, tea.Quit
			case "tab":
				if r.currentView == detailsView {
					// Can't tab away from details, use esc
					break
				}
				r.currentView = (r.currentView + 1) % 2
				if r.currentView == accountView && !r.accountInit {
					r.accountInit = true
					cmd = r.account.Init()
				}
				return r, cmd
			}
		}
		return r, r.forwardKey(msg)

	case SwitchScreenMsg:
		switch msg.Screen {
		case "pokedex":
			r.currentView = pokedexView
			r.details = nil
		case "account":
			r.currentView = accountView
		case "details":
			if id, ok := msg.Data.(int); ok {
				r.details = NewDetailsScreen(r.controller, id)
				r.details.Update(tea.WindowSizeMsg{Width: r.width, Height: r.height})
				r.currentView = detailsView
				cmd = r.details.Init()
			}
		}
		return r, cmd
	}

	// Results and ticks go to every screen, a hidden tab keeps loading
	return r, r.broadcast(msg)
}

func (r *RootScreen) capturing() bool {
	var active tea.Model
	switch r.currentView {
	case pokedexView:
		active = r.pokedex
	case accountView:
		active = r.account
	}
	if c, ok := active.(capturer); ok {
		return c.Capturing()
	}
	return false
}

func (r *RootScreen) forwardKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch r.currentView {
	case pokedexView:
		_, cmd = r.pokedex.Update(msg)
	case accountView:
		_, cmd = r.account.Update(msg)
	case detailsView:
		if r.details != nil {
			_, cmd = r.details.Update(msg)
		}
	}
	return cmd
}

func (r *RootScreen) broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	_, cmd = r.pokedex.Update(msg)
	cmds = append(cmds, cmd)
	_, cmd = r.account.Update(msg)
	cmds = append(cmds, cmd)
	if r.details != nil {
		_, cmd = r.details.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (r *RootScreen) View() string {
	tabs := r.renderTabs()

	var content string
	switch r.currentView {
	case pokedexView:
		content = r.pokedex.View()
	case accountView:
		content = r.account.View()
	case detailsView:
		if r.details != nil {
			content = r.details.View()
		}
	}

	if tabs == "" {
		return content
	}
	return fmt.Sprintf("%s\n\n%s", tabs, content)
}

func (r *RootScreen) renderTabs() string {
	if r.currentView == detailsView {
		// Don't show tabs in details view
		return ""
	}

	pokedexTab := "Pokédex"
	accountTab := "Account"
	if session := r.controller.Auth().Session(); session != nil && session.Username != "" && r.controller.Auth().IsAuthenticated() {
		accountTab = session.Username
	}

	if r.currentView == pokedexView {
		pokedexTab = styles.ActiveTabStyle.Render(pokedexTab)
		accountTab = styles.InactiveTabStyle.Render(accountTab)
	} else {
		pokedexTab = styles.InactiveTabStyle.Render(pokedexTab)
		accountTab = styles.ActiveTabStyle.Render(accountTab)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, pokedexTab, accountTab)
}
