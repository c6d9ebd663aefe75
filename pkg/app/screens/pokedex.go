package screens

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/pokedexsocial/pokedex/pkg/app/components"
	"github.com/pokedexsocial/pokedex/pkg/app/styles"
	"github.com/pokedexsocial/pokedex/pkg/catalog"
	"github.com/pokedexsocial/pokedex/pkg/services"
)

const exportTitle = "Pokédex Field Guide"

type pokedexFocus int

const (
	focusList pokedexFocus = iota
	focusSearch
	focusFilters
)

// PokedexScreen browses the filtered result list
type PokedexScreen struct {
	controller *services.PokedexController
	session    *catalog.Session

	input   textinput.Model
	list    *components.EntryList
	menu    *components.FilterMenu
	tracker *components.ProgressTracker
	spinner spinner.Model

	focus      pokedexFocus
	opening    bool
	loading    bool
	exporting  bool
	generation uint64

	width  int
	height int
	err    error
}

func NewPokedexScreen(controller *services.PokedexController) *PokedexScreen {
	ti := textinput.New()
	ti.Placeholder = "Search by name..."
	ti.CharLimit = 100
	ti.Width = 40

	return &PokedexScreen{
		controller: controller,
		input:      ti,
		list:       components.NewEntryList(),
		tracker:    components.NewProgressTracker(80),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.StatusLoading)),
		opening:    true,
	}
}

func (s *PokedexScreen) Init() tea.Cmd {
	return tea.Batch(s.openSession, s.spinner.Tick, s.listenForProgress)
}

// Capturing reports whether key presses are consumed as text or menu input
func (s *PokedexScreen) Capturing() bool {
	return s.focus != focusList
}

func (s *PokedexScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.list.SetSize(msg.Width-4, max(3, msg.Height-14))
		s.tracker.SetWidth(msg.Width - 4)
		if s.menu != nil {
			s.menu.Width = msg.Width - 4
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case sessionOpenedMsg:
		s.opening = false
		s.err = msg.err
		if msg.session != nil {
			s.session = msg.session
			s.menu = components.NewFilterMenu(msg.session.Catalog())
			s.menu.Width = s.width - 4
			s.syncList()
		}

	case pageLoadedMsg:
		if msg.err != nil && !ignorable(msg.err) {
			s.err = msg.err
		} else if msg.err == nil {
			s.err = nil
		}
		s.syncList()

	case services.ExportProgress:
		s.tracker.Update(msg)
		return s, s.listenForProgress

	case exportDoneMsg:
		s.exporting = false
		if msg.err != nil {
			s.tracker.Update(services.ExportProgress{Status: "error", Error: msg.err})
		} else {
			s.tracker.Finish(msg.path)
		}

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	return s, nil
}

func (s *PokedexScreen) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch s.focus {
	case focusSearch:
		switch msg.String() {
		case "enter":
			s.input.Blur()
			s.focus = focusList
			if s.session == nil {
				return s, nil
			}
			s.session.Mutate(catalog.SetQuery{Query: s.input.Value()})
			return s, s.apply()
		case "esc":
			s.input.Blur()
			s.focus = focusList
			return s, nil
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd

	case focusFilters:
		switch msg.String() {
		case "enter":
			s.focus = focusList
			return s, s.apply()
		case "esc":
			s.focus = focusList
			return s, nil
		}
		if mut := s.menu.Handle(msg.String(), s.session.Draft()); mut != nil {
			s.session.Mutate(mut)
		}
		return s, nil
	}

	if s.session == nil {
		if msg.String() == "R" && !s.opening {
			s.opening = true
			s.err = nil
			return s, s.openSession
		}
		return s, nil
	}

	switch msg.String() {
	case "/":
		s.focus = focusSearch
		return s, s.input.Focus()
	case "f":
		s.focus = focusFilters
	case "up", "k":
		s.list.Prev()
	case "down", "j":
		if s.list.AtEnd() {
			return s, s.loadMore()
		}
		s.list.Next()
	case "m":
		return s, s.loadMore()
	case "a":
		return s, s.apply()
	case "r":
		// Only the draft is reset; the list stays until the next apply
		s.session.Reset()
		s.input.SetValue("")
	case "x":
		return s, s.export()
	case "enter":
		if selected := s.list.Selected(); selected != nil {
			id := selected.ID
			return s, func() tea.Msg {
				return SwitchScreenMsg{Screen: "details", Data: id}
			}
		}
	}
	return s, nil
}

// syncList copies the controller state onto the list. A new generation
// moves the selection back to the top.
func (s *PokedexScreen) syncList() {
	if s.session == nil {
		return
	}
	state := s.session.State()
	if state.Generation != s.generation {
		s.generation = state.Generation
		s.list.SelectedIndex = 0
	}
	s.list.SetItems(state.Items)
	s.loading = state.Loading
}

func (s *PokedexScreen) View() string {
	if s.width == 0 {
		return "Loading..."
	}

	header := styles.TitleStyle.Render("Pokédex")

	inputStyle := styles.InputStyle
	if s.focus == focusSearch {
		inputStyle = styles.FocusedInputStyle
	}
	inputView := inputStyle.Render(s.input.View())

	if s.opening {
		return fmt.Sprintf("%s\n\n%s %s", header, s.spinner.View(), styles.StatusLoading.Render("Loading filter catalog..."))
	}

	var errorMsg string
	if s.err != nil {
		errorMsg = styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err))
		errorMsg += "\n\n"
	}

	if s.session == nil {
		help := styles.HelpStyle.Render("R: retry • tab: switch view • q: quit")
		return fmt.Sprintf("%s\n\n%s%s", header, errorMsg, help)
	}

	summary := styles.MutedStyle.Render(s.session.Controller().Applied().Describe(s.session.Catalog()))

	var body string
	if s.focus == focusFilters {
		body = s.menu.View(s.session.Draft())
	} else {
		body = s.list.View()
	}

	state := s.session.State()
	footer := styles.MutedStyle.Render(fmt.Sprintf("%d loaded • page %d of %d", len(state.Items), state.CurrentPage+1, max(1, state.TotalPages)))
	if s.loading {
		footer = s.spinner.View() + " " + styles.StatusLoading.Render("Loading...")
	} else if state.HasMore() {
		footer += styles.MutedStyle.Render(" • more below")
	}

	help := styles.HelpStyle.Render(
		"/: search • f: filters • a: apply • r: reset filters • ↑/k ↓/j: navigate • m: load more • enter: details • x: export • tab: switch view • q: quit",
	)

	return fmt.Sprintf("%s\n%s\n%s\n\n%s%s\n%s\n%s%s",
		header,
		inputView,
		summary,
		errorMsg,
		body,
		footer,
		s.tracker.View(),
		help,
	)
}

// Messages
type sessionOpenedMsg struct {
	session *catalog.Session
	err     error
}

type pageLoadedMsg struct {
	err error
}

type exportDoneMsg struct {
	path string
	err  error
}

func ignorable(err error) bool {
	return errors.Is(err, catalog.ErrStaleResponse) ||
		errors.Is(err, catalog.ErrBusy) ||
		errors.Is(err, catalog.ErrNoMorePages)
}

// Commands
func (s *PokedexScreen) openSession() tea.Msg {
	session, err := s.controller.OpenSession(context.Background())
	return sessionOpenedMsg{session: session, err: err}
}

func (s *PokedexScreen) apply() tea.Cmd {
	if s.session == nil {
		return nil
	}
	session := s.session
	// Apply clears the list here so the old results vanish before the fetch
	session.Controller().Apply(session.Draft())
	s.syncList()
	s.loading = true
	return func() tea.Msg {
		return pageLoadedMsg{err: session.Controller().FetchPage(context.Background(), 0, true)}
	}
}

func (s *PokedexScreen) loadMore() tea.Cmd {
	if s.session == nil || s.loading || !s.session.HasMore() {
		return nil
	}
	session := s.session
	s.loading = true
	return func() tea.Msg {
		return pageLoadedMsg{err: session.LoadMore(context.Background())}
	}
}

func (s *PokedexScreen) export() tea.Cmd {
	if s.session == nil || s.exporting || s.loading {
		return nil
	}
	s.exporting = true
	s.tracker.Clear()
	s.tracker.Update(services.ExportProgress{Status: "loading"})

	session := s.session
	exporter := s.controller.Exporter()
	return func() tea.Msg {
		path, err := exporter.ExportSession(context.Background(), session, exportTitle, 0)
		return exportDoneMsg{path: path, err: err}
	}
}

func (s *PokedexScreen) listenForProgress() tea.Msg {
	if s.controller == nil {
		return nil
	}
	progress, ok := <-s.controller.Exporter().GetProgressChannel()
	if !ok {
		return nil
	}
	return progress
}
