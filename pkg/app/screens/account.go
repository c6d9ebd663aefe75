package screens

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pokedexsocial/pokedex/pkg/app/styles"
	"github.com/pokedexsocial/pokedex/pkg/data"
	"github.com/pokedexsocial/pokedex/pkg/services"
)

// AccountScreen logs in against the backend and shows the stored session
type AccountScreen struct {
	controller *services.PokedexController
	email      textinput.Model
	password   textinput.Model
	submitting bool
	width      int
	height     int
	err        error
}

func NewAccountScreen(controller *services.PokedexController) *AccountScreen {
	email := textinput.New()
	email.Placeholder = "trainer@example.com"
	email.CharLimit = 254
	email.Width = 40

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128
	password.Width = 40

	return &AccountScreen{
		controller: controller,
		email:      email,
		password:   password,
	}
}

func (s *AccountScreen) Init() tea.Cmd {
	if s.controller.Auth().IsAuthenticated() {
		return nil
	}
	return s.email.Focus()
}

func (s *AccountScreen) Capturing() bool {
	return s.email.Focused() || s.password.Focused()
}

func (s *AccountScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		return s, nil

	case loginResultMsg:
		s.submitting = false
		s.err = msg.err
		if msg.err == nil {
			s.email.Blur()
			s.password.Blur()
			s.email.SetValue("")
			s.password.SetValue("")
		}
		return s, nil

	case logoutResultMsg:
		s.err = msg.err
		return s, s.email.Focus()

	case tea.KeyMsg:
		if s.controller.Auth().IsAuthenticated() {
			if msg.String() == "l" {
				return s, s.logout
			}
			return s, nil
		}
		if s.submitting {
			return s, nil
		}
		return s.handleFormKey(msg)
	}

	return s, s.updateInputs(msg)
}

func (s *AccountScreen) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		if !s.Capturing() {
			break
		}
		if s.email.Focused() {
			s.email.Blur()
			return s, s.password.Focus()
		}
		s.password.Blur()
		return s, s.email.Focus()
	case "esc":
		s.email.Blur()
		s.password.Blur()
		return s, nil
	case "enter":
		if !s.Capturing() {
			return s, s.email.Focus()
		}
		if s.email.Focused() {
			s.email.Blur()
			return s, s.password.Focus()
		}
		s.submitting = true
		s.err = nil
		return s, s.login(s.email.Value(), s.password.Value())
	}
	return s, s.updateInputs(msg)
}

func (s *AccountScreen) updateInputs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	s.email, cmd = s.email.Update(msg)
	cmds = append(cmds, cmd)
	s.password, cmd = s.password.Update(msg)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

func (s *AccountScreen) View() string {
	if s.width == 0 {
		return "Loading..."
	}

	header := styles.TitleStyle.Render("Trainer account")

	var errorMsg string
	if s.err != nil {
		errorMsg = styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err))
		errorMsg += "\n\n"
	}

	if session := s.controller.Auth().Session(); session != nil && s.controller.Auth().IsAuthenticated() {
		help := styles.HelpStyle.Render("l: log out • tab: switch view • q: quit")
		return fmt.Sprintf("%s\n\n%s%s\n%s", header, errorMsg, s.renderProfile(session), help)
	}

	emailStyle, passwordStyle := styles.InputStyle, styles.InputStyle
	if s.email.Focused() {
		emailStyle = styles.FocusedInputStyle
	}
	if s.password.Focused() {
		passwordStyle = styles.FocusedInputStyle
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		styles.MutedStyle.Render("Email"),
		emailStyle.Render(s.email.View()),
		styles.MutedStyle.Render("Password"),
		passwordStyle.Render(s.password.View()),
	)

	status := ""
	if s.submitting {
		status = styles.StatusLoading.Render("Signing in...") + "\n"
	}

	help := styles.HelpStyle.Render("tab: next field • enter: sign in • esc: leave form • q: quit")
	return fmt.Sprintf("%s\n\n%s%s\n%s%s", header, errorMsg, form, status, help)
}

func (s *AccountScreen) renderProfile(session *data.AuthSession) string {
	name := session.Username
	if name == "" {
		name = fmt.Sprintf("trainer #%d", session.UserID)
	}
	info := lipgloss.JoinVertical(lipgloss.Left,
		styles.SelectedStyle.Render(name),
		styles.MutedStyle.Render(fmt.Sprintf("User ID: %d", session.UserID)),
		styles.MutedStyle.Render("Signed in "+session.CreatedAt.Format("2006-01-02 15:04")),
	)
	if exp, ok := s.controller.Auth().ExpiresAt(); ok {
		info = lipgloss.JoinVertical(lipgloss.Left, info,
			styles.MutedStyle.Render("Expires "+exp.Local().Format("2006-01-02 15:04")))
	}
	return styles.CardStyle.Width(max(20, s.width-4)).Render(info)
}

// Messages
type loginResultMsg struct {
	session *data.AuthSession
	err     error
}

type logoutResultMsg struct {
	err error
}

// Commands
func (s *AccountScreen) login(email, password string) tea.Cmd {
	return func() tea.Msg {
		session, err := s.controller.Login(context.Background(), email, password)
		return loginResultMsg{session: session, err: err}
	}
}

func (s *AccountScreen) logout() tea.Msg {
	return logoutResultMsg{err: s.controller.Logout()}
}
