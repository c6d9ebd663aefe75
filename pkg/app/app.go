package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pokedexsocial/pokedex/pkg/app/screens"
	"github.com/pokedexsocial/pokedex/pkg/services"
)

type App struct {
	controller *services.PokedexController
}

func NewApp(controller *services.PokedexController) *App {
	return &App{controller: controller}
}

func (a *App) Run() error {
	model := screens.NewRootScreen(a.controller)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
