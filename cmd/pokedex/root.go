package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pokedexsocial/pokedex/pkg/app"
	"github.com/pokedexsocial/pokedex/pkg/config"
	"github.com/pokedexsocial/pokedex/pkg/services"
)

var (
	controller *services.PokedexController
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pokedex",
	Short: "Browse the Pokédex from your terminal",
	Long:  "Search, filter and export Pokémon from a PokedexSocial catalog service with a TUI and CLI",

	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.New(), cmd.Flags())
		if err != nil {
			return err
		}

		// The TUI owns the terminal, so it only logs to a file
		logger, err = config.NewLogger(cfg, cmd == cmd.Root())
		if err != nil {
			return err
		}

		controller, err = services.NewPokedexController(cfg, logger)
		if err != nil {
			return err
		}
		logger.Debug("started", zap.String("command", cmd.Name()), zap.String("api", cfg.APIURL))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()
		return controller.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Launch TUI by default
		return app.NewApp(controller).Run()
	},
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
