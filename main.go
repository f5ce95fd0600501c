package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	app "github.com/rocketscienceinc/tictactoe-engine/internal"
	"github.com/rocketscienceinc/tictactoe-engine/internal/config"
)

// main - is the entry point of the application. It initializes the
// configuration, logger, and runs the application.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	var configPath string

	rootCmd := &cobra.Command{
		Use:   "tictactoe-engine",
		Short: "Tic-tac-toe game engine with local, bot and simulated online play",
		RunE: func(_ *cobra.Command, _ []string) error {
			conf := config.MustLoad(configPath)
			logger := initLogger(conf)

			if err := app.RunApp(logger, conf); err != nil {
				return fmt.Errorf("app run failed: %w", err)
			}

			return nil
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", "./config.yml", "path to the config file")

	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
