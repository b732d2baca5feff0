package main

import (
	"context"
	"embed"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"go.uber.org/zap"

	builderApp "pagebuilder/internal/app"
	"pagebuilder/internal/config"
)

//go:embed all:frontend/dist
var assets embed.FS

var cfg *config.Config

// loadConfig runs after the command line is parsed.
func loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error
	if cfg, err = config.Load(cmd.String("config")); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		cfg.Logging.ConsoleLogger.Level = "debug"
	}
	return ctx, nil
}

func runDesktop(ctx context.Context, cmd *cli.Command) error {
	log, err := cfg.Logging.Prepare()
	if err != nil {
		return fmt.Errorf("unable to prepare logs: %w", err)
	}
	app := builderApp.New(cfg, log)

	// macOS needs an Edit menu for Cmd+C/V/X/A to reach the WebView
	appMenu := menu.NewMenu()
	appMenu.Append(menu.EditMenu())

	return wails.Run(&options.App{
		Title:     "Page Builder",
		Width:     1440,
		Height:    900,
		MinWidth:  800,
		MinHeight: 600,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 15, G: 15, B: 20, A: 1},
		Menu:             appMenu,
		OnStartup:        app.Startup,
		OnShutdown:       app.Shutdown,
		Bind: []interface{}{
			app,
		},
		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				HideTitle:                  true,
				FullSizeContent:            true,
			},
			About: &mac.AboutInfo{
				Title:   "Page Builder",
				Message: "Section and block editor with live preview",
			},
		},
	})
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	// stdout carries the protocol
	log, err := cfg.Logging.PrepareStderr()
	if err != nil {
		return fmt.Errorf("unable to prepare logs: %w", err)
	}
	defer log.Sync()

	log.Info("Starting standalone MCP server", zap.String("database", cfg.DBPath()))
	return builderApp.ServeMCP(ctx, cfg, log)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	data, err := config.Dump(cfg)
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}
	if _, err := os.Stdout.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:            config.AppName,
		Usage:           "section and block editor with live preview",
		HideHelpCommand: true,
		Before:          loadConfig,
		Action:          runDesktop,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log debug messages to the console"},
		},
		Commands: []*cli.Command{
			{
				Name:   "desktop",
				Usage:  "Opens the editor window (default)",
				Action: runDesktop,
			},
			{
				Name:   "mcp",
				Usage:  "Serves the editor over MCP on stdin/stdout, without a window",
				Action: runMCP,
			},
			{
				Name:   "dumpconfig",
				Usage:  "Prints the effective configuration (YAML)",
				Action: outputConfiguration,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
