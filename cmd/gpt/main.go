package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/sokinpui/gpt.go/cli"
	"github.com/sokinpui/gpt.go/gpt"
	"github.com/sokinpui/gpt.go/internal/config"
	"github.com/sokinpui/gpt.go/internal/logging"
	"github.com/sokinpui/gpt.go/internal/tui"
	"github.com/sokinpui/gpt.go/internal/ui"
)

func main() {
	cfg, err := cli.ParseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		ui.Error("Error: %v", err)
		os.Exit(1)
	}

	logger := logging.Must(cfg.Verbose)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		var detailed *gpt.DetailedError
		if errors.As(err, &detailed) {
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", detailed.Stack)
		}
		logger.Error("gpt failed", zap.Error(err))
		ui.Error("Error: %v", err)
		os.Exit(1)
	}
}

func run(cfg *cli.Config, logger *zap.Logger) error {
	configPath := cfg.ConfigPath
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}

	app, err := gpt.New(cfg, settings, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if cfg.Action == cli.ActionShow {
		return app.Show(os.Stdout)
	}

	// The credential is checked before any file or network activity.
	if err := settings.RequireCredential(cfg.Debug); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	composed, err := app.Prepare()
	if err != nil {
		return err
	}

	var reply string
	if useSpinner(cfg) {
		reply, err = tui.Run(ctx, os.Stderr, "Waiting for "+settings.Model+"...", func() (string, error) {
			return app.Converse(ctx, composed)
		})
	} else {
		reply, err = app.Converse(ctx, composed)
	}
	if err != nil {
		return err
	}

	printReply(cfg, reply)

	if cfg.CopyReply {
		if err := app.CopyReply(reply); err != nil {
			ui.Warning("Could not copy reply: %v", err)
		} else {
			ui.Info("Reply copied to clipboard.")
		}
	}

	if !cfg.UpdateFiles {
		return nil
	}

	summary, err := app.Update(reply)
	if err != nil {
		return err
	}
	ui.PrintUpdateSummary(summary)

	if cfg.ReloadNvim {
		if err := app.ReloadEditor(summary); err != nil {
			ui.Warning("Could not reload Neovim buffers: %v", err)
		}
	}
	return nil
}

// useSpinner reports whether the spinner can own the terminal: both stdin, which
// bubbletea reads keys from, and stderr, where it draws, must be terminals.
func useSpinner(cfg *cli.Config) bool {
	if cfg.NoAnimation || cfg.Debug {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

func printReply(cfg *cli.Config, reply string) {
	if cfg.Raw || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println(reply)
		return
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		width = 0
	}
	fmt.Print(ui.RenderMarkdown(reply, width))
}
