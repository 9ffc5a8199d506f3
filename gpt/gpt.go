package gpt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/sokinpui/gpt.go/cli"
	"github.com/sokinpui/gpt.go/internal/collector"
	"github.com/sokinpui/gpt.go/internal/config"
	"github.com/sokinpui/gpt.go/internal/fs"
	"github.com/sokinpui/gpt.go/internal/history"
	"github.com/sokinpui/gpt.go/internal/llm"
	"github.com/sokinpui/gpt.go/internal/nvim"
	"github.com/sokinpui/gpt.go/internal/parser"
	"github.com/sokinpui/gpt.go/internal/prompt"
	"github.com/sokinpui/gpt.go/internal/source"
	"github.com/sokinpui/gpt.go/internal/ui"
	"github.com/sokinpui/gpt.go/internal/updater"
	"github.com/sokinpui/gpt.go/model"
)

// App orchestrates the entire application logic.
type App struct {
	cfg            *cli.Config
	settings       *config.Config
	logger         *zap.Logger
	store          *history.Store
	collector      *collector.Collector
	client         *llm.Client
	pathResolver   *fs.PathResolver
	updater        *updater.Updater
	sourceProvider *source.SourceProvider
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

func (e *DetailedError) Unwrap() error {
	return e.Err
}

// recoverPanic turns a panic in the calling method into a DetailedError.
func recoverPanic(err *error) {
	if r := recover(); r != nil {
		*err = &DetailedError{
			Err:   fmt.Errorf("internal panic: %v", r),
			Stack: debug.Stack(),
		}
	}
}

// New creates a new App instance. Flag values in cfg take precedence over settings.
func New(cfg *cli.Config, settings *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Model != "" {
		settings.Model = cfg.Model
	}
	if cfg.HistoryPath != "" {
		settings.HistoryPath = cfg.HistoryPath
	}

	pathResolver, err := fs.NewPathResolver(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize path resolver: %w", err)
	}

	client := llm.New(llm.Options{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Timeout: settings.Timeout,
		Instructions: prompt.Instructions{
			FileChanges:           cfg.UpdateFiles,
			PreferredTechnologies: settings.PreferredTechnologies,
		},
		Debug: cfg.Debug,
	}, logger.Named("llm"))

	return &App{
		cfg:            cfg,
		settings:       settings,
		logger:         logger,
		store:          history.New(settings.HistoryPath),
		collector:      collector.New(settings.MaxFileChars, logger.Named("collector")),
		client:         client,
		pathResolver:   pathResolver,
		updater:        updater.New(pathResolver, cfg.DryRun || cfg.Debug, logger.Named("updater")),
		sourceProvider: source.New(os.Stdin),
	}, nil
}

// SetInput replaces standard input as the source of a "-" message.
func (a *App) SetInput(r io.Reader) {
	a.sourceProvider = source.New(r)
}

// Root returns the directory file changes are confined to.
func (a *App) Root() string {
	return a.pathResolver.Root()
}

// Prepare resolves the message and attached files into the outbound message.
func (a *App) Prepare() (composed string, err error) {
	defer recoverPanic(&err)

	message, err := a.sourceProvider.Message(a.cfg.Message, a.cfg.FromClipboard)
	if err != nil {
		return "", err
	}
	files, err := a.collector.Collect(a.cfg.Paths)
	if err != nil {
		return "", err
	}
	composed = prompt.Compose(message, files, a.settings.MaxFileChars)
	a.logger.Debug("composed message",
		zap.Int("paths", len(a.cfg.Paths)),
		zap.Int("chars", len(composed)),
	)
	return composed, nil
}

// Converse sends composed with the session history and records both turns.
// Nothing is recorded when the request fails.
func (a *App) Converse(ctx context.Context, composed string) (reply string, err error) {
	defer recoverPanic(&err)

	if a.cfg.Action == cli.ActionNew {
		err = a.store.Reset()
	} else {
		err = a.store.Ensure()
	}
	if err != nil {
		return "", err
	}

	past, err := a.store.ReadAll()
	if err != nil {
		return "", err
	}
	a.logger.Debug("loaded conversation history",
		zap.String("path", a.store.Path()),
		zap.Int("chars", len(past)),
	)

	reply, err = a.client.Send(ctx, past, composed)
	if err != nil {
		return "", err
	}

	if err := a.store.Append(model.TagUserQuestion, composed); err != nil {
		return "", err
	}
	if err := a.store.Append(model.TagAIAnswer, reply); err != nil {
		return "", err
	}
	return reply, nil
}

// Execute runs Prepare and Converse.
func (a *App) Execute(ctx context.Context) (string, error) {
	composed, err := a.Prepare()
	if err != nil {
		return "", err
	}
	return a.Converse(ctx, composed)
}

// Parse extracts the file changes from reply. A malformed reply yields no
// changes and a warning, never an error.
func (a *App) Parse(reply string) map[string]string {
	updates, err := parser.Parse(reply)
	if err != nil {
		a.logger.Warn("ignoring file changes in reply", zap.Error(err))
		return map[string]string{}
	}
	if len(updates) == 0 && a.cfg.CodeBlocks && !parser.HasDirectives(reply) {
		updates, err = parser.ParseCodeBlocks(reply)
		if err != nil {
			a.logger.Warn("could not parse code blocks", zap.Error(err))
			return map[string]string{}
		}
		a.logger.Debug("using code block fallback", zap.Int("files", len(updates)))
	}
	return updates
}

// Apply writes updates and summarizes the results.
func (a *App) Apply(updates map[string]string) model.Summary {
	if len(updates) == 0 {
		return model.Summary{Message: "No file changes found in the reply."}
	}
	return model.Summarize(a.updater.Apply(updates))
}

// Update parses reply and applies the file changes it contains.
func (a *App) Update(reply string) (summary model.Summary, err error) {
	defer recoverPanic(&err)
	return a.Apply(a.Parse(reply)), nil
}

// Show prints the stored conversation to w.
func (a *App) Show(w io.Writer) (err error) {
	defer recoverPanic(&err)

	turns, err := a.store.Turns()
	if err != nil {
		return err
	}
	ui.PrintTurns(w, turns)
	return nil
}

// CopyReply places reply on the system clipboard.
func (a *App) CopyReply(reply string) error {
	return a.sourceProvider.CopyToClipboard(reply)
}

// ReloadEditor asks a running Neovim to reload the files written in summary.
// It is a no-op, not an error, when no Neovim is listening.
func (a *App) ReloadEditor(summary model.Summary) error {
	written := append(append([]string{}, summary.Created...), summary.Modified...)
	if len(written) == 0 {
		return nil
	}

	manager, err := nvim.New("")
	if errors.Is(err, nvim.ErrNoInstance) {
		a.logger.Debug("skipping buffer reload", zap.Error(err))
		return nil
	}
	if err != nil {
		return err
	}
	defer manager.Close()

	paths := make([]string, 0, len(written))
	for _, p := range written {
		abs, err := a.pathResolver.Resolve(p)
		if err != nil {
			continue
		}
		paths = append(paths, abs)
	}
	reloaded, skipped := manager.ReloadBuffers(paths)
	a.logger.Debug("reloaded buffers", zap.Int("reloaded", len(reloaded)), zap.Int("not_open", len(skipped)))
	return nil
}
