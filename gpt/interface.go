package gpt

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sokinpui/gpt.go/cli"
	"github.com/sokinpui/gpt.go/internal/config"
)

// Config for using gpt's update step as a library.
type Config struct {
	// Root confines writes; the working directory when empty.
	Root string
	// DryRun reports the files that would change without writing them.
	DryRun bool
	// CodeBlocks enables the markdown code block fallback.
	CodeBlocks bool
}

// ApplyReply parses the file changes in reply and applies them.
// It returns a summary of the operations in a map.
func ApplyReply(reply string, opts Config) (map[string][]string, error) {
	cliCfg := &cli.Config{
		Root:       opts.Root,
		DryRun:     opts.DryRun,
		CodeBlocks: opts.CodeBlocks,
	}

	app, err := New(cliCfg, config.Default(), zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gpt app: %w", err)
	}

	summary, err := app.Update(reply)
	if err != nil {
		return nil, err
	}

	result := map[string][]string{
		"Created":  summary.Created,
		"Modified": summary.Modified,
		"Failed":   summary.Failed,
		"Skipped":  summary.Skipped,
	}

	return result, nil
}

// ParseReply returns the file changes in reply without applying them.
func ParseReply(reply string, codeBlocks bool) (map[string]string, error) {
	app, err := New(&cli.Config{CodeBlocks: codeBlocks}, config.Default(), zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gpt app: %w", err)
	}
	return app.Parse(reply), nil
}
