// Package updater writes parsed file-change directives to disk.
//
// Every entry is independent: a failure is recorded in its result and the
// batch continues. Writes are plain truncate-and-write with no rename step, so
// an interrupted batch can leave a subset of files written.
package updater

import (
	"fmt"
	"os"
	"slices"

	"go.uber.org/zap"

	"github.com/sokinpui/gpt.go/internal/fs"
	"github.com/sokinpui/gpt.go/model"
)

// Updater applies updates under a project root.
type Updater struct {
	resolver *fs.PathResolver
	dryRun   bool
	logger   *zap.Logger
}

// New creates an Updater. In dry-run mode nothing is written.
func New(resolver *fs.PathResolver, dryRun bool, logger *zap.Logger) *Updater {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Updater{resolver: resolver, dryRun: dryRun, logger: logger}
}

type entry struct {
	path    string
	content string
}

// processSequentially runs processFn over items in order and collects every result.
func processSequentially[T any](items []T, processFn func(item T) model.FileUpdateResult) []model.FileUpdateResult {
	if len(items) == 0 {
		return nil
	}
	results := make([]model.FileUpdateResult, 0, len(items))
	for _, item := range items {
		results = append(results, processFn(item))
	}
	return results
}

// Apply writes each update, in sorted path order, and returns one result per entry.
func (u *Updater) Apply(updates map[string]string) []model.FileUpdateResult {
	paths := make([]string, 0, len(updates))
	for p := range updates {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	entries := make([]entry, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, entry{path: p, content: updates[p]})
	}
	return processSequentially(entries, u.apply)
}

func (u *Updater) apply(e entry) model.FileUpdateResult {
	result := model.FileUpdateResult{Path: e.path}

	target, err := u.resolver.Resolve(e.path)
	if err != nil {
		u.logger.Warn("rejected file update", zap.String("path", e.path), zap.Error(err))
		result.Status = model.StatusFailure
		result.Err = err
		return result
	}
	result.Action = fs.FileAction(target)

	if u.dryRun {
		u.logger.Info("dry run, not writing",
			zap.String("path", e.path),
			zap.String("action", result.Action),
			zap.Int("bytes", len(e.content)),
		)
		u.logger.Debug("would-be content", zap.String("path", e.path), zap.String("content", e.content))
		result.Status = model.StatusDryRun
		return result
	}

	if err := write(target, e.content); err != nil {
		u.logger.Error("failed to update file", zap.String("path", e.path), zap.Error(err))
		result.Status = model.StatusFailure
		result.Err = err
		return result
	}

	u.logger.Debug("updated file", zap.String("path", e.path), zap.String("action", result.Action))
	result.Status = model.StatusSuccess
	return result
}

func write(path, content string) error {
	if err := fs.EnsureParentDir(path); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
