// Package collector resolves path specifiers into file content blocks that are
// embedded in outbound messages.
package collector

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	ifs "github.com/sokinpui/gpt.go/internal/fs"
	"github.com/sokinpui/gpt.go/model"
)

// ErrInvalidPath is returned for a spec that is neither a file nor a directory.
var ErrInvalidPath = errors.New("invalid path provided")

// lineRangeRegex matches "path[start:end]". Brackets without a colon, as in
// "app/[id]", are part of the path.
var lineRangeRegex = regexp.MustCompile(`^(.+?)\[([^\[\]:]*):([^\[\]:]*)\]$`)

// Collector reads files named by path specs.
type Collector struct {
	maxChars int
	logger   *zap.Logger
}

// New creates a Collector that skips files longer than maxChars characters.
func New(maxChars int, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{maxChars: maxChars, logger: logger}
}

// Collect returns the rendered file blocks for specs.
func (c *Collector) Collect(specs []string) (string, error) {
	blocks, err := c.Blocks(specs)
	if err != nil {
		return "", err
	}
	return Render(blocks), nil
}

// Render wraps each block in <file:PATH> delimiters and concatenates them.
func Render(blocks []model.FileBlock) string {
	var b strings.Builder
	for _, block := range blocks {
		fmt.Fprintf(&b, "\n<file:%s>\n%s\n</file>\n", block.Path, block.Content)
	}
	return b.String()
}

// Blocks resolves specs in order. Only an invalid path is an error; unreadable,
// binary or oversized files are logged and left out.
func (c *Collector) Blocks(specs []string) ([]model.FileBlock, error) {
	var blocks []model.FileBlock
	for _, spec := range specs {
		if m := lineRangeRegex.FindStringSubmatch(spec); m != nil {
			content := c.extractLines(m[1], m[2], m[3])
			if content != "" {
				blocks = append(blocks, model.FileBlock{Path: m[1], Content: content})
			}
			continue
		}

		files, err := c.filesFromPath(spec)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			content, ok := c.readFile(file)
			if !ok {
				continue
			}
			blocks = append(blocks, model.FileBlock{Path: file, Content: content})
		}
	}
	return blocks, nil
}

func (c *Collector) filesFromPath(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	if info.Mode().IsRegular() {
		return []string{path}, nil
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is neither a file nor a directory", ErrInvalidPath, path)
	}

	var files []string
	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			c.logger.Warn("Skipping unreadable entry", zap.String("path", p), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(p)
			if err != nil || !target.Mode().IsRegular() {
				c.logger.Warn("Skipping symlink", zap.String("path", p))
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if walkErr != nil {
		c.logger.Warn("Directory walk stopped early", zap.String("path", path), zap.Error(walkErr))
	}
	return files, nil
}

func (c *Collector) readFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Warn("Skipping file", zap.String("path", path), zap.Error(err))
		return "", false
	}
	if !ifs.IsText(data) {
		c.logger.Warn("Skipping binary file", zap.String("path", path))
		return "", false
	}
	content := string(data)
	if c.maxChars > 0 && utf8.RuneCountInString(content) > c.maxChars {
		c.logger.Warn("Skipping file as it is too large", zap.String("path", path), zap.Int("max_chars", c.maxChars))
		return "", false
	}
	return content, true
}

// extractLines returns lines start..end (1-indexed, inclusive) with their line
// endings. Any bad bound yields "".
func (c *Collector) extractLines(path, startStr, endStr string) string {
	lineRange := startStr + ":" + endStr
	start, err1 := strconv.Atoi(strings.TrimSpace(startStr))
	end, err2 := strconv.Atoi(strings.TrimSpace(endStr))
	if err1 != nil || err2 != nil {
		c.logger.Error("Invalid line range", zap.String("path", path), zap.String("range", lineRange))
		return ""
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Error("Error reading specified lines", zap.String("path", path), zap.String("range", lineRange), zap.Error(err))
		return ""
	}

	lines := splitLines(string(data))
	if start < 1 || end > len(lines) {
		c.logger.Warn("Line range out of bounds", zap.String("path", path), zap.String("range", lineRange), zap.Int("lines", len(lines)))
		return ""
	}
	if start > end {
		c.logger.Warn("Invalid line range", zap.String("path", path), zap.String("range", lineRange))
		return ""
	}
	return strings.Join(lines[start-1:end], "")
}

// splitLines splits after each "\n", keeping terminators.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
