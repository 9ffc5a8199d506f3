// Package history persists the conversation as an append-only text file of
// tagged turns.
//
// The file is shared, unlocked state: two invocations appending to the same
// file at once can interleave their turns. Use a separate --history path per
// concurrent session.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sokinpui/gpt.go/model"
)

// ErrHistoryRead is returned when the history file cannot be read.
var ErrHistoryRead = errors.New("error reading conversation history")

// Store manages one history file.
type Store struct {
	path string
}

// New creates a Store for path. The file itself is not touched.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the history file location.
func (s *Store) Path() string {
	return s.path
}

// Ensure creates the history file (and its directory) if it does not exist yet.
func (s *Store) Ensure() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("could not create history directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not create history file: %w", err)
	}
	return f.Close()
}

// Reset starts a new session by truncating the file, creating it if needed.
func (s *Store) Reset() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("could not create history directory: %w", err)
	}
	if err := os.WriteFile(s.path, nil, 0644); err != nil {
		return fmt.Errorf("could not reset history: %w", err)
	}
	return nil
}

// Append adds one turn as "<tag>\nbody\n</tag>\n".
func (s *Store) Append(tag, body string) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("could not open history for append: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatTurn(tag, body)); err != nil {
		return fmt.Errorf("could not append %s turn: %w", tag, err)
	}
	return nil
}

func formatTurn(tag, body string) string {
	return "<" + tag + ">\n" + body + "\n</" + tag + ">\n"
}

// ReadAll returns the whole history exactly as stored.
func (s *Store) ReadAll() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHistoryRead, err)
	}
	return string(data), nil
}

// Turns parses the history back into turns. Text outside a turn wrapper is ignored,
// and a turn left open at the end of the file keeps what it has.
func (s *Store) Turns() ([]model.Turn, error) {
	content, err := s.ReadAll()
	if err != nil {
		return nil, err
	}
	return parseTurns(content), nil
}

func parseTurns(content string) []model.Turn {
	var (
		turns   []model.Turn
		current *model.Turn
		body    []string
	)
	for _, line := range strings.Split(strings.TrimSuffix(content, "\n"), "\n") {
		if current == nil {
			if tag, ok := openingTag(line); ok {
				current = &model.Turn{Tag: tag}
				body = body[:0]
			}
			continue
		}
		if line == "</"+current.Tag+">" {
			current.Body = strings.Join(body, "\n")
			turns = append(turns, *current)
			current = nil
			continue
		}
		body = append(body, line)
	}
	if current != nil {
		current.Body = strings.Join(body, "\n")
		turns = append(turns, *current)
	}
	return turns
}

func openingTag(line string) (string, bool) {
	switch line {
	case "<" + model.TagUserQuestion + ">":
		return model.TagUserQuestion, true
	case "<" + model.TagAIAnswer + ">":
		return model.TagAIAnswer, true
	}
	return "", false
}
