// Package source resolves where the user's message comes from and where a reply may go.
package source

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
)

// StdinMarker as a message means "read the message from standard input".
const StdinMarker = "-"

// ErrEmptyMessage is returned when the resolved message is blank.
var ErrEmptyMessage = errors.New("message is empty")

// SourceProvider determines and retrieves the message content.
type SourceProvider struct {
	stdin io.Reader
	// readClipboard and writeClipboard default to the system clipboard.
	readClipboard  func() (string, error)
	writeClipboard func(string) error
}

// New creates a SourceProvider reading piped input from stdin.
func New(stdin io.Reader) *SourceProvider {
	return &SourceProvider{
		stdin:          stdin,
		readClipboard:  clipboard.ReadAll,
		writeClipboard: clipboard.WriteAll,
	}
}

// Message returns the message to send: the clipboard when fromClipboard is set,
// stdin when arg is "-", and arg itself otherwise.
func (sp *SourceProvider) Message(arg string, fromClipboard bool) (string, error) {
	var (
		content string
		err     error
	)
	switch {
	case fromClipboard:
		content, err = sp.readClipboard()
		if err != nil {
			return "", fmt.Errorf("failed to read from clipboard: %w", err)
		}
	case arg == StdinMarker:
		b, readErr := io.ReadAll(sp.stdin)
		if readErr != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", readErr)
		}
		content = string(b)
	default:
		content = arg
	}

	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyMessage
	}
	return content, nil
}

// CopyToClipboard places text on the system clipboard.
func (sp *SourceProvider) CopyToClipboard(text string) error {
	if err := sp.writeClipboard(text); err != nil {
		return fmt.Errorf("failed to write to clipboard: %w", err)
	}
	return nil
}
