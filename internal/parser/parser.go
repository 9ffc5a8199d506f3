// Package parser extracts file-change directives from a model reply.
//
// A directive looks like
//
//	<filechange:path/to/file>
//	...replacement lines...
//	</filechange>
//
// Tags are recognised only at the start of a line. Blocks do not nest: an
// opening tag inside a block starts a new target and the previous one keeps
// what it captured so far. A path that appears in several blocks takes the
// content of the last one. A block that is never closed runs to the end of
// the reply. A NUL byte in a target path aborts the whole parse with an empty
// result, so a corrupt reply can never produce a partial set of writes.
package parser

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/sokinpui/gpt.go/model"
)

const (
	openTag  = "<filechange:"
	closeTag = "</filechange>"
)

// ErrMalformedDirective is returned when a directive cannot be trusted.
var ErrMalformedDirective = errors.New("malformed file change directive")

type state int

const (
	stateIdle state = iota
	stateCapturing
)

// machine is the directive scanner. In stateCapturing, target names the path
// whose lines are being collected.
type machine struct {
	state  state
	target string
	lines  map[string][]string
	order  []string
}

func newMachine() *machine {
	return &machine{lines: make(map[string][]string)}
}

func (m *machine) step(line string) error {
	switch {
	case strings.HasPrefix(line, openTag):
		path, err := targetPath(line)
		if err != nil {
			return err
		}
		if _, seen := m.lines[path]; !seen {
			m.order = append(m.order, path)
		}
		// Reset, not append: the last block for a path wins.
		m.lines[path] = []string{}
		m.state = stateCapturing
		m.target = path
	case strings.HasPrefix(line, closeTag):
		m.state = stateIdle
		m.target = ""
	case m.state == stateCapturing:
		m.lines[m.target] = append(m.lines[m.target], line)
	}
	return nil
}

func targetPath(line string) (string, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, openTag))
	path := strings.TrimSpace(strings.TrimRight(rest, ">"))
	// An empty path is kept; the updater rejects it without affecting other entries.
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("%w: NUL byte in target path", ErrMalformedDirective)
	}
	return path, nil
}

func (m *machine) directives() []model.Directive {
	out := make([]model.Directive, 0, len(m.order))
	for _, path := range m.order {
		out = append(out, model.Directive{Path: path, Content: strings.Join(m.lines[path], "\n")})
	}
	return out
}

// Lines yields s split on "\n", like strings.Split but without building the slice.
func Lines(s string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			line, rest, found := strings.Cut(s, "\n")
			if !yield(line) || !found {
				return
			}
			s = rest
		}
	}
}

// Directives returns the directives in reply, ordered by the first appearance
// of each path. On error the result is empty.
func Directives(reply string) (directives []model.Directive, err error) {
	defer func() {
		if r := recover(); r != nil {
			directives = nil
			err = fmt.Errorf("%w: %v", ErrMalformedDirective, r)
		}
	}()

	m := newMachine()
	for line := range Lines(reply) {
		if err := m.step(line); err != nil {
			return nil, err
		}
	}
	return m.directives(), nil
}

// Parse returns a map from target path to replacement content. On error the
// map is empty, never partial.
func Parse(reply string) (map[string]string, error) {
	directives, err := Directives(reply)
	updates := make(map[string]string, len(directives))
	if err != nil {
		return updates, err
	}
	for _, d := range directives {
		updates[d.Path] = d.Content
	}
	return updates, nil
}

// HasDirectives reports whether any line of reply opens a directive.
func HasDirectives(reply string) bool {
	for line := range Lines(reply) {
		if strings.HasPrefix(line, openTag) {
			return true
		}
	}
	return false
}
