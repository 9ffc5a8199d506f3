package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrInterrupted is returned when the user quits while the job is still running.
var ErrInterrupted = errors.New("interrupted")

// --- Styles ---
var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// --- Messages ---
type resultMsg struct {
	text string
	err  error
}

// --- Model ---

// Model shows a spinner while a single job runs and quits when it finishes.
type Model struct {
	label   string
	job     func() (string, error)
	spinner spinner.Model
	state   state
	result  resultMsg
}

type state int

const (
	stateProcessing state = iota
	stateDone
	stateInterrupted
)

// New creates a Model that runs job with label shown next to the spinner.
func New(label string, job func() (string, error)) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return Model{
		label:   label,
		job:     job,
		spinner: s,
		state:   stateProcessing,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runJob)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.state = stateInterrupted
			return m, tea.Quit
		}

	case resultMsg:
		m.state = stateDone
		m.result = msg
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		if m.state == stateProcessing {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.state != stateProcessing {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), faintStyle.Render(m.label))
}

// Result returns the job's outcome once the model has finished.
func (m Model) Result() (string, error) {
	switch m.state {
	case stateDone:
		return m.result.text, m.result.err
	case stateInterrupted:
		return "", ErrInterrupted
	default:
		return "", fmt.Errorf("job did not finish")
	}
}

func (m Model) runJob() tea.Msg {
	text, err := m.job()
	return resultMsg{text: text, err: err}
}

// Run executes job behind a spinner drawn on out. The spinner only renders; the
// job's result is returned once it completes.
func Run(ctx context.Context, out io.Writer, label string, job func() (string, error)) (string, error) {
	p := tea.NewProgram(New(label, job), tea.WithOutput(out), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("spinner failed: %w", err)
	}
	return final.(Model).Result()
}
