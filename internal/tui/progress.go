package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Spinner reports one long-running stage
type Spinner interface {
	SetTitle(title string)
	// Done stops the spinner and prints a final line
	Done(ok bool, message string)
}

// Progress creates spinners. Headless progress prints plain lines instead
// of animating, for pipes and CI logs.
type Progress struct {
	out         io.Writer
	interactive bool
}

// NewProgress creates a Progress writing to out
func NewProgress(out io.Writer, interactive bool) *Progress {
	return &Progress{out: out, interactive: interactive}
}

// Start begins a new stage
func (p *Progress) Start(title string) Spinner {
	if !p.interactive {
		fmt.Fprintf(p.out, "%s %s\n", SubtleStyle.Render("•"), title)
		return &headlessSpinner{out: p.out}
	}
	return newInteractiveSpinner(p.out, title)
}

type headlessSpinner struct {
	out io.Writer
}

func (s *headlessSpinner) SetTitle(title string) {
	fmt.Fprintf(s.out, "%s %s\n", SubtleStyle.Render("•"), title)
}

func (s *headlessSpinner) Done(ok bool, message string) {
	fmt.Fprintln(s.out, statusLine(ok, message))
}

func statusLine(ok bool, message string) string {
	if ok {
		return SuccessStyle.Render("✓") + " " + message
	}
	return ErrorStyle.Render("✗") + " " + message
}

type spinnerTitleMsg string

type spinnerStopMsg struct{}

type spinnerModel struct {
	spinner spinner.Model
	title   string
	done    bool
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerTitleMsg:
		m.title = string(msg)
		return m, nil
	case spinnerStopMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.title + "\n"
}

type interactiveSpinner struct {
	program *tea.Program
	out     io.Writer
	once    sync.Once
}

func newInteractiveSpinner(out io.Writer, title string) *interactiveSpinner {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(colorPrimary))

	// the spinner never reads keys; ctrl+c reaches the signal handler instead
	p := tea.NewProgram(spinnerModel{spinner: s, title: title},
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)

	is := &interactiveSpinner{program: p, out: out}
	go func() {
		_, _ = p.Run()
	}()
	return is
}

func (s *interactiveSpinner) SetTitle(title string) {
	s.program.Send(spinnerTitleMsg(title))
}

func (s *interactiveSpinner) Done(ok bool, message string) {
	s.once.Do(func() {
		s.program.Send(spinnerStopMsg{})
		s.program.Wait()
		fmt.Fprintln(s.out, statusLine(ok, message))
	})
}
