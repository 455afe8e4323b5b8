package components

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jakoblorz/express-ts-generator/internal/filesystem"
	"github.com/jakoblorz/express-ts-generator/internal/tui"
)

// maxListedEntries caps the existing entries shown in the prompt
const maxListedEntries = 5

type overwriteKeys struct {
	Toggle  key.Binding
	Yes     key.Binding
	No      key.Binding
	Submit  key.Binding
	Decline key.Binding
}

var keys = overwriteKeys{
	Toggle:  key.NewBinding(key.WithKeys("left", "right", "h", "l", "tab")),
	Yes:     key.NewBinding(key.WithKeys("y", "Y")),
	No:      key.NewBinding(key.WithKeys("n", "N")),
	Submit:  key.NewBinding(key.WithKeys("enter", " ")),
	Decline: key.NewBinding(key.WithKeys("esc", "ctrl+c", "q")),
}

// OverwriteModel asks whether express-generator may write into a
// non-empty directory. The answer defaults to No.
type OverwriteModel struct {
	dir      string
	existing []string
	yes      bool
	answered bool
}

// NewOverwritePrompt creates the prompt for dir. existing lists entries
// already present in dir.
func NewOverwritePrompt(dir string, existing []string) OverwriteModel {
	sorted := append([]string(nil), existing...)
	sort.Strings(sorted)
	return OverwriteModel{dir: dir, existing: sorted}
}

func (m OverwriteModel) Init() tea.Cmd {
	return nil
}

func (m OverwriteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Toggle):
		m.yes = !m.yes
	case key.Matches(keyMsg, keys.Yes):
		return m.answer(true)
	case key.Matches(keyMsg, keys.No), key.Matches(keyMsg, keys.Decline):
		return m.answer(false)
	case key.Matches(keyMsg, keys.Submit):
		return m.answer(m.yes)
	}
	return m, nil
}

func (m OverwriteModel) answer(yes bool) (tea.Model, tea.Cmd) {
	m.yes = yes
	m.answered = true
	return m, tea.Quit
}

func (m OverwriteModel) View() string {
	if m.answered {
		return ""
	}

	var b strings.Builder
	b.WriteString(tui.TitleStyle.UnsetMarginBottom().Render(fmt.Sprintf("%s is not empty", m.dir)))
	b.WriteString("\n")

	shown := m.existing
	if len(shown) > maxListedEntries {
		shown = shown[:maxListedEntries]
	}
	for _, name := range shown {
		b.WriteString(tui.SubtleStyle.Render("  "+name) + "\n")
	}
	if rest := len(m.existing) - len(shown); rest > 0 {
		b.WriteString(tui.SubtleStyle.Render(fmt.Sprintf("  … and %d more", rest)) + "\n")
	}

	b.WriteString(tui.WarningStyle.Render("Generated files replace existing files with the same name."))
	b.WriteString("\n\n")

	yes, no := "  Generate anyway", "  Cancel"
	if m.yes {
		yes = tui.SelectedStyle.Render("> Generate anyway")
	} else {
		no = tui.SelectedStyle.Render("> Cancel")
	}
	b.WriteString(yes + "  " + no + "\n\n")
	b.WriteString(tui.HelpStyle.Render("←→ switch • enter select • y/n answer"))

	return b.String()
}

// Confirmed reports whether the user chose to generate
func (m OverwriteModel) Confirmed() bool {
	return m.answered && m.yes
}

// Answered reports whether the prompt is finished
func (m OverwriteModel) Answered() bool {
	return m.answered
}

// OverwriteConfirmer implements scaffold.Confirmer with an OverwriteModel
type OverwriteConfirmer struct {
	fs  filesystem.FileSystem
	in  io.Reader
	out io.Writer
}

// NewOverwriteConfirmer creates a confirmer reading keys from in
func NewOverwriteConfirmer(fs filesystem.FileSystem, in io.Reader, out io.Writer) *OverwriteConfirmer {
	return &OverwriteConfirmer{fs: fs, in: in, out: out}
}

// ConfirmOverwrite asks whether dir may be generated into
func (c *OverwriteConfirmer) ConfirmOverwrite(dir string) (bool, error) {
	entries, err := c.fs.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}

	final, err := tea.NewProgram(NewOverwritePrompt(dir, names), tea.WithInput(c.in), tea.WithOutput(c.out)).Run()
	if err != nil {
		return false, fmt.Errorf("failed to run confirmation: %w", err)
	}

	m, ok := final.(OverwriteModel)
	if !ok {
		return false, fmt.Errorf("unexpected confirmation model %T", final)
	}
	return m.Confirmed(), nil
}
