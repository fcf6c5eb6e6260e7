package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"personagen/internal/types"
)

// Messages pushed into the program from the session coordinator's event
// callbacks.
type (
	// StatusMsg is a status line from the generation stream.
	StatusMsg string

	// ReasoningMsg is a narration line from the reasoning stream.
	ReasoningMsg string

	// ProgressMsg is a 0-100 progress update.
	ProgressMsg int

	// ResultMsg carries a finished generation.
	ResultMsg struct{ Result *types.GenerationResult }

	// ErrorMsg carries a failed generation.
	ErrorMsg struct{ Err error }

	// CancelledMsg reports that the generation was cancelled.
	CancelledMsg struct{}
)

// GenerateModel is the live view for one generation: a progress bar, the
// current status line, and a trailing window of reasoning narration.
type GenerateModel struct {
	prompt   string
	provider string
	onCancel func()

	bar       progress.Model
	percent   int
	status    string
	reasoning []string
	result    *types.GenerationResult
	err       error
	cancelled bool
	done      bool
	width     int

	styles Styles
}

// reasoningWindow is how many narration lines stay visible.
const reasoningWindow = 4

// NewGenerateModel creates the view. onCancel runs when the user aborts with
// ctrl+c or esc; it should cancel the coordinator's in-flight generation.
func NewGenerateModel(prompt, provider string, onCancel func()) GenerateModel {
	bar := progress.New(progress.WithDefaultGradient())
	return GenerateModel{
		prompt:   prompt,
		provider: provider,
		onCancel: onCancel,
		bar:      bar,
		status:   "Starting",
		styles:   DefaultStyles(),
		width:    80,
	}
}

// Init implements tea.Model.
func (m GenerateModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m GenerateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			if !m.done && m.onCancel != nil {
				m.onCancel()
			}
			m.done = true
			m.cancelled = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 8
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}

	case StatusMsg:
		m.status = string(msg)

	case ReasoningMsg:
		m.reasoning = append(m.reasoning, string(msg))
		if len(m.reasoning) > reasoningWindow {
			m.reasoning = m.reasoning[len(m.reasoning)-reasoningWindow:]
		}

	case ProgressMsg:
		if int(msg) > m.percent {
			m.percent = int(msg)
		}

	case ResultMsg:
		m.result = msg.Result
		m.percent = 100
		m.done = true
		return m, tea.Quit

	case ErrorMsg:
		m.err = msg.Err
		m.done = true
		return m, tea.Quit

	case CancelledMsg:
		m.cancelled = true
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m GenerateModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Title.Render(fmt.Sprintf("Generating with %s", m.provider)) + "\n")
	sb.WriteString(m.styles.Muted.Render(m.prompt) + "\n\n")

	switch {
	case m.err != nil:
		sb.WriteString(m.styles.Error.Render("✗ "+m.err.Error()) + "\n")
		sb.WriteString(m.styles.Muted.Render("Adjust the prompt or configuration and run again.") + "\n")

	case m.cancelled:
		sb.WriteString(m.styles.Muted.Render("Cancelled.") + "\n")

	case m.result != nil:
		sb.WriteString(m.styles.Success.Render("✓ Done") + "\n\n")
		for _, url := range m.ResultURLs() {
			sb.WriteString("  " + url + "\n")
		}

	default:
		sb.WriteString(m.bar.ViewAs(float64(m.percent)/100) + "\n\n")
		sb.WriteString(m.styles.Status.Render(m.status) + "\n")
		for _, line := range m.reasoning {
			sb.WriteString(m.styles.Reasoning.Render(line) + "\n")
		}
		sb.WriteString("\n" + m.styles.Muted.Render("esc to cancel") + "\n")
	}

	return sb.String()
}

// Err returns the terminal error, if the generation failed.
func (m GenerateModel) Err() error {
	return m.err
}

// Cancelled reports whether the user aborted.
func (m GenerateModel) Cancelled() bool {
	return m.cancelled
}

// ResultURLs returns every image URL from a successful generation.
func (m GenerateModel) ResultURLs() []string {
	if m.result == nil {
		return nil
	}
	if len(m.result.ImageURLs) > 0 {
		return m.result.ImageURLs
	}
	return []string{m.result.ImageURL}
}
