// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tui implements the interactive terminal reviewer for pending
// questions. One question is shown at a time with its source, and single
// keys approve, reject, or skip it.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/bank"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/pkg/types"
)

type styles struct {
	title    lipgloss.Style
	label    lipgloss.Style
	source   lipgloss.Style
	option   lipgloss.Style
	answer   lipgloss.Style
	status   lipgloss.Style
	helpLine lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cba6f7")),
		label:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#94e2d5")),
		source:   lipgloss.NewStyle().Foreground(lipgloss.Color("#a6adc8")),
		option:   lipgloss.NewStyle().PaddingLeft(2),
		answer:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a6e3a1")),
		status:   lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af")),
		helpLine: lipgloss.NewStyle().Faint(true),
	}
}

// Summary counts review decisions for the session.
type Summary struct {
	Approved int
	Rejected int
	Skipped  int
}

type model struct {
	ctx    context.Context
	store  *bank.Store
	styles styles

	current *types.GeneratedQuestion
	source  *types.SourceQuestion
	// skipped IDs are excluded from the pending query for this session only
	skipped []int64

	explanation string
	status      string
	summary     Summary
	err         error
	done        bool
	width       int
}

type nextQuestionMsg struct {
	gen *types.GeneratedQuestion
	src *types.SourceQuestion
	err error
}

func initialModel(ctx context.Context, store *bank.Store) model {
	return model{ctx: ctx, store: store, styles: newStyles()}
}

func (m model) Init() tea.Cmd {
	return m.fetchNext()
}

func (m model) fetchNext() tea.Cmd {
	skipped := m.skipped
	return func() tea.Msg {
		gen, src, err := m.store.NextPending(m.ctx, skipped)
		return nextQuestionMsg{gen: gen, src: src, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case nextQuestionMsg:
		if msg.err != nil {
			m.err = msg.err
			m.done = true
			return m, tea.Quit
		}
		if msg.gen == nil {
			m.done = true
			return m, tea.Quit
		}
		m.current = msg.gen
		m.source = msg.src
		m.explanation = renderMarkdown(msg.gen.Explanation, m.width)
		m.status = ""
		return m, nil

	case tea.KeyMsg:
		if m.current == nil {
			if msg.String() == "q" || msg.String() == "ctrl+c" {
				m.done = true
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "a":
			return m.decide(types.StatusApproved)
		case "r":
			return m.decide(types.StatusRejected)
		case "s":
			m.skipped = append(m.skipped, m.current.ID)
			m.summary.Skipped++
			m.current = nil
			return m, m.fetchNext()
		case "q", "ctrl+c":
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) decide(status types.ValidationStatus) (tea.Model, tea.Cmd) {
	if err := m.store.SetValidationStatus(m.ctx, m.current.ID, status); err != nil {
		m.err = err
		m.done = true
		return m, tea.Quit
	}
	switch status {
	case types.StatusApproved:
		m.summary.Approved++
	case types.StatusRejected:
		m.summary.Rejected++
	}
	m.current = nil
	return m, m.fetchNext()
}

func (m model) View() string {
	if m.done {
		return ""
	}
	if m.current == nil {
		return "loading next question...\n"
	}

	var b strings.Builder
	b.WriteString(m.styles.title.Render(fmt.Sprintf("Question #%d (%s)", m.current.ID, m.current.TargetExam)))
	b.WriteString("\n\n")

	if m.source != nil {
		b.WriteString(m.styles.label.Render("Source"))
		b.WriteString("\n")
		b.WriteString(m.styles.source.Render(fmt.Sprintf("%s p.%d  topic: %s",
			m.source.SourceFile, m.source.SourcePage, m.source.Topic)))
		b.WriteString("\n")
		b.WriteString(m.styles.source.Render(m.source.QuestionText))
		b.WriteString("\n\n")
	}

	b.WriteString(m.styles.label.Render("Transformed"))
	b.WriteString("\n")
	b.WriteString(m.current.QuestionText)
	b.WriteString("\n")
	for i, opt := range m.current.Options {
		b.WriteString(m.styles.option.Render(fmt.Sprintf("(%c) %s", 'A'+i, opt)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.answer.Render("Answer: " + m.current.CorrectAnswer))
	b.WriteString("\n")
	if m.explanation != "" {
		b.WriteString(m.explanation)
		b.WriteString("\n")
	}

	b.WriteString(m.styles.status.Render(fmt.Sprintf("approved %d  rejected %d  skipped %d",
		m.summary.Approved, m.summary.Rejected, m.summary.Skipped)))
	b.WriteString("\n")
	b.WriteString(m.styles.helpLine.Render("[a]pprove  [r]eject  [s]kip  [q]uit"))
	b.WriteString("\n")
	return b.String()
}

func renderMarkdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// Run starts the reviewer and blocks until the user quits or the pending
// queue drains. It returns the session's decision counts.
func Run(ctx context.Context, store *bank.Store) (Summary, error) {
	m := initialModel(ctx, store)
	program := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return Summary{}, err
	}
	fm, ok := final.(model)
	if !ok {
		return Summary{}, fmt.Errorf("unexpected final model type")
	}
	return fm.summary, fm.err
}
