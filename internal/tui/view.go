package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/loqalabs/loqa-interview/internal/session"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	questionStyle    = lipgloss.NewStyle().Bold(true)
	panelStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	placeholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	recordingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	idleStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true)
	goodBadge        = lipgloss.NewStyle().Foreground(lipgloss.Color("120")).Background(lipgloss.Color("22")).Padding(0, 1)
	fairBadge        = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Background(lipgloss.Color("58")).Padding(0, 1)
	critiqueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	improveStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Bold(true)
	timerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type ViewOptions struct {
	SpeechAvailable bool
	Remaining       time.Duration
	Err             error
	Width           int
}

// Render draws the whole screen for s.
func Render(s session.State, opts ViewOptions) string {
	width := opts.Width
	if width <= 0 || width > 100 {
		width = 80
	}
	inner := width - 4

	var b strings.Builder
	b.WriteString(titleStyle.Render("AI Mock Interviewer"))
	b.WriteString("\n\n")

	question := labelStyle.Render("CURRENT QUESTION") + "\n" +
		questionStyle.Width(inner).Render(`"` + s.Question.Text + `"`)
	b.WriteString(panelStyle.Width(width - 2).Render(question))
	b.WriteString("\n")

	var answer strings.Builder
	answer.WriteString(labelStyle.Render("YOUR ANSWER"))
	answer.WriteString("  ")
	if s.Recording {
		answer.WriteString(recordingStyle.Render("● Stop Recording"))
	} else {
		answer.WriteString(idleStyle.Render("Start Recording"))
	}
	if !opts.SpeechAvailable {
		answer.WriteString("  " + errorStyle.Render("(speech recognition unavailable)"))
	}
	answer.WriteString("\n")
	if s.Transcript != "" {
		answer.WriteString(lipgloss.NewStyle().Width(inner).Render(s.Transcript))
	} else {
		answer.WriteString(placeholderStyle.Render("Press start and begin speaking..."))
	}
	answer.WriteString("\n")
	answer.WriteString(submitLabel(s))
	b.WriteString(panelStyle.Width(width - 2).Render(answer.String()))
	b.WriteString("\n")

	if s.Feedback != nil {
		b.WriteString(panelStyle.Width(width - 2).Render(renderFeedback(s, opts.Remaining, inner)))
		b.WriteString("\n")
	}

	if opts.Err != nil {
		b.WriteString(errorStyle.Render("error: " + opts.Err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("r/space record · enter get feedback · s shuffle · q quit"))
	return b.String()
}

func submitLabel(s session.State) string {
	label := "[ Get Feedback ]"
	if s.Grading {
		label = "[ Analyzing... ]"
	}
	if !session.CanSubmit(s) {
		return helpStyle.Render(label)
	}
	return idleStyle.Render(label)
}

func renderFeedback(s session.State, remaining time.Duration, width int) string {
	fb := s.Feedback
	badge := fairBadge
	if fb.Rating > 70 {
		badge = goodBadge
	}
	secs := int(math.Ceil(remaining.Seconds()))

	var b strings.Builder
	b.WriteString(titleStyle.Render("AI Feedback"))
	b.WriteString(" ")
	b.WriteString(badge.Render(fmt.Sprintf("Score: %d/100", fb.Rating)))
	b.WriteString("  ")
	b.WriteString(timerStyle.Render(fmt.Sprintf("Next question in %ds...", secs)))
	b.WriteString("\n\n")
	b.WriteString(critiqueStyle.Render("Critique"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Render(fb.Feedback))
	b.WriteString("\n\n")
	b.WriteString(improveStyle.Render("Suggested Improvement"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Italic(true).Width(width).Render(`"` + fb.BetterAnswer + `"`))
	return b.String()
}
