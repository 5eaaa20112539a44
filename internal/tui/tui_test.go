package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loqalabs/loqa-interview/internal/grading"
	"github.com/loqalabs/loqa-interview/internal/questions"
	"github.com/loqalabs/loqa-interview/internal/session"
)

type fakeCapture struct {
	mu      sync.Mutex
	handler func(string)
}

func (f *fakeCapture) Start(context.Context) error { return nil }
func (f *fakeCapture) Stop() error                 { return nil }
func (f *fakeCapture) Available() bool             { return true }
func (f *fakeCapture) OnResult(h func(string)) {
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()
}

func (f *fakeCapture) emit(text string) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h(text)
}

type fixedGrader struct{ fb grading.Feedback }

func (g fixedGrader) Grade(context.Context, string, string) (grading.Feedback, error) {
	return g.fb, nil
}

func press(t *testing.T, m tea.Model, key string) tea.Model {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	m, cmd := m.Update(msg)
	if cmd != nil {
		m, _ = m.Update(cmd())
	}
	return m
}

func TestModelDrivesInterviewCycle(t *testing.T) {
	capture := &fakeCapture{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := session.NewController(fixedGrader{fb: grading.Feedback{Feedback: "Cover hashing.", Rating: 85, BetterAnswer: "Keys hash to buckets."}},
		questions.NewSeededPicker(1), capture, 10*time.Second, logger)
	defer ctrl.Close()
	ctrl.Shuffle()

	var m tea.Model = New(ctrl, 10*time.Second)
	if !strings.Contains(m.View(), "Press start and begin speaking...") {
		t.Fatalf("expected placeholder, got:\n%s", m.View())
	}

	m = press(t, m, "r")
	capture.emit("keys are hashed")
	m, _ = m.Update(stateMsg{})
	if !strings.Contains(m.View(), "Stop Recording") || !strings.Contains(m.View(), "keys are hashed") {
		t.Fatalf("expected recording view, got:\n%s", m.View())
	}

	m = press(t, m, "r")
	m = press(t, m, "enter")
	view := m.View()
	for _, want := range []string{"Score: 85/100", "Cover hashing.", "Suggested Improvement", "Next question in 10s..."} {
		if !strings.Contains(view, want) {
			t.Fatalf("missing %q in:\n%s", want, view)
		}
	}

	before := ctrl.State().Cycle
	m = press(t, m, "s")
	if ctrl.State().Cycle != before+1 {
		t.Fatal("shuffle key should advance the question")
	}
	if strings.Contains(m.View(), "Score:") {
		t.Fatal("feedback should be cleared after shuffle")
	}
}

func TestEnterIgnoredWithoutTranscript(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := session.NewController(fixedGrader{}, questions.NewSeededPicker(1), nil, time.Second, logger)
	defer ctrl.Close()
	ctrl.Shuffle()

	m := New(ctrl, time.Second)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("submit must not be attempted with an empty transcript")
	}
	if !strings.Contains(m.View(), "speech recognition unavailable") {
		t.Fatal("expected unavailable notice for noop capture")
	}
}

func TestRenderBadgeAndErrors(t *testing.T) {
	s := session.State{
		Phase:    session.FeedbackShown,
		Question: questions.Question{ID: 2, Text: "What is the difference between TCP and UDP?"},
		Feedback: &grading.Feedback{Feedback: "x", Rating: 70, BetterAnswer: "y"},
	}
	out := Render(s, ViewOptions{SpeechAvailable: true, Remaining: 2500 * time.Millisecond, Err: errors.New("boom")})
	for _, want := range []string{"Score: 70/100", "Next question in 3s...", "error: boom", "TCP and UDP"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}

	s.Feedback = nil
	s.Phase = session.Grading
	s.Grading = true
	s.Transcript = "answer"
	if out := Render(s, ViewOptions{}); !strings.Contains(out, "Analyzing...") {
		t.Fatalf("expected analyzing label, got:\n%s", out)
	}
}
