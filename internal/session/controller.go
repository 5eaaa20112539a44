package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/loqalabs/loqa-interview/internal/grading"
	"github.com/loqalabs/loqa-interview/internal/questions"
	"github.com/loqalabs/loqa-interview/internal/speech"
)

var (
	ErrCannotSubmit = errors.New("nothing to submit")
	ErrCannotRecord = errors.New("recording not allowed while grading")
)

// Grader sends an answer for grading. An error means no feedback could be
// obtained at all; a fallback verdict is returned as feedback, not an error.
type Grader interface {
	Grade(ctx context.Context, question, answer string) (grading.Feedback, error)
}

type Picker interface {
	Next() questions.Question
}

// Controller owns a session State and drives it from user actions, capture
// results, grading replies and the auto-advance timer.
type Controller struct {
	grader      Grader
	picker      Picker
	capture     speech.Capture
	autoAdvance time.Duration
	logger      *slog.Logger

	mu          sync.Mutex
	state       State
	advance     *Task
	nextSub     int
	subscribers map[int]func(State)
}

func NewController(grader Grader, picker Picker, capture speech.Capture, autoAdvance time.Duration, logger *slog.Logger) *Controller {
	if capture == nil {
		capture = speech.NewNoop()
	}
	c := &Controller{
		grader:      grader,
		picker:      picker,
		capture:     capture,
		autoAdvance: autoAdvance,
		logger:      logger.With(slog.String("component", "session")),
		subscribers: make(map[int]func(State)),
	}
	capture.OnResult(func(text string) {
		c.dispatch(TranscriptUpdated{Text: text})
	})
	return c
}

// State returns a snapshot of the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SpeechAvailable reports whether recording can produce a transcript.
func (c *Controller) SpeechAvailable() bool {
	return c.capture.Available()
}

// Subscribe registers fn for every state change. Callbacks run outside the
// controller lock and may be invoked concurrently.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Shuffle moves to a new random question, stopping any recording.
func (c *Controller) Shuffle() {
	if c.State().Recording {
		if err := c.capture.Stop(); err != nil {
			c.logger.Warn("failed to stop capture", slog.String("error", err.Error()))
		}
	}
	c.mu.Lock()
	q := c.picker.Next()
	next, subs := c.applyLocked(Shuffled{Question: q})
	c.mu.Unlock()
	c.logger.Debug("question selected", slog.Int("question_id", q.ID), slog.Uint64("cycle", next.Cycle))
	notify(subs, next)
}

func (c *Controller) ToggleRecording(ctx context.Context) error {
	if c.State().Recording {
		return c.StopRecording()
	}
	return c.StartRecording(ctx)
}

func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	if !CanRecord(c.state) {
		recording := c.state.Recording
		c.mu.Unlock()
		if recording {
			return nil
		}
		return ErrCannotRecord
	}
	next, subs := c.applyLocked(RecordingStarted{})
	c.mu.Unlock()
	notify(subs, next)

	if err := c.capture.Start(ctx); err != nil {
		c.dispatch(RecordingStopped{})
		return fmt.Errorf("start capture: %w", err)
	}
	return nil
}

// StopRecording halts capture; the transcript keeps the last hypothesis.
func (c *Controller) StopRecording() error {
	if !c.State().Recording {
		return nil
	}
	err := c.capture.Stop()
	c.dispatch(RecordingStopped{})
	if err != nil {
		return fmt.Errorf("stop capture: %w", err)
	}
	return nil
}

// Submit grades the current transcript and blocks until the reply arrives.
// A reply for a question that has since been replaced is discarded.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if !CanSubmit(c.state) {
		c.mu.Unlock()
		return ErrCannotSubmit
	}
	question, answer, cycle := c.state.Question.Text, c.state.Transcript, c.state.Cycle
	next, subs := c.applyLocked(GradingStarted{})
	c.mu.Unlock()
	notify(subs, next)

	feedback, err := c.grader.Grade(ctx, question, answer)
	if err != nil {
		c.logger.Warn("grading request failed", slog.String("error", err.Error()))
		c.dispatch(GradingFailed{Cycle: cycle})
		return fmt.Errorf("grade answer: %w", err)
	}
	if c.State().Cycle != cycle {
		c.logger.Info("discarding stale feedback", slog.Uint64("cycle", cycle))
	}
	c.dispatch(FeedbackReceived{Cycle: cycle, Feedback: feedback})
	return nil
}

// Close cancels the pending auto-advance and stops capture.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.advance.Cancel()
	c.advance = nil
	c.mu.Unlock()
	return c.capture.Stop()
}

func (c *Controller) dispatch(evt Event) {
	c.mu.Lock()
	next, subs := c.applyLocked(evt)
	c.mu.Unlock()
	notify(subs, next)
}

// applyLocked must be called with c.mu held.
func (c *Controller) applyLocked(evt Event) (State, []func(State)) {
	prev := c.state
	next := Reduce(prev, evt)
	c.state = next

	leaving := prev.Phase == FeedbackShown && (next.Phase != FeedbackShown || next.Cycle != prev.Cycle)
	if leaving {
		c.advance.Cancel()
		c.advance = nil
	}
	if next.Phase == FeedbackShown && prev.Phase != FeedbackShown {
		cycle := next.Cycle
		c.advance = Schedule(c.autoAdvance, func() { c.autoShuffle(cycle) })
	}

	subs := make([]func(State), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	return next, subs
}

func (c *Controller) autoShuffle(cycle uint64) {
	c.mu.Lock()
	if c.state.Phase != FeedbackShown || c.state.Cycle != cycle {
		c.mu.Unlock()
		return
	}
	next, subs := c.applyLocked(Shuffled{Question: c.picker.Next()})
	c.mu.Unlock()
	c.logger.Debug("auto-advanced to next question", slog.Uint64("cycle", next.Cycle))
	notify(subs, next)
}

func notify(subs []func(State), s State) {
	for _, fn := range subs {
		fn(s)
	}
}
