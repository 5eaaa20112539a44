package session

import (
	"github.com/loqalabs/loqa-interview/internal/grading"
	"github.com/loqalabs/loqa-interview/internal/questions"
)

// Phase is the position of a session in the interview cycle.
type Phase int

const (
	QuestionSelected Phase = iota
	Recording
	TranscriptReady
	Grading
	FeedbackShown
)

func (p Phase) String() string {
	switch p {
	case QuestionSelected:
		return "question_selected"
	case Recording:
		return "recording"
	case TranscriptReady:
		return "transcript_ready"
	case Grading:
		return "grading"
	case FeedbackShown:
		return "feedback_shown"
	default:
		return "unknown"
	}
}

// State is the complete view model of one interview session.
//
// Grading stays true while any grading call is outstanding, including one
// whose question has since been shuffled away. Cycle increments on every new
// question and tags in-flight grading calls.
type State struct {
	Phase      Phase
	Question   questions.Question
	Transcript string
	Recording  bool
	Grading    bool
	Feedback   *grading.Feedback
	Cycle      uint64
}

// Event is an input to Reduce.
type Event interface {
	event()
}

type (
	Shuffled          struct{ Question questions.Question }
	RecordingStarted  struct{}
	RecordingStopped  struct{}
	TranscriptUpdated struct{ Text string }
	GradingStarted    struct{}
	FeedbackReceived  struct {
		Cycle    uint64
		Feedback grading.Feedback
	}
	// GradingFailed reports a transport failure; no feedback is shown.
	GradingFailed struct{ Cycle uint64 }
)

func (Shuffled) event()          {}
func (RecordingStarted) event()  {}
func (RecordingStopped) event()  {}
func (TranscriptUpdated) event() {}
func (GradingStarted) event()    {}
func (FeedbackReceived) event()  {}
func (GradingFailed) event()     {}

// CanSubmit reports whether the transcript may be sent for grading.
func CanSubmit(s State) bool {
	return !s.Recording && s.Transcript != "" && !s.Grading
}

// CanRecord reports whether a recording may start.
func CanRecord(s State) bool {
	return !s.Recording && s.Phase != Grading
}

// Reduce applies evt to s. Events that are not valid in the current phase
// leave the state unchanged.
func Reduce(s State, evt Event) State {
	switch e := evt.(type) {
	case Shuffled:
		s.Phase = QuestionSelected
		s.Question = e.Question
		s.Transcript = ""
		s.Feedback = nil
		s.Recording = false
		s.Cycle++
	case RecordingStarted:
		if !CanRecord(s) {
			return s
		}
		s.Phase = Recording
		s.Recording = true
		s.Transcript = ""
		s.Feedback = nil
	case RecordingStopped:
		if !s.Recording {
			return s
		}
		s.Phase = TranscriptReady
		s.Recording = false
	case TranscriptUpdated:
		if s.Phase != Recording {
			return s
		}
		s.Transcript = e.Text
	case GradingStarted:
		if !CanSubmit(s) {
			return s
		}
		s.Phase = Grading
		s.Grading = true
	case FeedbackReceived:
		if !s.Grading {
			return s
		}
		s.Grading = false
		if e.Cycle != s.Cycle {
			return s
		}
		fb := e.Feedback
		s.Phase = FeedbackShown
		s.Feedback = &fb
	case GradingFailed:
		if !s.Grading {
			return s
		}
		s.Grading = false
		if e.Cycle == s.Cycle && s.Phase == Grading {
			s.Phase = TranscriptReady
		}
	}
	return s
}
