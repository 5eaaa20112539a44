package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/loqalabs/loqa-interview/internal/config"
)

// Capture abstracts a speech recognition session. Handlers registered with
// OnResult receive the full current hypothesis, which replaces any earlier one.
type Capture interface {
	Start(ctx context.Context) error
	Stop() error
	OnResult(handler func(text string))
	// Available reports whether the capture can produce transcripts at all.
	Available() bool
}

// Alternative is one candidate transcription of a recognition result.
type Alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Result holds the alternatives for one recognized segment.
type Result struct {
	Alternatives []Alternative `json:"alternatives"`
	Final        bool          `json:"final,omitempty"`
}

// Event is a recognition event as emitted by the recognizer process.
type Event struct {
	ResultIndex int      `json:"result_index"`
	Results     []Result `json:"results"`
}

// Hypothesis concatenates the top alternative of every result from
// ResultIndex onward.
func Hypothesis(evt Event) string {
	if evt.ResultIndex < 0 || evt.ResultIndex >= len(evt.Results) {
		return ""
	}
	var b strings.Builder
	for _, res := range evt.Results[evt.ResultIndex:] {
		if len(res.Alternatives) == 0 {
			continue
		}
		b.WriteString(res.Alternatives[0].Transcript)
	}
	return b.String()
}

// New selects the capture variant once for the lifetime of a session.
func New(cfg config.SpeechConfig, logger *slog.Logger) (Capture, error) {
	logger = logger.With(slog.String("component", "speech"))
	switch cfg.Mode {
	case "none":
		return NewNoop(), nil
	case "exec":
		return NewExecCapture(cfg, logger)
	case "", "auto":
		args, err := parseCommand(cfg.Command)
		if err != nil {
			logger.Info("speech recognition unavailable", slog.String("reason", err.Error()))
			return NewNoop(), nil
		}
		if _, err := exec.LookPath(args[0]); err != nil {
			logger.Info("speech recognition unavailable", slog.String("command", args[0]))
			return NewNoop(), nil
		}
		return NewExecCapture(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported speech mode %q", cfg.Mode)
	}
}

func parseCommand(command string) ([]string, error) {
	args, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse speech command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("speech command is empty")
	}
	return args, nil
}
