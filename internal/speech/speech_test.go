package speech

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/loqalabs/loqa-interview/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func alt(text string) Result {
	return Result{Alternatives: []Alternative{{Transcript: text}}}
}

func TestHypothesisFromResultIndex(t *testing.T) {
	evt := Event{ResultIndex: 1, Results: []Result{alt("ignored "), alt("hello "), alt("world")}}
	if got := Hypothesis(evt); got != "hello world" {
		t.Fatalf("got %q", got)
	}
	evt = Event{ResultIndex: 0, Results: []Result{
		{Alternatives: []Alternative{{Transcript: "best"}, {Transcript: "worse"}}},
		{},
	}}
	if got := Hypothesis(evt); got != "best" {
		t.Fatalf("expected first alternative only, got %q", got)
	}
	if got := Hypothesis(Event{ResultIndex: 3, Results: []Result{alt("x")}}); got != "" {
		t.Fatalf("expected empty hypothesis, got %q", got)
	}
}

func TestNewSelectsVariant(t *testing.T) {
	cases := []struct {
		name      string
		cfg       config.SpeechConfig
		available bool
	}{
		{"none", config.SpeechConfig{Mode: "none", Command: "sh"}, false},
		{"auto without command", config.SpeechConfig{Mode: "auto"}, false},
		{"auto with missing binary", config.SpeechConfig{Mode: "auto", Command: "definitely-not-a-recognizer-binary"}, false},
		{"auto with binary", config.SpeechConfig{Mode: "auto", Command: "sh -c true"}, true},
		{"exec", config.SpeechConfig{Mode: "exec", Command: "sh -c true"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(tc.cfg, newLogger())
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			if c.Available() != tc.available {
				t.Fatalf("available = %v, want %v", c.Available(), tc.available)
			}
		})
	}

	if _, err := New(config.SpeechConfig{Mode: "exec"}, newLogger()); err == nil {
		t.Fatal("expected error for exec mode without command")
	}
	if _, err := New(config.SpeechConfig{Mode: "loud"}, newLogger()); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestNoopCapture(t *testing.T) {
	c := NewNoop()
	called := false
	c.OnResult(func(string) { called = true })
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.Stop(); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("noop capture must not emit results")
	}
}

type recorder struct {
	mu    sync.Mutex
	texts []string
	seen  chan struct{}
}

func (r *recorder) handle(text string) {
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
	select {
	case r.seen <- struct{}{}:
	default:
	}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func TestExecCaptureStreamsHypotheses(t *testing.T) {
	dir := t.TempDir()
	events := filepath.Join(dir, "events.ndjson")
	data := `{"result_index":0,"results":[{"alternatives":[{"transcript":"hello"}]}]}
not json
{"result_index":0,"results":[{"alternatives":[{"transcript":"hello "}],"final":true},{"alternatives":[{"transcript":"world"}]}]}
`
	if err := os.WriteFile(events, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.SpeechConfig{Mode: "exec", Command: "sh -c \"cat " + events + "; exec sleep 30\"", Language: "en-US", Interim: true}
	c, err := NewExecCapture(cfg, newLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rec := &recorder{seen: make(chan struct{}, 8)}
	c.OnResult(rec.handle)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.After(5 * time.Second)
	for len(rec.snapshot()) < 2 {
		select {
		case <-rec.seen:
		case <-deadline:
			t.Fatalf("timed out waiting for hypotheses, got %v", rec.snapshot())
		}
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	got := rec.snapshot()
	if len(got) != 2 || got[0] != "hello" || got[1] != "hello world" {
		t.Fatalf("unexpected hypotheses %v", got)
	}

	time.Sleep(50 * time.Millisecond)
	if len(rec.snapshot()) != 2 {
		t.Fatal("no results expected after stop")
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestExecCaptureRestart(t *testing.T) {
	events := filepath.Join(t.TempDir(), "events.ndjson")
	if err := os.WriteFile(events, []byte(`{"result_index":0,"results":[{"alternatives":[{"transcript":"again"}]}]}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.SpeechConfig{Mode: "exec", Command: "sh -c \"cat " + events + "; exec sleep 30\""}
	c, err := NewExecCapture(cfg, newLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rec := &recorder{seen: make(chan struct{}, 8)}
	c.OnResult(rec.handle)

	for i := 0; i < 2; i++ {
		if err := c.Start(context.Background()); err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		select {
		case <-rec.seen:
		case <-time.After(5 * time.Second):
			t.Fatalf("run %d produced no result", i)
		}
		if err := c.Stop(); err != nil {
			t.Fatalf("stop %d: %v", i, err)
		}
	}
	if got := rec.snapshot(); len(got) != 2 || got[1] != "again" {
		t.Fatalf("unexpected results %v", got)
	}
}
