package speech

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/loqalabs/loqa-interview/internal/config"
)

type execCapture struct {
	cmd    []string
	cfg    config.SpeechConfig
	logger *slog.Logger

	mu         sync.Mutex
	handler    func(string)
	generation uint64
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewExecCapture runs an external recognizer that prints one JSON Event per
// line on stdout.
func NewExecCapture(cfg config.SpeechConfig, logger *slog.Logger) (Capture, error) {
	args, err := parseCommand(cfg.Command)
	if err != nil {
		return nil, err
	}
	return &execCapture{cmd: args, cfg: cfg, logger: logger}, nil
}

func (c *execCapture) Available() bool { return true }

func (c *execCapture) OnResult(handler func(string)) {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()
}

func (c *execCapture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}

	args := append([]string{}, c.cmd[1:]...)
	if c.cfg.Language != "" {
		args = append(args, "--language", c.cfg.Language)
	}
	args = append(args, "--continuous")
	if c.cfg.Interim {
		args = append(args, "--interim")
	}

	runCtx, cancel := context.WithCancel(ctx)
	command := exec.CommandContext(runCtx, c.cmd[0], args...)
	stdout, err := command.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("speech stdout: %w", err)
	}
	if err := command.Start(); err != nil {
		cancel()
		return fmt.Errorf("start speech command: %w", err)
	}

	c.generation++
	c.running = true
	c.cancel = cancel
	c.done = make(chan struct{})
	gen := c.generation
	done := c.done

	go func() {
		defer close(done)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var evt Event
			if err := json.Unmarshal(line, &evt); err != nil {
				c.logger.Warn("failed to decode recognition event", slog.String("error", err.Error()))
				continue
			}
			c.deliver(gen, Hypothesis(evt))
		}
		err := command.Wait()
		c.mu.Lock()
		stale := c.generation != gen
		if !stale {
			c.running = false
			c.cancel = nil
		}
		c.mu.Unlock()
		if err != nil && !stale {
			c.logger.Warn("speech command exited", slog.String("error", err.Error()))
		}
		cancel()
	}()

	c.logger.Info("speech capture started", slog.String("language", c.cfg.Language))
	return nil
}

func (c *execCapture) deliver(gen uint64, text string) {
	c.mu.Lock()
	handler := c.handler
	current := c.generation == gen && c.running
	c.mu.Unlock()
	if !current || handler == nil {
		return
	}
	handler(text)
}

// Stop terminates the recognizer. Events still buffered from the stopped
// process are dropped.
func (c *execCapture) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.generation++
	c.running = false
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.mu.Unlock()

	cancel()
	<-done
	c.logger.Info("speech capture stopped")
	return nil
}
