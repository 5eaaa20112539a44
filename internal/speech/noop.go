package speech

import "context"

type noopCapture struct{}

// NewNoop returns a capture that never produces results. It stands in when the
// host has no recognizer.
func NewNoop() Capture {
	return noopCapture{}
}

func (noopCapture) Start(context.Context) error { return nil }
func (noopCapture) Stop() error                 { return nil }
func (noopCapture) OnResult(func(string))       {}
func (noopCapture) Available() bool             { return false }
