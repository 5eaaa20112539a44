package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/loqalabs/loqa-interview/internal/bus"
	"github.com/loqalabs/loqa-interview/internal/protocol"
)

// Grader is satisfied by *Relay.
type Grader interface {
	Grade(ctx context.Context, question, answer string) Result
}

// Service answers grading requests arriving on the message bus.
type Service struct {
	bus     *bus.Client
	grader  Grader
	sub     *nats.Subscription
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *slog.Logger
}

func NewService(parent context.Context, busClient *bus.Client, grader Grader, timeout time.Duration, logger *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		bus:     busClient,
		grader:  grader,
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "grading-service")),
	}
}

func (s *Service) Start() error {
	sub, err := s.bus.Conn().QueueSubscribe(protocol.SubjectGradeRequest, protocol.QueueGraders, s.handleRequest)
	if err != nil {
		return fmt.Errorf("subscribe grading requests: %w", err)
	}
	s.sub = sub
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool {
	return s.sub != nil && s.bus.Healthy()
}

func (s *Service) handleRequest(msg *nats.Msg) {
	var req protocol.GradeRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode grade request", slogError(err))
		s.respond(msg, protocol.GradeReply{
			RequestID: req.RequestID,
			Status:    StatusInvalid.String(),
			Error:     "invalid JSON",
			Timestamp: time.Now().UTC(),
		})
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx := s.ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(s.ctx, s.timeout)
			defer cancel()
		}

		start := time.Now()
		res := s.grader.Grade(ctx, req.Question, req.Message)
		reply := replyFromResult(req.RequestID, res)
		reply.LatencyMS = time.Since(start).Milliseconds()
		s.respond(msg, reply)
		s.publishEvent(reply)
	}()
}

func replyFromResult(requestID string, res Result) protocol.GradeReply {
	if requestID == "" {
		requestID = res.RequestID
	}
	reply := protocol.GradeReply{
		RequestID: requestID,
		Status:    res.Status.String(),
		Timestamp: time.Now().UTC(),
	}
	if res.Status == StatusInvalid {
		reply.Error = "Missing data"
		return reply
	}
	reply.Feedback = res.Feedback.Feedback
	reply.Rating = res.Feedback.Rating
	reply.BetterAnswer = res.Feedback.BetterAnswer
	return reply
}

func (s *Service) respond(msg *nats.Msg, reply protocol.GradeReply) {
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Warn("failed to marshal grade reply", slogError(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Warn("failed to respond to grade request", slogError(err))
	}
}

func (s *Service) publishEvent(reply protocol.GradeReply) {
	evt := protocol.GradeEvent{
		RequestID: reply.RequestID,
		Status:    reply.Status,
		Rating:    reply.Rating,
		Timestamp: reply.Timestamp,
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := s.bus.Conn().Publish(protocol.SubjectGradeResult, data); err != nil {
		s.logger.Warn("failed to publish grade event", slogError(err))
	}
}
