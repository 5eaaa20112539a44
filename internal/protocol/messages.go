package protocol

import "time"

// GradeRequest asks the grading service to evaluate one answer. Field names
// mirror the HTTP body of POST /api/interview.
type GradeRequest struct {
	RequestID string    `json:"request_id,omitempty"`
	Question  string    `json:"question"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// GradeReply is published in response to a GradeRequest.
type GradeReply struct {
	RequestID    string    `json:"request_id"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	Feedback     string    `json:"feedback,omitempty"`
	Rating       int       `json:"rating"`
	BetterAnswer string    `json:"betterAnswer,omitempty"`
	LatencyMS    int64     `json:"latency_ms"`
	Timestamp    time.Time `json:"timestamp"`
}

// GradeEvent is broadcast after every graded answer for observers.
type GradeEvent struct {
	RequestID string    `json:"request_id"`
	Status    string    `json:"status"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectGradeRequest = "interview.grade.request"
	SubjectGradeResult  = "interview.grade.result"
	QueueGraders        = "interview-graders"
)
