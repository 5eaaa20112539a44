package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/loqalabs/loqa-interview/internal/config"
	"github.com/loqalabs/loqa-interview/internal/grading"
	"github.com/loqalabs/loqa-interview/internal/questions"
)

// ErrRejected is returned when the server refuses the request as incomplete.
var ErrRejected = errors.New("server rejected answer: missing data")

// Client talks to the interview HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(cfg config.ClientConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.ServerURL, "/"),
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
	}
}

type interviewRequest struct {
	Message  string `json:"message"`
	Question string `json:"question"`
}

// Grade posts an answer. The fallback verdict served with a 500 is returned as
// feedback so that callers always have something to show.
func (c *Client) Grade(ctx context.Context, question, answer string) (grading.Feedback, error) {
	body, err := json.Marshal(interviewRequest{Message: answer, Question: question})
	if err != nil {
		return grading.Feedback{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/interview", bytes.NewReader(body))
	if err != nil {
		return grading.Feedback{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return grading.Feedback{}, fmt.Errorf("post interview: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusInternalServerError:
		var fb grading.Feedback
		if err := json.NewDecoder(resp.Body).Decode(&fb); err != nil {
			return grading.Feedback{}, fmt.Errorf("decode feedback: %w", err)
		}
		return fb, nil
	case http.StatusBadRequest:
		return grading.Feedback{}, ErrRejected
	default:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return grading.Feedback{}, fmt.Errorf("interview api status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
}

// Questions fetches the question bank served by the API.
func (c *Client) Questions(ctx context.Context) ([]questions.Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/questions", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("questions api status %d", resp.StatusCode)
	}
	var out []questions.Question
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return out, nil
}
