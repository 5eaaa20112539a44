package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/loqalabs/loqa-interview/internal/config"
	"github.com/loqalabs/loqa-interview/internal/grading"
	"github.com/loqalabs/loqa-interview/internal/questions"
)

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := config.Default().Client
	cfg.ServerURL = srv.URL + "/"
	return New(cfg)
}

func TestGradeSuccess(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/interview" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["message"] != "my answer" || body["question"] != "the question" {
			t.Errorf("unexpected body %v", body)
		}
		_ = json.NewEncoder(w).Encode(grading.Feedback{Feedback: "fine", Rating: 71, BetterAnswer: "best"})
	})
	fb, err := c.Grade(context.Background(), "the question", "my answer")
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if fb.Rating != 71 || fb.Feedback != "fine" {
		t.Fatalf("unexpected feedback %+v", fb)
	}
}

func TestGradeFallbackIsFeedback(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(grading.Fallback())
	})
	fb, err := c.Grade(context.Background(), "q", "a")
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if fb != grading.Fallback() {
		t.Fatalf("expected fallback, got %+v", fb)
	}
}

func TestGradeErrors(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Missing data"}`))
	})
	if _, err := c.Grade(context.Background(), "q", ""); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}

	c = newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	if _, err := c.Grade(context.Background(), "q", "a"); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestQuestions(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/questions" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(questions.All())
	})
	list, err := c.Questions(context.Background())
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(list) != questions.Len() {
		t.Fatalf("expected %d questions, got %d", questions.Len(), len(list))
	}
}
