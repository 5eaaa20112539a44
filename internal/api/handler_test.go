package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/loqalabs/loqa-interview/internal/config"
	"github.com/loqalabs/loqa-interview/internal/grading"
	"github.com/loqalabs/loqa-interview/internal/questions"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubGrader struct {
	mu       sync.Mutex
	result   grading.Result
	calls    int
	question string
	answer   string
}

func (s *stubGrader) Grade(_ context.Context, question, answer string) grading.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.question, s.answer = question, answer
	return s.result
}

func newServer(t *testing.T, grader Grader) *httptest.Server {
	t.Helper()
	cfg := config.Default().HTTP
	cfg.AllowedOrigins = []string{"http://localhost:5173"}
	r := NewRouter(cfg, newLogger())
	r.Mount("/api", NewHandler(grader, questions.NewSeededPicker(7), newLogger()).Routes())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/interview", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp, out
}

func TestInterviewSuccess(t *testing.T) {
	grader := &stubGrader{result: grading.Result{
		Status:   grading.StatusOK,
		Feedback: grading.Feedback{Feedback: "Explain ordering guarantees.", Rating: 62, BetterAnswer: "TCP is connection oriented..."},
	}}
	srv := newServer(t, grader)

	resp, out := post(t, srv, `{"message":"TCP is reliable","question":"What is the difference between TCP and UDP?"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if out["rating"].(float64) != 62 || out["feedback"] != "Explain ordering guarantees." || out["betterAnswer"] == "" {
		t.Fatalf("unexpected body %v", out)
	}
	if len(out) != 3 {
		t.Fatalf("expected exactly feedback/rating/betterAnswer, got %v", out)
	}
	if grader.question != "What is the difference between TCP and UDP?" || grader.answer != "TCP is reliable" {
		t.Fatalf("grader got %q / %q", grader.question, grader.answer)
	}
}

func TestInterviewMissingData(t *testing.T) {
	grader := &stubGrader{result: grading.Result{Status: grading.StatusOK}}
	srv := newServer(t, grader)

	bodies := []string{
		`{"message":"","question":"What is the difference between '==' and '===' in JavaScript?"}`,
		`{"question":"Explain closures."}`,
		`{"message":"an answer"}`,
		`{"message":"   ","question":"q"}`,
		`not json`,
		``,
	}
	for _, body := range bodies {
		resp, out := post(t, srv, body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", body, resp.StatusCode)
		}
		if out["error"] != "Missing data" {
			t.Fatalf("%q: unexpected body %v", body, out)
		}
	}
	if grader.calls != 0 {
		t.Fatalf("model must not be consulted, got %d calls", grader.calls)
	}
}

func TestInterviewFallback(t *testing.T) {
	grader := &stubGrader{result: grading.Result{Status: grading.StatusFailed, Feedback: grading.Fallback()}}
	srv := newServer(t, grader)

	resp, out := post(t, srv, `{"message":"something","question":"What is ACID property in Databases?"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if out["feedback"] != grading.Fallback().Feedback || out["rating"].(float64) != 0 || out["betterAnswer"] != "N/A" {
		t.Fatalf("unexpected fallback body %v", out)
	}
}

func TestQuestionEndpoints(t *testing.T) {
	srv := newServer(t, &stubGrader{})

	resp, err := http.Get(srv.URL + "/api/questions")
	if err != nil {
		t.Fatal(err)
	}
	var all []questions.Question
	if err := json.NewDecoder(resp.Body).Decode(&all); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(all) != questions.Len() {
		t.Fatalf("expected %d questions, got %d", questions.Len(), len(all))
	}

	resp, err = http.Get(srv.URL + "/api/questions/random")
	if err != nil {
		t.Fatal(err)
	}
	var q questions.Question
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if _, ok := questions.ByID(q.ID); !ok {
		t.Fatalf("random question %+v not in bank", q)
	}

	for path, want := range map[string]int{"/api/questions/3": 200, "/api/questions/42": 404, "/api/questions/abc": 400} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("%s: expected %d, got %d", path, want, resp.StatusCode)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newServer(t, &stubGrader{})
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/interview", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}
