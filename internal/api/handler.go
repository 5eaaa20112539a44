package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/loqalabs/loqa-interview/internal/grading"
	"github.com/loqalabs/loqa-interview/internal/questions"
)

const maxBodyBytes = 64 << 10

// Grader is satisfied by *grading.Relay.
type Grader interface {
	Grade(ctx context.Context, question, answer string) grading.Result
}

type Picker interface {
	Next() questions.Question
}

// InterviewRequest is the body of POST /api/interview.
type InterviewRequest struct {
	Message  string `json:"message" validate:"required,notblank"`
	Question string `json:"question" validate:"required,notblank"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the interview API.
type Handler struct {
	grader   Grader
	picker   Picker
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(grader Grader, picker Picker, logger *slog.Logger) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return &Handler{
		grader:   grader,
		picker:   picker,
		validate: v,
		logger:   logger.With(slog.String("component", "api")),
	}
}

// Routes returns the /api subtree.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/interview", h.Interview)
	r.Route("/questions", func(r chi.Router) {
		r.Get("/", h.ListQuestions)
		r.Get("/random", h.RandomQuestion)
		r.Get("/{questionID}", h.GetQuestion)
	})
	return r
}

// Interview grades one answer. Missing fields yield 400; a failed grading
// yields 500 carrying the fallback verdict.
func (h *Handler) Interview(w http.ResponseWriter, r *http.Request) {
	var req InterviewRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Info("rejecting interview request", slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing data"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				h.logger.Debug("invalid field", slog.String("field", fe.Field()), slog.String("tag", fe.Tag()))
			}
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing data"})
		return
	}

	res := h.grader.Grade(r.Context(), req.Question, req.Message)
	if res.Status == grading.StatusInvalid {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing data"})
		return
	}
	writeJSON(w, res.Status.HTTPStatus(), res.Feedback)
}

func (h *Handler) ListQuestions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, questions.All())
}

func (h *Handler) RandomQuestion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.picker.Next())
}

func (h *Handler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "questionID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid question id"})
		return
	}
	q, ok := questions.ByID(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "question not found"})
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
