package grading

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Feedback is the normalized grading verdict returned to callers.
type Feedback struct {
	Feedback     string `json:"feedback"`
	Rating       int    `json:"rating"`
	BetterAnswer string `json:"betterAnswer"`
}

var (
	ErrMissingData     = errors.New("missing data")
	ErrEmptyCompletion = errors.New("empty response from model")
	ErrMalformedReply  = errors.New("model reply is not a JSON object")
)

// Fallback is returned whenever grading fails after validation.
func Fallback() Feedback {
	return Feedback{
		Feedback:     "System error: Could not analyze answer. Please check the backend logs.",
		Rating:       0,
		BetterAnswer: "N/A",
	}
}

type rawFeedback struct {
	Feedback     string `json:"feedback"`
	Rating       any    `json:"rating"`
	BetterAnswer string `json:"betterAnswer"`
}

// ParseFeedback decodes the model output. The content must be exactly one
// JSON object; ratings are rounded and clamped to [0, 100].
func ParseFeedback(content string) (Feedback, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return Feedback{}, ErrEmptyCompletion
	}
	if !strings.HasPrefix(trimmed, "{") {
		return Feedback{}, ErrMalformedReply
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	var raw rawFeedback
	if err := dec.Decode(&raw); err != nil {
		return Feedback{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if dec.More() {
		return Feedback{}, fmt.Errorf("%w: trailing data", ErrMalformedReply)
	}
	rating, err := normalizeRating(raw.Rating)
	if err != nil {
		return Feedback{}, err
	}
	return Feedback{
		Feedback:     raw.Feedback,
		Rating:       rating,
		BetterAnswer: raw.BetterAnswer,
	}, nil
}

func normalizeRating(v any) (int, error) {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0, nil
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: rating %q is not a number", ErrMalformedReply, val)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: rating has type %T", ErrMalformedReply, v)
	}
	if math.IsNaN(f) {
		return 0, nil
	}
	f = math.Round(f)
	switch {
	case f < 0:
		return 0, nil
	case f > 100:
		return 100, nil
	}
	return int(f), nil
}
