// Package analysis turns a complaint photo into a suggested category,
// description and severity using a generative model.
// It includes the parser for the model's labelled text response.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"reportit/backend/internal/config"
)

const (
	prefixCategory    = "CATEGORY:"
	prefixDescription = "DESCRIPTION:"
	prefixSeverity    = "SEVERITY:"
)

var (
	// ErrNoResponse means the model answered without any text.
	ErrNoResponse = errors.New("no response from model")
	// ErrAnalysisFailed wraps transport and API failures.
	ErrAnalysisFailed = errors.New("image analysis failed")
	// ErrEmptyImage is returned before calling the model.
	ErrEmptyImage = errors.New("image is empty")
	// ErrModelUnavailable is returned by Unavailable.
	ErrModelUnavailable = errors.New("no analysis model configured")
)

// Prompt is sent along with every image.
var Prompt = strings.Join([]string{
	"You are analyzing a civic complaint photo from India.",
	"Look at this image and respond ONLY in this exact format with no extra text:",
	"CATEGORY: [one of: " + strings.Join(config.Categories, ", ") + "]",
	"DESCRIPTION: [one sentence describing the issue]",
	"SEVERITY: [" + strings.Join(config.Severities[:len(config.Severities)-1], ", ") +
		", or " + config.Severities[len(config.Severities)-1] + "]",
}, "\n")

// Result is the structured form of a model response.
type Result struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// ParseResponse extracts the labelled fields from free text. Missing labels
// keep their defaults. The category is not checked against config.Categories.
func ParseResponse(text string) Result {
	res := Result{
		Category: config.DefaultCategory,
		Severity: config.DefaultSeverity,
	}
	for _, line := range strings.Split(newlines.Replace(strings.TrimSpace(text)), "\n") {
		switch {
		case strings.HasPrefix(line, prefixCategory):
			res.Category = strings.TrimSpace(strings.TrimPrefix(line, prefixCategory))
		case strings.HasPrefix(line, prefixDescription):
			res.Description = strings.TrimSpace(strings.TrimPrefix(line, prefixDescription))
		case strings.HasPrefix(line, prefixSeverity):
			res.Severity = strings.TrimSpace(strings.TrimPrefix(line, prefixSeverity))
		}
	}
	return res
}

// Model is a generative endpoint that answers a prompt about an image.
type Model interface {
	Generate(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}

// Unavailable stands in for a Model when none is configured.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, []byte, string, string) (string, error) {
	return "", ErrModelUnavailable
}

// Observer is notified of every analysis outcome.
type Observer func(ok bool)

// Analyzer runs the prompt against a Model and parses the answer.
type Analyzer struct {
	model    Model
	logger   *slog.Logger
	observer Observer
}

// NewAnalyzer creates an Analyzer. logger and observer may be nil.
func NewAnalyzer(model Model, logger *slog.Logger, observer Observer) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		model:    model,
		logger:   logger.With("component", "analysis"),
		observer: observer,
	}
}

// AnalyzeImage asks the model about image. On any failure the parser is not
// invoked and the error wraps ErrAnalysisFailed or is ErrNoResponse.
func (a *Analyzer) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (Result, error) {
	if len(image) == 0 {
		return Result{}, ErrEmptyImage
	}
	text, err := a.model.Generate(ctx, image, mimeType, Prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrNoResponse
	}
	if err != nil {
		a.notify(false)
		if errors.Is(err, ErrNoResponse) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	a.notify(true)
	res := ParseResponse(text)
	if !config.IsCategory(res.Category) {
		a.logger.Debug("model returned category outside the fixed list", "category", res.Category)
	}
	return res, nil
}

func (a *Analyzer) notify(ok bool) {
	if a.observer != nil {
		a.observer(ok)
	}
}
