package narrative

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-insights/internal/errors"
	"sales-insights/internal/models"
)

const maxConcurrentCalls = 4

// Narrative is the outcome for one category. Err is set instead of Text when
// the category could not be produced.
type Narrative struct {
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Text     string   `json:"text,omitempty"`
	Err      error    `json:"-"`
}

type Narrator struct {
	gen     Generator
	timeout time.Duration
	logger  *slog.Logger
}

func NewNarrator(gen Generator, timeout time.Duration, logger *slog.Logger) *Narrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Narrator{gen: gen, timeout: timeout, logger: logger}
}

// Generate builds the category prompt from t and performs one call. Every
// failure is reported as NARRATIVE_UNAVAILABLE.
func (n *Narrator) Generate(ctx context.Context, c Category, t *models.Table) (string, error) {
	prompt, err := BuildPrompt(c, t)
	if err != nil {
		return "", errors.BadRequestWrap(err, "unknown narrative category")
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := n.gen.Generate(ctx, prompt)
	if err != nil {
		n.logger.Warn("narrative generation failed",
			"category", c,
			"duration", time.Since(start),
			"error", err,
		)
		if errors.HasCode(err, errors.CodeNarrativeUnavailable) {
			return "", err
		}
		return "", errors.NarrativeUnavailable(err, "narrative generation failed")
	}

	n.logger.Debug("narrative generated", "category", c, "duration", time.Since(start), "chars", len(text))
	return text, nil
}

// GenerateAll produces every requested category concurrently. A failing
// category does not affect the others; results keep the requested order.
func (n *Narrator) GenerateAll(ctx context.Context, t *models.Table, cats ...Category) []Narrative {
	if len(cats) == 0 {
		cats = Categories
	}

	results := make([]Narrative, len(cats))

	var g errgroup.Group
	g.SetLimit(maxConcurrentCalls)
	for i, c := range cats {
		g.Go(func() error {
			text, err := n.Generate(ctx, c, t)
			results[i] = Narrative{Category: c, Title: c.Title(), Text: text, Err: err}
			return nil
		})
	}
	g.Wait()

	return results
}
