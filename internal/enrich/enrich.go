// Package enrich implements the LLM enricher: four independent per-field completion
// calls per chunk, run across chunks with bounded concurrency via errgroup, the same
// worker-pool idiom this codebase uses elsewhere for parallel extraction.
package enrich

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chaptered/core/internal/clients/openai"
	"github.com/chaptered/core/internal/domain"
	"github.com/chaptered/core/internal/pkg/httpx"
	"github.com/chaptered/core/internal/pkg/logger"
	"github.com/chaptered/core/internal/platform/envutil"
)

// Config holds the enricher's per-call tunables.
type Config struct {
	Temperature    float64
	MaxTokensTitle int
	MaxTokensOther int
	MaxWorkers     int
}

// DefaultConfig returns the per-call defaults (temperature 0.5, 50 title tokens,
// 200 otherwise), with the worker-pool size taken from OPENAI_MAX_WORKERS (default 5).
func DefaultConfig() Config {
	return Config{
		Temperature:    0.5,
		MaxTokensTitle: 50,
		MaxTokensOther: 200,
		MaxWorkers:     envutil.Int("OPENAI_MAX_WORKERS", 5),
	}
}

// Prompts maps each of the four field names to its template for one content kind.
// Exactly one "{text}" substitution site per template.
type Prompts map[domain.PromptField]string

// PromptsFromRows builds a Prompts map from a set of PromptSet rows already filtered to
// one content_kind.
func PromptsFromRows(rows []domain.PromptSet) Prompts {
	p := make(Prompts, len(rows))
	for _, r := range rows {
		p[r.FieldName] = r.Template
	}
	return p
}

// PromptsForKind filters a mixed slice of PromptSet rows (e.g. domain.SeedPromptSets())
// down to one content_kind and builds its Prompts map.
func PromptsForKind(rows []domain.PromptSet, kind domain.ResourceKind) Prompts {
	filtered := make([]domain.PromptSet, 0, 4)
	for _, r := range rows {
		if r.ContentKind == kind {
			filtered = append(filtered, r)
		}
	}
	return PromptsFromRows(filtered)
}

// ChunkInput is the minimal shape EnrichAll needs per chunk.
type ChunkInput struct {
	ChunkID int
	Text    string
}

// Result carries the four enriched fields for one chunk. A field left empty means that
// field's independent call failed after retries (non-fatal, isolated per field).
type Result struct {
	ChunkID    int
	ShortTitle string
	AIField1   string
	AIField2   string
	AIField3   string
}

// Enricher produces the four AI fields for chunks.
type Enricher interface {
	Enrich(ctx context.Context, chunkText string, prompts Prompts, cfg Config) Result
	EnrichAll(ctx context.Context, chunks []ChunkInput, prompts Prompts, cfg Config) ([]Result, error)
}

type enricher struct {
	log    *logger.Logger
	client openai.Client
}

// NewEnricher constructs the enricher over the shared OpenAI client.
func NewEnricher(log *logger.Logger, client openai.Client) Enricher {
	return &enricher{log: log.With("service", "Enricher"), client: client}
}

// Enrich runs the four independent per-field calls for one chunk's text. Each call is
// an independent failure domain: one field's exhausted retries never affect the others.
func (e *enricher) Enrich(ctx context.Context, chunkText string, prompts Prompts, cfg Config) Result {
	var result Result
	var wg sync.WaitGroup

	run := func(field domain.PromptField, dst *string) {
		template, ok := prompts[field]
		if !ok || strings.TrimSpace(template) == "" {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			*dst = e.callField(ctx, field, template, chunkText, cfg)
		}()
	}

	run(domain.PromptFieldShortTitle, &result.ShortTitle)
	run(domain.PromptFieldAIField1, &result.AIField1)
	run(domain.PromptFieldAIField2, &result.AIField2)
	run(domain.PromptFieldAIField3, &result.AIField3)

	wg.Wait()
	return result
}

// callField issues one field's completion call, retrying up to 3 attempts with jittered
// exponential backoff (base 1s, cap 10s) on transient upstream failures. On final
// failure it logs and returns "" rather than propagating an error.
func (e *enricher) callField(ctx context.Context, field domain.PromptField, template, chunkText string, cfg Config) string {
	prompt := strings.Replace(template, "{text}", chunkText, 1)
	maxTokens := cfg.MaxTokensOther
	if field == domain.PromptFieldShortTitle {
		maxTokens = cfg.MaxTokensTitle
	}

	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ""
		}
		text, err := e.client.GenerateCompletion(ctx, openai.CompletionRequest{
			System:      "You are an assistant that enriches content for a knowledge-management tool. Respond with only the requested content, no preamble.",
			User:        prompt,
			Temperature: cfg.Temperature,
			MaxTokens:   maxTokens,
		})
		if err == nil {
			return strings.TrimSpace(text)
		}
		lastErr = err
		if !httpx.IsRetryableError(err) {
			break
		}
		if attempt == maxAttempts-1 {
			break
		}
		time.Sleep(httpx.JitterSleep(capDuration(backoff, 10*time.Second)))
		backoff *= 2
	}
	e.log.Warn("enrichment field failed after retries", "field", string(field), "error", lastErr.Error())
	return ""
}

func capDuration(d, max time.Duration) time.Duration {
	if d > max {
		return max
	}
	return d
}

// EnrichAll enriches every chunk with bounded concurrency (cfg.MaxWorkers), preserving
// chunk_id ordering in the returned sequence regardless of completion order.
func (e *enricher) EnrichAll(ctx context.Context, chunks []ChunkInput, prompts Prompts, cfg Config) ([]Result, error) {
	results := make([]Result, len(chunks))

	g, gCtx := errgroup.WithContext(ctx)
	if cfg.MaxWorkers > 0 {
		g.SetLimit(cfg.MaxWorkers)
	}

	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			results[i] = e.Enrich(gCtx, c.Text, prompts, cfg)
			results[i].ChunkID = c.ChunkID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
