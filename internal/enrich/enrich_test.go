package enrich

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaptered/core/internal/clients/openai"
	"github.com/chaptered/core/internal/domain"
	"github.com/chaptered/core/internal/pkg/logger"
)

type fakeClient struct {
	calls int32
}

func (f *fakeClient) GenerateCompletion(ctx context.Context, req openai.CompletionRequest) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return fmt.Sprintf("generated:%s", req.User), nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	require.NoError(t, err)
	return log
}

func TestEnrichAllPreservesChunkOrder(t *testing.T) {
	client := &fakeClient{}
	e := NewEnricher(testLogger(t), client)
	prompts := PromptsForKind(domain.SeedPromptSets(), domain.ResourceKindVideo)

	chunks := make([]ChunkInput, 0, 20)
	for i := 1; i <= 20; i++ {
		chunks = append(chunks, ChunkInput{ChunkID: i, Text: fmt.Sprintf("chunk %d text", i)})
	}

	cfg := DefaultConfig()
	results, err := e.EnrichAll(context.Background(), chunks, prompts, cfg)
	require.NoError(t, err)
	require.Len(t, results, len(chunks))
	for i, r := range results {
		require.Equal(t, i+1, r.ChunkID, "results must stay in chunk_id order")
		require.NotEmpty(t, r.ShortTitle)
		require.NotEmpty(t, r.AIField1)
		require.NotEmpty(t, r.AIField2)
		require.NotEmpty(t, r.AIField3)
	}
}

func TestEnrichRunsFourIndependentCalls(t *testing.T) {
	client := &fakeClient{}
	e := NewEnricher(testLogger(t), client)
	prompts := PromptsForKind(domain.SeedPromptSets(), domain.ResourceKindBook)

	_ = e.Enrich(context.Background(), "some chapter text", prompts, DefaultConfig())
	require.EqualValues(t, 4, atomic.LoadInt32(&client.calls))
}
