package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/llm"
	"github.com/BaSui01/a11yoverlay/llm/providers/ollama"
	"github.com/BaSui01/a11yoverlay/testutil"
	"github.com/BaSui01/a11yoverlay/testutil/fixtures"
	"github.com/BaSui01/a11yoverlay/testutil/mocks"
	"github.com/BaSui01/a11yoverlay/types"
)

// newOllamaAnalyzer 返回一个对接 httptest Ollama 的分析器
func newOllamaAnalyzer(t *testing.T, handler http.HandlerFunc, rec Recorder) *Analyzer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := ollama.New(ollama.Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, zap.NewNop())
	require.NoError(t, err)
	return New(p, DefaultConfig(), zap.NewNop(), WithRecorder(rec))
}

func chatReply(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   "qwen2.5vl:7b",
			"message": map[string]any{"role": "assistant", "content": content},
			"done":    true,
		})
	}
}

func expectedFallback(elements []types.InteractiveElement) *types.PageAnalysis {
	want := Fallback(elements)
	Enrich(want, elements)
	return want
}

func TestAnalyze_CleanModelReply(t *testing.T) {
	rec := newCountingRecorder()
	a := newOllamaAnalyzer(t, chatReply(fixtures.AnalysisJSON), rec)
	elements := fixtures.SearchPageElements()

	res, err := a.Analyze(testutil.TestContext(t), &Request{Image: fixtures.PNG(64, 48), Elements: elements})
	require.NoError(t, err)

	assert.False(t, res.Fallback)
	assert.Equal(t, "e-commerce", res.Analysis.PageType)
	require.Len(t, res.Analysis.Actions, 3)

	first := res.Analysis.Actions[0]
	assert.Equal(t, "#search-btn", first.Selector)
	assert.Equal(t, "button", first.ElementType)
	assert.Equal(t, elements[1].Bounds, first.Bounds)

	assert.Equal(t, 64, res.Image.Width)
	assert.Equal(t, "jpeg", res.Image.Format)
	assert.Equal(t, 1, rec.normalized)
	assert.Empty(t, rec.fallbacks)
}

func TestAnalyze_ProseWrappedReply(t *testing.T) {
	reply := "Sure! " + fixtures.AnalysisJSON + " thanks"
	a := newOllamaAnalyzer(t, chatReply(reply), nil)

	res, err := a.Analyze(context.Background(), &Request{Image: fixtures.PNG(8, 8), Elements: fixtures.SearchPageElements()})
	require.NoError(t, err)

	assert.False(t, res.Fallback)
	assert.Equal(t, "An online store search page", res.Analysis.PageSummary)
	assert.Equal(t, "action_1", res.Analysis.Actions[0].ID)
}

func TestAnalyze_ServerErrorEqualsFallback(t *testing.T) {
	rec := newCountingRecorder()
	a := newOllamaAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, rec)
	elements := fixtures.SearchPageElements()

	res, err := a.Analyze(context.Background(), &Request{Image: fixtures.PNG(8, 8), Elements: elements})
	require.NoError(t, err)

	assert.True(t, res.Fallback)
	assert.Equal(t, ReasonTransport, res.FallbackReason)
	if diff := cmp.Diff(expectedFallback(elements), res.Analysis); diff != "" {
		t.Errorf("analysis mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, rec.fallbacks[ReasonTransport])
}

func TestAnalyze_UnparsableReplyEqualsFallback(t *testing.T) {
	for _, reply := range []string{
		"I see a web page with a search box.",
		`{"page_type": "search", "page_summary": "no actions key"}`,
	} {
		a := newOllamaAnalyzer(t, chatReply(reply), nil)
		elements := fixtures.SearchPageElements()

		res, err := a.Analyze(context.Background(), &Request{Image: fixtures.PNG(8, 8), Elements: elements})
		require.NoError(t, err)
		assert.True(t, res.Fallback)
		assert.Equal(t, ReasonFormat, res.FallbackReason)
		assert.Empty(t, cmp.Diff(expectedFallback(elements), res.Analysis))
	}
}

func TestAnalyze_NormalizesModelOutput(t *testing.T) {
	reply := `{
	  "page_type": "",
	  "actions": [
	    {"label": "One", "element_index": "0", "confidence": 1.4},
	    {"id": "dup", "label": "Two", "element_index": 99, "confidence": -2},
	    {"id": "dup", "label": "Three", "element_index": 1, "confidence": "0.5"},
	    {"id": "extra", "label": "Four", "element_index": 2, "confidence": 0.4},
	    "not an object"
	  ]
	}`
	a := newOllamaAnalyzer(t, chatReply(reply), nil)

	res, err := a.Analyze(context.Background(), &Request{Image: fixtures.PNG(8, 8), Elements: fixtures.SearchPageElements()})
	require.NoError(t, err)

	got := res.Analysis
	assert.Equal(t, "unknown", got.PageType)
	require.Len(t, got.Actions, 3)

	assert.Equal(t, "action_1", got.Actions[0].ID)
	assert.Equal(t, 1.0, got.Actions[0].Confidence)
	assert.Equal(t, "#search", got.Actions[0].Selector)

	assert.Equal(t, "dup", got.Actions[1].ID)
	assert.Equal(t, 0.0, got.Actions[1].Confidence)
	assert.Empty(t, got.Actions[1].Selector)

	assert.Equal(t, "action_3", got.Actions[2].ID)
	assert.Equal(t, 0.5, got.Actions[2].Confidence)
}

func TestAnalyze_SendsNormalizedImage(t *testing.T) {
	provider := mocks.NewMockProvider().WithVisionResponse(fixtures.AnalysisJSON)
	a := New(provider, DefaultConfig(), zap.NewNop())

	_, err := a.Analyze(context.Background(), &Request{
		ImageBase64: fixtures.PNGDataURL(2048, 512),
		Elements:    fixtures.SearchPageElements(),
	})
	require.NoError(t, err)

	calls := provider.VisionCalls()
	require.Len(t, calls, 1)
	assert.False(t, strings.HasPrefix(calls[0].ImageBase64, "data:"))
	assert.Equal(t, 0.3, calls[0].Options.Temperature)
	assert.Equal(t, 1000, calls[0].Options.NumPredict)
	assert.Contains(t, calls[0].Prompt, "1. button - Text: 'Search products' - Type: submit")
}

func TestAnalyze_DecodeErrorSurfaced(t *testing.T) {
	provider := mocks.NewMockProvider()
	a := New(provider, DefaultConfig(), nil)

	_, err := a.Analyze(context.Background(), &Request{Image: []byte("GIF89a-but-not-really")})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrImageDecode))
	assert.Empty(t, provider.VisionCalls())
}

func TestAnalyze_ContextCanceled(t *testing.T) {
	provider := mocks.NewMockProvider().WithVisionFunc(func(ctx context.Context, req *llm.VisionRequest) (*llm.Response, error) {
		return nil, ctx.Err()
	})
	a := New(provider, DefaultConfig(), nil)

	_, err := a.Analyze(testutil.CancelledContext(), &Request{Image: fixtures.PNG(4, 4)})
	assert.ErrorIs(t, err, context.Canceled)
}
