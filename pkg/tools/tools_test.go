package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriquery/gateway/pkg/gwerr"
	"github.com/agriquery/gateway/pkg/vector"
	"github.com/agriquery/gateway/pkg/weather"
)

func TestRetrievalTool_ReturnsDocumentsAndNeedsFollowup(t *testing.T) {
	provider, err := vector.NewProvider(&vector.ProviderConfig{})
	require.NoError(t, err)
	defer provider.Close()

	require.NoError(t, provider.Upsert(context.Background(), defaultCollection, "doc-1", "irrigation schedule for wheat", nil))

	rt, err := NewRetrievalTool(provider)
	require.NoError(t, err)

	res := rt.Invoke(context.Background(), map[string]any{"query": "irrigation schedule for wheat"})
	require.False(t, res.IsErr())
	assert.Equal(t, true, res.Payload["needs_followup"])
	docs, ok := res.Payload["documents"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, docs, 1)
}

func TestExternalSearchTool_NoEndpointIsBackendUnavailable(t *testing.T) {
	st, err := NewExternalSearchTool("")
	require.NoError(t, err)

	res := st.Invoke(context.Background(), map[string]any{"query": "pest outbreak news"})
	require.True(t, res.IsErr())
	assert.Equal(t, gwerr.KindBackendUnavailable, res.Err.Kind)
}

func TestExternalSearchTool_ParsesUpstreamResults(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(externalSearchResponse{
			Results: []externalSearchResult{{Title: "Cotton bollworm outbreak", URL: "https://example.com", Score: 0.9}},
		})
	}))
	defer upstream.Close()

	st, err := NewExternalSearchTool(upstream.URL)
	require.NoError(t, err)

	res := st.Invoke(context.Background(), map[string]any{"query": "cotton bollworm"})
	require.False(t, res.IsErr())
	results, ok := res.Payload["results"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, results, 1)
	assert.Equal(t, "Cotton bollworm outbreak", results[0]["title"])
	assert.Equal(t, true, res.Payload["needs_followup"])
}

func TestExternalSearchTool_NonOKStatusIsBackendUnavailable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	st, err := NewExternalSearchTool(upstream.URL)
	require.NoError(t, err)

	res := st.Invoke(context.Background(), map[string]any{"query": "anything"})
	require.True(t, res.IsErr())
	assert.Equal(t, gwerr.KindBackendUnavailable, res.Err.Kind)
}

func TestTranslationTool_EmptyTextIsNoop(t *testing.T) {
	tt, err := NewTranslationTool("")
	require.NoError(t, err)

	res := tt.Invoke(context.Background(), map[string]any{"text": "", "target_lang": "hi"})
	require.False(t, res.IsErr())
	assert.Equal(t, true, res.Payload["no_op"])
}

func TestTranslationTool_RejectsInvalidLanguageTag(t *testing.T) {
	tt, err := NewTranslationTool("http://example.com")
	require.NoError(t, err)

	res := tt.Invoke(context.Background(), map[string]any{"text": "hello", "target_lang": "not-a-lang-tag!!"})
	require.True(t, res.IsErr())
	assert.Equal(t, gwerr.KindInvalidInput, res.Err.Kind)
}

func TestTranslationTool_RejectsOversizedText(t *testing.T) {
	tt, err := NewTranslationTool("http://example.com")
	require.NoError(t, err)

	huge := make([]byte, maxTranslationChars+1)
	for i := range huge {
		huge[i] = 'a'
	}
	res := tt.Invoke(context.Background(), map[string]any{"text": string(huge), "target_lang": "hi"})
	require.True(t, res.IsErr())
	assert.Equal(t, gwerr.KindInvalidInput, res.Err.Kind)
}

func TestTranslationTool_TranslatesViaUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(translationResponse{TranslatedText: "नमस्ते", DetectedSourceLang: "en"})
	}))
	defer upstream.Close()

	tt, err := NewTranslationTool(upstream.URL)
	require.NoError(t, err)

	res := tt.Invoke(context.Background(), map[string]any{"text": "hello", "target_lang": "hi"})
	require.False(t, res.IsErr())
	assert.Equal(t, "नमस्ते", res.Payload["translated_text"])
	assert.Equal(t, "en", res.Payload["detected_source_lang"])
}

func TestGenerationTool_NoEndpointIsBackendUnavailable(t *testing.T) {
	gt, err := NewGenerationTool("")
	require.NoError(t, err)

	res := gt.Invoke(context.Background(), map[string]any{"prompt": "hello"})
	require.True(t, res.IsErr())
	assert.Equal(t, gwerr.KindBackendUnavailable, res.Err.Kind)
}

func TestGenerationTool_ReturnsTextAndTokenCount(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generationResponse{Text: "your crop should do well this season"})
	}))
	defer upstream.Close()

	gt, err := NewGenerationTool(upstream.URL)
	require.NoError(t, err)

	res := gt.Invoke(context.Background(), map[string]any{"prompt": "will my crop do well?"})
	require.False(t, res.IsErr())
	assert.Equal(t, "your crop should do well this season", res.Payload["text"])
	tokens, ok := res.Payload["tokens_used"].(int)
	require.True(t, ok)
	assert.Greater(t, tokens, 0)
}

func TestWeatherTool_UnknownLocationMapsToNotFound(t *testing.T) {
	svc := weather.NewService("", time.Minute, nil)
	wt, err := NewWeatherTool(svc)
	require.NoError(t, err)

	res := wt.Invoke(context.Background(), map[string]any{"location": "Nowheresville", "days": 7})
	require.True(t, res.IsErr())
	assert.Equal(t, gwerr.KindNotFound, res.Err.Kind)
}

func TestWeatherTool_FetchesForecastAndInsights(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"forecast": []map[string]any{
				{"date": "2026-08-01", "temp_max_c": 38.0, "temp_min_c": 24.0, "rainfall_mm": 5.0, "soil_moisture": 0.22, "humidity_pct": 55.0},
				{"date": "2026-08-02", "temp_max_c": 33.0, "temp_min_c": 22.0, "rainfall_mm": 0.0, "soil_moisture": 0.18, "humidity_pct": 50.0},
			},
		})
	}))
	defer upstream.Close()

	svc := weather.NewService(upstream.URL, time.Minute, nil)
	wt, err := NewWeatherTool(svc)
	require.NoError(t, err)

	res := wt.Invoke(context.Background(), map[string]any{"location": "Punjab, India", "days": 7})
	require.False(t, res.IsErr())
	assert.Equal(t, "Punjab, India", res.Payload["canonical_name"])
	forecast, ok := res.Payload["forecast"].([]map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, forecast)
	insights, ok := res.Payload["insights"].([]map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, insights)
}
