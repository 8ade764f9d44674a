package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skynet-legal/legaleagle-api/pkg/config"
	appErrors "github.com/skynet-legal/legaleagle-api/pkg/errors"
)

func newExtractionTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *ExtractionService) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	svc := NewExtractionService(config.ExtractionConfig{
		APIURL:  server.URL,
		APIKey:  "test-key",
		Model:   "gemini-2.5-flash",
		Timeout: 5 * time.Second,
	}, nil, nil)
	return server, svc
}

type extractionObserverStub struct {
	observed []time.Duration
}

func (o *extractionObserverStub) ObserveExtraction(d time.Duration) {
	o.observed = append(o.observed, d)
}

func generateReply(text string) []byte {
	payload := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": text}},
			}},
		},
	}
	raw, _ := json.Marshal(payload)
	return raw
}

func TestExtractionServiceExtractDocument(t *testing.T) {
	structured := `{"type":"Service Agreement","partyA":"Skynet Legal","partyB":"Acme Corp","startDate":"2025-01-01","renewalDate":"","expiryDate":"2026-01-01","location":"Jakarta","summary":"Annual services.","fullText":"Full contract body."}`

	var gotPath string
	_, svc := newExtractionTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req, "contents")
		assert.Contains(t, req, "generationConfig")

		w.Header().Set("Content-Type", "application/json")
		w.Write(generateReply(structured))
	})

	result, err := svc.ExtractDocument(context.Background(), []byte("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "/models/gemini-2.5-flash:generateContent", gotPath)
	assert.Equal(t, "Service Agreement", result.Type)
	assert.Equal(t, "Acme Corp", result.PartyB)
	assert.Equal(t, "2026-01-01", result.ExpiryDate)
	assert.Empty(t, result.RenewalDate)
	assert.Equal(t, "Full contract body.", result.FullText)
}

func TestExtractionServiceExtractDocumentInvalidJSON(t *testing.T) {
	_, svc := newExtractionTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(generateReply("not json at all"))
	})

	_, err := svc.ExtractDocument(context.Background(), []byte("data"), "application/pdf")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrExtraction.Code, appErrors.FromError(err).Code)
}

func TestExtractionServiceUpstreamError(t *testing.T) {
	_, svc := newExtractionTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
	})

	_, err := svc.ExtractDocument(context.Background(), []byte("data"), "application/pdf")
	require.Error(t, err)
	typed := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrExtraction.Code, typed.Code)
	assert.Equal(t, "quota exceeded", typed.Message)
}

func TestExtractionServiceNoCandidates(t *testing.T) {
	_, svc := newExtractionTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := svc.ExtractDocument(context.Background(), []byte("data"), "application/pdf")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrExtraction.Code, appErrors.FromError(err).Code)
}

func TestExtractionServiceObservesCallDuration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(generateReply(`{"type":"Lease","partyA":"A","partyB":"B","summary":"s"}`))
	}))
	t.Cleanup(server.Close)

	observer := &extractionObserverStub{}
	svc := NewExtractionService(config.ExtractionConfig{
		APIURL:  server.URL,
		APIKey:  "test-key",
		Model:   "gemini-2.5-flash",
		Timeout: 5 * time.Second,
	}, observer, nil)

	_, err := svc.ExtractDocument(context.Background(), []byte("data"), "application/pdf")
	require.NoError(t, err)
	require.Len(t, observer.observed, 1)
	assert.GreaterOrEqual(t, observer.observed[0], time.Duration(0))
}

func TestExtractionServiceGenerateText(t *testing.T) {
	_, svc := newExtractionTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(generateReply("# Renewal Agreement\n\nDraft body."))
	})

	text, err := svc.GenerateText(context.Background(), "Draft a renewal")
	require.NoError(t, err)
	assert.Contains(t, text, "Renewal Agreement")
}
