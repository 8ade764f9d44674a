package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skynet-legal/legaleagle-api/internal/models"
	"github.com/skynet-legal/legaleagle-api/pkg/config"
	appErrors "github.com/skynet-legal/legaleagle-api/pkg/errors"
)

type extractionMetricsObserver interface {
	ObserveExtraction(duration time.Duration)
}

// ExtractionService calls the generative extraction API to pull structured
// fields and full text out of an uploaded contract document, and to draft
// renewal documents from a prompt.
type ExtractionService struct {
	config     config.ExtractionConfig
	httpClient *http.Client
	metrics    extractionMetricsObserver
	logger     *zap.Logger
}

// NewExtractionService constructs an ExtractionService. metrics may be nil.
func NewExtractionService(cfg config.ExtractionConfig, metrics extractionMetricsObserver, logger *zap.Logger) *ExtractionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ExtractionService{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

type generatePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *generateInline `json:"inlineData,omitempty"`
}

type generateInline struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateContentRequest struct {
	Contents []struct {
		Parts []generatePart `json:"parts"`
	} `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const extractionPrompt = `Extract structured data from this agreement document. ` +
	`Identify the agreement type, both parties (partyA is the issuing organisation, partyB is the counterparty), ` +
	`the start date, renewal date and expiry date in YYYY-MM-DD format (empty string when absent), ` +
	`the governing location, a two sentence summary, and the complete document text.`

var extractionSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "type": {"type": "STRING"},
    "partyA": {"type": "STRING"},
    "partyB": {"type": "STRING"},
    "startDate": {"type": "STRING"},
    "renewalDate": {"type": "STRING"},
    "expiryDate": {"type": "STRING"},
    "location": {"type": "STRING"},
    "summary": {"type": "STRING"},
    "fullText": {"type": "STRING"}
  },
  "required": ["type", "partyA", "partyB", "summary"]
}`)

// ExtractDocument sends the raw document to the extraction model and returns
// the structured result. Date fields come back as raw strings that may be
// empty or unparseable.
func (s *ExtractionService) ExtractDocument(ctx context.Context, data []byte, mimeType string) (*models.ExtractionResult, error) {
	req := generateContentRequest{
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   extractionSchema,
		},
	}
	req.Contents = append(req.Contents, struct {
		Parts []generatePart `json:"parts"`
	}{Parts: []generatePart{
		{InlineData: &generateInline{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
		{Text: extractionPrompt},
	}})

	text, err := s.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	var result models.ExtractionResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExtraction.Code, appErrors.ErrExtraction.Status, "extraction response is not valid JSON")
	}
	return &result, nil
}

// GenerateText runs a plain text prompt through the model. The renewal
// drafter uses this for document synthesis.
func (s *ExtractionService) GenerateText(ctx context.Context, prompt string) (string, error) {
	req := generateContentRequest{}
	req.Contents = append(req.Contents, struct {
		Parts []generatePart `json:"parts"`
	}{Parts: []generatePart{{Text: prompt}}})
	return s.generate(ctx, req)
}

func (s *ExtractionService) generate(ctx context.Context, payload generateContentRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(s.config.APIURL, "/"), s.config.Model, s.config.APIKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrExtraction.Code, appErrors.ErrExtraction.Status, "extraction API unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrExtraction.Code, appErrors.ErrExtraction.Status, "failed to read extraction response")
	}

	if s.metrics != nil {
		s.metrics.ObserveExtraction(time.Since(started))
	}
	s.logger.Debug("extraction API call finished",
		zap.String("model", s.config.Model),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)))

	var parsed generateContentResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrExtraction.Code, appErrors.ErrExtraction.Status, "failed to parse extraction response")
	}
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("extraction API returned status %d", resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", appErrors.Clone(appErrors.ErrExtraction, msg)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", appErrors.Clone(appErrors.ErrExtraction, "extraction API returned no candidates")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
