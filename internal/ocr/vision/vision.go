// Package vision implements the vision-LLM OCR provider on the Anthropic
// Messages API.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"wyngai/internal/config"
	"wyngai/internal/domain"
	"wyngai/internal/port"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
)

// Provider implements port.OCRProvider using a vision-capable LLM.
type Provider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewProvider creates a vision OCR provider from a provider config.
func NewProvider(cfg *config.OCRProviderConfig) *Provider {
	return NewProviderWithEndpoint(cfg, apiURL)
}

// NewProviderWithEndpoint creates a provider pointing at a custom API
// endpoint (for testing).
func NewProviderWithEndpoint(cfg *config.OCRProviderConfig, endpoint string) *Provider {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &Provider{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *Provider) Name() string { return "vision" }

func (p *Provider) Available() bool { return p.apiKey != "" }

func (p *Provider) Extract(ctx context.Context, input port.ExtractInput) (*domain.OCRResult, error) {
	start := time.Now()

	contentBlocks, err := buildContentBlocks(input)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]interface{}{
		"model":      p.model,
		"max_tokens": 16384,
		"messages": []map[string]interface{}{
			{"role": "user", "content": contentBlocks},
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling vision API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	pages, err := parseResponse(respBody)
	if err != nil {
		return nil, err
	}

	return &domain.OCRResult{
		Vendor:           p.Name(),
		Pages:            pages,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Success:          true,
	}, nil
}

func buildContentBlocks(input port.ExtractInput) ([]map[string]interface{}, error) {
	encoded := base64.StdEncoding.EncodeToString(input.FileBytes)
	var blocks []map[string]interface{}

	switch input.ContentType {
	case "application/pdf":
		blocks = append(blocks, map[string]interface{}{
			"type": "document",
			"source": map[string]interface{}{
				"type":       "base64",
				"media_type": "application/pdf",
				"data":       encoded,
			},
		})
	case "image/jpeg", "image/png":
		blocks = append(blocks, map[string]interface{}{
			"type": "image",
			"source": map[string]interface{}{
				"type":       "base64",
				"media_type": input.ContentType,
				"data":       encoded,
			},
		})
	default:
		return nil, fmt.Errorf("unsupported content type for vision OCR: %s", input.ContentType)
	}

	blocks = append(blocks, map[string]interface{}{
		"type": "text",
		"text": buildPrompt(),
	})
	return blocks, nil
}

// apiResponse models the Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// pagePayload is the vendor-specific shape the model is instructed to emit.
type pagePayload struct {
	Pages []struct {
		Number     int     `json:"number"`
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
		Rows       []struct {
			Code        string   `json:"code"`
			Modifiers   []string `json:"modifiers"`
			Description string   `json:"description"`
			Units       string   `json:"units"`
			DateOfSvc   string   `json:"date_of_service"`
			Charge      string   `json:"charge"`
			Allowed     string   `json:"allowed"`
			PlanPaid    string   `json:"plan_paid"`
			PatientResp string   `json:"patient_resp"`
		} `json:"rows"`
	} `json:"pages"`
}

func parseResponse(body []byte) ([]domain.OCRPage, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}
	if resp.StopReason == "max_tokens" {
		return nil, fmt.Errorf("output truncated (stop_reason: max_tokens)")
	}

	text := resp.Content[0].Text

	// Schema-validate before decoding: unknown shapes are rejected, never
	// best-effort field-guessed.
	var generic interface{}
	if err := json.Unmarshal([]byte(text), &generic); err != nil {
		return nil, fmt.Errorf("parsing model JSON output: %w (raw: %s)", err, truncate(text, 300))
	}
	if err := validateShape(generic); err != nil {
		return nil, fmt.Errorf("model output failed schema validation: %w", err)
	}

	var payload pagePayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("decoding page payload: %w", err)
	}

	pages := make([]domain.OCRPage, 0, len(payload.Pages))
	for _, p := range payload.Pages {
		page := domain.OCRPage{
			Number:     p.Number,
			Text:       p.Text,
			Confidence: p.Confidence,
		}
		for _, r := range p.Rows {
			page.Rows = append(page.Rows, domain.OCRRow{
				Code:        r.Code,
				Modifiers:   r.Modifiers,
				Description: r.Description,
				Units:       r.Units,
				DateOfSvc:   r.DateOfSvc,
				Charge:      r.Charge,
				Allowed:     r.Allowed,
				PlanPaid:    r.PlanPaid,
				PatientResp: r.PatientResp,
			})
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
