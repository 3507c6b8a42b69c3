package aisvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/document"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.5-flash"

	generationTemperature = 0.1
	generationMaxTokens   = 4000
)

const extractionPrompt = `You are an expert tour information extractor with high accuracy. Analyze the provided document and extract tour information in the following JSON format.

CRITICAL: Extract ONLY the MAIN tour. If multiple tours are mentioned, focus on the primary tour and ignore extensions, add-ons, or optional tours.

IMPORTANT: Set extraction_confidence to 0.9 or higher if you can extract the main tour details (title, destination, duration, description). Only use lower confidence if the document is unclear or contains no tour information.

Return ONLY valid JSON in this exact format:
{
    "extraction_confidence": 0.95,
    "extracted_tours": [
        {
            "title": "Main Tour Title",
            "destination": "Primary destination",
            "duration_days": 3,
            "pricing_type": "per_person",
            "price_per_person": 299.99,
            "price_per_group": 0,
            "max_group_size": 15,
            "description": "Detailed tour description",
            "highlights": "Key highlights of the tour",
            "included_services": "What's included in the tour",
            "excluded_services": "What's not included",
            "difficulty_level": "easy|moderate|challenging|expert",
            "seasonal_demand": "high|medium|low|year_round",
            "cost_per_person": 150.00,
            "operational_costs": 500.00
        }
    ],
    "processing_notes": [
        "Successfully extracted main tour information",
        "Mention if extensions were found but ignored"
    ]
}

Guidelines:
- Extract ONLY the main tour (ignore extensions/add-ons/optional tours)
- Set extraction_confidence to 0.9+ if you can extract title, destination, duration, and description
- If pricing is per group, set pricing_type to "per_group" and use price_per_group
- If pricing is per person, set pricing_type to "per_person" and use price_per_person
- Set difficulty_level based on tour type (city tours are usually easy, hiking tours are moderate/challenging)
- Set seasonal_demand based on destination and tour type
- Estimate cost_per_person as 60-70% of price_per_person for profit margin
- Set operational_costs based on tour complexity (200-800 range)
- If extensions are mentioned, note them in processing_notes but don't include in extracted_tours
- Only use confidence < 0.9 if the document is unclear or contains no tour information

Return only valid JSON, no additional text.`

type (
	generateRequest struct {
		Contents         []content        `json:"contents"`
		GenerationConfig generationConfig `json:"generationConfig"`
	}
	content struct {
		Parts []part `json:"parts"`
	}
	part struct {
		Text string `json:"text"`
	}
	generationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	}

	generateResponse struct {
		Candidates []struct {
			Content content `json:"content"`
		} `json:"candidates"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
)

// GeminiClient extracts tour data via the Gemini generateContent REST API.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  core.Logger
}

var _ document.Extractor = (*GeminiClient)(nil)

func NewGeminiClient(conf *core.Config, logger core.Logger) *GeminiClient {
	c := &GeminiClient{
		apiKey:  conf.AI.APIKey,
		model:   conf.AI.Model,
		baseURL: conf.AI.BaseURL,
		client:  &http.Client{Timeout: conf.AI.Timeout},
		logger:  logger,
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	return c
}

func (c *GeminiClient) Name() string { return "Gemini AI" }

// Extract sends the document content to the model and parses its JSON reply.
// Transport errors and 5xx responses are retried with exponential backoff;
// 4xx responses are not.
func (c *GeminiClient) Extract(ctx context.Context, docContent, fileType string) (document.ExtractionResult, error) {
	prompt := fmt.Sprintf("%s\n\nDocument Content:\n%s\n\nFile Type: %s\n\nPlease extract the tour information:",
		extractionPrompt, docContent, fileType)

	text, err := backoff.Retry(ctx, func() (string, error) {
		return c.generateContent(ctx, prompt)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(4),
	)
	if err != nil {
		return document.ExtractionResult{}, err
	}

	result, perr := ParseExtraction(text)
	if perr != nil {
		c.logger.Warn("falling back to zero-confidence extraction", "error", perr)
	}
	return result, nil
}

func (c *GeminiClient) generateContent(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     generationTemperature,
			MaxOutputTokens: generationMaxTokens,
		},
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return "", backoff.Permanent(errors.Wrap(err, "encoding request"))
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return "", backoff.Permanent(errors.Wrap(err, "building request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling model API")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "reading response")
	}
	c.logger.Debug("model API call", "status", resp.StatusCode, "took", time.Since(start).String())

	if resp.StatusCode >= 500 {
		return "", errors.Errorf("model API returned %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		// client errors will not succeed on retry
		return "", backoff.Permanent(errors.Errorf("model API returned %d: %s", resp.StatusCode, body))
	}

	var gr generateResponse
	if err = json.Unmarshal(body, &gr); err != nil {
		return "", backoff.Permanent(errors.Wrap(err, "decoding response"))
	}
	if gr.Error != nil {
		return "", backoff.Permanent(errors.Errorf("model API error %d: %s", gr.Error.Code, gr.Error.Message))
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", backoff.Permanent(errors.New("model returned no candidates"))
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}
