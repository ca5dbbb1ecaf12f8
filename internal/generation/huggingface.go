package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultHuggingFaceEndpoint is the hosted inference URL used when none is configured.
const DefaultHuggingFaceEndpoint = "https://api-inference.huggingface.co/models/microsoft/DialoGPT-large"

// maxResponseBytes bounds how much of an inference response is read.
const maxResponseBytes = 1 << 20

// HuggingFaceClient calls the Hugging Face inference API.
type HuggingFaceClient struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
}

// NewHuggingFaceClient creates a client with the given request timeout.
func NewHuggingFaceClient(endpoint, apiKey string, timeout time.Duration) *HuggingFaceClient {
	if endpoint == "" {
		endpoint = DefaultHuggingFaceEndpoint
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HuggingFaceClient{
		Endpoint: endpoint,
		APIKey:   apiKey,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// inferenceRequest is the text-generation task payload.
type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	MaxLength         int     `json:"max_length"`
	Temperature       float64 `json:"temperature"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
	ReturnFullText    bool    `json:"return_full_text"`
}

// inferenceOutput is one generated sequence. The API answers with either a
// list of these or a bare object.
type inferenceOutput struct {
	GeneratedText string `json:"generated_text"`
}

// Name implements Provider.
func (c *HuggingFaceClient) Name() string { return "huggingface" }

// Complete implements Provider.
func (c *HuggingFaceClient) Complete(ctx context.Context, prompt string, p Params) (string, error) {
	payload, err := json.Marshal(inferenceRequest{
		Inputs: prompt,
		Parameters: inferenceParameters{
			MaxLength:         p.MaxOutputLength,
			Temperature:       p.Temperature,
			RepetitionPenalty: p.RepetitionPenalty,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create inference request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to perform inference request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read inference response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference request failed with status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	text, err := decodeInferenceOutput(body)
	if err != nil {
		return "", err
	}
	// Some hosted models ignore return_full_text and echo the prompt.
	text = strings.TrimPrefix(text, prompt)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyOutput
	}
	return text, nil
}

func decodeInferenceOutput(body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []inferenceOutput
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return "", fmt.Errorf("failed to decode inference response: %w", err)
		}
		if len(list) == 0 {
			return "", ErrEmptyOutput
		}
		return list[0].GeneratedText, nil
	}

	var single inferenceOutput
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return "", fmt.Errorf("failed to decode inference response: %w", err)
	}
	return single.GeneratedText, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
