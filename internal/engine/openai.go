// Package engine holds the reasoning backends. The only production backend
// talks to any OpenAI-compatible chat completions endpoint.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/emberhq/valet/internal/schema"
)

// OpenAIEngine calls an OpenAI-compatible /chat/completions endpoint with a
// single prompt assembled from the conversation memory and capability list.
type OpenAIEngine struct {
	apiKey      string
	apiBase     string
	model       string
	maxTokens   int
	temperature float64
	displayName string
	httpClient  *http.Client
}

// NewOpenAIEngine constructs the engine from raw config values. The caller
// extracts these from config.Config to avoid an import cycle.
func NewOpenAIEngine(apiKey, apiBase, model, displayName string, maxTokens int, temperature float64) *OpenAIEngine {
	if apiBase == "" {
		apiBase = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	if displayName == "" {
		displayName = "Sir"
	}
	return &OpenAIEngine{
		apiKey:      apiKey,
		apiBase:     strings.TrimRight(apiBase, "/"),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		displayName: displayName,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Respond implements schema.ReasoningEngine.
func (e *OpenAIEngine) Respond(ctx context.Context, in schema.EngineInput) (string, error) {
	if e.apiKey == "" {
		return "", fmt.Errorf("no API key configured (set VALET_API_KEY or OPENAI_API_KEY)")
	}

	body := map[string]any{
		"model": e.model,
		"messages": []map[string]any{
			{"role": "system", "content": e.systemPrompt(in)},
			{"role": "user", "content": in.UserInput},
		},
		"max_tokens":  e.maxTokens,
		"temperature": e.temperature,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.apiBase+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, friendlyHTTPError(resp.StatusCode, raw))
	}
	return parseCompletion(raw)
}

// systemPrompt assembles the persona, memory, and capability sections.
func (e *OpenAIEngine) systemPrompt(in schema.EngineInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a capable personal assistant. Address the user as %s. Be concise and direct.\n", e.displayName)

	if in.ContextSummary != "" {
		b.WriteString("\n")
		b.WriteString(in.ContextSummary)
		b.WriteString("\n")
	}
	if in.RelevantContext != "" {
		b.WriteString("\n")
		b.WriteString(in.RelevantContext)
		b.WriteString("\n")
	}

	if len(in.Capabilities) > 0 {
		names := make([]string, 0, len(in.Capabilities))
		for n := range in.Capabilities {
			names = append(names, n)
		}
		sort.Strings(names)

		b.WriteString("\n## Available capabilities:\n")
		for _, n := range names {
			fmt.Fprintf(&b, "- %s: %s\n", n, in.Capabilities[n])
		}
	}
	return b.String()
}

type completionBody struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func parseCompletion(raw []byte) (string, error) {
	var body completionBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(body.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}
	return strings.TrimSpace(body.Choices[0].Message.Content), nil
}

func friendlyHTTPError(code int, body []byte) string {
	if code == http.StatusTooManyRequests {
		return "rate limit exceeded"
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}
