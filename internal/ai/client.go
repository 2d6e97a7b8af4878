// internal/ai/client.go
// Package ai provides a client for the generative-text API used to draft
// social post descriptions for martyr records. The endpoint is
// OpenAI-compatible; the client forwards one prompt, makes a single attempt
// with no retry, and extracts the first completion's text.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/shahed-archive/shahed-archive-go/internal/model"
)

// ErrNotConfigured is returned when no API endpoint was configured.
var ErrNotConfigured = errors.New("generative-text API not configured")

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	base   string       // Base URL of the API, e.g. https://api.openai.com/v1
	apiKey string       // Bearer token
	model  string       // Model identifier sent with every request
	hc     *http.Client // HTTP client with custom timeouts
}

// chatRequest is the chat-completions request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the chat-completions response we consume.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// New creates a generative-text client with request timeouts suited to a
// single synchronous completion.
func New(baseURL, apiKey, model string) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
	}

	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		apiKey: apiKey,
		model:  model,
		hc:     &http.Client{Transport: transport, Timeout: 60 * time.Second},
	}
}

// Model reports the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// GenerateSocialPost drafts a short social post description for a record.
func (c *Client) GenerateSocialPost(ctx context.Context, record model.MartyrRecord) (string, error) {
	return c.complete(ctx, buildSocialPostPrompt(record))
}

// complete forwards one prompt and returns the first completion's text.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.base == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   512,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.base+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("generation failed: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("generation returned no completions")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// buildSocialPostPrompt assembles the free-text prompt from record fields.
// Only non-empty facts are included.
func buildSocialPostPrompt(record model.MartyrRecord) string {
	var b strings.Builder
	b.WriteString("Write a short, respectful social media post (2-3 sentences) commemorating a martyr for a memorial archive. ")
	b.WriteString("Do not invent facts beyond the details given.\n\n")

	writeFact := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}

	writeFact("Name", record.PersonalInfo.Name)
	writeFact("Name (English)", record.PersonalInfo.NameEnglish)
	writeFact("Date of birth", record.PersonalInfo.DateOfBirth)
	writeFact("Date of martyrdom", record.PersonalInfo.DateOfMartyrdom)
	writeFact("Place of martyrdom", record.PersonalInfo.MartyrdomPlace)
	writeFact("Occupation", record.Biography.Occupation)
	if record.PersonalInfo.Age > 0 {
		fmt.Fprintf(&b, "Age: %d\n", record.PersonalInfo.Age)
	}
	if len(record.Biography.Achievements) > 0 {
		fmt.Fprintf(&b, "Achievements: %s\n", strings.Join(record.Biography.Achievements, "; "))
	}

	return b.String()
}
