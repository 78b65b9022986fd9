// Package assist holds the LLM-backed features: topic classification, report
// generation, discovery filtering, and cross-library synthesis.
package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go-kit/llm"

	"github.com/anatolykoptev/go_tube/internal/library"
)

// Client wraps the LLM client with call metrics and fence stripping.
type Client struct {
	llm *llm.Client
}

// New creates an assist client over a configured LLM client.
func New(llmClient *llm.Client) *Client {
	return &Client{llm: llmClient}
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// call sends a prompt and returns the fence-stripped response.
func (c *Client) call(ctx context.Context, system, prompt string, opts ...llm.ChatOption) (string, error) {
	library.IncrLLMCall()
	resp, err := c.llm.Complete(ctx, system, prompt, opts...)
	if err != nil {
		library.IncrLLMError()
		return "", err
	}
	return stripFences(resp), nil
}

const classifyPrompt = `Classify this YouTube video into 3-5 topic tags.

Title: %s
Channel: %s
Description: %s

Rules:
- Tags are short lowercase phrases (1-3 words), e.g. "machine learning", "cooking", "golang".
- Prefer specific over generic: "neural networks" beats "technology".
- Return ONLY a JSON array of strings, nothing else.`

var tagRe = regexp.MustCompile(`^[a-z0-9][a-z0-9 /+.-]*$`)

// parseTags validates the LLM tag output, dropping anything that doesn't look
// like a normalized tag.
func parseTags(raw string) ([]string, error) {
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("parse tags from %q: %w", raw, err)
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool)
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || len(t) > 40 || !tagRe.MatchString(t) || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no usable tags in %q", raw)
	}
	if len(out) > 5 {
		out = out[:5]
	}
	return out, nil
}

// Classify assigns topic tags to a video from its metadata.
func (c *Client) Classify(ctx context.Context, title, channel, description string) ([]string, error) {
	if len(description) > 1500 {
		description = description[:1500]
	}
	prompt := fmt.Sprintf(classifyPrompt, title, channel, description)
	raw, err := c.call(ctx, "", prompt,
		llm.WithChatTemperature(0.2),
		llm.WithChatMaxTokens(150),
	)
	if err != nil {
		return nil, err
	}
	return parseTags(raw)
}
