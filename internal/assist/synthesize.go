package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go-kit/llm"

	"github.com/anatolykoptev/go_tube/internal/library"
)

const synthesizePrompt = `Answer the question using ONLY the transcript excerpts below, pulled from a personal YouTube library.

Question: %s

Excerpts:
%s

Rules:
- Cite sources inline as (Video Title, MM:SS) after each claim.
- If the excerpts don't contain the answer, say so plainly.
- Answer in markdown prose, no JSON.`

// Synthesize answers a question from semantic search hits across the
// library, with inline video+timestamp citations.
func (c *Client) Synthesize(ctx context.Context, question string, hits []library.SearchResult, titles map[string]string) (string, error) {
	if len(hits) == 0 {
		return "", fmt.Errorf("no search results to synthesize from")
	}

	var sb strings.Builder
	for i, h := range hits {
		title := titles[h.VideoID]
		if title == "" {
			title = h.VideoID
		}
		fmt.Fprintf(&sb, "[%d] %s (%s): %s\n",
			i+1, title, library.FormatTimestamp(h.Start), h.Text)
	}

	return c.call(ctx, "", fmt.Sprintf(synthesizePrompt, question, sb.String()),
		llm.WithChatTemperature(0.3),
		llm.WithChatMaxTokens(1500),
	)
}
