package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go-kit/llm"

	"github.com/anatolykoptev/go_tube/internal/library"
	"github.com/anatolykoptev/go_tube/internal/youtube"
)

// DiscoveredVideo is a search hit the LLM kept, with its reasoning.
type DiscoveredVideo struct {
	VideoID     string  `json:"video_id"`
	Title       string  `json:"title"`
	Channel     string  `json:"channel,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
	URL         string  `json:"url"`
	Reason      string  `json:"reason,omitempty"`
	Description string  `json:"description,omitempty"`
}

// DiscoveryCluster groups related discoveries under a theme.
type DiscoveryCluster struct {
	Name   string            `json:"name"`
	Videos []DiscoveredVideo `json:"videos"`
}

// DiscoveryResult is the curated outcome of a topic discovery run.
type DiscoveryResult struct {
	Topic    string             `json:"topic"`
	Clusters []DiscoveryCluster `json:"clusters"`
	Summary  string             `json:"summary,omitempty"`
}

const discoverPrompt = `You are curating YouTube search results for the topic: %q

Candidates:
%s

Tasks:
1. Drop candidates that are clickbait, off-topic, or low-substance.
2. Group the rest into 2-4 thematic clusters.
3. For each kept video, give a one-sentence reason it is worth watching.

Return ONLY a JSON object:
{
  "clusters": [
    {"name": "cluster name", "videos": [{"video_id": "...", "reason": "..."}]}
  ],
  "summary": "1-2 sentences on the overall landscape of results"
}
Reference candidates by their exact video_id.`

// Discover curates raw YouTube search results into thematic clusters. When
// the LLM output is unusable, the raw results come back as a single cluster
// so discovery degrades rather than fails.
func (c *Client) Discover(ctx context.Context, topic string, candidates []youtube.Result) (*DiscoveryResult, error) {
	if len(candidates) == 0 {
		return &DiscoveryResult{Topic: topic}, nil
	}

	byID := make(map[string]youtube.Result, len(candidates))
	var sb strings.Builder
	for _, r := range candidates {
		byID[r.VideoID] = r
		fmt.Fprintf(&sb, "- video_id: %s\n  title: %s\n  channel: %s\n  duration: %s\n",
			r.VideoID, r.Title, r.Channel, library.FormatTimestamp(r.Duration))
		if r.Description != "" {
			desc := r.Description
			if len(desc) > 200 {
				desc = desc[:200]
			}
			fmt.Fprintf(&sb, "  description: %s\n", desc)
		}
	}

	raw, err := c.call(ctx, "", fmt.Sprintf(discoverPrompt, topic, sb.String()),
		llm.WithChatTemperature(0.3),
		llm.WithChatMaxTokens(2000),
	)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Clusters []struct {
			Name   string `json:"name"`
			Videos []struct {
				VideoID string `json:"video_id"`
				Reason  string `json:"reason"`
			} `json:"videos"`
		} `json:"clusters"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || len(parsed.Clusters) == 0 {
		return fallbackDiscovery(topic, candidates), nil
	}

	result := &DiscoveryResult{Topic: topic, Summary: parsed.Summary}
	for _, cl := range parsed.Clusters {
		cluster := DiscoveryCluster{Name: cl.Name}
		for _, v := range cl.Videos {
			cand, ok := byID[v.VideoID]
			if !ok {
				continue
			}
			cluster.Videos = append(cluster.Videos, discoveredFrom(cand, v.Reason))
		}
		if len(cluster.Videos) > 0 {
			result.Clusters = append(result.Clusters, cluster)
		}
	}
	if len(result.Clusters) == 0 {
		return fallbackDiscovery(topic, candidates), nil
	}
	return result, nil
}

func fallbackDiscovery(topic string, candidates []youtube.Result) *DiscoveryResult {
	cluster := DiscoveryCluster{Name: "Search results"}
	for _, r := range candidates {
		cluster.Videos = append(cluster.Videos, discoveredFrom(r, ""))
	}
	return &DiscoveryResult{Topic: topic, Clusters: []DiscoveryCluster{cluster}}
}

func discoveredFrom(r youtube.Result, reason string) DiscoveredVideo {
	return DiscoveredVideo{
		VideoID:     r.VideoID,
		Title:       r.Title,
		Channel:     r.Channel,
		Duration:    r.Duration,
		URL:         r.URL(),
		Reason:      reason,
		Description: r.Description,
	}
}
