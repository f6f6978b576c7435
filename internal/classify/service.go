package classify

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"newscurator/internal/llm"
	"newscurator/internal/news"
)

const filterPrompt = `You are screening news articles for a curated feed about
artificial intelligence: machine learning, LLMs, AI products, AI research, and
AI policy.

Decide whether this article belongs in the feed.

Title: %s
Summary: %s

Respond with ONLY a JSON object:
{"relevant": true or false, "reason": "one short sentence"}`

const tagPrompt = `Assign topic tags to this AI news article. Choose 1 to 3
tags from this list: research, product, business, policy, opensource, safety,
hardware, tools.

Title: %s
Summary: %s

Respond with ONLY a JSON object:
{"tags": ["tag1", "tag2"]}`

// LLMService classifies items through an LLM provider. Calls are throttled
// by a shared rate limiter so concurrent workers stay under provider limits.
type LLMService struct {
	provider  llm.Provider
	limiter   *rate.Limiter
	maxTokens int
}

// NewLLMService creates a classification service. requestsPerSecond <= 0
// disables throttling.
func NewLLMService(provider llm.Provider, maxTokens int, requestsPerSecond float64) *LLMService {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return &LLMService{
		provider:  provider,
		limiter:   limiter,
		maxTokens: maxTokens,
	}
}

// Filter asks the provider whether the item is relevant to the feed.
func (s *LLMService) Filter(ctx context.Context, title, summary string) (news.Verdict, error) {
	response, err := s.generate(ctx, fmt.Sprintf(filterPrompt, title, truncate(summary, 1500)))
	if err != nil {
		return news.Verdict{}, err
	}

	parsed := llm.ParseJSONResponse(response)
	if parsed == nil {
		return news.Verdict{}, &PermanentError{Reason: "unparseable filter response"}
	}
	relevant, ok := parsed["relevant"].(bool)
	if !ok {
		return news.Verdict{}, &PermanentError{Reason: "filter response missing relevant field"}
	}

	verdict := news.Verdict{Relevant: relevant}
	if reason, ok := parsed["reason"].(string); ok {
		verdict.Rationale = reason
	}
	return verdict, nil
}

// Tag asks the provider for topic tags. An empty list is a valid response
// here; the caller decides what to do with it.
func (s *LLMService) Tag(ctx context.Context, title, summary string) ([]string, error) {
	response, err := s.generate(ctx, fmt.Sprintf(tagPrompt, title, truncate(summary, 1500)))
	if err != nil {
		return nil, err
	}

	parsed := llm.ParseJSONResponse(response)
	if parsed == nil {
		return nil, &PermanentError{Reason: "unparseable tag response"}
	}
	raw, ok := parsed["tags"].([]any)
	if !ok {
		return nil, &PermanentError{Reason: "tag response missing tags field"}
	}

	var tags []string
	for _, t := range raw {
		if tag, ok := t.(string); ok {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags, nil
}

func (s *LLMService) generate(ctx context.Context, prompt string) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	return s.provider.Generate(ctx, prompt, s.maxTokens)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
