package assist

import (
	"context"
	"log/slog"
	"strings"
)

// User-facing fallback texts. Fixed wording on purpose: the high-demand
// notice is distinguishable from a real answer, and neither is ever cached.
const (
	quotaMessage = "I'm currently experiencing high demand. Please wait a moment and try again. Your question is important to me!"
	errorMessage = "I'm having trouble processing that right now. Please try asking your question in a different way, or try again in a moment."
)

// Generator produces text for a fully composed prompt. Implemented by the
// gemini client; stubbed in tests.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service orchestrates answer generation: cache lookup, rate-limited
// provider call, post-processing, cache store, and graceful degradation on
// provider failure. Its contract with callers is "always returns displayable
// text": provider errors are absorbed, logged, and turned into fixed
// fallback messages.
type Service struct {
	generator Generator
	cache     *ResponseCache
	limiter   *RateLimiter
	logger    *slog.Logger
}

// NewService wires an orchestrator from its parts. The cache and limiter are
// injected rather than ambient so tests and multi-instance setups can own
// their lifetimes.
func NewService(g Generator, cache *ResponseCache, limiter *RateLimiter) *Service {
	return &Service{
		generator: g,
		cache:     cache,
		limiter:   limiter,
		logger:    slog.Default(),
	}
}

// GenerateResponse answers a user message, consulting the cache for
// first-turn queries and the provider otherwise.
//
// Only the first message of a conversation is eligible for cache lookup and
// store: follow-ups depend on history the cache key does not encode, so
// serving them from cache would produce confidently wrong answers.
func (s *Service) GenerateResponse(ctx context.Context, userMessage string, history []Turn, data *FinancialContext) string {
	firstTurn := len(history) == 0

	if firstTurn {
		if cached, ok := s.cache.Get(userMessage, data); ok {
			s.logger.Debug("cache hit", "query", preview(userMessage))
			return cached
		}
		s.logger.Debug("cache miss", "query", preview(userMessage))
	}

	// May suspend the caller until the window has room. A client that
	// disconnects while waiting abandons the acquisition without
	// consuming a slot.
	if err := s.limiter.Acquire(ctx); err != nil {
		s.logger.Warn("rate limit wait aborted", "error", err)
		return errorMessage
	}

	prompt := BuildPrompt(userMessage, data, history)

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error("provider call failed", "error", err)
		if isQuotaError(err) {
			return quotaMessage
		}
		return errorMessage
	}

	clean := StripMarkdown(raw)

	if firstTurn {
		s.cache.Set(userMessage, clean, data)
	}
	return clean
}

// CacheStats exposes cache effectiveness for operational visibility.
func (s *Service) CacheStats() CacheStats {
	return s.cache.Stats()
}

// RateLimitStatus exposes the admission window state.
func (s *Service) RateLimitStatus() RateLimitStatus {
	return s.limiter.Usage()
}

// isQuotaError classifies a provider failure as quota exhaustion. The
// matching is a substring heuristic against the provider's error surface;
// keeping it in one place means it can be swapped for a structured status
// check without touching the orchestration above.
func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "quota")
}

func preview(s string) string {
	const n = 50
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
