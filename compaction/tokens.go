package compaction

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
)

// TokenCounter counts the tokens a piece of prompt text costs.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}

// TokenCounterFunc adapts a function to the TokenCounter interface.
type TokenCounterFunc func(ctx context.Context, text string) (int, error)

// CountTokens calls f(ctx, text).
func (f TokenCounterFunc) CountTokens(ctx context.Context, text string) (int, error) {
	return f(ctx, text)
}

// ApproximateTokens provides fast estimation without API call.
// Roughly 4 characters per token, never zero for non-empty text.
func ApproximateTokens(content string) int {
	if content == "" {
		return 0
	}
	return (len(content) + 3) / 4
}

// ApproximateCounter is a TokenCounter backed by ApproximateTokens.
type ApproximateCounter struct{}

// CountTokens never fails.
func (ApproximateCounter) CountTokens(_ context.Context, text string) (int, error) {
	return ApproximateTokens(text), nil
}

// CachingCounter memoizes another TokenCounter. Errors are not cached.
type CachingCounter struct {
	next TokenCounter

	mu    sync.RWMutex
	cache map[string]int
}

// NewCachingCounter wraps next with a cache keyed by a content hash.
func NewCachingCounter(next TokenCounter) *CachingCounter {
	return &CachingCounter{
		next:  next,
		cache: make(map[string]int),
	}
}

// CountTokens returns the cached count or asks the wrapped counter.
func (c *CachingCounter) CountTokens(ctx context.Context, text string) (int, error) {
	key := cacheKey(text)

	c.mu.RLock()
	count, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return count, nil
	}

	count, err := c.next.CountTokens(ctx, text)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.cache[key] = count
	c.mu.Unlock()
	return count, nil
}

// Len returns the number of cached entries.
func (c *CachingCounter) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func cacheKey(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%d:%x", len(content), hash[:8])
}
