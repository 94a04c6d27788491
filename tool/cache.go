package tool

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedTool memoizes the output of a deterministic tool keyed by its input.
// Failed invocations are not cached. Safe for concurrent use.
type CachedTool struct {
	Tool
	cache *lru.Cache[string, string]
}

// WithCache wraps t with an LRU cache holding up to size entries.
func WithCache(t Tool, size int) (*CachedTool, error) {
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create tool cache: %w", err)
	}
	return &CachedTool{Tool: t, cache: c}, nil
}

// Call returns the cached observation for input or invokes the wrapped tool.
func (c *CachedTool) Call(ctx context.Context, input string) (string, error) {
	if out, ok := c.cache.Get(input); ok {
		return out, nil
	}

	out, err := c.Tool.Call(ctx, input)
	if err != nil {
		return "", err
	}

	c.cache.Add(input, out)

	return out, nil
}

// Len returns the number of cached entries.
func (c *CachedTool) Len() int { return c.cache.Len() }
