package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a pattern and logs instead of failing
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// Catalog cache keys
func PublishedListKey(search string, limit, offset int) string {
	return fmt.Sprintf("list:%s:%d:%d", search, limit, offset)
}

func SlugKey(slug string) string {
	return "slug:" + slug
}

// InvalidateCatalog drops every cached catalog entry. Any course or content
// mutation calls it after commit.
func InvalidateCatalog(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Course, "*")
}
