package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	metaContextKey  = "planner_response_meta"
	startContextKey = "planner_request_start"

	// CacheHitMetaKey reports whether a read model came from Redis.
	CacheHitMetaKey = "cache_hit"
	// ElapsedMetaKey is the time spent before the handler rendered its response.
	ElapsedMetaKey = "processing_time_ms"
)

// WithResponseMeta gives each request an empty meta bag and records when it started,
// so handlers can report elapsed time in the envelope they are about to write.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(startContextKey, time.Now())
		c.Set(metaContextKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit flags whether the schedule board or seating chart was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	if c == nil {
		return
	}
	metaBag(c)[CacheHitMetaKey] = hit
}

// ExtractMeta snapshots the request's meta bag. Returns nil when WithResponseMeta is not installed.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	raw, ok := c.Get(metaContextKey)
	if !ok {
		return nil
	}
	bag, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]interface{}, len(bag)+1)
	for k, v := range bag {
		out[k] = v
	}
	if start, ok := c.Get(startContextKey); ok {
		if t, ok := start.(time.Time); ok {
			out[ElapsedMetaKey] = time.Since(t).Milliseconds()
		}
	}
	return out
}

func metaBag(c *gin.Context) map[string]interface{} {
	if raw, ok := c.Get(metaContextKey); ok {
		if bag, ok := raw.(map[string]interface{}); ok {
			return bag
		}
	}
	bag := map[string]interface{}{}
	c.Set(metaContextKey, bag)
	return bag
}
