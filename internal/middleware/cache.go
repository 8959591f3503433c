package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const metaKey = "portal_response_meta"

// responseMeta accumulates per-request metadata: when the portal started
// working on the request and whether the payload came out of Redis.
type responseMeta struct {
	start    time.Time
	cacheHit *bool
}

// WithResponseMeta attaches a metadata carrier to the request context so
// handlers can report cache hits through the response envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metaKey, &responseMeta{start: time.Now()})
		c.Next()
	}
}

// SetCacheHit records whether the current response was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	if meta := metaFrom(c); meta != nil {
		meta.cacheHit = &hit
	}
}

// ExtractMeta flattens the request metadata into the envelope's meta map.
// The elapsed time is measured here so it covers the work done before the
// response is built.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	meta := metaFrom(c)
	if meta == nil {
		return nil
	}
	out := map[string]interface{}{
		"processing_time_ms": time.Since(meta.start).Milliseconds(),
	}
	if meta.cacheHit != nil {
		out["cache_hit"] = *meta.cacheHit
	}
	return out
}

func metaFrom(c *gin.Context) *responseMeta {
	if c == nil {
		return nil
	}
	value, exists := c.Get(metaKey)
	if !exists {
		return nil
	}
	meta, ok := value.(*responseMeta)
	if !ok {
		return nil
	}
	return meta
}
