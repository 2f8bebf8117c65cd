package squid

import (
	"strings"

	"github.com/vigiaproxy/vigia/internal/models"
)

// Classification is the verdict and cache outcome derived from a status tag.
type Classification struct {
	Verdict     models.Verdict
	CacheStatus models.CacheStatus
	BlockReason string
}

// cacheOrder fixes the precedence when a tag could match more than one
// substring; first match wins.
var cacheOrder = []models.CacheStatus{
	models.CacheHit,
	models.CacheMiss,
	models.CacheBypass,
	models.CacheExpired,
	models.CacheRevalidated,
}

// Classify maps a status tag onto a verdict and cache outcome. The tag
// vocabulary is free-form across proxy versions, so this is a best-effort
// substring heuristic: unknown tags yield ALLOW with no cache outcome, never
// an error.
func Classify(tag string) Classification {
	c := Classification{Verdict: models.VerdictAllow}

	if strings.Contains(tag, "DENIED") {
		c.Verdict = models.VerdictDeny
		c.BlockReason = tag
	}

	for _, status := range cacheOrder {
		if strings.Contains(tag, string(status)) {
			c.CacheStatus = status
			break
		}
	}

	return c
}
