package squid

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vigiaproxy/vigia/internal/models"
)

func TestClassify_Denied(t *testing.T) {
	c := Classify("TCP_DENIED")
	assert.Equal(t, models.VerdictDeny, c.Verdict)
	assert.Equal(t, "TCP_DENIED", c.BlockReason)
	assert.Empty(t, c.CacheStatus)
}

func TestClassify_DeniedReply(t *testing.T) {
	c := Classify("TCP_DENIED_REPLY")
	assert.Equal(t, models.VerdictDeny, c.Verdict)
	assert.Equal(t, "TCP_DENIED_REPLY", c.BlockReason)
}

func TestClassify_CacheOutcomes(t *testing.T) {
	cases := map[string]models.CacheStatus{
		"TCP_HIT":                 models.CacheHit,
		"TCP_MEM_HIT":             models.CacheHit,
		"TCP_MISS":                models.CacheMiss,
		"TCP_CLIENT_REFRESH_MISS": models.CacheMiss,
		"TCP_BYPASS":              models.CacheBypass,
		"TCP_EXPIRED":             models.CacheExpired,
		"TCP_REVALIDATED":         models.CacheRevalidated,
	}
	for tag, want := range cases {
		c := Classify(tag)
		assert.Equal(t, want, c.CacheStatus, tag)
		assert.Equal(t, models.VerdictAllow, c.Verdict, tag)
		assert.Empty(t, c.BlockReason, tag)
	}
}

func TestClassify_PrecedenceFirstMatchWins(t *testing.T) {
	// HIT outranks MISS when a tag could match both.
	c := Classify("TCP_HIT_MISS")
	assert.Equal(t, models.CacheHit, c.CacheStatus)
}

func TestClassify_UnknownTag(t *testing.T) {
	c := Classify("UDP_WEIRD_THING")
	assert.Equal(t, models.VerdictAllow, c.Verdict)
	assert.Empty(t, c.CacheStatus)
	assert.Empty(t, c.BlockReason)
}

func TestClassify_DeniedWithCacheOutcome(t *testing.T) {
	c := Classify("TCP_DENIED_MISS")
	assert.Equal(t, models.VerdictDeny, c.Verdict)
	assert.Equal(t, models.CacheMiss, c.CacheStatus)
}
