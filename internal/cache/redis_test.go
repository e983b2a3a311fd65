package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilCacheIsSafe(t *testing.T) {
	var pc *PageCache
	ctx := context.Background()

	body, ok := pc.Get(ctx, "http://example.com/")
	assert.False(t, ok)
	assert.Nil(t, body)

	pc.Set(ctx, "http://example.com/", []byte("body"))
	assert.NoError(t, pc.Close())
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("not-a-redis-url", 0)
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "nbastats:page:http://x/", key("http://x/"))
}
