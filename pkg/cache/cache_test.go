package cache

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestIdempotencyKeyIsScopedAndStable(t *testing.T) {
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: "localhost:0"}), "")

	a := store.IdempotencyKey("staff-1|POST|/api/financial/transactions", "k1")
	b := store.IdempotencyKey("staff-1|POST|/api/financial/transactions", "k1")
	c := store.IdempotencyKey("staff-2|POST|/api/financial/transactions", "k1")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "retail:idempotency:")
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "not-a-url", "x")
	assert.Error(t, err)
}
