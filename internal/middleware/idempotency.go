package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"go-retail-ws/pkg/apperror"
	"go-retail-ws/pkg/cache"
	"go-retail-ws/pkg/logger"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
	maxIdempotencyKeyLen = 255
)

// storedResponse is what gets written under an idempotency key. A zero
// Status marks a request that is still running.
type storedResponse struct {
	BodyHash    string `json:"body_hash"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency replays the first successful response for a repeated
// Idempotency-Key. The key is scoped to the staff member, method and path.
// Reusing a key with a different body is rejected. With a nil store the
// middleware is a pass-through.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
		if store == nil || key == "" {
			return c.Next()
		}
		if len(key) > maxIdempotencyKeyLen {
			return apperror.Validation("Idempotency-Key must be at most 255 characters")
		}

		ctx := c.UserContext()
		storeKey := store.IdempotencyKey(Actor(c).ID+"|"+c.Method()+"|"+c.Path(), key)
		sum := sha256.Sum256(c.Body())
		hash := hex.EncodeToString(sum[:])

		// 1. Replay or reject when the key was seen before
		if raw, err := store.Get(ctx, storeKey); err == nil {
			return replay(c, raw, hash)
		} else if !errors.Is(err, cache.ErrMiss) {
			return apperror.Internal(err, "read idempotency key")
		}

		// 2. Claim the key
		pending, _ := json.Marshal(storedResponse{BodyHash: hash})
		claimed, err := store.SetNX(ctx, storeKey, string(pending), ttl)
		if err != nil {
			return apperror.Internal(err, "claim idempotency key")
		}
		if !claimed {
			raw, err := store.Get(ctx, storeKey)
			if err != nil {
				return apperror.New(apperror.CodeIdempotency, "a request with this Idempotency-Key is in progress")
			}
			return replay(c, raw, hash)
		}

		// 3. Run the handler; keep only successful responses
		chainErr := c.Next()
		status := c.Response().StatusCode()
		if chainErr != nil || status >= 300 {
			if err := store.Delete(ctx, storeKey); err != nil {
				log.Error(ctx, "release idempotency key", err)
			}
			return chainErr
		}

		done, _ := json.Marshal(storedResponse{
			BodyHash:    hash,
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        c.Response().Body(),
		})
		if err := store.Set(ctx, storeKey, string(done), ttl); err != nil {
			log.Error(ctx, "store idempotent response", err)
		}
		return nil
	}
}

func replay(c *fiber.Ctx, raw, hash string) error {
	var prev storedResponse
	if err := json.Unmarshal([]byte(raw), &prev); err != nil {
		return apperror.Internal(err, "decode idempotent response")
	}
	if prev.BodyHash != hash {
		return apperror.New(apperror.CodeIdempotency, "Idempotency-Key was already used with a different request body")
	}
	if prev.Status == 0 {
		return apperror.New(apperror.CodeIdempotency, "a request with this Idempotency-Key is in progress")
	}
	c.Set(HeaderReplayed, "true")
	if prev.ContentType != "" {
		c.Set(fiber.HeaderContentType, prev.ContentType)
	}
	return c.Status(prev.Status).Send(prev.Body)
}
