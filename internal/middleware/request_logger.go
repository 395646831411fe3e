package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"go-retail-ws/pkg/apperror"
	"go-retail-ws/pkg/logger"
)

// RequestLogger must run after requestid.New. It puts the request id on the
// user context and writes one access line per request.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		started := time.Now()
		rid, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
		c.SetUserContext(log.WithRequestID(c.UserContext(), rid))

		chainErr := c.Next()

		status := c.Response().StatusCode()
		if chainErr != nil {
			// The error handler has not run yet.
			status = fiber.StatusInternalServerError
			if fe, ok := chainErr.(*fiber.Error); ok {
				status = fe.Code
			} else if code := statusOf(chainErr); code != 0 {
				status = code
			}
		}

		ctx := log.WithFields(c.UserContext(), map[string]any{
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      status,
			"duration_ms": time.Since(started).Milliseconds(),
			"ip":          c.IP(),
		})
		switch {
		case status >= 500:
			log.Warn(ctx, "request failed")
		case status >= 400:
			log.Info(ctx, "request rejected")
		default:
			log.Info(ctx, "request completed")
		}
		return chainErr
	}
}

func statusOf(err error) int {
	if typed := apperror.As(err); typed != nil {
		return apperror.MetadataFor(typed.Code()).HTTPStatus
	}
	return 0
}
