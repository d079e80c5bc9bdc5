package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/counselor-presence/internal/observability"
	apperrors "github.com/spec-kit/counselor-presence/pkg/util/errorutil"
)

const requestIDHeader = "X-Request-ID"

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(requestIDMiddleware())
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Locals("request_id", id)
		return c.Next()
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}
			domainErr := apperrors.ToDomainError(err)
			metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)

			body := fiber.Map{
				"code":    domainErr.Code,
				"message": domainErr.Message,
			}
			if len(domainErr.Details) > 0 {
				body["details"] = domainErr.Details
			}
			fields := []zap.Field{
				zap.String("code", domainErr.Code),
				zap.String("path", c.Path()),
				zap.Any("request_id", c.Locals("request_id")),
				zap.Error(domainErr),
			}
			if domainErr.HTTPStatus >= 500 {
				logger.Error("request failed", fields...)
			} else {
				logger.Debug("request rejected", fields...)
			}
			c.Status(domainErr.HTTPStatus)
			_ = c.JSON(fiber.Map{"error": body})
			err = nil
		}()
		return c.Next()
	}
}
