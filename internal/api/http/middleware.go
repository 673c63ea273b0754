package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/repair-service/internal/observability"
	apperrors "github.com/spec-kit/repair-service/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares. The request logger sits
// outermost so it sees the status written by the error handler.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
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
			if err != nil {
				domainErr := toDomainError(err)
				route := c.Path()
				if r := c.Route(); r != nil && r.Path != "" {
					route = r.Path
				}
				metrics.RecordError(route, c.Method(), domainErr.Code)

				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError also covers fiber's own errors such as unmatched routes.
func toDomainError(err error) *apperrors.DomainError {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := apperrors.CodeInternal
		switch {
		case fe.Code == fiber.StatusNotFound:
			code = apperrors.CodeNotFound
		case fe.Code == fiber.StatusUnauthorized:
			code = apperrors.CodeUnauthorized
		case fe.Code == fiber.StatusForbidden:
			code = apperrors.CodeForbidden
		case fe.Code < fiber.StatusInternalServerError:
			code = apperrors.CodeValidation
		}
		return apperrors.NewDomainError(code, fe.Message, fe.Code, nil)
	}
	return apperrors.ToDomainError(err)
}
