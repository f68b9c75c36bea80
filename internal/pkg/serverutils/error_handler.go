package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// StatusMapper lets callers classify their own sentinel errors.
type StatusMapper func(err error) (int, bool)

// ErrorHandlerMiddleware turns errors returned by later handlers into the
// BaseResponse envelope.
func ErrorHandlerMiddleware(mappers ...StatusMapper) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusFor(err, mappers...)
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}

// StatusFor maps err to an HTTP status.
func StatusFor(err error, mappers ...StatusMapper) int {
	var fiberErr *fiber.Error
	var validationErr *ValidationError

	switch {
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	}

	for _, m := range mappers {
		if code, ok := m(err); ok {
			return code
		}
	}
	return fiber.StatusInternalServerError
}
