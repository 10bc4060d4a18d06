package serverutils

import (
	"errors"
	"log"

	"docuchat-be/pkg/store"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts downstream errors into the standard JSON
// envelope. Scope violations map to 400; fiber errors keep their status;
// anything else is a 500 with the detail kept out of the response body.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		if errors.Is(err, store.ErrScopeViolation) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse("user_id and chat_id are required"))
		}

		log.Printf("[ERROR] Unhandled error on %s %s: %v", ctx.Method(), ctx.Path(), err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("internal server error"))
	}
}
