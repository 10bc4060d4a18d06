package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest runs struct-tag validation and converts failures into a
// fiber 400 with a readable field list.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	fields := make([]string, len(validationErrors))
	for i, fieldErr := range validationErrors {
		fields[i] = fmt.Sprintf("%s (%s)", fieldErr.Field(), fieldErr.Tag())
	}
	return fiber.NewError(fiber.StatusBadRequest,
		"validation failed: "+strings.Join(fields, ", "))
}
