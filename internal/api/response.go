package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"session-attendance-bot/internal/apperror"
)

// Success ответ 200 в общем конверте
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return SuccessWithCode(c, fiber.StatusOK, message, data)
}

func SuccessWithCode(c *fiber.Ctx, code int, message string, data interface{}) error {
	return c.Status(code).JSON(fiber.Map{
		"code":    code,
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

// Error ответ с кодом ошибки домена
func Error(c *fiber.Ctx, code int, errorCode, rule, message string) error {
	body := fiber.Map{
		"code":       code,
		"status":     "error",
		"message":    message,
		"error_code": errorCode,
	}
	if rule != "" {
		body["rule"] = rule
	}
	return c.Status(code).JSON(body)
}

// ValidationError ошибки validator.v10 по полям
func ValidationError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return Error(c, fiber.StatusBadRequest, "BAD_REQUEST", "", "invalid input")
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"code":       fiber.StatusUnprocessableEntity,
		"status":     "error",
		"message":    "validation failed",
		"error_code": string(apperror.KindValidation),
		"errors":     fields,
	})
}

var kindStatus = map[apperror.Kind]int{
	apperror.KindConflict:     fiber.StatusConflict,
	apperror.KindInvalidState: fiber.StatusConflict,
	apperror.KindValidation:   fiber.StatusUnprocessableEntity,
	apperror.KindImmutable:    fiber.StatusLocked,
	apperror.KindNotFound:     fiber.StatusNotFound,
	apperror.KindForbidden:    fiber.StatusForbidden,
}

// StatusOf HTTP статус для ошибки сервиса
func StatusOf(err error) int {
	if code, ok := kindStatus[apperror.KindOf(err)]; ok {
		return code
	}
	return fiber.StatusInternalServerError
}

// FromError переводит ошибку сервиса или fiber в конверт
func FromError(c *fiber.Ctx, err error) error {
	if e, ok := apperror.As(err); ok {
		return Error(c, StatusOf(err), string(e.Kind), e.Rule, e.Message)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return Error(c, fe.Code, "HTTP_ERROR", "", fe.Message)
	}
	return Error(c, fiber.StatusInternalServerError, "INTERNAL", "", "internal server error")
}
