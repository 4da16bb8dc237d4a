package fiberhelpers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"dashstream/utils/fiberhelper/response"
	"dashstream/utils/log"
)

// DefaultErrorHandler : *fiber.Error는 그 상태코드로, 나머지는 500으로 JSON 응답
func DefaultErrorHandler(ctx *fiber.Ctx, err error) error {
	var fiberError *fiber.Error
	if errors.As(err, &fiberError) {
		if fiberError.Code >= fiber.StatusInternalServerError {
			log.Error(fiberError.Error())
		}
		return ctx.Status(fiberError.Code).JSON(response.NewErrorResponse(fiberError.Code, fiberError.Message))
	}

	log.Error(err.Error())
	return ctx.Status(fiber.StatusInternalServerError).
		JSON(response.NewErrorResponse(fiber.StatusInternalServerError, response.InternalError))
}
