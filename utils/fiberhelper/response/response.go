package response

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	RequestError  = "The request is not valid."
	InternalError = "Internal Server Error"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(status int, message string) ErrorResponse {
	if message == "" {
		message = RequestError
	}
	return ErrorResponse{Code: strconv.Itoa(status), Message: message}
}

type Ext struct {
	*fiber.Ctx
}

// Ok : 성공(200) 응답
func (ext Ext) Ok(data interface{}) error {
	return ext.Status(fiber.StatusOK).JSON(data)
}

// Error : 에러 응답 (기본 400)
func (ext Ext) Error(err error, status ...int) error {
	code := fiber.StatusBadRequest
	if len(status) > 0 {
		code = status[0]
	}
	return ext.Status(code).JSON(NewErrorResponse(code, err.Error()))
}

// Unavailable : 아직 보여줄 데이터가 없을 때 503
func (ext Ext) Unavailable(message string) error {
	return ext.Status(fiber.StatusServiceUnavailable).JSON(NewErrorResponse(fiber.StatusServiceUnavailable, message))
}
