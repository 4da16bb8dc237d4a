package fiberhelpers

import (
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"dashstream/utils/log"
)

// NewRecover : panic => 500 (스택은 로그로만)
func NewRecover() fiber.Handler {
	return recover.New(
		recover.Config{
			StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
				log.WithFields(map[string]interface{}{
					"path":        c.Path(),
					"stack_trace": string(debug.Stack()),
				}).Error(fmt.Sprintf("panic: %v", e))
			},
			EnableStackTrace: true,
		},
	)
}
