package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"dashstream/utils/log"
)

// LogMiddleware : 요청 로그. skipPath는 로그 생략 (헬스체크 등)
func LogMiddleware(skipPath ...string) fiber.Handler {
	return logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "${time} | ${status} | ${latency} | ${method} | ${path} | Query: ${queryParams}\n",
		Output:     log.Writer(),
		Next: func(c *fiber.Ctx) bool {
			for _, p := range skipPath {
				if c.Path() == p {
					return true
				}
			}
			return false
		},
	})
}
