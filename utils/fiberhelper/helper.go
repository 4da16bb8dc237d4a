package fiberhelpers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"dashstream/utils/log"
)

// NormalizeAddr : "8080" => ":8080"
func NormalizeAddr(port string) string {
	if !strings.ContainsAny(port, ":") {
		return fmt.Sprintf(":%s", port)
	}
	return port
}

// ListenAsync : 백그라운드에서 Listen. 종료는 app.Shutdown()
func ListenAsync(app *fiber.App, addr string) <-chan error {
	addr = NormalizeAddr(addr)
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", addr)
		if err := app.Listen(addr); err != nil {
			log.Errorf("Server failed on %s: %v", addr, err)
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}
