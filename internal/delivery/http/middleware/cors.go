package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// AllowedMethods - все методы, которые знает fiber
var AllowedMethods = strings.Join([]string{
	fiber.MethodGet,
	fiber.MethodHead,
	fiber.MethodPost,
	fiber.MethodPut,
	fiber.MethodPatch,
	fiber.MethodDelete,
	fiber.MethodConnect,
	fiber.MethodOptions,
	fiber.MethodTrace,
}, ",")

// CORS - карта открывается с любого origin, поэтому разрешено всё
func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: AllowedMethods,
		AllowHeaders: "*",
	})
}
