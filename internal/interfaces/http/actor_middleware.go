package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// HeaderUserID cabecera con el usuario que origina la operación. La autenticación la resuelve
// el gateway; este servicio solo registra el valor en created_by.
const HeaderUserID = "X-User-ID"

// LocalUserID llave en c.Locals.
const LocalUserID = "user_id"

// anonymousUser valor de created_by cuando la cabecera no viene.
const anonymousUser = "anonymous"

// ActorMiddleware extrae el usuario de X-User-ID a c.Locals.
func ActorMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get(HeaderUserID))
		if userID == "" {
			userID = anonymousUser
		}
		c.Locals(LocalUserID, userID)
		return c.Next()
	}
}

// GetUserID devuelve el usuario del contexto (después de ActorMiddleware).
func GetUserID(c *fiber.Ctx) string {
	v := c.Locals(LocalUserID)
	if v == nil {
		return anonymousUser
	}
	s, _ := v.(string)
	return s
}
