package serverutils

import (
	"portfolio-be/pkg/store"

	"github.com/gofiber/fiber/v2"
)

const localsSessionState = "session_state"

// SessionMiddleware reads the preview session state once per request and
// stores it in Locals.
func SessionMiddleware(sessions store.SessionStore) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		ctx.Locals(localsSessionState, sessions.Read(ctx))
		return ctx.Next()
	}
}

// RequirePreview rejects requests whose session is not in preview mode.
func RequirePreview(ctx *fiber.Ctx) error {
	if SessionState(ctx) != store.Preview {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Preview mode is not active"))
	}
	return ctx.Next()
}

// SessionState returns the state stored by SessionMiddleware, Published when
// the middleware did not run.
func SessionState(ctx *fiber.Ctx) store.SessionState {
	if state, ok := ctx.Locals(localsSessionState).(store.SessionState); ok {
		return state
	}
	return store.Published
}

func IsPreview(ctx *fiber.Ctx) bool {
	return SessionState(ctx) == store.Preview
}
