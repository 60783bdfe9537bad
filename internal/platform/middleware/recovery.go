package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
)

// Recovery converts a handler panic into a 500 OperationOutcome so one
// bad conversion request cannot take the server down. The stack goes to
// the log, never to the caller.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					buf := make([]byte, 8192)
					n := runtime.Stack(buf, false)

					rid, _ := c.Get("request_id").(string)
					logger.Error().
						Str("request_id", rid).
						Str("panic", fmt.Sprint(r)).
						Str("stack", string(buf[:n])).
						Msg("panic recovered")

					err = c.JSON(http.StatusInternalServerError, fhir.ErrorOutcome("internal server error"))
				}
			}()
			return next(c)
		}
	}
}
