package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					stack := make([]byte, 4096)
					n := runtime.Stack(stack, false)

					logger.Error().
						Interface("panic", r).
						Bytes("stack", stack[:n]).
						Str("path", c.Request().URL.Path).
						Msg("panic recovered")

					err := echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("internal error: %v", r))
					c.Error(err)
				}
			}()
			return next(c)
		}
	}
}
