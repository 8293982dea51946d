package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"
	"github.com/segmentio/ksuid"

	loggingmw "github.com/Skotchmaster/shopfront/pkg/middleware/logging"
)

// Common is the gateway chain. Request ids are KSUIDs; an id sent by the
// client is kept.
func Common(logger *slog.Logger, corsOrigins []string) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		ecM.Recover(),
		ecM.RequestIDWithConfig(ecM.RequestIDConfig{
			Generator: func() string { return ksuid.New().String() },
		}),
		loggingmw.RequestLogger(logger),
		ecM.Secure(),
		ecM.CORSWithConfig(ecM.CORSConfig{
			AllowOrigins:  corsOrigins,
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
			ExposeHeaders: []string{echo.HeaderXRequestID},
		}),
	}
}
