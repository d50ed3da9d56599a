package middleware

import (
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/cmapi/internal/logging"
)

// RequestLog writes one structured line per request through Echo's request
// logger.  Only the path is logged since query strings carry API keys.
func RequestLog(log logging.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogStatus:    true,
        LogMethod:    true,
        LogURIPath:   true,
        LogRoutePath: true,
        LogLatency:   true,
        LogRemoteIP:  true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            args := []any{
                "method", v.Method,
                "path", v.URIPath,
                "route", v.RoutePath,
                "status", v.Status,
                "latency_ms", v.Latency.Milliseconds(),
                "remote_ip", v.RemoteIP,
            }
            ctx := c.Request().Context()
            if v.Error != nil || v.Status >= 500 {
                if v.Error != nil {
                    args = append(args, "err", v.Error)
                }
                log.Error(ctx, "request", args...)
                return nil
            }
            log.Info(ctx, "request", args...)
            return nil
        },
    })
}
