package middleware

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/cmapi/internal/config"
    "github.com/iliyamo/cmapi/internal/utils"
)

// AdminAuth guards admin listing routes with HTTP Basic auth checked
// against the configured admin pair.  Missing or wrong credentials get a
// 401 {"error": "Unauthorized access"} with a WWW-Authenticate challenge.
func AdminAuth(cfg config.AdminConfig) echo.MiddlewareFunc {
    basic := echomw.BasicAuth(func(username, password string, c echo.Context) (bool, error) {
        return utils.AuthorizeAdmin(cfg, username, password), nil
    })
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        guarded := basic(next)
        return func(c echo.Context) error {
            err := guarded(c)
            var he *echo.HTTPError
            if errors.As(err, &he) && he.Code == http.StatusUnauthorized {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized access"})
            }
            return err
        }
    }
}
