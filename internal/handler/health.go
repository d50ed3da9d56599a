package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Root points callers at the API documentation.
func Root(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"message": "Refer to /docs for API documentation."})
}

// Health is a liveness probe for load balancers and monitoring.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}
