package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cmapi/internal/repository"
    "github.com/iliyamo/cmapi/internal/utils"
)

type credentialsReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

func (r *credentialsReq) bind(c echo.Context) *errResponse {
    if err := c.Bind(r); err != nil {
        return &errResponse{http.StatusBadRequest, "invalid body"}
    }
    r.Email = strings.TrimSpace(r.Email)
    if r.Email == "" || r.Password == "" {
        return &errResponse{http.StatusBadRequest, "email/password required"}
    }
    return nil
}

// ListUsers returns a page of accounts with their matrix uids.  Admin only;
// the route group applies Basic auth.
func (h *Handler) ListUsers(c echo.Context) error {
    skip, limit := page(c)
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestDBDeadline)
    defer cancel()

    users, err := h.Users.List(ctx, skip, limit)
    if err != nil {
        return h.internal(c, "list users", err).send(c)
    }
    out := make([]userResponse, 0, len(users))
    for _, u := range users {
        cms, err := h.CMs.ListByOwner(ctx, u.ID)
        if err != nil {
            return h.internal(c, "list user cms", err).send(c)
        }
        out = append(out, newUserResponse(u, cms))
    }
    return c.JSON(http.StatusOK, out)
}

// SignUp creates an account and returns it together with its API key.
func (h *Handler) SignUp(c echo.Context) error {
    var req credentialsReq
    if er := req.bind(c); er != nil {
        return er.send(c)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestDBDeadline)
    defer cancel()

    _, err := h.Users.GetByEmail(ctx, req.Email)
    switch {
    case err == nil:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msgEmailExists})
    case !errors.Is(err, repository.ErrNotFound):
        return h.internal(c, "sign up lookup", err).send(c)
    }

    u, err := h.Users.Create(ctx, req.Email, req.Password, h.Cfg.PasswordSalt)
    if errors.Is(err, repository.ErrEmailExists) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msgEmailExists})
    }
    if err != nil {
        return h.internal(c, "create user", err).send(c)
    }
    h.Log.Info(ctx, "user signed up", "user_id", u.ID)
    return c.JSON(http.StatusOK, newUserResponse(u, nil))
}

// SignIn checks the password and returns the account with its API key.
func (h *Handler) SignIn(c echo.Context) error {
    var req credentialsReq
    if er := req.bind(c); er != nil {
        return er.send(c)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestDBDeadline)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if errors.Is(err, repository.ErrNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": msgUserNotFound})
    }
    if err != nil {
        return h.internal(c, "sign in lookup", err).send(c)
    }
    if !utils.VerifyPassword(u.HashedPassword, req.Password, h.Cfg.PasswordSalt) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msgBadPassword})
    }
    cms, err := h.CMs.ListByOwner(ctx, u.ID)
    if err != nil {
        return h.internal(c, "list user cms", err).send(c)
    }
    return c.JSON(http.StatusOK, newUserResponse(u, cms))
}
