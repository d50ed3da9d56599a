// Package handler contains the HTTP handlers of the confusion-matrix API.
// Every artifact-scoped handler resolves the caller in the same order:
// API key to user, uid to metadata, then ownership.  Nothing touches the
// file cache or mutates metadata before all three checks pass.
package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cmapi/internal/artifact"
    "github.com/iliyamo/cmapi/internal/config"
    "github.com/iliyamo/cmapi/internal/logging"
    "github.com/iliyamo/cmapi/internal/model"
    "github.com/iliyamo/cmapi/internal/repository"
    "github.com/iliyamo/cmapi/internal/service"
    "github.com/iliyamo/cmapi/internal/stats"
)

const (
    msgInvalidKey     = "Invalid API key"
    msgCMNotFound     = "Confusion matrix not found"
    msgUnauthorized   = "Unauthorized access"
    msgUserNotFound   = "User not found"
    msgBadPassword    = "Invalid password"
    msgEmailExists    = "Email already registered"
    msgInternal       = "internal error"
    msgSaveFailed     = "failed to save artifact file"
    defaultPageLimit  = 100
    requestDBDeadline = 5 * time.Second
)

// Users is the account store used by the sign-up, sign-in and listing
// handlers.
type Users interface {
    GetByEmail(ctx context.Context, email string) (model.User, error)
    List(ctx context.Context, skip, limit int) ([]model.User, error)
    Create(ctx context.Context, email, password, salt string) (model.User, error)
}

// CMs is the confusion-matrix metadata store.
type CMs interface {
    Create(ctx context.Context, uid string, ownerID uint64) (model.ConfusionMatrix, error)
    GetByUID(ctx context.Context, uid string) (model.ConfusionMatrix, error)
    List(ctx context.Context, skip, limit int) ([]model.ConfusionMatrix, error)
    ListByOwner(ctx context.Context, ownerID uint64) ([]model.ConfusionMatrix, error)
    DeleteByUID(ctx context.Context, uid string) error
}

// ArtifactCache holds the serialized matrices and their rendered views.
type ArtifactCache interface {
    Materialize(ctx context.Context, uid string, actual, predicted []float64) error
    Update(ctx context.Context, uid string, actual, predicted []float64) error
    Load(ctx context.Context, uid string) (*stats.ConfusionMatrix, error)
    Report(ctx context.Context, uid string) ([]byte, error)
    Plot(ctx context.Context, uid string) ([]byte, error)
    PlotPath(ctx context.Context, uid string) (string, bool, error)
}

// Handler bundles the dependencies of every endpoint.
type Handler struct {
    Cfg    config.Config
    Users  Users
    Keys   repository.APIKeyLookup
    CMs    CMs
    Cache  ArtifactCache
    Events service.EventPublisher
    Log    logging.Logger
}

func New(cfg config.Config, users Users, keys repository.APIKeyLookup, cms CMs, cache ArtifactCache, events service.EventPublisher, log logging.Logger) *Handler {
    if events == nil {
        events = service.NoopPublisher{}
    }
    return &Handler{Cfg: cfg, Users: users, Keys: keys, CMs: cms, Cache: cache, Events: events, Log: log}
}

// errResponse is returned by the resolve helpers so handlers can stop with
// a ready-made HTTP answer.
type errResponse struct {
    status int
    msg    string
}

func (e *errResponse) send(c echo.Context) error {
    return c.JSON(e.status, echo.Map{"error": e.msg})
}

func (h *Handler) internal(c echo.Context, op string, err error) *errResponse {
    h.Log.Error(c.Request().Context(), op+" failed", "err", err)
    if errors.Is(err, artifact.ErrSaveFile) {
        return &errResponse{http.StatusInternalServerError, msgSaveFailed}
    }
    return &errResponse{http.StatusInternalServerError, msgInternal}
}

// resolveUser maps an API key to its user.
func (h *Handler) resolveUser(c echo.Context, apiKey string) (model.User, *errResponse) {
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestDBDeadline)
    defer cancel()

    u, err := h.Keys.GetByAPIKey(ctx, apiKey)
    if errors.Is(err, repository.ErrNotFound) {
        return model.User{}, &errResponse{http.StatusNotFound, msgInvalidKey}
    }
    if err != nil {
        return model.User{}, h.internal(c, "api key lookup", err)
    }
    return u, nil
}

// resolveOwned runs the full key, uid, owner chain.
func (h *Handler) resolveOwned(c echo.Context, apiKey, uid string) (model.User, model.ConfusionMatrix, *errResponse) {
    u, er := h.resolveUser(c, apiKey)
    if er != nil {
        return u, model.ConfusionMatrix{}, er
    }
    cm, er := h.resolveCM(c, uid)
    if er != nil {
        return u, cm, er
    }
    if cm.OwnerID != u.ID {
        return u, cm, &errResponse{http.StatusUnauthorized, msgUnauthorized}
    }
    return u, cm, nil
}

func (h *Handler) resolveCM(c echo.Context, uid string) (model.ConfusionMatrix, *errResponse) {
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestDBDeadline)
    defer cancel()

    cm, err := h.CMs.GetByUID(ctx, uid)
    if errors.Is(err, repository.ErrNotFound) {
        return cm, &errResponse{http.StatusNotFound, msgCMNotFound}
    }
    if err != nil {
        return cm, h.internal(c, "cm lookup", err)
    }
    return cm, nil
}

// publish emits a lifecycle event.  Failures are logged only.
func (h *Handler) publish(c echo.Context, typ string, cm model.ConfusionMatrix) {
    ctx := c.Request().Context()
    if err := h.Events.Publish(ctx, service.NewEvent(typ, cm.UID, cm.OwnerID)); err != nil {
        h.Log.Warn(ctx, "publish event failed", "type", typ, "uid", cm.UID, "err", err)
    }
}

// page reads skip and limit query parameters.  Negative or malformed values
// fall back to the defaults.
func page(c echo.Context) (skip, limit int) {
    skip, limit = 0, defaultPageLimit
    if v, err := strconv.Atoi(c.QueryParam("skip")); err == nil && v >= 0 {
        skip = v
    }
    if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v >= 0 {
        limit = v
    }
    return skip, limit
}
