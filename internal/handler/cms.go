package handler

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cmapi/internal/artifact"
    q "github.com/iliyamo/cmapi/internal/queue"
    "github.com/iliyamo/cmapi/internal/repository"
    "github.com/iliyamo/cmapi/internal/utils"
)

type cmCreateReq struct {
    APIKey          string    `json:"api_key"`
    ActualVector    []float64 `json:"actual_vector"`
    PredictedVector []float64 `json:"predicted_vector"`
}

// cacheError maps file cache failures.  A metadata row whose object file
// is gone reads as a missing matrix.
func (h *Handler) cacheError(c echo.Context, op string, err error) error {
    if errors.Is(err, artifact.ErrNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": msgCMNotFound})
    }
    return h.internal(c, op, err).send(c)
}

// ListCMs returns a page of matrices with their statistics.  Admin only.
func (h *Handler) ListCMs(c echo.Context) error {
    skip, limit := page(c)
    ctx := c.Request().Context()

    dbCtx, cancel := context.WithTimeout(ctx, requestDBDeadline)
    cms, err := h.CMs.List(dbCtx, skip, limit)
    cancel()
    if err != nil {
        return h.internal(c, "list cms", err).send(c)
    }
    out := make([]cmResponse, 0, len(cms))
    for _, row := range cms {
        cm, err := h.Cache.Load(ctx, row.UID)
        if err != nil {
            return h.cacheError(c, "load cm", err)
        }
        out = append(out, newCMResponse(row.UID, cm))
    }
    return c.JSON(http.StatusOK, out)
}

// CreateCM stores a new matrix for the key's owner.  The object file is
// written before the metadata row; the two are not transactional.
func (h *Handler) CreateCM(c echo.Context) error {
    var req cmCreateReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    u, er := h.resolveUser(c, req.APIKey)
    if er != nil {
        return er.send(c)
    }

    uid, err := utils.NewCMUID(u.Email)
    if err != nil {
        return h.internal(c, "generate uid", err).send(c)
    }
    ctx := c.Request().Context()
    if err := h.Cache.Materialize(ctx, uid, req.ActualVector, req.PredictedVector); err != nil {
        return h.internal(c, "materialize cm", err).send(c)
    }

    dbCtx, cancel := context.WithTimeout(ctx, requestDBDeadline)
    defer cancel()
    row, err := h.CMs.Create(dbCtx, uid, u.ID)
    if err != nil {
        return h.internal(c, "create cm", err).send(c)
    }
    h.publish(c, q.EventCreated, row)
    return c.JSON(http.StatusOK, cmRef{UID: row.UID})
}

// UpdateCM replaces the stored vectors of an owned matrix.  Reports and
// plots rendered earlier are kept as they are.
func (h *Handler) UpdateCM(c echo.Context) error {
    var req cmCreateReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    _, row, er := h.resolveOwned(c, req.APIKey, c.QueryParam("cm_uid"))
    if er != nil {
        return er.send(c)
    }
    if err := h.Cache.Update(c.Request().Context(), row.UID, req.ActualVector, req.PredictedVector); err != nil {
        return h.internal(c, "update cm", err).send(c)
    }
    h.publish(c, q.EventUpdated, row)
    return c.JSON(http.StatusOK, cmRef{UID: row.UID})
}

// GetCM returns the statistics of an owned matrix.
func (h *Handler) GetCM(c echo.Context) error {
    _, row, er := h.resolveOwned(c, c.QueryParam("api_key"), c.QueryParam("cm_uid"))
    if er != nil {
        return er.send(c)
    }
    cm, err := h.Cache.Load(c.Request().Context(), row.UID)
    if err != nil {
        return h.cacheError(c, "load cm", err)
    }
    return c.JSON(http.StatusOK, newCMResponse(row.UID, cm))
}

// DeleteCM removes the metadata row of an owned matrix.  Cached files stay
// on disk; the published event names the uid for later cleanup.
func (h *Handler) DeleteCM(c echo.Context) error {
    _, row, er := h.resolveOwned(c, c.QueryParam("api_key"), c.Param("cm_uid"))
    if er != nil {
        return er.send(c)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestDBDeadline)
    defer cancel()

    err := h.CMs.DeleteByUID(ctx, row.UID)
    if errors.Is(err, repository.ErrNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": msgCMNotFound})
    }
    if err != nil {
        return h.internal(c, "delete cm", err).send(c)
    }
    h.publish(c, q.EventDeleted, row)
    return c.JSON(http.StatusOK, echo.Map{"message": "Confusion matrix deleted"})
}

// ReportCM serves the memoized HTML report.
func (h *Handler) ReportCM(c echo.Context) error {
    _, row, er := h.resolveOwned(c, c.QueryParam("api_key"), c.QueryParam("cm_uid"))
    if er != nil {
        return er.send(c)
    }
    html, err := h.Cache.Report(c.Request().Context(), row.UID)
    if err != nil {
        return h.cacheError(c, "render report", err)
    }
    return c.HTMLBlob(http.StatusOK, html)
}

// PlotCM serves the memoized PNG plot, straight from disk when the cache
// lives there.
func (h *Handler) PlotCM(c echo.Context) error {
    _, row, er := h.resolveOwned(c, c.QueryParam("api_key"), c.QueryParam("cm_uid"))
    if er != nil {
        return er.send(c)
    }
    ctx := c.Request().Context()
    path, ok, err := h.Cache.PlotPath(ctx, row.UID)
    if err != nil {
        return h.cacheError(c, "render plot", err)
    }
    if ok {
        return c.File(path)
    }
    png, err := h.Cache.Plot(ctx, row.UID)
    if err != nil {
        return h.cacheError(c, "render plot", err)
    }
    return c.Blob(http.StatusOK, "image/png", png)
}
