package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cmapi/internal/stats"
)

type curveReq struct {
    APIKey            string          `json:"api_key"`
    Type              stats.CurveKind `json:"type"`
    ActualVector      stats.Labels    `json:"actual_vector"`
    ProbabilityVector [][]float64     `json:"probability_vector"`
    Classes           stats.Labels    `json:"classes"`
}

type compareReq struct {
    APIKey string   `json:"api_key"`
    UIDs   []string `json:"cm_uids"`
}

type multiLabelReq struct {
    APIKey          string     `json:"api_key"`
    ActualVector    [][]string `json:"actual_vector"`
    PredictedVector [][]string `json:"predicted_vector"`
    Classes         []string   `json:"classes"`
}

// Curve computes ROC or PR thresholds and per-class AUC.  Nothing is
// stored; the key only has to exist.
func (h *Handler) Curve(c echo.Context) error {
    var req curveReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if _, er := h.resolveUser(c, req.APIKey); er != nil {
        return er.send(c)
    }
    curve, err := stats.NewCurve(req.Type, req.ActualVector, req.ProbabilityVector, req.Classes)
    if err != nil {
        return h.internal(c, "curve", err).send(c)
    }
    return c.JSON(http.StatusOK, newCurveResponse(curve))
}

// Compare ranks several owned matrices.  Every uid must exist before
// ownership is checked, so a missing uid wins over a foreign one.
func (h *Handler) Compare(c echo.Context) error {
    var req compareReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    u, er := h.resolveUser(c, req.APIKey)
    if er != nil {
        return er.send(c)
    }

    ownerIDs := make([]uint64, 0, len(req.UIDs))
    for _, uid := range req.UIDs {
        row, er := h.resolveCM(c, uid)
        if er != nil {
            return er.send(c)
        }
        ownerIDs = append(ownerIDs, row.OwnerID)
    }
    for _, id := range ownerIDs {
        if id != u.ID {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": msgUnauthorized})
        }
    }

    ctx := c.Request().Context()
    loaded := make(map[string]*stats.ConfusionMatrix, len(req.UIDs))
    for _, uid := range req.UIDs {
        cm, err := h.Cache.Load(ctx, uid)
        if err != nil {
            return h.cacheError(c, "load cm", err)
        }
        loaded[uid] = cm
    }
    cmp, err := stats.Compare(loaded)
    if err != nil {
        return h.internal(c, "compare", err).send(c)
    }
    return c.JSON(http.StatusOK, newCompareResponse(req.UIDs, cmp))
}

// MultiLabel decomposes multi-label results into per-class and per-sample
// binary matrices.  Nothing is stored.
func (h *Handler) MultiLabel(c echo.Context) error {
    var req multiLabelReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if _, er := h.resolveUser(c, req.APIKey); er != nil {
        return er.send(c)
    }
    ml, err := stats.NewMultiLabel(req.ActualVector, req.PredictedVector, req.Classes)
    if err != nil {
        return h.internal(c, "multi-label", err).send(c)
    }
    resp, err := newMultiLabelResponse(ml)
    if err != nil {
        return h.internal(c, "multi-label", err).send(c)
    }
    return c.JSON(http.StatusOK, resp)
}
