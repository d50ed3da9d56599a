package handler

import (
    "strconv"

    "github.com/iliyamo/cmapi/internal/model"
    "github.com/iliyamo/cmapi/internal/stats"
)

// cmRef is the short form of a matrix inside a user record.
type cmRef struct {
    UID string `json:"uid"`
}

type userResponse struct {
    ID       uint64  `json:"id"`
    Email    string  `json:"email"`
    APIKey   string  `json:"api_key"`
    Credit   float64 `json:"credit"`
    IsActive bool    `json:"is_active"`
    CMs      []cmRef `json:"cms"`
}

func newUserResponse(u model.User, cms []model.ConfusionMatrix) userResponse {
    refs := make([]cmRef, 0, len(cms))
    for _, cm := range cms {
        refs = append(refs, cmRef{UID: cm.UID})
    }
    return userResponse{
        ID:       u.ID,
        Email:    u.Email,
        APIKey:   u.APIKey,
        Credit:   u.Credit,
        IsActive: u.IsActive,
        CMs:      refs,
    }
}

// cmStats is the metric block shared by every matrix-shaped response.
// Undefined macro metrics encode as null.
type cmStats struct {
    Accuracy        *float64 `json:"accuracy"`
    Precision       *float64 `json:"precision"`
    Recall          *float64 `json:"recall"`
    F1              *float64 `json:"f1"`
    ConfusionMatrix [][]int  `json:"confusion_matrix"`
}

func newCMStats(cm *stats.ConfusionMatrix) cmStats {
    acc := cm.OverallACC()
    return cmStats{
        Accuracy:        &acc,
        Precision:       cm.PPVMacro().Ptr(),
        Recall:          cm.TPRMacro().Ptr(),
        F1:              cm.F1Macro().Ptr(),
        ConfusionMatrix: cm.Array(),
    }
}

type cmResponse struct {
    UID string `json:"uid"`
    cmStats
}

func newCMResponse(uid string, cm *stats.ConfusionMatrix) cmResponse {
    return cmResponse{UID: uid, cmStats: newCMStats(cm)}
}

type curveResponse struct {
    Thresholds []float64          `json:"thresholds"`
    AUC        map[string]float64 `json:"auc_trp"`
}

func newCurveResponse(c *stats.Curve) curveResponse {
    th := c.Thresholds
    if th == nil {
        th = []float64{}
    }
    return curveResponse{Thresholds: th, AUC: c.Area()}
}

type compareResponse struct {
    UIDs     []string               `json:"cm_uids"`
    BestName *string                `json:"best_name"`
    Scores   map[string]stats.Score `json:"cm_scores"`
    Orders   []string               `json:"cm_orders"`
}

func newCompareResponse(uids []string, cmp *stats.Comparison) compareResponse {
    r := compareResponse{UIDs: uids, Scores: cmp.Scores, Orders: cmp.Sorted}
    if cmp.BestName != "" {
        best := cmp.BestName
        r.BestName = &best
    }
    return r
}

type multiLabelResponse struct {
    MultihotActual    [][]int            `json:"multihot_actual"`
    MultihotPredicted [][]int            `json:"multihot_predicted"`
    Classes           []string           `json:"classes"`
    ByClasses         map[string]cmStats `json:"cm_by_classes"`
    BySamples         map[string]cmStats `json:"cm_by_samples"`
}

func newMultiLabelResponse(ml *stats.MultiLabel) (multiLabelResponse, error) {
    r := multiLabelResponse{
        MultihotActual:    ml.ActualMultihot,
        MultihotPredicted: ml.PredictMultihot,
        Classes:           ml.Classes,
        ByClasses:         make(map[string]cmStats, len(ml.Classes)),
        BySamples:         make(map[string]cmStats, ml.Samples()),
    }
    for _, class := range ml.Classes {
        cm, err := ml.ByClass(class)
        if err != nil {
            return r, err
        }
        r.ByClasses[class] = newCMStats(cm)
    }
    for i := 0; i < ml.Samples(); i++ {
        cm, err := ml.BySample(i)
        if err != nil {
            return r, err
        }
        r.BySamples[strconv.Itoa(i)] = newCMStats(cm)
    }
    return r, nil
}
