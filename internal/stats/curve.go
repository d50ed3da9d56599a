package stats

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// CurveKind selects which pair of rates a Curve traces.
type CurveKind string

const (
	ROC CurveKind = "ROC" // x: FPR, y: TPR
	PR  CurveKind = "PR"  // x: TPR (recall), y: PPV (precision)
)

// Labels is a list of class labels that accepts JSON strings or numbers,
// so ["a","b"] and [1, 0, 2] both decode.
type Labels []string

func (l *Labels) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Labels, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
			continue
		}
		var f float64
		if err := json.Unmarshal(r, &f); err != nil {
			return fmt.Errorf("label %s is neither a string nor a number", string(r))
		}
		out = append(out, strconv.FormatFloat(f, 'f', -1, 64))
	}
	*l = out
	return nil
}

type point struct{ x, y float64 }

// Curve holds per-class ROC or PR points over a shared threshold list.
type Curve struct {
	Kind       CurveKind
	Classes    []string
	Thresholds []float64
	points     map[string][]point
}

// NewCurve evaluates every class one-vs-rest.  probs[i][k] is the
// probability that sample i belongs to classes[k]; when classes is empty
// the sorted distinct actual labels are used, and repeated entries in an
// explicit list are dropped.
func NewCurve(kind CurveKind, actual []string, probs [][]float64, classes []string) (*Curve, error) {
	if kind != ROC && kind != PR {
		return nil, fmt.Errorf("%w: unknown curve type %q", ErrCurve, kind)
	}
	if len(actual) == 0 || len(actual) != len(probs) {
		return nil, fmt.Errorf("%w: %d labels for %d probability rows", ErrCurve, len(actual), len(probs))
	}
	derived := len(classes) == 0
	if derived {
		classes = actual
	}
	classes = uniqueLabels(classes)
	if derived {
		sort.Strings(classes)
	}

	seen := map[float64]bool{}
	var thresholds []float64
	for i, row := range probs {
		if len(row) != len(classes) {
			return nil, fmt.Errorf("%w: row %d has %d probabilities for %d classes", ErrCurve, i, len(row), len(classes))
		}
		for _, p := range row {
			if !seen[p] {
				seen[p] = true
				thresholds = append(thresholds, p)
			}
		}
	}
	sort.Float64s(thresholds)

	c := &Curve{
		Kind:       kind,
		Classes:    classes,
		Thresholds: thresholds,
		points:     make(map[string][]point, len(classes)),
	}
	for k, class := range classes {
		scores := make([]float64, len(probs))
		positive := make([]bool, len(probs))
		npos := 0
		for i, row := range probs {
			scores[i] = row[k]
			positive[i] = actual[i] == class
			if positive[i] {
				npos++
			}
		}
		// One-class curves have no defined rates.
		if npos == 0 || npos == len(probs) {
			continue
		}
		switch kind {
		case ROC:
			c.points[class] = rocPoints(scores, positive)
		case PR:
			c.points[class] = prPoints(scores, positive, thresholds)
		}
	}
	return c, nil
}

func uniqueLabels(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, l := range in {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

// rocPoints returns (FPR, TPR) at every distinct score.
func rocPoints(scores []float64, positive []bool) []point {
	y := append([]float64(nil), scores...)
	labels := append([]bool(nil), positive...)
	stat.SortWeightedLabeled(y, labels, nil)
	tpr, fpr, _ := stat.ROC(nil, y, labels, nil)
	pts := make([]point, 0, len(tpr))
	for i := range tpr {
		pts = append(pts, point{fpr[i], tpr[i]})
	}
	return pts
}

// prPoints returns (TPR, PPV) at each threshold where something is
// predicted positive.
func prPoints(scores []float64, positive []bool, thresholds []float64) []point {
	var pts []point
	for _, t := range thresholds {
		var tp, fp, fn int
		for i, s := range scores {
			predicted := s >= t
			switch {
			case positive[i] && predicted:
				tp++
			case predicted:
				fp++
			case positive[i]:
				fn++
			}
		}
		tpr, ppv := ratio(tp, tp+fn), ratio(tp, tp+fp)
		if tpr.Valid && ppv.Valid {
			pts = append(pts, point{tpr.Value, ppv.Value})
		}
	}
	return pts
}

// Area returns the trapezoidal area under each class curve.  Classes whose
// curve is undefined (no positive or no negative samples) are left out.
func (c *Curve) Area() map[string]float64 {
	out := make(map[string]float64, len(c.Classes))
	for _, class := range c.Classes {
		pts := append([]point(nil), c.points[class]...)
		if len(pts) == 0 {
			continue
		}
		switch c.Kind {
		case ROC:
			pts = append(pts, point{0, 0}, point{1, 1})
			sort.Slice(pts, func(i, j int) bool {
				if pts[i].x != pts[j].x {
					return pts[i].x < pts[j].x
				}
				return pts[i].y < pts[j].y
			})
		case PR:
			pts = append(pts, point{0, 1})
			sort.Slice(pts, func(i, j int) bool {
				if pts[i].x != pts[j].x {
					return pts[i].x < pts[j].x
				}
				return pts[i].y > pts[j].y
			})
		}
		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for i, p := range pts {
			xs[i], ys[i] = p.x, p.y
		}
		out[class] = integrate.Trapezoidal(xs, ys)
	}
	return out
}
