package stats

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// Score rates one matrix in a comparison.  Class is the macro F1 with
// undefined classes counted as zero; Overall is the overall accuracy.
type Score struct {
	Class   float64 `json:"class"`
	Overall float64 `json:"overall"`
}

// Comparison ranks a set of named matrices.
type Comparison struct {
	Scores   map[string]Score
	BestName string // empty when no matrix wins on both scores
	Sorted   []string
}

// Compare scores each named matrix.  At least two matrices over the same
// class set are required.
func Compare(cms map[string]*ConfusionMatrix) (*Comparison, error) {
	if len(cms) < 2 {
		return nil, fmt.Errorf("%w: need at least two matrices, got %d", ErrCompare, len(cms))
	}
	names := make([]string, 0, len(cms))
	for name := range cms {
		names = append(names, name)
	}
	sort.Strings(names)

	ref := cms[names[0]].Classes
	res := &Comparison{Scores: make(map[string]Score, len(cms))}
	for _, name := range names {
		cm := cms[name]
		if !slices.Equal(cm.Classes, ref) {
			return nil, fmt.Errorf("%w: %q has a different class set", ErrCompare, name)
		}
		res.Scores[name] = Score{Class: round5(classScore(cm)), Overall: round5(cm.OverallACC())}
	}

	res.Sorted = append([]string(nil), names...)
	sort.SliceStable(res.Sorted, func(i, j int) bool {
		a, b := res.Scores[res.Sorted[i]], res.Scores[res.Sorted[j]]
		if a.Class != b.Class {
			return a.Class > b.Class
		}
		return a.Overall > b.Overall
	})

	bestClass, okClass := uniqueMax(names, func(n string) float64 { return res.Scores[n].Class })
	bestOverall, okOverall := uniqueMax(names, func(n string) float64 { return res.Scores[n].Overall })
	if okClass && okOverall && bestClass == bestOverall {
		res.BestName = bestClass
	}
	return res, nil
}

func classScore(cm *ConfusionMatrix) float64 {
	sum := 0.0
	for i := range cm.Classes {
		if f := cm.F1(i); f.Valid {
			sum += f.Value
		}
	}
	return sum / float64(len(cm.Classes))
}

// uniqueMax returns the name with the strictly largest value, if any.
func uniqueMax(names []string, val func(string) float64) (string, bool) {
	best, count := math.Inf(-1), 0
	var name string
	for _, n := range names {
		switch v := val(n); {
		case v > best:
			best, count, name = v, 1, n
		case v == best:
			count++
		}
	}
	return name, count == 1
}

func round5(v float64) float64 { return math.Round(v*1e5) / 1e5 }
