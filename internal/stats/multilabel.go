package stats

import (
	"fmt"
	"sort"
)

var binaryClasses = []float64{0, 1}

// MultiLabel decomposes multi-label results into multihot encodings from
// which per-class and per-sample binary confusion matrices are derived.
type MultiLabel struct {
	Classes         []string
	ActualMultihot  [][]int
	PredictMultihot [][]int
	classIndex      map[string]int
}

// NewMultiLabel encodes each sample's label set against classes.  When
// classes is empty the sorted union of all labels is used; labels outside
// an explicit class list are ignored.
func NewMultiLabel(actual, predicted [][]string, classes []string) (*MultiLabel, error) {
	if err := checkVectors(len(actual), len(predicted)); err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		seen := map[string]bool{}
		for _, set := range append(append([][]string{}, actual...), predicted...) {
			for _, l := range set {
				if !seen[l] {
					seen[l] = true
					classes = append(classes, l)
				}
			}
		}
		sort.Strings(classes)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("%w: no labels", ErrVector)
	}
	ml := &MultiLabel{
		Classes:    append([]string(nil), classes...),
		classIndex: make(map[string]int, len(classes)),
	}
	for i, c := range ml.Classes {
		ml.classIndex[c] = i
	}
	ml.ActualMultihot = ml.encode(actual)
	ml.PredictMultihot = ml.encode(predicted)
	return ml, nil
}

func (ml *MultiLabel) encode(samples [][]string) [][]int {
	out := make([][]int, len(samples))
	for i, set := range samples {
		row := make([]int, len(ml.Classes))
		for _, l := range set {
			if k, ok := ml.classIndex[l]; ok {
				row[k] = 1
			}
		}
		out[i] = row
	}
	return out
}

// Samples is the number of encoded samples.
func (ml *MultiLabel) Samples() int { return len(ml.ActualMultihot) }

// ByClass returns the binary matrix of one class across all samples.
func (ml *MultiLabel) ByClass(class string) (*ConfusionMatrix, error) {
	k, ok := ml.classIndex[class]
	if !ok {
		return nil, fmt.Errorf("%w: unknown class %q", ErrVector, class)
	}
	actual := make([]float64, ml.Samples())
	predicted := make([]float64, ml.Samples())
	for i := range ml.ActualMultihot {
		actual[i] = float64(ml.ActualMultihot[i][k])
		predicted[i] = float64(ml.PredictMultihot[i][k])
	}
	return NewWithClasses(actual, predicted, binaryClasses)
}

// BySample returns the binary matrix of one sample across all classes.
func (ml *MultiLabel) BySample(i int) (*ConfusionMatrix, error) {
	if i < 0 || i >= ml.Samples() {
		return nil, fmt.Errorf("%w: sample %d out of range", ErrVector, i)
	}
	actual := make([]float64, len(ml.Classes))
	predicted := make([]float64, len(ml.Classes))
	for k := range ml.Classes {
		actual[k] = float64(ml.ActualMultihot[i][k])
		predicted[k] = float64(ml.PredictMultihot[i][k])
	}
	return NewWithClasses(actual, predicted, binaryClasses)
}
