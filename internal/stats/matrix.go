// Package stats computes classification-evaluation artifacts: confusion
// matrices and their summary metrics, ROC/PR curves, multi-label
// decompositions and comparisons between matrices.  It also renders a
// matrix as an HTML report or a PNG plot and (de)serializes it.
package stats

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	// ErrVector is returned for empty or mismatched actual/predicted vectors.
	ErrVector = errors.New("stats: invalid actual/predicted vectors")
	// ErrCompare is returned when matrices cannot be compared.
	ErrCompare = errors.New("stats: invalid comparison input")
	// ErrCurve is returned for malformed curve input.
	ErrCurve = errors.New("stats: invalid curve input")
)

// ConfusionMatrix counts predictions per (actual, predicted) class pair.
// Matrix[i][j] is the number of samples of class Classes[i] predicted as
// Classes[j].
type ConfusionMatrix struct {
	Actual    []float64
	Predicted []float64
	Classes   []float64
	Matrix    [][]int
}

// New builds a confusion matrix whose classes are the sorted union of the
// labels present in either vector.
func New(actual, predicted []float64) (*ConfusionMatrix, error) {
	if err := checkVectors(len(actual), len(predicted)); err != nil {
		return nil, err
	}
	seen := make(map[float64]bool)
	var classes []float64
	for _, v := range append(append([]float64{}, actual...), predicted...) {
		if !seen[v] {
			seen[v] = true
			classes = append(classes, v)
		}
	}
	sort.Float64s(classes)
	return NewWithClasses(actual, predicted, classes)
}

// NewWithClasses builds a confusion matrix over a fixed class list, so
// classes without samples still get a row and a column.
func NewWithClasses(actual, predicted, classes []float64) (*ConfusionMatrix, error) {
	if err := checkVectors(len(actual), len(predicted)); err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("%w: no classes", ErrVector)
	}
	index := make(map[float64]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	m := make([][]int, len(classes))
	for i := range m {
		m[i] = make([]int, len(classes))
	}
	for k := range actual {
		i, ok := index[actual[k]]
		if !ok {
			return nil, fmt.Errorf("%w: label %v not in classes", ErrVector, actual[k])
		}
		j, ok := index[predicted[k]]
		if !ok {
			return nil, fmt.Errorf("%w: label %v not in classes", ErrVector, predicted[k])
		}
		m[i][j]++
	}
	return &ConfusionMatrix{
		Actual:    append([]float64(nil), actual...),
		Predicted: append([]float64(nil), predicted...),
		Classes:   append([]float64(nil), classes...),
		Matrix:    m,
	}, nil
}

func checkVectors(na, np int) error {
	if na == 0 || np == 0 {
		return fmt.Errorf("%w: vectors must not be empty", ErrVector)
	}
	if na != np {
		return fmt.Errorf("%w: actual has %d items, predicted has %d", ErrVector, na, np)
	}
	return nil
}

// ClassName formats a numeric label the way it appears in reports and
// comparison output: "1", "0", "2.5".
func ClassName(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Array returns a copy of the raw matrix.
func (cm *ConfusionMatrix) Array() [][]int {
	out := make([][]int, len(cm.Matrix))
	for i, row := range cm.Matrix {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// Population is the total number of samples.
func (cm *ConfusionMatrix) Population() int {
	n := 0
	for _, row := range cm.Matrix {
		for _, v := range row {
			n += v
		}
	}
	return n
}

// TP, FP, FN and TN are the one-vs-rest counts for class index i.
func (cm *ConfusionMatrix) TP(i int) int { return cm.Matrix[i][i] }

func (cm *ConfusionMatrix) FP(i int) int {
	n := 0
	for r := range cm.Matrix {
		n += cm.Matrix[r][i]
	}
	return n - cm.Matrix[i][i]
}

func (cm *ConfusionMatrix) FN(i int) int {
	n := 0
	for _, v := range cm.Matrix[i] {
		n += v
	}
	return n - cm.Matrix[i][i]
}

func (cm *ConfusionMatrix) TN(i int) int {
	return cm.Population() - cm.TP(i) - cm.FP(i) - cm.FN(i)
}

// OverallACC is the share of samples on the diagonal.
func (cm *ConfusionMatrix) OverallACC() float64 {
	total := cm.Population()
	if total == 0 {
		return 0
	}
	diag := 0
	for i := range cm.Matrix {
		diag += cm.Matrix[i][i]
	}
	return float64(diag) / float64(total)
}

// Metric is a value that may be undefined, e.g. a precision whose
// denominator is zero.
type Metric struct {
	Value float64
	Valid bool
}

// Ptr returns nil for an undefined metric so it encodes as JSON null.
func (m Metric) Ptr() *float64 {
	if !m.Valid {
		return nil
	}
	v := m.Value
	return &v
}

func ratio(num, den int) Metric {
	if den == 0 {
		return Metric{}
	}
	return Metric{Value: float64(num) / float64(den), Valid: true}
}

// PPV is the precision of class index i.
func (cm *ConfusionMatrix) PPV(i int) Metric { return ratio(cm.TP(i), cm.TP(i)+cm.FP(i)) }

// TPR is the recall of class index i.
func (cm *ConfusionMatrix) TPR(i int) Metric { return ratio(cm.TP(i), cm.TP(i)+cm.FN(i)) }

// TNR is the specificity of class index i.
func (cm *ConfusionMatrix) TNR(i int) Metric { return ratio(cm.TN(i), cm.TN(i)+cm.FP(i)) }

// F1 of class index i.
func (cm *ConfusionMatrix) F1(i int) Metric {
	return ratio(2*cm.TP(i), 2*cm.TP(i)+cm.FP(i)+cm.FN(i))
}

// ACC is the one-vs-rest accuracy of class index i.
func (cm *ConfusionMatrix) ACC(i int) Metric {
	return ratio(cm.TP(i)+cm.TN(i), cm.Population())
}

// macro averages a per-class metric.  A single undefined class makes the
// average undefined.
func (cm *ConfusionMatrix) macro(f func(int) Metric) Metric {
	sum := 0.0
	for i := range cm.Classes {
		m := f(i)
		if !m.Valid {
			return Metric{}
		}
		sum += m.Value
	}
	return Metric{Value: sum / float64(len(cm.Classes)), Valid: true}
}

func (cm *ConfusionMatrix) PPVMacro() Metric { return cm.macro(cm.PPV) }
func (cm *ConfusionMatrix) TPRMacro() Metric { return cm.macro(cm.TPR) }
func (cm *ConfusionMatrix) F1Macro() Metric  { return cm.macro(cm.F1) }
