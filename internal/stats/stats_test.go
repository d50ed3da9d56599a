package stats

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleMatrix(t *testing.T) *ConfusionMatrix {
	t.Helper()
	cm, err := New([]float64{1, 0, 1, 1}, []float64{1, 0, 0, 1})
	require.NoError(t, err)
	return cm
}

func TestNew_BinaryExample(t *testing.T) {
	cm := exampleMatrix(t)

	assert.Equal(t, []float64{0, 1}, cm.Classes)
	assert.Equal(t, [][]int{{1, 0}, {1, 2}}, cm.Array())
	assert.Equal(t, 4, cm.Population())

	acc := cm.OverallACC()
	assert.Greater(t, acc, 0.0)
	assert.Less(t, acc, 1.0)
	assert.InDelta(t, 0.75, acc, 1e-9)

	assert.InDelta(t, 0.75, cm.PPVMacro().Value, 1e-9)
	assert.InDelta(t, (1.0+2.0/3.0)/2, cm.TPRMacro().Value, 1e-9)
	assert.InDelta(t, (2.0/3.0+0.8)/2, cm.F1Macro().Value, 1e-9)
}

func TestNew_IdenticalInputsGiveIdenticalStats(t *testing.T) {
	a := exampleMatrix(t)
	b := exampleMatrix(t)

	assert.Equal(t, a.Array(), b.Array())
	assert.Equal(t, a.OverallACC(), b.OverallACC())
	assert.Equal(t, a.F1Macro(), b.F1Macro())
}

func TestNew_VectorErrors(t *testing.T) {
	_, err := New(nil, nil)
	assert.True(t, errors.Is(err, ErrVector))

	_, err = New([]float64{1, 2}, []float64{1})
	assert.True(t, errors.Is(err, ErrVector))

	_, err = NewWithClasses([]float64{3}, []float64{0}, []float64{0, 1})
	assert.True(t, errors.Is(err, ErrVector))
}

func TestMacro_UndefinedWhenAClassHasNoPredictions(t *testing.T) {
	cm, err := New([]float64{0, 1, 2}, []float64{0, 1, 1})
	require.NoError(t, err)

	assert.False(t, cm.PPVMacro().Valid, "class 2 is never predicted")
	assert.Nil(t, cm.PPVMacro().Ptr())
	assert.True(t, cm.TPRMacro().Valid)
	assert.NotNil(t, cm.TPRMacro().Ptr())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	cm := exampleMatrix(t)

	var buf bytes.Buffer
	require.NoError(t, cm.Save(&buf))

	got, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, cm.Array(), got.Array())
	assert.Equal(t, cm.Classes, got.Classes)
}

func TestLoad_Garbage(t *testing.T) {
	_, err := Load(bytes.NewBufferString("not json"))
	assert.Error(t, err)
}

func TestRenderHTML_Deterministic(t *testing.T) {
	cm := exampleMatrix(t)

	var a, b bytes.Buffer
	require.NoError(t, cm.RenderHTML(&a))
	require.NoError(t, cm.RenderHTML(&b))

	assert.Equal(t, a.Bytes(), b.Bytes())
	assert.Contains(t, a.String(), "Overall ACC")
	assert.Contains(t, a.String(), "0.75000")
}

func decodePNGBounds(t *testing.T, cm *ConfusionMatrix) (int, int) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, cm.RenderPNG(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestRenderPNG_GrowsWithClassCount(t *testing.T) {
	w2, h2 := decodePNGBounds(t, exampleMatrix(t))
	assert.Equal(t, w2, h2)

	four, err := New([]float64{0, 1, 2, 3, 3}, []float64{0, 1, 2, 3, 2})
	require.NoError(t, err)
	w4, h4 := decodePNGBounds(t, four)
	assert.Equal(t, w4, h4)
	assert.Greater(t, w4, w2)

	single, err := New([]float64{1, 1}, []float64{1, 1})
	require.NoError(t, err)
	w1, _ := decodePNGBounds(t, single)
	assert.Less(t, w1, w2)
}

func TestCurve_PerfectSeparation(t *testing.T) {
	actual := []string{"a", "b"}
	probs := [][]float64{{0.9, 0.1}, {0.2, 0.8}}

	roc, err := NewCurve(ROC, actual, probs, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.8, 0.9}, roc.Thresholds)
	area := roc.Area()
	assert.InDelta(t, 1.0, area["a"], 1e-9)
	assert.InDelta(t, 1.0, area["b"], 1e-9)

	pr, err := NewCurve(PR, actual, probs, []string{"a", "b"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, pr.Area()["a"], 1e-9)
	assert.InDelta(t, 1.0, pr.Area()["b"], 1e-9)
}

func TestCurve_InvertedScoresGiveZeroROC(t *testing.T) {
	roc, err := NewCurve(ROC, []string{"a", "b"}, [][]float64{{0.1, 0.9}, {0.8, 0.2}}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, roc.Area()["a"], 1e-9)
}

func TestCurve_PartialOverlapAreas(t *testing.T) {
	actual := []string{"1", "0", "1", "0"}
	probs := [][]float64{{.1, .9}, {.4, .6}, {.6, .4}, {.8, .2}}

	roc, err := NewCurve(ROC, actual, probs, []string{"0", "1"})
	require.NoError(t, err)
	area := roc.Area()
	assert.InDelta(t, 0.75, area["0"], 1e-9)
	assert.InDelta(t, 0.75, area["1"], 1e-9)

	pr, err := NewCurve(PR, actual, probs, []string{"0", "1"})
	require.NoError(t, err)
	area = pr.Area()
	assert.InDelta(t, 0.79167, area["0"], 1e-4)
	assert.InDelta(t, 0.79167, area["1"], 1e-4)
}

func TestCurve_RepeatedClassesAreDropped(t *testing.T) {
	actual := []string{"1", "0", "1", "0"}
	probs := [][]float64{{.1, .9}, {.4, .6}, {.6, .4}, {.8, .2}}

	for _, kind := range []CurveKind{ROC, PR} {
		clean, err := NewCurve(kind, actual, probs, []string{"0", "1"})
		require.NoError(t, err)
		repeated, err := NewCurve(kind, actual, probs, []string{"0", "1", "0", "1"})
		require.NoError(t, err)

		assert.Equal(t, []string{"0", "1"}, repeated.Classes)
		assert.Equal(t, clean.Area(), repeated.Area(), string(kind))
	}
}

func TestCurve_OneClassIsOmitted(t *testing.T) {
	roc, err := NewCurve(ROC, []string{"a", "a"}, [][]float64{{0.9, 0.1}, {0.3, 0.7}}, []string{"a", "b"})
	require.NoError(t, err)
	assert.Empty(t, roc.Area())
}

func TestCurve_Errors(t *testing.T) {
	_, err := NewCurve("DET", []string{"a"}, [][]float64{{1}}, nil)
	assert.True(t, errors.Is(err, ErrCurve))

	_, err = NewCurve(ROC, []string{"a", "b"}, [][]float64{{1, 0}}, nil)
	assert.True(t, errors.Is(err, ErrCurve))

	_, err = NewCurve(ROC, []string{"a", "b"}, [][]float64{{1, 0}, {1}}, nil)
	assert.True(t, errors.Is(err, ErrCurve))
}

func TestLabels_UnmarshalMixed(t *testing.T) {
	var l Labels
	require.NoError(t, json.Unmarshal([]byte(`["cat", 1, 2.5]`), &l))
	assert.Equal(t, Labels{"cat", "1", "2.5"}, l)

	assert.Error(t, json.Unmarshal([]byte(`[true]`), &l))
}

func TestMultiLabel_Decomposition(t *testing.T) {
	ml, err := NewMultiLabel(
		[][]string{{"a"}, {"a", "b"}},
		[][]string{{"a"}, {"b"}},
		nil,
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, ml.Classes)
	assert.Equal(t, [][]int{{1, 0}, {1, 1}}, ml.ActualMultihot)
	assert.Equal(t, [][]int{{1, 0}, {0, 1}}, ml.PredictMultihot)

	byA, err := ml.ByClass("a")
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 0}, {1, 1}}, byA.Array())

	s0, err := ml.BySample(0)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 0}, {0, 1}}, s0.Array())

	s1, err := ml.BySample(1)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 0}, {1, 1}}, s1.Array())

	_, err = ml.ByClass("z")
	assert.True(t, errors.Is(err, ErrVector))
	_, err = ml.BySample(2)
	assert.True(t, errors.Is(err, ErrVector))
}

func TestMultiLabel_ExplicitClassesIgnoreUnknownLabels(t *testing.T) {
	ml, err := NewMultiLabel([][]string{{"a", "x"}}, [][]string{{"b"}}, []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}}, ml.ActualMultihot)
	assert.Equal(t, [][]int{{1, 0}}, ml.PredictMultihot)
}

func TestCompare_RanksBest(t *testing.T) {
	perfect, err := New([]float64{1, 0, 1, 1}, []float64{1, 0, 1, 1})
	require.NoError(t, err)
	worse := exampleMatrix(t)

	res, err := Compare(map[string]*ConfusionMatrix{"p:1": perfect, "w:2": worse})
	require.NoError(t, err)

	assert.Equal(t, "p:1", res.BestName)
	assert.Equal(t, []string{"p:1", "w:2"}, res.Sorted)
	assert.Equal(t, Score{Class: 1, Overall: 1}, res.Scores["p:1"])
	assert.Equal(t, Score{Class: 0.73333, Overall: 0.75}, res.Scores["w:2"])
}

func TestCompare_TieHasNoBest(t *testing.T) {
	res, err := Compare(map[string]*ConfusionMatrix{"b": exampleMatrix(t), "a": exampleMatrix(t)})
	require.NoError(t, err)
	assert.Empty(t, res.BestName)
	assert.Equal(t, []string{"a", "b"}, res.Sorted)
}

func TestCompare_Errors(t *testing.T) {
	_, err := Compare(map[string]*ConfusionMatrix{"only": exampleMatrix(t)})
	assert.True(t, errors.Is(err, ErrCompare))

	other, err := New([]float64{2, 3}, []float64{2, 3})
	require.NoError(t, err)
	_, err = Compare(map[string]*ConfusionMatrix{"a": exampleMatrix(t), "b": other})
	assert.True(t, errors.Is(err, ErrCompare))
}
