package stats

import (
	"fmt"
	"html/template"
	"io"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Confusion Matrix Report</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 2em; }
td, th { border: 1px solid #999; padding: 4px 10px; text-align: center; }
th { background: #eee; }
</style>
</head>
<body>
<h1>Confusion Matrix Report</h1>
<h2>Matrix</h2>
<table>
<tr><th>Actual \ Predict</th>{{range .Classes}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr><th>{{.Class}}</th>{{range .Counts}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
<h2>Overall Statistics</h2>
<table>
{{range .Overall}}<tr><th>{{.Name}}</th><td>{{.Value}}</td></tr>
{{end}}</table>
<h2>Class Statistics</h2>
<table>
<tr><th>Class</th><th>TP</th><th>FP</th><th>FN</th><th>TN</th><th>ACC</th><th>PPV</th><th>TPR</th><th>TNR</th><th>F1</th></tr>
{{range .PerClass}}<tr><th>{{.Class}}</th><td>{{.TP}}</td><td>{{.FP}}</td><td>{{.FN}}</td><td>{{.TN}}</td><td>{{.ACC}}</td><td>{{.PPV}}</td><td>{{.TPR}}</td><td>{{.TNR}}</td><td>{{.F1}}</td></tr>
{{end}}</table>
</body>
</html>
`))

type reportRow struct {
	Class  string
	Counts []int
}

type reportStat struct {
	Name  string
	Value string
}

type reportClass struct {
	Class                  string
	TP, FP, FN, TN         int
	ACC, PPV, TPR, TNR, F1 string
}

func formatMetric(m Metric) string {
	if !m.Valid {
		return "None"
	}
	return fmt.Sprintf("%.5f", m.Value)
}

// RenderHTML writes a self-contained HTML report.  The output depends only
// on the matrix, so rendering the same matrix twice yields identical bytes.
func (cm *ConfusionMatrix) RenderHTML(w io.Writer) error {
	data := struct {
		Classes  []string
		Rows     []reportRow
		Overall  []reportStat
		PerClass []reportClass
	}{}
	for i, c := range cm.Classes {
		name := ClassName(c)
		data.Classes = append(data.Classes, name)
		data.Rows = append(data.Rows, reportRow{Class: name, Counts: cm.Matrix[i]})
		data.PerClass = append(data.PerClass, reportClass{
			Class: name,
			TP:    cm.TP(i),
			FP:    cm.FP(i),
			FN:    cm.FN(i),
			TN:    cm.TN(i),
			ACC:   formatMetric(cm.ACC(i)),
			PPV:   formatMetric(cm.PPV(i)),
			TPR:   formatMetric(cm.TPR(i)),
			TNR:   formatMetric(cm.TNR(i)),
			F1:    formatMetric(cm.F1(i)),
		})
	}
	data.Overall = []reportStat{
		{"Population", fmt.Sprint(cm.Population())},
		{"Overall ACC", fmt.Sprintf("%.5f", cm.OverallACC())},
		{"PPV Macro", formatMetric(cm.PPVMacro())},
		{"TPR Macro", formatMetric(cm.TPRMacro())},
		{"F1 Macro", formatMetric(cm.F1Macro())},
	}
	return reportTmpl.Execute(w, data)
}

const (
	plotCell   = 60 // points per matrix cell
	plotMargin = 120
)

// matrixGrid adapts a confusion matrix to plotter.GridXYZ.  Row 0 of the
// matrix is drawn at the top.
type matrixGrid struct{ cm *ConfusionMatrix }

func (g matrixGrid) Dims() (c, r int) {
	n := len(g.cm.Classes)
	return n, n
}

func (g matrixGrid) X(c int) float64 { return float64(c) }
func (g matrixGrid) Y(r int) float64 { return float64(r) }

func (g matrixGrid) Z(c, r int) float64 {
	n := len(g.cm.Classes)
	return float64(g.cm.Matrix[n-1-r][c])
}

// RenderPNG draws the matrix as an annotated heat map: predicted classes
// along x, actual classes along y, the count printed in every cell.  The
// image grows with the number of classes.
func (cm *ConfusionMatrix) RenderPNG(w io.Writer) error {
	n := len(cm.Classes)
	if n == 0 {
		return fmt.Errorf("%w: empty matrix", ErrVector)
	}
	p := plot.New()
	p.Title.Text = "Confusion Matrix"
	p.X.Label.Text = "Predicted"
	p.Y.Label.Text = "Actual"

	peak := 0
	for _, row := range cm.Matrix {
		for _, v := range row {
			peak = max(peak, v)
		}
	}
	hm := plotter.NewHeatMap(matrixGrid{cm}, palette.Heat(12, 1))
	hm.Min, hm.Max = 0, float64(max(peak, 1))
	p.Add(hm)

	xticks := make([]plot.Tick, n)
	yticks := make([]plot.Tick, n)
	cells := plotter.XYLabels{XYs: make(plotter.XYs, 0, n*n), Labels: make([]string, 0, n*n)}
	for i, class := range cm.Classes {
		name := ClassName(class)
		xticks[i] = plot.Tick{Value: float64(i), Label: name}
		yticks[n-1-i] = plot.Tick{Value: float64(n - 1 - i), Label: name}
		for j, v := range cm.Matrix[i] {
			cells.XYs = append(cells.XYs, plotter.XY{X: float64(j), Y: float64(n - 1 - i)})
			cells.Labels = append(cells.Labels, strconv.Itoa(v))
		}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xticks)
	p.Y.Tick.Marker = plot.ConstantTicks(yticks)

	labels, err := plotter.NewLabels(cells)
	if err != nil {
		return fmt.Errorf("plot labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)

	side := vg.Length(plotMargin + plotCell*n)
	canvas := vgimg.New(side, side)
	p.Draw(draw.New(canvas))
	_, err = vgimg.PngCanvas{Canvas: canvas}.WriteTo(w)
	return err
}
