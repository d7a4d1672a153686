// Package charts renders evaluation artifacts to image files.
package charts

import (
	"errors"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/flowsift/flowsift/pkg/evaluation"
)

// SaveImportances renders a bar chart of ranked feature importances to
// path. The output format follows the file extension (png, svg, pdf).
func SaveImportances(ranked []evaluation.FeatureScore, path string) error {
	if len(ranked) == 0 {
		return errors.New("charts: no features to plot")
	}

	p := plot.New()
	p.Title.Text = "Feature importances"
	p.Y.Label.Text = "importance"

	values := make(plotter.Values, len(ranked))
	names := make([]string, len(ranked))
	for i, fs := range ranked {
		values[i] = fs.Score
		names[i] = fs.Name
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = 0

	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = 0.9
	p.X.Tick.Label.XAlign = -0.9

	width := vg.Length(len(ranked)) * vg.Points(40)
	if width < 4*vg.Inch {
		width = 4 * vg.Inch
	}
	return p.Save(width, 4*vg.Inch, path)
}
