package reporter

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RenderChart plots the metric series against elapsed minutes and saves a
// PNG to path.
func RenderChart(path, metricName string, points []MetricPoint) error {
	if len(points) == 0 {
		return fmt.Errorf("no metric points to plot")
	}

	p := plot.New()
	p.Title.Text = metricName
	p.X.Label.Text = "elapsed minutes"
	p.Y.Label.Text = metricName

	origin := points[0].Timestamp
	xys := make(plotter.XYs, len(points))
	for i, point := range points {
		xys[i].X = point.Timestamp.Sub(origin).Minutes()
		xys[i].Y = point.Value
	}

	line, scatter, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("build line plot: %w", err)
	}
	p.Add(line, scatter)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifacts directory: %w", err)
	}
	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}
