// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"io"
	"os"

	chart "github.com/wcharczuk/go-chart/v2"
)

func chartValues(counts []Count) []chart.Value {
	values := make([]chart.Value, len(counts))
	for i, c := range counts {
		values[i] = chart.Value{Label: c.Label, Value: float64(c.N)}
	}
	return values
}

// BarChart draws counts as a PNG bar chart. It writes nothing and
// returns false when counts is empty.
func BarChart(path, title string, counts []Count) (bool, error) {
	if len(counts) == 0 {
		return false, nil
	}
	top := 0
	for _, c := range counts {
		top = max(top, c.N)
	}

	graph := chart.BarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 40, Bottom: 20}},
		Width:      1024,
		Height:     512,
		BarWidth:   60,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(top)},
		},
		Bars: chartValues(counts),
	}
	return true, renderPNG(path, graph.Render)
}

// PieChart draws counts as a PNG pie chart. It writes nothing and
// returns false when counts is empty.
func PieChart(path, title string, counts []Count) (bool, error) {
	if len(counts) == 0 {
		return false, nil
	}
	graph := chart.PieChart{
		Title:  title,
		Width:  512,
		Height: 512,
		Values: chartValues(counts),
	}
	return true, renderPNG(path, graph.Render)
}

func renderPNG(path string, render func(chart.RendererProvider, io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(chart.PNG, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
