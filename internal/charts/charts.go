// Package charts renders the per-product PNG charts: the recommendation
// proportions pie and the reviews-per-star-value bar chart.
package charts

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/stats"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// ErrNoData is returned when a product has no reviews to plot.
var ErrNoData = errors.New("nothing to plot")

var (
	colorDoesNotRecommend = drawing.ColorFromHex("DC143C") // crimson
	colorRecommends       = drawing.ColorFromHex("228B22") // forestgreen
	colorUnset            = drawing.ColorFromHex("D3D3D3") // lightgrey
	colorBar              = drawing.ColorFromHex("FFA500") // orange
)

// Paths are the files written for one product.
type Paths struct {
	Pie string `json:"pie"`
	Bar string `json:"bar"`
}

// Renderer writes chart images into a directory.
type Renderer struct {
	cfg    config.ChartsConfig
	logger *slog.Logger
}

// NewRenderer creates a chart renderer.
func NewRenderer(cfg config.ChartsConfig, logger *slog.Logger) *Renderer {
	return &Renderer{
		cfg:    cfg,
		logger: logger.With("component", "charts"),
	}
}

// PiePath returns where the pie chart of a product is written.
func (r *Renderer) PiePath(productID string) string {
	return filepath.Join(r.cfg.OutputDir, productID+"_pie.png")
}

// BarPath returns where the bar chart of a product is written.
func (r *Renderer) BarPath(productID string) string {
	return filepath.Join(r.cfg.OutputDir, productID+"_bar.png")
}

// Render draws both charts of a product. The pie uses the stored summary and
// the bar chart counts star values over the stored reviews.
func (r *Renderer) Render(product *types.Product, reviews []types.Review) (*Paths, error) {
	if product.Stats.Recommendations.Total() == 0 || len(reviews) == 0 {
		return nil, fmt.Errorf("%w: product %s", ErrNoData, product.ID)
	}
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create charts dir: %w", err)
	}

	paths := &Paths{Pie: r.PiePath(product.ID), Bar: r.BarPath(product.ID)}

	if err := writeChart(paths.Pie, func(w io.Writer) error {
		return r.pie(product).Render(chart.PNG, w)
	}); err != nil {
		return nil, fmt.Errorf("render pie chart: %w", err)
	}
	if err := writeChart(paths.Bar, func(w io.Writer) error {
		return r.bar(product.ID, stats.StarCounts(reviews)).Render(chart.PNG, w)
	}); err != nil {
		return nil, fmt.Errorf("render bar chart: %w", err)
	}

	r.logger.Info("charts rendered", "product_id", product.ID, "pie", paths.Pie, "bar", paths.Bar)
	return paths, nil
}

func (r *Renderer) pie(product *types.Product) chart.PieChart {
	rec := product.Stats.Recommendations
	total := float64(rec.Total())

	slices := []struct {
		label string
		count int
		color drawing.Color
	}{
		{"Nie polecam", rec.DoesNotRecommend, colorDoesNotRecommend},
		{"Polecam", rec.Recommends, colorRecommends},
		{"Nie mam zdania", rec.Unset, colorUnset},
	}

	values := make([]chart.Value, 0, len(slices))
	for _, s := range slices {
		if s.count == 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: float64(s.count),
			Label: fmt.Sprintf("%s %.1f%%", s.label, 100*float64(s.count)/total),
			Style: chart.Style{FillColor: s.color, StrokeColor: drawing.ColorWhite},
		})
	}

	return chart.PieChart{
		Title:  "Rozkład rekomendacji w opiniach o produkcie " + product.ID,
		Width:  r.cfg.Width,
		Height: r.cfg.Height,
		Values: values,
	}
}

func (r *Renderer) bar(productID string, counts []stats.StarCount) chart.BarChart {
	bars := make([]chart.Value, len(counts))
	for i, c := range counts {
		bars[i] = chart.Value{
			Value: float64(c.Count),
			Label: strconv.FormatFloat(c.Stars, 'f', -1, 64),
			Style: chart.Style{FillColor: colorBar, StrokeColor: colorBar},
		}
	}

	maxCount := 1
	for _, c := range counts {
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}

	barWidth := r.cfg.Width / (2*len(bars) + 1)
	if barWidth < 10 {
		barWidth = 10
	}

	return chart.BarChart{
		Title:  "Liczba opinii z poszczególną liczbą gwiazdek dla produktu " + productID,
		Width:  r.cfg.Width,
		Height: r.cfg.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		BarWidth: barWidth,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount)},
		},
		Bars: bars,
	}
}

func writeChart(path string, render func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
