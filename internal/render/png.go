// Package render draws models.Chart values as PNG images.
package render

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"sales-insights/internal/errors"
	"sales-insights/internal/models"
)

const (
	DefaultWidth  = 1024
	DefaultHeight = 512

	maxTicks   = 12
	minDot     = 4.0
	maxDot     = 18.0
	barSpacing = 12
)

type PNGRenderer struct {
	Width  int
	Height int
}

func NewPNGRenderer(width, height int) PNGRenderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return PNGRenderer{Width: width, Height: height}
}

// Bytes renders c into memory so that callers can decide on headers only
// after rendering succeeded.
func (r PNGRenderer) Bytes(c models.Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r PNGRenderer) Render(w io.Writer, c models.Chart) error {
	if !hasPoints(c) {
		return errors.InsufficientData("chart %q has no data to draw", c.Name)
	}

	var err error
	switch c.Kind {
	case models.ChartLine:
		err = r.line(w, c)
	case models.ChartScatter:
		err = r.scatter(w, c)
	case models.ChartPie:
		err = r.pie(w, c)
	case models.ChartBar:
		if len(c.Series) == 1 {
			err = r.bar(w, c)
		} else {
			err = r.stackedBar(w, c)
		}
	default:
		return errors.BadRequest(fmt.Sprintf("unsupported chart kind %q", c.Kind))
	}

	if err != nil {
		// go-chart refuses degenerate ranges, e.g. a single month of data.
		return errors.Wrap(err, errors.CodeInsufficientData, fmt.Sprintf("render chart %q", c.Name))
	}
	return nil
}

func (r PNGRenderer) line(w io.Writer, c models.Chart) error {
	graph := r.base(c)
	for i, s := range c.Series {
		xs, ys := values(s.Points)
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name: s.Name,
			Style: chart.Style{
				StrokeColor: chart.GetDefaultColor(i),
				StrokeWidth: 2,
				DotColor:    chart.GetDefaultColor(i),
				DotWidth:    3,
			},
			XValues: xs,
			YValues: ys,
		})
	}
	graph.XAxis.Ticks = labelTicks(c.Series[0].Points)
	if len(c.Series) > 1 {
		graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	}
	return graph.Render(chart.PNG, w)
}

// scatter draws one dot per point, sized by Size relative to the largest
// point in the chart.
func (r PNGRenderer) scatter(w io.Writer, c models.Chart) error {
	largest := 0.0
	for _, s := range c.Series {
		for _, p := range s.Points {
			largest = math.Max(largest, p.Size)
		}
	}

	graph := r.base(c)
	for i, s := range c.Series {
		xs, ys := values(s.Points)
		sizes := make([]float64, len(s.Points))
		for j, p := range s.Points {
			sizes[j] = dotSize(p.Size, largest)
		}

		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name: s.Name,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotColor:    chart.GetDefaultColor(i).WithAlpha(200),
				DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
					return sizes[index]
				},
			},
			XValues: xs,
			YValues: ys,
		})
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}
	return graph.Render(chart.PNG, w)
}

func (r PNGRenderer) pie(w io.Writer, c models.Chart) error {
	var vals []chart.Value
	for _, p := range c.Series[0].Points {
		vals = append(vals, chart.Value{Label: p.Label, Value: p.Y})
	}

	pie := chart.PieChart{
		Title:  c.Title,
		Width:  r.Height,
		Height: r.Height,
		Values: vals,
	}
	return pie.Render(chart.PNG, w)
}

func (r PNGRenderer) bar(w io.Writer, c models.Chart) error {
	var bars []chart.Value
	for _, p := range c.Series[0].Points {
		bars = append(bars, chart.Value{Label: p.Label, Value: p.Y})
	}

	bc := chart.BarChart{
		Title:      c.Title,
		Width:      r.Width,
		Height:     r.Height,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis:      chart.YAxis{Name: c.YLabel},
		Bars:       bars,
	}
	return bc.Render(chart.PNG, w)
}

// stackedBar turns one series per group member into one stacked bar per x
// position, which is how grouped month/product quantities read best.
func (r PNGRenderer) stackedBar(w io.Writer, c models.Chart) error {
	type column struct {
		x      float64
		label  string
		values []chart.Value
	}

	var columns []*column
	byX := make(map[float64]*column)
	for i, s := range c.Series {
		for _, p := range s.Points {
			col, ok := byX[p.X]
			if !ok {
				col = &column{x: p.X, label: p.Label}
				byX[p.X] = col
				columns = append(columns, col)
			}
			col.values = append(col.values, chart.Value{
				Label: s.Name,
				Value: p.Y,
				Style: chart.Style{
					FillColor:   chart.GetDefaultColor(i),
					StrokeColor: chart.GetDefaultColor(i),
				},
			})
		}
	}

	// Columns are discovered out of x order when the first series skips a month.
	slices.SortFunc(columns, func(a, b *column) int {
		return cmp.Compare(a.x, b.x)
	})

	bars := make([]chart.StackedBar, len(columns))
	for i, col := range columns {
		bars[i] = chart.StackedBar{Name: col.label, Values: col.values}
	}

	sbc := chart.StackedBarChart{
		Title:      c.Title,
		Width:      r.Width,
		Height:     r.Height,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Bars:       bars,
	}
	return sbc.Render(chart.PNG, w)
}

func (r PNGRenderer) base(c models.Chart) chart.Chart {
	return chart.Chart{
		Title:  c.Title,
		Width:  r.Width,
		Height: r.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{Name: c.XLabel},
		YAxis: chart.YAxis{
			Name: c.YLabel,
			GridMajorStyle: chart.Style{
				StrokeColor: drawing.ColorFromHex("e5e5e5"),
				StrokeWidth: 1,
			},
		},
	}
}

// labelTicks places at most maxTicks evenly spaced labels from points.
func labelTicks(points []models.ChartPoint) []chart.Tick {
	if len(points) == 0 || points[0].Label == "" {
		return nil
	}

	step := (len(points) + maxTicks - 1) / maxTicks
	var ticks []chart.Tick
	for i := 0; i < len(points); i += step {
		ticks = append(ticks, chart.Tick{Value: points[i].X, Label: points[i].Label})
	}
	return ticks
}

func values(points []models.ChartPoint) (xs, ys []float64) {
	xs = make([]float64, len(points))
	ys = make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}

func dotSize(size, largest float64) float64 {
	if largest <= 0 || size <= 0 {
		return minDot
	}
	return minDot + (maxDot-minDot)*math.Sqrt(size/largest)
}

func hasPoints(c models.Chart) bool {
	for _, s := range c.Series {
		if len(s.Points) > 0 {
			return true
		}
	}
	return false
}
