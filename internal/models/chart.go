package models

type ChartKind string

const (
	ChartLine    ChartKind = "line"
	ChartScatter ChartKind = "scatter"
	ChartPie     ChartKind = "pie"
	ChartBar     ChartKind = "bar"
)

// ChartPoint is one renderer-agnostic point. Label carries the category or
// x-axis tick text; X is set for numeric axes.
type ChartPoint struct {
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size,omitempty"`
}

type ChartSeries struct {
	Name   string       `json:"name"`
	Points []ChartPoint `json:"points"`
}

type Chart struct {
	Name   string        `json:"name"`
	Title  string        `json:"title"`
	Kind   ChartKind     `json:"kind"`
	XLabel string        `json:"x_label,omitempty"`
	YLabel string        `json:"y_label,omitempty"`
	Series []ChartSeries `json:"series"`
}
