package domain

import (
	"context"
	"time"
)

// ChartKind selects how a chart series is drawn.
type ChartKind int

// Chart kinds.
const (
	ChartLine ChartKind = iota
	ChartBar
)

// Point is a single value at a point in time.
type Point struct {
	Time  time.Time
	Value float64
}

// Series is a named sequence of points.
type Series struct {
	Name   string
	Points []Point
}

// Chart is the drawable description of one category over a time range.
type Chart struct {
	Title  string
	YLabel string
	Kind   ChartKind
	Range  TimeRange
	Series []Series
}

// Empty reports whether the chart has no points at all.
func (c Chart) Empty() bool {
	for _, s := range c.Series {
		if len(s.Points) > 0 {
			return false
		}
	}
	return true
}

// ChartRenderer renders the chart of a category as PNG bytes. A nil range
// selects the most recent window of data.
type ChartRenderer interface {
	RenderChart(ctx context.Context, c Category, r *TimeRange) ([]byte, error)
}

// ChartDrawer turns a chart description into PNG bytes.
type ChartDrawer interface {
	Draw(chart Chart) ([]byte, error)
}

// Publisher publishes a snapshot of the charts somewhere outside the app.
type Publisher interface {
	Publish(ctx context.Context) error
}
