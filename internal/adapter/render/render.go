// Package render draws charts as PNG images with go-chart.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"babymeasure/internal/domain"
)

// Drawer implements domain.ChartDrawer.
type Drawer struct {
	Width  int
	Height int
}

// New returns a Drawer producing 800x400 images.
func New() *Drawer {
	return &Drawer{Width: 800, Height: 400}
}

var _ domain.ChartDrawer = (*Drawer)(nil)

var errNoPoints = errors.New("chart has no points")

// Draw renders c to PNG bytes.
func (d *Drawer) Draw(c domain.Chart) ([]byte, error) {
	if c.Empty() {
		return nil, errNoPoints
	}
	var buf bytes.Buffer
	var err error
	switch c.Kind {
	case domain.ChartBar:
		err = d.bars(c).Render(chart.PNG, &buf)
	default:
		err = d.lines(c).Render(chart.PNG, &buf)
	}
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", c.Title, err)
	}
	return buf.Bytes(), nil
}

func (d *Drawer) lines(c domain.Chart) *chart.Chart {
	graph := &chart.Chart{
		Title:  c.Title,
		Width:  d.Width,
		Height: d.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("Jan 2"),
			Range:          timeRange(c),
		},
		YAxis: chart.YAxis{
			Name:  c.YLabel,
			Range: valueRange(c),
		},
	}
	for _, s := range c.Series {
		if len(s.Points) == 0 {
			continue
		}
		ts := chart.TimeSeries{
			Name:  s.Name,
			Style: chart.Style{StrokeWidth: 2, DotWidth: 3},
		}
		for _, p := range s.Points {
			ts.XValues = append(ts.XValues, p.Time)
			ts.YValues = append(ts.YValues, p.Value)
		}
		graph.Series = append(graph.Series, ts)
	}
	graph.Elements = []chart.Renderable{chart.Legend(graph)}
	return graph
}

// bars stacks the series of c into one bar per day.
func (d *Drawer) bars(c domain.Chart) *chart.StackedBarChart {
	type day struct {
		t      time.Time
		values []chart.Value
	}
	byDay := map[string]*day{}
	for _, s := range c.Series {
		for _, p := range s.Points {
			if p.Value <= 0 {
				continue
			}
			key := p.Time.Format("2006-01-02")
			if byDay[key] == nil {
				byDay[key] = &day{t: p.Time}
			}
			byDay[key].values = append(byDay[key].values, chart.Value{Label: s.Name, Value: p.Value})
		}
	}
	days := make([]*day, 0, len(byDay))
	for _, dd := range byDay {
		days = append(days, dd)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].t.Before(days[j].t) })

	sbc := &chart.StackedBarChart{
		Title:      c.Title,
		Width:      d.Width,
		Height:     d.Height,
		BarSpacing: 10,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
	}
	for _, dd := range days {
		sbc.Bars = append(sbc.Bars, chart.StackedBar{Name: dd.t.Format("Jan 2"), Values: dd.values})
	}
	return sbc
}

func timeRange(c domain.Chart) chart.Range {
	start, end := c.Range.Start, c.Range.End
	if start.IsZero() || !end.After(start) {
		start, end = extent(c)
	}
	return &chart.ContinuousRange{Min: chart.TimeToFloat64(start), Max: chart.TimeToFloat64(end)}
}

func extent(c domain.Chart) (time.Time, time.Time) {
	var lo, hi time.Time
	for _, s := range c.Series {
		for _, p := range s.Points {
			if lo.IsZero() || p.Time.Before(lo) {
				lo = p.Time
			}
			if p.Time.After(hi) {
				hi = p.Time
			}
		}
	}
	return lo.Add(-12 * time.Hour), hi.Add(12 * time.Hour)
}

// valueRange pads the value extent so single points still have a range.
func valueRange(c domain.Chart) chart.Range {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range c.Series {
		for _, p := range s.Points {
			lo = math.Min(lo, p.Value)
			hi = math.Max(hi, p.Value)
		}
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.1, 1)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
