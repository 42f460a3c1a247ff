package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"babymeasure/internal/domain"
)

// ErrNoData indicates that a chart has nothing to draw.
var ErrNoData = errors.New("no data to chart")

// ChartsService encapsulates chart data retrieval use cases.
type ChartsService struct {
	store   domain.MeasurementStore
	drawer  domain.ChartDrawer
	loc     *time.Location
	window  time.Duration
	padding time.Duration
	now     func() time.Time
}

// NewChartsService creates a ChartsService. windowDays is how far back a
// chart without an explicit range reaches from the newest entry; padding
// widens every range on both ends.
func NewChartsService(store domain.MeasurementStore, drawer domain.ChartDrawer, loc *time.Location, windowDays int, padding time.Duration) *ChartsService {
	if loc == nil {
		loc = time.Local
	}
	if windowDays <= 0 {
		windowDays = 10
	}
	return &ChartsService{
		store:   store,
		drawer:  drawer,
		loc:     loc,
		window:  time.Duration(windowDays) * 24 * time.Hour,
		padding: padding,
		now:     time.Now,
	}
}

var _ domain.ChartRenderer = (*ChartsService)(nil)

// RenderChart draws the chart of category c as PNG. A nil range selects the
// last window of data ending at the newest entry.
func (s *ChartsService) RenderChart(ctx context.Context, c domain.Category, r *domain.TimeRange) ([]byte, error) {
	if s.drawer == nil {
		return nil, errors.New("no chart drawer configured")
	}
	chart, err := s.BuildChart(ctx, c, r)
	if err != nil {
		return nil, err
	}
	png, err := s.drawer.Draw(chart)
	if err != nil {
		return nil, fmt.Errorf("draw %s chart: %w", c, err)
	}
	return png, nil
}

// BuildChart collects the series of category c within r. Explicit ranges are
// used as given.
func (s *ChartsService) BuildChart(ctx context.Context, c domain.Category, r *domain.TimeRange) (domain.Chart, error) {
	records, err := s.store.ReadMeasurements(ctx, c, "")
	if err != nil {
		return domain.Chart{}, fmt.Errorf("read %s: %w", c, err)
	}

	var rng domain.TimeRange
	if r != nil {
		rng = *r
	} else {
		if len(records) == 0 {
			return domain.Chart{}, ErrNoData
		}
		first, last := records[0].Time, records[len(records)-1].Time
		start := last.Add(-s.window)
		if first.After(start) {
			start = first
		}
		rng = domain.TimeRange{Start: start, End: last}.Pad(s.padding)
	}

	in := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		if rng.Contains(rec.Time) {
			in = append(in, rec)
		}
	}

	chart := domain.Chart{Title: c.Title(), Range: rng, Kind: domain.ChartBar}
	switch c {
	case domain.CategoryBottle:
		chart.YLabel = "ml per day"
		chart.Series = []domain.Series{
			s.daily(in, domain.SubtypeFormula, amountOf(domain.SubtypeFormula)),
			s.daily(in, domain.SubtypeBreastmilk, amountOf(domain.SubtypeBreastmilk)),
		}
	case domain.CategoryBreastfeeding:
		chart.YLabel = "minutes per day"
		chart.Series = []domain.Series{s.daily(in, "duration", amountOf(""))}
	case domain.CategoryDiaper:
		chart.YLabel = "nappies per day"
		chart.Series = []domain.Series{
			s.daily(in, domain.SubtypePee, countOf(domain.SubtypePee)),
			s.daily(in, domain.SubtypePoop, countOf(domain.SubtypePoop)),
		}
	case domain.CategoryBody:
		chart.Kind = domain.ChartLine
		chart.YLabel = "kg / cm"
		chart.Series = []domain.Series{
			bodySeries(in, domain.FieldWeight),
			bodySeries(in, domain.FieldHeight),
			bodySeries(in, domain.FieldHead),
		}
	default:
		return domain.Chart{}, fmt.Errorf("%w: unknown category", ErrInvalidInput)
	}
	if chart.Empty() {
		return chart, ErrNoData
	}
	return chart, nil
}

// daily sums value per local calendar day. Days without a value are left out.
func (s *ChartsService) daily(records []domain.Record, name string, value func(domain.Record) (float64, bool)) domain.Series {
	sums := map[time.Time]float64{}
	for _, r := range records {
		v, ok := value(r)
		if !ok {
			continue
		}
		sums[s.dayOf(r.Time)] += v
	}
	days := make([]time.Time, 0, len(sums))
	for d := range sums {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	series := domain.Series{Name: name, Points: make([]domain.Point, 0, len(days))}
	for _, d := range days {
		series.Points = append(series.Points, domain.Point{Time: d, Value: sums[d]})
	}
	return series
}

func (s *ChartsService) dayOf(t time.Time) time.Time {
	y, m, d := t.In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func amountOf(subtype string) func(domain.Record) (float64, bool) {
	return func(r domain.Record) (float64, bool) {
		if r.Amount == nil || (subtype != "" && r.Subtype != subtype) {
			return 0, false
		}
		return *r.Amount, true
	}
}

func countOf(subtype string) func(domain.Record) (float64, bool) {
	return func(r domain.Record) (float64, bool) {
		return 1, r.Subtype == subtype
	}
}

func bodySeries(records []domain.Record, field string) domain.Series {
	series := domain.Series{Name: field}
	for _, r := range records {
		if v := r.BodyField(field); v != nil {
			series.Points = append(series.Points, domain.Point{Time: r.Time, Value: *v})
		}
	}
	return series
}

// DayPoint is a single data point returned by GetDaily.
type DayPoint struct {
	Day              string   `json:"day"`
	FormulaMl        float64  `json:"formulaMl"`
	BreastmilkMl     float64  `json:"breastmilkMl"`
	BreastfeedingMin float64  `json:"breastfeedingMin"`
	Pee              int      `json:"pee"`
	Poop             int      `json:"poop"`
	Weight           *float64 `json:"weight"`
}

// GetDaily returns per-day chart data for the last days days, today included.
func (s *ChartsService) GetDaily(ctx context.Context, days int) ([]DayPoint, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be > 0", ErrInvalidInput)
	}
	if days > 366 {
		days = 366
	}

	byDay := map[string]*DayPoint{}
	today := s.now().In(s.loc)
	points := make([]DayPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		dayStr := today.AddDate(0, 0, -i).Format("2006-01-02")
		points = append(points, DayPoint{Day: dayStr})
	}
	for i := range points {
		byDay[points[i].Day] = &points[i]
	}

	for _, c := range domain.Categories {
		records, err := s.store.ReadMeasurements(ctx, c, "")
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", c, err)
		}
		for _, r := range records {
			p, ok := byDay[r.Time.In(s.loc).Format("2006-01-02")]
			if !ok {
				continue
			}
			switch c {
			case domain.CategoryBottle:
				if r.Amount == nil {
					continue
				}
				if r.Subtype == domain.SubtypeBreastmilk {
					p.BreastmilkMl += *r.Amount
				} else {
					p.FormulaMl += *r.Amount
				}
			case domain.CategoryBreastfeeding:
				if r.Amount != nil {
					p.BreastfeedingMin += *r.Amount
				}
			case domain.CategoryDiaper:
				if r.Subtype == domain.SubtypePoop {
					p.Poop++
				} else {
					p.Pee++
				}
			case domain.CategoryBody:
				// Records are oldest first, so the last weight of the day wins.
				if r.Weight != nil {
					w := *r.Weight
					p.Weight = &w
				}
			}
		}
	}
	return points, nil
}
