package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babymeasure/internal/domain"
)

func newTestCharts(store domain.MeasurementStore, drawer domain.ChartDrawer) *ChartsService {
	svc := NewChartsService(store, drawer, cet, 10, 12*time.Hour)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestBuildChart_Bottle(t *testing.T) {
	svc := newTestCharts(&mockStore{readFn: recordsOf(fixtureRecords()...)}, nil)

	chart, err := svc.BuildChart(context.Background(), domain.CategoryBottle, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bottle feeding", chart.Title)
	assert.Equal(t, domain.ChartBar, chart.Kind)

	// Window spans first to last entry since that is under ten days.
	assert.True(t, at(4, 8, 0).Add(-12*time.Hour).Equal(chart.Range.Start))
	assert.True(t, at(5, 7, 0).Add(12*time.Hour).Equal(chart.Range.End))

	require.Len(t, chart.Series, 2)
	formula := chart.Series[0]
	assert.Equal(t, "formula", formula.Name)
	require.Len(t, formula.Points, 2)
	assert.Equal(t, 270.0, formula.Points[0].Value)
	assert.Equal(t, 100.0, formula.Points[1].Value)
	assert.True(t, time.Date(2024, 4, 4, 0, 0, 0, 0, cet).Equal(formula.Points[0].Time))

	breastmilk := chart.Series[1]
	require.Len(t, breastmilk.Points, 1)
	assert.Equal(t, 90.0, breastmilk.Points[0].Value)
}

func TestBuildChart_ExplicitRangeFilters(t *testing.T) {
	svc := newTestCharts(&mockStore{readFn: recordsOf(fixtureRecords()...)}, nil)

	rng := domain.TimeRange{Start: at(4, 10, 0), End: at(4, 23, 0)}
	chart, err := svc.BuildChart(context.Background(), domain.CategoryDiaper, &rng)
	require.NoError(t, err)
	assert.Equal(t, rng, chart.Range)
	require.Len(t, chart.Series, 2)
	assert.Empty(t, chart.Series[0].Points, "the only pee is before the range")
	require.Len(t, chart.Series[1].Points, 1)
	assert.Equal(t, 2.0, chart.Series[1].Points[0].Value)
}

func TestBuildChart_BodyIsLine(t *testing.T) {
	svc := newTestCharts(&mockStore{readFn: recordsOf(fixtureRecords()...)}, nil)
	chart, err := svc.BuildChart(context.Background(), domain.CategoryBody, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ChartLine, chart.Kind)
	require.Len(t, chart.Series, 3)
	assert.Len(t, chart.Series[0].Points, 1)
	assert.Len(t, chart.Series[1].Points, 1)
	assert.Empty(t, chart.Series[2].Points)
}

func TestBuildChart_LongHistoryUsesWindow(t *testing.T) {
	var records []domain.Record
	for i := 0; i < 30; i++ {
		records = append(records, domain.Record{Category: domain.CategoryBreastfeeding,
			Time: fixedNow.AddDate(0, 0, -29+i), Amount: amount(10)})
	}
	svc := newTestCharts(&mockStore{readFn: recordsOf(records...)}, nil)

	chart, err := svc.BuildChart(context.Background(), domain.CategoryBreastfeeding, nil)
	require.NoError(t, err)
	assert.True(t, fixedNow.Add(-10*24*time.Hour-12*time.Hour).Equal(chart.Range.Start))
	assert.Len(t, chart.Series[0].Points, 11)
}

func TestBuildChart_NoData(t *testing.T) {
	svc := newTestCharts(&mockStore{}, nil)
	_, err := svc.BuildChart(context.Background(), domain.CategoryBottle, nil)
	assert.ErrorIs(t, err, ErrNoData)

	rng := domain.TimeRange{Start: at(1, 0, 0), End: at(2, 0, 0)}
	_, err = svc.BuildChart(context.Background(), domain.CategoryBottle, &rng)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRenderChart(t *testing.T) {
	drawer := &mockDrawer{}
	svc := newTestCharts(&mockStore{readFn: recordsOf(fixtureRecords()...)}, drawer)

	png, err := svc.RenderChart(context.Background(), domain.CategoryDiaper, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), png)
	require.Len(t, drawer.charts, 1)
	assert.Equal(t, "Nappy content", drawer.charts[0].Title)

	drawer.drawFn = func(domain.Chart) ([]byte, error) { return nil, errors.New("no font") }
	_, err = svc.RenderChart(context.Background(), domain.CategoryDiaper, nil)
	assert.Error(t, err)

	svc = newTestCharts(&mockStore{}, nil)
	_, err = svc.RenderChart(context.Background(), domain.CategoryDiaper, nil)
	assert.Error(t, err)
}

func TestGetDaily(t *testing.T) {
	svc := newTestCharts(&mockStore{readFn: recordsOf(fixtureRecords()...)}, nil)

	points, err := svc.GetDaily(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, points, 5)
	assert.Equal(t, "2024-04-01", points[0].Day)
	assert.Equal(t, "2024-04-05", points[4].Day)

	apr1, apr4, apr5 := points[0], points[3], points[4]
	require.NotNil(t, apr1.Weight)
	assert.Equal(t, 3.9, *apr1.Weight)
	assert.Equal(t, 270.0, apr4.FormulaMl)
	assert.Equal(t, 90.0, apr4.BreastmilkMl)
	assert.Equal(t, 35.0, apr4.BreastfeedingMin)
	assert.Equal(t, 1, apr4.Pee)
	assert.Equal(t, 2, apr4.Poop)
	assert.Nil(t, apr4.Weight)
	assert.Equal(t, 100.0, apr5.FormulaMl)
}

func TestGetDaily_Bounds(t *testing.T) {
	svc := newTestCharts(&mockStore{}, nil)

	points, err := svc.GetDaily(context.Background(), 500)
	require.NoError(t, err)
	assert.Len(t, points, 366)

	_, err = svc.GetDaily(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetDaily_StoreError(t *testing.T) {
	store := &mockStore{readFn: func(context.Context, domain.Category, string) ([]domain.Record, error) {
		return nil, errors.New("down")
	}}
	_, err := newTestCharts(store, nil).GetDaily(context.Background(), 3)
	assert.Error(t, err)
}
