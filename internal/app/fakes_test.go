package app

import (
	"context"
	"sync"
	"time"

	"babymeasure/internal/domain"
)

var cet = time.FixedZone("CET", 3600)

// Friday, 5 April 2024.
var fixedNow = time.Date(2024, 4, 5, 9, 15, 0, 0, cet)

func at(d, hh, mm int) time.Time {
	return time.Date(2024, 4, d, hh, mm, 0, 0, cet)
}

func amount(v float64) *float64 { return &v }

type mockStore struct {
	readFn   func(ctx context.Context, c domain.Category, subtype string) ([]domain.Record, error)
	appendFn func(ctx context.Context, r domain.Record) (int64, error)
	updateFn func(ctx context.Context, r domain.Record) error
	deleteFn func(ctx context.Context, c domain.Category, id int64) (bool, error)

	mu      sync.Mutex
	reads   int
	appends []domain.Record
}

func (m *mockStore) ReadMeasurements(ctx context.Context, c domain.Category, subtype string) ([]domain.Record, error) {
	m.mu.Lock()
	m.reads++
	m.mu.Unlock()
	if m.readFn != nil {
		return m.readFn(ctx, c, subtype)
	}
	return nil, nil
}

func (m *mockStore) AppendMeasurement(ctx context.Context, r domain.Record) (int64, error) {
	m.mu.Lock()
	m.appends = append(m.appends, r)
	n := int64(len(m.appends))
	m.mu.Unlock()
	if m.appendFn != nil {
		return m.appendFn(ctx, r)
	}
	return n, nil
}

func (m *mockStore) UpdateMeasurement(ctx context.Context, r domain.Record) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, r)
	}
	return nil
}

func (m *mockStore) DeleteMeasurement(ctx context.Context, c domain.Category, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, c, id)
	}
	return true, nil
}

func (m *mockStore) touched() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads > 0 || len(m.appends) > 0
}

// recordsOf returns a read function serving fixed records filtered the way
// the stores filter them.
func recordsOf(records ...domain.Record) func(context.Context, domain.Category, string) ([]domain.Record, error) {
	return func(_ context.Context, c domain.Category, subtype string) ([]domain.Record, error) {
		var out []domain.Record
		for _, r := range records {
			if r.Category == c && r.MatchesSubtype(subtype) {
				out = append(out, r)
			}
		}
		return out, nil
	}
}

type mockRenderer struct {
	renderFn func(ctx context.Context, c domain.Category, r *domain.TimeRange) ([]byte, error)

	calls  int
	ranges []*domain.TimeRange
}

func (m *mockRenderer) RenderChart(ctx context.Context, c domain.Category, r *domain.TimeRange) ([]byte, error) {
	m.calls++
	m.ranges = append(m.ranges, r)
	if m.renderFn != nil {
		return m.renderFn(ctx, c, r)
	}
	return []byte("png"), nil
}

type mockDrawer struct {
	drawFn func(chart domain.Chart) ([]byte, error)
	charts []domain.Chart
}

func (m *mockDrawer) Draw(chart domain.Chart) ([]byte, error) {
	m.charts = append(m.charts, chart)
	if m.drawFn != nil {
		return m.drawFn(chart)
	}
	return []byte("png"), nil
}

type mockQueue struct {
	mu      sync.Mutex
	reasons []string
}

func (m *mockQueue) Enqueue(reason string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reasons = append(m.reasons, reason)
	return true
}

type mockPublisher struct {
	publishFn func(ctx context.Context) error
}

func (m *mockPublisher) Publish(ctx context.Context) error {
	if m.publishFn != nil {
		return m.publishFn(ctx)
	}
	return nil
}

type mockPairingRepo struct {
	mu       sync.Mutex
	pairings map[int64]domain.ChatPairing
	getErr   error
}

func (m *mockPairingRepo) GetPairing(_ context.Context, id int64) (*domain.ChatPairing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.pairings[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockPairingRepo) SavePairing(_ context.Context, p domain.ChatPairing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pairings == nil {
		m.pairings = map[int64]domain.ChatPairing{}
	}
	m.pairings[p.ChatUserID] = p
	return nil
}
