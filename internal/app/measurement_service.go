package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"babymeasure/internal/domain"
)

var (
	// ErrNotFound indicates that the requested entry does not exist.
	ErrNotFound = errors.New("entry not found")
	// ErrInvalidInput indicates that a submitted entry failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

// EntryInput is one measurement submitted through the web form.
type EntryInput struct {
	Category string     `json:"category"`
	Type     string     `json:"type,omitempty"`
	Amount   *float64   `json:"amount,omitempty"`
	Height   *float64   `json:"height,omitempty"`
	Weight   *float64   `json:"weight,omitempty"`
	Head     *float64   `json:"head,omitempty"`
	Time     *time.Time `json:"time,omitempty"`
}

// MeasurementService encapsulates the web form use cases.
type MeasurementService struct {
	repo  domain.MeasurementStore
	queue Enqueuer
	loc   *time.Location
	now   func() time.Time
}

// NewMeasurementService creates a MeasurementService backed by repo. queue
// may be nil when publishing is disabled.
func NewMeasurementService(repo domain.MeasurementStore, loc *time.Location, queue Enqueuer) *MeasurementService {
	if loc == nil {
		loc = time.Local
	}
	return &MeasurementService{repo: repo, queue: queue, loc: loc, now: time.Now}
}

// LogEntries validates all inputs and then stores them in order. Nothing is
// stored when any input is invalid.
func (s *MeasurementService) LogEntries(ctx context.Context, inputs []EntryInput) ([]domain.Record, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidInput)
	}
	now := s.now().In(s.loc)
	records := make([]domain.Record, 0, len(inputs))
	for i, in := range inputs {
		r, err := s.toRecord(in, now)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		records = append(records, r)
	}

	for i := range records {
		id, err := s.repo.AppendMeasurement(ctx, records[i])
		if err != nil {
			return records[:i], fmt.Errorf("append %s: %w", records[i].Category, err)
		}
		records[i].ID = id
	}
	if s.queue != nil {
		s.queue.Enqueue("web entries")
	}
	return records, nil
}

func (s *MeasurementService) toRecord(in EntryInput, now time.Time) (domain.Record, error) {
	r := domain.Record{
		UID:      uuid.New(),
		Category: domain.ParseCategory(in.Category),
		Time:     now,
	}
	if in.Time != nil {
		r.Time = in.Time.In(s.loc)
	}

	switch r.Category {
	case domain.CategoryBottle:
		if !positive(in.Amount) {
			return r, fmt.Errorf("%w: bottle amount must be > 0", ErrInvalidInput)
		}
		r.Amount = in.Amount
		switch in.Type {
		case "", domain.SubtypeFormula:
			r.Subtype = domain.SubtypeFormula
		case domain.SubtypeBreastmilk:
			r.Subtype = domain.SubtypeBreastmilk
		default:
			return r, fmt.Errorf("%w: bottle type must be %q or %q", ErrInvalidInput, domain.SubtypeFormula, domain.SubtypeBreastmilk)
		}
	case domain.CategoryBreastfeeding:
		if !positive(in.Amount) {
			return r, fmt.Errorf("%w: breastfeeding duration must be > 0", ErrInvalidInput)
		}
		r.Amount = in.Amount
	case domain.CategoryDiaper:
		switch in.Type {
		case "", domain.SubtypePee:
			r.Subtype = domain.SubtypePee
		case domain.SubtypePoop:
			r.Subtype = domain.SubtypePoop
		default:
			return r, fmt.Errorf("%w: diaper type must be %q or %q", ErrInvalidInput, domain.SubtypePee, domain.SubtypePoop)
		}
	case domain.CategoryBody:
		if !positive(in.Height) && !positive(in.Weight) && !positive(in.Head) {
			return r, fmt.Errorf("%w: body entry needs height, weight or head > 0", ErrInvalidInput)
		}
		r.Height, r.Weight, r.Head = positiveOrNil(in.Height), positiveOrNil(in.Weight), positiveOrNil(in.Head)
	default:
		return r, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	}
	return r, nil
}

// ListRecent returns the most recent entries of a category, newest first.
func (s *MeasurementService) ListRecent(ctx context.Context, c domain.Category, limit int) ([]domain.Record, error) {
	if c == domain.CategoryUnknown {
		return nil, fmt.Errorf("%w: unknown category", ErrInvalidInput)
	}
	records, err := s.repo.ReadMeasurements(ctx, c, "")
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}
	out := make([]domain.Record, 0, limit)
	for i := len(records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, records[i])
	}
	return out, nil
}

// LastEntryLabel describes the most recent entry of a category and subtype
// for the hints shown next to the web form fields.
func (s *MeasurementService) LastEntryLabel(ctx context.Context, c domain.Category, subtype string) (string, error) {
	records, err := s.repo.ReadMeasurements(ctx, c, subtype)
	if err != nil {
		return "", err
	}
	r, ok := pickEntry(records, domain.Last())
	if !ok {
		return "no entries yet", nil
	}

	when := r.Time.In(s.loc).Format(entryLayout)
	switch c {
	case domain.CategoryBottle, domain.CategoryBreastfeeding:
		return fmt.Sprintf("last: %s (%s)", when, formatOptional(r.Amount, unitOf(c))), nil
	case domain.CategoryDiaper:
		return fmt.Sprintf("last: %s (%s)", when, r.Subtype), nil
	case domain.CategoryBody:
		if subtype != "" {
			return fmt.Sprintf("last: %s (%s)", when, formatOptional(r.BodyField(subtype), bodyUnit(subtype))), nil
		}
	}
	return "last: " + when, nil
}

func bodyUnit(field string) string {
	if field == domain.FieldWeight {
		return "kg"
	}
	return "cm"
}

func positive(v *float64) bool { return v != nil && *v > 0 }

func positiveOrNil(v *float64) *float64 {
	if positive(v) {
		return v
	}
	return nil
}
