package app

import (
	"context"
	"fmt"
	"time"

	"babymeasure/internal/domain"
)

// Editor applies edit and delete instructions coming from chat.
type Editor interface {
	Apply(ctx context.Context, ins domain.Instruction) (string, error)
}

// EntryPatch holds the fields of an entry to change. Nil fields are kept.
type EntryPatch struct {
	Type   *string    `json:"type,omitempty"`
	Amount *float64   `json:"amount,omitempty"`
	Height *float64   `json:"height,omitempty"`
	Weight *float64   `json:"weight,omitempty"`
	Head   *float64   `json:"head,omitempty"`
	Time   *time.Time `json:"time,omitempty"`
}

// EditService changes and removes stored entries.
type EditService struct {
	repo  domain.MeasurementRepository
	queue Enqueuer
	loc   *time.Location
}

// NewEditService creates an EditService backed by repo. queue may be nil.
func NewEditService(repo domain.MeasurementRepository, loc *time.Location, queue Enqueuer) *EditService {
	if loc == nil {
		loc = time.Local
	}
	return &EditService{repo: repo, queue: queue, loc: loc}
}

var _ Editor = (*EditService)(nil)

// Get returns the entry of category c with the given id.
func (s *EditService) Get(ctx context.Context, c domain.Category, id int64) (domain.Record, error) {
	records, err := s.repo.ReadMeasurements(ctx, c, "")
	if err != nil {
		return domain.Record{}, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Record{}, ErrNotFound
}

// Update applies patch to the entry of category c with the given id.
func (s *EditService) Update(ctx context.Context, c domain.Category, id int64, patch EntryPatch) (domain.Record, error) {
	r, err := s.Get(ctx, c, id)
	if err != nil {
		return domain.Record{}, err
	}
	if patch.Time != nil {
		r.Time = patch.Time.In(s.loc)
	}
	if patch.Amount != nil {
		if *patch.Amount <= 0 {
			return domain.Record{}, fmt.Errorf("%w: amount must be > 0", ErrInvalidInput)
		}
		r.Amount = patch.Amount
	}
	if patch.Type != nil {
		if !validSubtype(c, *patch.Type) {
			return domain.Record{}, fmt.Errorf("%w: type %q does not fit %s", ErrInvalidInput, *patch.Type, c)
		}
		r.Subtype = *patch.Type
	}
	for _, f := range []struct {
		dst **float64
		src *float64
	}{{&r.Height, patch.Height}, {&r.Weight, patch.Weight}, {&r.Head, patch.Head}} {
		if f.src != nil {
			*f.dst = positiveOrNil(f.src)
		}
	}

	if err := s.repo.UpdateMeasurement(ctx, r); err != nil {
		return domain.Record{}, fmt.Errorf("update %s %d: %w", c, id, err)
	}
	s.published("entry updated")
	return r, nil
}

// Delete removes the entry of category c with the given id.
func (s *EditService) Delete(ctx context.Context, c domain.Category, id int64) error {
	deleted, err := s.repo.DeleteMeasurement(ctx, c, id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", c, id, err)
	}
	if !deleted {
		return ErrNotFound
	}
	s.published("entry deleted")
	return nil
}

// Apply resolves the entry an instruction points at the same way a get
// does, then deletes it or sets the new amount on it.
func (s *EditService) Apply(ctx context.Context, ins domain.Instruction) (string, error) {
	subtype := subtypeFor(ins.Category, ins.Content)
	records, err := readFiltered(ctx, s.repo, ins.Category, subtype)
	if err != nil {
		return "", err
	}
	target, ok := pickEntry(records, ins.When)
	if !ok {
		return fmt.Sprintf("There is no %s entry to %s.", ins.Category.Table(), ins.Action), nil
	}
	when := target.Time.In(s.loc).Format(entryLayout)

	if ins.Action == domain.ActionDelete {
		if err := s.Delete(ctx, ins.Category, target.ID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Deleted the %s entry from %s.", ins.Category.Table(), when), nil
	}

	var patch EntryPatch
	switch ins.Category {
	case domain.CategoryDiaper:
		if ins.Content != domain.SubtypePee && ins.Content != domain.SubtypePoop {
			return "Tell me whether it was pee or poop.", nil
		}
		patch.Type = &ins.Content
	case domain.CategoryBody:
		if ins.Amount == nil {
			return "You must give a numeric value to edit.", nil
		}
		switch bodyField(ins.Content) {
		case domain.FieldHeight:
			patch.Height = ins.Amount
		case domain.FieldWeight:
			patch.Weight = ins.Amount
		case domain.FieldHead:
			patch.Head = ins.Amount
		default:
			return bodyFieldHint, nil
		}
	default:
		if ins.Amount == nil {
			return "You must give a numeric value to edit.", nil
		}
		patch.Amount = ins.Amount
	}

	updated, err := s.Update(ctx, ins.Category, target.ID, patch)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Changed the %s entry from %s: %s.", ins.Category.Table(), when, describe(updated)), nil
}

func (s *EditService) published(reason string) {
	if s.queue != nil {
		s.queue.Enqueue(reason)
	}
}

func validSubtype(c domain.Category, subtype string) bool {
	switch c {
	case domain.CategoryBottle:
		return subtype == domain.SubtypeFormula || subtype == domain.SubtypeBreastmilk
	case domain.CategoryDiaper:
		return subtype == domain.SubtypePee || subtype == domain.SubtypePoop
	}
	return subtype == ""
}
