package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babymeasure/internal/adapter/memory"
	"babymeasure/internal/domain"
)

func seededMemory(t *testing.T) *memory.DB {
	t.Helper()
	db := memory.New()
	for _, r := range fixtureRecords() {
		r.ID = 0
		_, err := db.AppendMeasurement(context.Background(), r)
		require.NoError(t, err)
	}
	return db
}

func TestEditService_Update(t *testing.T) {
	db := seededMemory(t)
	queue := &mockQueue{}
	svc := NewEditService(db, cet, queue)
	ctx := context.Background()

	breastmilk := domain.SubtypeBreastmilk
	got, err := svc.Update(ctx, domain.CategoryBottle, 1, EntryPatch{Amount: amount(130), Type: &breastmilk})
	require.NoError(t, err)
	assert.Equal(t, 130.0, *got.Amount)
	assert.Equal(t, domain.SubtypeBreastmilk, got.Subtype)

	stored, err := svc.Get(ctx, domain.CategoryBottle, 1)
	require.NoError(t, err)
	assert.Equal(t, 130.0, *stored.Amount)
	assert.Equal(t, []string{"entry updated"}, queue.reasons)

	poop := domain.SubtypePoop
	_, err = svc.Update(ctx, domain.CategoryBottle, 1, EntryPatch{Type: &poop})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Update(ctx, domain.CategoryBottle, 1, EntryPatch{Amount: amount(-1)})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Update(ctx, domain.CategoryBottle, 99, EntryPatch{Amount: amount(1)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditService_Delete(t *testing.T) {
	db := seededMemory(t)
	svc := NewEditService(db, cet, nil)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, domain.CategoryDiaper, 2))
	assert.ErrorIs(t, svc.Delete(ctx, domain.CategoryDiaper, 2), ErrNotFound)

	left, _ := db.ReadMeasurements(ctx, domain.CategoryDiaper, "")
	assert.Len(t, left, 2)
}

func TestEditService_Apply(t *testing.T) {
	tests := []struct {
		name  string
		ins   domain.Instruction
		want  string
		check func(t *testing.T, db *memory.DB)
	}{
		{
			name: "delete last poop",
			ins:  domain.Instruction{Action: domain.ActionDelete, Category: domain.CategoryDiaper, Content: "poop", When: domain.Last()},
			want: "Deleted the diaper entry from Thu  4. Apr 15:00.",
			check: func(t *testing.T, db *memory.DB) {
				poops, _ := db.ReadMeasurements(context.Background(), domain.CategoryDiaper, domain.SubtypePoop)
				assert.Len(t, poops, 1)
			},
		},
		{
			name: "edit formula at time",
			ins: domain.Instruction{Action: domain.ActionEdit, Category: domain.CategoryBottle, Content: "formula",
				Amount: amount(160), When: domain.At(at(4, 17, 0))},
			want: "Changed the bottle entry from Thu  4. Apr 16:30: formula: 160 ml.",
			check: func(t *testing.T, db *memory.DB) {
				rs, _ := db.ReadMeasurements(context.Background(), domain.CategoryBottle, domain.SubtypeFormula)
				assert.Equal(t, 160.0, *rs[1].Amount)
			},
		},
		{
			name: "edit weight",
			ins: domain.Instruction{Action: domain.ActionEdit, Category: domain.CategoryBody, Content: "weight",
				Amount: amount(4), When: domain.Last()},
			want: "Changed the body entry from Mon  1. Apr 10:00: weight: 4 kg.",
		},
		{
			name: "edit nappy content",
			ins:  domain.Instruction{Action: domain.ActionEdit, Category: domain.CategoryDiaper, Content: "pee", When: domain.At(at(4, 11, 30))},
			want: "Changed the diaper entry from Thu  4. Apr 09:00: pee.",
		},
		{
			name: "edit without amount",
			ins:  domain.Instruction{Action: domain.ActionEdit, Category: domain.CategoryBreastfeeding, When: domain.Last()},
			want: "You must give a numeric value to edit.",
		},
		{
			name: "unknown body field",
			ins: domain.Instruction{Action: domain.ActionEdit, Category: domain.CategoryBody, Content: "elbow",
				Amount: amount(4), When: domain.Last()},
			want: bodyFieldHint,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := seededMemory(t)
			svc := NewEditService(db, cet, nil)
			got, err := svc.Apply(context.Background(), tc.ins)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			if tc.check != nil {
				tc.check(t, db)
			}
		})
	}
}

func TestEditService_ApplyEmpty(t *testing.T) {
	svc := NewEditService(memory.New(), cet, nil)
	got, err := svc.Apply(context.Background(), domain.Instruction{Action: domain.ActionDelete, Category: domain.CategoryBody, When: domain.Last()})
	require.NoError(t, err)
	assert.Equal(t, "There is no body entry to delete.", got)
}

func TestEditService_ApplyStoreError(t *testing.T) {
	store := &mockStore{
		readFn: func(context.Context, domain.Category, string) ([]domain.Record, error) {
			return nil, errors.New("down")
		},
	}
	svc := NewEditService(store, cet, nil)
	_, err := svc.Apply(context.Background(), domain.Instruction{Action: domain.ActionDelete, Category: domain.CategoryBody, When: domain.Last()})
	assert.Error(t, err)
}
