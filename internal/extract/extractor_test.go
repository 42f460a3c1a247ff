package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babymeasure/internal/domain"
)

func TestExtract(t *testing.T) {
	e := New(Options{Location: cet, PlotDefaultDays: 10})

	tests := []struct {
		name string
		in   string
		want domain.Instruction
	}{
		{
			name: "log with date and time",
			in:   "Hi! Log 120ml formula at 14:30 on 03.04.2024",
			want: domain.Instruction{Action: domain.ActionLog, Category: domain.CategoryBottle,
				Content: "formula", Amount: amount(120), When: domain.At(at(2024, 4, 3, 14, 30))},
		},
		{
			name: "date digits are not amounts",
			in:   "log pee 03.04.2024",
			want: domain.Instruction{Action: domain.ActionLog, Category: domain.CategoryDiaper,
				Content: "pee", When: domain.At(at(2024, 4, 3, 9, 15))},
		},
		{
			name: "decimal weight",
			in:   "weight 3.2kg",
			want: domain.Instruction{Action: domain.ActionGet, Category: domain.CategoryBody,
				Content: "weight", Amount: amount(3.2), When: domain.Last()},
		},
		{
			name: "decimal amount before unit",
			in:   "log 10.15 ml formula",
			want: domain.Instruction{Action: domain.ActionLog, Category: domain.CategoryBottle,
				Content: "formula", Amount: amount(10.15), When: domain.Last()},
		},
		{
			name: "question",
			in:   "How much milk did she get yesterday?",
			want: domain.Instruction{Action: domain.ActionGet, Category: domain.CategoryBottle,
				Content: "milk", When: domain.At(at(2024, 4, 4, 9, 15))},
		},
		{
			name: "greeting only",
			in:   "Guten Tag",
			want: domain.Instruction{Action: domain.ActionGet, When: domain.Last()},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Extract(tc.in, fixedNow)
			if diff := cmp.Diff(tc.want, got, cmpWhen); diff != "" {
				t.Errorf("Extract(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestExtractPlotRange(t *testing.T) {
	e := New(Options{Location: cet, PlotDefaultDays: 10})

	ins := e.Extract("plot formula from monday to yesterday", fixedNow)
	require.Equal(t, domain.ActionPlot, ins.Action)
	require.Equal(t, domain.CategoryBottle, ins.Category)
	rng, ok := ins.When.Range()
	require.True(t, ok, "plot should carry a range, got %v", ins.When)
	assert.True(t, at(2024, 4, 1, 9, 15).Equal(rng.Start))
	assert.True(t, at(2024, 4, 4, 9, 15).Equal(rng.End))

	ins = e.Extract("draw diaper", fixedNow)
	rng, ok = ins.When.Range()
	require.True(t, ok)
	assert.True(t, fixedNow.AddDate(0, 0, -10).Equal(rng.Start))
	assert.True(t, fixedNow.Equal(rng.End))
}

func TestExtractDefaults(t *testing.T) {
	e := New(Options{})
	ins := e.Extract("log formula 90", fixedNow)
	assert.Equal(t, domain.ActionLog, ins.Action)
	assert.Equal(t, domain.CategoryBottle, ins.Category)
	require.NotNil(t, ins.Amount)
	assert.Equal(t, 90.0, *ins.Amount)
}
