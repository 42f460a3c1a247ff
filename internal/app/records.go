package app

import (
	"context"
	"strconv"
	"time"

	"babymeasure/internal/domain"
)

// entryLayout is how times are echoed back in chat answers.
const entryLayout = "Mon _2. Jan 15:04"

// subtypeFor maps the content word of an instruction to the stored subtype
// used to filter reads. An empty result means no filter.
func subtypeFor(c domain.Category, content string) string {
	switch c {
	case domain.CategoryBottle:
		switch content {
		case "formula":
			return domain.SubtypeFormula
		case "milk", "breastmilk":
			return domain.SubtypeBreastmilk
		}
	case domain.CategoryDiaper:
		switch content {
		case domain.SubtypePee, domain.SubtypePoop:
			return content
		}
	case domain.CategoryBody:
		return bodyField(content)
	}
	return ""
}

// bodyField maps a body keyword to the measured field, "" when unknown.
func bodyField(content string) string {
	switch content {
	case "height", "length", "lenght", "tall", "small":
		return domain.FieldHeight
	case "weight", "heavy", "light":
		return domain.FieldWeight
	case "head", "size":
		return domain.FieldHead
	}
	return ""
}

// readFiltered reads the records of c matching subtype, falling back to all
// records of c when none match.
func readFiltered(ctx context.Context, store domain.MeasurementStore, c domain.Category, subtype string) ([]domain.Record, error) {
	records, err := store.ReadMeasurements(ctx, c, subtype)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 || subtype == "" {
		return records, nil
	}
	return store.ReadMeasurements(ctx, c, "")
}

// pickEntry selects the record a When refers to. Records must be sorted by
// time, oldest first. A concrete time picks the latest record at or before
// it, or the closest one when all records are later.
func pickEntry(records []domain.Record, when domain.When) (domain.Record, bool) {
	if len(records) == 0 {
		return domain.Record{}, false
	}
	t, ok := when.Time()
	if !ok {
		return records[len(records)-1], true
	}

	best := -1
	for i, r := range records {
		if !r.Time.After(t) {
			best = i
		}
	}
	if best >= 0 {
		return records[best], true
	}

	best = 0
	for i, r := range records {
		if absDuration(r.Time.Sub(t)) < absDuration(records[best].Time.Sub(t)) {
			best = i
		}
	}
	return records[best], true
}

// sameDay returns the records on the same local calendar day as ref.
func sameDay(records []domain.Record, ref time.Time, loc *time.Location) []domain.Record {
	y, m, d := ref.In(loc).Date()
	var out []domain.Record
	for _, r := range records {
		ry, rm, rd := r.Time.In(loc).Date()
		if ry == y && rm == m && rd == d {
			out = append(out, r)
		}
	}
	return out
}

// sumAmount adds up the amounts of records.
func sumAmount(records []domain.Record) float64 {
	var sum float64
	for _, r := range records {
		if r.Amount != nil {
			sum += *r.Amount
		}
	}
	return sum
}

// formatAmount uses the shortest decimal representation, so 120 prints as
// "120" and 12.5 as "12.5".
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	return formatAmount(*v) + " " + unit
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// unitOf is the unit amounts of a category are stored in.
func unitOf(c domain.Category) string {
	switch c {
	case domain.CategoryBottle:
		return "ml"
	case domain.CategoryBreastfeeding:
		return "min"
	}
	return ""
}
