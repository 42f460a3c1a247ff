package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category identifies the measurement table an instruction or record targets.
type Category int

// Measurement categories.
const (
	CategoryUnknown Category = iota
	CategoryBottle
	CategoryBreastfeeding
	CategoryDiaper
	CategoryBody
)

// Categories lists every concrete category in display order.
var Categories = []Category{CategoryBottle, CategoryBreastfeeding, CategoryDiaper, CategoryBody}

func (c Category) String() string {
	switch c {
	case CategoryBottle:
		return "bottle"
	case CategoryBreastfeeding:
		return "breastfeeding"
	case CategoryDiaper:
		return "diaper"
	case CategoryBody:
		return "body"
	default:
		return "unknown"
	}
}

// Table returns the database table backing the category.
func (c Category) Table() string {
	if c == CategoryUnknown {
		return ""
	}
	return c.String()
}

// Title is the human readable chart title of the category.
func (c Category) Title() string {
	switch c {
	case CategoryBottle:
		return "Bottle feeding"
	case CategoryBreastfeeding:
		return "Breast feeding"
	case CategoryDiaper:
		return "Nappy content"
	case CategoryBody:
		return "Body measures"
	default:
		return "Unknown"
	}
}

// ParseCategory maps a table or category name back to a Category.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bottle", "mamadera":
		return CategoryBottle
	case "breastfeeding", "leche":
		return CategoryBreastfeeding
	case "diaper", "nappy", "nappie":
		return CategoryDiaper
	case "body":
		return CategoryBody
	default:
		return CategoryUnknown
	}
}

// Bottle and diaper subtypes.
const (
	SubtypeFormula    = "formula"
	SubtypeBreastmilk = "breastmilk"
	SubtypePee        = "pee"
	SubtypePoop       = "poop"
)

// Body measurement fields.
const (
	FieldHeight = "height"
	FieldWeight = "weight"
	FieldHead   = "head"
)

// Record is a single measurement. Which value fields are set depends on the
// category: bottle uses Amount (ml) and Subtype, breastfeeding uses Amount
// (minutes), diaper uses Subtype and body sets any of Height, Weight, Head.
type Record struct {
	ID       int64     `json:"id"`
	UID      uuid.UUID `json:"uid"`
	Category Category  `json:"-"`
	Time     time.Time `json:"time"`
	Subtype  string    `json:"type,omitempty"`
	Amount   *float64  `json:"amount,omitempty"`
	Height   *float64  `json:"height,omitempty"`
	Weight   *float64  `json:"weight,omitempty"`
	Head     *float64  `json:"head,omitempty"`
}

// BodyField returns the body measurement stored under name.
func (r Record) BodyField(name string) *float64 {
	switch name {
	case FieldHeight:
		return r.Height
	case FieldWeight:
		return r.Weight
	case FieldHead:
		return r.Head
	}
	return nil
}

// MatchesSubtype reports whether the record belongs to the given subtype.
// An empty subtype matches everything. For body records the subtype names
// the measured field.
func (r Record) MatchesSubtype(subtype string) bool {
	if subtype == "" {
		return true
	}
	if r.Category == CategoryBody {
		return r.BodyField(subtype) != nil
	}
	return r.Subtype == subtype
}

// MeasurementStore is the port the dispatcher reads from and appends to.
// ReadMeasurements returns records ordered by time, oldest first.
type MeasurementStore interface {
	ReadMeasurements(ctx context.Context, c Category, subtype string) ([]Record, error)
	AppendMeasurement(ctx context.Context, r Record) (int64, error)
}

// MeasurementEditor changes existing records.
type MeasurementEditor interface {
	UpdateMeasurement(ctx context.Context, r Record) error
	DeleteMeasurement(ctx context.Context, c Category, id int64) (bool, error)
}

// MeasurementRepository is implemented by the storage adapters.
type MeasurementRepository interface {
	MeasurementStore
	MeasurementEditor
}
