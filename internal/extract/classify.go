package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"babymeasure/internal/domain"
)

var amountRe = regexp.MustCompile(`^\+?(\d+(?:[.,]\d+)?)(ml|oz|minutes|mins|min|h|kg|g|lbs|lb|cm|mm|in)?$`)

// Keywords maps chat words to actions and categories.
type Keywords struct {
	Actions    map[string]domain.Action
	Categories map[string]domain.Category
}

// DefaultKeywords returns a fresh copy of the built-in keyword tables.
func DefaultKeywords() Keywords {
	return Keywords{
		Actions: map[string]domain.Action{
			"set":    domain.ActionLog,
			"setze":  domain.ActionLog,
			"put":    domain.ActionLog,
			"log":    domain.ActionLog,
			"logg":   domain.ActionLog,
			"adjust": domain.ActionEdit,
			"edit":   domain.ActionEdit,
			"del":    domain.ActionDelete,
			"delete": domain.ActionDelete,
			"remove": domain.ActionDelete,
			"get":    domain.ActionGet,
			"when":   domain.ActionGet,
			"what":   domain.ActionGet,
			"how":    domain.ActionGet,
			"tell":   domain.ActionGet,
			"plot":   domain.ActionPlot,
			"draw":   domain.ActionPlot,
			"figure": domain.ActionPlot,
			"chart":  domain.ActionPlot,
		},
		Categories: map[string]domain.Category{
			"nappy":         domain.CategoryDiaper,
			"nappie":        domain.CategoryDiaper,
			"daiper":        domain.CategoryDiaper,
			"diaper":        domain.CategoryDiaper,
			"poop":          domain.CategoryDiaper,
			"poo":           domain.CategoryDiaper,
			"pee":           domain.CategoryDiaper,
			"formula":       domain.CategoryBottle,
			"milk":          domain.CategoryBottle,
			"bottle":        domain.CategoryBottle,
			"breastmilk":    domain.CategoryBottle,
			"head":          domain.CategoryBody,
			"size":          domain.CategoryBody,
			"lenght":        domain.CategoryBody,
			"length":        domain.CategoryBody,
			"height":        domain.CategoryBody,
			"tall":          domain.CategoryBody,
			"weight":        domain.CategoryBody,
			"heavy":         domain.CategoryBody,
			"light":         domain.CategoryBody,
			"small":         domain.CategoryBody,
			"nursing":       domain.CategoryBreastfeeding,
			"breastfeeding": domain.CategoryBreastfeeding,
			"long":          domain.CategoryBreastfeeding,
			"duration":      domain.CategoryBreastfeeding,
		},
	}
}

// Classifier turns normalized words into an instruction. It runs a single
// first-match scan and then applies the override rules in order.
type Classifier struct {
	kw    Keywords
	rules []Rule
}

// Rule adjusts an instruction after the scan pass. words holds every word of
// the message; resolved is the concrete time found in it, if any.
type Rule struct {
	Name  string
	Apply func(ins *domain.Instruction, words map[string]bool, resolved *time.Time)
}

// DefaultRules are the override rules, in the order they are applied.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "diaper-content", Apply: diaperContent},
		{Name: "last-entry", Apply: lastEntry},
		{Name: "duration-means-breastfeeding", Apply: durationMeansBreastfeeding},
		{Name: "fed-milk-means-bottle", Apply: fedMilkMeansBottle},
	}
}

// NewClassifier creates a Classifier using kw and the default rules.
func NewClassifier(kw Keywords) *Classifier {
	return &Classifier{kw: kw, rules: DefaultRules()}
}

// Rules returns the names of the override rules in application order.
func (c *Classifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}

// Classify builds the instruction for words. resolved is the point in time
// found by the temporal resolver, nil when there was none.
func (c *Classifier) Classify(words []string, resolved *time.Time) domain.Instruction {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.Trim(w, "-:")] = true
	}

	ins := domain.Instruction{Action: domain.ActionGet, When: domain.Last()}
	if resolved != nil {
		ins.When = domain.At(*resolved)
	}

	if set["uptime"] || set["online"] {
		ins.SystemStatus = true
		return ins
	}

	actionSet := false
	for _, w := range words {
		key := strings.Trim(w, "-:")
		if a, ok := c.kw.Actions[key]; ok && !actionSet {
			ins.Action = a
			actionSet = true
			continue
		}
		if cat, ok := c.kw.Categories[key]; ok && ins.Category == domain.CategoryUnknown {
			ins.Category = cat
			ins.Content = key
			continue
		}
		if ins.Amount == nil {
			if v, ok := parseAmount(key); ok {
				ins.Amount = &v
			}
		}
	}

	for _, r := range c.rules {
		r.Apply(&ins, set, resolved)
	}
	return ins
}

// parseAmount reads a number with an optional unit suffix and converts it to
// the unit the category is stored in.
func parseAmount(w string) (float64, bool) {
	m := amountRe.FindStringSubmatch(w)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	if unit := m[2]; unit != "" {
		v = domain.Convert(v, unit, domain.CanonicalUnit(unit))
	}
	return v, true
}

func diaperContent(ins *domain.Instruction, words map[string]bool, _ *time.Time) {
	if ins.Category != domain.CategoryDiaper {
		return
	}
	switch {
	case words["poo"] || words["poop"]:
		ins.Content = domain.SubtypePoop
	case words["pee"]:
		ins.Content = domain.SubtypePee
	}
	ins.Amount = nil
}

func lastEntry(ins *domain.Instruction, words map[string]bool, resolved *time.Time) {
	if words["last"] && resolved == nil {
		ins.When = domain.Last()
	}
}

func durationMeansBreastfeeding(ins *domain.Instruction, words map[string]bool, _ *time.Time) {
	if ins.Category == domain.CategoryBottle {
		return
	}
	for _, w := range []string{"long", "dur", "duration", "feeding", "breastfeeding"} {
		if words[w] {
			ins.Category = domain.CategoryBreastfeeding
			return
		}
	}
}

func fedMilkMeansBottle(ins *domain.Instruction, words map[string]bool, _ *time.Time) {
	if words["feeding"] && words["milk"] {
		ins.Category = domain.CategoryBottle
		ins.Content = domain.SubtypeBreastmilk
	}
}
