package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"babymeasure/internal/domain"
)

const (
	stampLayout = "2006-01-02T15:04"
	// maxLastDays bounds "last N days"; larger windows fall back to the default.
	maxLastDays = 100 * 366
)

var (
	weekdayRe = regexp.MustCompile(`\b(monday|mon|tuesday|tues|tue|wednesday|wed|thursday|thurs|thur|thu|friday|fri|saturday|sat|sunday|sun)\b`)

	dayBeforeYesterdayRe = regexp.MustCompile(`\b(?:the\s+)?day\s+before\s+yesterday\b`)
	yesterdayRe          = regexp.MustCompile(`\byesterday\b`)
	todayRe              = regexp.MustCompile(`\btoday\b`)

	fullDateRe = regexp.MustCompile(`\b(\d{1,4})[./-](\d{1,2})[./-](\d{1,4})\b`)
	// Dotted month-only dates need two digits on both sides so 3.2 stays a number.
	monthDayRe = regexp.MustCompile(`\b(?:(\d{1,2})[/-](\d{1,2})|(\d{2})\.(\d{2}))\b`)
	clockRe    = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)

	lastNRe     = regexp.MustCompile(`\blast\s+(\d+)\s*(days?|weeks?|d|w)?\b`)
	rangeWordRe = regexp.MustCompile(`\b(from|since|between|to|until|and)\b`)
)

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tues": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thurs": time.Thursday, "thur": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

// Resolution is the outcome of resolving a point in time from text.
type Resolution struct {
	Time     time.Time
	Found    bool
	Residual string
}

// Resolver finds dates and clock times in chat text. All times are naive
// wall-clock times in the configured location.
type Resolver struct {
	loc         *time.Location
	defaultDays int
}

// NewResolver creates a Resolver for loc. defaultDays is the length of the
// plot window used when a range names no start.
func NewResolver(loc *time.Location, defaultDays int) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	if defaultDays <= 0 {
		defaultDays = 10
	}
	return &Resolver{loc: loc, defaultDays: defaultDays}
}

// ResolveAt looks for a date and/or a clock time in text, relative to now.
// A date without a time keeps the clock time of now, a time without a date
// means today. Matched substrings are removed from the residual text.
func (r *Resolver) ResolveAt(text string, now time.Time) Resolution {
	text = strings.ToLower(text)
	now = now.In(r.loc)
	res := Resolution{Residual: text}

	residual := text
	day, dateFound := now, false

	if m := weekdayRe.FindStringSubmatchIndex(residual); m != nil {
		want := weekdays[residual[m[2]:m[3]]]
		for day.Weekday() != want {
			day = day.AddDate(0, 0, -1)
		}
		dateFound = true
		residual = cut(residual, m)
	}

	if !dateFound {
		for _, rel := range []struct {
			re   *regexp.Regexp
			days int
		}{
			{dayBeforeYesterdayRe, -2},
			{yesterdayRe, -1},
			{todayRe, 0},
		} {
			if m := rel.re.FindStringIndex(residual); m != nil {
				day = now.AddDate(0, 0, rel.days)
				dateFound = true
				residual = cut(residual, m)
				break
			}
		}
	}

	if !dateFound {
		if d, m, ok := r.explicitDate(residual, now); ok {
			day = d
			dateFound = true
			residual = cut(residual, m)
		}
	}

	hour, minute := now.Hour(), now.Minute()
	timeFound := false
	if m := clockRe.FindStringSubmatchIndex(residual); m != nil {
		hour, _ = strconv.Atoi(residual[m[2]:m[3]])
		minute, _ = strconv.Atoi(residual[m[4]:m[5]])
		timeFound = true
		residual = cut(residual, m)
	}

	if !dateFound && !timeFound {
		return res
	}

	stamp := fmt.Sprintf("%04d-%02d-%02dT%02d:%02d", day.Year(), int(day.Month()), day.Day(), hour, minute)
	t, err := time.ParseInLocation(stampLayout, stamp, r.loc)
	if err != nil {
		return res
	}
	res.Time = t
	res.Found = true
	res.Residual = strings.Join(strings.Fields(residual), " ")
	return res
}

// explicitDate matches a full date or a month-day date in s. It returns the
// match location so the caller can cut it.
func (r *Resolver) explicitDate(s string, now time.Time) (time.Time, []int, bool) {
	var rejected [][]int
	for _, m := range fullDateRe.FindAllStringSubmatchIndex(s, -1) {
		a, b, c := s[m[2]:m[3]], s[m[4]:m[5]], s[m[6]:m[7]]
		var year, month, day int
		if len(a) >= 3 {
			year, month, day = atoi(a), atoi(b), atoi(c)
		} else {
			day, month, year = atoi(a), atoi(b), atoi(c)
		}
		if year < 100 {
			year += 2000
		}
		if t, ok := r.date(year, month, day, now); ok {
			return t, m[:2], true
		}
		rejected = append(rejected, m[:2])
	}
	for _, m := range monthDayRe.FindAllStringSubmatchIndex(s, -1) {
		if overlaps(m, rejected) {
			continue
		}
		var month, day int
		if m[2] >= 0 {
			month, day = atoi(s[m[2]:m[3]]), atoi(s[m[4]:m[5]])
		} else {
			// A dotted pair followed by a unit is a decimal amount.
			if followedByUnit(s[m[1]:]) {
				continue
			}
			month, day = atoi(s[m[6]:m[7]]), atoi(s[m[8]:m[9]])
		}
		if t, ok := r.date(now.Year(), month, day, now); ok {
			return t, m[:2], true
		}
	}
	return time.Time{}, nil, false
}

func overlaps(m []int, spans [][]int) bool {
	for _, sp := range spans {
		if m[0] < sp[1] && sp[0] < m[1] {
			return true
		}
	}
	return false
}

func followedByUnit(rest string) bool {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return false
	}
	unit := strings.Trim(fields[0], ".,;!?")
	// "in" after a date is the preposition, not inches.
	return unit != "in" && domain.CanonicalUnit(unit) != ""
}

// date builds the given calendar day with now's clock, rejecting values that
// time.Date would silently normalize.
func (r *Resolver) date(year, month, day int, now time.Time) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, now.Hour(), now.Minute(), 0, 0, r.loc)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// RangeAt resolves the plot range named in text. Without a start the range
// covers the default number of days before now, without an end it ends now.
func (r *Resolver) RangeAt(text string, now time.Time) domain.TimeRange {
	text = strings.ToLower(text)
	now = now.In(r.loc)

	if m := lastNRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n <= maxLastDays {
			if strings.HasPrefix(m[2], "w") {
				n *= 7
			}
			if n <= maxLastDays {
				return domain.TimeRange{Start: now.AddDate(0, 0, -n), End: now}
			}
		}
	}

	rng := domain.TimeRange{Start: now.AddDate(0, 0, -r.defaultDays), End: now}
	marks := rangeWordRe.FindAllStringSubmatchIndex(text, -1)
	for i, m := range marks {
		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		phrase := text[m[1]:end]
		res := r.ResolveAt(phrase, now)
		if !res.Found {
			continue
		}
		switch text[m[2]:m[3]] {
		case "from", "since", "between":
			rng.Start = res.Time
		default:
			rng.End = res.Time
		}
	}
	if rng.Start.After(rng.End) {
		rng.Start, rng.End = rng.End, rng.Start
	}
	return rng
}

// cut replaces s[m[0]:m[1]] with a single space.
func cut(s string, m []int) string {
	return s[:m[0]] + " " + s[m[1]:]
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
