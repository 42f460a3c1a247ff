package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Action is what a chat instruction asks for.
type Action int

// Instruction actions.
const (
	ActionUnknown Action = iota
	ActionLog
	ActionGet
	ActionEdit
	ActionDelete
	ActionPlot
)

func (a Action) String() string {
	switch a {
	case ActionLog:
		return "log"
	case ActionGet:
		return "get"
	case ActionEdit:
		return "edit"
	case ActionDelete:
		return "delete"
	case ActionPlot:
		return "plot"
	default:
		return "unknown"
	}
}

// TimeRange is a closed interval of local wall-clock time.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Pad widens the range by d on both ends.
func (r TimeRange) Pad(d time.Duration) TimeRange {
	return TimeRange{Start: r.Start.Add(-d), End: r.End.Add(d)}
}

// Contains reports whether t lies within the range.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

type whenKind int

const (
	whenLast whenKind = iota
	whenAt
	whenBetween
)

// When is the time an instruction refers to: the most recent entry, a
// concrete point in time, or a range for plots. The zero value means Last.
type When struct {
	kind whenKind
	at   time.Time
	rng  TimeRange
}

// Last refers to the most recent matching record.
func Last() When { return When{kind: whenLast} }

// At refers to a concrete point in time.
func At(t time.Time) When { return When{kind: whenAt, at: t} }

// Between refers to a time range.
func Between(r TimeRange) When { return When{kind: whenBetween, rng: r} }

// IsLast reports whether w is the "last" sentinel.
func (w When) IsLast() bool { return w.kind == whenLast }

// Time returns the concrete point in time, if any.
func (w When) Time() (time.Time, bool) { return w.at, w.kind == whenAt }

// Range returns the time range, if any.
func (w When) Range() (TimeRange, bool) { return w.rng, w.kind == whenBetween }

// Equal reports whether two values refer to the same time.
func (w When) Equal(o When) bool {
	if w.kind != o.kind {
		return false
	}
	switch w.kind {
	case whenAt:
		return w.at.Equal(o.at)
	case whenBetween:
		return w.rng.Start.Equal(o.rng.Start) && w.rng.End.Equal(o.rng.End)
	}
	return true
}

func (w When) String() string {
	switch w.kind {
	case whenAt:
		return w.at.Format("2006-01-02T15:04")
	case whenBetween:
		return w.rng.Start.Format("2006-01-02T15:04") + "/" + w.rng.End.Format("2006-01-02T15:04")
	}
	return "last"
}

// Instruction is the structured form of a chat message.
type Instruction struct {
	Action   Action
	Category Category
	Content  string
	Amount   *float64
	When     When

	// SystemStatus marks the uptime/online query, answered without the store.
	SystemStatus bool
}

func (i Instruction) String() string {
	amount := "none"
	if i.Amount != nil {
		amount = strconv.FormatFloat(*i.Amount, 'f', -1, 64)
	}
	return fmt.Sprintf("action=%s category=%s content=%q amount=%s when=%s",
		i.Action, i.Category, i.Content, amount, i.When)
}

// Response is what the chat front ends relay back to the user.
type Response struct {
	Text  string
	Image []byte
}
