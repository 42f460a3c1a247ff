package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"babymeasure/internal/domain"
)

// Chat answers.
const (
	notUnderstood = "Sorry, I didn't get that."
	missingAmount = "You must give a numeric value to log."
	bodyFieldHint = "Please say what you measured: 'height', 'length', 'weight', 'head' or 'size'."
	apology       = "Sorry, something went wrong. Please try again later."
	noEditor      = "Editing entries is not available."
)

// DispatcherConfig holds the chat behaviour settings.
type DispatcherConfig struct {
	Location        *time.Location
	PlotPadding     time.Duration
	PlotDefaultDays int
}

// DispatcherDeps are the collaborators of a Dispatcher. Only Store is
// required.
type DispatcherDeps struct {
	Store   domain.MeasurementStore
	Charts  domain.ChartRenderer
	Editor  Editor
	Queue   Enqueuer
	Status  *StatusService
	Metrics *Metrics
	Logger  *zap.Logger
}

// Dispatcher executes instructions against the store and phrases the answer.
type Dispatcher struct {
	cfg    DispatcherConfig
	deps   DispatcherDeps
	logger *zap.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg DispatcherConfig, deps DispatcherDeps) *Dispatcher {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.PlotDefaultDays <= 0 {
		cfg.PlotDefaultDays = 10
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{cfg: cfg, deps: deps, logger: log}
}

// Dispatch runs ins and returns the answer. now is the time the request was
// received; it is used for entries logged without an explicit time.
func (d *Dispatcher) Dispatch(ctx context.Context, ins domain.Instruction, now time.Time) domain.Response {
	d.deps.Metrics.RecordInstruction(ins)

	if ins.SystemStatus {
		if d.deps.Status == nil {
			return domain.Response{Text: "I'm online."}
		}
		return domain.Response{Text: d.deps.Status.Status(now)}
	}
	if ins.Category == domain.CategoryUnknown {
		return domain.Response{Text: notUnderstood}
	}

	switch ins.Action {
	case domain.ActionLog:
		return d.record(ctx, ins, now)
	case domain.ActionGet:
		return d.lookup(ctx, ins)
	case domain.ActionPlot:
		return d.plot(ctx, ins, now)
	case domain.ActionEdit, domain.ActionDelete:
		return d.edit(ctx, ins)
	}
	return domain.Response{Text: notUnderstood}
}

func (d *Dispatcher) record(ctx context.Context, ins domain.Instruction, now time.Time) domain.Response {
	r := domain.Record{UID: uuid.New(), Category: ins.Category, Time: now.In(d.cfg.Location)}
	if t, ok := ins.When.Time(); ok {
		r.Time = t
	}

	switch ins.Category {
	case domain.CategoryBottle:
		if ins.Amount == nil {
			return domain.Response{Text: missingAmount}
		}
		r.Amount = ins.Amount
		r.Subtype = domain.SubtypeBreastmilk
		if ins.Content == domain.SubtypeFormula {
			r.Subtype = domain.SubtypeFormula
		}
	case domain.CategoryBreastfeeding:
		if ins.Amount == nil {
			return domain.Response{Text: missingAmount}
		}
		r.Amount = ins.Amount
	case domain.CategoryDiaper:
		r.Subtype = domain.SubtypePee
		if ins.Content == domain.SubtypePoop {
			r.Subtype = domain.SubtypePoop
		}
	case domain.CategoryBody:
		if ins.Amount == nil {
			return domain.Response{Text: missingAmount}
		}
		switch bodyField(ins.Content) {
		case domain.FieldHeight:
			r.Height = ins.Amount
		case domain.FieldWeight:
			r.Weight = ins.Amount
		case domain.FieldHead:
			r.Head = ins.Amount
		default:
			return domain.Response{Text: bodyFieldHint}
		}
	}

	id, err := d.deps.Store.AppendMeasurement(ctx, r)
	if err != nil {
		return d.fail(ctx, "append", ins, err)
	}
	r.ID = id

	resp := domain.Response{Text: fmt.Sprintf("The following content has been added to the %s db:\n%s at %s",
		ins.Category.Table(), describe(r), r.Time.In(d.cfg.Location).Format(entryLayout))}

	if d.deps.Charts != nil {
		img, err := d.deps.Charts.RenderChart(ctx, ins.Category, nil)
		if err != nil {
			d.deps.Metrics.RecordFailure("render")
			d.logger.Error("render chart after log", zap.Stringer("instruction", ins), zap.Error(err))
		} else {
			resp.Image = img
		}
	}
	if d.deps.Queue != nil {
		d.deps.Queue.Enqueue("log " + ins.Category.Table())
	}
	return resp
}

func (d *Dispatcher) lookup(ctx context.Context, ins domain.Instruction) domain.Response {
	records, err := readFiltered(ctx, d.deps.Store, ins.Category, subtypeFor(ins.Category, ins.Content))
	if err != nil {
		return d.fail(ctx, "read", ins, err)
	}
	r, ok := pickEntry(records, ins.When)
	if !ok {
		return domain.Response{Text: fmt.Sprintf("There are no %s entries yet.", ins.Category.Table())}
	}
	day := sameDay(records, r.Time, d.cfg.Location)
	when := r.Time.In(d.cfg.Location).Format(entryLayout)

	var text string
	switch ins.Category {
	case domain.CategoryBottle:
		text = fmt.Sprintf("The %s amount from %s was %s", r.Subtype, when, formatOptional(r.Amount, "ml"))
		text += daySum(r, day, "ml")
	case domain.CategoryBreastfeeding:
		text = fmt.Sprintf("The breastfeeding from %s took %s", when, formatOptional(r.Amount, "min"))
		text += daySum(r, day, "min")
	case domain.CategoryDiaper:
		noun := "nappies"
		if len(day) == 1 {
			noun = "nappy"
		}
		text = fmt.Sprintf("On %s the nappy content was %s (total: %d %s)", when, r.Subtype, len(day), noun)
	case domain.CategoryBody:
		text = fmt.Sprintf("Measures from %s:\nweight: %s\nheight: %s\nhead: %s", when,
			formatOptional(r.Weight, "kg"), formatOptional(r.Height, "cm"), formatOptional(r.Head, "cm"))
	}
	return domain.Response{Text: text}
}

// daySum phrases the same-day total, or nothing when r is the only amount.
func daySum(r domain.Record, day []domain.Record, unit string) string {
	sum := sumAmount(day)
	if r.Amount != nil && sum == *r.Amount {
		return ""
	}
	return fmt.Sprintf(" (sum that day: %s %s)", formatAmount(sum), unit)
}

func (d *Dispatcher) plot(ctx context.Context, ins domain.Instruction, now time.Time) domain.Response {
	rng, ok := ins.When.Range()
	if !ok {
		now = now.In(d.cfg.Location)
		rng = domain.TimeRange{Start: now.AddDate(0, 0, -d.cfg.PlotDefaultDays), End: now}
	}
	caption := fmt.Sprintf("%s from %s to %s", ins.Category.Title(),
		rng.Start.In(d.cfg.Location).Format(entryLayout), rng.End.In(d.cfg.Location).Format(entryLayout))

	if d.deps.Charts == nil {
		return domain.Response{Text: "Charts are not available."}
	}
	padded := rng.Pad(d.cfg.PlotPadding)
	img, err := d.deps.Charts.RenderChart(ctx, ins.Category, &padded)
	if errors.Is(err, ErrNoData) {
		return domain.Response{Text: fmt.Sprintf("There are no %s entries between %s and %s.", ins.Category.Table(),
			rng.Start.In(d.cfg.Location).Format(entryLayout), rng.End.In(d.cfg.Location).Format(entryLayout))}
	}
	if err != nil {
		return d.fail(ctx, "render", ins, err)
	}
	return domain.Response{Text: caption, Image: img}
}

func (d *Dispatcher) edit(ctx context.Context, ins domain.Instruction) domain.Response {
	if d.deps.Editor == nil {
		return domain.Response{Text: noEditor}
	}
	text, err := d.deps.Editor.Apply(ctx, ins)
	if err != nil {
		return d.fail(ctx, "edit", ins, err)
	}
	return domain.Response{Text: text}
}

func (d *Dispatcher) fail(_ context.Context, stage string, ins domain.Instruction, err error) domain.Response {
	d.deps.Metrics.RecordFailure(stage)
	d.logger.Error("dispatch failed",
		zap.String("stage", stage),
		zap.Stringer("action", ins.Action),
		zap.Stringer("category", ins.Category),
		zap.String("content", ins.Content),
		zap.Stringer("when", ins.When),
		zap.Error(err),
	)
	return domain.Response{Text: apology}
}

// describe phrases the values of a record.
func describe(r domain.Record) string {
	switch r.Category {
	case domain.CategoryBottle:
		return fmt.Sprintf("%s: %s", r.Subtype, formatOptional(r.Amount, "ml"))
	case domain.CategoryBreastfeeding:
		return "duration: " + formatOptional(r.Amount, "min")
	case domain.CategoryDiaper:
		return r.Subtype
	case domain.CategoryBody:
		var parts []string
		for _, f := range []string{domain.FieldWeight, domain.FieldHeight, domain.FieldHead} {
			if v := r.BodyField(f); v != nil {
				parts = append(parts, fmt.Sprintf("%s: %s", f, formatOptional(v, bodyUnit(f))))
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
