package extract

import (
	"strings"
	"time"

	"babymeasure/internal/domain"
)

// Options configures an Extractor.
type Options struct {
	Greetings       []string
	Keywords        Keywords
	Location        *time.Location
	PlotDefaultDays int
}

// Extractor runs the whole text-to-instruction pipeline. It holds no
// mutable state and is safe for concurrent use.
type Extractor struct {
	resolver   *Resolver
	normalizer *Normalizer
	classifier *Classifier
}

// New creates an Extractor. Zero option fields fall back to the defaults.
func New(opts Options) *Extractor {
	if opts.Greetings == nil {
		opts.Greetings = DefaultGreetings
	}
	if opts.Keywords.Actions == nil || opts.Keywords.Categories == nil {
		opts.Keywords = DefaultKeywords()
	}
	return &Extractor{
		resolver:   NewResolver(opts.Location, opts.PlotDefaultDays),
		normalizer: NewNormalizer(opts.Greetings),
		classifier: NewClassifier(opts.Keywords),
	}
}

// Resolver returns the temporal resolver used by the pipeline.
func (e *Extractor) Resolver() *Resolver { return e.resolver }

// Extract parses text into an instruction. now is the single clock reading
// all relative dates resolve against.
func (e *Extractor) Extract(text string, now time.Time) domain.Instruction {
	text = strings.ToLower(text)
	res := e.resolver.ResolveAt(text, now)

	var resolved *time.Time
	if res.Found {
		resolved = &res.Time
	}
	words := e.normalizer.Normalize(res.Residual)
	ins := e.classifier.Classify(words, resolved)

	if ins.Action == domain.ActionPlot {
		ins.When = domain.Between(e.resolver.RangeAt(text, now))
	}
	return ins
}
