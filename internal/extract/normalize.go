// Package extract turns free-form chat text into structured instructions.
//
// The pipeline is: temporal resolution on the lowercased raw text, lexical
// normalization of the residual, keyword classification, and for plot
// requests a time-range resolution.
package extract

import (
	"strings"
)

// DefaultGreetings are dropped from chat input before classification.
var DefaultGreetings = []string{
	"hi",
	"hi there",
	"hola",
	"hallo",
	"hello",
	"guten tag",
	"what's up",
	"whassup",
	"hey",
	"hei",
	"hej",
}

// Normalizer lowercases and tokenizes chat text.
type Normalizer struct {
	words   map[string]struct{}
	phrases map[string]struct{}
}

// NewNormalizer creates a Normalizer that drops the given greetings. Single
// word greetings are dropped per token, multi-word greetings only when they
// make up the whole input.
func NewNormalizer(greetings []string) *Normalizer {
	n := &Normalizer{
		words:   make(map[string]struct{}),
		phrases: make(map[string]struct{}),
	}
	for _, g := range greetings {
		g = strings.Join(strings.Fields(strings.ToLower(g)), " ")
		if g == "" {
			continue
		}
		n.phrases[g] = struct{}{}
		if !strings.Contains(g, " ") {
			n.words[g] = struct{}{}
		}
	}
	return n
}

// Normalize returns the ordered, non-empty words of text.
func (n *Normalizer) Normalize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimFunc(f, isStrippable); t != "" {
			tokens = append(tokens, t)
		}
	}
	if _, ok := n.phrases[strings.Join(tokens, " ")]; ok {
		return []string{}
	}

	out := tokens[:0]
	for _, t := range tokens {
		if _, ok := n.words[t]; ok {
			continue
		}
		out = append(out, t)
	}
	if _, ok := n.phrases[strings.Join(out, " ")]; ok {
		return []string{}
	}
	return out
}

// isStrippable reports ASCII punctuation other than '-' and ':'.
func isStrippable(r rune) bool {
	if r == '-' || r == ':' {
		return false
	}
	return r < 0x80 && strings.ContainsRune(asciiPunctuation, r)
}

const asciiPunctuation = "!\"#$%&'()*+,./;<=>?@[\\]^_`{|}~"
