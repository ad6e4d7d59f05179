// Package keyextract derives the canonical program stream id from the noisy
// identifier fields of the description table. The declared keys in the source
// exports are unreliable, so extraction runs an ordered table of named
// strategies and accepts the first one whose parsed-rate clears a threshold.
// Adding a new id source means adding a strategy entry, not another branch.
package keyextract

import (
	"regexp"
	"strconv"
	"strings"

	"resmatch/internal/pipeline/frame"
	dErrors "resmatch/pkg/domain-errors"
)

var (
	// "<prefix>-<id>": digits after the last hyphen win over bare trailing digits.
	reHyphenSuffix = regexp.MustCompile(`-\s*(\d+)\s*$`)
	reDigitSuffix  = regexp.MustCompile(`(\d+)\s*$`)
	// "/<iteration>/<id>": numeric path segment following a numeric segment.
	reURLSegment = regexp.MustCompile(`/\d+/(\d+)\b`)
)

// Strategy extracts a candidate id from one cell of a specific column.
type Strategy struct {
	Name   string
	Column string
	Parse  func(string) (int64, bool)
}

// registry holds all known strategies; Options.Strategies selects and orders
// them per run.
var registry = map[string]Strategy{
	"document_id": {
		Name:   "document_id",
		Column: "document_id",
		Parse:  parseDocumentID,
	},
	"source_url": {
		Name:   "source_url",
		Column: "source",
		Parse:  parseSourceURL,
	},
}

// Options configures strategy order and the acceptance threshold.
type Options struct {
	Strategies []string
	MinRate    float64
}

// DefaultOptions mirror the production source layout: prefer the document id,
// fall back to the source URL, accept at 95% parsed.
func DefaultOptions() Options {
	return Options{
		Strategies: []string{"document_id", "source_url"},
		MinRate:    0.95,
	}
}

// Result carries the per-row canonical ids plus which strategy won. IDs stay
// nullable per row even on an accepted strategy; the join validator treats
// remaining nulls as hard failures so rows are never silently dropped.
type Result struct {
	IDs      []int64
	Valid    []bool
	Strategy string
}

// ValidCount returns how many rows parsed successfully.
func (r *Result) ValidCount() int {
	n := 0
	for _, ok := range r.Valid {
		if ok {
			n++
		}
	}
	return n
}

// Extract runs the configured strategies in order against the description
// table and returns the first accepted result.
func Extract(t *frame.Table, opts Options) (*Result, error) {
	if len(opts.Strategies) == 0 {
		opts.Strategies = DefaultOptions().Strategies
	}
	if opts.MinRate <= 0 || opts.MinRate > 1 {
		opts.MinRate = DefaultOptions().MinRate
	}

	inspected := make([]string, 0, len(opts.Strategies))
	for _, name := range opts.Strategies {
		strat, ok := registry[name]
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeExtractionFailed, "unknown id extraction strategy %q", name)
		}
		if !t.HasColumn(strat.Column) {
			continue
		}
		inspected = append(inspected, strat.Column)

		res := apply(t, strat)
		if accepted(res.ValidCount(), t.NumRows(), opts.MinRate) {
			return res, nil
		}
	}

	if len(inspected) == 0 {
		inspected = append(inspected, "(none present)")
	}
	return nil, dErrors.Newf(dErrors.CodeExtractionFailed,
		"unresolvable identifier: no strategy reached %.0f%% parsed over columns %s",
		opts.MinRate*100, strings.Join(inspected, ", "))
}

func apply(t *frame.Table, strat Strategy) *Result {
	n := t.NumRows()
	res := &Result{
		IDs:      make([]int64, n),
		Valid:    make([]bool, n),
		Strategy: strat.Name,
	}
	for row := 0; row < n; row++ {
		cell := frame.CleanText(t.Cell(row, strat.Column))
		if cell == "" {
			continue
		}
		if id, ok := strat.Parse(cell); ok {
			res.IDs[row] = id
			res.Valid[row] = true
		}
	}
	return res
}

// accepted applies the threshold: at least minRate of rows parsed, and at
// least one row even for tiny tables.
func accepted(valid, total int, minRate float64) bool {
	if total == 0 {
		return false
	}
	need := int(minRate * float64(total))
	if need < 1 {
		need = 1
	}
	return valid >= need
}

func parseDocumentID(s string) (int64, bool) {
	if m := reHyphenSuffix.FindStringSubmatch(s); m != nil {
		return parseID(m[1])
	}
	if m := reDigitSuffix.FindStringSubmatch(s); m != nil {
		return parseID(m[1])
	}
	return 0, false
}

func parseSourceURL(s string) (int64, bool) {
	if m := reURLSegment.FindStringSubmatch(s); m != nil {
		return parseID(m[1])
	}
	return 0, false
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
