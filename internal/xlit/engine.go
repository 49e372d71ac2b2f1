// Package xlit implements the rule-driven transliteration engine behind
// ipabot's inline notation: shorthand ASCII transcriptions of speech sounds
// (e.g., X-SAMPA) are converted into phonetic symbols (e.g., IPA) according
// to named rule sets supplied as YAML data.
//
// The package is split along three seams:
//
//   - [Compile] turns one declarative [RuleSetSource] document into an
//     executable, immutable [RuleSet], performing all validation up front.
//   - [RuleSet.Apply] is the matcher: deterministic, priority-ordered
//     substitution over arbitrary Unicode text with verbatim pass-through
//     for anything no rule recognises.
//   - [Engine.Search] is the dispatcher: it scans a raw chat message for
//     rule set triggers, applies each invoked rule set to its spans, and
//     renders one output line per rule set.
//
// Everything here is a pure, CPU-bound transformation over immutable data.
// An Engine and its rule sets are safe for unbounded concurrent use; reload
// is done by building a new Engine and swapping it in atomically, never by
// mutating a live one.
package xlit

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Engine holds all loaded rule sets and dispatches raw chat text to them.
// Immutable after New.
type Engine struct {
	sets     []*RuleSet // load order
	alphabet string     // cached legend, derived from sets
}

// New builds an Engine from the given rule sets, in load order.
//
// Rule set names must be unique, and no trigger may be a prefix of another
// loaded trigger: the span scan resolves triggers in a single forward pass,
// which only stays unambiguous when triggers are pairwise prefix-free.
// Violations return a [*CompileError] naming the colliding sets.
func New(sets ...*RuleSet) (*Engine, error) {
	if len(sets) == 0 {
		return nil, &CompileError{RuleIndex: -1, Err: fmt.Errorf("no rule sets loaded")}
	}

	byName := make(map[string]*RuleSet, len(sets))
	for _, rs := range sets {
		if prev, ok := byName[rs.name]; ok && prev != rs {
			return nil, &CompileError{SetName: rs.name, RuleIndex: -1,
				Err: fmt.Errorf("name collides with an already-loaded rule set")}
		}
		byName[rs.name] = rs
	}
	for i, a := range sets {
		for _, b := range sets[i+1:] {
			if strings.HasPrefix(a.trigger, b.trigger) || strings.HasPrefix(b.trigger, a.trigger) {
				return nil, &CompileError{SetName: b.name, RuleIndex: -1,
					Err: fmt.Errorf("trigger %q is ambiguous with trigger %q of rule set %q",
						b.trigger, a.trigger, a.name)}
			}
		}
	}

	var legend strings.Builder
	for i, rs := range sets {
		if i > 0 {
			legend.WriteByte('\n')
		}
		fmt.Fprintf(&legend, "%s  %s", rs.symbol, rs.name)
	}

	e := &Engine{
		sets:     append([]*RuleSet(nil), sets...),
		alphabet: legend.String(),
	}
	return e, nil
}

// RuleSets returns the loaded rule sets in load order. The returned slice
// must not be modified.
func (e *Engine) RuleSets() []*RuleSet { return e.sets }

// RuleSet returns the loaded rule set with the given name, or nil.
func (e *Engine) RuleSet(name string) *RuleSet {
	for _, rs := range e.sets {
		if rs.name == name {
			return rs
		}
	}
	return nil
}

// AlphabetList returns the human-readable legend of every loaded rule set's
// symbol and name, one per line, in load order.
func (e *Engine) AlphabetList() string { return e.alphabet }

// span is one triggered region of the input, attributed to a rule set.
type span struct {
	set *RuleSet
	raw string // span body, trigger and terminator stripped
}

// Result is one rendered output line, attributed to the rule set that
// produced it.
type Result struct {
	// Set is the rule set the line belongs to.
	Set *RuleSet

	// Line is the rendered output: the set's symbol followed by the
	// converted spans in source order.
	Line string
}

// Search scans text for rule set triggers and returns one rendered line per
// distinct rule set that produced output, in the order rule sets are first
// invoked in the text. Text with no recognised trigger returns nil; that is
// not an error.
//
// A triggered span's extent is a property of its rule set: it runs to the
// set's terminator when one is configured, otherwise to the next whitespace
// or end of text. A span missing its terminator is malformed and is skipped
// rather than guessed at; Search never fails on malformed input.
func (e *Engine) Search(text string) []string {
	results := e.SearchResults(text)
	if len(results) == 0 {
		return nil
	}
	lines := make([]string, len(results))
	for i, res := range results {
		lines[i] = res.Line
	}
	return lines
}

// SearchResults is [Engine.Search] with each line attributed to its rule
// set, for callers that report per-rule-set statistics.
func (e *Engine) SearchResults(text string) []Result {
	spans := e.scan(text)
	if len(spans) == 0 {
		return nil
	}

	// Group converted spans by rule set, preserving first-invocation order.
	var order []*RuleSet
	outputs := make(map[*RuleSet][]string)
	for _, sp := range spans {
		if _, seen := outputs[sp.set]; !seen {
			order = append(order, sp.set)
		}
		outputs[sp.set] = append(outputs[sp.set], sp.set.Apply(sp.raw))
	}

	results := make([]Result, 0, len(order))
	for _, rs := range order {
		results = append(results, Result{
			Set:  rs,
			Line: fmt.Sprintf("%s %s", rs.symbol, strings.Join(outputs[rs], " ")),
		})
	}
	return results
}

// scan performs the single forward pass that extracts triggered spans.
func (e *Engine) scan(text string) []span {
	var spans []span

	for i := 0; i < len(text); {
		rs := e.triggerAt(text, i)
		if rs == nil {
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
			continue
		}

		start := i + len(rs.trigger)
		body, next, ok := extractSpan(text, start, rs.terminator)
		if !ok || body == "" {
			// Malformed or empty span: not a match. Resume after the
			// trigger so its characters cannot re-trigger.
			i = start
			continue
		}
		spans = append(spans, span{set: rs, raw: body})
		i = next
	}

	return spans
}

// triggerAt returns the rule set whose trigger occurs at byte position i,
// or nil. Triggers are pairwise prefix-free, so at most one can match.
func (e *Engine) triggerAt(text string, i int) *RuleSet {
	for _, rs := range e.sets {
		if strings.HasPrefix(text[i:], rs.trigger) {
			return rs
		}
	}
	return nil
}

// extractSpan returns the span body starting at start, the position scanning
// should resume at, and whether the span is well formed.
func extractSpan(text string, start int, terminator string) (body string, next int, ok bool) {
	if terminator != "" {
		end := strings.Index(text[start:], terminator)
		if end < 0 {
			return "", start, false
		}
		return text[start : start+end], start + end + len(terminator), true
	}

	end := strings.IndexFunc(text[start:], unicode.IsSpace)
	if end < 0 {
		return text[start:], len(text), true
	}
	return text[start : start+end], start + end, true
}
