package xlit

import (
	"fmt"
)

// Rule is a single substitution within a rule set: when Pattern matches at the
// current scan position, Replacement is emitted and the matched input is
// consumed.
type Rule struct {
	// Pattern is the text to match. Interpreted as a literal string unless
	// Regex is true, in which case it is a regular expression in RE2 syntax.
	Pattern string `yaml:"pattern"`

	// Replacement is the text emitted when Pattern matches.
	Replacement string `yaml:"replacement"`

	// Regex marks Pattern as a regular expression rather than a literal.
	Regex bool `yaml:"regex"`

	// CaseSensitive controls matching case. The default (false) matches
	// case-insensitively, which suits shorthand notations typed in chat.
	CaseSensitive bool `yaml:"case_sensitive"`

	// Priority orders rules within a set. On overlap at the same input
	// position the rule with the highest priority wins; ties go to the rule
	// declared earlier in the document.
	Priority int `yaml:"priority"`
}

// RuleSetSource is the declarative YAML shape of one rule set document.
// Compile validates it and produces an executable [RuleSet].
type RuleSetSource struct {
	// Name uniquely identifies the rule set (e.g., "xsampa").
	Name string `yaml:"name"`

	// Trigger is the literal prefix that invokes this rule set in raw chat
	// text (e.g., "x/"). Must be ASCII with no whitespace, and must not be
	// a prefix of any other loaded rule set's trigger.
	Trigger string `yaml:"trigger"`

	// Symbol is the short display label used in rendered output lines and
	// the alphabet legend. Defaults to Name when empty.
	Symbol string `yaml:"symbol"`

	// Terminator, when non-empty, closes a triggered span: the span runs
	// from the end of Trigger to the next occurrence of Terminator. A span
	// with no closing Terminator is malformed and is left untouched. When
	// empty, spans end at the next whitespace or at end of text.
	Terminator string `yaml:"terminator"`

	// Rules is the ordered rule list. Declaration order is the tie-break
	// for equal priorities.
	Rules []Rule `yaml:"rules"`
}

// RuleSet is a compiled, immutable rule set. Safe for unbounded concurrent
// use; it is never mutated after Compile returns it.
type RuleSet struct {
	name       string
	trigger    string
	symbol     string
	terminator string

	// rules sorted by (priority desc, declaration order asc). Apply scans
	// this slice front to back and the first match wins, which realises
	// the documented precedence order.
	rules []compiledRule
}

// Name returns the rule set's unique name.
func (rs *RuleSet) Name() string { return rs.name }

// Trigger returns the literal prefix that invokes this rule set.
func (rs *RuleSet) Trigger() string { return rs.trigger }

// Symbol returns the short display label for rendered lines and the legend.
func (rs *RuleSet) Symbol() string { return rs.symbol }

// Terminator returns the span-closing delimiter, or "" for
// whitespace-bounded spans.
func (rs *RuleSet) Terminator() string { return rs.terminator }

// Len returns the number of rules in the set.
func (rs *RuleSet) Len() int { return len(rs.rules) }

// CompileError describes a rule set document that failed validation. It names
// the offending rule set and, when the problem is tied to a single rule, the
// rule's index in declaration order.
type CompileError struct {
	// SetName is the name of the offending rule set. May be empty when the
	// document declares no name.
	SetName string

	// RuleIndex is the zero-based declaration index of the offending rule,
	// or -1 when the error concerns the rule set as a whole.
	RuleIndex int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	name := e.SetName
	if name == "" {
		name = "(unnamed)"
	}
	if e.RuleIndex < 0 {
		return fmt.Sprintf("xlit: rule set %q: %v", name, e.Err)
	}
	return fmt.Sprintf("xlit: rule set %q: rule %d: %v", name, e.RuleIndex, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CompileError) Unwrap() error { return e.Err }
