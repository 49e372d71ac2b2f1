package xlit

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// compiledRule is one rule prepared for matching. Case-sensitive literal
// rules skip the regexp engine entirely; everything else is matched through
// an anchored RE2 pattern.
type compiledRule struct {
	rule  Rule
	index int // declaration order, the priority tie-break

	// re is nil for case-sensitive literal rules, which use a plain prefix
	// compare instead.
	re *regexp.Regexp
}

// matchLen returns the number of bytes of s consumed by the rule's pattern
// matching at position 0, or -1 when the pattern does not match there.
func (c *compiledRule) matchLen(s string) int {
	if c.re == nil {
		if strings.HasPrefix(s, c.rule.Pattern) {
			return len(c.rule.Pattern)
		}
		return -1
	}
	loc := c.re.FindStringIndex(s)
	if loc == nil {
		return -1
	}
	return loc[1]
}

// Compile validates src and produces an immutable, executable [RuleSet].
//
// All validation happens here, never during matching: required fields, an
// ASCII-safe trigger, and per-rule pattern compilation. Regular-expression
// rules are compiled with Go's RE2 engine, which matches in linear time by
// construction, so patterns prone to catastrophic backtracking (backreferences,
// lookaround) are rejected at this boundary rather than trusted at runtime.
// Patterns able to match the empty string are also rejected, since a match
// that consumes no input cannot advance the scan.
//
// Errors are always of type [*CompileError], naming the rule set and, where
// applicable, the offending rule index.
func Compile(src RuleSetSource) (*RuleSet, error) {
	if src.Name == "" {
		return nil, &CompileError{RuleIndex: -1, Err: fmt.Errorf("name is required")}
	}
	if src.Trigger == "" {
		return nil, &CompileError{SetName: src.Name, RuleIndex: -1, Err: fmt.Errorf("trigger is required")}
	}
	if !asciiSafe(src.Trigger) {
		return nil, &CompileError{SetName: src.Name, RuleIndex: -1,
			Err: fmt.Errorf("trigger %q must be printable ASCII without whitespace", src.Trigger)}
	}
	if src.Terminator != "" && !asciiSafe(src.Terminator) {
		return nil, &CompileError{SetName: src.Name, RuleIndex: -1,
			Err: fmt.Errorf("terminator %q must be printable ASCII without whitespace", src.Terminator)}
	}
	if len(src.Rules) == 0 {
		return nil, &CompileError{SetName: src.Name, RuleIndex: -1, Err: fmt.Errorf("at least one rule is required")}
	}

	rules := make([]compiledRule, 0, len(src.Rules))
	for i, r := range src.Rules {
		cr, err := compileRule(r, i)
		if err != nil {
			return nil, &CompileError{SetName: src.Name, RuleIndex: i, Err: err}
		}
		rules = append(rules, cr)
	}

	// Order once: highest priority first, declaration order breaking ties.
	// The stable sort preserves declaration order within equal priorities.
	sort.SliceStable(rules, func(a, b int) bool {
		return rules[a].rule.Priority > rules[b].rule.Priority
	})

	symbol := src.Symbol
	if symbol == "" {
		symbol = src.Name
	}

	return &RuleSet{
		name:       src.Name,
		trigger:    src.Trigger,
		symbol:     symbol,
		terminator: src.Terminator,
		rules:      rules,
	}, nil
}

// compileRule prepares a single rule for matching.
func compileRule(r Rule, index int) (compiledRule, error) {
	if r.Pattern == "" {
		return compiledRule{}, fmt.Errorf("pattern is required")
	}

	// Fast path: case-sensitive literals need no regexp.
	if !r.Regex && r.CaseSensitive {
		return compiledRule{rule: r, index: index}, nil
	}

	pat := r.Pattern
	if !r.Regex {
		pat = regexp.QuoteMeta(pat)
	}
	if !r.CaseSensitive {
		pat = "(?i:" + pat + ")"
	}
	re, err := regexp.Compile(`\A(?:` + pat + `)`)
	if err != nil {
		return compiledRule{}, fmt.Errorf("invalid pattern %q: %w", r.Pattern, err)
	}
	if re.MatchString("") {
		return compiledRule{}, fmt.Errorf("pattern %q can match empty input", r.Pattern)
	}
	return compiledRule{rule: r, index: index, re: re}, nil
}

// asciiSafe reports whether s consists only of printable ASCII characters
// with no whitespace. Triggers and terminators must be typeable verbatim in
// chat and recognisable by a byte-wise forward scan.
func asciiSafe(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] <= ' ' || s[i] > '~' {
			return false
		}
	}
	return true
}
