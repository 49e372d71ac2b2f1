package xlit

import (
	"strings"
	"unicode/utf8"
)

// Apply transliterates text using the rule set and returns the result.
//
// The scan runs left to right. At each position the rules are tried in
// (priority desc, declaration order asc) order and the first one whose
// pattern matches wins; its replacement is emitted and the scan resumes
// immediately after the consumed input. Match length never overrides this
// order: a short high-priority rule beats a longer low-priority one.
//
// Positions no rule matches pass through unchanged, one Unicode scalar at a
// time, so Apply never fails and never loses input. The same (rule set, text)
// pair always produces the same output.
func (rs *RuleSet) Apply(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		rest := text[i:]

		consumed := -1
		for j := range rs.rules {
			if n := rs.rules[j].matchLen(rest); n > 0 {
				b.WriteString(rs.rules[j].rule.Replacement)
				consumed = n
				break
			}
		}
		if consumed > 0 {
			i += consumed
			continue
		}

		// Pass-through: copy one rune verbatim. DecodeRuneInString returns
		// size 1 for invalid UTF-8, so the scan always advances.
		_, size := utf8.DecodeRuneInString(rest)
		b.WriteString(rest[:size])
		i += size
	}

	return b.String()
}
