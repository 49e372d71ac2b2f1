package discord_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/MrWong99/ipabot/internal/discord"
)

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		budget int
		want   string
	}{
		{
			name:   "short input untouched",
			in:     "hello",
			budget: 10,
			want:   "hello",
		},
		{
			name:   "exact budget untouched",
			in:     "hello",
			budget: 5,
			want:   "hello",
		},
		{
			name:   "over budget gets ellipsis",
			in:     "hello world",
			budget: 6,
			want:   "hello…",
		},
		{
			name:   "budget of one",
			in:     "hello",
			budget: 1,
			want:   "…",
		},
		{
			name:   "zero budget means no limit",
			in:     "hello",
			budget: 0,
			want:   "hello",
		},
		{
			name:   "multibyte runes counted as one",
			in:     "ʃʃʃʃʃ",
			budget: 3,
			want:   "ʃʃ…",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := discord.TruncateRunes(tc.in, tc.budget)
			if got != tc.want {
				t.Errorf("TruncateRunes(%q, %d): expected %q, got %q", tc.in, tc.budget, tc.want, got)
			}
			if tc.budget > 0 && utf8.RuneCountInString(got) > tc.budget {
				t.Errorf("result %q exceeds budget %d", got, tc.budget)
			}
		})
	}
}

func TestTruncateRunesLongInput(t *testing.T) {
	t.Parallel()

	in := strings.Repeat("ʃa", 3000)
	got := discord.TruncateRunes(in, 2000)
	if n := utf8.RuneCountInString(got); n != 2000 {
		t.Errorf("expected exactly 2000 runes, got %d", n)
	}
}
