package xlit_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/MrWong99/ipabot/internal/xlit"
)

// testEngine builds an engine with two rule sets:
//
//   - xsampa: trigger "x/", delimited spans closed by "/"
//   - zsampa: trigger "z!", whitespace-bounded spans
//
// zsampa is declared first so that ordering tests can show first-invocation
// order winning over declaration order.
func testEngine(t *testing.T) *xlit.Engine {
	t.Helper()

	zsampa := mustCompile(t, xlit.RuleSetSource{
		Name:    "zsampa",
		Trigger: "z!",
		Symbol:  "z",
		Rules: []xlit.Rule{
			{Pattern: "a", Replacement: "ɑ", CaseSensitive: true},
		},
	})
	xsampa := mustCompile(t, xlit.RuleSetSource{
		Name:       "xsampa",
		Trigger:    "x/",
		Symbol:     "x",
		Terminator: "/",
		Rules: []xlit.Rule{
			{Pattern: "tS", Replacement: "ʧ", CaseSensitive: true, Priority: 1},
			{Pattern: "S", Replacement: "ʃ", CaseSensitive: true},
		},
	})

	e, err := xlit.New(zsampa, xsampa)
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	return e
}

func TestSearch(t *testing.T) {
	t.Parallel()

	e := testEngine(t)

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "no trigger returns nothing",
			in:   "just a plain chat message",
			want: nil,
		},
		{
			name: "single delimited span",
			in:   "how do you say x/Sip/ out loud?",
			want: []string{"x ʃip"},
		},
		{
			name: "multiple spans of one set render one line",
			in:   "x/Sa/ then x/tSa/",
			want: []string{"x ʃa ʧa"},
		},
		{
			name: "first-invocation order beats declaration order",
			in:   "x/Sa/ and z!ab",
			want: []string{"x ʃa", "z ɑb"},
		},
		{
			name: "whitespace-bounded span stops at whitespace",
			in:   "z!abc def",
			want: []string{"z ɑbc"},
		},
		{
			name: "whitespace-bounded span runs to end of text",
			in:   "z!abca",
			want: []string{"z ɑbcɑ"},
		},
		{
			name: "malformed span without terminator is not a match",
			in:   "x/Sip with no closer",
			want: nil,
		},
		{
			name: "empty span is not a match",
			in:   "x// nothing inside",
			want: nil,
		},
		{
			name: "malformed span does not hide a later well-formed one",
			in:   "z! but x/Sa/ works",
			want: []string{"x ʃa"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := e.Search(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Search(%q): expected %v, got %v", tc.in, tc.want, got)
			}
		})
	}
}

func TestSearchDeterminism(t *testing.T) {
	t.Parallel()

	e := testEngine(t)
	in := "z!aaa x/StSS/ z!b"

	first := e.Search(in)
	for i := 0; i < 10; i++ {
		if got := e.Search(in); !reflect.DeepEqual(got, first) {
			t.Fatalf("Search(%q): output changed between calls: %v vs %v", in, got, first)
		}
	}
}

func TestAlphabetList(t *testing.T) {
	t.Parallel()

	e := testEngine(t)
	want := "z  zsampa\nx  xsampa"
	if got := e.AlphabetList(); got != want {
		t.Errorf("AlphabetList: expected %q, got %q", want, got)
	}
}

func TestRuleSetLookup(t *testing.T) {
	t.Parallel()

	e := testEngine(t)
	if rs := e.RuleSet("xsampa"); rs == nil || rs.Name() != "xsampa" {
		t.Errorf("RuleSet(%q): expected the xsampa set, got %v", "xsampa", rs)
	}
	if rs := e.RuleSet("nope"); rs != nil {
		t.Errorf("RuleSet(%q): expected nil, got %v", "nope", rs)
	}
}

func TestNewRejectsAmbiguousTriggers(t *testing.T) {
	t.Parallel()

	short := mustCompile(t, xlit.RuleSetSource{
		Name:    "short",
		Trigger: "x!",
		Rules:   []xlit.Rule{{Pattern: "a", Replacement: "a"}},
	})
	long := mustCompile(t, xlit.RuleSetSource{
		Name:    "long",
		Trigger: "x!!",
		Rules:   []xlit.Rule{{Pattern: "a", Replacement: "a"}},
	})

	_, err := xlit.New(short, long)
	if err == nil {
		t.Fatal("New: expected error for ambiguous triggers, got nil")
	}
	var cerr *xlit.CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("New: expected *CompileError, got %T", err)
	}
	for _, trigger := range []string{"x!", "x!!"} {
		if !strings.Contains(err.Error(), trigger) {
			t.Errorf("error %q does not name trigger %q", err.Error(), trigger)
		}
	}
}

func TestNewRejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	a := mustCompile(t, xlit.RuleSetSource{
		Name:    "dup",
		Trigger: "a/",
		Rules:   []xlit.Rule{{Pattern: "a", Replacement: "a"}},
	})
	b := mustCompile(t, xlit.RuleSetSource{
		Name:    "dup",
		Trigger: "b/",
		Rules:   []xlit.Rule{{Pattern: "b", Replacement: "b"}},
	})

	if _, err := xlit.New(a, b); err == nil {
		t.Fatal("New: expected error for duplicate names, got nil")
	}
}

func TestSearchConcurrent(t *testing.T) {
	t.Parallel()

	// The engine is immutable after New; concurrent Search calls must not
	// interfere with each other.
	e := testEngine(t)
	done := make(chan []string, 8)
	for i := 0; i < 8; i++ {
		go func() {
			done <- e.Search("x/StS/ z!aa")
		}()
	}
	want := []string{"x ʃʧ", "z ɑɑ"}
	for i := 0; i < 8; i++ {
		if got := <-done; !reflect.DeepEqual(got, want) {
			t.Errorf("Search: expected %v, got %v", want, got)
		}
	}
}
