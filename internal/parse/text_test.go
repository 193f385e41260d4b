package parse

import (
	"regexp"
	"testing"
)

func TestIsLikelyName(t *testing.T) {
	testCases := []struct {
		name string
		line string
		want bool
	}{
		{name: "Plain two-token name", line: "MARIA SANTOS", want: true},
		{name: "Three-token name", line: "JUAN PEDRO DELA CRUZ", want: true},
		{name: "Too short", line: "AB C", want: false},
		{name: "Single token", line: "SANTOS", want: false},
		{name: "Mostly digits", line: "1234-5678 9012", want: false},
		{name: "Contains label word", line: "LAST NAME SANTOS", want: false},
		{name: "Date-like line", line: "DATE OF BIRTH", want: false},
		{name: "Comma and OCR digit still mostly letters", line: "SANT0S, MARIA", want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsLikelyName(tc.line); got != tc.want {
				t.Errorf("IsLikelyName(%q) = %v, want %v", tc.line, got, tc.want)
			}
		})
	}
}

func TestFindLikelyName(t *testing.T) {
	lines := Lines("REPUBLIC OF THE PHILIPPINES\nID NO. 12-3456789-0\nMARIA SANTOS\nJUAN PEDRO DELA CRUZ\n05/05/2020")
	// Longest candidate wins. "REPUBLIC OF THE PHILIPPINES" is also
	// name-shaped by the heuristic, so it takes precedence by length.
	if got := FindLikelyName(lines); got != "REPUBLIC OF THE PHILIPPINES" {
		t.Errorf("FindLikelyName = %q", got)
	}

	lines = Lines("ID NO. 12-3456789-0\nMARIA SANTOS\nJUAN PEDRO DELA CRUZ")
	if got := FindLikelyName(lines); got != "JUAN PEDRO DELA CRUZ" {
		t.Errorf("FindLikelyName = %q, want JUAN PEDRO DELA CRUZ", got)
	}
}

func TestValueAfterLabel(t *testing.T) {
	labelRe := regexp.MustCompile(`(?i)^apelyido\s*:?\s*$`)

	lines := Lines("PHILSYS\nApelyido\nDELA CRUZ\nMga Pangalan\nJUAN")
	if got := ValueAfterLabel(lines, labelRe); got != "DELA CRUZ" {
		t.Errorf("ValueAfterLabel = %q, want DELA CRUZ", got)
	}

	// Next line is itself a label: no value.
	lines = Lines("Apelyido\nMga Pangalan\nJUAN")
	if got := ValueAfterLabel(lines, labelRe); got != "" {
		t.Errorf("ValueAfterLabel with label-next-line = %q, want empty", got)
	}

	// Label is the last line: no value.
	lines = Lines("PHILSYS\nApelyido")
	if got := ValueAfterLabel(lines, labelRe); got != "" {
		t.Errorf("ValueAfterLabel at end = %q, want empty", got)
	}
}

func TestFindIDToken(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want string
	}{
		{name: "Hyphenated number", text: "ID NO. 12-3456789-0 SIGNATURE", want: "12-3456789-0"},
		{name: "Longest candidate wins", text: "A12345 N03-12-123456", want: "N03-12-123456"},
		{name: "Trailing punctuation stripped", text: "number 1234-5678, here", want: "1234-5678"},
		{name: "No digits", text: "JUAN DELA CRUZ", want: ""},
		{name: "Too short", text: "12-34", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FindIDToken(tc.text); got != tc.want {
				t.Errorf("FindIDToken(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestCleanNameField(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "Leaked label stripped", input: "Last Name: DELA CRUZ", want: "DELA CRUZ"},
		{name: "Filipino label stripped", input: "Apelyido DELA CRUZ", want: "DELA CRUZ"},
		{name: "Date fragment stripped", input: "MARIA SANTOS 01/03/1999", want: "MARIA SANTOS"},
		{name: "Whitespace collapsed", input: "  JUAN   PEDRO  ", want: "JUAN PEDRO"},
		{name: "Clean name untouched", input: "JUAN PEDRO DELA CRUZ", want: "JUAN PEDRO DELA CRUZ"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanNameField(tc.input); got != tc.want {
				t.Errorf("CleanNameField(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
