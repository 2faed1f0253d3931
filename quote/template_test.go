package quote

import (
	"strings"
	"testing"
)

func TestValidTemplate(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		want bool
	}{
		{"default", DefaultTemplate, true},
		{"exactly one placeholder", "see: {quote}", true},
		{"no placeholder", "see above", false},
		{"two placeholders", "{quote} and {quote}", false},
	}
	for _, tt := range tests {
		if got := ValidTemplate(tt.tmpl); got != tt.want {
			t.Errorf("%s: ValidTemplate = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMergeSubstitutesExactlyOnce(t *testing.T) {
	quoteText := "The sky is blue"
	merged := Merge(DefaultTemplate, quoteText, "why?")
	if strings.Count(merged, quoteText) != 1 {
		t.Errorf("quote appears %d times in %q", strings.Count(merged, quoteText), merged)
	}
	if strings.Contains(merged, Placeholder) {
		t.Errorf("placeholder survived: %q", merged)
	}
	if !strings.HasSuffix(merged, "\n\nwhy?") {
		t.Errorf("live input not appended: %q", merged)
	}
}

func TestMergeWithoutLiveInput(t *testing.T) {
	merged := Merge(DefaultTemplate, "The sky is blue", "")
	want := "Regarding the following selected content:\n------\nThe sky is blue\n------"
	if merged != want {
		t.Errorf("merged = %q, want %q", merged, want)
	}
	if strings.HasSuffix(merged, "\n") {
		t.Errorf("trailing whitespace survived: %q", merged)
	}
}

func TestMergeTrailingWhitespaceTrimmed(t *testing.T) {
	merged := Merge("quote: {quote}\n\n   ", "x", "")
	if merged != "quote: x" {
		t.Errorf("merged = %q", merged)
	}
}

func TestMergeKeepsPlaceholderPosition(t *testing.T) {
	merged := Merge("before {quote} after", "Q", "")
	if merged != "before Q after" {
		t.Errorf("merged = %q", merged)
	}
}
