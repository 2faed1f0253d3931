package quote

import "strings"

// Placeholder is the token a citation template must contain exactly
// once; substitution replaces it with the quote's raw text.
const Placeholder = "{quote}"

// DefaultTemplate is used whenever the configuration store is
// unreachable or holds an invalid template.
const DefaultTemplate = "Regarding the following selected content:\n------\n{quote}\n------"

// ValidTemplate reports whether tmpl carries the placeholder exactly
// once.
func ValidTemplate(tmpl string) bool {
	return strings.Count(tmpl, Placeholder) == 1
}

// Merge builds the outgoing message: the citation template with its
// placeholder substituted by the quote text, concatenated with the live
// input, or the citation alone trimmed of trailing whitespace when no
// live input exists.
func Merge(tmpl, quoteText, liveInput string) string {
	cited := strings.Replace(tmpl, Placeholder, quoteText, 1)
	cited = strings.TrimRight(cited, " \t\n")
	if strings.TrimSpace(liveInput) == "" {
		return cited
	}
	return cited + "\n\n" + liveInput
}
