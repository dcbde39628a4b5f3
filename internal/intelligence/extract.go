package intelligence

import (
	"regexp"
	"strings"
)

var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON pulls the JSON payload out of a model reply. Fenced code
// blocks win; otherwise everything from the first brace or bracket onward
// is returned as-is.
func ExtractJSON(text string) string {
	if m := codeFenceRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if i := strings.IndexAny(text, "[{"); i != -1 {
		return text[i:]
	}
	return text
}
