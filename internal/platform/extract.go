package platform

import (
	"regexp"
	"strings"
)

var (
	hashtagRe = regexp.MustCompile(`#[\w]+`)
	mentionRe = regexp.MustCompile(`@[\w.]+`)
)

// ExtractHashtags scans text for #tags, lower-cases them, unions them with
// any platform-native tag names (passed without the # prefix) and
// deduplicates preserving first-seen order, native tags first.
func ExtractHashtags(text string, native []string) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(tag string) {
		tag = strings.ToLower(tag)
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	for _, t := range native {
		add("#" + t)
	}
	for _, m := range hashtagRe.FindAllString(text, -1) {
		add(m)
	}
	return out
}

// ExtractMentions scans text for @mentions, lower-cased and deduplicated.
func ExtractMentions(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range mentionRe.FindAllString(text, -1) {
		m = strings.ToLower(m)
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
