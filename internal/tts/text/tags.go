// Package text knows the emotion tags the provider understands.
package text

import "regexp"

const emotionTagPattern = `\(([a-z][a-z ]*)\)`

// emotionTags are offered by the UI as one-click inserts.
var emotionTags = []string{
	"(happy)",
	"(sad)",
	"(excited)",
	"(laughing)",
	"(uncertain)",
	"(hopeful)",
	"(determined)",
	"(friendly)",
}

// TagScanner finds catalogue emotion tags in user text. The text itself is
// never modified.
type TagScanner struct {
	emotionTag *regexp.Regexp
}

// NewTagScanner creates a scanner with its pattern compiled.
func NewTagScanner() *TagScanner {
	return &TagScanner{
		emotionTag: regexp.MustCompile(emotionTagPattern),
	}
}

// Tags returns the catalogue emotion tags found in input, in order of appearance.
func (s *TagScanner) Tags(input string) []string {
	matches := s.emotionTag.FindAllString(input, -1)

	tags := make([]string, 0, len(matches))
	for _, match := range matches {
		if isEmotionTag(match) {
			tags = append(tags, match)
		}
	}

	return tags
}

// EmotionTags returns the tag catalogue.
func EmotionTags() []string {
	tags := make([]string, len(emotionTags))
	copy(tags, emotionTags)

	return tags
}

func isEmotionTag(tag string) bool {
	for _, known := range emotionTags {
		if known == tag {
			return true
		}
	}

	return false
}
