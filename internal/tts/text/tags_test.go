package text_test

import (
	"testing"

	"github.com/book-expert/voice-clone/internal/tts/text"
	"github.com/stretchr/testify/assert"
)

func TestTagScanner_Tags(t *testing.T) {
	t.Parallel()

	scanner := text.NewTagScanner()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "catalogue tags in order", input: "(happy) Hello (whispering) there (sad) (1)", expected: []string{"(happy)", "(sad)"}},
		{name: "plain text", input: "plain text", expected: []string{}},
		{name: "cjk text", input: "他说——“你好”…… (happy)\t好的", expected: []string{"(happy)"}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, scanner.Tags(testCase.input))
		})
	}
}

func TestEmotionTags(t *testing.T) {
	t.Parallel()

	tags := text.EmotionTags()
	assert.Len(t, tags, 8)
	assert.Equal(t, "(happy)", tags[0])

	tags[0] = "(mutated)"
	assert.Equal(t, "(happy)", text.EmotionTags()[0], "catalogue is returned as a copy")
}
