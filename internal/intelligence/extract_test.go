package intelligence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONCodeFence(t *testing.T) {
	in := "Here you go:\n```json\n{\"niche\": \"fitness\"}\n```\nLet me know if you need more."
	assert.Equal(t, `{"niche": "fitness"}`, ExtractJSON(in))
}

func TestExtractJSONBareFence(t *testing.T) {
	in := "```\n[1, 2, 3]\n```"
	assert.Equal(t, "[1, 2, 3]", ExtractJSON(in))
}

func TestExtractJSONLeadingProse(t *testing.T) {
	in := "Sure! The analysis is {\"score\": 0.8}"
	assert.Equal(t, `{"score": 0.8}`, ExtractJSON(in))
}

func TestExtractJSONArrayStart(t *testing.T) {
	in := "result: [{\"tag\": \"#go\"}]"
	assert.Equal(t, `[{"tag": "#go"}]`, ExtractJSON(in))
}

func TestExtractJSONPassthrough(t *testing.T) {
	assert.Equal(t, "no json here", ExtractJSON("no json here"))
}
