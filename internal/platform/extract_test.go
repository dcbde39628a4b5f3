package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractHashtagsUnionsNativeFirst(t *testing.T) {
	got := ExtractHashtags("Leg day #Fitness #gym and #fitness again", []string{"Gym", "workout"})

	assert.Equal(t, []string{"#gym", "#workout", "#fitness"}, got)
}

func TestExtractHashtagsNoTags(t *testing.T) {
	assert.Empty(t, ExtractHashtags("plain caption without tags", nil))
}

func TestExtractMentions(t *testing.T) {
	got := ExtractMentions("shoutout to @Coach.Kim and @coach.kim plus @buddy")

	assert.Equal(t, []string{"@coach.kim", "@buddy"}, got)
}

func TestClampMaxPosts(t *testing.T) {
	assert.Equal(t, MinPosts, ClampMaxPosts(0))
	assert.Equal(t, 50, ClampMaxPosts(50))
	assert.Equal(t, MaxPosts, ClampMaxPosts(500))
}
