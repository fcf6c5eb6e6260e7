package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendQualifier(t *testing.T) {
	t.Run("appends when absent", func(t *testing.T) {
		assert.Equal(t, "a castle, in watercolor style", appendQualifier("a castle", "in watercolor style"))
	})

	t.Run("skips when already present", func(t *testing.T) {
		prompt := "a castle, in watercolor style"
		assert.Equal(t, prompt, appendQualifier(prompt, "in watercolor style"))
	})

	t.Run("containment check is case-insensitive", func(t *testing.T) {
		prompt := "a castle, In Watercolor Style"
		assert.Equal(t, prompt, appendQualifier(prompt, "in watercolor style"))
	})

	t.Run("idempotent under repetition", func(t *testing.T) {
		prompt := "a castle"
		once := appendQualifier(prompt, "16:9 aspect ratio")
		twice := appendQualifier(once, "16:9 aspect ratio")
		assert.Equal(t, once, twice)
	})

	t.Run("empty qualifier is a no-op", func(t *testing.T) {
		assert.Equal(t, "a castle", appendQualifier("a castle", ""))
	})
}

func TestStyleQualifier(t *testing.T) {
	assert.Equal(t, "in watercolor style", styleQualifier("watercolor"))
	assert.Equal(t, "", styleQualifier("  "))
}

func TestAspectRatioQualifier(t *testing.T) {
	assert.Equal(t, "16:9 aspect ratio", aspectRatioQualifier("16:9"))
	assert.Equal(t, "", aspectRatioQualifier(""))
}

func TestImageCount(t *testing.T) {
	assert.Equal(t, 1, imageCount(0))
	assert.Equal(t, 1, imageCount(-3))
	assert.Equal(t, 3, imageCount(3))
	assert.Equal(t, 4, imageCount(10))
}

func TestMapOpenAIOptions(t *testing.T) {
	assert.Equal(t, "1792x1024", mapOpenAISize("landscape"))
	assert.Equal(t, "1024x1792", mapOpenAISize("portrait"))
	assert.Equal(t, "1024x1024", mapOpenAISize(""))
	assert.Equal(t, "1024x1024", mapOpenAISize("weird"))

	assert.Equal(t, "hd", mapOpenAIQuality("hd"))
	assert.Equal(t, "standard", mapOpenAIQuality(""))

	assert.Equal(t, "vivid", mapOpenAIStyle("vivid"))
	assert.Equal(t, "", mapOpenAIStyle("watercolor"))
}
