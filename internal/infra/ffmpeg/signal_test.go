package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSceneScore(t *testing.T) {
	score, ok := parseSceneScore("lavfi.scene_score=0.400000")
	assert.True(t, ok)
	assert.InDelta(t, 102.0, score, 1e-6, "scores are rescaled onto the 0-255 detector scale")

	score, ok = parseSceneScore("lavfi.scene_score=0.000000")
	assert.True(t, ok)
	assert.Equal(t, 0.0, score)
}

func TestParseSceneScoreIgnoresOtherLines(t *testing.T) {
	for _, line := range []string{
		"frame:12   pts:6006    pts_time:0.2002",
		"",
		"lavfi.scene_score=bogus",
		"[Parsed_metadata_1 @ 0x55d] unrelated",
	} {
		_, ok := parseSceneScore(line)
		assert.False(t, ok, "line %q", line)
	}
}
