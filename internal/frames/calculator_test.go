package frames

import (
	"testing"

	"github.com/stierma1/video-scene-detector/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func scene(start, end int) entity.Scene {
	return entity.Scene{StartFrame: start, EndFrame: end}
}

func TestComputeRangeNegativeOffsetPreservesSpan(t *testing.T) {
	rng := ComputeRange(scene(100, 340), -50, 0, 1000)

	assert.Equal(t, 50, rng.StartFrame)
	assert.Equal(t, 290, rng.EndFrame)
	assert.Equal(t, 241, rng.FrameCount)
}

func TestComputeRangeFixedLengthIgnoresSceneSpan(t *testing.T) {
	rng := ComputeRange(scene(100, 340), 0, 50, 1000)

	assert.Equal(t, 100, rng.StartFrame)
	assert.Equal(t, 149, rng.EndFrame)
	assert.Equal(t, 50, rng.FrameCount)
}

func TestComputeRangeClampsStartToOne(t *testing.T) {
	rng := ComputeRange(scene(1, 10), -100, 0, 500)

	assert.Equal(t, 1, rng.StartFrame)
	assert.LessOrEqual(t, rng.StartFrame, rng.EndFrame, "range must stay non-degenerate")
}

func TestComputeRangeClampsEndToTotalFrames(t *testing.T) {
	rng := ComputeRange(scene(480, 520), 0, 0, 500)

	assert.Equal(t, 480, rng.StartFrame)
	assert.Equal(t, 500, rng.EndFrame)
}

func TestComputeRangeCollapsesInvertedToSingleFrame(t *testing.T) {
	// offset pushes the whole window past the end of the video
	rng := ComputeRange(scene(490, 495), 20, 0, 500)

	assert.Equal(t, 500, rng.StartFrame)
	assert.Equal(t, 500, rng.EndFrame)
	assert.Equal(t, 1, rng.FrameCount)
}

func TestComputeRangeCollapseNeverOvershootsTotalFrames(t *testing.T) {
	// fixed-length window starting past the end of the video
	rng := ComputeRange(scene(490, 495), 50, 30, 500)

	assert.Equal(t, 500, rng.StartFrame)
	assert.Equal(t, 500, rng.EndFrame)
	assert.LessOrEqual(t, rng.EndFrame, 500, "range must stay inside the video")
}

func TestComputeRangeOffsetAppliesBeforeLength(t *testing.T) {
	rng := ComputeRange(scene(100, 340), -50, 30, 1000)

	assert.Equal(t, 50, rng.StartFrame)
	assert.Equal(t, 79, rng.EndFrame)
	assert.Equal(t, 30, rng.FrameCount)
}
