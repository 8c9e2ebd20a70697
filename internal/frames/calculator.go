// Package frames turns a selected scene plus caller intent (offset,
// desired length) into a bounded, non-degenerate frame range and
// validates it before extraction.
package frames

import "github.com/stierma1/video-scene-detector/internal/domain/entity"

// ComputeRange derives the candidate extraction window for a scene.
// Offset is applied first, then length, then clamping: clamping earlier
// would silently alter the duration the caller asked for.
//
// When extractFrameCount is positive the window is that fixed length and
// the scene's own span is ignored; otherwise the scene's span is
// preserved. After clamping, an inverted window collapses to a single
// frame at the start rather than ever returning an invalid range.
func ComputeRange(scene entity.Scene, offsetFrames, extractFrameCount, totalFrames int) entity.FrameRange {
	start := scene.StartFrame + offsetFrames

	var end int
	if extractFrameCount > 0 {
		end = start + extractFrameCount - 1
	} else {
		end = start + (scene.EndFrame - scene.StartFrame)
	}

	if start < 1 {
		start = 1
	}
	if end > totalFrames {
		end = totalFrames
	}
	if start > end {
		// The window lies wholly past the end of the video; collapse to
		// the last frame instead of letting start overshoot totalFrames.
		start = min(start, totalFrames)
		end = start
	}

	return entity.NewFrameRange(start, end)
}
