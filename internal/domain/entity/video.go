package entity

import "github.com/stierma1/video-scene-detector/internal/timecode"

// VideoInfo is the probed metadata for a source file. TotalFrames is
// always round(Duration × FPS) so every later frame/time conversion for
// the same source lands on the same anchor.
type VideoInfo struct {
	Duration    float64            `json:"duration_seconds"`
	FrameRate   timecode.Rational  `json:"-"`
	FPS         float64            `json:"fps"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	TotalFrames int                `json:"total_frames"`
}

// Scene is one contiguous frame interval of a detection result. Frames
// are 1-indexed and inclusive on both ends. Scenes exist only inside a
// detection response and are never persisted.
type Scene struct {
	SceneNumber int     `json:"scene_number"`
	StartFrame  int     `json:"start_frame"`
	EndFrame    int     `json:"end_frame"`
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	Duration    float64 `json:"duration"`
}

// FrameCount returns the inclusive frame span of the scene.
func (s Scene) FrameCount() int {
	return s.EndFrame - s.StartFrame + 1
}

// FrameRange is a validated extraction window, consumed immediately by
// the extraction layer and never retained.
type FrameRange struct {
	StartFrame int `json:"start_frame"`
	EndFrame   int `json:"end_frame"`
	FrameCount int `json:"frame_count"`
}

// NewFrameRange builds a range from inclusive bounds.
func NewFrameRange(start, end int) FrameRange {
	return FrameRange{
		StartFrame: start,
		EndFrame:   end,
		FrameCount: end - start + 1,
	}
}
