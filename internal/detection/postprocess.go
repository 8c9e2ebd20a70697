package detection

import (
	"github.com/stierma1/video-scene-detector/internal/domain/entity"
	"github.com/stierma1/video-scene-detector/internal/timecode"
)

// postprocess applies the same normalization to every scene list no
// matter which detector produced it: frames clamped into
// [1, info.TotalFrames], times clamped into [0, info.Duration] and
// rounded to millisecond precision, duration recomputed from the clamped
// times, scene numbers reassigned in order. An empty list becomes the
// whole video as one scene.
func postprocess(scenes []entity.Scene, info *entity.VideoInfo) []entity.Scene {
	if len(scenes) == 0 {
		return []entity.Scene{{
			SceneNumber: 1,
			StartFrame:  1,
			EndFrame:    info.TotalFrames,
			StartTime:   0,
			EndTime:     timecode.RoundMillis(info.Duration),
			Duration:    timecode.RoundMillis(info.Duration),
		}}
	}

	out := make([]entity.Scene, len(scenes))
	for i, s := range scenes {
		if s.StartFrame < 1 {
			s.StartFrame = 1
		}
		if s.StartFrame > info.TotalFrames {
			s.StartFrame = info.TotalFrames
		}
		if s.EndFrame > info.TotalFrames {
			s.EndFrame = info.TotalFrames
		}
		if s.EndFrame < s.StartFrame {
			s.EndFrame = s.StartFrame
		}
		if s.StartTime < 0 {
			s.StartTime = 0
		}
		if s.StartTime > info.Duration {
			s.StartTime = info.Duration
		}
		if s.EndTime > info.Duration {
			s.EndTime = info.Duration
		}
		if s.EndTime < s.StartTime {
			s.EndTime = s.StartTime
		}
		s.StartTime = timecode.RoundMillis(s.StartTime)
		s.EndTime = timecode.RoundMillis(s.EndTime)
		s.Duration = timecode.RoundMillis(s.EndTime - s.StartTime)
		s.SceneNumber = i + 1
		out[i] = s
	}
	return out
}
