package detection

import (
	"fmt"

	"github.com/stierma1/video-scene-detector/internal/domain/entity"
	"github.com/stierma1/video-scene-detector/internal/domain/port"
	"github.com/stierma1/video-scene-detector/internal/timecode"
)

// DetectWithSignal is the deterministic fallback detector. It consumes
// the content-difference signal exactly once: a boundary closes the
// current scene when the score exceeds threshold and the scene already
// spans at least minSceneFrames.
//
// After the signal ends, a trailing scene covers the remainder up to
// totalFrames. A remainder shorter than half of minSceneFrames does not
// stand on its own: when at least one scene already exists it is merged
// into the last one, keeping the result gapless over [1, totalFrames].
// The result may be empty only when totalFrames is 0; the orchestrator's
// post-processing guarantees a non-empty final list either way.
func DetectWithSignal(sig port.SceneSignal, threshold float64, minSceneFrames, totalFrames int, fps float64) ([]entity.Scene, error) {
	defer sig.Close()

	var scenes []entity.Scene
	open := 1
	frame := 0

	for {
		score, ok := sig.Next()
		if !ok {
			break
		}
		frame++

		if score > threshold && frame-open+1 >= minSceneFrames {
			scenes = append(scenes, newScene(open, frame, fps))
			open = frame + 1
		}
	}

	if err := sig.Err(); err != nil {
		return nil, fmt.Errorf("content-difference signal: %w", err)
	}

	if open <= totalFrames {
		trailing := totalFrames - open + 1
		if float64(trailing) >= float64(minSceneFrames)/2 || len(scenes) == 0 {
			scenes = append(scenes, newScene(open, totalFrames, fps))
		} else {
			last := &scenes[len(scenes)-1]
			*last = newScene(last.StartFrame, totalFrames, fps)
		}
	}

	return scenes, nil
}

func newScene(startFrame, endFrame int, fps float64) entity.Scene {
	start := timecode.FrameToSeconds(startFrame, fps)
	end := timecode.FrameToSeconds(endFrame+1, fps)
	return entity.Scene{
		StartFrame: startFrame,
		EndFrame:   endFrame,
		StartTime:  start,
		EndTime:    end,
		Duration:   end - start,
	}
}
