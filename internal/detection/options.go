// Package detection decides where scenes begin and end. It drives the
// external content-based detector, recovers through a deterministic
// frame-difference fallback, and normalizes every scene list the same way
// regardless of which detector produced it.
package detection

import (
	"time"

	"github.com/stierma1/video-scene-detector/internal/timecode"
)

// Config carries the detection defaults. They used to be hard-coded
// constants; the orchestrator now receives them at construction so there
// is no implicit global state.
type Config struct {
	DefaultThreshold      float64
	DefaultMinSceneLength float64
	PrimaryTimeout        time.Duration
}

// Options are the per-request detection knobs, all optional.
type Options struct {
	// FPS overrides the probed frame rate when positive.
	FPS float64
	// MinSceneLength is seconds. Values above 300 are reinterpreted as a
	// frame count and divided by fps; legitimate >300s requests cannot be
	// expressed through this field.
	MinSceneLength float64
	// Threshold is the 1-100 sensitivity scale; sensitivity decreases as
	// the value rises.
	Threshold float64
}

const (
	minSceneLengthFloorSec    = 0.5
	minSceneLengthCeilingSec  = 60.0
	frameCountReinterpretOver = 300.0
	thresholdFloor            = 1.0
	thresholdCeiling          = 100.0
)

type normalizedOptions struct {
	fps               float64
	threshold         float64
	minSceneLengthSec float64
	minSceneFrames    int
}

func (c Config) normalize(opts Options, probedFPS float64) normalizedOptions {
	fps := opts.FPS
	if fps <= 0 {
		fps = probedFPS
	}

	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = c.DefaultThreshold
	}
	threshold = clampFloat(threshold, thresholdFloor, thresholdCeiling)

	msl := opts.MinSceneLength
	if msl <= 0 {
		msl = c.DefaultMinSceneLength
	}
	// Magnitude heuristic carried over from the original service: a value
	// above 300 is assumed to be a frame count, not seconds.
	if msl > frameCountReinterpretOver && fps > 0 {
		msl = msl / fps
	}
	msl = clampFloat(msl, minSceneLengthFloorSec, minSceneLengthCeilingSec)

	frames := timecode.SecondsToFrames(msl, fps)
	if frames < 1 {
		frames = 1
	}

	return normalizedOptions{
		fps:               fps,
		threshold:         threshold,
		minSceneLengthSec: msl,
		minSceneFrames:    frames,
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
