package port

import (
	"context"

	"github.com/stierma1/video-scene-detector/internal/domain/entity"
)

// ContentDetector is the primary, content-based scene analyzer. It runs
// out of process and may fail or be unavailable; any error it returns is
// recoverable and must never surface past the orchestrator.
type ContentDetector interface {
	DetectScenes(ctx context.Context, path string, threshold, minSceneLengthSec, fps float64) ([]entity.Scene, error)
}

// SceneSignal is a lazy, finite sequence of per-analyzed-frame
// content-difference scores on the detector's native 0-255 scale. It is
// consumed exactly once: Next never restarts, and Close releases the
// underlying producer.
type SceneSignal interface {
	// Next returns the next score. ok is false once the signal is
	// exhausted; Err reports any producer failure after that point.
	Next() (score float64, ok bool)
	Err() error
	Close() error
}

// SignalSource opens the content-difference signal the fallback detector
// consumes. Each call produces a fresh, independent signal.
type SignalSource interface {
	Open(ctx context.Context, path string) (SceneSignal, error)
}
