package port

import (
	"context"

	"github.com/stierma1/video-scene-detector/internal/domain/entity"
)

type FrameExtractionResult struct {
	FramePaths []string
	FrameCount int
}

// FrameExtractor writes the frames of a validated range to outputDir.
// Extraction failures belong to the codec layer and are ordinary errors,
// never *entity.ValidationError.
type FrameExtractor interface {
	ExtractRange(ctx context.Context, videoPath string, rng entity.FrameRange, fps float64, outputDir string) (*FrameExtractionResult, error)
}
