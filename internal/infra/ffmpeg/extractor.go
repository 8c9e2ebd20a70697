package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/stierma1/video-scene-detector/internal/domain/entity"
	"github.com/stierma1/video-scene-detector/internal/domain/port"
	"go.uber.org/zap"
)

// Extractor writes the frames of a validated range as individual images.
// Selection is by frame index, not timestamp, so the output is
// frame-accurate regardless of keyframe placement.
type Extractor struct {
	format string
	logger *zap.Logger
}

func NewExtractor(format string, logger *zap.Logger) *Extractor {
	return &Extractor{format: format, logger: logger}
}

func (e *Extractor) ExtractRange(ctx context.Context, videoPath string, rng entity.FrameRange, fps float64, outputDir string) (*port.FrameExtractionResult, error) {
	// ffmpeg's n is 0-indexed; ranges are 1-indexed inclusive.
	filter := fmt.Sprintf("select='between(n\\,%d\\,%d)'", rng.StartFrame-1, rng.EndFrame-1)
	framePattern := filepath.Join(outputDir, fmt.Sprintf("frame_%%06d.%s", e.format))

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", videoPath,
		"-vf", filter,
		"-fps_mode", "passthrough",
		"-frames:v", fmt.Sprintf("%d", rng.FrameCount),
		"-y",
		framePattern,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg error: %w, output: %s", err, string(output))
	}

	frames, err := filepath.Glob(filepath.Join(outputDir, fmt.Sprintf("*.%s", e.format)))
	if err != nil {
		return nil, fmt.Errorf("glob frames: %w", err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames extracted for range %d-%d", rng.StartFrame, rng.EndFrame)
	}
	sort.Strings(frames)

	e.logger.Info("frames extracted",
		zap.Int("count", len(frames)),
		zap.Int("start_frame", rng.StartFrame),
		zap.Int("end_frame", rng.EndFrame),
	)

	return &port.FrameExtractionResult{
		FramePaths: frames,
		FrameCount: len(frames),
	}, nil
}
