package port

import (
	"context"

	"github.com/stierma1/video-scene-detector/internal/domain/entity"
)

// Prober extracts duration, exact frame rate, resolution and total frame
// count from a video source. Implementations return *entity.ProbeError
// when the source is unreadable or has no decodable video stream.
type Prober interface {
	Probe(ctx context.Context, path string) (*entity.VideoInfo, error)
}
