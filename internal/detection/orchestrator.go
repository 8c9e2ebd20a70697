package detection

import (
	"context"
	"fmt"

	"github.com/stierma1/video-scene-detector/internal/domain/entity"
	"github.com/stierma1/video-scene-detector/internal/domain/port"
	"go.uber.org/zap"
)

// Orchestrator reconciles the primary content-based detector with the
// deterministic fallback. The primary detector is an optimization; the
// fallback is the contractual guarantee. Any primary failure is absorbed
// here and never reaches the caller.
type Orchestrator struct {
	primary port.ContentDetector
	signals port.SignalSource
	cfg     Config
	logger  *zap.Logger
}

func NewOrchestrator(primary port.ContentDetector, signals port.SignalSource, cfg Config, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		primary: primary,
		signals: signals,
		cfg:     cfg,
		logger:  logger,
	}
}

// DetectScenes returns the ordered scene list for the source, gapless
// over [1, info.TotalFrames] and never empty. Only a fallback failure is
// fatal and surfaces as *entity.DetectionError.
func (o *Orchestrator) DetectScenes(ctx context.Context, path string, info *entity.VideoInfo, opts Options) ([]entity.Scene, entity.DetectorKind, error) {
	norm := o.cfg.normalize(opts, info.FPS)

	log := o.logger.With(
		zap.String("source", path),
		zap.Float64("fps", norm.fps),
		zap.Float64("threshold", norm.threshold),
		zap.Float64("min_scene_length_sec", norm.minSceneLengthSec),
	)

	scenes, err := o.runPrimary(ctx, path, norm)
	if err == nil {
		log.Debug("primary detector succeeded", zap.Int("scenes", len(scenes)))
		return postprocess(scenes, info), entity.DetectorContent, nil
	}
	log.Warn("primary detector failed, falling back", zap.Error(err))

	scenes, err = o.runFallback(ctx, path, norm, info)
	if err != nil {
		return nil, "", &entity.DetectionError{Source: path, Err: err}
	}

	log.Info("fallback detector produced scenes", zap.Int("scenes", len(scenes)))
	return postprocess(scenes, info), entity.DetectorFallback, nil
}

func (o *Orchestrator) runPrimary(ctx context.Context, path string, norm normalizedOptions) ([]entity.Scene, error) {
	if o.primary == nil {
		return nil, fmt.Errorf("no primary detector configured")
	}

	if o.cfg.PrimaryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.PrimaryTimeout)
		defer cancel()
	}

	scenes, err := o.primary.DetectScenes(ctx, path, norm.threshold, norm.minSceneLengthSec, norm.fps)
	if err != nil {
		return nil, err
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("primary detector returned no scenes")
	}
	return scenes, nil
}

func (o *Orchestrator) runFallback(ctx context.Context, path string, norm normalizedOptions, info *entity.VideoInfo) ([]entity.Scene, error) {
	sig, err := o.signals.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open signal: %w", err)
	}
	return DetectWithSignal(sig, norm.threshold, norm.minSceneFrames, info.TotalFrames, norm.fps)
}
