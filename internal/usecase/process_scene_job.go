package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/stierma1/video-scene-detector/internal/detection"
	"github.com/stierma1/video-scene-detector/internal/domain/entity"
	"github.com/stierma1/video-scene-detector/internal/domain/port"
	"github.com/stierma1/video-scene-detector/internal/frames"
	"github.com/stierma1/video-scene-detector/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SceneDetector is the orchestrated detection entry point the pipeline
// drives; *detection.Orchestrator satisfies it.
type SceneDetector interface {
	DetectScenes(ctx context.Context, path string, info *entity.VideoInfo, opts detection.Options) ([]entity.Scene, entity.DetectorKind, error)
}

type ProcessSceneJobUseCase struct {
	repo      port.JobRepository
	storage   port.VideoStorage
	prober    port.Prober
	detector  SceneDetector
	validator frames.Validator
	extractor port.FrameExtractor
	zipper    port.Zipper
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	tempDir   string
	maxRetry  int
}

type ProcessSceneJobConfig struct {
	TempDir    string
	MaxRetries int
}

func NewProcessSceneJobUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	prober port.Prober,
	detector SceneDetector,
	validator frames.Validator,
	extractor port.FrameExtractor,
	zipper port.Zipper,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ProcessSceneJobConfig,
) *ProcessSceneJobUseCase {
	return &ProcessSceneJobUseCase{
		repo:      repo,
		storage:   storage,
		prober:    prober,
		detector:  detector,
		validator: validator,
		extractor: extractor,
		zipper:    zipper,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		tempDir:   cfg.TempDir,
		maxRetry:  cfg.MaxRetries,
	}
}

func (uc *ProcessSceneJobUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessSceneJobUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.SceneJobMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
		attribute.Int("job.scene_number", msg.SceneNumber),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewSceneJob(msg.UserID, msg.VideoKey, msg.FileSize, uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.runPipeline(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.JobProcessingDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *ProcessSceneJobUseCase) runPipeline(
	ctx context.Context,
	job *entity.SceneJob,
	msg entity.SceneJobMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.tempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download the source video
	dlStart := time.Now()
	dlCtx, spanDl := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, "input.mp4")
	if err := uc.storage.DownloadVideo(dlCtx, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_video: "+err.Error(), log)
	}
	spanDl.End()
	metrics.JobProcessingDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Probe duration, exact frame rate, total frames
	prCtx, spanPr := tracer.Start(ctx, "probe_video")
	info, err := uc.prober.Probe(prCtx, videoPath)
	if err != nil {
		spanPr.End()
		log.Error("probe failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "probe_video: "+err.Error(), log)
	}
	spanPr.End()

	// Detect scenes
	detStart := time.Now()
	detCtx, spanDet := tracer.Start(ctx, "detect_scenes")
	scenes, detector, err := uc.detector.DetectScenes(detCtx, videoPath, info, detection.Options{
		FPS:            msg.FPS,
		MinSceneLength: msg.MinSceneLength,
		Threshold:      msg.Threshold,
	})
	if err != nil {
		spanDet.End()
		log.Error("scene detection failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "detect_scenes: "+err.Error(), log)
	}
	spanDet.End()
	metrics.JobProcessingDuration.WithLabelValues("detect").Observe(time.Since(detStart).Seconds())
	metrics.ScenesDetectedTotal.Add(float64(len(scenes)))
	if detector == entity.DetectorFallback {
		metrics.FallbackActivationsTotal.Inc()
	}

	// Resolve the selected scene and derive the extraction range
	sceneIdx := msg.SceneNumber - 1
	if sceneIdx < 0 || sceneIdx >= len(scenes) {
		reason := fmt.Sprintf("scene number %d out of range: %d scenes detected", msg.SceneNumber, len(scenes))
		return uc.handleRejection(ctx, job, scenes, detector, []string{reason}, log)
	}

	rng, err := uc.validator.ComputeAndValidate(scenes[sceneIdx], msg.OffsetFrames, msg.ExtractFrameCount, info.TotalFrames)
	if err != nil {
		var verr *entity.ValidationError
		if errors.As(err, &verr) {
			return uc.handleRejection(ctx, job, scenes, detector, verr.Violations, log)
		}
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "compute_range: "+err.Error(), log)
	}

	// Extract the frames of the validated range
	exStart := time.Now()
	exCtx, spanEx := tracer.Start(ctx, "extract_frames")
	framesDir := filepath.Join(workDir, "frames")
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		spanEx.End()
		return fmt.Errorf("create frames dir: %w", err)
	}
	result, err := uc.extractor.ExtractRange(exCtx, videoPath, rng, info.FPS, framesDir)
	if err != nil {
		spanEx.End()
		log.Error("frame extraction failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "extract_frames: "+err.Error(), log)
	}
	spanEx.End()
	metrics.JobProcessingDuration.WithLabelValues("extract").Observe(time.Since(exStart).Seconds())
	metrics.FramesExtractedTotal.Add(float64(result.FrameCount))

	// Archive the frames
	zipStart := time.Now()
	zipCtx, spanZip := tracer.Start(ctx, "create_zip")
	zipPath := filepath.Join(workDir, "clip.zip")
	if err := uc.zipper.CreateZip(zipCtx, result.FramePaths, zipPath); err != nil {
		spanZip.End()
		log.Error("zip creation failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "create_zip: "+err.Error(), log)
	}
	spanZip.End()
	metrics.JobProcessingDuration.WithLabelValues("zip").Observe(time.Since(zipStart).Seconds())

	// Upload the archive
	upStart := time.Now()
	upCtx, spanUp := tracer.Start(ctx, "upload_clip")
	clipKey := fmt.Sprintf("%s/clip_%s.zip", msg.UserID, job.ID.String())
	zipFile, err := os.Open(zipPath)
	if err != nil {
		spanUp.End()
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "open_zip: "+err.Error(), log)
	}
	zipStat, _ := zipFile.Stat()
	if err := uc.storage.UploadClip(upCtx, clipKey, zipFile, zipStat.Size()); err != nil {
		zipFile.Close()
		spanUp.End()
		log.Error("clip upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_clip: "+err.Error(), log)
	}
	zipFile.Close()
	spanUp.End()
	metrics.JobProcessingDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	job.MarkCompleted(clipKey, detector, len(scenes), rng, info.Duration)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, scenes, nil, log)

	log.Info("job completed successfully",
		zap.Int("scene_count", len(scenes)),
		zap.String("detector", string(detector)),
		zap.Int("start_frame", rng.StartFrame),
		zap.Int("end_frame", rng.EndFrame),
		zap.String("clip_key", clipKey),
	)

	return nil
}

// handleRejection finalizes a job whose requested range violated an
// invariant. Rejections are terminal and never retried: the input has to
// change, so the message is acked and the violations travel back in the
// status message.
func (uc *ProcessSceneJobUseCase) handleRejection(
	ctx context.Context,
	job *entity.SceneJob,
	scenes []entity.Scene,
	detector entity.DetectorKind,
	violations []string,
	log *zap.Logger,
) error {
	job.Detector = detector
	job.SceneCount = len(scenes)
	job.MarkRejected(fmt.Sprintf("%d validation violation(s)", len(violations)))
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to REJECTED", zap.Error(err))
	}

	uc.publishStatus(ctx, job, scenes, violations, log)
	metrics.JobsProcessedTotal.WithLabelValues("rejected").Inc()

	log.Warn("job rejected", zap.Strings("violations", violations))
	return nil
}

func (uc *ProcessSceneJobUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.SceneJob,
	msg entity.SceneJobMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, nil, nil, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *ProcessSceneJobUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.SceneJob,
	msg entity.SceneJobMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, nil, nil, uc.logger)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.VideoKey, errMsg)
	}

	return nil
}

func (uc *ProcessSceneJobUseCase) publishStatus(ctx context.Context, job *entity.SceneJob, scenes []entity.Scene, violations []string, log *zap.Logger) {
	statusMsg := entity.SceneStatusMessage{
		JobID:        job.ID,
		UserID:       job.UserID,
		Status:       job.Status,
		VideoKey:     job.VideoKey,
		ClipKey:      job.ClipKey,
		Detector:     job.Detector,
		Scenes:       scenes,
		StartFrame:   job.StartFrame,
		EndFrame:     job.EndFrame,
		FrameCount:   job.FrameCount,
		Duration:     job.VideoSeconds,
		Violations:   violations,
		ErrorMessage: job.ErrorMessage,
		Attempt:      job.Attempt,
		MaxAttempts:  job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
