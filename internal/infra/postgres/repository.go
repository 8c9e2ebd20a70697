package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stierma1/video-scene-detector/internal/domain/entity"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.SceneJob) error {
	query := `
		INSERT INTO scene_jobs (
			id, user_id, video_key, clip_key, status, detector,
			scene_count, start_frame, end_frame, frame_count,
			file_size, video_seconds, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.VideoKey, job.ClipKey, string(job.Status), string(job.Detector),
		job.SceneCount, job.StartFrame, job.EndFrame, job.FrameCount,
		job.FileSize, job.VideoSeconds, job.Attempt, job.MaxAttempts,
		job.ErrorMessage, job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.SceneJob) error {
	query := `
		UPDATE scene_jobs SET
			status=$2, clip_key=$3, detector=$4, scene_count=$5,
			start_frame=$6, end_frame=$7, frame_count=$8, video_seconds=$9,
			attempt=$10, error_message=$11, updated_at=$12, completed_at=$13
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.ClipKey, string(job.Detector), job.SceneCount,
		job.StartFrame, job.EndFrame, job.FrameCount, job.VideoSeconds,
		job.Attempt, job.ErrorMessage, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.SceneJob, error) {
	query := `
		SELECT id, user_id, video_key, clip_key, status, detector,
			scene_count, start_frame, end_frame, frame_count,
			file_size, video_seconds, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		FROM scene_jobs WHERE id=$1`

	job := &entity.SceneJob{}
	var status, detector string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.VideoKey, &job.ClipKey, &status, &detector,
		&job.SceneCount, &job.StartFrame, &job.EndFrame, &job.FrameCount,
		&job.FileSize, &job.VideoSeconds, &job.Attempt, &job.MaxAttempts,
		&job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	job.Detector = entity.DetectorKind(detector)
	return job, nil
}
