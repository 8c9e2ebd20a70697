package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusRejected   JobStatus = "REJECTED"
)

// DetectorKind records which detector produced the scene list of a
// completed job.
type DetectorKind string

const (
	DetectorContent  DetectorKind = "content"
	DetectorFallback DetectorKind = "fallback"
)

// SceneJob is the persisted record of one detection+extraction request.
type SceneJob struct {
	ID           uuid.UUID
	UserID       string
	VideoKey     string
	ClipKey      string
	Status       JobStatus
	Detector     DetectorKind
	SceneCount   int
	StartFrame   int
	EndFrame     int
	FrameCount   int
	FileSize     int64
	VideoSeconds float64
	Attempt      int
	MaxAttempts  int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

func NewSceneJob(userID, videoKey string, fileSize int64, maxAttempts int) *SceneJob {
	now := time.Now().UTC()
	return &SceneJob{
		ID:          uuid.New(),
		UserID:      userID,
		VideoKey:    videoKey,
		FileSize:    fileSize,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *SceneJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

func (j *SceneJob) MarkCompleted(clipKey string, detector DetectorKind, sceneCount int, rng FrameRange, videoSeconds float64) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.ClipKey = clipKey
	j.Detector = detector
	j.SceneCount = sceneCount
	j.StartFrame = rng.StartFrame
	j.EndFrame = rng.EndFrame
	j.FrameCount = rng.FrameCount
	j.VideoSeconds = videoSeconds
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *SceneJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

// MarkRejected records a terminal validation failure. Rejected jobs are
// never retried; the caller has to correct the request instead.
func (j *SceneJob) MarkRejected(errMsg string) {
	j.Status = JobStatusRejected
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *SceneJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
