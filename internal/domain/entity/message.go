package entity

import "github.com/google/uuid"

// SceneJobMessage is the inbound message from the scene.jobs queue.
// Detection options mirror the public detectScenes options: FPS overrides
// the probed rate when positive, MinSceneLength is seconds (values above
// 300 are reinterpreted as a frame count), Threshold is the 1-100
// sensitivity scale. SceneNumber selects the 1-based scene to extract;
// OffsetFrames may be negative; ExtractFrameCount of 0 keeps the scene's
// own span.
type SceneJobMessage struct {
	JobID             uuid.UUID `json:"job_id"`
	UserID            string    `json:"user_id"`
	VideoKey          string    `json:"video_key"`
	FileSize          int64     `json:"file_size"`
	UserEmail         string    `json:"user_email"`
	FPS               float64   `json:"fps,omitempty"`
	MinSceneLength    float64   `json:"min_scene_length,omitempty"`
	Threshold         float64   `json:"threshold,omitempty"`
	SceneNumber       int       `json:"scene_number"`
	OffsetFrames      int       `json:"offset_frames"`
	ExtractFrameCount int       `json:"extract_frame_count,omitempty"`
}

// SceneStatusMessage is the outbound message published to the
// scene.status queue.
type SceneStatusMessage struct {
	JobID        uuid.UUID    `json:"job_id"`
	UserID       string       `json:"user_id"`
	Status       JobStatus    `json:"status"`
	VideoKey     string       `json:"video_key"`
	ClipKey      string       `json:"clip_key,omitempty"`
	Detector     DetectorKind `json:"detector,omitempty"`
	Scenes       []Scene      `json:"scenes,omitempty"`
	StartFrame   int          `json:"start_frame,omitempty"`
	EndFrame     int          `json:"end_frame,omitempty"`
	FrameCount   int          `json:"frame_count,omitempty"`
	Duration     float64      `json:"duration_seconds,omitempty"`
	Violations   []string     `json:"violations,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Attempt      int          `json:"attempt"`
	MaxAttempts  int          `json:"max_attempts"`
}
