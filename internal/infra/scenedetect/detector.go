// Package scenedetect adapts the external PySceneDetect helper script as
// the primary content-based detector. The script runs as one isolated
// process per request; every failure mode it has (spawn failure, non-zero
// exit, timeout, garbage on stdout, explicit error field) is returned as
// an ordinary error for the orchestrator to absorb.
package scenedetect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/stierma1/video-scene-detector/internal/domain/entity"
	"go.uber.org/zap"
)

type Detector struct {
	pythonBin  string
	scriptPath string
	logger     *zap.Logger
}

func NewDetector(pythonBin, scriptPath string, logger *zap.Logger) *Detector {
	return &Detector{
		pythonBin:  pythonBin,
		scriptPath: scriptPath,
		logger:     logger,
	}
}

func (d *Detector) DetectScenes(ctx context.Context, path string, threshold, minSceneLengthSec, fps float64) ([]entity.Scene, error) {
	cmd := exec.CommandContext(ctx, d.pythonBin, d.scriptPath,
		path,
		"--threshold", formatFloat(threshold),
		"--min-scene-length", formatFloat(minSceneLengthSec),
		"--fps", formatFloat(fps),
	)

	// Structured JSON arrives on stdout; diagnostics stay on stderr.
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("detector process: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("detector process: %w", err)
	}

	scenes, err := parseResult(stdout.Bytes())
	if err != nil {
		return nil, err
	}

	d.logger.Debug("content detector finished",
		zap.String("source", path),
		zap.Int("scenes", len(scenes)),
	)
	return scenes, nil
}

// detectorResult is the script's one-line JSON response.
type detectorResult struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Scenes  []detectorScene `json:"scenes"`
}

type detectorScene struct {
	SceneNumber int     `json:"scene_number"`
	StartFrame  int     `json:"start_frame"`
	EndFrame    int     `json:"end_frame"`
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	Duration    float64 `json:"duration"`
}

func parseResult(data []byte) ([]entity.Scene, error) {
	var res detectorResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse detector output: %w", err)
	}
	if res.Error != "" {
		return nil, fmt.Errorf("detector reported: %s", res.Error)
	}
	if !res.Success {
		return nil, fmt.Errorf("detector reported failure without detail")
	}

	scenes := make([]entity.Scene, len(res.Scenes))
	for i, s := range res.Scenes {
		scenes[i] = entity.Scene{
			SceneNumber: s.SceneNumber,
			StartFrame:  s.StartFrame,
			EndFrame:    s.EndFrame,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			Duration:    s.Duration,
		}
	}
	return scenes, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
