package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/stierma1/video-scene-detector/internal/domain/port"
)

// scene score lines look like "lavfi.scene_score=0.021812"
const sceneScorePrefix = "lavfi.scene_score="

// SignalSource streams ffmpeg's per-frame scene-change score as the
// content-difference signal for the fallback detector. Scores are
// rescaled from ffmpeg's 0-1 range onto the content detector's native
// 0-255 scale so both detectors share one threshold.
type SignalSource struct{}

func NewSignalSource() *SignalSource {
	return &SignalSource{}
}

func (s *SignalSource) Open(ctx context.Context, path string) (port.SceneSignal, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-vf", "select='gte(scene,0)',metadata=print:file=-",
		"-an",
		"-f", "null", "-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	return &sceneSignal{
		cmd:     cmd,
		scanner: bufio.NewScanner(stdout),
	}, nil
}

// sceneSignal is lazy and non-restartable: each line is read from the
// running ffmpeg process on demand, and once the stream ends it cannot
// be re-iterated.
type sceneSignal struct {
	cmd     *exec.Cmd
	scanner *bufio.Scanner
	done    bool
	err     error
}

func (s *sceneSignal) Next() (float64, bool) {
	if s.done {
		return 0, false
	}

	for s.scanner.Scan() {
		if score, ok := parseSceneScore(s.scanner.Text()); ok {
			return score, true
		}
	}

	s.finish()
	return 0, false
}

// parseSceneScore extracts the 0-1 scene score from a metadata filter
// line and rescales it to 0-255.
func parseSceneScore(line string) (float64, bool) {
	line = strings.TrimSpace(line)
	idx := strings.Index(line, sceneScorePrefix)
	if idx < 0 {
		return 0, false
	}
	raw := line[idx+len(sceneScorePrefix):]
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return score * 255, true
}

func (s *sceneSignal) finish() {
	s.done = true
	if err := s.scanner.Err(); err != nil {
		s.err = err
	}
	if err := s.cmd.Wait(); err != nil && s.err == nil {
		s.err = fmt.Errorf("ffmpeg: %w", err)
	}
}

func (s *sceneSignal) Err() error {
	return s.err
}

func (s *sceneSignal) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	return nil
}
