package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/stierma1/video-scene-detector/internal/domain/entity"
	"github.com/stierma1/video-scene-detector/internal/timecode"
)

// Prober extracts VideoInfo from a source file with a single ffprobe
// JSON call. The frame rate is kept as the exact rational ffprobe
// reports; collapsing it to a rounded decimal would make frame/time
// mappings drift between a detection call and a later extraction call on
// the same file.
type Prober struct{}

func NewProber() *Prober {
	return &Prober{}
}

func (p *Prober) Probe(ctx context.Context, path string) (*entity.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, &entity.ProbeError{Source: path, Err: fmt.Errorf("ffprobe: %w", err)}
	}

	info, err := ParseProbeOutput(out)
	if err != nil {
		return nil, &entity.ProbeError{Source: path, Err: err}
	}
	return info, nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecType   string         `json:"codec_type"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	RFrameRate  string         `json:"r_frame_rate"`
	Duration    string         `json:"duration"`
	Disposition map[string]int `json:"disposition"`
}

// ParseProbeOutput converts raw ffprobe JSON into VideoInfo. Exported
// for testing without a real ffprobe binary.
func ParseProbeOutput(data []byte) (*entity.VideoInfo, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	var video *ffprobeStream
	for i := range raw.Streams {
		s := &raw.Streams[i]
		if s.CodecType == "video" && s.Disposition["attached_pic"] != 1 {
			video = s
			break
		}
	}
	if video == nil {
		return nil, fmt.Errorf("no decodable video stream")
	}

	rate, err := timecode.ParseRational(video.RFrameRate)
	if err != nil {
		return nil, fmt.Errorf("frame rate: %w", err)
	}

	duration := parseFloat(raw.Format.Duration)
	if duration <= 0 {
		duration = parseFloat(video.Duration)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("no usable duration")
	}

	fps := rate.FPS()
	return &entity.VideoInfo{
		Duration:    duration,
		FrameRate:   rate,
		FPS:         fps,
		Width:       video.Width,
		Height:      video.Height,
		TotalFrames: timecode.TotalFrames(duration, fps),
	}, nil
}

// ffprobe reports numbers as strings.
func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
