package frames

import (
	"fmt"

	"github.com/stierma1/video-scene-detector/internal/domain/entity"
)

// Validator enforces the hard invariants on a frame range before it is
// handed to extraction. The frame ceiling is injected at construction
// rather than read from a package constant.
type Validator struct {
	maxFrames int
}

func NewValidator(maxFrames int) Validator {
	return Validator{maxFrames: maxFrames}
}

// Result reports every violated rule; checks never short-circuit so a
// caller sees all problems at once.
type Result struct {
	Valid      bool
	Violations []string
	FrameCount int
}

// Validate is a pure pre-flight check on inclusive 1-indexed bounds.
func (v Validator) Validate(start, end, totalFrames int) Result {
	var violations []string

	if start < 1 {
		violations = append(violations, fmt.Sprintf("start frame must be a positive integer, got %d", start))
	}
	if end < 1 {
		violations = append(violations, fmt.Sprintf("end frame must be a positive integer, got %d", end))
	}
	if start > end {
		violations = append(violations, fmt.Sprintf("start frame %d must not exceed end frame %d", start, end))
	}
	if end > totalFrames {
		violations = append(violations, fmt.Sprintf("end frame %d exceeds total frames %d", end, totalFrames))
	}
	count := end - start + 1
	if count > v.maxFrames {
		violations = append(violations, fmt.Sprintf("frame count %d exceeds maximum of %d", count, v.maxFrames))
	}

	return Result{
		Valid:      len(violations) == 0,
		Violations: violations,
		FrameCount: count,
	}
}

// ComputeAndValidate combines ComputeRange with validation. It returns
// *entity.ValidationError listing every violated rule when the computed
// range is unusable; no extraction should be attempted in that case.
func (v Validator) ComputeAndValidate(scene entity.Scene, offsetFrames, extractFrameCount, totalFrames int) (entity.FrameRange, error) {
	rng := ComputeRange(scene, offsetFrames, extractFrameCount, totalFrames)

	res := v.Validate(rng.StartFrame, rng.EndFrame, totalFrames)
	if !res.Valid {
		return entity.FrameRange{}, &entity.ValidationError{Violations: res.Violations}
	}
	return rng, nil
}
