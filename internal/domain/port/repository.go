package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/stierma1/video-scene-detector/internal/domain/entity"
)

type JobRepository interface {
	Create(ctx context.Context, job *entity.SceneJob) error
	Update(ctx context.Context, job *entity.SceneJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.SceneJob, error)
}
